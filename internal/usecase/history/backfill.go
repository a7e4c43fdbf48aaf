// Package history imports existing pull requests and reviews for newly
// installed repositories.
package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
)

// GitProvider abstracts the source-control host operations the backfill
// consumes.
type GitProvider interface {
	SearchIssues(ctx context.Context, query string, page int) (*github.SearchResult, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListReviews(ctx context.Context, owner, repo string, number, page int) ([]github.Review, error)
}

// Store persists backfilled records in bulk.
type Store interface {
	SavePullRequests(ctx context.Context, prs []domain.PullRequest) error
	SaveCodeReviews(ctx context.Context, reviews []domain.CodeReview) error
}

// Deps captures the backfill service's injected collaborators.
type Deps struct {
	Store Store
	Log   *zap.SugaredLogger

	// Months is the search window; zero means the default of 12.
	Months int
	// Concurrency bounds the detail-fetch fan-out; zero means the default of 8.
	Concurrency int
}

const (
	defaultMonths      = 12
	defaultConcurrency = 8
)

// Service paginates the provider's search results and imports each pull
// request with its reviews.
type Service struct {
	deps Deps
}

// NewService wires the backfill service dependencies.
func NewService(deps Deps) *Service {
	if deps.Months <= 0 {
		deps.Months = defaultMonths
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultConcurrency
	}
	return &Service{deps: deps}
}

// Backfill enumerates the repository's pull requests inside the search
// window, persists them in one bulk write, then imports each pull request's
// reviews. A review-fetch failure for one pull request is logged and does not
// abort the others.
func (s *Service) Backfill(ctx context.Context, provider GitProvider, repo domain.Repository) error {
	log := s.deps.Log.With("repository", repo.FullName)

	numbers, err := s.collectPullNumbers(ctx, provider, repo)
	if err != nil {
		return fmt.Errorf("search pull requests: %w", err)
	}
	if len(numbers) == 0 {
		log.Infow("no pull requests to backfill")
		return nil
	}

	prs := s.fetchPullRequests(ctx, provider, repo, numbers)
	if len(prs) == 0 {
		log.Warnw("no pull request details could be fetched", "candidates", len(numbers))
		return nil
	}

	if err := s.deps.Store.SavePullRequests(ctx, prs); err != nil {
		return fmt.Errorf("persist pull requests: %w", err)
	}
	log.Infow("pull requests imported", "count", len(prs))

	s.importReviews(ctx, provider, repo, prs)
	return nil
}

// collectPullNumbers pages the issue search until the reported total count is
// exhausted. Zero results return immediately without further calls.
func (s *Service) collectPullNumbers(ctx context.Context, provider GitProvider, repo domain.Repository) ([]int, error) {
	since := time.Now().UTC().AddDate(0, -s.deps.Months, 0).Format("2006-01-02")
	query := fmt.Sprintf("repo:%s/%s is:pr created:>=%s", repo.Owner, repo.Name, since)

	var numbers []int
	for page := 1; ; page++ {
		result, err := provider.SearchIssues(ctx, query, page)
		if err != nil {
			return nil, err
		}
		if result.TotalCount == 0 {
			return nil, nil
		}
		for _, item := range result.Items {
			numbers = append(numbers, item.Number)
		}
		if len(numbers) >= result.TotalCount || len(result.Items) == 0 {
			return numbers, nil
		}
	}
}

// fetchPullRequests fans out detail calls across a bounded worker pool.
// Failures are logged per pull request and do not cancel siblings.
func (s *Service) fetchPullRequests(ctx context.Context, provider GitProvider, repo domain.Repository, numbers []int) []domain.PullRequest {
	jobs := make(chan int)
	results := make(chan domain.PullRequest, len(numbers))

	var wg sync.WaitGroup
	for i := 0; i < s.deps.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for number := range jobs {
				pr, err := provider.GetPullRequest(ctx, repo.Owner, repo.Name, number)
				if err != nil {
					s.deps.Log.Warnw("failed to fetch pull request",
						"repository", repo.FullName,
						"pullNumber", number,
						"error", err,
					)
					continue
				}
				results <- github.MapPullRequest(*pr, repo.ID)
			}
		}()
	}

	for _, number := range numbers {
		jobs <- number
	}
	close(jobs)
	wg.Wait()
	close(results)

	prs := make([]domain.PullRequest, 0, len(numbers))
	for pr := range results {
		prs = append(prs, pr)
	}
	sort.Slice(prs, func(i, j int) bool { return prs[i].Number < prs[j].Number })
	return prs
}

// importReviews fetches and persists each pull request's reviews, one bulk
// write per pull request. Re-runs are idempotent because rows overwrite by
// natural key.
func (s *Service) importReviews(ctx context.Context, provider GitProvider, repo domain.Repository, prs []domain.PullRequest) {
	jobs := make(chan domain.PullRequest)

	var wg sync.WaitGroup
	for i := 0; i < s.deps.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pr := range jobs {
				if err := s.importPullRequestReviews(ctx, provider, repo, pr); err != nil {
					s.deps.Log.Warnw("failed to import reviews",
						"repository", repo.FullName,
						"pullNumber", pr.Number,
						"error", err,
					)
				}
			}
		}()
	}

	for _, pr := range prs {
		jobs <- pr
	}
	close(jobs)
	wg.Wait()
}

func (s *Service) importPullRequestReviews(ctx context.Context, provider GitProvider, repo domain.Repository, pr domain.PullRequest) error {
	var reviews []domain.CodeReview
	for page := 1; ; page++ {
		batch, err := provider.ListReviews(ctx, repo.Owner, repo.Name, pr.Number, page)
		if err != nil {
			return err
		}
		for _, r := range batch {
			reviews = append(reviews, github.MapReview(r, pr.ID))
		}
		if len(batch) < github.ReviewsPageSize {
			break
		}
	}
	if len(reviews) == 0 {
		return nil
	}
	return s.deps.Store.SaveCodeReviews(ctx, reviews)
}
