package history_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/history"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/pkg/logger"
)

type mockProvider struct {
	mu sync.Mutex

	total       int
	searchCalls int
	searchErr   error

	pullCalls int
	failPulls map[int]bool

	reviewsByPull map[int][]github.Review
	reviewCalls   int
}

func (m *mockProvider) SearchIssues(ctx context.Context, query string, page int) (*github.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}

	result := &github.SearchResult{TotalCount: m.total}
	start := (page - 1) * github.SearchPageSize
	for i := start; i < m.total && i < start+github.SearchPageSize; i++ {
		result.Items = append(result.Items, github.SearchHit{Number: i + 1})
	}
	return result, nil
}

func (m *mockProvider) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pullCalls++
	if m.failPulls[number] {
		return nil, fmt.Errorf("boom on %d", number)
	}
	now := time.Now()
	return &github.PullRequest{
		ID:        int64(number) * 100,
		Number:    number,
		State:     "open",
		Head:      github.CommitRef{SHA: fmt.Sprintf("sha-%d", number)},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (m *mockProvider) ListReviews(ctx context.Context, owner, repo string, number, page int) ([]github.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviewCalls++
	reviews := m.reviewsByPull[number]
	start := (page - 1) * github.ReviewsPageSize
	if start >= len(reviews) {
		return nil, nil
	}
	end := start + github.ReviewsPageSize
	if end > len(reviews) {
		end = len(reviews)
	}
	return reviews[start:end], nil
}

type mockStore struct {
	mu          sync.Mutex
	pulls       [][]domain.PullRequest
	reviews     [][]domain.CodeReview
	savePullErr error
}

func (m *mockStore) SavePullRequests(ctx context.Context, prs []domain.PullRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulls = append(m.pulls, prs)
	return m.savePullErr
}

func (m *mockStore) SaveCodeReviews(ctx context.Context, reviews []domain.CodeReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, reviews)
	return nil
}

func testRepo() domain.Repository {
	return domain.Repository{ID: 5, Owner: "acme", Name: "widgets", FullName: "acme/widgets"}
}

func newService(store *mockStore) *history.Service {
	return history.NewService(history.Deps{
		Store:       store,
		Log:         logger.NewNop(),
		Concurrency: 4,
	})
}

func TestBackfillPaginatesUntilTotalCount(t *testing.T) {
	provider := &mockProvider{total: 250}
	store := &mockStore{}

	err := newService(store).Backfill(context.Background(), provider, testRepo())
	require.NoError(t, err)

	// ceil(250/100) search pages, one detail call per hit.
	assert.Equal(t, 3, provider.searchCalls)
	assert.Equal(t, 250, provider.pullCalls)

	require.Len(t, store.pulls, 1)
	prs := store.pulls[0]
	require.Len(t, prs, 250)
	assert.Equal(t, 1, prs[0].Number)
	assert.Equal(t, 250, prs[249].Number)
	assert.Equal(t, int64(5), prs[0].RepositoryID)
}

func TestBackfillEmptyRepository(t *testing.T) {
	provider := &mockProvider{total: 0}
	store := &mockStore{}

	err := newService(store).Backfill(context.Background(), provider, testRepo())
	require.NoError(t, err)

	assert.Equal(t, 1, provider.searchCalls)
	assert.Equal(t, 0, provider.pullCalls)
	assert.Empty(t, store.pulls)
	assert.Empty(t, store.reviews)
}

func TestBackfillSearchFailureAborts(t *testing.T) {
	provider := &mockProvider{searchErr: errors.New("rate limited")}
	store := &mockStore{}

	err := newService(store).Backfill(context.Background(), provider, testRepo())
	require.Error(t, err)
	assert.Empty(t, store.pulls)
}

func TestBackfillSkipsFailedPullRequests(t *testing.T) {
	provider := &mockProvider{total: 5, failPulls: map[int]bool{3: true}}
	store := &mockStore{}

	err := newService(store).Backfill(context.Background(), provider, testRepo())
	require.NoError(t, err)

	require.Len(t, store.pulls, 1)
	prs := store.pulls[0]
	require.Len(t, prs, 4)
	for _, pr := range prs {
		assert.NotEqual(t, 3, pr.Number)
	}
}

func TestBackfillImportsReviews(t *testing.T) {
	provider := &mockProvider{
		total: 2,
		reviewsByPull: map[int][]github.Review{
			1: {
				{ID: 10, User: github.Actor{Login: "alice"}, State: "APPROVED", CommitID: "c1", SubmittedAt: time.Now()},
				{ID: 11, User: github.Actor{Login: "bob"}, State: "CHANGES_REQUESTED", CommitID: "c1", SubmittedAt: time.Now()},
			},
		},
	}
	store := &mockStore{}

	err := newService(store).Backfill(context.Background(), provider, testRepo())
	require.NoError(t, err)

	// One bulk write for the pull request that has reviews; the empty one
	// writes nothing.
	require.Len(t, store.reviews, 1)
	reviews := store.reviews[0]
	require.Len(t, reviews, 2)
	assert.Equal(t, int64(100), reviews[0].PullRequestID)
	assert.Equal(t, domain.ReviewStatusApproved, reviews[0].Status)
	assert.Equal(t, domain.ReviewStatusChangesRequested, reviews[1].Status)
}
