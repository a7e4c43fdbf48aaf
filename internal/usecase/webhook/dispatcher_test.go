package webhook_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/history"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/review"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/webhook"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/pkg/logger"
)

const botLogin = "quick-reviewer[bot]"

type fakeProvider struct {
	pullRequest *github.PullRequest
	pullErr     error
}

func (p *fakeProvider) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]github.ChangedFile, error) {
	return nil, nil
}

func (p *fakeProvider) CompareCommits(ctx context.Context, owner, repo, base, head string) ([]github.ChangedFile, error) {
	return nil, nil
}

func (p *fakeProvider) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (*github.IssueComment, error) {
	return &github.IssueComment{ID: 1}, nil
}

func (p *fakeProvider) UpdateIssueComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	return nil
}

func (p *fakeProvider) CreateReview(ctx context.Context, owner, repo string, number int, input github.CreateReviewInput) (*github.Review, error) {
	return &github.Review{ID: 1}, nil
}

func (p *fakeProvider) SearchIssues(ctx context.Context, query string, page int) (*github.SearchResult, error) {
	return &github.SearchResult{}, nil
}

func (p *fakeProvider) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	return p.pullRequest, p.pullErr
}

func (p *fakeProvider) ListReviews(ctx context.Context, owner, repo string, number, page int) ([]github.Review, error) {
	return nil, nil
}

type mockAccountStore struct {
	accounts     []domain.Account
	deletedAccts []int64
	users        []domain.User
	savedRepos   [][]domain.Repository
	deletedRepos [][]int64
	renames      []string
}

func (m *mockAccountStore) SaveAccount(ctx context.Context, account domain.Account) error {
	m.accounts = append(m.accounts, account)
	return nil
}

func (m *mockAccountStore) DeleteAccount(ctx context.Context, id int64) error {
	m.deletedAccts = append(m.deletedAccts, id)
	return nil
}

func (m *mockAccountStore) SaveUser(ctx context.Context, user domain.User) error {
	m.users = append(m.users, user)
	return nil
}

func (m *mockAccountStore) SaveRepositories(ctx context.Context, repos []domain.Repository) error {
	m.savedRepos = append(m.savedRepos, repos)
	return nil
}

func (m *mockAccountStore) DeleteRepositories(ctx context.Context, ids []int64) error {
	m.deletedRepos = append(m.deletedRepos, ids)
	return nil
}

func (m *mockAccountStore) RenameRepository(ctx context.Context, id int64, name, fullName string) error {
	m.renames = append(m.renames, fullName)
	return nil
}

type mockPullRequestStore struct {
	saved       []domain.PullRequest
	patches     map[int64]domain.PullRequestPatch
	byNumber    domain.PullRequest
	byNumberErr error
	deletedBy   []int64
	deleteErrOn map[int64]error
}

func (m *mockPullRequestStore) SavePullRequest(ctx context.Context, pr domain.PullRequest) error {
	m.saved = append(m.saved, pr)
	return nil
}

func (m *mockPullRequestStore) UpdatePullRequest(ctx context.Context, id int64, patch domain.PullRequestPatch) error {
	if m.patches == nil {
		m.patches = make(map[int64]domain.PullRequestPatch)
	}
	m.patches[id] = patch
	return nil
}

func (m *mockPullRequestStore) GetPullRequestByNumber(ctx context.Context, repositoryID int64, number int) (domain.PullRequest, error) {
	return m.byNumber, m.byNumberErr
}

func (m *mockPullRequestStore) DeletePullRequestsByRepository(ctx context.Context, repositoryID int64) error {
	m.deletedBy = append(m.deletedBy, repositoryID)
	if err, ok := m.deleteErrOn[repositoryID]; ok {
		return err
	}
	return nil
}

type mockCommentStore struct {
	saved    []domain.PullRequestComment
	updated  map[int64]string
	deleted  []int64
	resolved [][]int64
	lastMark *time.Time
}

func (m *mockCommentStore) SaveComment(ctx context.Context, comment domain.PullRequestComment) error {
	m.saved = append(m.saved, comment)
	return nil
}

func (m *mockCommentStore) UpdateCommentBody(ctx context.Context, id int64, body string, updatedAt time.Time) error {
	if m.updated == nil {
		m.updated = make(map[int64]string)
	}
	m.updated[id] = body
	return nil
}

func (m *mockCommentStore) DeleteComment(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockCommentStore) SetCommentsResolved(ctx context.Context, ids []int64, resolvedAt *time.Time) error {
	m.resolved = append(m.resolved, ids)
	m.lastMark = resolvedAt
	return nil
}

type mockReviewStore struct {
	saved []domain.CodeReview
}

func (m *mockReviewStore) SaveCodeReview(ctx context.Context, r domain.CodeReview) error {
	m.saved = append(m.saved, r)
	return nil
}

type mockHistory struct {
	repos []domain.Repository
	err   error
}

func (m *mockHistory) Backfill(ctx context.Context, provider history.GitProvider, repo domain.Repository) error {
	m.repos = append(m.repos, repo)
	return m.err
}

type mockReviewer struct {
	summaries []review.Params
	reviews   []review.Params
}

func (m *mockReviewer) GenerateSummary(ctx context.Context, provider review.GitProvider, params review.Params) error {
	m.summaries = append(m.summaries, params)
	return nil
}

func (m *mockReviewer) GenerateReview(ctx context.Context, provider review.GitProvider, params review.Params) error {
	m.reviews = append(m.reviews, params)
	return nil
}

type fixture struct {
	accounts     *mockAccountStore
	pullRequests *mockPullRequestStore
	comments     *mockCommentStore
	reviews      *mockReviewStore
	history      *mockHistory
	reviewer     *mockReviewer
	dispatcher   *webhook.Dispatcher
	provider     *fakeProvider
}

func newFixture() *fixture {
	f := &fixture{
		accounts:     &mockAccountStore{},
		pullRequests: &mockPullRequestStore{},
		comments:     &mockCommentStore{},
		reviews:      &mockReviewStore{},
		history:      &mockHistory{},
		reviewer:     &mockReviewer{},
		provider:     &fakeProvider{},
	}
	f.dispatcher = webhook.NewDispatcher(webhook.Deps{
		Accounts:     f.accounts,
		PullRequests: f.pullRequests,
		Comments:     f.comments,
		Reviews:      f.reviews,
		History:      f.history,
		Reviewer:     f.reviewer,
		Log:          logger.NewNop(),
		BotLogin:     botLogin,
	})
	return f
}

func (f *fixture) dispatch(t *testing.T, eventType webhook.EventType, payload string) error {
	t.Helper()
	return f.dispatcher.Dispatch(context.Background(), eventType, webhook.Delivery{
		Provider: f.provider,
		Payload:  json.RawMessage(payload),
	})
}

const repoJSON = `{"id":5,"name":"widgets","full_name":"acme/widgets","owner":{"id":77,"login":"acme","type":"Organization"}}`

func pullRequestJSON(action, headSHA string) string {
	return `{
		"action": "` + action + `",
		"number": 42,
		"pull_request": {
			"id": 11, "number": 42, "title": "Add parser", "state": "open",
			"head": {"sha": "` + headSHA + `"}, "base": {"sha": "basesha"},
			"user": {"id": 9, "login": "alice", "type": "User"},
			"created_at": "2026-08-01T10:00:00Z", "updated_at": "2026-08-02T10:00:00Z"
		},
		"repository": ` + repoJSON + `
	}`
}

func TestDispatchMissingHandler(t *testing.T) {
	f := newFixture()
	err := f.dispatch(t, webhook.EventType("push"), `{}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoHandler)
}

func TestKnownEventType(t *testing.T) {
	assert.True(t, webhook.KnownEventType(webhook.EventPullRequest))
	assert.True(t, webhook.KnownEventType(webhook.EventInstallation))
	assert.False(t, webhook.KnownEventType(webhook.EventType("push")))
	assert.False(t, webhook.KnownEventType(webhook.EventType("")))
}

func TestPullRequestOpenedTriggersWorkflow(t *testing.T) {
	f := newFixture()
	err := f.dispatch(t, webhook.EventPullRequest, pullRequestJSON("opened", "headsha"))
	require.NoError(t, err)

	require.Len(t, f.pullRequests.saved, 1)
	saved := f.pullRequests.saved[0]
	assert.Equal(t, int64(11), saved.ID)
	assert.Equal(t, "headsha", saved.HeadSHA)
	assert.Equal(t, int64(5), saved.RepositoryID)

	require.Len(t, f.reviewer.summaries, 1)
	require.Len(t, f.reviewer.reviews, 1)
	assert.Equal(t, "headsha", f.reviewer.reviews[0].PullRequest.HeadSHA)
	assert.Equal(t, "acme/widgets", f.reviewer.reviews[0].Repository.FullName)
}

func TestPullRequestSynchronizePatchesHead(t *testing.T) {
	f := newFixture()
	err := f.dispatch(t, webhook.EventPullRequest, pullRequestJSON("synchronize", "newsha"))
	require.NoError(t, err)

	assert.Empty(t, f.pullRequests.saved)
	patch, ok := f.pullRequests.patches[11]
	require.True(t, ok)
	require.NotNil(t, patch.HeadSHA)
	assert.Equal(t, "newsha", *patch.HeadSHA)

	require.Len(t, f.reviewer.reviews, 1)
	assert.Equal(t, "newsha", f.reviewer.reviews[0].PullRequest.HeadSHA)
}

func TestPullRequestUnknownActionIsNoOp(t *testing.T) {
	f := newFixture()
	err := f.dispatch(t, webhook.EventPullRequest, pullRequestJSON("labeled", "headsha"))
	require.NoError(t, err)

	assert.Empty(t, f.pullRequests.saved)
	assert.Empty(t, f.pullRequests.patches)
	assert.Empty(t, f.reviewer.summaries)
	assert.Empty(t, f.reviewer.reviews)
}

func TestPullRequestReopenedClearsClosedState(t *testing.T) {
	f := newFixture()
	err := f.dispatch(t, webhook.EventPullRequest, pullRequestJSON("reopened", "headsha"))
	require.NoError(t, err)

	patch, ok := f.pullRequests.patches[11]
	require.True(t, ok)
	require.NotNil(t, patch.State)
	assert.Equal(t, domain.PRStateOpen, *patch.State)
	assert.True(t, patch.ClearClosed)
}

func TestInstallationCreatedRegistersAndBackfills(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "created",
		"installation": {"id": 1, "account": {"id": 77, "login": "acme", "type": "Organization"}},
		"repositories": [
			{"id": 5, "name": "widgets", "full_name": "acme/widgets"},
			{"id": 6, "name": "gadgets", "full_name": "acme/gadgets"}
		],
		"sender": {"id": 9, "login": "alice", "type": "User"}
	}`
	err := f.dispatch(t, webhook.EventInstallation, payload)
	require.NoError(t, err)

	require.Len(t, f.accounts.accounts, 1)
	assert.Equal(t, int64(77), f.accounts.accounts[0].ID)
	require.Len(t, f.accounts.users, 1)
	assert.Equal(t, "alice", f.accounts.users[0].Login)

	require.Len(t, f.accounts.savedRepos, 1)
	require.Len(t, f.accounts.savedRepos[0], 2)
	assert.Equal(t, "acme", f.accounts.savedRepos[0][0].Owner)

	require.Len(t, f.history.repos, 2)
	assert.Equal(t, "acme/widgets", f.history.repos[0].FullName)
	assert.Equal(t, "acme/gadgets", f.history.repos[1].FullName)
}

func TestInstallationDeletedRemovesAccount(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "deleted",
		"installation": {"id": 1, "account": {"id": 77, "login": "acme", "type": "Organization"}}
	}`
	err := f.dispatch(t, webhook.EventInstallation, payload)
	require.NoError(t, err)
	assert.Equal(t, []int64{77}, f.accounts.deletedAccts)
}

func TestRepositoriesRemovedDeletesDespitePullFailure(t *testing.T) {
	f := newFixture()
	f.pullRequests.deleteErrOn = map[int64]error{5: errors.New("db down")}

	payload := `{
		"action": "removed",
		"installation": {"id": 1, "account": {"id": 77, "login": "acme", "type": "Organization"}},
		"repositories_removed": [
			{"id": 5, "name": "widgets", "full_name": "acme/widgets"},
			{"id": 6, "name": "gadgets", "full_name": "acme/gadgets"}
		]
	}`
	err := f.dispatch(t, webhook.EventInstallationRepositories, payload)
	require.NoError(t, err)

	// Pull request cleanup was attempted for both; the failure on one did not
	// stop the repository deletion.
	assert.Equal(t, []int64{5, 6}, f.pullRequests.deletedBy)
	require.Len(t, f.accounts.deletedRepos, 1)
	assert.Equal(t, []int64{5, 6}, f.accounts.deletedRepos[0])
}

func TestIssueCommentReviewCommandUsesFreshHead(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.provider.pullRequest = &github.PullRequest{
		ID:        11,
		Number:    42,
		State:     "open",
		Head:      github.CommitRef{SHA: "freshsha"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	payload := `{
		"action": "created",
		"comment": {"id": 300, "body": "/review", "user": {"id": 9, "login": "alice", "type": "User"}},
		"issue": {"number": 42, "pull_request": {"url": "https://api.github.com/repos/acme/widgets/pulls/42"}},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventIssueComment, payload)
	require.NoError(t, err)

	require.Len(t, f.reviewer.reviews, 1)
	assert.Equal(t, "freshsha", f.reviewer.reviews[0].PullRequest.HeadSHA)
	assert.Empty(t, f.reviewer.summaries)
	assert.Empty(t, f.comments.saved)
}

func TestIssueCommentSummarizeCommand(t *testing.T) {
	f := newFixture()
	f.pullRequests.byNumber = domain.PullRequest{ID: 11, Number: 42, HeadSHA: "storedsha"}
	f.provider.pullErr = errors.New("unreachable")

	payload := `{
		"action": "created",
		"comment": {"id": 300, "body": "/summarize", "user": {"id": 9, "login": "alice", "type": "User"}},
		"issue": {"number": 42, "pull_request": {"url": "https://api.github.com/repos/acme/widgets/pulls/42"}},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventIssueComment, payload)
	require.NoError(t, err)

	// Provider fetch failed; the stored row backs the command instead.
	require.Len(t, f.reviewer.summaries, 1)
	assert.Equal(t, "storedsha", f.reviewer.summaries[0].PullRequest.HeadSHA)
}

func TestIssueCommentFromBotIsIgnored(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "created",
		"comment": {"id": 300, "body": "/review", "user": {"id": 1, "login": "` + botLogin + `", "type": "Bot"}},
		"issue": {"number": 42, "pull_request": {"url": "u"}},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventIssueComment, payload)
	require.NoError(t, err)

	assert.Empty(t, f.reviewer.reviews)
	assert.Empty(t, f.comments.saved)
}

func TestIssueCommentOnPlainIssueIsIgnored(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "created",
		"comment": {"id": 300, "body": "hello", "user": {"id": 9, "login": "alice", "type": "User"}},
		"issue": {"number": 42},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventIssueComment, payload)
	require.NoError(t, err)
	assert.Empty(t, f.comments.saved)
}

func TestIssueCommentMirrored(t *testing.T) {
	f := newFixture()
	f.pullRequests.byNumber = domain.PullRequest{ID: 11, Number: 42}

	payload := `{
		"action": "created",
		"comment": {"id": 300, "body": "nice work", "user": {"id": 9, "login": "alice", "type": "User"},
			"created_at": "2026-08-01T10:00:00Z", "updated_at": "2026-08-01T10:00:00Z"},
		"issue": {"number": 42, "pull_request": {"url": "u"}},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventIssueComment, payload)
	require.NoError(t, err)

	require.Len(t, f.comments.saved, 1)
	assert.Equal(t, int64(300), f.comments.saved[0].ID)
	assert.Equal(t, int64(11), f.comments.saved[0].PullRequestID)
	assert.Equal(t, "alice", f.comments.saved[0].Author)
}

func TestPullRequestReviewSubmittedMirrored(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "submitted",
		"review": {"id": 800, "user": {"id": 9, "login": "alice", "type": "User"},
			"state": "APPROVED", "commit_id": "headsha", "body": "lgtm",
			"submitted_at": "2026-08-01T10:00:00Z"},
		"pull_request": {"id": 11, "number": 42},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventPullRequestReview, payload)
	require.NoError(t, err)

	require.Len(t, f.reviews.saved, 1)
	assert.Equal(t, int64(800), f.reviews.saved[0].ID)
	assert.Equal(t, domain.ReviewStatusApproved, f.reviews.saved[0].Status)
	assert.Equal(t, int64(11), f.reviews.saved[0].PullRequestID)
}

func TestReviewThreadResolved(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "resolved",
		"thread": {"comments": [{"id": 31}, {"id": 32}]},
		"pull_request": {"id": 11, "number": 42},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventPullRequestReviewThread, payload)
	require.NoError(t, err)

	require.Len(t, f.comments.resolved, 1)
	assert.Equal(t, []int64{31, 32}, f.comments.resolved[0])
	assert.NotNil(t, f.comments.lastMark)
}

func TestReviewThreadUnresolved(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "unresolved",
		"thread": {"comments": [{"id": 31}]},
		"pull_request": {"id": 11, "number": 42},
		"repository": ` + repoJSON + `
	}`
	err := f.dispatch(t, webhook.EventPullRequestReviewThread, payload)
	require.NoError(t, err)

	require.Len(t, f.comments.resolved, 1)
	assert.Nil(t, f.comments.lastMark)
}

func TestRepositoryRenamed(t *testing.T) {
	f := newFixture()
	payload := `{
		"action": "renamed",
		"repository": ` + repoJSON + `,
		"changes": {"repository": {"name": {"from": "old-widgets"}}}
	}`
	err := f.dispatch(t, webhook.EventRepository, payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme/widgets"}, f.accounts.renames)
}
