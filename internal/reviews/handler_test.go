package reviews_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
	"github.com/reviewdesk/reviewdesk/internal/rbac/rbactest"
	"github.com/reviewdesk/reviewdesk/internal/reviews"
	"github.com/reviewdesk/reviewdesk/internal/shared"
	_ "github.com/reviewdesk/reviewdesk/testing"
)

type memRepo struct {
	mu    sync.Mutex
	tools map[uuid.UUID]bool
	rows  []reviews.Review
}

func (m *memRepo) Create(_ context.Context, toolID, userID uuid.UUID, in reviews.SubmitInput) (reviews.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.tools[toolID] {
		return reviews.Review{}, reviews.ErrToolNotFound
	}
	rev := reviews.Review{ID: uuid.New(), ToolID: toolID, UserID: userID, Title: in.Title, Content: in.Content,
		Rating: *in.Rating, Status: reviews.StatusPending, CreatedAt: time.Now().UTC()}
	m.rows = append(m.rows, rev)
	return rev, nil
}

func (m *memRepo) ListByStatus(_ context.Context, status reviews.Status) ([]reviews.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []reviews.Review{}
	for _, rev := range m.rows {
		if rev.Status == status {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (m *memRepo) ListApprovedForTool(_ context.Context, toolID uuid.UUID) ([]reviews.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []reviews.Review{}
	for _, rev := range m.rows {
		if rev.ToolID == toolID && rev.Status == reviews.StatusApproved {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (m *memRepo) SetStatus(_ context.Context, id uuid.UUID, status reviews.Status) (reviews.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.rows, func(r reviews.Review) bool { return r.ID == id })
	if i < 0 {
		return reviews.Review{}, reviews.ErrNotFound
	}
	m.rows[i].Status = status
	return m.rows[i], nil
}

type auditSpy struct {
	mu      sync.Mutex
	entries []shared.AuditLog
}

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, log)
	return nil
}

type env struct {
	f      *rbactest.Fixture
	repo   *memRepo
	audit  *auditSpy
	router http.Handler
	toolID uuid.UUID
}

func newEnv() *env {
	f := rbactest.NewFixture()
	toolID := uuid.New()
	repo := &memRepo{tools: map[uuid.UUID]bool{toolID: true}}
	audit := &auditSpy{}
	r := chi.NewRouter()
	reviews.NewHandler(nil, reviews.NewService(repo, audit), f.Middleware).MountRoutes(r)
	return &env{f: f, repo: repo, audit: audit, router: r, toolID: toolID}
}

func (e *env) do(method, path, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req, _ = e.f.UserAs(req, role)
	}
	res := httptest.NewRecorder()
	e.router.ServeHTTP(res, req)
	return res
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, res.Code, res.Body.String())
	var v T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &v))
	return v
}

const validReview = `{"title":"Great","content":"Works well for our team","rating":4.5}`

func TestCustomerSubmitsPendingReview(t *testing.T) {
	e := newEnv()
	req := httptest.NewRequest(http.MethodPost, "/tools/"+e.toolID.String()+"/reviews", strings.NewReader(validReview))
	req.Header.Set("Content-Type", "application/json")
	req, author := e.f.UserAs(req, rbac.RoleCustomer)
	res := httptest.NewRecorder()
	e.router.ServeHTTP(res, req)

	rev := decode[reviews.Review](t, res, http.StatusCreated)
	assert.Equal(t, reviews.StatusPending, rev.Status)
	assert.Equal(t, author, rev.UserID)
	assert.InDelta(t, 4.5, rev.Rating, 0.001)
}

func TestSubmitRequiresSubmitReviewPermission(t *testing.T) {
	e := newEnv()
	path := "/tools/" + e.toolID.String() + "/reviews"
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, path, "", validReview).Code)

	res := e.do(http.MethodPost, path, rbac.RoleContent, validReview)
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "submit_review")

	e.f.Store.RevokePermission(rbac.RoleCustomer, rbac.PermSubmitReview)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, path, rbac.RoleCustomer, validReview).Code)
	assert.Equal(t, http.StatusCreated, e.do(http.MethodPost, path, rbac.RoleSuperadmin, validReview).Code)
}

func TestSubmitValidation(t *testing.T) {
	e := newEnv()
	path := "/tools/" + e.toolID.String() + "/reviews"
	for _, body := range []string{
		`{"content":"x","rating":3}`,
		`{"title":"x","rating":3}`,
		`{"title":"x","content":"y"}`,
		`{"title":"x","content":"y","rating":0}`,
		`{"title":"x","content":"y","rating":5.5}`,
		`{"title":"  ","content":"y","rating":3}`,
		`{"title":"x","content":"y","rating":3,"status":"approved"}`,
	} {
		assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, path, rbac.RoleCustomer, body).Code, body)
	}
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/tools/"+uuid.NewString()+"/reviews", rbac.RoleCustomer, validReview).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/tools/nope/reviews", rbac.RoleCustomer, validReview).Code)
}

func TestServiceSubmitChecksRating(t *testing.T) {
	e := newEnv()
	svc := reviews.NewService(e.repo, e.audit)
	out := 6.0
	for _, rating := range []*float64{nil, &out} {
		_, err := svc.Submit(context.Background(), uuid.New(), e.toolID, reviews.SubmitInput{Title: "t", Content: "c", Rating: rating})
		require.ErrorIs(t, err, httpx.ErrValidation)
	}
	assert.Empty(t, e.repo.rows)
}

func TestModerationFlow(t *testing.T) {
	e := newEnv()
	rev := decode[reviews.Review](t, e.do(http.MethodPost, "/tools/"+e.toolID.String()+"/reviews", rbac.RoleCustomer, validReview), http.StatusCreated)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/reviews", rbac.RoleCustomer, "").Code)
	pending := decode[[]reviews.Review](t, e.do(http.MethodGet, "/reviews", rbac.RoleContent, ""), http.StatusOK)
	require.Len(t, pending, 1)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/reviews?status=spam", rbac.RoleContent, "").Code)

	assert.Empty(t, decode[[]reviews.Review](t, e.do(http.MethodGet, "/tools/"+e.toolID.String()+"/reviews", "", ""), http.StatusOK))

	approved := decode[reviews.Review](t, e.do(http.MethodPost, "/reviews/"+rev.ID.String()+"/approve", rbac.RoleContent, ""), http.StatusOK)
	assert.Equal(t, reviews.StatusApproved, approved.Status)
	assert.Len(t, decode[[]reviews.Review](t, e.do(http.MethodGet, "/tools/"+e.toolID.String()+"/reviews", "", ""), http.StatusOK), 1)
	assert.Len(t, decode[[]reviews.Review](t, e.do(http.MethodGet, "/reviews?status=approved", rbac.RoleContent, ""), http.StatusOK), 1)

	rejected := decode[reviews.Review](t, e.do(http.MethodPost, "/reviews/"+rev.ID.String()+"/reject", rbac.RoleContent, ""), http.StatusOK)
	assert.Equal(t, reviews.StatusRejected, rejected.Status)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/reviews/"+uuid.NewString()+"/approve", rbac.RoleContent, "").Code)

	require.Len(t, e.audit.entries, 2)
	assert.Equal(t, "reviews.approved", e.audit.entries[0].Action)
	assert.Equal(t, "reviews.rejected", e.audit.entries[1].Action)
}
