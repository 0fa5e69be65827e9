package categories_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/categories"
	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
	"github.com/reviewdesk/reviewdesk/internal/rbac/rbactest"
	_ "github.com/reviewdesk/reviewdesk/testing"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]categories.Category
}

func newMemRepo() *memRepo { return &memRepo{rows: map[uuid.UUID]categories.Category{}} }

func (m *memRepo) List(context.Context) ([]categories.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]categories.Category, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (categories.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return categories.Category{}, categories.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) GetBySlug(_ context.Context, slug string) (categories.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.Slug == slug {
			return c, nil
		}
	}
	return categories.Category{}, categories.ErrNotFound
}

func (m *memRepo) slugTaken(slug string, except uuid.UUID) bool {
	for id, c := range m.rows {
		if c.Slug == slug && id != except {
			return true
		}
	}
	return false
}

func (m *memRepo) Create(_ context.Context, in categories.CreateInput) (categories.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(in.Slug, uuid.Nil) {
		return categories.Category{}, categories.ErrSlugTaken
	}
	c := categories.Category{ID: uuid.New(), Name: in.Name, Slug: in.Slug, CreatedAt: time.Now().UTC()}
	m.rows[c.ID] = c
	return c, nil
}

func (m *memRepo) Update(_ context.Context, id uuid.UUID, patch categories.Patch) (categories.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return categories.Category{}, categories.ErrNotFound
	}
	if patch.Slug != nil {
		if m.slugTaken(*patch.Slug, id) {
			return categories.Category{}, categories.ErrSlugTaken
		}
		c.Slug = *patch.Slug
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	m.rows[id] = c
	return c, nil
}

func setup() (*rbactest.Fixture, *memRepo, http.Handler) {
	f := rbactest.NewFixture()
	repo := newMemRepo()
	r := chi.NewRouter()
	categories.NewHandler(nil, categories.NewService(repo), f.Middleware).MountRoutes(r)
	return f, repo, r
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func post(f *rbactest.Fixture, router http.Handler, role, body string) *httptest.ResponseRecorder {
	req, _ := f.UserAs(jsonRequest(http.MethodPost, "/categories", body), role)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestCreateCategoryNormalizesSlug(t *testing.T) {
	f, _, router := setup()
	res := post(f, router, rbac.RoleContent, `{"name":"Project Management","slug":"Project Management"}`)
	require.Equal(t, http.StatusCreated, res.Code)

	var c categories.Category
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &c))
	assert.Equal(t, "project-management", c.Slug)
}

func TestCreateCategoryDuplicateSlugReturnsExisting(t *testing.T) {
	f, repo, router := setup()
	first := post(f, router, rbac.RoleContent, `{"name":"CRM","slug":"crm"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	var original categories.Category
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &original))

	second := post(f, router, rbac.RoleContent, `{"name":"Customer Relations","slug":"crm"}`)
	require.Equal(t, http.StatusConflict, second.Code)

	var problem struct {
		httpx.ProblemDetail
		Existing categories.Category `json:"existing"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &problem))
	assert.Equal(t, original.ID, problem.Existing.ID)
	assert.Equal(t, "CRM", problem.Existing.Name)

	stored, err := repo.Get(context.Background(), original.ID)
	require.NoError(t, err)
	assert.Equal(t, "CRM", stored.Name)
}

func TestCreateCategoryValidation(t *testing.T) {
	f, _, router := setup()
	for _, body := range []string{`{"name":"CRM"}`, `{"name":"CRM","slug":"!!!"}`, `{"name":"CRM","slug":"crm","status":"x"}`} {
		res := post(f, router, rbac.RoleContent, body)
		assert.Equal(t, http.StatusBadRequest, res.Code, body)
	}
}

func TestCreateCategoryRequiresPermission(t *testing.T) {
	f, _, router := setup()
	res := post(f, router, rbac.RoleCustomer, `{"name":"CRM","slug":"crm"}`)
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "manage_categories")

	anon := httptest.NewRecorder()
	router.ServeHTTP(anon, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
}

func TestCreateCategoryRejectsNonJSONBody(t *testing.T) {
	f, repo, router := setup()
	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Pwned","slug":"pwned"}`))
	req.Header.Set("Content-Type", "text/plain")
	req, _ = f.UserAs(req, rbac.RoleContent)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnsupportedMediaType, res.Code, res.Body.String())
	assert.Empty(t, repo.rows)
}

func TestListCategoriesIsPublic(t *testing.T) {
	f, _, router := setup()
	post(f, router, rbac.RoleContent, `{"name":"B","slug":"b"}`)
	post(f, router, rbac.RoleContent, `{"name":"A","slug":"a"}`)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/categories", nil))
	require.Equal(t, http.StatusOK, res.Code)
	var list []categories.Category
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
}

func TestPatchCategory(t *testing.T) {
	f, _, router := setup()
	created := post(f, router, rbac.RoleContent, `{"name":"CRM","slug":"crm"}`)
	var c categories.Category
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &c))
	post(f, router, rbac.RoleContent, `{"name":"Email","slug":"email"}`)

	patch := func(body string) *httptest.ResponseRecorder {
		req, _ := f.UserAs(jsonRequest(http.MethodPatch, "/categories/"+c.ID.String(), body), rbac.RoleContent)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		return res
	}

	res := patch(`{"name":"CRM Suites"}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &c))
	assert.Equal(t, "CRM Suites", c.Name)
	assert.Equal(t, "crm", c.Slug)

	assert.Equal(t, http.StatusConflict, patch(`{"slug":"email"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"id":"`+uuid.NewString()+`"}`).Code)
}
