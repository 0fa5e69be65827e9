package posts_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
	"github.com/reviewdesk/reviewdesk/internal/posts"
	"github.com/reviewdesk/reviewdesk/internal/rbac"
	"github.com/reviewdesk/reviewdesk/internal/rbac/rbactest"
	"github.com/reviewdesk/reviewdesk/internal/shared"
	_ "github.com/reviewdesk/reviewdesk/testing"
)

type memRepo struct {
	mu       sync.Mutex
	posts    []posts.Post
	tags     []posts.Tag
	postTags map[uuid.UUID][]uuid.UUID
	tools    map[uuid.UUID]posts.ToolRef
	links    map[uuid.UUID][]posts.ToolRef
	offsets  []int
}

func newMemRepo() *memRepo {
	return &memRepo{postTags: map[uuid.UUID][]uuid.UUID{}, tools: map[uuid.UUID]posts.ToolRef{}, links: map[uuid.UUID][]posts.ToolRef{}}
}

func (m *memRepo) find(id uuid.UUID) int {
	return slices.IndexFunc(m.posts, func(p posts.Post) bool { return p.ID == id })
}

func (m *memRepo) ListTags(context.Context) ([]posts.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tags), nil
}

func (m *memRepo) CreateTag(_ context.Context, in posts.TagInput) (posts.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags {
		if t.Slug == in.Slug {
			return posts.Tag{}, posts.ErrTagSlugTaken
		}
	}
	t := posts.Tag{ID: uuid.New(), Name: in.Name, Slug: in.Slug, CreatedAt: time.Now()}
	m.tags = append(m.tags, t)
	return t, nil
}

func (m *memRepo) hasTag(postID uuid.UUID, slug string) bool {
	for _, id := range m.postTags[postID] {
		for _, t := range m.tags {
			if t.ID == id && t.Slug == slug {
				return true
			}
		}
	}
	return false
}

func (m *memRepo) List(_ context.Context, f posts.ListFilter, limit, offset int) ([]posts.Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets = append(m.offsets, offset)
	var match []posts.Post
	for _, p := range m.posts {
		if !slices.Contains(f.Scope.Statuses(), string(p.Status)) {
			continue
		}
		if f.Type != "" && p.PostType != f.Type {
			continue
		}
		if f.Query != "" && !strings.Contains(p.Title, f.Query) && !strings.Contains(p.Excerpt, f.Query) {
			continue
		}
		if f.Tag != "" && !m.hasTag(p.ID, f.Tag) {
			continue
		}
		match = append(match, p)
	}
	slices.SortStableFunc(match, func(a, b posts.Post) int {
		switch {
		case a.PublishedAt == nil && b.PublishedAt == nil:
			return 0
		case a.PublishedAt == nil:
			return 1
		case b.PublishedAt == nil:
			return -1
		}
		return b.PublishedAt.Compare(*a.PublishedAt)
	})
	total := len(match)
	if offset >= total {
		return nil, total, nil
	}
	return match[offset:min(total, offset+limit)], total, nil
}

func (m *memRepo) GetBySlug(_ context.Context, slug string, statuses []string) (posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug && slices.Contains(statuses, string(p.Status)) {
			return p, nil
		}
	}
	return posts.Post{}, posts.ErrNotFound
}

func (m *memRepo) Tags(_ context.Context, postID uuid.UUID) ([]posts.TagRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []posts.TagRef
	for _, id := range m.postTags[postID] {
		for _, t := range m.tags {
			if t.ID == id {
				out = append(out, posts.TagRef{ID: t.ID, Name: t.Name, Slug: t.Slug})
			}
		}
	}
	return out, nil
}

func (m *memRepo) Tools(_ context.Context, postID uuid.UUID) ([]posts.ToolRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.links[postID])
	slices.SortStableFunc(out, func(a, b posts.ToolRef) int { return a.SortOrder - b.SortOrder })
	return out, nil
}

func (m *memRepo) Create(_ context.Context, in posts.CreateInput, author uuid.UUID) (posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == in.Slug {
			return posts.Post{}, posts.ErrSlugTaken
		}
	}
	p := posts.Post{ID: uuid.New(), Title: in.Title, Slug: in.Slug, Excerpt: in.Excerpt, Content: in.Content,
		CoverImageURL: in.CoverImageURL, Status: shared.StatusDraft, PostType: in.PostType, AuthorID: &author,
		CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.posts = append(m.posts, p)
	return p, nil
}

func (m *memRepo) Update(_ context.Context, id uuid.UUID, patch posts.Patch) (posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return posts.Post{}, posts.ErrNotFound
	}
	if patch.Title != nil {
		m.posts[i].Title = *patch.Title
	}
	if patch.Excerpt != nil {
		m.posts[i].Excerpt = *patch.Excerpt
	}
	return m.posts[i], nil
}

func (m *memRepo) SetPublication(_ context.Context, id uuid.UUID, pub shared.Publication) (posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(id)
	if i < 0 {
		return posts.Post{}, posts.ErrNotFound
	}
	m.posts[i].Status = pub.Status
	m.posts[i].PublishedAt = pub.PublishedAt
	return m.posts[i], nil
}

func (m *memRepo) AttachTags(_ context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(postID) < 0 {
		return posts.ErrNotFound
	}
	for _, id := range tagIDs {
		if !slices.ContainsFunc(m.tags, func(t posts.Tag) bool { return t.ID == id }) {
			return posts.ErrUnknownTag
		}
		if !slices.Contains(m.postTags[postID], id) {
			m.postTags[postID] = append(m.postTags[postID], id)
		}
	}
	return nil
}

func (m *memRepo) ReplaceTools(_ context.Context, postID uuid.UUID, links []posts.ToolLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(postID) < 0 {
		return posts.ErrNotFound
	}
	next := make([]posts.ToolRef, 0, len(links))
	for i, l := range links {
		ref, ok := m.tools[l.ToolID]
		if !ok {
			return posts.ErrUnknownTool
		}
		ref.SortOrder = i
		if l.SortOrder != nil {
			ref.SortOrder = *l.SortOrder
		}
		next = append(next, ref)
	}
	m.links[postID] = next
	return nil
}

type env struct {
	f      *rbactest.Fixture
	repo   *memRepo
	router http.Handler
	now    time.Time
}

func newEnv() *env {
	e := &env{f: rbactest.NewFixture(), repo: newMemRepo(), now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := posts.NewService(e.repo).WithClock(func() time.Time {
		e.now = e.now.Add(time.Minute)
		return e.now
	})
	r := chi.NewRouter()
	posts.NewHandler(nil, svc, e.f.Middleware).MountRoutes(r)
	e.router = r
	return e
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

func (e *env) create(t *testing.T, slug string) posts.Post {
	t.Helper()
	res := e.do(http.MethodPost, "/posts", rbac.RoleContent, `{"title":"Post `+slug+`","slug":"`+slug+`","postType":"guide"}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var p posts.Post
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &p))
	return p
}

func decode[T any](t *testing.T, res *httptest.ResponseRecorder) T {
	t.Helper()
	return decodeStatus[T](t, res, http.StatusOK)
}

func decodeStatus[T any](t *testing.T, res *httptest.ResponseRecorder, status int) T {
	t.Helper()
	require.Equal(t, status, res.Code, res.Body.String())
	var v T
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &v))
	return v
}

func TestPublishAndUnpublishStampPublishedAt(t *testing.T) {
	e := newEnv()
	p := e.create(t, "best-crm")
	assert.Equal(t, shared.StatusDraft, p.Status)
	assert.Nil(t, p.PublishedAt)

	published := decode[posts.Post](t, e.do(http.MethodPost, "/posts/"+p.ID.String()+"/publish", rbac.RoleContent, ""))
	assert.Equal(t, shared.StatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.True(t, published.PublishedAt.Equal(e.now))

	draft := decode[posts.Post](t, e.do(http.MethodPost, "/posts/"+p.ID.String()+"/unpublish", rbac.RoleContent, ""))
	assert.Equal(t, shared.StatusDraft, draft.Status)
	assert.Nil(t, draft.PublishedAt)
}

func TestPublishRequiresPublishPosts(t *testing.T) {
	e := newEnv()
	p := e.create(t, "x")
	e.f.Store.RevokePermission(rbac.RoleContent, rbac.PermPublishPosts)
	res := e.do(http.MethodPost, "/posts/"+p.ID.String()+"/publish", rbac.RoleContent, "")
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "publish_posts")
}

func TestListPostsPaginatesPublished(t *testing.T) {
	e := newEnv()
	for i := range 12 {
		p := e.create(t, "post-"+strconv.Itoa(i))
		e.do(http.MethodPost, "/posts/"+p.ID.String()+"/publish", rbac.RoleContent, "")
	}
	e.create(t, "draft-only")

	first := decode[posts.Page](t, e.do(http.MethodGet, "/posts", "", ""))
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, posts.PageSize, first.PageSize)
	assert.Equal(t, 12, first.Total)
	require.Len(t, first.Items, 10)
	assert.Equal(t, "post-11", first.Items[0].Slug)

	second := decode[posts.Page](t, e.do(http.MethodGet, "/posts?page=2", "", ""))
	assert.Len(t, second.Items, 2)

	empty := decode[posts.Page](t, e.do(http.MethodGet, "/posts?page=9", "", ""))
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)

	all := decode[posts.Page](t, e.do(http.MethodGet, "/posts?status=all&page=2", rbac.RoleContent, ""))
	assert.Equal(t, 13, all.Total)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/posts?status=draft", rbac.RoleCustomer, "").Code)
}

func TestListPostsRejectsOverflowingPage(t *testing.T) {
	e := newEnv()
	res := e.do(http.MethodGet, "/posts?page="+strconv.Itoa(math.MaxInt), "", "")
	require.Equal(t, http.StatusBadRequest, res.Code, res.Body.String())
	assert.Contains(t, res.Body.String(), `"page"`)

	_, err := posts.NewService(e.repo).List(context.Background(), posts.ListFilter{Page: math.MaxInt})
	require.ErrorIs(t, err, httpx.ErrValidation)

	last := decode[posts.Page](t, e.do(http.MethodGet, "/posts?page="+strconv.Itoa(shared.MaxPage(posts.PageSize)), "", ""))
	assert.Empty(t, last.Items)
	for _, off := range e.repo.offsets {
		assert.GreaterOrEqual(t, off, 0)
	}
}

func TestPostDetailWithTagsAndTools(t *testing.T) {
	e := newEnv()
	p := e.create(t, "roundup")
	e.do(http.MethodPost, "/posts/"+p.ID.String()+"/publish", rbac.RoleContent, "")

	tag := decodeStatus[posts.Tag](t, e.do(http.MethodPost, "/tags", rbac.RoleContent, `{"name":"Productivity","slug":"productivity"}`), http.StatusCreated)
	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/tags", rbac.RoleContent, `{"name":"Again","slug":"productivity"}`).Code)

	toolA, toolB := uuid.New(), uuid.New()
	e.repo.tools[toolA] = posts.ToolRef{ID: toolA, Name: "A", Slug: "a"}
	e.repo.tools[toolB] = posts.ToolRef{ID: toolB, Name: "B", Slug: "b"}

	body := `{"tagIds":["` + tag.ID.String() + `","` + tag.ID.String() + `"]}`
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/posts/"+p.ID.String()+"/tags", rbac.RoleContent, body).Code)
	body = `{"tools":[{"toolId":"` + toolA.String() + `","sortOrder":5},{"toolId":"` + toolB.String() + `"}]}`
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/posts/"+p.ID.String()+"/tools", rbac.RoleContent, body).Code)

	detail := decode[posts.Detail](t, e.do(http.MethodGet, "/posts/roundup", "", ""))
	require.Len(t, detail.Tags, 1)
	require.Len(t, detail.Tools, 2)
	assert.Equal(t, "b", detail.Tools[0].Slug)
	assert.Equal(t, 1, detail.Tools[0].SortOrder)
	assert.Equal(t, 5, detail.Tools[1].SortOrder)

	byTag := decode[posts.Page](t, e.do(http.MethodGet, "/posts?tag=productivity", "", ""))
	assert.Len(t, byTag.Items, 1)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/posts/"+p.ID.String()+"/tools", rbac.RoleContent, `{"tools":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/posts/"+p.ID.String()+"/tags", rbac.RoleContent, `{"tagIds":["`+uuid.NewString()+`"]}`).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/posts/"+uuid.NewString()+"/tags", rbac.RoleContent, `{"tagIds":["`+tag.ID.String()+`"]}`).Code)
}

func TestCreateAndPatchPostValidation(t *testing.T) {
	e := newEnv()
	res := e.do(http.MethodPost, "/posts", rbac.RoleContent, `{"title":"  ","slug":"x","postType":"guide"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/posts", rbac.RoleContent, `{"title":"x","slug":"x"}`).Code)

	p := e.create(t, "my-post")
	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/posts", rbac.RoleContent, `{"title":"y","slug":"my-post","postType":"guide"}`).Code)

	path := "/posts/" + p.ID.String()
	updated := decode[posts.Post](t, e.do(http.MethodPatch, path, rbac.RoleContent, `{"excerpt":"short"}`))
	assert.Equal(t, "short", updated.Excerpt)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, path, rbac.RoleContent, `{"publishedAt":"2020-01-01T00:00:00Z"}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPatch, path, rbac.RoleContent, `{"authorId":"`+uuid.NewString()+`"}`).Code)
}
