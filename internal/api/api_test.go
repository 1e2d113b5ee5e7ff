package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdaily-web/internal/auth"
	"newsdaily-web/internal/comments"
	"newsdaily-web/internal/feeds"
	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/render"
	"newsdaily-web/internal/storage"
	"newsdaily-web/internal/users"
)

type fixture struct {
	router   *gin.Engine
	posts    *posts.Repository
	users    *users.Repository
	comments *comments.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	durable := storage.NewMemoryStore()
	postRepo := posts.NewRepository(durable, nil)
	commentRepo := comments.NewRepository(durable, nil)
	userRepo := users.NewRepository(durable, postRepo, commentRepo, nil)

	authSvc, err := auth.NewService(auth.Options{
		Username:  "admin",
		Password:  "secret",
		JWTSecret: "test-secret",
	}, storage.NewMemoryStore())
	require.NoError(t, err)

	renderer, err := render.New()
	require.NoError(t, err)

	_, err = postRepo.Seed([]posts.Post{
		{ID: 1, Title: "Council approves budget", Category: "Politics", Image: "https://img.example.com/1.jpg", Content: "<p>Seven to two.</p>", Author: "Staff", Date: time.Date(2026, 10, 10, 9, 0, 0, 0, time.UTC), Views: 10},
		{ID: 2, Title: "Team wins final", Category: "Sports", Image: "https://img.example.com/2.jpg", Content: "<p>Three goals.</p>", Author: "Sports Desk", Date: time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC), Views: 5},
		{ID: 3, Title: "Markets rally", Category: "Business", Image: "https://img.example.com/3.jpg", Content: "<p>Up again.</p>", Author: "Business Desk", Date: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	router := NewRouter(Services{
		Posts:    postRepo,
		Users:    userRepo,
		Comments: commentRepo,
		Auth:     authSvc,
		Feeds:    feeds.NewImporter(postRepo, feeds.Options{Timeout: 5 * time.Second, DefaultCategory: "World"}, nil),
		Renderer: renderer,
		SiteName: "NewsDaily",
	})

	return &fixture{router: router, posts: postRepo, users: userRepo, comments: commentRepo}
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) get(target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return f.serve(req)
}

func (f *fixture) post(target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return f.serve(req)
}

func (f *fixture) postJSON(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Accept", "application/json")
	return f.serve(req)
}

// login opens an admin session and returns its cookie.
func (f *fixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.post("/admin/login", url.Values{"username": {"admin"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c := cookieNamed(rec, sessionCookie)
	require.NotNil(t, c)
	return c
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func toastOf(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	return loc.Query().Get("toast"), loc.Query().Get("toast_type")
}

func TestHomeShowsNewestFirst(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "Markets rally"), strings.Index(body, "Team wins final"))
	assert.Less(t, strings.Index(body, "Team wins final"), strings.Index(body, "Council approves budget"))

	rec = f.get("/?category=Sports")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Team wins final")
	assert.NotContains(t, rec.Body.String(), "Markets rally")
}

func TestArticleCountsViewAndHistory(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/article/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "11 views")

	p, ok := f.posts.Get(1)
	require.True(t, ok)
	assert.Equal(t, 11, p.Views)
	assert.Equal(t, []posts.ID{1}, f.users.History())
}

func TestArticleNotFound(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/article/999", "/article/abc", "/article/-1"} {
		rec := f.get(target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Article not found", target)
	}
	assert.Empty(t, f.users.History())
}

func TestToggleLikeJSON(t *testing.T) {
	f := newFixture(t)

	var body struct {
		Liked bool `json:"liked"`
		Likes int  `json:"likes"`
	}
	rec := f.postJSON("/article/2/like")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Liked)
	assert.Equal(t, 1, body.Likes)

	rec = f.postJSON("/article/2/like")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Liked)
	assert.Equal(t, 0, body.Likes)
	assert.Empty(t, f.users.Likes())
}

func TestToggleBookmarkRedirects(t *testing.T) {
	f := newFixture(t)

	rec := f.post("/article/3/bookmark", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/article/3?"))
	toast, kind := toastOf(t, rec)
	assert.Equal(t, "Bookmarked! 🔖", toast)
	assert.Equal(t, toastSuccess, kind)

	p, _ := f.posts.Get(3)
	assert.Equal(t, 1, p.Bookmarks)
	assert.True(t, f.users.IsBookmarked(3))

	rec = f.postJSON("/article/404/bookmark")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)

	rec := f.post("/article/1/comments", url.Values{"name": {"Ana"}, "text": {"   "}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, kind := toastOf(t, rec)
	assert.Equal(t, toastError, kind)
	assert.Empty(t, f.comments.List(1))

	rec = f.post("/article/1/comments", url.Values{"name": {"Ana"}, "email": {"nope"}, "text": {"Hi"}})
	_, kind = toastOf(t, rec)
	assert.Equal(t, toastError, kind)

	rec = f.post("/article/1/comments", url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "text": {"Great news"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	toast, _ := toastOf(t, rec)
	assert.Equal(t, "Comment posted!", toast)

	list := f.comments.List(1)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].Name)
	assert.Equal(t, "Great news", list[0].Text)
	assert.Equal(t, f.users.Current().ID, list[0].AuthorID)
	assert.Equal(t, 1, f.users.Stats().Comments)
}

func TestLikeComment(t *testing.T) {
	f := newFixture(t)
	c, err := f.comments.Add(2, comments.Author{Name: "Ana"}, "Nice")
	require.NoError(t, err)

	rec := f.post(fmt.Sprintf("/comments/%d/like", c.ID), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/article/2", rec.Header().Get("Location"))

	got, _ := f.comments.Get(c.ID)
	assert.Equal(t, 1, got.Likes)

	assert.Equal(t, http.StatusNotFound, f.post("/comments/12345/like", nil).Code)
}

func TestProfileSaveAndLogout(t *testing.T) {
	f := newFixture(t)
	guest := f.users.Current()
	require.True(t, guest.IsGuest)

	rec := f.post("/profile", url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "preferred_category": {"Sports"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.get("/api/me")
	require.Equal(t, http.StatusOK, rec.Code)
	var me users.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "Ana", me.Name)
	assert.False(t, me.IsGuest)
	assert.Equal(t, "ana@example.com", me.EmailOrEmpty())
	assert.Equal(t, "Sports", me.PreferredCategoryOrEmpty())

	rec = f.get("/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana")

	rec = f.post("/profile", url.Values{"email": {"ana@example.com"}})
	_, kind := toastOf(t, rec)
	assert.Equal(t, toastError, kind)

	f.post("/article/1/like", nil)
	rec = f.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	after := f.users.Current()
	assert.True(t, after.IsGuest)
	assert.Empty(t, f.users.Likes())
}

func TestPreferences(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/preferences/theme", nil)
	req.Header.Set("Referer", "http://example.com/article/1?toast=old")
	rec := f.serve(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/article/1", rec.Header().Get("Location"))
	require.NotNil(t, cookieNamed(rec, themeCookie))
	assert.Equal(t, "dark", cookieNamed(rec, themeCookie).Value)

	rec = f.get("/", &http.Cookie{Name: themeCookie, Value: "dark"})
	assert.Contains(t, rec.Body.String(), `data-theme="dark"`)

	rec = f.post("/preferences/font-size", url.Values{"change": {"1"}, "redirect": {"/article/2"}},
		&http.Cookie{Name: fontSizeCookie, Value: "24"})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/article/2", rec.Header().Get("Location"))
	assert.Equal(t, "26", cookieNamed(rec, fontSizeCookie).Value)

	rec = f.post("/preferences/font-size", url.Values{"change": {"0"}})
	assert.Equal(t, "18", cookieNamed(rec, fontSizeCookie).Value)

	rec = f.post("/preferences/font-size", url.Values{"change": {"5"}, "redirect": {"https://evil.example.com/"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/?"))
	assert.Nil(t, cookieNamed(rec, fontSizeCookie))
}

func TestAdminRequiresLogin(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/admin", "/admin/posts", "/admin/posts/new", "/admin/posts/1/edit"} {
		rec := f.get(target)
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), adminLoginURL), target)
	}

	rec := f.post("/admin/posts/1/delete", nil, &http.Cookie{Name: sessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, ok := f.posts.Get(1)
	assert.True(t, ok)

	rec = f.post("/admin/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password")
}

func TestAdminDashboardAndLogout(t *testing.T) {
	f := newFixture(t)
	session := f.login(t)

	rec := f.get("/admin", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="totalPosts">3<`)

	rec = f.get("/admin/posts", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Markets rally")

	rec = f.post("/admin/logout", nil, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusSeeOther, f.get("/admin", session).Code)
}

func TestAdminCreatePost(t *testing.T) {
	f := newFixture(t)
	session := f.login(t)

	form := url.Values{
		"title":    {"New bridge opens"},
		"category": {"World"},
		"image":    {"not a url"},
		"excerpt":  {"Traffic eases."},
		"content":  {"Line one\nLine two"},
		"author":   {"Desk"},
	}
	rec := f.post("/admin/posts", form, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid image URL")
	assert.Contains(t, rec.Body.String(), "New bridge opens")
	assert.Len(t, f.posts.All(), 3)

	form.Set("image", "https://img.example.com/bridge.jpg")
	rec = f.post("/admin/posts", form, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	toast, _ := toastOf(t, rec)
	assert.Equal(t, "Post published successfully!", toast)

	all := f.posts.All()
	require.Len(t, all, 4)
	created := all[3]
	assert.Equal(t, "<p>Line one</p><p>Line two</p>", created.Content)
	assert.Zero(t, created.Views)
	assert.Contains(t, f.posts.Categories(), "World")
}

func TestAdminEditPost(t *testing.T) {
	f := newFixture(t)
	session := f.login(t)

	rec := f.get("/admin/posts/2/edit", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Three goals.")

	rec = f.post("/admin/posts/2", url.Values{
		"title":    {"Team wins the final"},
		"category": {"Sports"},
		"image":    {"https://img.example.com/2.jpg"},
		"excerpt":  {"Late winner."},
		"content":  {"Three goals."},
		"author":   {"Sports Desk"},
	}, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	p, _ := f.posts.Get(2)
	assert.Equal(t, "Team wins the final", p.Title)
	assert.Equal(t, 5, p.Views)

	rec = f.get("/admin/posts/77/edit", session)
	_, kind := toastOf(t, rec)
	assert.Equal(t, toastError, kind)
}

func TestAdminDeleteCascades(t *testing.T) {
	f := newFixture(t)

	f.post("/article/2/bookmark", nil)
	f.get("/article/2")
	f.post("/article/2/comments", url.Values{"name": {"Ana"}, "text": {"Nice"}})
	f.post("/article/1/comments", url.Values{"name": {"Ana"}, "text": {"Also nice"}})
	require.Len(t, f.comments.List(2), 1)

	session := f.login(t)
	rec := f.post("/admin/posts/2/delete", nil, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	toast, _ := toastOf(t, rec)
	assert.Equal(t, "Post deleted", toast)

	_, ok := f.posts.Get(2)
	assert.False(t, ok)
	assert.Empty(t, f.comments.List(2))
	assert.Len(t, f.comments.List(1), 1)
	assert.Empty(t, f.users.Bookmarks())
	assert.Empty(t, f.users.History())

	rec = f.post("/admin/posts/2/delete", nil, session)
	_, kind := toastOf(t, rec)
	assert.Equal(t, toastError, kind)
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Wire Service</title>
  <item>
    <title>Imported headline</title>
    <description>&lt;p&gt;Imported body&lt;/p&gt;</description>
    <pubDate>Tue, 13 Oct 2026 08:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Markets rally</title>
    <description>Duplicate</description>
  </item>
</channel>
</rss>`

func TestAdminImportAndSettings(t *testing.T) {
	f := newFixture(t)
	session := f.login(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer srv.Close()

	rec := f.post("/admin/import", url.Values{"url": {srv.URL}}, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	toast, kind := toastOf(t, rec)
	assert.Equal(t, toastSuccess, kind)
	assert.Equal(t, "Imported 1 articles from Wire Service (1 skipped)", toast)
	assert.Len(t, f.posts.All(), 4)

	rec = f.post("/admin/import", url.Values{"url": {"not a url"}}, session)
	_, kind = toastOf(t, rec)
	assert.Equal(t, toastError, kind)

	rec = f.post("/admin/settings", url.Values{"site_name": {"Daily Times"}, "ticker_text": {"Breaking: tests pass"}}, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, posts.Settings{SiteName: "Daily Times", TickerText: "Breaking: tests pass"}, f.posts.Settings())

	rec = f.get("/")
	assert.Contains(t, rec.Body.String(), "Daily Times")
	assert.Contains(t, rec.Body.String(), "Breaking: tests pass")
}

func TestJSONAPI(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/api/posts?category=Sports")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []posts.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, posts.ID(2), list[0].ID)

	rec = f.get("/api/posts")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, posts.ID(3), list[0].ID)

	rec = f.get("/api/posts/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var p posts.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Council approves budget", p.Title)

	rec = f.get("/api/posts/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"article not found"}`, rec.Body.String())

	rec = f.get("/api/stats")
	var stats posts.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 15, stats.Views)
	assert.Equal(t, 3, stats.Categories)

	_, err := f.comments.Add(1, comments.Author{Name: "Ana"}, "First")
	require.NoError(t, err)
	rec = f.get("/api/posts/1/comments")
	var cs []comments.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cs))
	assert.Len(t, cs, 1)

	rec = f.get("/api/me/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bookmarks":0,"comments":0,"likes":0,"readArticles":0}`, rec.Body.String())
}

func TestMiddlewareHeaders(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "https://reader.example.org")
	rec := f.serve(req)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = f.get("/static/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
