package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"newsdaily-web/internal/auth"
	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/render"
)

const adminPostsURL = "/admin/posts"

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *handler) adminLoginPage(c *gin.Context) {
	if h.isAdmin(c) {
		c.Redirect(http.StatusSeeOther, "/admin")
		return
	}
	h.render(c, http.StatusOK, render.PageAdminLogin, render.AdminLoginPage{Page: h.page(c, "Admin login")})
}

func (h *handler) adminLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.loginFailed(c, form.Username, "Username and password are required")
		return
	}

	token, err := h.Auth.Login(form.Username, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.Logger.Warn("Admin login failed", zap.String("username", form.Username))
			h.loginFailed(c, form.Username, "Invalid username or password")
			return
		}
		h.fail(c, err, adminLoginURL)
		return
	}

	h.setSessionCookie(c, token)
	h.Logger.Info("Admin logged in", zap.String("username", form.Username))
	redirectWithToast(c, "/admin", "Welcome back", toastSuccess)
}

func (h *handler) loginFailed(c *gin.Context, username, message string) {
	p := h.page(c, "Admin login")
	p.Toast, p.ToastType = message, toastError
	h.render(c, http.StatusUnauthorized, render.PageAdminLogin, render.AdminLoginPage{Page: p, Username: username})
}

func (h *handler) adminLogout(c *gin.Context) {
	if err := h.Auth.Logout(); err != nil {
		h.Logger.Error("Error closing admin session", zap.Error(err))
	}
	h.clearSessionCookie(c)
	redirectWithToast(c, adminLoginURL, "Logged out", toastSuccess)
}

func (h *handler) adminDashboard(c *gin.Context) {
	p := h.page(c, "Dashboard")
	h.render(c, http.StatusOK, render.PageAdminDashboard, render.AdminDashboardPage{
		Page:              p,
		DashboardSections: render.Dashboard(h.Posts.Stats(), h.Posts.All()),
		Settings:          h.Posts.Settings(),
	})
}

func (h *handler) adminPosts(c *gin.Context) {
	h.render(c, http.StatusOK, render.PageAdminPosts, render.AdminPostsPage{
		Page:  h.page(c, "All Posts"),
		Posts: posts.SortByDate(h.Posts.All()),
	})
}

func (h *handler) adminNewPost(c *gin.Context) {
	h.render(c, http.StatusOK, render.PageAdminEdit, render.AdminEditPage{
		Page:  h.page(c, "Create New Post"),
		IsNew: true,
	})
}

type postForm struct {
	Title    string `form:"title" binding:"required"`
	Category string `form:"category" binding:"required"`
	Image    string `form:"image" binding:"required"`
	Excerpt  string `form:"excerpt" binding:"required"`
	Content  string `form:"content" binding:"required"`
	Author   string `form:"author" binding:"required"`
}

// validImageURL accepts absolute http and https URLs only.
func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (f postForm) post() posts.Post {
	return posts.Post{
		Title:    strings.TrimSpace(f.Title),
		Category: strings.TrimSpace(f.Category),
		Image:    strings.TrimSpace(f.Image),
		Excerpt:  strings.TrimSpace(f.Excerpt),
		Content:  render.Paragraphs(f.Content),
		Author:   strings.TrimSpace(f.Author),
	}
}

// bindPost reads and checks the editor form. On failure it re-renders the
// editor with what was typed and returns false.
func (h *handler) bindPost(c *gin.Context, id posts.ID) (posts.Post, bool) {
	var form postForm
	err := c.ShouldBind(&form)
	p := form.post()
	p.ID = id

	message := ""
	switch {
	case err != nil:
		message = "Please fill in every field"
	case !validImageURL(p.Image):
		message = "Invalid image URL"
	}
	if message == "" {
		return p, true
	}

	title := "Edit Post"
	if id == 0 {
		title = "Create New Post"
	}
	page := h.page(c, title)
	page.Toast, page.ToastType = message, toastError
	h.render(c, http.StatusBadRequest, render.PageAdminEdit, render.AdminEditPage{Page: page, Post: p, IsNew: id == 0})
	return posts.Post{}, false
}

func (h *handler) adminCreatePost(c *gin.Context) {
	p, ok := h.bindPost(c, 0)
	if !ok {
		return
	}
	created, err := h.Posts.Create(p)
	if err != nil {
		h.fail(c, err, adminPostsURL)
		return
	}
	h.Logger.Info("Post published", zap.Stringer("post", created.ID), zap.String("title", created.Title))
	redirectWithToast(c, adminPostsURL, "Post published successfully!", toastSuccess)
}

func (h *handler) adminPostID(c *gin.Context) (posts.ID, bool) {
	id, err := posts.ParseID(c.Param("id"))
	if err != nil {
		redirectWithToast(c, adminPostsURL, "Post not found", toastError)
		return 0, false
	}
	return id, true
}

func (h *handler) adminEditPost(c *gin.Context) {
	id, ok := h.adminPostID(c)
	if !ok {
		return
	}
	p, found := h.Posts.Get(id)
	if !found {
		redirectWithToast(c, adminPostsURL, "Post not found", toastError)
		return
	}
	h.render(c, http.StatusOK, render.PageAdminEdit, render.AdminEditPage{Page: h.page(c, "Edit Post"), Post: p})
}

func (h *handler) adminUpdatePost(c *gin.Context) {
	id, ok := h.adminPostID(c)
	if !ok {
		return
	}
	p, ok := h.bindPost(c, id)
	if !ok {
		return
	}
	_, found, err := h.Posts.Update(id, posts.Update{
		Title:    &p.Title,
		Category: &p.Category,
		Image:    &p.Image,
		Excerpt:  &p.Excerpt,
		Content:  &p.Content,
		Author:   &p.Author,
	})
	if err != nil {
		h.fail(c, err, adminPostsURL)
		return
	}
	if !found {
		redirectWithToast(c, adminPostsURL, "Post not found", toastError)
		return
	}
	redirectWithToast(c, adminPostsURL, "Post updated", toastSuccess)
}

func (h *handler) adminDeletePost(c *gin.Context) {
	id, ok := h.adminPostID(c)
	if !ok {
		return
	}
	removed, found, err := h.DeletePost(id)
	if err != nil {
		h.fail(c, err, adminPostsURL)
		return
	}
	if !found {
		redirectWithToast(c, adminPostsURL, "Post not found", toastError)
		return
	}
	h.Logger.Info("Post deleted", zap.Stringer("post", id), zap.Int("comments", removed))
	redirectWithToast(c, adminPostsURL, "Post deleted", toastSuccess)
}

// DeletePost removes the post, its comments and every reference the
// visitor holds to it. It reports how many comments went with it.
func (s Services) DeletePost(id posts.ID) (int, bool, error) {
	found, err := s.Posts.Delete(id)
	if err != nil || !found {
		return 0, found, err
	}
	removed, err := s.Comments.DeleteForPost(id)
	if err != nil {
		return 0, true, err
	}
	if err := s.Users.ForgetPost(id); err != nil {
		return removed, true, err
	}
	return removed, true, nil
}

type importForm struct {
	URL string `form:"url" binding:"required,url"`
}

func (h *handler) adminImport(c *gin.Context) {
	var form importForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithToast(c, "/admin", "Please enter a feed URL", toastError)
		return
	}
	result, err := h.Feeds.ImportURL(c.Request.Context(), form.URL)
	if err != nil {
		h.Logger.Warn("Feed import failed", zap.String("url", form.URL), zap.Error(err))
		redirectWithToast(c, "/admin", "Could not import feed", toastError)
		return
	}
	message := fmt.Sprintf("Imported %d articles from %s (%d skipped)", result.Imported, result.Feed, result.Skipped)
	redirectWithToast(c, "/admin", message, toastSuccess)
}

type settingsForm struct {
	SiteName   string `form:"site_name"`
	TickerText string `form:"ticker_text"`
}

func (h *handler) adminSaveSettings(c *gin.Context) {
	var form settingsForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithToast(c, "/admin", "Invalid settings", toastError)
		return
	}
	err := h.Posts.SaveSettings(posts.Settings{
		SiteName:   strings.TrimSpace(form.SiteName),
		TickerText: strings.TrimSpace(form.TickerText),
	})
	if err != nil {
		h.fail(c, err, "/admin")
		return
	}
	redirectWithToast(c, "/admin", "Settings saved", toastSuccess)
}
