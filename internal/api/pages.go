package api

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdaily-web/internal/comments"
	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/render"
	"newsdaily-web/internal/users"
)

// page fills the layout fields shared by every page.
func (h *handler) page(c *gin.Context, title string) render.Page {
	settings := h.Posts.Settings()
	siteName := settings.SiteName
	if siteName == "" {
		siteName = h.SiteName
	}
	toastType := c.Query("toast_type")
	if toastType == "" {
		toastType = toastSuccess
	}
	return render.Page{
		Title:      title,
		SiteName:   siteName,
		TickerText: settings.TickerText,
		Categories: h.Posts.Categories(),
		Category:   c.Query("category"),
		Theme:      theme(c),
		FontSize:   fontSize(c),
		Toast:      c.Query("toast"),
		ToastType:  toastType,
		Admin:      h.isAdmin(c),
	}
}

func (h *handler) render(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, name, data); err != nil {
		h.Logger.Error("Error rendering page", zap.String("page", name), zap.Error(err))
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *handler) notFound(c *gin.Context) {
	h.notFoundMessage(c, "Page not found")
}

func (h *handler) notFoundMessage(c *gin.Context, message string) {
	if wantsJSON(c) || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": strings.ToLower(message)})
		return
	}
	p := h.page(c, "Not found")
	p.Toast, p.ToastType = message, toastError
	h.render(c, http.StatusNotFound, render.PageNotFound, render.NotFoundPage{Page: p, Message: message})
}

// existingPost parses the :id parameter and loads the post, answering 404
// when either fails.
func (h *handler) existingPost(c *gin.Context) (posts.Post, bool) {
	id, err := posts.ParseID(c.Param("id"))
	if err != nil {
		h.notFoundMessage(c, "Article not found")
		return posts.Post{}, false
	}
	p, ok := h.Posts.Get(id)
	if !ok {
		h.notFoundMessage(c, "Article not found")
		return posts.Post{}, false
	}
	return p, true
}

func articlePath(id posts.ID) string {
	return "/article/" + id.String()
}

func (h *handler) home(c *gin.Context) {
	category := c.DefaultQuery("category", posts.AllCategories)
	if category == "" {
		category = posts.AllCategories
	}
	ordered := posts.SortByDate(h.Posts.ByCategory(category))

	h.render(c, http.StatusOK, render.PageHome, render.HomePage{
		Page:         h.page(c, ""),
		HomeSections: render.Home(ordered),
	})
}

func (h *handler) article(c *gin.Context) {
	p, ok := h.existingPost(c)
	if !ok {
		return
	}

	if err := h.Posts.IncrementViews(p.ID); err != nil {
		h.Logger.Error("Error counting view", zap.Stringer("post", p.ID), zap.Error(err))
	}
	if err := h.Users.AddToHistory(p.ID); err != nil {
		h.Logger.Error("Error recording history", zap.Stringer("post", p.ID), zap.Error(err))
	}
	// Re-read so the page shows the new view count.
	if fresh, ok := h.Posts.Get(p.ID); ok {
		p = fresh
	}

	page := h.page(c, p.Title)
	page.Category = p.Category
	h.render(c, http.StatusOK, render.PageArticle, render.ArticlePage{
		Page:            page,
		ArticleSections: render.Article(p, h.Posts.All()),
		Post:            p,
		Liked:           h.Users.HasLiked(p.ID),
		Bookmarked:      h.Users.IsBookmarked(p.ID),
		Comments:        h.Comments.List(p.ID),
		User:            h.Users.Current(),
	})
}

func (h *handler) toggleLike(c *gin.Context) {
	p, ok := h.existingPost(c)
	if !ok {
		return
	}
	liked, err := h.Users.ToggleLike(p.ID)
	if err != nil {
		h.fail(c, err, articlePath(p.ID))
		return
	}
	p, _ = h.Posts.Get(p.ID)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": p.Likes})
		return
	}
	message := "Like removed"
	if liked {
		message = "Liked! 👍"
	}
	redirectWithToast(c, back(c, articlePath(p.ID)), message, toastSuccess)
}

func (h *handler) toggleBookmark(c *gin.Context) {
	p, ok := h.existingPost(c)
	if !ok {
		return
	}
	bookmarked, err := h.Users.ToggleBookmark(p.ID)
	if err != nil {
		h.fail(c, err, articlePath(p.ID))
		return
	}
	p, _ = h.Posts.Get(p.ID)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked, "bookmarks": p.Bookmarks})
		return
	}
	message := "Bookmark removed"
	if bookmarked {
		message = "Bookmarked! 🔖"
	}
	redirectWithToast(c, back(c, articlePath(p.ID)), message, toastSuccess)
}

type commentForm struct {
	Name  string `form:"name"`
	Email string `form:"email" binding:"omitempty,email"`
	Text  string `form:"text"`
}

func (h *handler) addComment(c *gin.Context) {
	p, ok := h.existingPost(c)
	if !ok {
		return
	}
	target := articlePath(p.ID)

	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithToast(c, target, "Please enter a valid email", toastError)
		return
	}
	text := strings.TrimSpace(form.Text)
	if text == "" {
		redirectWithToast(c, target, "Please write a comment", toastError)
		return
	}

	u := h.Users.Current()
	name := strings.TrimSpace(form.Name)
	if name == "" {
		name = u.Name
	}
	email := strings.TrimSpace(form.Email)
	if email == "" {
		email = u.EmailOrEmpty()
	}

	if _, err := h.Comments.Add(p.ID, comments.Author{ID: u.ID, Name: name, Email: email}, text); err != nil {
		h.fail(c, err, target)
		return
	}
	redirectWithToast(c, target, "Comment posted!", toastSuccess)
}

func (h *handler) likeComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.notFoundMessage(c, "Comment not found")
		return
	}
	comment, ok := h.Comments.Get(id)
	if !ok {
		h.notFoundMessage(c, "Comment not found")
		return
	}
	target := articlePath(comment.PostID)
	if err := h.Comments.Like(id); err != nil {
		h.fail(c, err, target)
		return
	}
	if wantsJSON(c) {
		comment, _ = h.Comments.Get(id)
		c.JSON(http.StatusOK, gin.H{"likes": comment.Likes})
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *handler) profile(c *gin.Context) {
	u := h.Users.Current()
	page := h.page(c, u.Name)
	h.render(c, http.StatusOK, render.PageProfile, render.ProfilePage{
		Page: page,
		ProfileSections: render.Profile(
			u,
			h.Users.Stats(),
			h.Users.Bookmarks(),
			h.Users.History(),
			h.Posts.All(),
			h.Comments.ByAuthor(u.ID),
		),
	})
}

type profileForm struct {
	Name              string `form:"name" binding:"required"`
	Email             string `form:"email" binding:"omitempty,email"`
	PreferredCategory string `form:"preferred_category"`
}

func (h *handler) saveProfile(c *gin.Context) {
	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithToast(c, "/profile", "Please enter a name and a valid email", toastError)
		return
	}

	update := users.Update{
		Name:              stringPtr(strings.TrimSpace(form.Name)),
		Email:             optional(form.Email),
		PreferredCategory: optional(form.PreferredCategory),
	}
	if _, err := h.Users.Save(update); err != nil {
		h.fail(c, err, "/profile")
		return
	}
	redirectWithToast(c, "/profile", "Profile saved", toastSuccess)
}

func (h *handler) logout(c *gin.Context) {
	if err := h.Users.Logout(); err != nil {
		h.fail(c, err, "/profile")
		return
	}
	redirectWithToast(c, "/", "Logged out", toastSuccess)
}

func stringPtr(s string) *string {
	return &s
}

// optional maps a blank form field to nil, which keeps the stored value.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
