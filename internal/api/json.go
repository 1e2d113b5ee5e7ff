package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"newsdaily-web/internal/posts"
)

func (h *handler) apiPosts(c *gin.Context) {
	category := c.DefaultQuery("category", posts.AllCategories)
	c.JSON(http.StatusOK, posts.SortByDate(h.Posts.ByCategory(category)))
}

func (h *handler) apiPost(c *gin.Context) {
	p, ok := h.existingPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) apiComments(c *gin.Context) {
	p, ok := h.existingPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Comments.List(p.ID))
}

func (h *handler) apiStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Posts.Stats())
}

func (h *handler) apiMe(c *gin.Context) {
	c.JSON(http.StatusOK, h.Users.Current())
}

func (h *handler) apiMyStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Users.Stats())
}
