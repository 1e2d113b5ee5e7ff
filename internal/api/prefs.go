package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"newsdaily-web/internal/render"
)

// Display preferences are UI state only; they live in cookies and never
// reach the store.
const (
	themeCookie    = "theme"
	fontSizeCookie = "font_size"
	prefsMaxAge    = 365 * 24 * 60 * 60
)

func theme(c *gin.Context) string {
	if v, err := c.Cookie(themeCookie); err == nil && v == "dark" {
		return "dark"
	}
	return "light"
}

func fontSize(c *gin.Context) int {
	v, err := c.Cookie(fontSizeCookie)
	if err != nil {
		return render.DefaultFontSize
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < render.MinFontSize || n > render.MaxFontSize {
		return render.DefaultFontSize
	}
	return n
}

func (h *handler) setPreference(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, prefsMaxAge, "/", "", h.CookieSecure, true)
}

func (h *handler) toggleTheme(c *gin.Context) {
	next := render.NextTheme(theme(c))
	h.setPreference(c, themeCookie, next)
	c.Redirect(http.StatusSeeOther, back(c, "/"))
}

type fontSizeForm struct {
	Change *int `form:"change" binding:"required,oneof=-1 0 1"`
}

func (h *handler) changeFontSize(c *gin.Context) {
	var form fontSizeForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithToast(c, back(c, "/"), "Unknown font size change", toastError)
		return
	}
	next := render.NextFontSize(fontSize(c), *form.Change)
	h.setPreference(c, fontSizeCookie, strconv.Itoa(next))
	c.Redirect(http.StatusSeeOther, back(c, "/"))
}
