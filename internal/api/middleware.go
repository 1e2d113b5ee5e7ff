package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"newsdaily-web/internal/auth"
)

const (
	sessionCookie = "admin_session"
	adminLoginURL = "/admin/login"
)

func securityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "same-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// Pages reflect per-visitor state.
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")

		c.Next()
	}
}

// adminRequired sends anyone without a live admin session to the login
// page.
func (h *handler) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(sessionCookie)
		if _, err := h.Auth.Check(token); err != nil {
			message := "Please log in"
			if errors.Is(err, auth.ErrSessionExpired) {
				message = "Session expired, please log in again"
				h.Logger.Info("Admin session expired")
			}
			h.clearSessionCookie(c)
			redirectWithToast(c, adminLoginURL, message, toastError)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *handler) isAdmin(c *gin.Context) bool {
	token, err := c.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	_, err = h.Auth.Check(token)
	return err == nil
}

func (h *handler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(h.Auth.SessionDuration().Seconds()), "/", "", h.CookieSecure, true)
}

func (h *handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.CookieSecure, true)
}

const (
	toastSuccess = "success"
	toastError   = "error"
)

// redirectWithToast redirects to target with a toast for the layout to show.
func redirectWithToast(c *gin.Context, target, message, kind string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("toast", message)
	q.Set("toast_type", kind)
	u.RawQuery = q.Encode()
	c.Redirect(http.StatusSeeOther, u.String())
}

// fail reports a repository write error.
func (h *handler) fail(c *gin.Context, err error, back string) {
	h.Logger.Error("Error saving changes", zap.String("path", c.Request.URL.Path), zap.Error(err))
	_ = c.Error(err)
	if wantsJSON(c) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save changes"})
		return
	}
	redirectWithToast(c, back, "Could not save changes", toastError)
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

// localPath returns raw when it is a same-site path, fallback otherwise.
func localPath(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	if len(u.Path) == 0 || u.Path[0] != '/' || (len(u.Path) > 1 && u.Path[1] == '/') {
		return fallback
	}
	u.RawQuery = stripToast(u.Query()).Encode()
	return u.String()
}

func stripToast(q url.Values) url.Values {
	q.Del("toast")
	q.Del("toast_type")
	return q
}

// back picks where a form post returns to: the form's redirect field, the
// referring page on this site, or fallback.
func back(c *gin.Context, fallback string) string {
	if target := localPath(c.PostForm("redirect"), ""); target != "" {
		return target
	}
	if ref := c.Request.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Host == c.Request.Host {
			u.Scheme, u.Host, u.User = "", "", nil
			return localPath(u.String(), fallback)
		}
	}
	return fallback
}
