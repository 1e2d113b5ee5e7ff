package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"newsdaily-web/internal/comments"
	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/users"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page templates.
const (
	PageHome           = "home"
	PageArticle        = "article"
	PageProfile        = "profile"
	PageNotFound       = "not_found"
	PageAdminLogin     = "admin_login"
	PageAdminDashboard = "admin_dashboard"
	PageAdminPosts     = "admin_posts"
	PageAdminEdit      = "admin_edit"
)

var pageNames = []string{
	PageHome,
	PageArticle,
	PageProfile,
	PageNotFound,
	PageAdminLogin,
	PageAdminDashboard,
	PageAdminPosts,
	PageAdminEdit,
}

type HomePage struct {
	Page
	HomeSections
}

type ArticlePage struct {
	Page
	ArticleSections
	Post       posts.Post
	Liked      bool
	Bookmarked bool
	Comments   []comments.Comment
	User       users.User
}

type ProfilePage struct {
	Page
	ProfileSections
}

type NotFoundPage struct {
	Page
	Message string
}

type AdminLoginPage struct {
	Page
	Username string
}

type AdminDashboardPage struct {
	Page
	DashboardSections
	Settings posts.Settings
}

type AdminPostsPage struct {
	Page
	Posts []posts.Post
}

type AdminEditPage struct {
	Page
	Post  posts.Post
	IsNew bool
}

// Renderer executes the embedded page templates. Each page is parsed
// together with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	base, err := template.New("layout").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse layout")
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, errors.Wrapf(err, "clone layout for %s", name)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, errors.Wrapf(err, "parse page %s", name)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page. Output is buffered so a template error
// never leaves a half-written page behind.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "render %s", name)
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"formatDate":  formatDate,
	"truncate":    truncate,
	"avatarURL":   avatarURL,
	"safeHTML":    func(s string) template.HTML { return template.HTML(s) },
	"inc":         func(i int) int { return i + 1 },
	"contentText": ParagraphText,
	"orPlaceholder": func(src, size string) string {
		if src == "" {
			return "https://via.placeholder.com/" + size + "?text=NewsDaily"
		}
		return src
	},
}

// Static serves the site stylesheet.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Paragraphs turns plain text from the admin editor into the stored HTML
// fragment: one paragraph per line.
func Paragraphs(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	if text == "" {
		return ""
	}
	return "<p>" + strings.ReplaceAll(text, "\n", "</p><p>") + "</p>"
}

// ParagraphText reverses Paragraphs for editing.
func ParagraphText(fragment string) string {
	text := strings.TrimSuffix(strings.TrimPrefix(fragment, "<p>"), "</p>")
	return strings.ReplaceAll(text, "</p><p>", "\n")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func avatarURL(name string, size int) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "random")
	q.Set("size", strconv.Itoa(size))
	return "https://ui-avatars.com/api/?" + q.Encode()
}
