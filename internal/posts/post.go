package posts

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidID is returned by ParseID for anything that is not a positive
// integer.
var ErrInvalidID = errors.New("invalid post id")

// ID is the canonical post identifier. Ids arriving as text (URL paths,
// form values) go through ParseID exactly once.
type ID int64

func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.Wrapf(ErrInvalidID, "%q", s)
	}
	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type Post struct {
	ID        ID        `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Category  string    `json:"category" yaml:"category"`
	Image     string    `json:"image" yaml:"image"`
	Excerpt   string    `json:"excerpt" yaml:"excerpt"`
	Content   string    `json:"content" yaml:"content"`
	Author    string    `json:"author" yaml:"author"`
	Date      time.Time `json:"date" yaml:"date"`
	Views     int       `json:"views" yaml:"views"`
	Likes     int       `json:"likes" yaml:"likes"`
	Bookmarks int       `json:"bookmarks" yaml:"bookmarks"`
}

// Update carries the editable fields of a post. Nil fields are kept.
type Update struct {
	Title    *string
	Category *string
	Image    *string
	Excerpt  *string
	Content  *string
	Author   *string
}

func (u Update) apply(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Excerpt != nil {
		p.Excerpt = *u.Excerpt
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.Author != nil {
		p.Author = *u.Author
	}
}

// Stats are the site-wide aggregates shown on the admin dashboard.
type Stats struct {
	Total      int `json:"total"`
	Views      int `json:"views"`
	ThisWeek   int `json:"thisWeek"`
	Categories int `json:"categories"`
}

// Settings is the siteSettings record.
type Settings struct {
	TickerText string `json:"tickerText" yaml:"ticker_text"`
	SiteName   string `json:"siteName" yaml:"site_name"`
}

// SortByDate returns a copy of ps ordered newest first. Posts with the same
// date keep their relative order.
func SortByDate(ps []Post) []Post {
	sorted := make([]Post, len(ps))
	copy(sorted, ps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	return sorted
}

// SortByViews returns a copy of ps ordered by views, most viewed first.
// Ties keep their relative order.
func SortByViews(ps []Post) []Post {
	sorted := make([]Post, len(ps))
	copy(sorted, ps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Views > sorted[j].Views
	})
	return sorted
}
