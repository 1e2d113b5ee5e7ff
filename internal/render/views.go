// Package render projects repository state into page views and renders
// them as HTML. Projections are pure: the same posts in give the same view
// out, and nothing here reads or writes a store.
package render

import (
	"math"
	"strings"

	"newsdaily-web/internal/comments"
	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/users"
)

const (
	heroSize       = 4
	relatedLimit   = 3
	popularLimit   = 5
	recentLimit    = 5
	wordsPerMinute = 200
)

// Page carries what the layout needs on every page.
type Page struct {
	Title      string
	SiteName   string
	TickerText string
	Categories []string
	Category   string
	Theme      string
	FontSize   int
	Toast      string
	ToastType  string
	Admin      bool
}

// HomeSections splits an ordered list of posts into the hero region and
// the grid below it.
type HomeSections struct {
	Lead *posts.Post
	Side []posts.Post
	Grid []posts.Post
}

// Home takes the first four posts, in the order given, for the hero (one
// lead, three side cards) and leaves the rest for the grid.
func Home(ordered []posts.Post) HomeSections {
	var s HomeSections
	if len(ordered) == 0 {
		return s
	}
	n := heroSize
	if len(ordered) < n {
		n = len(ordered)
	}
	lead := ordered[0]
	s.Lead = &lead
	s.Side = append([]posts.Post{}, ordered[1:n]...)
	s.Grid = append([]posts.Post{}, ordered[n:]...)
	return s
}

type ArticleSections struct {
	Related        []posts.Post
	Popular        []posts.Post
	ReadingMinutes int
}

// Article picks the related and popular posts for p out of all.
func Article(p posts.Post, all []posts.Post) ArticleSections {
	var same []posts.Post
	for _, other := range all {
		if other.ID != p.ID && other.Category == p.Category {
			same = append(same, other)
		}
	}

	related := same
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}

	popular := posts.SortByViews(same)
	if len(popular) > popularLimit {
		popular = popular[:popularLimit]
	}

	return ArticleSections{
		Related:        append([]posts.Post{}, related...),
		Popular:        popular,
		ReadingMinutes: ReadingMinutes(p.Content),
	}
}

// ReadingMinutes estimates reading time at 200 words a minute.
func ReadingMinutes(content string) int {
	words := len(strings.Fields(content))
	if words == 0 {
		words = 1
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

type DashboardSections struct {
	Stats  posts.Stats
	Recent []posts.Post
}

// Dashboard shows the site stats and the first stored posts.
func Dashboard(stats posts.Stats, all []posts.Post) DashboardSections {
	recent := all
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return DashboardSections{Stats: stats, Recent: append([]posts.Post{}, recent...)}
}

type ProfileSections struct {
	User      users.User
	Stats     users.Stats
	Bookmarks []posts.Post
	History   []posts.Post
	Comments  []comments.Comment
}

// Profile resolves the user's post ids against all, dropping ids whose
// post no longer exists and keeping the order of the id lists.
func Profile(u users.User, stats users.Stats, bookmarks, history []posts.ID, all []posts.Post, mine []comments.Comment) ProfileSections {
	byID := make(map[posts.ID]posts.Post, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	resolve := func(ids []posts.ID) []posts.Post {
		out := []posts.Post{}
		for _, id := range ids {
			if p, ok := byID[id]; ok {
				out = append(out, p)
			}
		}
		return out
	}
	return ProfileSections{
		User:      u,
		Stats:     stats,
		Bookmarks: resolve(bookmarks),
		History:   resolve(history),
		Comments:  mine,
	}
}

// Font sizes for the article body, in pixels.
const (
	DefaultFontSize = 18
	MinFontSize     = 14
	MaxFontSize     = 26
)

// NextFontSize applies a font size control: 0 resets, otherwise each step
// is 2px, clamped to the allowed range.
func NextFontSize(current, change int) int {
	if change == 0 {
		return DefaultFontSize
	}
	next := current + change*2
	if next < MinFontSize {
		return MinFontSize
	}
	if next > MaxFontSize {
		return MaxFontSize
	}
	return next
}

// NextTheme flips between the light and dark themes.
func NextTheme(current string) string {
	if current == "dark" {
		return "light"
	}
	return "dark"
}
