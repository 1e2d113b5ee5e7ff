// Package posts owns the published articles and the site settings record.
//
// Every mutation reads the whole collection from the store, changes it in
// memory and writes the whole collection back. Nothing spans the read and
// the write, so two concurrent mutations may lose one of them; the site
// models a single visitor and accepts that.
package posts

import (
	"time"

	"go.uber.org/zap"

	"newsdaily-web/internal/storage"
)

// AllCategories is the category wildcard accepted by ByCategory.
const AllCategories = "all"

const week = 7 * 24 * time.Hour

type Repository struct {
	store  storage.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewRepository(store storage.Store, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:  store,
		logger: logger.Named("posts"),
		now:    time.Now,
	}
}

func (r *Repository) load() []Post {
	var ps []Post
	if !storage.Load(r.store, storage.KeyPosts, &ps) {
		if _, present := r.store.Get(storage.KeyPosts); present {
			r.logger.Warn("Stored posts are unreadable, treating as empty")
		}
		return []Post{}
	}
	return ps
}

func (r *Repository) save(ps []Post) error {
	return storage.Save(r.store, storage.KeyPosts, ps)
}

// All returns every post in storage order.
func (r *Repository) All() []Post {
	return r.load()
}

// ByCategory returns the posts of one category in storage order.
// AllCategories returns everything.
func (r *Repository) ByCategory(category string) []Post {
	ps := r.load()
	if category == AllCategories {
		return ps
	}
	filtered := []Post{}
	for _, p := range ps {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func (r *Repository) Get(id ID) (Post, bool) {
	for _, p := range r.load() {
		if p.ID == id {
			return p, true
		}
	}
	return Post{}, false
}

// Create appends p with zeroed counters. A zero ID or Date is filled in.
func (r *Repository) Create(p Post) (Post, error) {
	ps := r.load()
	now := r.now()

	if p.ID == 0 {
		p.ID = nextID(ps, now)
	}
	if p.Date.IsZero() {
		p.Date = now
	}
	p.Views, p.Likes, p.Bookmarks = 0, 0, 0

	ps = append(ps, p)
	if err := r.save(ps); err != nil {
		return Post{}, err
	}
	r.logger.Info("Post created", zap.Int64("id", int64(p.ID)), zap.String("category", p.Category))
	return p, nil
}

// Update edits the post in place. It reports false when no post has id.
func (r *Repository) Update(id ID, u Update) (Post, bool, error) {
	ps := r.load()
	i := indexOf(ps, id)
	if i < 0 {
		return Post{}, false, nil
	}
	u.apply(&ps[i])
	if err := r.save(ps); err != nil {
		return Post{}, true, err
	}
	return ps[i], true, nil
}

// Delete removes the post. Comments and per-user sets are cleaned up by
// their own repositories.
func (r *Repository) Delete(id ID) (bool, error) {
	ps := r.load()
	i := indexOf(ps, id)
	if i < 0 {
		return false, nil
	}
	ps = append(ps[:i], ps[i+1:]...)
	if err := r.save(ps); err != nil {
		return true, err
	}
	r.logger.Info("Post deleted", zap.Int64("id", int64(id)))
	return true, nil
}

func (r *Repository) IncrementViews(id ID) error {
	return r.mutate(id, func(p *Post) {
		p.Views++
	})
}

func (r *Repository) AdjustLikes(id ID, delta int) error {
	return r.mutate(id, func(p *Post) {
		p.Likes = clamp(p.Likes + delta)
	})
}

func (r *Repository) AdjustBookmarks(id ID, delta int) error {
	return r.mutate(id, func(p *Post) {
		p.Bookmarks = clamp(p.Bookmarks + delta)
	})
}

// mutate applies fn to the post with id and persists. Unknown ids are a
// no-op.
func (r *Repository) mutate(id ID, fn func(*Post)) error {
	ps := r.load()
	i := indexOf(ps, id)
	if i < 0 {
		return nil
	}
	fn(&ps[i])
	return r.save(ps)
}

func (r *Repository) Stats() Stats {
	ps := r.load()
	weekAgo := r.now().Add(-week)
	categories := make(map[string]struct{})

	stats := Stats{Total: len(ps)}
	for _, p := range ps {
		stats.Views += p.Views
		if p.Date.After(weekAgo) {
			stats.ThisWeek++
		}
		categories[p.Category] = struct{}{}
	}
	stats.Categories = len(categories)
	return stats
}

// Categories lists the distinct categories in first-seen order.
func (r *Repository) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.load() {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// Seed writes ps only when no posts are stored yet. Counters in ps are
// kept as given.
func (r *Repository) Seed(ps []Post) (int, error) {
	if len(r.load()) > 0 || len(ps) == 0 {
		return 0, nil
	}
	now := r.now()
	seeded := make([]Post, 0, len(ps))
	for _, p := range ps {
		if p.ID == 0 {
			p.ID = nextID(seeded, now)
		}
		if p.Date.IsZero() {
			p.Date = now
		}
		seeded = append(seeded, p)
	}
	if err := r.save(seeded); err != nil {
		return 0, err
	}
	return len(seeded), nil
}

func (r *Repository) Settings() Settings {
	var s Settings
	if !storage.Load(r.store, storage.KeySettings, &s) {
		return Settings{}
	}
	return s
}

func (r *Repository) SaveSettings(s Settings) error {
	return storage.Save(r.store, storage.KeySettings, s)
}

func indexOf(ps []Post, id ID) int {
	for i := range ps {
		if ps[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID derives an id from the clock, stepping past the largest existing
// id when two posts are created within the same millisecond.
func nextID(ps []Post, now time.Time) ID {
	id := ID(now.UnixMilli())
	for _, p := range ps {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
