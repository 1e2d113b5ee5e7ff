// Package users keeps the current visitor and their likes, bookmarks and
// reading history.
package users

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/storage"
)

const DefaultGuestName = "Guest User"

// PostCounters adjusts the engagement counters on a post.
type PostCounters interface {
	AdjustLikes(id posts.ID, delta int) error
	AdjustBookmarks(id posts.ID, delta int) error
}

// AuthoredComments counts comments by author id and follows the visitor
// when their id changes.
type AuthoredComments interface {
	CountByAuthor(authorID string) int
	ReassignAuthor(oldID, newID string) (int, error)
}

type Repository struct {
	store     storage.Store
	posts     PostCounters
	comments  AuthoredComments
	logger    *zap.Logger
	guestName string
	now       func() time.Time
}

func NewRepository(store storage.Store, counters PostCounters, comments AuthoredComments, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:     store,
		posts:     counters,
		comments:  comments,
		logger:    logger.Named("users"),
		guestName: DefaultGuestName,
		now:       time.Now,
	}
}

// SetGuestName changes the display name given to new guests.
func (r *Repository) SetGuestName(name string) {
	if name != "" {
		r.guestName = name
	}
}

// Current returns the resident user, creating and persisting a guest when
// there is none.
func (r *Repository) Current() User {
	var u User
	if storage.Load(r.store, storage.KeyCurrentUser, &u) && u.ID != "" {
		return u
	}
	return r.createGuest()
}

func (r *Repository) createGuest() User {
	now := r.now()
	guest := User{
		ID:        newID(guestIDPrefix, strconv.FormatInt(now.UnixMilli(), 10)),
		Name:      r.guestName,
		IsGuest:   true,
		CreatedAt: now,
	}
	if err := storage.Save(r.store, storage.KeyCurrentUser, guest); err != nil {
		r.logger.Error("Error persisting guest user", zap.Error(err))
	}
	return guest
}

// Save merges the non-nil fields of u onto the current user and marks it
// registered. A guest id is replaced by a registered one.
func (r *Repository) Save(u Update) (User, error) {
	current := r.Current()
	if u.Name != nil {
		current.Name = *u.Name
	}
	if u.Email != nil {
		current.Email = u.Email
	}
	if u.PreferredCategory != nil {
		current.PreferredCategory = u.PreferredCategory
	}
	guestID := ""
	if strings.HasPrefix(current.ID, guestIDPrefix) {
		guestID = current.ID
		current.ID = newID(userIDPrefix, r.now().Format("20060102150405"))
	}
	current.IsGuest = false

	if err := storage.Save(r.store, storage.KeyCurrentUser, current); err != nil {
		return User{}, err
	}
	if guestID != "" && r.comments != nil {
		if _, err := r.comments.ReassignAuthor(guestID, current.ID); err != nil {
			return current, err
		}
	}
	return current, nil
}

// Logout drops the identity together with every personal collection.
func (r *Repository) Logout() error {
	for _, key := range []string{
		storage.KeyCurrentUser,
		storage.KeyBookmarks,
		storage.KeyLikes,
		storage.KeyReadingHistory,
	} {
		if err := r.store.Remove(key); err != nil {
			return err
		}
	}
	r.logger.Info("User logged out")
	return nil
}

func (r *Repository) ids(key string) []posts.ID {
	var ids []posts.ID
	if !storage.Load(r.store, key, &ids) {
		return []posts.ID{}
	}
	return ids
}

func (r *Repository) Bookmarks() []posts.ID {
	return r.ids(storage.KeyBookmarks)
}

func (r *Repository) IsBookmarked(id posts.ID) bool {
	return contains(r.Bookmarks(), id)
}

// ToggleBookmark flips membership and moves the post's bookmark counter by
// one in the same direction. It returns the new membership.
func (r *Repository) ToggleBookmark(id posts.ID) (bool, error) {
	return r.toggle(storage.KeyBookmarks, id, r.posts.AdjustBookmarks)
}

func (r *Repository) Likes() []posts.ID {
	return r.ids(storage.KeyLikes)
}

func (r *Repository) HasLiked(id posts.ID) bool {
	return contains(r.Likes(), id)
}

// ToggleLike flips membership and moves the post's like counter by one in
// the same direction. It returns the new membership.
func (r *Repository) ToggleLike(id posts.ID) (bool, error) {
	return r.toggle(storage.KeyLikes, id, r.posts.AdjustLikes)
}

func (r *Repository) toggle(key string, id posts.ID, adjust func(posts.ID, int) error) (bool, error) {
	set := r.ids(key)
	member := !contains(set, id)
	delta := 1
	if member {
		set = append(set, id)
	} else {
		set = without(set, id)
		delta = -1
	}

	if err := storage.Save(r.store, key, set); err != nil {
		return !member, err
	}
	if err := adjust(id, delta); err != nil {
		return member, err
	}
	return member, nil
}

func (r *Repository) History() []posts.ID {
	return r.ids(storage.KeyReadingHistory)
}

// AddToHistory moves id to the front of the history, keeping at most
// HistoryLimit entries.
func (r *Repository) AddToHistory(id posts.ID) error {
	history := append([]posts.ID{id}, without(r.History(), id)...)
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	return storage.Save(r.store, storage.KeyReadingHistory, history)
}

// ForgetPost removes a deleted post from every personal collection. The
// post's counters are not touched.
func (r *Repository) ForgetPost(id posts.ID) error {
	for _, key := range []string{storage.KeyBookmarks, storage.KeyLikes, storage.KeyReadingHistory} {
		set := r.ids(key)
		if !contains(set, id) {
			continue
		}
		if err := storage.Save(r.store, key, without(set, id)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) Stats() Stats {
	stats := Stats{
		Bookmarks:    len(r.Bookmarks()),
		Likes:        len(r.Likes()),
		ReadArticles: len(r.History()),
	}
	if r.comments != nil {
		stats.Comments = r.comments.CountByAuthor(r.Current().ID)
	}
	return stats
}

func contains(ids []posts.ID, id posts.ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func without(ids []posts.ID, id posts.ID) []posts.ID {
	out := make([]posts.ID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// newID joins prefix and a timestamp with a random suffix so that two
// visitors created in the same instant never share an id.
func newID(prefix, stamp string) string {
	return prefix + stamp + "_" + uuid.NewString()[:8]
}
