// Package comments is the single store of reader comments for every post.
package comments

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/storage"
)

type Comment struct {
	ID       int64     `json:"id"`
	PostID   posts.ID  `json:"postId"`
	AuthorID string    `json:"authorId,omitempty"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
	Likes    int       `json:"likes"`
}

// Author identifies who wrote a comment. ID links the comment to the
// visitor that was current when it was posted.
type Author struct {
	ID    string
	Name  string
	Email string
}

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
		logger: logger.Named("comments"),
		now:    time.Now,
	}
}

func (r *Repository) load() []Comment {
	var cs []Comment
	if !storage.Load(r.store, storage.KeyComments, &cs) {
		return []Comment{}
	}
	return cs
}

func (r *Repository) save(cs []Comment) error {
	return storage.Save(r.store, storage.KeyComments, cs)
}

// List returns the comments of one post in storage order.
func (r *Repository) List(postID posts.ID) []Comment {
	out := []Comment{}
	for _, c := range r.load() {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// Add stores a new comment. Fields are taken as given; validating them is
// up to the caller.
func (r *Repository) Add(postID posts.ID, author Author, text string) (Comment, error) {
	cs := r.load()
	now := r.now()

	id := now.UnixMilli()
	for _, c := range cs {
		if c.ID >= id {
			id = c.ID + 1
		}
	}

	c := Comment{
		ID:       id,
		PostID:   postID,
		AuthorID: author.ID,
		Name:     author.Name,
		Email:    author.Email,
		Text:     text,
		Date:     now,
	}
	cs = append(cs, c)
	if err := r.save(cs); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// Like adds one like to the comment. Unknown ids are ignored.
func (r *Repository) Like(commentID int64) error {
	cs := r.load()
	for i := range cs {
		if cs[i].ID == commentID {
			cs[i].Likes++
			return r.save(cs)
		}
	}
	return nil
}

// Get finds a comment by id.
func (r *Repository) Get(commentID int64) (Comment, bool) {
	for _, c := range r.load() {
		if c.ID == commentID {
			return c, true
		}
	}
	return Comment{}, false
}

// ByAuthor returns an author's comments, most recent first.
func (r *Repository) ByAuthor(authorID string) []Comment {
	out := []Comment{}
	if authorID == "" {
		return out
	}
	for _, c := range r.load() {
		if c.AuthorID == authorID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (r *Repository) CountByAuthor(authorID string) int {
	return len(r.ByAuthor(authorID))
}

// ReassignAuthor moves every comment of oldID to newID and reports how
// many moved.
func (r *Repository) ReassignAuthor(oldID, newID string) (int, error) {
	if oldID == "" || oldID == newID {
		return 0, nil
	}
	cs := r.load()
	moved := 0
	for i := range cs {
		if cs[i].AuthorID == oldID {
			cs[i].AuthorID = newID
			moved++
		}
	}
	if moved == 0 {
		return 0, nil
	}
	if err := r.save(cs); err != nil {
		return 0, err
	}
	r.logger.Info("Comments reassigned",
		zap.String("from", oldID), zap.String("to", newID), zap.Int("count", moved))
	return moved, nil
}

// DeleteForPost removes every comment on a post and reports how many went.
func (r *Repository) DeleteForPost(postID posts.ID) (int, error) {
	cs := r.load()
	kept := make([]Comment, 0, len(cs))
	for _, c := range cs {
		if c.PostID != postID {
			kept = append(kept, c)
		}
	}
	removed := len(cs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.save(kept); err != nil {
		return 0, err
	}
	r.logger.Info("Comments removed with post",
		zap.Int64("post_id", int64(postID)), zap.Int("count", removed))
	return removed, nil
}
