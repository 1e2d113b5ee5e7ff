package users

import (
	"time"
)

// HistoryLimit caps the reading history.
const HistoryLimit = 50

const (
	guestIDPrefix = "guest_"
	userIDPrefix  = "user_"
)

// User is the single visitor identity resident in a store.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             *string   `json:"email"`
	IsGuest           bool      `json:"isGuest"`
	CreatedAt         time.Time `json:"createdAt"`
	PreferredCategory *string   `json:"preferredCategory"`
}

// Update is a partial user record; nil fields are kept from the current
// user.
type Update struct {
	Name              *string
	Email             *string
	PreferredCategory *string
}

// Stats counts the visitor's personal collections.
type Stats struct {
	Bookmarks    int `json:"bookmarks"`
	Comments     int `json:"comments"`
	Likes        int `json:"likes"`
	ReadArticles int `json:"readArticles"`
}

func (u User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

func (u User) PreferredCategoryOrEmpty() string {
	if u.PreferredCategory == nil {
		return ""
	}
	return *u.PreferredCategory
}
