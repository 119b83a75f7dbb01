package notification

import "time"

// Type is the closed set of feed event kinds.
type Type string

const (
	TypeLike    Type = "like"
	TypeComment Type = "comment"
	TypeRepost  Type = "repost"
)

func (t Type) Valid() bool {
	return t == TypeLike || t == TypeComment || t == TypeRepost
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is one slice of a user's feed, newest first.
type Page struct {
	Items       []Notification `json:"items"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"current_page"`
}
