package notifications

import (
	"time"

	"murmur/internal/models"
)

// Kind names what happened.
type Kind string

const (
	KindLike    Kind = "LIKE"
	KindRepost  Kind = "REPOST"
	KindComment Kind = "COMMENT"
	KindFollow  Kind = "FOLLOW"
)

// Event is the JSON payload delivered to a user's notification stream.
type Event struct {
	Kind      Kind               `json:"kind"`
	Actor     models.UserSummary `json:"actor"`
	PostID    uint               `json:"postId,omitempty"`
	CommentID uint               `json:"commentId,omitempty"`
	Text      string             `json:"text,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}
