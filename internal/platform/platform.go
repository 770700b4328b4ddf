// Package platform defines the contract the engine needs from the
// content platform that hosts threads and comments.
package platform

import (
	"context"
	"strings"
	"time"
)

// Thread is a root post. Removed threads no longer accept votes.
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Removed   bool      `json:"removed"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comment is a reply or summary comment.
type Comment struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// Client is the set of platform calls the engine makes. Lookups return
// nil without error when the entity does not exist.
type Client interface {
	SubmitComment(ctx context.Context, parentID, text string) (string, error)
	EditComment(ctx context.Context, commentID, text string) error
	CommentByID(ctx context.Context, commentID string) (*Comment, error)
	ThreadByID(ctx context.Context, threadID string) (*Thread, error)
	Distinguish(ctx context.Context, commentID string) error
}

// IsThreadID reports whether a fullname identifies a root thread.
// Thread fullnames carry the "t3_" kind prefix; anything else is a
// comment or other entity.
func IsThreadID(id string) bool {
	return strings.HasPrefix(id, "t3_")
}
