// Package comment holds the comment record shared by the cache, the
// remote client and the sync core. Records are immutable value
// snapshots; a status change produces a replacement record.
package comment

import (
	"fmt"
	"time"
)

// Status is a comment moderation status. The string values match the
// upstream wire vocabulary.
type Status string

const (
	StatusApproved   Status = "approve"
	StatusUnapproved Status = "hold"
	StatusSpam       Status = "spam"
	StatusTrash      Status = "trash"
)

// ParseStatus validates a wire value.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusApproved, StatusUnapproved, StatusSpam, StatusTrash:
		return s, nil
	}
	return "", fmt.Errorf("unknown comment status %q", raw)
}

// Comment is a single comment snapshot within one scope.
type Comment struct {
	ID          int64     `json:"id"`
	ScopeID     string    `json:"scope_id"`
	Status      Status    `json:"status"`
	Author      string    `json:"author"`
	AuthorEmail string    `json:"author_email,omitempty"`
	Content     string    `json:"content"`
	PostTitle   string    `json:"post_title,omitempty"`
	PostedAt    time.Time `json:"posted_at"`
}

// IDs extracts the comment ids from a list, preserving order.
func IDs(comments []Comment) []int64 {
	ids := make([]int64, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}
