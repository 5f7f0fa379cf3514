package cache

import (
	"context"

	"github.com/example/comments-console/services/moderation/internal/comment"
)

// Cache is the local persistence contract for fetched comments. The
// cache keeps the server-provided order per scope and survives
// restarts; the sync core treats every write as best-effort.
type Cache interface {
	// LoadCached returns the full locally-known set for a scope in
	// stored order.
	LoadCached(ctx context.Context, scopeID string) ([]comment.Comment, error)
	// ReplaceAll replaces the scope's cached set wholesale.
	ReplaceAll(ctx context.Context, scopeID string, comments []comment.Comment) error
	// Upsert appends new comments after the existing ones; comments
	// already present are updated in place, keeping their position.
	Upsert(ctx context.Context, scopeID string, comments []comment.Comment) error
	// Remove deletes the given comment ids.
	Remove(ctx context.Context, scopeID string, ids []int64) error
	// DeleteAbsent prunes cached comments whose id is not in keep.
	DeleteAbsent(ctx context.Context, scopeID string, keep []int64) error
}
