// Package remote talks to the upstream comments API on behalf of one
// site credential pair.
package remote

import (
	"context"
	"errors"

	"github.com/example/comments-console/services/moderation/internal/comment"
)

// ErrUnauthorized marks a remote call rejected for bad credentials.
// Callers distinguish it from transport failures with errors.Is.
var ErrUnauthorized = errors.New("remote: unauthorized")

// PageQuery selects one page of comments. Offset is only sent when
// LoadMore is set; the page always starts at the newest comment
// otherwise.
type PageQuery struct {
	Offset   int
	Number   int
	LoadMore bool
}

// Client is the upstream contract the sync core consumes.
type Client interface {
	// FetchPage returns one page of comments in server order.
	FetchPage(ctx context.Context, scopeID string, q PageQuery) ([]comment.Comment, error)
	// FetchCommentIDs returns the server's full comment id set for the
	// scope, used to prune locally-cached comments deleted server-side.
	FetchCommentIDs(ctx context.Context, scopeID string) ([]int64, error)
	// UpdateStatus applies one status to many comments and returns the
	// set the server actually changed, which may be a subset.
	UpdateStatus(ctx context.Context, scopeID string, ids []int64, status comment.Status) ([]comment.Comment, error)
}
