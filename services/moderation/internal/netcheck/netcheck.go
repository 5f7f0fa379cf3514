// Package netcheck answers "is the upstream reachable right now"
// before the sync core commits to a remote call.
package netcheck

import (
	"context"
	"net/http"
	"time"
)

// Checker reports upstream reachability.
type Checker interface {
	IsReachable(ctx context.Context) bool
}

// HTTPChecker probes the upstream base URL with a cheap HEAD request.
type HTTPChecker struct {
	URL        string
	HTTPClient *http.Client
}

func NewHTTP(baseURL string) *HTTPChecker {
	return &HTTPChecker{
		URL:        baseURL,
		HTTPClient: &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *HTTPChecker) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL, nil)
	if err != nil {
		return false
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	// Any HTTP response means the host is reachable; auth and server
	// errors are classified later by the actual call.
	return true
}

// Static always answers the same; used in tests and local development.
type Static bool

func (s Static) IsReachable(context.Context) bool { return bool(s) }
