package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/comments-console/services/moderation/internal/comment"
)

// HTTPClient implements Client against the upstream JSON API using
// basic auth with an application password.
type HTTPClient struct {
	BaseURL     string
	Username    string
	AppPassword string
	HTTPClient  *http.Client
}

func New(baseURL, username, appPassword string) *HTTPClient {
	return &HTTPClient{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Username:    username,
		AppPassword: appPassword,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type pageResponse struct {
	Comments []wireComment `json:"comments"`
}

type idsResponse struct {
	IDs []int64 `json:"ids"`
}

type updateStatusRequest struct {
	IDs    []int64 `json:"ids"`
	Status string  `json:"status"`
}

type updateStatusResponse struct {
	Updated []wireComment `json:"updated"`
}

type wireComment struct {
	ID          int64  `json:"id"`
	Status      string `json:"status"`
	Author      string `json:"author"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
	PostTitle   string `json:"post_title"`
	PostedAt    string `json:"posted_at"`
}

func (c *HTTPClient) FetchPage(ctx context.Context, scopeID string, q PageQuery) ([]comment.Comment, error) {
	u, err := url.Parse(c.BaseURL + "/sites/" + url.PathEscape(scopeID) + "/comments")
	if err != nil {
		return nil, err
	}
	qq := u.Query()
	qq.Set("number", strconv.Itoa(q.Number))
	if q.LoadMore {
		qq.Set("offset", strconv.Itoa(q.Offset))
	}
	u.RawQuery = qq.Encode()

	out, err := c.do(ctx, http.MethodGet, u.String(), nil, &pageResponse{})
	if err != nil {
		return nil, err
	}
	return fromWire(scopeID, out.(*pageResponse).Comments)
}

func (c *HTTPClient) FetchCommentIDs(ctx context.Context, scopeID string) ([]int64, error) {
	u := c.BaseURL + "/sites/" + url.PathEscape(scopeID) + "/comments/ids"
	out, err := c.do(ctx, http.MethodGet, u, nil, &idsResponse{})
	if err != nil {
		return nil, err
	}
	return out.(*idsResponse).IDs, nil
}

func (c *HTTPClient) UpdateStatus(ctx context.Context, scopeID string, ids []int64, status comment.Status) ([]comment.Comment, error) {
	u := c.BaseURL + "/sites/" + url.PathEscape(scopeID) + "/comments/status"
	body, err := json.Marshal(updateStatusRequest{IDs: ids, Status: string(status)})
	if err != nil {
		return nil, err
	}
	out, err := c.do(ctx, http.MethodPost, u, body, &updateStatusResponse{})
	if err != nil {
		return nil, err
	}
	return fromWire(scopeID, out.(*updateStatusResponse).Updated)
}

func (c *HTTPClient) do(ctx context.Context, method, u string, body []byte, dest any) (any, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.Username, c.AppPassword)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("remote: status %d: %w", resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("remote: status %d body=%q", resp.StatusCode, truncate(b, 200))
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return nil, fmt.Errorf("remote: decode error: %w body=%q", err, truncate(b, 200))
	}
	return dest, nil
}

func fromWire(scopeID string, in []wireComment) ([]comment.Comment, error) {
	out := make([]comment.Comment, 0, len(in))
	for _, w := range in {
		status, err := comment.ParseStatus(w.Status)
		if err != nil {
			return nil, fmt.Errorf("remote: comment %d: %w", w.ID, err)
		}
		postedAt, err := time.Parse(time.RFC3339, w.PostedAt)
		if err != nil {
			return nil, fmt.Errorf("remote: comment %d: bad posted_at %q", w.ID, w.PostedAt)
		}
		out = append(out, comment.Comment{
			ID:          w.ID,
			ScopeID:     scopeID,
			Status:      status,
			Author:      w.Author,
			AuthorEmail: w.AuthorEmail,
			Content:     w.Content,
			PostTitle:   w.PostTitle,
			PostedAt:    postedAt,
		})
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
