package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/comments-console/services/moderation/internal/comment"
)

const wirePage = `{"comments":[
  {"id":11,"status":"approve","author":"ann","content":"first","posted_at":"2024-05-01T10:00:00Z"},
  {"id":12,"status":"hold","author":"bob","content":"second","posted_at":"2024-05-01T09:00:00Z"}
]}`

func TestFetchPage(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sites/blog-7/comments" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if u, p, ok := r.BasicAuth(); !ok || u != "admin" || p != "app-pass" {
			t.Errorf("missing or wrong basic auth: %q %q", u, p)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(wirePage))
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "app-pass")
	got, err := c.FetchPage(context.Background(), "blog-7", PageQuery{Number: 30})
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
	if got[0].ID != 11 || got[0].Status != comment.StatusApproved || got[0].ScopeID != "blog-7" {
		t.Fatalf("unexpected first comment: %+v", got[0])
	}
	if gotQuery != "number=30" {
		t.Fatalf("expected no offset on a refresh page, got query %q", gotQuery)
	}
}

func TestFetchPage_LoadMoreSendsOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("offset"); got != "60" {
			t.Errorf("expected offset=60, got %q", got)
		}
		if got := r.URL.Query().Get("number"); got != "30" {
			t.Errorf("expected number=30, got %q", got)
		}
		_, _ = w.Write([]byte(`{"comments":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "app-pass")
	got, err := c.FetchPage(context.Background(), "blog-7", PageQuery{Offset: 60, Number: 30, LoadMore: true})
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty page, got %d", len(got))
	}
}

func TestFetchPage_UnauthorizedClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "wrong")
	_, err := c.FetchPage(context.Background(), "blog-7", PageQuery{Number: 30})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFetchPage_ServerErrorIsNotUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "app-pass")
	_, err := c.FetchPage(context.Background(), "blog-7", PageQuery{Number: 30})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatalf("502 must not be classified unauthorized: %v", err)
	}
}

func TestFetchPage_BadStatusRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"comments":[{"id":1,"status":"published","posted_at":"2024-05-01T10:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "app-pass")
	_, err := c.FetchPage(context.Background(), "blog-7", PageQuery{Number: 30})
	if err == nil {
		t.Fatal("expected error for unknown status value")
	}
}

func TestFetchCommentIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sites/blog-7/comments/ids" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ids":[3,1,2]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "app-pass")
	ids, err := c.FetchCommentIDs(context.Background(), "blog-7")
	if err != nil {
		t.Fatalf("fetch ids: %v", err)
	}
	if len(ids) != 3 || ids[0] != 3 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestUpdateStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sites/blog-7/comments/status" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Status != "spam" || len(req.IDs) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		// Server accepts only one of the two.
		_, _ = w.Write([]byte(`{"updated":[{"id":11,"status":"spam","author":"ann","content":"first","posted_at":"2024-05-01T10:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "admin", "app-pass")
	updated, err := c.UpdateStatus(context.Background(), "blog-7", []int64{11, 12}, comment.StatusSpam)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if len(updated) != 1 || updated[0].ID != 11 || updated[0].Status != comment.StatusSpam {
		t.Fatalf("unexpected result: %+v", updated)
	}
}
