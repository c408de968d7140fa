package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// testClient disables throttling so tests run fast.
func testClient(baseURL string) *Client {
	c := NewClient(baseURL, "test-token")
	c.minDelay = 0
	return c
}

func TestClientCurrentUser(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/get_current_user" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{"id": 42, "first_name": "Dhruv"},
		})
	}))
	defer srv.Close()

	user, err := testClient(srv.URL).CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("user.ID = %d, want 42", user.ID)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestClientExpensesPagination(t *testing.T) {
	// 150 expenses: one full page of 100, then a short page of 50.
	total := 150
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit != defaultPageSize {
			t.Errorf("limit = %d, want %d", limit, defaultPageSize)
		}

		var page []map[string]any
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, map[string]any{"id": i + 1, "cost": "10.00", "date": "2024-01-05"})
		}
		json.NewEncoder(w).Encode(map[string]any{"expenses": page})
	}))
	defer srv.Close()

	expenses, err := testClient(srv.URL).Expenses(context.Background())
	if err != nil {
		t.Fatalf("Expenses failed: %v", err)
	}
	if len(expenses) != total {
		t.Fatalf("got %d expenses, want %d", len(expenses), total)
	}
	if expenses[0].ID != 1 || expenses[total-1].ID != int64(total) {
		t.Errorf("page order broken: first=%d last=%d", expenses[0].ID, expenses[total-1].ID)
	}
}

func TestClientRetriesOnRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"friends": []any{}})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	start := time.Now()
	if _, err := c.Friends(context.Background()); err != nil {
		t.Fatalf("Friends failed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("server saw %d calls, want 2 (one retry)", calls)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("retry came after %v, want backoff of at least 1s", elapsed)
	}
}

func TestClientGivesUpOnClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad token"}`)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Groups(context.Background()); err == nil {
		t.Fatal("want error on 401, got nil")
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1 (4xx is not retried)", calls)
	}
}
