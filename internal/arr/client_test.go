package arr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestRadarr(t *testing.T, server *httptest.Server) *Radarr {
	t.Helper()
	r, err := NewRadarr(ClientConfig{
		URL:    server.URL,
		APIKey: "test-api-key",
		Retry:  RetryConfig{MaxAttempts: 3, Backoff: time.Millisecond},
		Logger: zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewRadarr() error = %v", err)
	}
	return r
}

func TestNewRadarr_Validation(t *testing.T) {
	if _, err := NewRadarr(ClientConfig{APIKey: "key"}); err == nil {
		t.Error("NewRadarr() with empty URL should fail")
	}
	if _, err := NewRadarr(ClientConfig{URL: "http://localhost:7878"}); err == nil {
		t.Error("NewRadarr() with empty API key should fail")
	}
}

func TestClient_AuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "test-api-key" {
			t.Errorf("X-Api-Key = %q, want %q", got, "test-api-key")
		}
		if got := r.Header.Get("Authorization"); got != "test-api-key" {
			t.Errorf("Authorization = %q, want %q", got, "test-api-key")
		}
		if r.URL.Path != "/api/v3/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	if _, err := client.Movies(context.Background()); err != nil {
		t.Fatalf("Movies() error = %v", err)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id": 1, "title": "Movie", "monitored": true}]`))
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	movies, err := client.Movies(context.Background())
	if err != nil {
		t.Fatalf("Movies() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server received %d calls, want 3", got)
	}
	if len(movies) != 1 || movies[0].Title != "Movie" {
		t.Errorf("unexpected movies: %+v", movies)
	}
}

func TestClient_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	_, err := client.Movies(context.Background())
	if err == nil {
		t.Fatal("Movies() should fail after exhausting retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server received %d calls, want 3", got)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadGateway {
		t.Errorf("error = %v, want StatusError with code 502", err)
	}
}

func TestClient_NonRetryableStatusFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	_, err := client.Movie(context.Background(), 42)
	if err == nil {
		t.Fatal("Movie() should fail on 404")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server received %d calls, want 1 (no retries on 404)", got)
	}
}

func TestClient_RetriesConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	client := newTestRadarr(t, server)
	_, err := client.Movies(context.Background())
	if err == nil {
		t.Fatal("Movies() should fail against a closed server")
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("error = %v, want TransportError", err)
	}
}

func TestRetryableStatus(t *testing.T) {
	retryable := []int{429, 500, 502, 503, 504}
	for _, code := range retryable {
		if !retryableStatus(code) {
			t.Errorf("retryableStatus(%d) = false, want true", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 409, 501} {
		if retryableStatus(code) {
			t.Errorf("retryableStatus(%d) = true, want false", code)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	base := 500 * time.Millisecond
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, time.Second},
		{3, 2 * time.Second},
		{10, 30 * time.Second}, // capped
	}
	for _, tt := range tests {
		if got := backoffDelay(base, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%v, %d) = %v, want %v", base, tt.attempt, got, tt.want)
		}
	}
}

func TestEnsureTag_Existing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected %s request, existing tag needs no write", r.Method)
		}
		w.Write([]byte(`[{"id": 7, "label": "upgrade-cf"}, {"id": 9, "label": "other"}]`))
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	id, err := client.EnsureTag(context.Background(), "upgrade-cf")
	if err != nil {
		t.Fatalf("EnsureTag() error = %v", err)
	}
	if id != 7 {
		t.Errorf("EnsureTag() = %d, want 7", id)
	}
}

func TestEnsureTag_Creates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte("[]"))
		case http.MethodPost:
			var tag Tag
			if err := json.NewDecoder(r.Body).Decode(&tag); err != nil {
				t.Fatalf("failed to decode tag body: %v", err)
			}
			if tag.Label != "upgrade-cf" {
				t.Errorf("created label = %q, want %q", tag.Label, "upgrade-cf")
			}
			tag.ID = 11
			json.NewEncoder(w).Encode(tag)
		}
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	id, err := client.EnsureTag(context.Background(), "upgrade-cf")
	if err != nil {
		t.Fatalf("EnsureTag() error = %v", err)
	}
	if id != 11 {
		t.Errorf("EnsureTag() = %d, want 11", id)
	}
}

func TestQueue_BareList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": 1, "title": "Item"}]`))
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	items, err := client.Queue(context.Background())
	if err != nil {
		t.Fatalf("Queue() error = %v", err)
	}
	if len(items) != 1 || items[0].Title != "Item" {
		t.Errorf("unexpected queue: %+v", items)
	}
}

func TestQueue_PagedRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page": 1, "totalRecords": 2, "records": [{"id": 1, "title": "A"}, {"id": 2, "title": "B"}]}`))
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	items, err := client.Queue(context.Background())
	if err != nil {
		t.Fatalf("Queue() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Queue() returned %d items, want 2", len(items))
	}
	if items[1].Title != "B" {
		t.Errorf("items[1].Title = %q, want %q", items[1].Title, "B")
	}
}

func TestAddMovieTag_PreservesUnmodeledFields(t *testing.T) {
	var updated map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"id": 5, "title": "Movie", "tags": [2], "path": "/movies/m", "rootFolderPath": "/movies"}`))
		case http.MethodPut:
			if r.URL.Path != "/api/v3/movie/5" {
				t.Errorf("unexpected PUT path: %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
				t.Fatalf("failed to decode PUT body: %v", err)
			}
			w.Write([]byte("{}"))
		}
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	if err := client.AddMovieTag(context.Background(), 5, 9); err != nil {
		t.Fatalf("AddMovieTag() error = %v", err)
	}

	if updated["path"] != "/movies/m" || updated["rootFolderPath"] != "/movies" {
		t.Errorf("unmodeled fields dropped from PUT body: %+v", updated)
	}
	tags, ok := updated["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("tags = %v, want [2 9]", updated["tags"])
	}
	if tags[0].(float64) != 2 || tags[1].(float64) != 9 {
		t.Errorf("tags = %v, want [2 9]", tags)
	}
}

func TestSearchMovies_Command(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/command" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode command body: %v", err)
		}
		if body["name"] != "MoviesSearch" {
			t.Errorf("command name = %v, want MoviesSearch", body["name"])
		}
		ids, _ := body["movieIds"].([]any)
		if len(ids) != 2 {
			t.Errorf("movieIds = %v, want two entries", body["movieIds"])
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestRadarr(t, server)
	if err := client.SearchMovies(context.Background(), []int64{3, 8}); err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}
}

func TestAddTag(t *testing.T) {
	tests := []struct {
		name  string
		tags  []int64
		tagID int64
		want  []int64
	}{
		{"append sorted", []int64{2, 9}, 5, []int64{2, 5, 9}},
		{"already present", []int64{2, 5}, 5, []int64{2, 5}},
		{"empty", nil, 3, []int64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addTag(tt.tags, tt.tagID)
			if len(got) != len(tt.want) {
				t.Fatalf("addTag() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("addTag() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestRemoveTag(t *testing.T) {
	got := removeTag([]int64{2, 5, 9}, 5)
	if len(got) != 2 || got[0] != 2 || got[1] != 9 {
		t.Errorf("removeTag() = %v, want [2 9]", got)
	}
	got = removeTag([]int64{2}, 7)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("removeTag() of absent tag = %v, want [2]", got)
	}
}
