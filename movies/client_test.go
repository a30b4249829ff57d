package movies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	retry "github.com/appleboy/go-httpretry"
	"github.com/rs/zerolog"
)

func newTestHTTPClient(t *testing.T) *retry.Client {
	t.Helper()
	client, err := retry.NewClient()
	if err != nil {
		t.Fatalf("Failed to create retry client: %v", err)
	}
	return client
}

func newTestCatalog(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", newTestHTTPClient(t), zerolog.Nop())
}

func TestClient_Movies(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/popular" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Errorf("Expected api_key=test-key, got %q", q.Get("api_key"))
		}
		if q.Get("page") != "2" {
			t.Errorf("Expected page=2, got %q", q.Get("page"))
		}
		json.NewEncoder(w).Encode(Page{
			Page:         2,
			TotalPages:   10,
			TotalResults: 200,
			Results: []Movie{
				{ID: 1, Title: "First", VoteAverage: 7.5},
				{ID: 2, Title: "Second", VoteAverage: 8.1},
			},
		})
	}))

	page, err := catalog.Movies(context.Background(), CategoryPopular, 2)
	if err != nil {
		t.Fatalf("Movies failed: %v", err)
	}
	if page.Page != 2 || page.TotalPages != 10 {
		t.Errorf("Unexpected page metadata: %+v", page)
	}
	if len(page.Results) != 2 || page.Results[0].Title != "First" {
		t.Errorf("Unexpected results: %+v", page.Results)
	}
}

func TestClient_Movies_ClampsPage(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "1" {
			t.Errorf("Expected page clamped to 1, got %q", got)
		}
		json.NewEncoder(w).Encode(Page{Page: 1, TotalPages: 1})
	}))

	if _, err := catalog.Movies(context.Background(), CategoryTopRated, 0); err != nil {
		t.Fatalf("Movies failed: %v", err)
	}
}

func TestClient_MovieDetails(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/42" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Movie{ID: 42, Title: "The Answer", Overview: "Long overview"})
	}))

	movie, err := catalog.MovieDetails(context.Background(), 42)
	if err != nil {
		t.Fatalf("MovieDetails failed: %v", err)
	}
	if movie.ID != 42 || movie.Title != "The Answer" {
		t.Errorf("Unexpected movie: %+v", movie)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := catalog.MovieDetails(context.Background(), 99999)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	want := fmt.Sprintf("API Error: %d", http.StatusNotFound)
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
