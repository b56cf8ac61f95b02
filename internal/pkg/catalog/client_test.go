package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchDecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "matrix", r.URL.Query().Get("query"))
		assert.NotEmpty(t, r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"page":1,"results":[{"id":603,"title":"Matrix","vote_average":8.2}],"total_pages":1,"total_results":1}`))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	list := c.Search(context.Background(), "matrix")

	require.Len(t, list.Results, 1)
	assert.Equal(t, 603, list.Results[0].ID)
	assert.Equal(t, "Matrix", list.Results[0].Title)
}

func TestGetRetriesOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":42,"title":"Answer"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	movie := c.Details(context.Background(), 42)

	assert.Equal(t, 42, movie.ID)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestGetDoesNotRetryOn4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient("test-key").WithBaseURL(srv.URL)
	movie := c.Details(context.Background(), 999999)

	assert.Zero(t, movie.ID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFailureReturnsEmptyResult(t *testing.T) {
	c := NewClient("test-key").WithBaseURL("http://127.0.0.1:1")
	list := c.Trending(context.Background())

	assert.Empty(t, list.Results)
	assert.Zero(t, list.TotalResults)
}
