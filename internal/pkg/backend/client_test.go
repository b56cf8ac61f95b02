package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFavoritesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetFavorites(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFavoritesDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/favorites/user/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"userId":7,"movieIds":["603","604"],"movies":[{"movieId":"603","addedAt":"2025-03-01T10:00:00Z"},{"movieId":"604","addedAt":"2025-03-02T10:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	list, err := c.GetFavorites(context.Background(), 7)
	require.NoError(t, err)

	assert.EqualValues(t, 7, list.UserID)
	assert.Equal(t, []string{"603", "604"}, list.MovieIDs)
	require.Len(t, list.Movies, 2)
	assert.Equal(t, "603", list.Movies[0].MovieID)
}

func TestTokenHeaderIsSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cfl_secret", r.Header.Get("X-API-Token"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL).WithToken("cfl_secret")
	_, err := c.ListProfiles(context.Background(), 1)
	assert.NoError(t, err)
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ana@example.com", payload["email"])
		w.Write([]byte(`{"user":{"id":3,"name":"Ana"},"token":"cfl_abc"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Login(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)

	assert.EqualValues(t, 3, resp.User.ID)
	assert.Equal(t, "cfl_abc", resp.Token)
	assert.Equal(t, "cfl_abc", c.token)
}

func TestErrorResponseIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"conflict","message":"Nome de perfil em uso"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateProfile(context.Background(), ProfileInput{UserID: 1, Name: "Ana", Color: "#E50914"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nome de perfil em uso")
}
