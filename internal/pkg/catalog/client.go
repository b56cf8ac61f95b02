package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// Movie is one catalog item as consumed by the browsing and favorites flows.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	VoteCount   int     `json:"vote_count,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
}

// MovieList is one page of catalog results.
type MovieList struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// CastMember is one credited actor on a movie.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Credits holds the cast list for a movie.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
}

// Video is one trailer/teaser attached to a movie.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// VideoList holds the videos attached to a movie.
type VideoList struct {
	ID      int     `json:"id"`
	Results []Video `json:"results"`
}

// Client is a stateless read-only helper over the third-party movie catalog.
// Every accessor degrades to an empty result on failure and logs the cause;
// callers never receive an error from a read.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
}

// NewClient creates a catalog client for the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		language:   "pt-BR",
	}
}

// WithBaseURL overrides the catalog base URL (tests, proxies).
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Trending returns the currently trending movies.
func (c *Client) Trending(ctx context.Context) MovieList {
	var out MovieList
	c.get(ctx, "/trending/movie/week", nil, &out)
	return out
}

// Upcoming returns upcoming theatrical releases.
func (c *Client) Upcoming(ctx context.Context) MovieList {
	var out MovieList
	c.get(ctx, "/movie/upcoming", nil, &out)
	return out
}

// TopRated returns the top rated movies.
func (c *Client) TopRated(ctx context.Context) MovieList {
	var out MovieList
	c.get(ctx, "/movie/top_rated", nil, &out)
	return out
}

// Search looks up movies matching the query.
func (c *Client) Search(ctx context.Context, query string) MovieList {
	var out MovieList
	c.get(ctx, "/search/movie", url.Values{"query": []string{query}}, &out)
	return out
}

// Details fetches one movie by its catalog id. A zero-ID movie means the
// lookup failed or the id is unknown.
func (c *Client) Details(ctx context.Context, id int) Movie {
	var out Movie
	c.get(ctx, "/movie/"+strconv.Itoa(id), nil, &out)
	return out
}

// Credits fetches the cast list for a movie.
func (c *Client) Credits(ctx context.Context, id int) Credits {
	var out Credits
	c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &out)
	return out
}

// Similar returns movies similar to the given one.
func (c *Client) Similar(ctx context.Context, id int) MovieList {
	var out MovieList
	c.get(ctx, fmt.Sprintf("/movie/%d/similar", id), nil, &out)
	return out
}

// Videos returns the trailers attached to a movie.
func (c *Client) Videos(ctx context.Context, id int) VideoList {
	var out VideoList
	c.get(ctx, fmt.Sprintf("/movie/%d/videos", id), nil, &out)
	return out
}

// get issues a GET with retry on 5xx responses (reads only, never writes)
// and decodes the body into v. Terminal failures are logged and leave v
// untouched, so the caller keeps its zero value.
func (c *Client) get(ctx context.Context, path string, params url.Values, v interface{}) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	reqURL := c.baseURL + path + "?" + params.Encode()

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				io.Copy(io.Discard, resp.Body)
				return fmt.Errorf("catalog returned status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				io.Copy(io.Discard, resp.Body)
				return retry.Unrecoverable(fmt.Errorf("catalog returned status %d", resp.StatusCode))
			}

			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[catalog] GET %s failed: %v", path, err)
	}
}
