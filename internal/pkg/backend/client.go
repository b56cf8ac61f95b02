package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/internal/pkg/billing"
)

// ErrNotFound is returned when the backend answers 404 for a resource.
var ErrNotFound = errors.New("backend: resource not found")

// FavoritesList is the remote favorites registry as served by the backend.
// MovieIDs is kept for older clients; Movies carries per-entry timestamps.
type FavoritesList struct {
	ID       uint             `json:"id"`
	UserID   uint             `json:"userId"`
	MovieIDs []string         `json:"movieIds"`
	Movies   []RemoteFavorite `json:"movies,omitempty"`
}

// RemoteFavorite is one favorites entry with its server-side add time.
type RemoteFavorite struct {
	MovieID string    `json:"movieId"`
	AddedAt time.Time `json:"addedAt"`
}

// LoginResponse carries the authenticated user and its API token.
type LoginResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// UserUpdate is the mutable subset of the user account.
type UserUpdate struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ProfileInput is the payload for creating or updating a viewing profile.
type ProfileInput struct {
	UserID uint   `json:"user_id,omitempty"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// CardInput is the payload for creating or updating a payment card.
type CardInput struct {
	UserID     uint   `json:"user_id,omitempty"`
	HolderName string `json:"holder_name"`
	Number     string `json:"number"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	Brand      string `json:"brand,omitempty"`
}

// Client talks to the CineFila backend REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithToken sets the API token sent on every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/user/register", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and returns the user plus a fresh API token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload := map[string]string{"email": email, "password": password}
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/user/login", payload, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// UpdateUser updates account fields.
func (c *Client) UpdateUser(ctx context.Context, id uint, update UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/user/update/%d", id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUser fetches one user account by id.
func (c *Client) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/user/find/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetFavorites fetches the user's remote favorites list. Returns ErrNotFound
// when no list exists yet.
func (c *Client) GetFavorites(ctx context.Context, userID uint) (*FavoritesList, error) {
	var list FavoritesList
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/favorites/user/%d", userID), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateFavorites creates an empty remote favorites list for the user.
func (c *Client) CreateFavorites(ctx context.Context, userID uint) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/favorites/%d", userID), nil, nil)
}

// AddFavorite records one movie id on the remote list.
func (c *Client) AddFavorite(ctx context.Context, userID uint, movieID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/favorites/add/%d/%s", userID, movieID), nil, nil)
}

// RemoveFavorite removes one movie id from the remote list.
func (c *Client) RemoveFavorite(ctx context.Context, userID uint, movieID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/favorites/remove/%d/%s", userID, movieID), nil, nil)
}

// ListProfiles fetches all viewing profiles of a user.
func (c *Client) ListProfiles(ctx context.Context, userID uint) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/profiles/user/%d", userID), nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// GetProfileLimits fetches the profile ceiling for the user's current plan.
func (c *Client) GetProfileLimits(ctx context.Context, userID uint) (*billing.ProfileLimits, error) {
	var limits billing.ProfileLimits
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/profiles/user/%d/limits", userID), nil, &limits); err != nil {
		return nil, err
	}
	return &limits, nil
}

// CreateProfile creates a viewing profile.
func (c *Client) CreateProfile(ctx context.Context, input ProfileInput) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPost, "/profiles", input, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile renames or recolors a viewing profile.
func (c *Client) UpdateProfile(ctx context.Context, id string, input ProfileInput) (*models.Profile, error) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPut, "/profiles/"+id, input, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeleteProfile deletes a viewing profile.
func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/profiles/"+id, nil, nil)
}

// EnforceProfileLimits runs a server-side enforcement pass and returns the
// removed profiles plus the remaining roster.
func (c *Client) EnforceProfileLimits(ctx context.Context, userID uint) (*billing.EnforcementResult, error) {
	var result billing.EnforcementResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/profiles/user/%d/enforce-limits", userID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateSubscription subscribes the user to a plan.
func (c *Client) CreateSubscription(ctx context.Context, userID uint, plan string) (*billing.SubscriptionChange, error) {
	payload := map[string]string{"plan": plan}
	var change billing.SubscriptionChange
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/subscriptions/user/%d", userID), payload, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// UpdateSubscription moves the user to a different plan.
func (c *Client) UpdateSubscription(ctx context.Context, userID uint, plan string) (*billing.SubscriptionChange, error) {
	payload := map[string]string{"plan": plan}
	var change billing.SubscriptionChange
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/subscriptions/user/%d", userID), payload, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// CancelSubscription cancels the user's subscription.
func (c *Client) CancelSubscription(ctx context.Context, userID uint) (*billing.SubscriptionChange, error) {
	var change billing.SubscriptionChange
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/subscriptions/user/%d", userID), nil, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// GetSubscription fetches the user's subscription.
func (c *Client) GetSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/subscriptions/user/%d", userID), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateCard registers a payment card.
func (c *Client) CreateCard(ctx context.Context, input CardInput) (*models.Card, error) {
	var card models.Card
	if err := c.do(ctx, http.MethodPost, "/cards", input, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard updates a payment card.
func (c *Client) UpdateCard(ctx context.Context, id string, input CardInput) (*models.Card, error) {
	var card models.Card
	if err := c.do(ctx, http.MethodPut, "/cards/"+id, input, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes a payment card.
func (c *Client) DeleteCard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/cards/"+id, nil, nil)
}

// ListCards fetches all cards of a user.
func (c *Client) ListCards(ctx context.Context, userID uint) ([]models.Card, error) {
	var cards []models.Card
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/cards/user/%d", userID), nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// do issues one request and decodes the JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-API-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
