package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cinefila/cinefila/app/models"
	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/usercontext"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
}

// asUser injects an authenticated user context the way the API token
// middleware does.
func asUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(usercontext.ContextKey, usercontext.UserContext{
			UserID:     id,
			Username:   "tester",
			IsLoggedIn: true,
		})
		return c.Next()
	}
}

func decodeErrorBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRequireSameUserRejectionAbortsHandler(t *testing.T) {
	tests := []struct {
		name       string
		authAs     uint
		target     string
		wantStatus int
		wantError  string
		wantRan    bool
	}{
		{"unauthenticated", 0, "/g/7", fiber.StatusUnauthorized, "unauthorized", false},
		{"other user", 5, "/g/7", fiber.StatusForbidden, "forbidden", false},
		{"same user", 7, "/g/7", fiber.StatusOK, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			ran := false
			handler := func(c *fiber.Ctx) error {
				if _, err := requireSameUser(c, "userId"); err != nil {
					return err
				}
				ran = true
				return c.SendStatus(fiber.StatusOK)
			}
			if tt.authAs != 0 {
				app.Get("/g/:userId", asUser(tt.authAs), handler)
			} else {
				app.Get("/g/:userId", handler)
			}

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantRan, ran)
			if tt.wantError != "" {
				body := decodeErrorBody(t, resp)
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

type fakeProfileRepo struct {
	profile      *models.Profile
	count        int64
	deleteCalled bool
}

func (f *fakeProfileRepo) Create(*models.Profile) error { return nil }
func (f *fakeProfileRepo) GetByID(id string) (*models.Profile, error) {
	if f.profile != nil && f.profile.ID == id {
		return f.profile, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeProfileRepo) GetByUserID(uint) ([]models.Profile, error) { return nil, nil }
func (f *fakeProfileRepo) Update(*models.Profile) error               { return nil }
func (f *fakeProfileRepo) Delete(string) error {
	f.deleteCalled = true
	return nil
}
func (f *fakeProfileRepo) CountByUserID(uint) (int64, error)              { return f.count, nil }
func (f *fakeProfileRepo) NameExists(uint, string, string) (bool, error)  { return false, nil }
func (f *fakeProfileRepo) ColorExists(uint, string, string) (bool, error) { return false, nil }
func (f *fakeProfileRepo) RemoveExcess(uint, int, bool) ([]models.Profile, error) {
	return nil, nil
}
func (f *fakeProfileRepo) Count() (int64, error) { return f.count, nil }

func TestHandleDeleteKeepsLastProfile(t *testing.T) {
	fake := &fakeProfileRepo{
		profile: &models.Profile{ID: "p1", UserID: 5, Name: "Ana", Color: models.ProfileColors[0]},
		count:   1,
	}
	restore := repository.SetRepositoriesForTesting(&repository.Repositories{Profile: fake})
	defer restore()

	app := newTestApp()
	pc := NewProfileController(nil)
	app.Delete("/profiles/:id", asUser(5), pc.HandleDelete)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/profiles/p1", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.False(t, fake.deleteCalled)
	body := decodeErrorBody(t, resp)
	assert.Equal(t, "Não é possível excluir o último perfil", body["message"])
}

type fakeCardRepo struct {
	listCalled bool
}

func (f *fakeCardRepo) Create(*models.Card) error            { return nil }
func (f *fakeCardRepo) GetByID(string) (*models.Card, error) { return nil, gorm.ErrRecordNotFound }
func (f *fakeCardRepo) GetByUserID(uint) ([]models.Card, error) {
	f.listCalled = true
	return nil, nil
}
func (f *fakeCardRepo) Update(*models.Card) error { return nil }
func (f *fakeCardRepo) Delete(string) error       { return nil }

func TestHandleCardListRejectsOtherUser(t *testing.T) {
	fake := &fakeCardRepo{}
	restore := repository.SetRepositoriesForTesting(&repository.Repositories{Card: fake})
	defer restore()

	app := newTestApp()
	app.Get("/cards/user/:userId", asUser(5), HandleCardList)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cards/user/7", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.False(t, fake.listCalled)
}
