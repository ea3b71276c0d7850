package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, e *env, email string) *domain.Principal {
	t.Helper()
	u := &domain.User{Email: email, Preferences: domain.DefaultPreferences(), CreatedAt: time.Now().UTC()}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return &domain.Principal{UserID: u.ID, Email: u.Email}
}

func TestUserHandler_Export(t *testing.T) {
	e := newEnv(t)
	caller := seedUser(t, e, "asha@example.com")
	h := NewUserHandler(e.users, discardLogger())

	rec := serve("GET /api/user/export", h.Export, request(t, http.MethodGet, "/api/user/export", nil, caller))

	require.Equal(t, http.StatusOK, rec.Code)
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment; filename=user_data_"), disposition)
	assert.Contains(t, rec.Body.String(), `"exportedBy":"`+caller.UserID+`"`)
}

func TestUserHandler_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	caller := seedUser(t, e, "asha@example.com")
	h := NewUserHandler(e.users, discardLogger())

	rec := serve("PUT /api/user/profile", h.UpdateProfile, request(t, http.MethodPut, "/api/user/profile",
		map[string]any{"name": "Asha R", "phone": "98400"}, caller))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[profileResponse](t, rec)
	assert.Equal(t, "Profile updated successfully", body.Message)
	assert.Equal(t, "Asha R", body.User.Name)
}

func TestUserHandler_ChangePasswordWeak(t *testing.T) {
	e := newEnv(t)
	caller := seedUser(t, e, "asha@example.com")
	h := NewUserHandler(e.users, discardLogger())

	rec := serve("PUT /api/user/password", h.ChangePassword, request(t, http.MethodPut, "/api/user/password",
		map[string]any{"currentPassword": "x", "newPassword": "short"}, caller))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorEnvelope](t, rec).Error.Fields, "newPassword")
}

func TestWishlistHandler(t *testing.T) {
	e := newEnv(t)
	caller := seedUser(t, e, "asha@example.com")
	h := NewWishlistHandler(e.wishlist, discardLogger())

	item := map[string]any{"productId": "P1", "name": "Pan", "price": 800}

	rec := serve("POST /api/user/wishlist", h.Add, request(t, http.MethodPost, "/api/user/wishlist", item, caller))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[wishlistResponse](t, rec).Wishlist, 1)

	rec = serve("POST /api/user/wishlist", h.Add, request(t, http.MethodPost, "/api/user/wishlist", item, caller))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Item already in wishlist", decode[errorEnvelope](t, rec).Error.Message)

	rec = serve("DELETE /api/user/wishlist/{productId}", h.Remove, request(t, http.MethodDelete, "/api/user/wishlist/P2", nil, caller))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve("DELETE /api/user/wishlist/{productId}", h.Remove, request(t, http.MethodDelete, "/api/user/wishlist/P1", nil, caller))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[wishlistResponse](t, rec).Wishlist)

	rec = serve("GET /api/user/wishlist", h.Get, request(t, http.MethodGet, "/api/user/wishlist", nil, caller))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"wishlist":[]}`, rec.Body.String())
}
