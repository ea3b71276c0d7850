package api

import (
	"net/http"
	"testing"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_SignupAndLogin(t *testing.T) {
	e := newEnv(t)
	h := NewAuthHandler(e.users, discardLogger())

	signup := map[string]any{"email": "Asha@Example.com", "password": "correct-horse", "name": "Asha"}
	rec := serve("POST /signup", h.Signup, request(t, http.MethodPost, "/signup", signup, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result := decode[service.AuthResult](t, rec)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "asha@example.com", result.User.Email)
	assert.NotContains(t, rec.Body.String(), "correct-horse")

	rec = serve("POST /signup", h.Signup, request(t, http.MethodPost, "/signup", signup, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"good password", map[string]any{"email": "asha@example.com", "password": "correct-horse"}, http.StatusOK},
		{"bad password", map[string]any{"email": "asha@example.com", "password": "wrong-horse"}, http.StatusBadRequest},
		{"unknown user", map[string]any{"email": "ravi@example.com", "password": "whatever1"}, http.StatusBadRequest},
		{"no credential", map[string]any{"email": "asha@example.com"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve("POST /login", h.Login, request(t, http.MethodPost, "/login", tt.body, nil))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAuthHandler_Status(t *testing.T) {
	h := NewAuthHandler(nil, discardLogger())

	rec := serve("GET /api/auth/status", h.Status, request(t, http.MethodGet, "/api/auth/status", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve("GET /api/auth/status", h.Status, request(t, http.MethodGet, "/api/auth/status", nil,
		&domain.Principal{UserID: "u1", Email: "asha@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[authStatusResponse](t, rec)
	assert.True(t, body.Authenticated)
	assert.Equal(t, "u1", body.User.ID)
	assert.Equal(t, "asha@example.com", body.User.Email)
}
