package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/balaguruva/internal/auth"
	"github.com/dukerupert/balaguruva/internal/cache"
	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/dukerupert/balaguruva/internal/memory"
	"github.com/dukerupert/balaguruva/internal/service"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// env wires real services over the in-memory store.
type env struct {
	store    *memory.Store
	products service.ProductService
	carts    service.CartService
	users    service.UserService
	wishlist service.WishlistService
	contacts service.ContactService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := discardLogger()
	st := memory.New()
	identity := service.NewIdentityResolver(st.Users)
	products := service.NewProductService(st.Products, cache.NewMemory(), time.Minute, logger)
	return &env{
		store:    st,
		products: products,
		carts:    service.NewCartService(st.Carts, products, identity, logger),
		users: service.NewUserService(st.Users, st.Orders, st.Carts, auth.NewHasher(4),
			auth.NewTokens("test-secret", time.Hour), nil, logger),
		wishlist: service.NewWishlistService(st.Users, logger),
		contacts: service.NewContactService(st.Contacts, logger),
	}
}

// request builds a JSON request, optionally as the given principal.
func request(t *testing.T, method, path string, body any, p *domain.Principal) *http.Request {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req = req.WithContext(domain.NewContextWithPrincipal(req.Context(), p))
	}
	return req
}

// serve routes req through a mux so path values are populated.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

type errorEnvelope struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}
