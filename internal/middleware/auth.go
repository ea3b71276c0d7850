package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/balaguruva/internal/auth"
	"github.com/dukerupert/balaguruva/internal/domain"
)

// TokenVerifier validates bearer tokens. *auth.Tokens satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate reads an optional "Authorization: Bearer <token>" header and
// stores the caller as a domain.Principal in the request context.
// Requests without the header continue anonymously; a header carrying an
// expired or invalid token is rejected so clients learn to log in again.
// Callers whose email is in adminEmails are marked as administrators.
func Authenticate(tokens TokenVerifier, adminEmails []string) func(http.Handler) http.Handler {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				respondWithError(w, r, err)
				return
			}

			_, admin := admins[strings.ToLower(claims.Email)]
			ctx := domain.NewContextWithPrincipal(r.Context(), &domain.Principal{
				UserID: claims.UserID,
				Email:  claims.Email,
				Admin:  admin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !domain.IsAuthenticated(r.Context()) {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := domain.PrincipalFromContext(r.Context())
		if p == nil {
			respondUnauthorized(w, r)
			return
		}
		if !p.Admin {
			respondForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header.
// An empty "Bearer " value counts as present so it is rejected.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}
