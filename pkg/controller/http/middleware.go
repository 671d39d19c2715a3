package http

import (
	"net/http"
	"strings"

	"github.com/docket-labs/docket/pkg/domain/model/auth"
	"github.com/docket-labs/docket/pkg/domain/types"
)

// Development-mode identity headers, honored only under WithNoAuthn
const (
	headerUserID = "X-Docket-User-Id"
	headerRole   = "X-Docket-Role"
	headerName   = "X-Docket-Name"
)

// authMiddleware resolves the caller's identity and stores it on the request
// context. With no-authn mode the identity comes from plain headers; otherwise
// a valid bearer token is required.
func (s *Server) authMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.noAuthn {
				id, err := identityFromHeaders(r)
				if err != nil {
					http.Error(w, err.Error(), http.StatusUnauthorized)
					return
				}
				ctx := auth.ContextWithIdentity(r.Context(), id)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if s.verifier == nil {
				http.Error(w, "Authentication not configured", http.StatusUnauthorized)
				return
			}

			id, err := s.verifier.Verify(bearerToken(r))
			if err != nil {
				http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header, falling back
// to the "token" query parameter for websocket clients that cannot set
// headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func identityFromHeaders(r *http.Request) (*auth.Identity, error) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		userID = r.URL.Query().Get("user_id")
	}
	if userID == "" {
		return nil, auth.ErrNoIdentity
	}

	roleStr := r.Header.Get(headerRole)
	if roleStr == "" {
		roleStr = r.URL.Query().Get("role")
	}
	role, err := types.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}

	return &auth.Identity{
		UserID: types.UserID(userID),
		Role:   role,
		Name:   r.Header.Get(headerName),
	}, nil
}
