package auth

import (
	"net/http"
	"strings"

	"coachlink/infrastructure"
	"coachlink/pkg/jwt"
)

// Middleware authenticates requests with an access token taken from the
// accessToken cookie or an Authorization bearer header. Verified claims are
// attached to the request context.
func Middleware(tokens *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				infrastructure.WriteError(w, infrastructure.ErrUnauthorized)
				return
			}

			claims, err := tokens.VerifyAccessToken(token)
			if err != nil {
				infrastructure.WriteError(w, infrastructure.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.NewContext(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
