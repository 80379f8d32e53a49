package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type authContextKey string

// SessionContextKey carries the authenticated session in the request
// context.
const SessionContextKey authContextKey = "session"

// Session is the authenticated caller extracted from JWT claims.
type Session struct {
	UserID   string
	Username string
	Role     string
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool { return s.Role == "admin" }

// Claims are the token claims issued at login.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IssueToken signs a session token for the user.
func IssueToken(secret, userID, username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
		Role:     role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Auth validates the bearer token and places the session in context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			header := r.Header.Get("Authorization")
			if header == "" {
				writeProblem(w, ctx, http.StatusUnauthorized,
					"/errors/unauthorized", "Unauthorized", "Missing authorization header")
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeProblem(w, ctx, http.StatusUnauthorized,
					"/errors/unauthorized", "Unauthorized", "Invalid authorization header format")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeProblem(w, ctx, http.StatusUnauthorized,
					"/errors/unauthorized", "Unauthorized", "Invalid or expired token")
				return
			}

			session := &Session{
				UserID:   claims.Subject,
				Username: claims.Username,
				Role:     claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(ctx, SessionContextKey, session)))
		})
	}
}

// GetSession extracts the session from the request context, or nil
// when the request is unauthenticated.
func GetSession(ctx context.Context) *Session {
	s, _ := ctx.Value(SessionContextKey).(*Session)
	return s
}

// RequireAdmin rejects non-admin sessions. Place after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := GetSession(r.Context())
		if session == nil {
			writeProblem(w, r.Context(), http.StatusUnauthorized,
				"/errors/unauthorized", "Unauthorized", "Authentication required")
			return
		}
		if !session.IsAdmin() {
			writeProblem(w, r.Context(), http.StatusForbidden,
				"/errors/forbidden", "Forbidden", "Administrator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
