package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

type contextKey string

const UserIDKey contextKey = "userID"

var (
	errMissingToken = errors.New("authorization header required")
	errBadHeader    = errors.New("invalid authorization header format")
)

// tokenFromRequest takes the bearer token from the Authorization header, or
// from the token query parameter for websocket upgrades where browsers cannot
// set headers.
func tokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", errBadHeader
		}
		return parts[1], nil
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, nil
	}
	return "", errMissingToken
}

// ParseUserID verifies an HS256 token and returns its user_id claim.
func ParseUserID(jwtSecret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("invalid user ID in token")
	}
	return userID, nil
}

// JWTAuth middleware validates JWT tokens
func JWTAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := tokenFromRequest(r)
			if errors.Is(err, errMissingToken) {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}

			userID, err := ParseUserID(jwtSecret, tokenString)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWTAuth attaches the caller's id when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalJWTAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := tokenFromRequest(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := ParseUserID(jwtSecret, tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserLookup loads the account behind a token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ActiveUser rejects authenticated callers whose account no longer exists or
// was deactivated. It must run after JWTAuth.
func ActiveUser(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}
			u, err := users.GetByID(r.Context(), userID)
			if errors.Is(err, services.ErrUserNotFound) {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("User not found"))
				return
			}
			if err != nil {
				slog.Error("[Auth] load user failed", "user_id", userID, "error", err)
				writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Internal server error"))
				return
			}
			if !u.IsActive {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Account is deactivated"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// WithUserID returns ctx carrying userID, as JWTAuth would.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
