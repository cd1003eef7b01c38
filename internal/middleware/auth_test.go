package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackit/backend/internal/metrics"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validToken(t *testing.T, userID string) string {
	return signToken(t, testSecret, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
}

// echoUser writes the user id found in the request context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetUserID(r.Context())))
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	return resp.Error
}

func TestJWTAuth(t *testing.T) {
	expired := signToken(t, testSecret, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()})
	wrongKey := signToken(t, "other", jwt.MapClaims{"user_id": "u1"})
	noUser := signToken(t, testSecret, jwt.MapClaims{"sub": "u1"})

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{name: "bearer header", header: "Bearer " + validToken(t, "u1"), wantStatus: http.StatusOK, wantBody: "u1"},
		{name: "query token", query: "?token=" + validToken(t, "u2"), wantStatus: http.StatusOK, wantBody: "u2"},
		{name: "missing", wantStatus: http.StatusUnauthorized, wantError: "Authorization header required"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantError: "Invalid authorization header format"},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantError: "Invalid or expired token"},
		{name: "wrong key", header: "Bearer " + wrongKey, wantStatus: http.StatusUnauthorized, wantError: "Invalid or expired token"},
		{name: "no user_id claim", header: "Bearer " + noUser, wantStatus: http.StatusUnauthorized, wantError: "Invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			JWTAuth(testSecret)(echoUser).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec))
			} else {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestOptionalJWTAuth(t *testing.T) {
	handler := OptionalJWTAuth(testSecret)(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+validToken(t, "u1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "u1", rec.Body.String())

	for _, header := range []string{"", "Bearer garbage", "Token x"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	}
}

type stubUsers map[string]*models.User

func (s stubUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	u, ok := s[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return u, nil
}

func TestActiveUser(t *testing.T) {
	users := stubUsers{
		"active":   {ID: "active", IsActive: true},
		"disabled": {ID: "disabled", IsActive: false},
	}
	handler := ActiveUser(users)(echoUser)

	tests := []struct {
		userID     string
		wantStatus int
	}{
		{"active", http.StatusOK},
		{"disabled", http.StatusForbidden},
		{"ghost", http.StatusUnauthorized},
		{"broken", http.StatusInternalServerError},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.userID != "" {
			req = req.WithContext(WithUserID(req.Context(), tt.userID))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tt.wantStatus, rec.Code, "user %q", tt.userID)
	}
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.CollectAndCount(metrics.HTTPRequestDuration)
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questions/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}
	// Both requests land in one series.
	assert.Equal(t, before+1, testutil.CollectAndCount(metrics.HTTPRequestDuration))
}
