package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/stackit/backend/internal/logging"
	"github.com/stackit/backend/internal/models"
	"github.com/stackit/backend/internal/services"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// validator is implemented by every request body.
type validator interface {
	Validate() map[string]string
}

// decodeAndValidate reads the JSON body into req and runs its validation. On
// failure it writes the 400 response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, op string, req validator) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return false
	}
	if errs := req.Validate(); len(errs) > 0 {
		logging.FromContext(r.Context()).Debug("["+op+"] validation failed", "errors", errs)
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return false
	}
	return true
}

// queryInt returns the integer query parameter key, or def when it is absent
// or malformed.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// writeServiceError maps service sentinels to status codes. Anything else is
// logged and reported as fallback with a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error, fallback string) {
	status := http.StatusInternalServerError
	msg := fallback
	switch {
	case errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrAnswerNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTagNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		status, msg = http.StatusNotFound, capitalize(err.Error())
	case errors.Is(err, services.ErrNotQuestionAuthor):
		status, msg = http.StatusForbidden, "Only question author can accept answers"
	case errors.Is(err, services.ErrNotAuthorized):
		status, msg = http.StatusForbidden, "Not authorized"
	case errors.Is(err, services.ErrAccountDisabled):
		status, msg = http.StatusForbidden, "Account is deactivated"
	case errors.Is(err, services.ErrInvalidVote),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidTags),
		errors.Is(err, services.ErrRecaptcha):
		status, msg = http.StatusBadRequest, capitalize(err.Error())
	case errors.Is(err, services.ErrEmailExists),
		errors.Is(err, services.ErrUsernameExists),
		errors.Is(err, services.ErrTagExists):
		status, msg = http.StatusConflict, capitalize(err.Error())
	default:
		logging.FromContext(r.Context()).Error("["+op+"] service error", "error", err)
	}
	writeJSON(w, status, models.NewErrorResponse(msg))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// clientIP strips the port chi's RealIP middleware may leave on RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
