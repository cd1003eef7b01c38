package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecaptchaVerifier(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"secret":   r.PostForm.Get("secret"),
			"response": r.PostForm.Get("response"),
			"remoteip": r.PostForm.Get("remoteip"),
		}
		if r.PostForm.Get("response") == "good" {
			_, _ = w.Write([]byte(`{"success":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	}))
	defer srv.Close()

	v := NewRecaptchaVerifier("s3cret")
	v.Endpoint = srv.URL

	require.NoError(t, v.Verify(context.Background(), "good", "203.0.113.9"))
	assert.Equal(t, map[string]string{"secret": "s3cret", "response": "good", "remoteip": "203.0.113.9"}, gotForm)

	ok, reason, err := v.VerifyV2(context.Background(), "bad", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "invalid-input-response", reason)
	assert.ErrorIs(t, v.Verify(context.Background(), "bad", ""), ErrRecaptcha)

	assert.ErrorIs(t, v.Verify(context.Background(), "  ", ""), ErrRecaptcha)
}

func TestRecaptchaVerifier_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	v := NewRecaptchaVerifier("s3cret")
	v.Endpoint = srv.URL
	assert.ErrorIs(t, v.Verify(context.Background(), "tok", ""), ErrRecaptcha)
}

func TestSendGridMailer(t *testing.T) {
	var got sendGridMailSendRequest
	var auth string
	status := http.StatusAccepted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(status)
	}))
	defer srv.Close()

	m := NewSendGridMailer(" key ", "noreply@stackit.example")
	m.Endpoint = srv.URL

	require.NoError(t, m.SendNotificationEmail(context.Background(), "dev@example.com", "New Answer", "body"))
	assert.Equal(t, "Bearer key", auth)
	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "dev@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "New Answer", got.Personalizations[0].Subject)
	assert.Equal(t, sendGridEmailAddress{Email: "noreply@stackit.example", Name: "StackIt"}, got.From)
	assert.Equal(t, "body", got.Content[0].Value)

	status = http.StatusUnauthorized
	assert.Error(t, m.SendNotificationEmail(context.Background(), "dev@example.com", "s", "b"))
	assert.Error(t, m.SendNotificationEmail(context.Background(), " ", "s", "b"))

	var unset *SendGridMailer
	assert.Error(t, unset.SendNotificationEmail(context.Background(), "dev@example.com", "s", "b"))
}
