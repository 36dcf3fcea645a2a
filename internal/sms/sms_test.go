package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSender(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "secret", "idgate", time.Second)
	require.NoError(t, s.Send(context.Background(), "+15550001111", "code 123456"))
	require.Equal(t, "+15550001111", got.To)
	require.Equal(t, "code 123456", got.Body)
}

func TestWebhookSenderReportsGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL, "", "", time.Second).Send(context.Background(), "+1", "x")
	require.ErrorContains(t, err, "429")
}

func TestLogSenderKeepsLast(t *testing.T) {
	s := NewLogSender()
	require.NoError(t, s.Send(context.Background(), "+1", "a"))
	require.NoError(t, s.Send(context.Background(), "+1", "b"))
	body, ok := s.Last("+1")
	require.True(t, ok)
	require.Equal(t, "b", body)
}
