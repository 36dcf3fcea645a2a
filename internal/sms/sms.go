// Package sms entrega mensajes de texto (OTP) a números de teléfono.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

// Sender entrega body a `to`. Debe respetar la cancelación de ctx.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// WebhookSender hace POST {"to","body"} a un gateway HTTP (Twilio Functions,
// un relay propio, etc.) con Authorization: Bearer <token>.
type WebhookSender struct {
	URL   string
	Token string
	From  string

	client *http.Client
}

func NewWebhookSender(url, token, from string, timeout time.Duration) *WebhookSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSender{URL: url, Token: token, From: from, client: &http.Client{Timeout: timeout}}
}

type webhookPayload struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

func (s *WebhookSender) Send(ctx context.Context, to, body string) error {
	b, err := json.Marshal(webhookPayload{To: to, From: s.From, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms webhook: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

// LogSender no entrega: loguea (sin el cuerpo) y guarda el último mensaje por número.
type LogSender struct {
	mu   sync.Mutex
	last map[string]string
}

func NewLogSender() *LogSender {
	return &LogSender{last: make(map[string]string)}
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	logger.From(ctx).Info("sms (log driver)", logger.Component("sms.log"), logger.Phone(to))
	s.mu.Lock()
	s.last[to] = body
	s.mu.Unlock()
	return nil
}

// Last devuelve el último cuerpo enviado a `to`.
func (s *LogSender) Last(to string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.last[to]
	return b, ok
}
