package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/idgate/internal/security/token"
)

// Kind identifica el tipo de artefacto efímero; es parte de la key.
type Kind string

const (
	KindExchange   Kind = "exchange"
	KindReset      Kind = "reset"
	KindOAuthState Kind = "oauth_state"
)

// Payload es la forma común de todos los artefactos.
type Payload struct {
	IdentityID string            `json:"identity_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	IssuedAt   time.Time         `json:"issued_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Expired indica si el artefacto ya no es válido en now.
func (p *Payload) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// ArtifactStore guarda artefactos single-use sobre un Client.
// La key en claro nunca se persiste: se guarda "<kind>:<sha256(key)>".
type ArtifactStore struct {
	c   Client
	now func() time.Time
}

// NewArtifactStore envuelve c. now puede ser nil (time.Now).
func NewArtifactStore(c Client, now func() time.Time) *ArtifactStore {
	if now == nil {
		now = time.Now
	}
	return &ArtifactStore{c: c, now: now}
}

func storageKey(kind Kind, key string) string {
	return string(kind) + ":" + token.SHA256Hex(key)
}

// Put guarda p bajo key con el ttl dado. IssuedAt/ExpiresAt se completan aquí.
func (s *ArtifactStore) Put(ctx context.Context, kind Kind, key string, p Payload, ttl time.Duration) error {
	now := s.now().UTC()
	p.IssuedAt = now
	p.ExpiresAt = now.Add(ttl)
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache: encode %s artifact: %w", kind, err)
	}
	return s.c.Set(ctx, storageKey(kind, key), b, ttl)
}

// Consume obtiene y elimina el artefacto. Un miss o un artefacto vencido
// devuelven ErrNotFound, sin distinción.
func (s *ArtifactStore) Consume(ctx context.Context, kind Kind, key string) (*Payload, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	b, err := s.c.Consume(ctx, storageKey(kind, key))
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("cache: decode %s artifact: %w", kind, err)
	}
	if p.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &p, nil
}
