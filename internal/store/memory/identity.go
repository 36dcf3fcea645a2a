// Package memory implementa el credential store en memoria del proceso.
//
// Sirve para dev y tests: no es compartido entre instancias. En producción se
// usa store/pg.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/idgate/internal/domain/repository"
)

type providerKey struct {
	provider string
	subject  string
}

// Store guarda identidades detrás de un único mutex. Nunca se hace I/O con el lock tomado.
type Store struct {
	mu         sync.Mutex
	byID       map[string]*repository.Identity
	byEmail    map[string]string
	byProvider map[providerKey]string
	history    map[string][]repository.LoginEvent
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		byID:       make(map[string]*repository.Identity),
		byEmail:    make(map[string]string),
		byProvider: make(map[providerKey]string),
		history:    make(map[string][]repository.LoginEvent),
	}
}

var _ repository.IdentityRepository = (*Store)(nil)

// clone evita que los llamadores muten el estado interno.
func clone(it *repository.Identity) *repository.Identity {
	cp := *it
	if it.PasswordHash != nil {
		h := *it.PasswordHash
		cp.PasswordHash = &h
	}
	if it.PendingVerificationHash != nil {
		h := *it.PendingVerificationHash
		cp.PendingVerificationHash = &h
	}
	if it.PendingOTP != nil {
		otp := *it.PendingOTP
		cp.PendingOTP = &otp
	}
	cp.ProviderLinks = append([]repository.ProviderLink(nil), it.ProviderLinks...)
	return &cp
}

func (s *Store) GetByEmail(_ context.Context, email string) (*repository.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[repository.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *Store) GetByID(_ context.Context, id string) (*repository.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(it), nil
}

func (s *Store) Create(_ context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	email := repository.NormalizeEmail(in.Email)
	if email == "" {
		return nil, repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return nil, repository.ErrConflict
	}
	return clone(s.insertLocked(in.DisplayName, email, in.PasswordHash, in.EmailVerified)), nil
}

func (s *Store) insertLocked(name, email, passwordHash string, verified bool) *repository.Identity {
	now := time.Now().UTC()
	it := &repository.Identity{
		ID:            uuid.NewString(),
		DisplayName:   name,
		Email:         email,
		EmailVerified: verified,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if passwordHash != "" {
		it.PasswordHash = &passwordHash
	}
	s.byID[it.ID] = it
	s.byEmail[email] = it.ID
	return it
}

// touchLocked incrementa la versión de las columnas de perfil.
func touchLocked(it *repository.Identity) {
	it.Version++
	it.UpdatedAt = time.Now().UTC()
}

func (s *Store) Save(_ context.Context, in *repository.Identity) error {
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[in.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if it.Version != in.Version {
		return repository.ErrConflict
	}
	it.DisplayName = in.DisplayName
	it.PhoneNumber = in.PhoneNumber
	it.TwoFactorEnabled = in.TwoFactorEnabled
	it.EmailVerified = in.EmailVerified
	it.PasswordHash = nil
	if in.PasswordHash != nil {
		h := *in.PasswordHash
		it.PasswordHash = &h
	}
	touchLocked(it)
	in.Version = it.Version
	in.UpdatedAt = it.UpdatedAt
	return nil
}

func (s *Store) AdoptPassword(_ context.Context, id, passwordHash, displayName string) (*repository.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if it.HasPassword() {
		return nil, repository.ErrConflict
	}
	it.PasswordHash = &passwordHash
	if it.DisplayName == "" {
		it.DisplayName = displayName
	}
	touchLocked(it)
	return clone(it), nil
}

func (s *Store) SetPassword(_ context.Context, id, passwordHash string, markVerified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.PasswordHash = &passwordHash
	it.EmailVerified = it.EmailVerified || markVerified
	touchLocked(it)
	return nil
}

func (s *Store) UpsertFromProvider(_ context.Context, in repository.ProviderProfileInput) (*repository.Identity, bool, error) {
	email := repository.NormalizeEmail(in.Email)
	if !in.Provider.Valid() || in.Provider == repository.MethodPassword || in.ProviderUserID == "" || email == "" {
		return nil, false, repository.ErrInvalidInput
	}
	if in.At.IsZero() {
		in.At = time.Now()
	}
	key := providerKey{provider: string(in.Provider), subject: in.ProviderUserID}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := false
	it, linked := s.byID[s.byProvider[key]]
	if !linked {
		if id, ok := s.byEmail[email]; ok {
			it = s.byID[id]
			it.EmailVerified = true
			touchLocked(it)
		} else {
			it = s.insertLocked(in.DisplayName, email, "", true)
			created = true
		}
		if !it.HasProvider(key.provider) {
			it.ProviderLinks = append(it.ProviderLinks, repository.ProviderLink{
				Provider:       key.provider,
				ProviderUserID: in.ProviderUserID,
				LinkedAt:       in.At,
			})
			s.byProvider[key] = it.ID
		}
	}
	s.history[it.ID] = append(s.history[it.ID], repository.LoginEvent{Method: in.Provider, OccurredAt: in.At})
	return clone(it), created, nil
}

func (s *Store) AppendLoginHistory(_ context.Context, id string, method repository.LoginMethod, at time.Time) error {
	if !method.Valid() {
		return repository.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	s.history[id] = append(s.history[id], repository.LoginEvent{Method: method, OccurredAt: at})
	return nil
}

func (s *Store) LoginHistory(_ context.Context, id string, limit int) ([]repository.LoginEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.Lock()
	events := append([]repository.LoginEvent(nil), s.history[id]...)
	s.mu.Unlock()

	sort.SliceStable(events, func(i, j int) bool { return events[i].OccurredAt.After(events[j].OccurredAt) })
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *Store) SetPendingOTP(_ context.Context, id string, otp repository.PendingOTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.PendingOTP = &otp
	return nil
}

func (s *Store) ConsumeOTP(_ context.Context, id, codeHash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok || it.PendingOTP == nil {
		return false, nil
	}
	if it.PendingOTP.CodeHash != codeHash || !now.Before(it.PendingOTP.ExpiresAt) {
		return false, nil
	}
	it.PendingOTP = nil
	return true, nil
}

func (s *Store) SetPendingVerification(_ context.Context, id, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	it.PendingVerificationHash = &tokenHash
	return nil
}

func (s *Store) ConfirmEmail(_ context.Context, id, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok || it.PendingVerificationHash == nil || *it.PendingVerificationHash != tokenHash {
		return false, nil
	}
	it.EmailVerified = true
	it.PendingVerificationHash = nil
	touchLocked(it)
	return true, nil
}
