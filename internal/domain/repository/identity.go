package repository

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// LoginMethod es la variante de origen de credencial.
type LoginMethod string

const (
	MethodPassword LoginMethod = "password"
	MethodGoogle   LoginMethod = "google"
	MethodFacebook LoginMethod = "facebook"
)

// Valid indica si el método es uno de los soportados.
func (m LoginMethod) Valid() bool {
	switch m {
	case MethodPassword, MethodGoogle, MethodFacebook:
		return true
	}
	return false
}

// ProviderLink vincula una identidad con su cuenta en un provider OAuth.
type ProviderLink struct {
	Provider       string
	ProviderUserID string
	LinkedAt       time.Time
}

// PendingOTP es el único OTP vivo de una identidad. Solo se guarda el hash.
type PendingOTP struct {
	CodeHash  string
	ExpiresAt time.Time
}

// LoginEvent es una entrada del historial de logins.
type LoginEvent struct {
	Method     LoginMethod
	OccurredAt time.Time
}

// Identity es el registro canónico de una persona, con email como clave única.
type Identity struct {
	ID               string
	DisplayName      string
	Email            string
	PasswordHash     *string
	ProviderLinks    []ProviderLink
	EmailVerified    bool
	PhoneNumber      string
	TwoFactorEnabled bool

	PendingOTP *PendingOTP
	// Hash SHA-256 del token de verificación vigente (nil si no hay uno pendiente).
	PendingVerificationHash *string

	// Version se incrementa en cada escritura; Save la usa para detectar lost updates.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword indica si la identidad tiene credencial local.
func (i *Identity) HasPassword() bool {
	return i.PasswordHash != nil && *i.PasswordHash != ""
}

// HasProvider indica si el provider ya está vinculado.
func (i *Identity) HasProvider(provider string) bool {
	for _, l := range i.ProviderLinks {
		if l.Provider == provider {
			return true
		}
	}
	return false
}

// Validate chequea los invariantes que deben cumplirse antes de persistir.
func (i *Identity) Validate() error {
	if NormalizeEmail(i.Email) == "" {
		return fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if i.TwoFactorEnabled && strings.TrimSpace(i.PhoneNumber) == "" {
		return fmt.Errorf("%w: two-factor requires phone number", ErrInvalidInput)
	}
	return nil
}

// NormalizeEmail es la forma canónica usada en lookups y en el índice único.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateIdentityInput contiene los datos de alta de una identidad con password.
type CreateIdentityInput struct {
	DisplayName   string
	Email         string
	PasswordHash  string
	EmailVerified bool
}

// ProviderProfileInput es la aserción de un provider OAuth ya autenticado.
type ProviderProfileInput struct {
	Provider       LoginMethod
	ProviderUserID string
	Email          string
	DisplayName    string
	At             time.Time
}

// IdentityRepository es el credential store.
// Todas las búsquedas por email se normalizan con NormalizeEmail.
type IdentityRepository interface {
	// GetByEmail retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Identity, error)

	// Create da de alta una identidad. ErrConflict si el email ya existe.
	Create(ctx context.Context, in CreateIdentityInput) (*Identity, error)

	// Save persiste DisplayName, PhoneNumber, TwoFactorEnabled, EmailVerified y
	// PasswordHash si identity.Version coincide con la versión almacenada.
	// Incrementa Version. ErrConflict si la versión quedó obsoleta.
	Save(ctx context.Context, identity *Identity) error

	// AdoptPassword setea el hash solo si la identidad no tiene password.
	// Retorna ErrConflict si ya tenía uno.
	AdoptPassword(ctx context.Context, id, passwordHash, displayName string) (*Identity, error)

	// SetPassword reemplaza el hash; markVerified además marca el email verificado.
	SetPassword(ctx context.Context, id, passwordHash string, markVerified bool) error

	// UpsertFromProvider resuelve la identidad para un login OAuth en una sola
	// transacción: busca por (provider, providerUserID), luego por email (y
	// vincula), y si no existe crea una identidad con EmailVerified=true.
	// Siempre agrega el evento al historial. created=true si se creó.
	UpsertFromProvider(ctx context.Context, in ProviderProfileInput) (identity *Identity, created bool, err error)

	// AppendLoginHistory agrega un evento al historial.
	AppendLoginHistory(ctx context.Context, id string, method LoginMethod, at time.Time) error

	// LoginHistory lista los eventos más recientes primero.
	LoginHistory(ctx context.Context, id string, limit int) ([]LoginEvent, error)

	// SetPendingOTP reemplaza cualquier OTP previo.
	SetPendingOTP(ctx context.Context, id string, otp PendingOTP) error

	// ConsumeOTP compara y limpia atómicamente: true solo si el hash coincide y
	// now < ExpiresAt. Concurrentemente, a lo sumo un llamador obtiene true.
	ConsumeOTP(ctx context.Context, id, codeHash string, now time.Time) (bool, error)

	// SetPendingVerification registra el hash del token de verificación vigente.
	SetPendingVerification(ctx context.Context, id, tokenHash string) error

	// ConfirmEmail marca EmailVerified y limpia el pendiente solo si tokenHash
	// coincide con el vigente. Retorna false si no coincide.
	ConfirmEmail(ctx context.Context, id, tokenHash string) (bool, error)
}
