// Package jwt emite y verifica las credenciales de sesión (JWT EdDSA).
package jwt

import (
	"context"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Estados de step-up que viajan en el claim "stp".
const (
	StepUpPending  = "pending"
	StepUpVerified = "verified"
)

// Propósitos (claim "pur"). Los tokens de sesión no llevan propósito.
const (
	PurposeEmailVerify = "email_verify"
)

var (
	// ErrUnauthorized es el único error de verificación: no distingue firma,
	// expiración, emisor o revocación.
	ErrUnauthorized = errors.New("jwt: unauthorized")

	// ErrRevocationUnavailable: no se pudo consultar el denylist.
	ErrRevocationUnavailable = errors.New("jwt: revocation store unavailable")
)

// Subject es la identidad que se codifica en el token.
type Subject struct {
	ID    string
	Email string
}

// MintOptions agrega claims opcionales.
type MintOptions struct {
	StepUp  string
	AMR     []string
	Purpose string
}

// Token es el resultado de Mint.
type Token struct {
	Value     string
	JTI       string
	ExpiresAt time.Time
}

// Claims es la vista verificada de un token.
type Claims struct {
	Subject   string
	Email     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
	StepUp    string
	AMR       []string
	Purpose   string
}

// StepUpPending indica que el token solo sirve para completar el OTP.
func (c *Claims) StepUpPending() bool { return c.StepUp == StepUpPending }

type wireClaims struct {
	jwtv5.RegisteredClaims
	Email   string   `json:"email"`
	StepUp  string   `json:"stp,omitempty"`
	AMR     []string `json:"amr,omitempty"`
	Purpose string   `json:"pur,omitempty"`
}

// RevocationStore es el denylist de jti consultado en cada Verify.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Issuer firma con la clave activa del KeySet.
type Issuer struct {
	Iss         string
	Keys        *KeySet
	AccessTTL   time.Duration
	Revocations RevocationStore // nil: sin revocación

	now func() time.Time
}

func NewIssuer(iss string, keys *KeySet, accessTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &Issuer{Iss: iss, Keys: keys, AccessTTL: accessTTL, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Mint firma un token para sub. ttl <= 0 usa AccessTTL.
func (i *Issuer) Mint(sub Subject, ttl time.Duration, opts MintOptions) (Token, error) {
	if sub.ID == "" {
		return Token{}, errors.New("jwt: empty subject")
	}
	if ttl <= 0 {
		ttl = i.AccessTTL
	}
	now := i.now().UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	jti := uuid.NewString()

	claims := wireClaims{
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   sub.ID,
			ID:        jti,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
		Email:   sub.Email,
		StepUp:  opts.StepUp,
		AMR:     opts.AMR,
		Purpose: opts.Purpose,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.ActiveKID()
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Keys.priv)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, JTI: jti, ExpiresAt: exp}, nil
}

func (i *Issuer) keyfunc(t *jwtv5.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	pub, ok := i.Keys.PublicKey(kid)
	if !ok {
		return nil, errors.New("unknown kid")
	}
	return pub, nil
}

func (i *Issuer) parse(raw string) (*Claims, error) {
	var wc wireClaims
	_, err := jwtv5.ParseWithClaims(raw, &wc, i.keyfunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodEdDSA.Alg()}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil || wc.Subject == "" || wc.ID == "" || wc.IssuedAt == nil {
		return nil, ErrUnauthorized
	}
	return &Claims{
		Subject:   wc.Subject,
		Email:     wc.Email,
		JTI:       wc.ID,
		IssuedAt:  wc.IssuedAt.Time,
		ExpiresAt: wc.ExpiresAt.Time,
		StepUp:    wc.StepUp,
		AMR:       wc.AMR,
		Purpose:   wc.Purpose,
	}, nil
}

// Verify valida un token de sesión: firma, iss, exp, ausencia de propósito y denylist.
func (i *Issuer) Verify(ctx context.Context, raw string) (*Claims, error) {
	c, err := i.parse(raw)
	if err != nil {
		return nil, err
	}
	if c.Purpose != "" {
		return nil, ErrUnauthorized
	}
	if i.Revocations != nil {
		revoked, err := i.Revocations.IsRevoked(ctx, c.JTI)
		if err != nil {
			return nil, errors.Join(ErrRevocationUnavailable, err)
		}
		if revoked {
			return nil, ErrUnauthorized
		}
	}
	return c, nil
}

// VerifyPurpose valida un token de un solo propósito (ej: verificación de email).
func (i *Issuer) VerifyPurpose(raw, purpose string) (*Claims, error) {
	c, err := i.parse(raw)
	if err != nil {
		return nil, err
	}
	if purpose == "" || c.Purpose != purpose {
		return nil, ErrUnauthorized
	}
	return c, nil
}

// Revoke agrega el jti al denylist hasta su expiración natural.
func (i *Issuer) Revoke(ctx context.Context, c *Claims) error {
	if i.Revocations == nil || c == nil || c.JTI == "" {
		return nil
	}
	if !i.now().Before(c.ExpiresAt) {
		return nil
	}
	return i.Revocations.Revoke(ctx, c.JTI, c.ExpiresAt)
}
