// Package oauth define el contrato común de los providers OAuth (Google, Facebook).
//
// Cada provider resuelve el "redirect dance" (URL de autorización, canje del
// code, lectura del perfil) y devuelve una aserción ya autenticada.
package oauth

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/oauth2"
)

var (
	// ErrEmailMissing: el provider no compartió un email; no hay forma de unificar la identidad.
	ErrEmailMissing = errors.New("oauth: provider did not return an email")
	// ErrEmailNotVerified: el provider reporta el email como no verificado.
	ErrEmailNotVerified = errors.New("oauth: provider email not verified")
)

// Profile es lo que el provider afirma del usuario.
type Profile struct {
	ProviderUserID string
	Email          string
	DisplayName    string
}

// Provider es un origen OAuth 2.0 con PKCE.
type Provider interface {
	Name() string
	// AuthCodeURL arma la URL de autorización; verifier es el PKCE code_verifier.
	AuthCodeURL(state, verifier string) string
	// Exchange canjea el code y devuelve el perfil verificado.
	Exchange(ctx context.Context, code, verifier string) (*Profile, error)
}

// Registry indexa providers por nombre.
type Registry struct {
	byName map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider)}
	for _, p := range providers {
		if p != nil {
			r.byName[p.Name()] = p
		}
	}
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Names lista los providers habilitados, ordenados.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NewVerifier genera un PKCE code_verifier.
func NewVerifier() string { return oauth2.GenerateVerifier() }

// PKCEAuthOptions son las opciones de AuthCodeURL para un verifier dado.
func PKCEAuthOptions(verifier string) []oauth2.AuthCodeOption {
	if verifier == "" {
		return nil
	}
	return []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}
}

// PKCEExchangeOptions son las opciones de Exchange para un verifier dado.
func PKCEExchangeOptions(verifier string) []oauth2.AuthCodeOption {
	if verifier == "" {
		return nil
	}
	return []oauth2.AuthCodeOption{oauth2.VerifierOption(verifier)}
}
