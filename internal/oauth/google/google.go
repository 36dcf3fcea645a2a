// Package google implementa el login con Google: OAuth 2.0 + verificación del id_token OIDC.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"

	"github.com/dropDatabas3/idgate/internal/oauth"
)

const (
	Name   = "google"
	issuer = "https://accounts.google.com"
	jwks   = "https://www.googleapis.com/oauth2/v3/certs"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Provider usa el endpoint estático de Google; las claves del id_token se
// descargan recién en la primera verificación.
type Provider struct {
	cfg      *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func New(ctx context.Context, c Config) (*Provider, error) {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURL == "" {
		return nil, errors.New("google: client_id, client_secret and redirect_url are required")
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	keySet := oidc.NewRemoteKeySet(ctx, jwks)
	return &Provider{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     googleendpoint.Endpoint,
			Scopes:       scopes,
		},
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: c.ClientID}),
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) AuthCodeURL(state, verifier string) string {
	opts := append([]oauth2.AuthCodeOption{oauth2.AccessTypeOnline}, oauth.PKCEAuthOptions(verifier)...)
	return p.cfg.AuthCodeURL(state, opts...)
}

func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth.Profile, error) {
	tok, err := p.cfg.Exchange(ctx, code, oauth.PKCEExchangeOptions(verifier)...)
	if err != nil {
		return nil, fmt.Errorf("google: token exchange: %w", err)
	}
	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, errors.New("google: no id_token in token response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google: id_token verification: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google: id_token claims: %w", err)
	}
	if claims.Email == "" {
		return nil, oauth.ErrEmailMissing
	}
	if !claims.EmailVerified {
		return nil, oauth.ErrEmailNotVerified
	}
	return &oauth.Profile{
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		DisplayName:    claims.Name,
	}, nil
}
