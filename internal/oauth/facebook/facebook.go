// Package facebook implementa el login con Facebook: OAuth 2.0 + Graph API /me.
// Facebook no emite id_token en este flujo, así que el perfil se lee con el access token.
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	fbendpoint "golang.org/x/oauth2/facebook"

	"github.com/dropDatabas3/idgate/internal/oauth"
)

const (
	Name            = "facebook"
	defaultGraphURL = "https://graph.facebook.com/v19.0/me?fields=id,name,email"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Overrides para tests.
	Endpoint *oauth2.Endpoint
	GraphURL string
}

type Provider struct {
	cfg      *oauth2.Config
	graphURL string
}

func New(c Config) (*Provider, error) {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURL == "" {
		return nil, errors.New("facebook: client_id, client_secret and redirect_url are required")
	}
	endpoint := fbendpoint.Endpoint
	if c.Endpoint != nil {
		endpoint = *c.Endpoint
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{"email", "public_profile"}
	}
	graphURL := c.GraphURL
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	return &Provider{
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		graphURL: graphURL,
	}, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.cfg.AuthCodeURL(state, oauth.PKCEAuthOptions(verifier)...)
}

type graphMe struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth.Profile, error) {
	tok, err := p.cfg.Exchange(ctx, code, oauth.PKCEExchangeOptions(verifier)...)
	if err != nil {
		return nil, fmt.Errorf("facebook: token exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook: graph request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook: graph status %d", resp.StatusCode)
	}

	var me graphMe
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return nil, fmt.Errorf("facebook: decode profile: %w", err)
	}
	if me.ID == "" {
		return nil, errors.New("facebook: profile without id")
	}
	// Facebook solo devuelve emails confirmados.
	if me.Email == "" {
		return nil, oauth.ErrEmailMissing
	}
	return &oauth.Profile{ProviderUserID: me.ID, Email: me.Email, DisplayName: me.Name}, nil
}
