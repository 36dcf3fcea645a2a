package facebook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dropDatabas3/idgate/internal/oauth"
)

func newTestProvider(t *testing.T, me graphMe) *Provider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.NotEmpty(t, r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "bearer"})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(me)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := New(Config{
		ClientID: "cid", ClientSecret: "sec", RedirectURL: "http://localhost/cb",
		Endpoint: &oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
		GraphURL: srv.URL + "/me",
	})
	require.NoError(t, err)
	return p
}

func TestExchangeReadsProfile(t *testing.T) {
	p := newTestProvider(t, graphMe{ID: "fb-1", Name: "Bob", Email: "bob@x.com"})

	prof, err := p.Exchange(context.Background(), "the-code", oauth.NewVerifier())
	require.NoError(t, err)
	require.Equal(t, "fb-1", prof.ProviderUserID)
	require.Equal(t, "bob@x.com", prof.Email)
}

func TestExchangeWithoutEmail(t *testing.T) {
	p := newTestProvider(t, graphMe{ID: "fb-2", Name: "NoMail"})
	_, err := p.Exchange(context.Background(), "the-code", oauth.NewVerifier())
	require.ErrorIs(t, err, oauth.ErrEmailMissing)
}

func TestAuthCodeURLCarriesStateAndPKCE(t *testing.T) {
	p := newTestProvider(t, graphMe{})
	u, err := url.Parse(p.AuthCodeURL("st", oauth.NewVerifier()))
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "st", q.Get("state"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
}
