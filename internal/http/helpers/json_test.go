package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	type body struct {
		Email string `json:"email"`
	}

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","extra":1}`))
		r.Header.Set("Content-Type", "application/json")
		var b body
		require.True(t, ReadJSON(httptest.NewRecorder(), r, &b))
		require.Equal(t, "a@x.com", b.Email)
	})

	t.Run("malformed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		var b body
		require.False(t, ReadJSON(rec, r, &b))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "INVALID_JSON")
	})

	t.Run("wrong content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`email=a`))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		var b body
		require.False(t, ReadJSON(rec, r, &b))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		big := `{"email":"` + strings.Repeat("a", MaxBodySize) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		r.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		var b body
		require.False(t, ReadJSON(rec, r, &b))
		require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, BearerToken(r))
	r.Header.Set("Authorization", "bearer abc.def")
	require.Equal(t, "abc.def", BearerToken(r))
	r.Header.Set("Authorization", "Basic xyz")
	require.Empty(t, BearerToken(r))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	require.Equal(t, "10.0.0.1", ClientIP(r))
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	require.Equal(t, "1.2.3.4", ClientIP(r))
}
