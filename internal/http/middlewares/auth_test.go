package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	jwtx "github.com/dropDatabas3/idgate/internal/jwt"
	"github.com/dropDatabas3/idgate/internal/observability/logger"
)

func newIssuer(t *testing.T) *jwtx.Issuer {
	t.Helper()
	keys, err := jwtx.GenerateKeySet()
	require.NoError(t, err)
	return jwtx.NewIssuer("http://test", keys, time.Hour)
}

func mint(t *testing.T, iss *jwtx.Issuer, opts jwtx.MintOptions) string {
	t.Helper()
	tk, err := iss.Mint(jwtx.Subject{ID: "u-1", Email: "a@x.com"}, 0, opts)
	require.NoError(t, err)
	return tk.Value
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetUserID(r.Context())))
})

func TestRequireAuth(t *testing.T) {
	iss := newIssuer(t)
	h := Chain(echoUser, RequireAuth(iss))

	rec := serve(h, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "TOKEN_MISSING")
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec = serve(h, "garbage")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "TOKEN_INVALID")

	rec = serve(h, mint(t, iss, jwtx.MintOptions{}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u-1", rec.Body.String())

	// pendiente de step-up: RequireAuth solo lo deja pasar
	rec = serve(h, mint(t, iss, jwtx.MintOptions{StepUp: jwtx.StepUpPending}))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireFullAuthRejectsPendingStepUp(t *testing.T) {
	iss := newIssuer(t)
	h := Chain(echoUser, RequireAuth(iss), RequireFullAuth())

	rec := serve(h, mint(t, iss, jwtx.MintOptions{StepUp: jwtx.StepUpPending}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "STEP_UP_REQUIRED")

	rec = serve(h, mint(t, iss, jwtx.MintOptions{StepUp: jwtx.StepUpVerified}))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejectsPurposeTokens(t *testing.T) {
	iss := newIssuer(t)
	h := Chain(echoUser, RequireAuth(iss))
	rec := serve(h, mint(t, iss, jwtx.MintOptions{Purpose: jwtx.PurposeEmailVerify}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

type brokenRevocations struct{}

func (brokenRevocations) Revoke(context.Context, string, time.Time) error { return nil }
func (brokenRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}

func TestRequireAuthRevocationStoreDown(t *testing.T) {
	iss := newIssuer(t)
	token := mint(t, iss, jwtx.MintOptions{})
	iss.Revocations = brokenRevocations{}

	rec := serve(Chain(echoUser, RequireAuth(iss)), token)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOptionalAuth(t *testing.T) {
	iss := newIssuer(t)
	h := Chain(echoUser, OptionalAuth(iss))

	rec := serve(h, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = serve(h, "garbage")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())

	rec = serve(h, mint(t, iss, jwtx.MintOptions{}))
	require.Equal(t, "u-1", rec.Body.String())
}

func TestAuthBindsUserToLoggerOnce(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	iss := newIssuer(t)
	svc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// mismo patrón que los services: ForUser + campos de capa
		logger.ForUser(r.Context(), GetUserID(r.Context())).With(logger.Op("Update")).Info("handled")
	})
	token := mint(t, iss, jwtx.MintOptions{})

	for _, h := range []http.Handler{
		Chain(svc, RequireAuth(iss), RequireFullAuth()),
		Chain(svc, OptionalAuth(iss)),
	} {
		rec := serve(h, token)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		n := 0
		for _, f := range e.Context {
			if f.Key == "user_id" {
				n++
			}
		}
		require.Equal(t, 1, n)
		require.Equal(t, "u-1", e.ContextMap()["user_id"])
	}
}
