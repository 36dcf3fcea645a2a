package jwt

import (
	"context"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/idgate/internal/cache"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	ks, err := GenerateKeySet()
	require.NoError(t, err)
	return NewIssuer("https://idgate.test", ks, time.Hour)
}

func TestMintVerifyRoundTrip(t *testing.T) {
	iss := newTestIssuer(t)
	tok, err := iss.Mint(Subject{ID: "u1", Email: "a@x.com"}, 0, MintOptions{StepUp: StepUpPending, AMR: []string{"pwd"}})
	require.NoError(t, err)
	require.NotEmpty(t, tok.JTI)

	c, err := iss.Verify(context.Background(), tok.Value)
	require.NoError(t, err)
	require.Equal(t, "u1", c.Subject)
	require.Equal(t, "a@x.com", c.Email)
	require.True(t, c.StepUpPending())
	require.Equal(t, tok.JTI, c.JTI)
}

func TestVerifyRejectsExpiredTamperedAndForeign(t *testing.T) {
	iss := newTestIssuer(t)
	base := time.Now()
	iss.WithClock(func() time.Time { return base })

	tok, err := iss.Mint(Subject{ID: "u1"}, time.Minute, MintOptions{})
	require.NoError(t, err)

	// expirado
	iss.WithClock(func() time.Time { return base.Add(2 * time.Minute) })
	_, err = iss.Verify(context.Background(), tok.Value)
	require.ErrorIs(t, err, ErrUnauthorized)
	iss.WithClock(func() time.Time { return base })

	// firma alterada
	parts := strings.Split(tok.Value, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = iss.Verify(context.Background(), parts[0]+"."+parts[1]+"."+string(sig))
	require.ErrorIs(t, err, ErrUnauthorized)

	// otra clave
	other := newTestIssuer(t)
	foreign, err := other.Mint(Subject{ID: "u1"}, time.Minute, MintOptions{})
	require.NoError(t, err)
	_, err = iss.Verify(context.Background(), foreign.Value)
	require.ErrorIs(t, err, ErrUnauthorized)

	// alg none
	unsigned := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, jwtv5.MapClaims{"sub": "u1", "iss": iss.Iss, "exp": base.Add(time.Hour).Unix()})
	raw, err := unsigned.SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = iss.Verify(context.Background(), raw)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = iss.Verify(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestPurposeTokensAreNotSessions(t *testing.T) {
	iss := newTestIssuer(t)
	tok, err := iss.Mint(Subject{ID: "u1", Email: "a@x.com"}, time.Hour, MintOptions{Purpose: PurposeEmailVerify})
	require.NoError(t, err)

	_, err = iss.Verify(context.Background(), tok.Value)
	require.ErrorIs(t, err, ErrUnauthorized)

	c, err := iss.VerifyPurpose(tok.Value, PurposeEmailVerify)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", c.Email)

	session, err := iss.Mint(Subject{ID: "u1"}, time.Hour, MintOptions{})
	require.NoError(t, err)
	_, err = iss.VerifyPurpose(session.Value, PurposeEmailVerify)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRevoke(t *testing.T) {
	iss := newTestIssuer(t)
	iss.Revocations = NewCacheRevocations(cache.NewMemory(""))
	ctx := context.Background()

	tok, err := iss.Mint(Subject{ID: "u1"}, time.Hour, MintOptions{})
	require.NoError(t, err)
	c, err := iss.Verify(ctx, tok.Value)
	require.NoError(t, err)

	require.NoError(t, iss.Revoke(ctx, c))
	_, err = iss.Verify(ctx, tok.Value)
	require.ErrorIs(t, err, ErrUnauthorized)

	other, err := iss.Mint(Subject{ID: "u1"}, time.Hour, MintOptions{})
	require.NoError(t, err)
	_, err = iss.Verify(ctx, other.Value)
	require.NoError(t, err)
}

func TestKeyRotationKeepsOldTokensValid(t *testing.T) {
	oldSeed, err := NewSeed()
	require.NoError(t, err)
	newSeed, err := NewSeed()
	require.NoError(t, err)

	before, err := LoadKeySet([]string{oldSeed})
	require.NoError(t, err)
	tok, err := NewIssuer("iss", before, time.Hour).Mint(Subject{ID: "u1"}, 0, MintOptions{})
	require.NoError(t, err)

	after, err := LoadKeySet([]string{newSeed, oldSeed})
	require.NoError(t, err)
	require.NotEqual(t, before.ActiveKID(), after.ActiveKID())
	_, err = NewIssuer("iss", after, time.Hour).Verify(context.Background(), tok.Value)
	require.NoError(t, err)
	require.Contains(t, string(after.JWKSJSON()), before.ActiveKID())
}

func TestLoadKeySetErrors(t *testing.T) {
	_, err := LoadKeySet(nil)
	require.ErrorIs(t, err, ErrNoSigningKey)
	_, err = LoadKeySet([]string{"c2hvcnQ"})
	require.Error(t, err)
}
