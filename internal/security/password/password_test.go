package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fast = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := New(fast)
	enc, err := h.Hash("pw123")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(enc, "$argon2id$v=19$m=8192,t=1,p=1$"))

	require.True(t, h.Verify("pw123", enc))
	require.False(t, h.Verify("pw124", enc))
	require.False(t, h.Verify("pw123", "garbage"))

	other, err := h.Hash("pw123")
	require.NoError(t, err)
	require.NotEqual(t, enc, other, "salt must differ")
}

func TestEmptyPasswordRejected(t *testing.T) {
	_, err := New(fast).Hash("")
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	h := New(fast)
	require.True(t, h.Verify("old-secret", string(legacy)))
	require.False(t, h.Verify("nope", string(legacy)))
	require.True(t, h.NeedsRehash(string(legacy)))
}

func TestNeedsRehash(t *testing.T) {
	h := New(fast)
	enc, err := h.Hash("x")
	require.NoError(t, err)
	require.False(t, h.NeedsRehash(enc))

	stronger := New(Params{Memory: 16 * 1024, Time: 2, Parallelism: 1})
	require.True(t, stronger.NeedsRehash(enc))
}

func TestVerifyDummyAlwaysFalse(t *testing.T) {
	require.False(t, New(fast).VerifyDummy("idgate-dummy-password"))
}
