package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	valids := []string{
		"a@b.co",
		"Ana.Perez+tag@example.com",
		"x@sub.domain.io",
	}
	for _, v := range valids {
		require.True(t, ValidEmail(v), "expected valid: %q", v)
	}

	invalids := []string{
		"",
		"plain",
		"@example.com",
		"ana@",
		"ana@localhost",
		"ana perez@example.com",
		"a@b@c.com",
		strings.Repeat("a", 250) + "@b.co",
	}
	for _, v := range invalids {
		require.False(t, ValidEmail(v), "expected invalid: %q", v)
	}
}

func TestValidPhone(t *testing.T) {
	for _, v := range []string{"+15550001111", "+5491155550000", "+12345678"} {
		require.True(t, ValidPhone(v), "expected valid: %q", v)
	}
	for _, v := range []string{"", "15550001111", "+0123456789", "+1 555 000 1111", "+1234567", "+1234567890123456"} {
		require.False(t, ValidPhone(v), "expected invalid: %q", v)
	}
}

func TestValidDisplayName(t *testing.T) {
	require.True(t, ValidDisplayName("Ana"))
	require.True(t, ValidDisplayName("  José María  "))
	require.True(t, ValidDisplayName(strings.Repeat("ñ", 100)))

	require.False(t, ValidDisplayName(""))
	require.False(t, ValidDisplayName("   "))
	require.False(t, ValidDisplayName("bad\nname"))
	require.False(t, ValidDisplayName(strings.Repeat("a", 101)))
}
