// Package token genera secretos opacos y códigos numéricos para los artefactos efímeros.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateOpaque devuelve nBytes aleatorios en base64url sin padding.
func GenerateOpaque(nBytes int) (string, error) {
	if nBytes <= 0 {
		return "", fmt.Errorf("token: invalid size %d", nBytes)
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateNumericCode devuelve un código de `digits` dígitos decimales, con ceros a la izquierda.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("token: invalid digits %d", digits)
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// SHA256Hex es el formato con el que se persisten tokens y códigos: nunca en claro.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
