// Package password hashea con argon2id (PHC) y verifica también hashes bcrypt heredados.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Params de argon2id. Memory en KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// Default sigue la recomendación de OWASP para argon2id.
var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, SaltLen: 16, KeyLen: 32}

var ErrEmptyPassword = errors.New("password: empty")

// Hasher hashea y verifica passwords con un set de parámetros fijo.
type Hasher struct {
	Params Params

	dummyOnce sync.Once
	dummy     string
}

// New devuelve un Hasher; p con ceros usa Default.
func New(p Params) *Hasher {
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		p = Default
	}
	if p.SaltLen == 0 {
		p.SaltLen = 16
	}
	if p.KeyLen == 0 {
		p.KeyLen = 32
	}
	return &Hasher{Params: p}
}

// Hash devuelve $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	p := h.Params
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compara en tiempo constante. Acepta argon2id y bcrypt ($2a$, $2b$, $2y$).
func (h *Hasher) Verify(plain, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(plain, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plain)) == nil
	default:
		return false
	}
}

// VerifyDummy consume el mismo tiempo que un Verify real y siempre retorna false.
// Se usa cuando el email no existe para no filtrar su existencia por timing.
func (h *Hasher) VerifyDummy(plain string) bool {
	h.dummyOnce.Do(func() {
		h.dummy, _ = h.Hash("idgate-dummy-password")
	})
	_ = verifyArgon2id(plain, h.dummy)
	return false
}

// NeedsRehash indica si el hash no es argon2id con los parámetros actuales.
func (h *Hasher) NeedsRehash(encoded string) bool {
	p, _, _, err := decodeArgon2id(encoded)
	if err != nil {
		return true
	}
	return p.Memory != h.Params.Memory || p.Time != h.Params.Time || p.Parallelism != h.Params.Parallelism
}

func verifyArgon2id(plain, encoded string) bool {
	p, salt, want, err := decodeArgon2id(encoded)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decodeArgon2id(encoded string) (Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Params{}, nil, nil, errors.New("password: bad argon2id format")
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, errors.New("password: unsupported argon2 version")
	}
	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return Params{}, nil, nil, fmt.Errorf("password: bad params: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, err
	}
	return p, salt, key, nil
}
