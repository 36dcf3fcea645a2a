package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// KeySet contiene la clave Ed25519 activa (firma) y las retiradas (solo verificación).
type KeySet struct {
	activeKID string
	priv      ed25519.PrivateKey
	pubs      map[string]ed25519.PublicKey
	order     []string
}

var ErrNoSigningKey = errors.New("jwt: no signing key")

// LoadKeySet parsea seeds Ed25519 de 32 bytes en base64 (std o url).
// La primera es la activa; el resto sigue verificando tokens emitidos antes de rotar.
func LoadKeySet(seeds []string) (*KeySet, error) {
	ks := &KeySet{pubs: make(map[string]ed25519.PublicKey)}
	for i, s := range seeds {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seed, err := decodeSeed(s)
		if err != nil {
			return nil, fmt.Errorf("jwt: key %d: %w", i, err)
		}
		priv := ed25519.NewKeyFromSeed(seed)
		ks.add(priv, ks.priv == nil)
	}
	if ks.priv == nil {
		return nil, ErrNoSigningKey
	}
	return ks, nil
}

// GenerateKeySet crea una clave efímera. Los tokens no sobreviven un reinicio.
func GenerateKeySet() (*KeySet, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	ks := &KeySet{pubs: make(map[string]ed25519.PublicKey)}
	ks.add(priv, true)
	return ks, nil
}

// NewSeed devuelve una seed nueva en base64url, lista para configuración.
func NewSeed() (string, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(seed), nil
}

func (k *KeySet) add(priv ed25519.PrivateKey, active bool) {
	pub := priv.Public().(ed25519.PublicKey)
	kid := KID(pub)
	if _, dup := k.pubs[kid]; !dup {
		k.order = append(k.order, kid)
	}
	k.pubs[kid] = pub
	if active {
		k.activeKID = kid
		k.priv = priv
	}
}

// KID deriva un identificador estable de la clave pública.
func KID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}

func decodeSeed(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.StdEncoding, base64.RawStdEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			if len(b) != ed25519.SeedSize {
				return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(b))
			}
			return b, nil
		}
	}
	return nil, errors.New("seed is not base64")
}

// PublicKey devuelve la clave para un kid conocido.
func (k *KeySet) PublicKey(kid string) (ed25519.PublicKey, bool) {
	pub, ok := k.pubs[kid]
	return pub, ok
}

// ActiveKID devuelve el kid con el que se firma.
func (k *KeySet) ActiveKID() string { return k.activeKID }

type jwk struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	X   string `json:"x"`
}

// JWKSJSON serializa todas las claves públicas (activa primero).
func (k *KeySet) JWKSJSON() []byte {
	out := struct {
		Keys []jwk `json:"keys"`
	}{}
	for _, kid := range k.order {
		out.Keys = append(out.Keys, jwk{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: kid,
			Alg: "EdDSA",
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(k.pubs[kid]),
		})
	}
	b, _ := json.Marshal(out)
	return b
}
