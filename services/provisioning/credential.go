package provisioning

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"farmavida-master/pkg/security"
)

const (
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	digits       = "0123456789"
)

const (
	HashSHA256   = "sha256"
	HashArgon2ID = "argon2id"
)

// Credential is a temporary admin password and its stored hash.
type Credential struct {
	Plaintext string
	Hash      string
}

// PasswordHasher hashes the legacy profile password column.
type PasswordHasher func(plaintext string) (string, error)

// NewPasswordHasher returns the hasher for name. Unknown names fall back to
// sha256, the format existing profile rows use.
func NewPasswordHasher(name string) PasswordHasher {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case HashArgon2ID:
		return security.HashArgon2
	default:
		return func(p string) (string, error) { return security.HashSHA256Hex(p), nil }
	}
}

// CredentialGenerator issues 8 character passwords shaped as one uppercase
// letter, two digits and five lowercase letters, in that order. Clients copy
// credentials assuming this shape. It is not a strong password policy.
type CredentialGenerator struct {
	Hash PasswordHasher
}

func (g CredentialGenerator) Generate() (Credential, error) {
	var b strings.Builder
	b.Grow(8)

	groups := []struct {
		alphabet string
		n        int
	}{
		{upperLetters, 1},
		{digits, 2},
		{lowerLetters, 5},
	}
	for _, grp := range groups {
		for i := 0; i < grp.n; i++ {
			c, err := pick(grp.alphabet)
			if err != nil {
				return Credential{}, err
			}
			b.WriteByte(c)
		}
	}

	plain := b.String()
	hash := g.Hash
	if hash == nil {
		hash = NewPasswordHasher(HashSHA256)
	}
	h, err := hash(plain)
	if err != nil {
		return Credential{}, fmt.Errorf("hash credential: %w", err)
	}
	return Credential{Plaintext: plain, Hash: h}, nil
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return alphabet[n.Int64()], nil
}
