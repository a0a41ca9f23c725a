package hasher

import (
	"errors"
	"strings"
)

// Hasher hashes secrets with a slow, salted one-way function.
type Hasher interface {
	Hash(secret string) (string, error)
	// Verify reports whether secret matches digest. Malformed digests yield false.
	Verify(secret, digest string) bool
	// NeedsUpgrade reports whether digest was produced with weaker or foreign
	// parameters and should be re-hashed after a successful verification.
	NeedsUpgrade(digest string) bool
}

// Algorithm names a supported hashing scheme.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Config selects and tunes a [Hasher].
type Config struct {
	Algorithm Algorithm

	// argon2id
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// bcrypt
	Cost int
}

// New builds the [Hasher] named by cfg.Algorithm. An empty algorithm selects argon2id.
func New(cfg Config) (Hasher, error) {
	switch cfg.Algorithm {
	case "", AlgorithmArgon2id:
		return NewArgon2(cfg)
	case AlgorithmBcrypt:
		return NewBcrypt(cfg.Cost)
	default:
		return nil, errors.New("unsupported hash algorithm")
	}
}

// Detect returns the algorithm that produced digest, or "" when unknown.
func Detect(digest string) Algorithm {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return AlgorithmArgon2id
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return AlgorithmBcrypt
	default:
		return ""
	}
}
