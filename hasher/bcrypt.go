package hasher

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes secrets with bcrypt. Digests produced by PHP's password_hash
// verify unchanged.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A zero cost selects bcrypt.DefaultCost.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (b *Bcrypt) Verify(secret, digest string) bool {
	if Detect(digest) == AlgorithmArgon2id {
		return verifyArgon2(secret, digest)
	}
	return verifyBcrypt(secret, digest)
}

func (b *Bcrypt) NeedsUpgrade(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return true
	}
	return cost < b.cost
}

func verifyBcrypt(secret, digest string) bool {
	// CompareHashAndPassword is constant time over the derived key.
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
