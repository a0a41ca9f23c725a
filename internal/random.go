package internal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	tokenSecretSize   = 32
	resetTokenRawSize = 16 + tokenSecretSize
	otpMinDigits      = 4
	otpMaxDigits      = 10
)

// NewOTP returns a uniformly random numeric code; leading zeros are kept.
func NewOTP(digits int) (string, error) {
	if digits < otpMinDigits || digits > otpMaxDigits {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}

// IsNumericCode reports whether code is exactly digits ASCII digits.
func IsNumericCode(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// NewTokenSecret returns 256 bits of randomness, hex encoded.
func NewTokenSecret() (string, error) {
	var secret [tokenSecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(secret[:]), nil
}

// EncodeResetToken packs the account id and the hex secret into one
// URL-safe token: base64url(uuid bytes || secret bytes).
func EncodeResetToken(accountID, secretHex string) (string, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return "", err
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil || len(secret) != tokenSecretSize {
		return "", errors.New("invalid reset secret")
	}

	var raw [resetTokenRawSize]byte
	copy(raw[:16], id[:])
	copy(raw[16:], secret)

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// DecodeResetToken reverses [EncodeResetToken].
func DecodeResetToken(token string) (accountID, secretHex string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", err
	}
	if len(raw) != resetTokenRawSize {
		return "", "", errors.New("invalid reset token size")
	}

	id, err := uuid.FromBytes(raw[:16])
	if err != nil {
		return "", "", err
	}
	return id.String(), hex.EncodeToString(raw[16:]), nil
}

// EncodeRememberToken formats the client-held remember-me value.
func EncodeRememberToken(accountID, secretHex string) string {
	return accountID + ":" + secretHex
}

// DecodeRememberToken splits a remember-me value at its last colon.
func DecodeRememberToken(value string) (accountID, secretHex string, err error) {
	i := strings.LastIndexByte(value, ':')
	if i <= 0 || i == len(value)-1 {
		return "", "", errors.New("invalid remember token")
	}
	secretHex = value[i+1:]
	if len(secretHex) != hex.EncodedLen(tokenSecretSize) {
		return "", "", errors.New("invalid remember token")
	}
	if _, err := hex.DecodeString(secretHex); err != nil {
		return "", "", errors.New("invalid remember token")
	}
	return value[:i], secretHex, nil
}

// NewID returns a random UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}
