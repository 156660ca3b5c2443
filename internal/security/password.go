package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// ErrWeakPassword means the candidate does not satisfy the account password
// policy: 8 to 16 characters with at least one digit, one lowercase and one
// uppercase letter.
var ErrWeakPassword = errors.New("password does not meet policy")

func ValidatePasswordPolicy(plain string) error {
	if len(plain) < 8 || len(plain) > 16 {
		return ErrWeakPassword
	}

	var hasDigit, hasLower, hasUpper bool

	for _, r := range plain {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		}
	}

	if !hasDigit || !hasLower || !hasUpper {
		return ErrWeakPassword
	}

	return nil
}
