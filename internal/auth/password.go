package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt hashes without truncating.
// The login form limits runes, so a kana password reaches it at 24 characters.
const MaxPasswordBytes = 72

var (
	// ErrPasswordTooLong is returned by Hash; AuthService.CreateUser maps it
	// to a field error on "password".
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")
	// ErrInvalidPassword is returned by Verify on a mismatch.
	ErrInvalidPassword = errors.New("auth: invalid password")
)

const defaultCost = 12

// PasswordService hashes account passwords for "snippetctl user create" and
// checks them on login.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost is for tests, which pass bcrypt.MinCost.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt encoding of plaintext, salt and cost included, as
// stored in users.password_hash.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A wrong password is
// ErrInvalidPassword; a malformed hash is any other error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidPassword
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
