package utils

import (
	"errors"

	"github.com/Baaaki/storefront/internal/apperror"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords with bcrypt after appending a pepper.
// bcrypt adds its own per-hash salt.
type PasswordHasher struct {
	Pepper string
	Cost   int
}

func NewPasswordHasher(pepper string, cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{Pepper: pepper, Cost: cost}
}

func (h PasswordHasher) peppered(password string) []byte {
	return []byte(password + "." + h.Pepper)
}

// HashPassword returns the bcrypt hash of the peppered password
func (h PasswordHasher) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(h.peppered(password), h.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperror.Validation("password is too long")
		}
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks if password matches hash
func (h PasswordHasher) VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), h.peppered(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
