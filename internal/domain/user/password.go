package user

import (
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/validate"
)

const passwordSpecials = "#?!@$%^&*-"

// PasswordPolicyMessage is reported for passwords rejected by CheckPassword.
const PasswordPolicyMessage = "Password must have at least one uppercase letter, at least one lowercase letter, " +
	"at least one number, and at least one special character"

// CheckPassword enforces at least 8 characters with an upper-case letter, a
// lower-case letter, a digit and one of #?!@$%^&*-.
func CheckPassword(field, pw string) error {
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if len([]rune(pw)) < 8 || !upper || !lower || !digit || !special {
		return validate.Field(field, PasswordPolicyMessage)
	}
	return nil
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

// BcryptHasher implements Hasher with bcrypt.
type BcryptHasher struct {
	Cost int
}

var _ Hasher = BcryptHasher{}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt")
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
