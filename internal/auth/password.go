// Password hashing. bcrypt is deliberately slow, salts automatically, and
// embeds cost + salt in the output string, so the hash column is
// self-contained.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor, matching the original deployment.
// Roughly 250ms per hash on current server hardware.
const defaultCost = 12

// PasswordService hashes and verifies password credentials.
// The cost lives in a struct field so tests can drop it to the bcrypt
// minimum and avoid paying 250ms per hashed fixture.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a PasswordService with a reduced cost.
// Not for production use.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// bcryptLimit is how many password bytes bcrypt reads. Longer input is
// truncated, the same way on hash and verify, matching the truncation the
// original deployment's bcrypt did.
const bcryptLimit = 72

func bcryptInput(plaintext string) []byte {
	b := []byte(plaintext)
	if len(b) > bcryptLimit {
		b = b[:bcryptLimit]
	}
	return b
}

// Hash hashes a plaintext password. Only the first 72 bytes contribute to
// the hash (see bcryptLimit).
func (p *PasswordService) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. The comparison
// is constant-time inside bcrypt.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// PasswordChecks itemizes which strength criteria a candidate password met.
type PasswordChecks struct {
	Length         bool `json:"length"`
	HasLowercase   bool `json:"hasLowercase"`
	HasUppercase   bool `json:"hasUppercase"`
	HasNumber      bool `json:"hasNumber"`
	HasSpecialChar bool `json:"hasSpecialChar"`
}

// PasswordStrength is the advisory verdict returned by the
// /check-password helper endpoint. It never blocks signup; only the
// minimum length is enforced there.
type PasswordStrength struct {
	Strength string         `json:"strength"` // weak | medium | strong
	Score    int            `json:"score"`
	Checks   PasswordChecks `json:"checks"`
	Valid    bool           `json:"valid"`
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

// CheckPasswordStrength scores a candidate password: one point per
// criterion, 3+ is medium, 4+ is strong.
func CheckPasswordStrength(password string) PasswordStrength {
	checks := PasswordChecks{
		Length: len(password) >= 6,
	}
	for _, ch := range password {
		switch {
		case unicode.IsLower(ch):
			checks.HasLowercase = true
		case unicode.IsUpper(ch):
			checks.HasUppercase = true
		case unicode.IsDigit(ch):
			checks.HasNumber = true
		case strings.ContainsRune(specialChars, ch):
			checks.HasSpecialChar = true
		}
	}

	score := 0
	for _, met := range []bool{
		checks.Length,
		checks.HasLowercase,
		checks.HasUppercase,
		checks.HasNumber,
		checks.HasSpecialChar,
	} {
		if met {
			score++
		}
	}

	strength := "weak"
	switch {
	case score >= 4:
		strength = "strong"
	case score >= 3:
		strength = "medium"
	}

	return PasswordStrength{
		Strength: strength,
		Score:    score,
		Checks:   checks,
		Valid:    checks.Length,
	}
}
