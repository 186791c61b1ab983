package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

const specialChars = "!@#?"

// PolicyError lists every rule a password broke.
type PolicyError struct {
	Problems []string
}

func (e *PolicyError) Error() string {
	return "weak password: " + strings.Join(e.Problems, "; ")
}

// ValidatePassword enforces: at least 8 characters, mixed case, at least
// one digit, at least one letter and at least one of ! @ # ?.
func ValidatePassword(pw string) error {
	var upper, lower, digit, letter bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper, letter = true, true
		case unicode.IsLower(r):
			lower, letter = true, true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r):
			letter = true
		}
	}

	var p []string
	if len([]rune(pw)) < 8 {
		p = append(p, "should be at least 8 characters")
	}
	if !upper || !lower {
		p = append(p, "should mix lower and upper case")
	}
	if !digit {
		p = append(p, "should contain numbers")
	}
	if !letter {
		p = append(p, "should contain letters")
	}
	if !strings.ContainsAny(pw, specialChars) {
		p = append(p, "should include at least one of "+specialChars)
	}
	if len(p) > 0 {
		return &PolicyError{Problems: p}
	}
	return nil
}
