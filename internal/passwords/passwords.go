// Package passwords checks supplied passwords against stored credentials.
// A stored credential is a bcrypt hash, a legacy plaintext value, or empty
// for seeded demo accounts.
package passwords

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost for new and rotated credentials.
const HashCost = 12

// demoPasswords are accepted for accounts with an empty credential, and only
// when demo mode is on.
var demoPasswords = map[string]struct{}{
	"worker123": {},
	"super123":  {},
	"hosp123":   {},
	"admin123":  {},
}

// Verifier decides whether a supplied password matches a stored credential.
type Verifier struct {
	demo bool
}

// NewVerifier returns a verifier. demo enables the fixed demo passwords for
// accounts without a credential; it must be false in production.
func NewVerifier(demo bool) *Verifier {
	return &Verifier{demo: demo}
}

// DemoMode reports whether demo passwords are accepted.
func (v *Verifier) DemoMode() bool { return v.demo }

// Verify never returns an error: a malformed hash is a mismatch.
func (v *Verifier) Verify(supplied, stored string) bool {
	switch {
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	case stored != "":
		return subtle.ConstantTimeCompare([]byte(supplied), []byte(stored)) == 1
	default:
		if !v.demo {
			return false
		}
		_, ok := demoPasswords[supplied]
		return ok
	}
}

// Hash returns a bcrypt hash of password.
func Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
