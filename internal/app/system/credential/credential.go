// Package credential wraps the password hashing primitive. Callers
// treat it as a black box: hash on write, verify on login. Nothing
// else in the codebase imports bcrypt directly.
package credential

import "golang.org/x/crypto/bcrypt"

// Hash returns a bcrypt hash of the plaintext secret.
func Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether the plaintext secret matches the stored hash.
// A missing hash never matches.
func Verify(hash, secret string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
