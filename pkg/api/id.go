package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	sessionIDPrefix     = "sess_"
	interactionIDPrefix = "intr_"
)

var (
	sessionIDPattern     = regexp.MustCompile(`^sess_[a-zA-Z0-9]{24}$`)
	interactionIDPattern = regexp.MustCompile(`^intr_[a-zA-Z0-9]{24}$`)
)

// NewSessionID generates a new session ID with the "sess_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewSessionID() string {
	return sessionIDPrefix + randomAlphanumeric(idLength)
}

// NewInteractionID generates a new interaction ID with the "intr_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewInteractionID() string {
	return interactionIDPrefix + randomAlphanumeric(idLength)
}

// ValidateSessionID checks whether the given string is a valid session ID.
func ValidateSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// ValidateInteractionID checks whether the given string is a valid
// interaction ID.
func ValidateInteractionID(id string) bool {
	return interactionIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
