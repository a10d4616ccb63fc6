/*
Package randx provides identity and display-name generation helpers.

User ids are standard UUID v4 strings; default and placeholder display names
are derived from them or from a cryptographically secure random source.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// DefaultNamePrefixLen is how many leading characters of the user id
	// make up the server-assigned default display name.
	DefaultNamePrefixLen = 4

	// PlaceholderNameMax bounds the random suffix of client placeholder
	// names; the suffix is an integer in [0, PlaceholderNameMax).
	PlaceholderNameMax = 2000
)

// UserID generates a UUID v4 string to serve as a unique user identifier.
func UserID() string {
	return uuid.New().String()
}

// DefaultName derives the server-assigned default display name from a
// user id: "User-" followed by the first four characters of the id.
func DefaultName(id string) string {
	if len(id) < DefaultNamePrefixLen {
		return "User-" + id
	}
	return "User-" + id[:DefaultNamePrefixLen]
}

// PlaceholderName generates the display name a client announces right
// after connecting, before the user picks one: "user_" plus a random
// integer in [0, PlaceholderNameMax).
func PlaceholderName() (string, error) {
	num, err := rand.Int(rand.Reader, big.NewInt(PlaceholderNameMax))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number for placeholder name: %v", err)
	}

	return fmt.Sprintf("user_%d", num.Int64()), nil
}
