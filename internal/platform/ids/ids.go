// Package ids generates unique identifiers for domain entities.
package ids

import "github.com/google/uuid"

// New returns a new random identifier.
func New() string {
	return uuid.NewString()
}
