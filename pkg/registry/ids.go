package registry

import "github.com/google/uuid"

// IDGenerator produces the opaque identifiers assigned to skills and
// namespaces. It is injectable so tests can supply deterministic ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the default IDGenerator, producing random UUIDv4 strings.
type UUIDGenerator struct{}

// NewID returns a fresh random identifier.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
