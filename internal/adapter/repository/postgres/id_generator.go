package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator produces ULID identifiers for wallets and titles. ULIDs sort
// lexicographically by creation time, so titles sharing a date keep their
// insertion order when the chain tie-breaks on id.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns a new ULID string.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
