// Package idgen generates client-side identifiers, grounded on the
// teacher's internal/utils.UUIDGenerator.
package idgen

import "github.com/google/uuid"

// Generator creates string UUID values for client-generated identifiers
// such as lock request UUIDs (§4.9). Stateless and safe to reuse across
// goroutines.
type Generator struct{}

// New returns a Generator. It has no internal mutable state; creating
// multiple instances is inexpensive.
func New() *Generator {
	return &Generator{}
}

// Generate returns a UUID string. It prefers UUID v7 (time-ordered, so
// lock UUIDs sort and log chronologically) and falls back to a random
// UUID if v7 generation fails.
func (g *Generator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
