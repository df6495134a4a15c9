package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream for a specific fit/scenario pair.
	// This ensures simulated datasets are identical for the same inputs.
	Stream(ctx context.Context, fitID, scenario string, baseSeed int64) (*rand.Rand, error)
}
