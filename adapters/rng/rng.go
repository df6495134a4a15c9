package rng

import (
	"context"
	"math/rand"

	"gofinemap/ports"
)

// Adapter implements the RNGPort with deterministic seeded streams
type Adapter struct{}

// NewAdapter creates a deterministic RNG adapter
func NewAdapter() ports.RNGPort {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed + int64(hashString(name)))), nil
}

// Stream creates a deterministic RNG stream for a specific fit/scenario pair.
// Identical inputs always produce the identical stream.
func (a *Adapter) Stream(ctx context.Context, fitID, scenario string, baseSeed int64) (*rand.Rand, error) {
	seed := baseSeed
	if fitID != "" {
		seed += int64(hashString(fitID))
	}
	if scenario != "" {
		seed += int64(hashString(scenario))
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2
	}
	return hash
}
