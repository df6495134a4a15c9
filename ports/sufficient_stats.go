package ports

import (
	"gonum.org/v1/gonum/mat"
)

// StatsMode tags the origin of a sufficient-statistics bundle
type StatsMode string

const (
	ModeSummary    StatsMode = "summary"    // z and R supplied directly
	ModeIndividual StatsMode = "individual" // derived from raw X, y
)

// SufficientStats is the common boundary both fitting modes converge to:
// a z-score vector and a correlation structure over the same variables.
// The fitting core only ever sees this shape.
type SufficientStats struct {
	Mode       StatsMode
	Z          []float64
	R          *mat.Dense
	SampleSize int // rows of the originating data; 0 when unknown
}

// SufficientStatsSource produces the core fitting input from some raw
// representation of the data.
type SufficientStatsSource interface {
	SufficientStats() (*SufficientStats, error)
}
