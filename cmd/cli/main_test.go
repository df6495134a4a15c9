package main

import (
	"testing"

	"gofinemap/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationFromRows(t *testing.T) {
	r, err := correlationFromRows([][]float64{
		{1, 0.5},
		{0.5, 1},
	}, 2)
	require.NoError(t, err)

	rows, cols := r.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 0.5, r.At(0, 1))
}

func TestCorrelationFromRowsRejectsBadShapes(t *testing.T) {
	// Too many rows for the z vector.
	_, err := correlationFromRows([][]float64{
		{1, 0.5},
		{0.5, 1},
		{0, 0},
	}, 2)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	// Ragged row.
	_, err = correlationFromRows([][]float64{
		{1, 0.5},
		{0.5},
	}, 2)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	// Overlong row.
	_, err = correlationFromRows([][]float64{
		{1, 0.5, 0},
		{0.5, 1, 0},
	}, 2)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	_, err = correlationFromRows(nil, 0)
	assert.True(t, core.IsInvalidInputError(err))
}
