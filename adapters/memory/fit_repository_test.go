package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gofinemap/domain/core"
	"gofinemap/domain/susie"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedFit(createdAt time.Time) *susie.FitResult {
	return &susie.FitResult{
		ID:           core.FitID(core.NewID()),
		NumVariables: 10,
		NumLayers:    2,
		PIP:          []float64{0.1, 0.9},
		CreatedAt:    core.NewTimestamp(createdAt),
	}
}

func TestSaveAndGetByID(t *testing.T) {
	repo := NewFitRepository()
	ctx := context.Background()

	fit := storedFit(time.Now())
	require.NoError(t, repo.Save(ctx, fit))

	got, err := repo.GetByID(ctx, fit.ID)
	require.NoError(t, err)
	assert.Equal(t, fit.ID, got.ID)
	assert.Equal(t, fit.PIP, got.PIP)
}

func TestGetByIDMissing(t *testing.T) {
	repo := NewFitRepository()

	_, err := repo.GetByID(context.Background(), core.FitID("nope"))
	assert.True(t, core.IsNotFoundError(err))
}

func TestListNewestFirstWithPaging(t *testing.T) {
	repo := NewFitRepository()
	ctx := context.Background()

	base := time.Now()
	var ids []core.FitID
	for i := 0; i < 5; i++ {
		fit := storedFit(base.Add(time.Duration(i) * time.Minute))
		ids = append(ids, fit.ID)
		require.NoError(t, repo.Save(ctx, fit))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, ids[4], all[0].ID, "newest first")
	assert.Equal(t, ids[0], all[4].ID)

	page, err := repo.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	empty, err := repo.List(ctx, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDelete(t *testing.T) {
	repo := NewFitRepository()
	ctx := context.Background()

	fit := storedFit(time.Now())
	require.NoError(t, repo.Save(ctx, fit))
	require.NoError(t, repo.Delete(ctx, fit.ID))

	_, err := repo.GetByID(ctx, fit.ID)
	assert.True(t, core.IsNotFoundError(err))

	err = repo.Delete(ctx, fit.ID)
	assert.True(t, core.IsNotFoundError(err))
}

func TestConcurrentSaves(t *testing.T) {
	repo := NewFitRepository()
	ctx := context.Background()

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			fit := storedFit(time.Now())
			fit.ID = core.FitID(fmt.Sprintf("fit-%d", i))
			done <- repo.Save(ctx, fit)
		}(i)
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-done)
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
