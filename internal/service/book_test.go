package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwilder2/diarydawn-backend/internal/models"
)

type fakeBookRepo struct {
	results []models.Result
	err     error

	lastUserID int64
	lastBookID int64
}

func (r *fakeBookRepo) GetResultsByUserAndBook(_ context.Context, userID, bookID int64) ([]models.Result, error) {
	r.lastUserID = userID
	r.lastBookID = bookID
	return r.results, r.err
}

func TestFindResultsEnrichesKnownTraits(t *testing.T) {
	repo := &fakeBookRepo{results: []models.Result{
		{ID: 1, ModelName: "OCEAN", TraitName: "openness", TraitValue: "high"},
		{ID: 2, ModelName: "DISC", TraitName: "steadiness", TraitValue: "medium"},
	}}
	books := NewBookService(repo)

	heroes, err := books.FindResultsByUserAndBook(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Len(t, heroes, 2)
	assert.Equal(t, int64(7), repo.lastUserID)
	assert.Equal(t, int64(3), repo.lastBookID)

	assert.Equal(t, models.Hero{
		ID:          1,
		ModelName:   "Big 5 Personality Traits",
		SuperPower:  "Visionary Explorer",
		Description: "You see possibilities everywhere and embrace new experiences with curiosity.",
	}, heroes[0])
	assert.Equal(t, "Steady Anchor", heroes[1].SuperPower)
}

func TestFindResultsUnknownTraitFallsBack(t *testing.T) {
	repo := &fakeBookRepo{results: []models.Result{
		{ID: 1, ModelName: "TAROT", TraitName: "the_tower", TraitValue: "upright"},
	}}
	books := NewBookService(repo)

	heroes, err := books.FindResultsByUserAndBook(context.Background(), 7, 3)
	require.NoError(t, err)
	require.Len(t, heroes, 1)

	// An unmapped model keeps its raw name.
	assert.Equal(t, "TAROT", heroes[0].ModelName)
	assert.Equal(t, "Unknown Power", heroes[0].SuperPower)
	assert.Equal(t, "No description available", heroes[0].Description)
}

func TestEnrichPublicResults(t *testing.T) {
	books := NewBookService(&fakeBookRepo{})

	heroes := books.EnrichPublicResults([]models.Result{
		{ModelName: "VARK", TraitName: "kinesthetic", TraitValue: "high"},
		{ModelName: "NINE_INT", TraitName: "musical", TraitValue: "high"},
	})
	require.Len(t, heroes, 2)
	assert.Equal(t, "Hands-On Hero", heroes[0].SuperPower)
	assert.Equal(t, "Rhythm Keeper", heroes[1].SuperPower)

	assert.Empty(t, books.EnrichPublicResults(nil))
}
