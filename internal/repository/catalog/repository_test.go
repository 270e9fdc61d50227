package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimo123-321/autoglow-backend/internal/database/dbtest"
	"github.com/kimo123-321/autoglow-backend/internal/entity"
)

func TestListNewestFirst(t *testing.T) {
	store := dbtest.New(t, 1)
	repo := NewRepository()
	ctx := context.Background()

	products := []entity.Product{
		{ID: 1, Name: "Car Wax", Price: decimal.RequireFromString("12.50")},
		{ID: 2, Name: "Microfiber Towel", Price: decimal.RequireFromString("3.00")},
		{ID: 3, Name: "Tyre Shine", Price: decimal.RequireFromString("8.75")},
	}
	require.NoError(t, repo.InsertIgnore(ctx, store.DB, products))
	require.NoError(t, repo.InsertIgnore(ctx, store.DB, products[:1]), "existing ids are skipped")

	got, err := repo.List(ctx, store.DB)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.True(t, decimal.RequireFromString("8.75").Equal(got[0].Price))
}

func TestListEmpty(t *testing.T) {
	store := dbtest.New(t, 1)
	got, err := NewRepository().List(context.Background(), store.DB)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
