package customer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/kimo123-321/autoglow-backend/internal/database/dbtest"
	"github.com/kimo123-321/autoglow-backend/internal/entity"
)

func TestUpsertOverwritesNameAndCity(t *testing.T) {
	store := dbtest.New(t, 1)
	repo := NewRepository()
	ctx := context.Background()

	err := store.Pool.WithConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		if err := repo.Upsert(ctx, conn, &entity.Customer{Phone: "555", Name: "A", City: "X"}); err != nil {
			return err
		}
		return repo.Upsert(ctx, conn, &entity.Customer{Phone: "555", Name: "B", City: "Y"})
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.Count(t, "users"))

	var got *entity.Customer
	err = store.Pool.WithConn(ctx, func(ctx context.Context, conn bun.Conn) error {
		var err error
		got, err = repo.GetByPhone(ctx, conn, "555")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, entity.Customer{Phone: "555", Name: "B", City: "Y"}, *got)
}

func TestGetByPhoneNotFound(t *testing.T) {
	store := dbtest.New(t, 1)
	repo := NewRepository()

	err := store.Pool.WithConn(context.Background(), func(ctx context.Context, conn bun.Conn) error {
		_, err := repo.GetByPhone(ctx, conn, "000")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
