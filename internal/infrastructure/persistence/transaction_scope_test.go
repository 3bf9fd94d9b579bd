package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	appinv "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_CommitAndRollback(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	p := newTestProduct(t, "Lamp", "", catalog.ProductTypeSimple)
	require.NoError(t, NewGormProductRepository(db).Create(ctx, p))

	t.Run("commits counter and movement together", func(t *testing.T) {
		err := scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
			assert.True(t, scope.InTransaction(ctx))
			if err := repos.StockItems().UpdateQuantity(ctx, p.Target(), 5); err != nil {
				return err
			}
			m, err := ledger.NewMovement(p.Target(), p.ID, ledger.MovementAdjustmentIn, 5, "", nil)
			if err != nil {
				return err
			}
			return repos.Movements().Append(ctx, m)
		})
		require.NoError(t, err)

		item, err := NewGormStockItemRepository(db).FindForUpdate(ctx, p.Target())
		require.NoError(t, err)
		assert.Equal(t, int64(5), item.Quantity)

		sum, err := NewGormMovementRepository(db).SumByTarget(ctx, p.Target())
		require.NoError(t, err)
		assert.Equal(t, int64(5), sum)
	})

	t.Run("rolls back counter when the movement fails", func(t *testing.T) {
		err := scope.Execute(ctx, func(ctx context.Context, repos appinv.TransactionalRepositories) error {
			if err := repos.StockItems().UpdateQuantity(ctx, p.Target(), 50); err != nil {
				return err
			}
			return errors.New("append failed")
		})
		require.Error(t, err)

		item, err := NewGormStockItemRepository(db).FindForUpdate(ctx, p.Target())
		require.NoError(t, err)
		assert.Equal(t, int64(5), item.Quantity)
	})

	t.Run("nested execute joins the outer transaction", func(t *testing.T) {
		err := scope.Execute(ctx, func(outer context.Context, repos appinv.TransactionalRepositories) error {
			if err := scope.Execute(outer, func(inner context.Context, innerRepos appinv.TransactionalRepositories) error {
				return innerRepos.StockItems().UpdateQuantity(inner, p.Target(), 99)
			}); err != nil {
				return err
			}
			return errors.New("outer fails after inner succeeded")
		})
		require.Error(t, err)

		item, err := NewGormStockItemRepository(db).FindForUpdate(ctx, p.Target())
		require.NoError(t, err)
		assert.Equal(t, int64(5), item.Quantity)
	})

	t.Run("outside Execute there is no transaction", func(t *testing.T) {
		assert.False(t, scope.InTransaction(ctx))
	})
}

func TestGormTransactionScope_TranslatesSerializationFailure(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	scope := NewGormTransactionScope(mockDB.DB)

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectRollback()

	err := scope.Execute(context.Background(), func(ctx context.Context, repos appinv.TransactionalRepositories) error {
		return &pgconn.PgError{Code: pgSerializationFailure, Message: "could not serialize access"}
	})

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	mockDB.ExpectationsWereMet(t)
}
