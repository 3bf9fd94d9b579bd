package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockItemRepository_FindForUpdate_SQL(t *testing.T) {
	t.Run("product rows are locked and report their type", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewGormStockItemRepository(mockDB.DB)
		id := uuid.New()

		mockDB.Mock.ExpectQuery(`SELECT id, id AS parent_id, product_type, quantity FROM "products" WHERE id = \$1 .*FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id", "product_type", "quantity"}).
				AddRow(id.String(), id.String(), "simple", 12))

		item, err := repo.FindForUpdate(context.Background(), ledger.ProductTarget(id))
		require.NoError(t, err)
		assert.Equal(t, id, item.ParentProductID)
		assert.Equal(t, catalog.ProductTypeSimple, item.ProductType)
		assert.Equal(t, int64(12), item.Quantity)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("variation rows resolve their parent", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewGormStockItemRepository(mockDB.DB)
		id, parentID := uuid.New(), uuid.New()

		mockDB.Mock.ExpectQuery(`SELECT id, product_id AS parent_id, quantity FROM "variations" WHERE id = \$1 .*FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id", "quantity"}).
				AddRow(id.String(), parentID.String(), 4))

		item, err := repo.FindForUpdate(context.Background(), ledger.VariationTarget(id))
		require.NoError(t, err)
		assert.Equal(t, parentID, item.ParentProductID)
		assert.Equal(t, int64(4), item.Quantity)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("invalid target never reaches the database", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewGormStockItemRepository(mockDB.DB)

		_, err := repo.FindForUpdate(context.Background(), ledger.TargetRef{})
		assert.ErrorIs(t, err, shared.ErrInvalidTarget)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestGormStockItemRepository_UpdateQuantity_SQL(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewGormStockItemRepository(mockDB.DB)
	id := uuid.New()

	mockDB.Mock.ExpectExec(`UPDATE "accessories" SET "quantity"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WithArgs(int64(9), sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateQuantity(context.Background(), ledger.AccessoryTarget(id), 9))
	mockDB.ExpectationsWereMet(t)
}

func TestGormStockItemRepository_SQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	products := NewGormProductRepository(db)
	accessories := NewGormAccessoryRepository(db)
	repo := NewGormStockItemRepository(db)
	ctx := context.Background()

	box := newTestProduct(t, "Gift Box", "", catalog.ProductTypeCustomisable)
	require.NoError(t, products.Create(ctx, box))
	ribbon, err := catalog.NewAccessory(box.ID, "Ribbon")
	require.NoError(t, err)
	require.NoError(t, accessories.Create(ctx, ribbon))

	t.Run("reads product counter and type", func(t *testing.T) {
		item, err := repo.FindForUpdate(ctx, box.Target())
		require.NoError(t, err)
		assert.Equal(t, catalog.ProductTypeCustomisable, item.ProductType)
		assert.Equal(t, box.ID, item.ParentProductID)
		assert.ErrorIs(t, item.CheckStockBearing(), shared.ErrTypeMismatch)
	})

	t.Run("reads and writes accessory counter", func(t *testing.T) {
		require.NoError(t, repo.UpdateQuantity(ctx, ribbon.Target(), 25))

		item, err := repo.FindForUpdate(ctx, ribbon.Target())
		require.NoError(t, err)
		assert.Equal(t, int64(25), item.Quantity)
		assert.Equal(t, box.ID, item.ParentProductID)
		assert.NoError(t, item.CheckStockBearing())
	})

	t.Run("missing rows are NOT_FOUND", func(t *testing.T) {
		_, err := repo.FindForUpdate(ctx, ledger.VariationTarget(uuid.New()))
		assert.ErrorIs(t, err, shared.ErrNotFound)

		err = repo.UpdateQuantity(ctx, ledger.VariationTarget(uuid.New()), 1)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("negative quantities are refused", func(t *testing.T) {
		err := repo.UpdateQuantity(ctx, ribbon.Target(), -1)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})
}
