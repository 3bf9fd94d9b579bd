//go:build integration

package persistence_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// passThroughLocker grants every key at once, leaving row locks as the only
// serialisation between writers.
type passThroughLocker struct{}

func (passThroughLocker) Acquire(ctx context.Context, _ ...string) (context.Context, func(), error) {
	return ctx, func() {}, nil
}

func seedSimpleProduct(t *testing.T, engine *inventory.Engine, products *persistence.GormProductRepository, quantity uint) *catalog.Product {
	t.Helper()
	ctx := context.Background()

	p, err := catalog.NewProduct("Mug "+uuid.NewString()[:8], "", catalog.ProductTypeSimple)
	require.NoError(t, err)
	require.NoError(t, products.Create(ctx, p))

	if quantity > 0 {
		_, err = engine.Apply(ctx, inventory.AdjustCommand{
			Target:    ledger.ProductTarget(p.ID),
			Type:      ledger.MovementInitialStock,
			Magnitude: quantity,
		})
		require.NoError(t, err)
	}
	return p
}

func TestPostgres_Ledger(t *testing.T) {
	db := testutil.NewPostgresDB(t)
	ctx := context.Background()

	products := persistence.NewGormProductRepository(db)
	movements := persistence.NewGormMovementRepository(db)
	scope := persistence.NewGormTransactionScope(db)
	engine := inventory.NewEngine(scope, passThroughLocker{}, zap.NewNop(), inventory.DefaultEngineConfig())

	t.Run("row locks serialise concurrent withdrawals", func(t *testing.T) {
		p := seedSimpleProduct(t, engine, products, 15)
		target := ledger.ProductTarget(p.ID)

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded, refused := 0, 0
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := engine.Apply(ctx, inventory.AdjustCommand{Target: target, Type: ledger.MovementSale, Magnitude: 1})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
					return
				}
				assert.ErrorIs(t, err, shared.ErrInsufficientStock)
				refused++
			}()
		}
		wg.Wait()

		assert.Equal(t, 15, succeeded)
		assert.Equal(t, 5, refused)

		got, err := products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Quantity)

		sum, err := movements.SumByTarget(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, got.Quantity, sum)
	})

	t.Run("movement outlives a deleted product", func(t *testing.T) {
		p := seedSimpleProduct(t, engine, products, 4)
		target := ledger.ProductTarget(p.ID)

		err := scope.Execute(ctx, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
			if _, err := engine.ApplySigned(ctx, inventory.SignedAdjustCommand{Target: target, Type: ledger.MovementDeleteZeroOut, Delta: -4}); err != nil {
				return err
			}
			return repos.Products().Delete(ctx, p.ID)
		})
		require.NoError(t, err)

		list, err := movements.Find(ctx, ledger.MovementFilter{TargetKind: ledger.TargetProduct, TargetID: &p.ID})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("type prefix filter and newest-first order", func(t *testing.T) {
		p := seedSimpleProduct(t, engine, products, 10)
		target := ledger.ProductTarget(p.ID)
		for _, typ := range []ledger.MovementType{ledger.MovementAdjustmentIn, ledger.MovementAdjustmentOut, ledger.MovementDamaged} {
			_, err := engine.Apply(ctx, inventory.AdjustCommand{Target: target, Type: typ, Magnitude: 1})
			require.NoError(t, err)
		}

		adjustments, err := movements.Find(ctx, ledger.MovementFilter{TargetID: &p.ID, TypePrefix: "adjustment"})
		require.NoError(t, err)
		assert.Len(t, adjustments, 2)

		all, err := movements.Find(ctx, ledger.MovementFilter{ParentProductID: &p.ID})
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "newest first")
		}
	})
}

func TestPostgres_SchemaConstraints(t *testing.T) {
	db := testutil.NewPostgresDB(t)

	productID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, name, product_type, quantity) VALUES (?, 'Kettle', 'simple', 0)`, productID,
	).Error)

	t.Run("quantity cannot go negative", func(t *testing.T) {
		err := db.Exec(`UPDATE products SET quantity = -1 WHERE id = ?`, productID).Error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chk_products_quantity")
	})

	t.Run("a movement names exactly one target", func(t *testing.T) {
		err := db.Exec(`INSERT INTO stock_movements (id, product_id, variation_id, parent_product_id, movement_type, quantity_changed)
			VALUES (?, ?, ?, ?, 'adjustment_in', 1)`, uuid.New(), productID, uuid.New(), productID).Error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chk_stock_movements_single_target")

		err = db.Exec(`INSERT INTO stock_movements (id, parent_product_id, movement_type, quantity_changed)
			VALUES (?, ?, 'adjustment_in', 1)`, uuid.New(), productID).Error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chk_stock_movements_single_target")
	})

	t.Run("a movement cannot be zero", func(t *testing.T) {
		err := db.Exec(`INSERT INTO stock_movements (id, product_id, parent_product_id, movement_type, quantity_changed)
			VALUES (?, ?, ?, 'adjustment_in', 0)`, uuid.New(), productID, productID).Error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chk_stock_movements_nonzero")
	})

	t.Run("variation attribute pair is unique", func(t *testing.T) {
		variable := uuid.New()
		require.NoError(t, db.Exec(`INSERT INTO products (id, name, product_type) VALUES (?, 'Shirt', 'variable')`, variable).Error)
		insert := `INSERT INTO variations (id, product_id, attribute_name, attribute_value) VALUES (?, ?, 'Color', 'Red')`
		require.NoError(t, db.Exec(insert, uuid.New(), variable).Error)
		assert.Error(t, db.Exec(insert, uuid.New(), variable).Error)
	})
}
