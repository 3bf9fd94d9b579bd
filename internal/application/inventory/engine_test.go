package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/lock"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fastRetries = inventory.EngineConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

type ledgerFixture struct {
	db        *gorm.DB
	scope     *persistence.GormTransactionScope
	engine    *inventory.Engine
	products  *persistence.GormProductRepository
	movements *persistence.GormMovementRepository
	stock     *persistence.GormStockItemRepository
}

func newLedgerFixture(t *testing.T, locker shared.KeyedLocker) *ledgerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	if locker == nil {
		locker = lock.NewMemoryLocker(5 * time.Second)
	}
	scope := persistence.NewGormTransactionScope(db)
	return &ledgerFixture{
		db:        db,
		scope:     scope,
		engine:    inventory.NewEngine(scope, locker, zap.NewNop(), fastRetries),
		products:  persistence.NewGormProductRepository(db),
		movements: persistence.NewGormMovementRepository(db),
		stock:     persistence.NewGormStockItemRepository(db),
	}
}

// seedProduct creates a product and, for a non-zero quantity, books it as
// initial stock through the engine.
func (f *ledgerFixture) seedProduct(t *testing.T, productType catalog.ProductType, quantity int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Item "+uuid.NewString()[:8], "", productType)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(context.Background(), p))
	if quantity > 0 {
		_, err := f.engine.ApplySigned(context.Background(), inventory.SignedAdjustCommand{
			Target: p.Target(),
			Type:   ledger.MovementInitialStock,
			Delta:  quantity,
		})
		require.NoError(t, err)
	}
	return p
}

func (f *ledgerFixture) seedVariation(t *testing.T, parent *catalog.Product) *catalog.Variation {
	t.Helper()
	v, err := catalog.NewVariation(parent.ID, "Size", uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormVariationRepository(f.db).Create(context.Background(), v))
	return v
}

func (f *ledgerFixture) quantity(t *testing.T, target ledger.TargetRef) int64 {
	t.Helper()
	item, err := f.stock.FindForUpdate(context.Background(), target)
	require.NoError(t, err)
	return item.Quantity
}

// assertReconciled checks that the counter equals the sum of its movements
func (f *ledgerFixture) assertReconciled(t *testing.T, target ledger.TargetRef) {
	t.Helper()
	sum, err := f.movements.SumByTarget(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, f.quantity(t, target), sum, "quantity must equal the ledger sum for %s", target)
}

func (f *ledgerFixture) movementCount(t *testing.T, target ledger.TargetRef) int64 {
	t.Helper()
	id := target.ID()
	n, err := f.movements.Count(context.Background(), ledger.MovementFilter{TargetKind: target.Kind(), TargetID: &id})
	require.NoError(t, err)
	return n
}

// contendedLocker fails the first failures acquisitions with a lock timeout and
// then delegates to next. A nil next fails forever.
type contendedLocker struct {
	calls    atomic.Int32
	failures int32
	next     shared.KeyedLocker
}

func (l *contendedLocker) Acquire(ctx context.Context, keys ...string) (context.Context, func(), error) {
	n := l.calls.Add(1)
	if l.next == nil || n <= l.failures {
		return ctx, func() {}, fmt.Errorf("%w: %s", shared.ErrLockTimeout, keys[0])
	}
	return l.next.Acquire(ctx, keys...)
}

func TestEngine_Apply(t *testing.T) {
	f := newLedgerFixture(t, nil)
	ctx := context.Background()
	actor := testutil.TestUserID()
	p := f.seedProduct(t, catalog.ProductTypeSimple, 10)

	t.Run("outbound type subtracts the magnitude", func(t *testing.T) {
		result, err := f.engine.Apply(ctx, inventory.AdjustCommand{
			Target:    p.Target(),
			Type:      ledger.MovementDamaged,
			Magnitude: 4,
			Remarks:   "water damage",
			ActorID:   &actor,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(10), result.PreviousQuantity)
		assert.Equal(t, int64(6), result.NewQuantity)
		require.NotNil(t, result.Movement)
		assert.Equal(t, int64(-4), result.Movement.QuantityDelta)
		assert.Equal(t, p.ID, result.Movement.ParentProductID)
		assert.Equal(t, "water damage", result.Movement.Remarks)
		assert.Equal(t, actor, *result.Movement.ActorID)
		f.assertReconciled(t, p.Target())
	})

	t.Run("inbound type adds the magnitude", func(t *testing.T) {
		result, err := f.engine.Apply(ctx, inventory.AdjustCommand{
			Target:    p.Target(),
			Type:      ledger.MovementReturn,
			Magnitude: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(8), result.NewQuantity)
		f.assertReconciled(t, p.Target())
	})

	t.Run("zero magnitude is a validation error", func(t *testing.T) {
		_, err := f.engine.Apply(ctx, inventory.AdjustCommand{Target: p.Target(), Type: ledger.MovementAdjustmentIn})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("zero target is rejected", func(t *testing.T) {
		_, err := f.engine.Apply(ctx, inventory.AdjustCommand{Type: ledger.MovementAdjustmentIn, Magnitude: 1})
		assert.ErrorIs(t, err, shared.ErrInvalidTarget)
	})

	t.Run("missing item is NOT_FOUND", func(t *testing.T) {
		_, err := f.engine.Apply(ctx, inventory.AdjustCommand{
			Target:    ledger.AccessoryTarget(uuid.New()),
			Type:      ledger.MovementAdjustmentIn,
			Magnitude: 1,
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestEngine_InsufficientStockWritesNothing(t *testing.T) {
	f := newLedgerFixture(t, nil)
	p := f.seedProduct(t, catalog.ProductTypeSimple, 10)

	_, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
		Target:    p.Target(),
		Type:      ledger.MovementAdjustmentOut,
		Magnitude: 15,
	})

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, int64(10), f.quantity(t, p.Target()))
	assert.Equal(t, int64(1), f.movementCount(t, p.Target()))
	f.assertReconciled(t, p.Target())
}

func TestEngine_OverflowingIncreaseIsValidationError(t *testing.T) {
	f := newLedgerFixture(t, nil)
	p := f.seedProduct(t, catalog.ProductTypeSimple, 5)

	_, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
		Target:    p.Target(),
		Type:      ledger.MovementAdjustmentIn,
		Magnitude: math.MaxInt64,
	})

	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.NotErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, int64(5), f.quantity(t, p.Target()))
	assert.Equal(t, int64(1), f.movementCount(t, p.Target()))
}

func TestEngine_NonSimpleProductIsTypeMismatch(t *testing.T) {
	f := newLedgerFixture(t, nil)
	shirt := f.seedProduct(t, catalog.ProductTypeVariable, 0)

	_, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
		Target:    shirt.Target(),
		Type:      ledger.MovementAdjustmentIn,
		Magnitude: 3,
	})
	assert.ErrorIs(t, err, shared.ErrTypeMismatch)

	variation := f.seedVariation(t, shirt)
	result, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
		Target:    variation.Target(),
		Type:      ledger.MovementAdjustmentIn,
		Magnitude: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, shirt.ID, result.Movement.ParentProductID)
	assert.Equal(t, ledger.VariationTarget(variation.ID), result.Movement.Target)
}

func TestEngine_ApplySigned(t *testing.T) {
	f := newLedgerFixture(t, nil)
	ctx := context.Background()
	p := f.seedProduct(t, catalog.ProductTypeSimple, 5)

	t.Run("sign contradicting the type is rejected", func(t *testing.T) {
		_, err := f.engine.ApplySigned(ctx, inventory.SignedAdjustCommand{
			Target: p.Target(),
			Type:   ledger.MovementAdjustmentOut,
			Delta:  3,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := f.engine.ApplySigned(ctx, inventory.SignedAdjustCommand{
			Target: p.Target(),
			Type:   "transfer",
			Delta:  3,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("zero delta writes nothing", func(t *testing.T) {
		result, err := f.engine.ApplySigned(ctx, inventory.SignedAdjustCommand{
			Target: p.Target(),
			Type:   ledger.MovementAdjustmentIn,
		})
		require.NoError(t, err)
		assert.Nil(t, result.Movement)
		assert.Equal(t, int64(5), result.NewQuantity)
		assert.Equal(t, int64(1), f.movementCount(t, p.Target()))
	})

	t.Run("delete zero-out empties the item", func(t *testing.T) {
		result, err := f.engine.ApplySigned(ctx, inventory.SignedAdjustCommand{
			Target: p.Target(),
			Type:   ledger.MovementDeleteZeroOut,
			Delta:  -5,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.NewQuantity)
		assert.Equal(t, ledger.MovementDeleteZeroOut, result.Movement.Type)
		f.assertReconciled(t, p.Target())
	})
}

func TestEngine_ConcurrentAdjustments(t *testing.T) {
	t.Run("+5 and -3 against 10 end at 12", func(t *testing.T) {
		f := newLedgerFixture(t, nil)
		p := f.seedProduct(t, catalog.ProductTypeSimple, 10)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, cmd := range []inventory.AdjustCommand{
			{Target: p.Target(), Type: ledger.MovementAdjustmentIn, Magnitude: 5},
			{Target: p.Target(), Type: ledger.MovementAdjustmentOut, Magnitude: 3},
		} {
			wg.Add(1)
			go func(cmd inventory.AdjustCommand) {
				defer wg.Done()
				_, err := f.engine.Apply(context.Background(), cmd)
				errs <- err
			}(cmd)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		assert.Equal(t, int64(12), f.quantity(t, p.Target()))
		assert.Equal(t, int64(3), f.movementCount(t, p.Target()))
		f.assertReconciled(t, p.Target())
	})

	t.Run("competing sales never oversell", func(t *testing.T) {
		f := newLedgerFixture(t, nil)
		p := f.seedProduct(t, catalog.ProductTypeSimple, 10)

		const buyers = 16
		var wg sync.WaitGroup
		var sold, refused atomic.Int32
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
					Target:    p.Target(),
					Type:      ledger.MovementSale,
					Magnitude: 1,
				})
				switch {
				case err == nil:
					sold.Add(1)
				case errors.Is(err, shared.ErrInsufficientStock):
					refused.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(10), sold.Load())
		assert.Equal(t, int32(buyers-10), refused.Load())
		assert.Equal(t, int64(0), f.quantity(t, p.Target()))
		f.assertReconciled(t, p.Target())
	})
}

func TestEngine_Retry(t *testing.T) {
	t.Run("exhausted retries become CONCURRENCY_CONFLICT", func(t *testing.T) {
		locker := &contendedLocker{}
		f := newLedgerFixture(t, locker)
		p := f.seedProductDirect(t)

		_, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
			Target:    p.Target(),
			Type:      ledger.MovementAdjustmentIn,
			Magnitude: 1,
		})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Contains(t, err.Error(), "3 attempts")
		assert.Equal(t, int32(fastRetries.MaxRetries+1), locker.calls.Load())
	})

	t.Run("transient contention is retried", func(t *testing.T) {
		locker := &contendedLocker{failures: 2, next: lock.NewMemoryLocker(time.Second)}
		f := newLedgerFixture(t, locker)
		p := f.seedProductDirect(t)

		result, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
			Target:    p.Target(),
			Type:      ledger.MovementAdjustmentIn,
			Magnitude: 7,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), result.NewQuantity)
		assert.Equal(t, int32(3), locker.calls.Load())
		assert.Equal(t, int64(1), f.movementCount(t, p.Target()))
	})

	t.Run("business rejections are not retried", func(t *testing.T) {
		locker := &contendedLocker{next: lock.NewMemoryLocker(time.Second)}
		f := newLedgerFixture(t, locker)
		p := f.seedProductDirect(t)

		_, err := f.engine.Apply(context.Background(), inventory.AdjustCommand{
			Target:    p.Target(),
			Type:      ledger.MovementSale,
			Magnitude: 1,
		})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, int32(1), locker.calls.Load())
	})

	t.Run("nested calls leave retrying to the caller", func(t *testing.T) {
		locker := &contendedLocker{}
		f := newLedgerFixture(t, locker)
		p := f.seedProductDirect(t)

		err := f.scope.Execute(context.Background(), func(ctx context.Context, _ inventory.TransactionalRepositories) error {
			_, err := f.engine.Apply(ctx, inventory.AdjustCommand{
				Target:    p.Target(),
				Type:      ledger.MovementAdjustmentIn,
				Magnitude: 1,
			})
			return err
		})

		assert.ErrorIs(t, err, shared.ErrLockTimeout)
		assert.Equal(t, int32(1), locker.calls.Load())
	})
}

// seedProductDirect inserts an empty simple product without going through the engine
func (f *ledgerFixture) seedProductDirect(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Direct "+uuid.NewString()[:8], "", catalog.ProductTypeSimple)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

// failingAppendScope runs the real transaction but swaps in a movement
// repository whose Append always fails.
type failingAppendScope struct {
	inventory.TransactionScope
}

type failingAppendRepos struct {
	inventory.TransactionalRepositories
}

type failingMovements struct {
	ledger.MovementRepository
}

func (failingMovements) Append(context.Context, *ledger.Movement) error {
	return errors.New("ledger unavailable")
}

func (r failingAppendRepos) Movements() ledger.MovementRepository {
	return failingMovements{r.TransactionalRepositories.Movements()}
}

func (s failingAppendScope) Execute(ctx context.Context, fn func(context.Context, inventory.TransactionalRepositories) error) error {
	return s.TransactionScope.Execute(ctx, func(txCtx context.Context, repos inventory.TransactionalRepositories) error {
		return fn(txCtx, failingAppendRepos{repos})
	})
}

func TestEngine_RollsBackWhenAppendFails(t *testing.T) {
	f := newLedgerFixture(t, nil)
	p := f.seedProduct(t, catalog.ProductTypeSimple, 10)

	engine := inventory.NewEngine(failingAppendScope{f.scope}, lock.NewMemoryLocker(time.Second), zap.NewNop(), fastRetries)
	_, err := engine.Apply(context.Background(), inventory.AdjustCommand{
		Target:    p.Target(),
		Type:      ledger.MovementAdjustmentIn,
		Magnitude: 5,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger unavailable")
	assert.Equal(t, int64(10), f.quantity(t, p.Target()))
	f.assertReconciled(t, p.Target())
}

func TestNewEngine_NormalizesConfig(t *testing.T) {
	f := newLedgerFixture(t, nil)
	engine := inventory.NewEngine(f.scope, lock.NewMemoryLocker(time.Second), nil, inventory.EngineConfig{MaxRetries: -1})
	p := f.seedProductDirect(t)

	result, err := engine.Apply(context.Background(), inventory.AdjustCommand{
		Target:    p.Target(),
		Type:      ledger.MovementInitialStock,
		Magnitude: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.NewQuantity)
	assert.Equal(t, 3, inventory.DefaultEngineConfig().MaxRetries)
}
