package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appcatalog "github.com/stockledger/backend/internal/application/catalog"
	"github.com/stockledger/backend/internal/application/inventory"
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

var testRetry = inventory.EngineConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

type catalogFixture struct {
	db        *gorm.DB
	svc       *appcatalog.Service
	movements *persistence.GormMovementRepository
	stock     *persistence.GormStockItemRepository
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	locker := lock.NewMemoryLocker(5 * time.Second)
	engine := inventory.NewEngine(scope, locker, zap.NewNop(), testRetry)

	svc := appcatalog.NewService(scope, locker, engine, appcatalog.Repositories{
		Products:    persistence.NewGormProductRepository(db),
		Variations:  persistence.NewGormVariationRepository(db),
		Accessories: persistence.NewGormAccessoryRepository(db),
	}, zap.NewNop(), testRetry)

	return &catalogFixture{
		db:        db,
		svc:       svc,
		movements: persistence.NewGormMovementRepository(db),
		stock:     persistence.NewGormStockItemRepository(db),
	}
}

func (f *catalogFixture) movementsFor(t *testing.T, target ledger.TargetRef) []ledger.Movement {
	t.Helper()
	id := target.ID()
	movements, err := f.movements.Find(context.Background(), ledger.MovementFilter{TargetKind: target.Kind(), TargetID: &id})
	require.NoError(t, err)
	return movements
}

func (f *catalogFixture) quantity(t *testing.T, target ledger.TargetRef) int64 {
	t.Helper()
	item, err := f.stock.FindForUpdate(context.Background(), target)
	require.NoError(t, err)
	return item.Quantity
}

func (f *catalogFixture) assertReconciled(t *testing.T, target ledger.TargetRef) {
	t.Helper()
	sum, err := f.movements.SumByTarget(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, f.quantity(t, target), sum)
}

func (f *catalogFixture) createProduct(t *testing.T, productType string, quantity int64) *appcatalog.ProductResponse {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), appcatalog.CreateProductRequest{
		Name:            "Product " + uuid.NewString()[:8],
		ProductType:     productType,
		InitialQuantity: quantity,
	})
	require.NoError(t, err)
	return p
}

func (f *catalogFixture) createVariation(t *testing.T, productID uuid.UUID, value string, quantity int64) *appcatalog.VariationResponse {
	t.Helper()
	v, err := f.svc.CreateVariation(context.Background(), appcatalog.CreateVariationRequest{
		ProductID:       productID,
		AttributeName:   "Color",
		AttributeValue:  value,
		InitialQuantity: quantity,
	})
	require.NoError(t, err)
	return v
}

func (f *catalogFixture) createAccessory(t *testing.T, productID uuid.UUID, name string, quantity int64) *appcatalog.AccessoryResponse {
	t.Helper()
	a, err := f.svc.CreateAccessory(context.Background(), appcatalog.CreateAccessoryRequest{
		ProductID:       productID,
		Name:            name,
		InitialQuantity: quantity,
	})
	require.NoError(t, err)
	return a
}

func requireDomainCode(t *testing.T, err error, want *shared.DomainError) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, want, "got %v", err)
}

// movementOfType returns the single movement of the given type
func movementOfType(t *testing.T, movements []ledger.Movement, movementType ledger.MovementType) ledger.Movement {
	t.Helper()
	var found []ledger.Movement
	for _, m := range movements {
		if m.Type == movementType {
			found = append(found, m)
		}
	}
	require.Len(t, found, 1, "expected exactly one %s movement", movementType)
	return found[0]
}
