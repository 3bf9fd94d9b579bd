package inventory

import (
	"context"

	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the item and ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs fn within a database transaction. The transaction commits when
	// fn returns nil and rolls back on an error or a panic. If ctx already carries
	// a transaction opened by an outer Execute, fn joins it and the outer call
	// owns commit and rollback.
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error

	// InTransaction reports whether ctx carries an open transaction
	InTransaction(ctx context.Context) bool
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// StockItems is the only write path to quantity counters and Movements is
// append-only, so a quantity change and its ledger record always land in the
// same transaction.
type TransactionalRepositories interface {
	StockItems() catalog.StockItemRepository
	Movements() ledger.MovementRepository
	Products() catalog.ProductRepository
	Variations() catalog.VariationRepository
	Accessories() catalog.AccessoryRepository
}

type noOpScopeKey struct{}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing with in-memory repositories.
type NoOpTransactionScope struct {
	stockItems  catalog.StockItemRepository
	movements   ledger.MovementRepository
	products    catalog.ProductRepository
	variations  catalog.VariationRepository
	accessories catalog.AccessoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockItems catalog.StockItemRepository,
	movements ledger.MovementRepository,
	products catalog.ProductRepository,
	variations catalog.VariationRepository,
	accessories catalog.AccessoryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockItems:  stockItems,
		movements:   movements,
		products:    products,
		variations:  variations,
		accessories: accessories,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error {
	return fn(context.WithValue(ctx, noOpScopeKey{}, true), s)
}

// InTransaction reports whether ctx was produced by Execute
func (s *NoOpTransactionScope) InTransaction(ctx context.Context) bool {
	in, _ := ctx.Value(noOpScopeKey{}).(bool)
	return in
}

// StockItems returns the stock item repository.
func (s *NoOpTransactionScope) StockItems() catalog.StockItemRepository {
	return s.stockItems
}

// Movements returns the movement repository.
func (s *NoOpTransactionScope) Movements() ledger.MovementRepository {
	return s.movements
}

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() catalog.ProductRepository {
	return s.products
}

// Variations returns the variation repository.
func (s *NoOpTransactionScope) Variations() catalog.VariationRepository {
	return s.variations
}

// Accessories returns the accessory repository.
func (s *NoOpTransactionScope) Accessories() catalog.AccessoryRepository {
	return s.accessories
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
