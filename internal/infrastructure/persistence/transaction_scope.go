package persistence

import (
	"context"

	appinv "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactionScope implements TransactionScope using GORM transactions.
// The open transaction travels in the context so nested Execute calls join it.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos appinv.TransactionalRepositories) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx, &gormTransactionalRepositories{tx: tx})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx, &gormTransactionalRepositories{tx: tx})
	})
	return translateTxError(err)
}

// InTransaction reports whether ctx carries a transaction opened by Execute
func (s *GormTransactionScope) InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// StockItems returns the stock item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockItems() catalog.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

// Movements returns the movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Movements() ledger.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

// Products returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Variations returns the variation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Variations() catalog.VariationRepository {
	return NewGormVariationRepository(r.tx)
}

// Accessories returns the accessory repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Accessories() catalog.AccessoryRepository {
	return NewGormAccessoryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
