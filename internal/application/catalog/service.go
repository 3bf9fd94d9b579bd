// Package catalog manages the lifecycle of products, variations and
// accessories. Every quantity change it makes is routed through the stock
// engine inside the same transaction as the row write.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// StockAdjuster applies a signed quantity change. It joins the transaction
// carried by ctx and expects the target's lock to be held already.
type StockAdjuster interface {
	ApplySigned(ctx context.Context, cmd inventory.SignedAdjustCommand) (*inventory.AdjustResult, error)
}

// Repositories are the read paths used outside a transaction
type Repositories struct {
	Products    catalog.ProductRepository
	Variations  catalog.VariationRepository
	Accessories catalog.AccessoryRepository
}

// Service handles catalog writes and reads
type Service struct {
	scope   inventory.TransactionScope
	locker  shared.KeyedLocker
	stock   StockAdjuster
	repos   Repositories
	retrier *inventory.Retrier
	logger  *zap.Logger
}

// NewService creates a new catalog Service
func NewService(
	scope inventory.TransactionScope,
	locker shared.KeyedLocker,
	stock StockAdjuster,
	repos Repositories,
	log *zap.Logger,
	retry inventory.EngineConfig,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		scope:   scope,
		locker:  locker,
		stock:   stock,
		repos:   repos,
		retrier: inventory.NewRetrier(retry),
		logger:  log,
	}
}

// write takes the locks for keys, then runs fn in a single transaction. The
// whole unit is retried when it loses a race.
func (s *Service) write(ctx context.Context, log *zap.Logger, keys []string, fn func(ctx context.Context, repos inventory.TransactionalRepositories) error) error {
	attempts, err := s.retrier.Do(ctx, log, func(ctx context.Context) error {
		lockCtx, release, err := s.locker.Acquire(ctx, keys...)
		if err != nil {
			return err
		}
		defer release()
		return s.scope.Execute(lockCtx, fn)
	})
	if err != nil && inventory.IsRetryable(err) {
		return busyError(attempts)
	}
	return err
}

func busyError(attempts int) error {
	return shared.NewDomainError(shared.CodeConcurrencyConflict,
		fmt.Sprintf("catalog item is busy, gave up after %d attempts", attempts))
}

// setQuantity moves the item behind target to an absolute quantity with a
// single adjustment_in or adjustment_out movement. Equal quantities write
// nothing.
func (s *Service) setQuantity(ctx context.Context, target ledger.TargetRef, current, wanted int64, remarks string, actorID *uuid.UUID) (int64, *ledger.Movement, error) {
	if wanted < 0 {
		return current, nil, shared.NewValidationError("quantity cannot be negative")
	}
	delta := wanted - current
	if delta == 0 {
		return current, nil, nil
	}
	if remarks == "" {
		remarks = "quantity updated"
	}
	result, err := s.stock.ApplySigned(ctx, inventory.SignedAdjustCommand{
		Target:  target,
		Type:    ledger.AdjustmentTypeFor(delta),
		Delta:   delta,
		Remarks: remarks,
		ActorID: actorID,
	})
	if err != nil {
		return current, nil, err
	}
	return result.NewQuantity, result.Movement, nil
}

// bookInitialStock records the opening quantity of a freshly inserted item
func (s *Service) bookInitialStock(ctx context.Context, target ledger.TargetRef, quantity int64, actorID *uuid.UUID) (int64, error) {
	if quantity == 0 {
		return 0, nil
	}
	result, err := s.stock.ApplySigned(ctx, inventory.SignedAdjustCommand{
		Target:  target,
		Type:    ledger.MovementInitialStock,
		Delta:   quantity,
		Remarks: "initial stock",
		ActorID: actorID,
	})
	if err != nil {
		return 0, err
	}
	return result.NewQuantity, nil
}

// zeroOut empties the item before its row is removed
func (s *Service) zeroOut(ctx context.Context, target ledger.TargetRef, quantity int64, actorID *uuid.UUID) (*ledger.Movement, error) {
	if quantity == 0 {
		return nil, nil
	}
	result, err := s.stock.ApplySigned(ctx, inventory.SignedAdjustCommand{
		Target:  target,
		Type:    ledger.MovementDeleteZeroOut,
		Delta:   -quantity,
		Remarks: fmt.Sprintf("%s deleted", target.Kind()),
		ActorID: actorID,
	})
	if err != nil {
		return nil, err
	}
	return result.Movement, nil
}

func validateInitialQuantity(quantity int64) error {
	if quantity < 0 {
		return shared.NewValidationError("initial quantity cannot be negative")
	}
	return nil
}

func (s *Service) logFailure(log *zap.Logger, msg string, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		log.Warn(msg, zap.String("code", domainErr.Code), zap.Error(err))
		return
	}
	log.Error(msg, zap.Error(err))
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
