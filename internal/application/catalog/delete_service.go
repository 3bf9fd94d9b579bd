package catalog

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// stockHolder is an item about to be removed together with its quantity
type stockHolder struct {
	target   ledger.TargetRef
	quantity int64
}

// DeleteItem zeroes the remaining stock of the item behind target with an
// adjustment_out_delete movement, then removes the row. Deleting a product
// does the same for each of its variations and accessories first. Everything
// commits in one transaction; the movements outlive the rows.
func (s *Service) DeleteItem(ctx context.Context, target ledger.TargetRef, actorID *uuid.UUID) (*DeleteItemResponse, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "delete_item",
		telemetry.WithAttribute(telemetry.AttrTargetKind, target.Kind().String()),
		telemetry.WithAttribute(telemetry.AttrTargetID, target.ID().String()),
	)
	defer span.End()

	log := logger.WithLogger(ctx, s.logger).With(zap.Stringer("target", target))

	var (
		movements []*ledger.Movement
		removed   int
		err       error
	)
	if target.Kind() == ledger.TargetProduct {
		movements, removed, err = s.deleteProduct(ctx, log, target, actorID)
	} else {
		movements, removed, err = s.deleteChild(ctx, log, target, actorID)
	}
	if err != nil {
		s.logFailure(log, "Item deletion failed", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	zeroed := -ledger.Reconcile(movements)
	telemetry.SetAttributes(span, telemetry.AttrChildCount, removed-1)
	telemetry.SetOK(span)
	log.Info("Item deleted",
		zap.Int("removed_items", removed),
		zap.Int("zero_out_movements", len(movements)),
		zap.Int64("zeroed_quantity", zeroed))

	resp := &DeleteItemResponse{
		TargetKind:      target.Kind().String(),
		TargetID:        target.ID(),
		RemovedItems:    removed,
		ZeroedQuantity:  zeroed,
		ZeroedMovements: make([]inventory.MovementResponse, 0, len(movements)),
	}
	for _, m := range movements {
		resp.ZeroedMovements = append(resp.ZeroedMovements, inventory.ToMovementResponse(m))
	}
	return resp, nil
}

func (s *Service) deleteChild(ctx context.Context, log *zap.Logger, target ledger.TargetRef, actorID *uuid.UUID) ([]*ledger.Movement, int, error) {
	var zeroed []*ledger.Movement
	err := s.write(ctx, log, []string{target.LockKey()}, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
		zeroed = nil
		item, err := repos.StockItems().FindForUpdate(ctx, target)
		if err != nil {
			return err
		}
		m, err := s.zeroOut(ctx, target, item.Quantity, actorID)
		if err != nil {
			return err
		}
		if m != nil {
			zeroed = append(zeroed, m)
		}
		if target.Kind() == ledger.TargetVariation {
			return repos.Variations().Delete(ctx, target.ID())
		}
		return repos.Accessories().Delete(ctx, target.ID())
	})
	if err != nil {
		return nil, 0, err
	}
	return zeroed, 1, nil
}

// deleteProduct locks the product first, so no child can be added, then locks
// the children it found in global key order.
func (s *Service) deleteProduct(ctx context.Context, log *zap.Logger, target ledger.TargetRef, actorID *uuid.UUID) ([]*ledger.Movement, int, error) {
	var (
		zeroed  []*ledger.Movement
		removed int
	)
	attempts, err := s.retrier.Do(ctx, log, func(ctx context.Context) error {
		productCtx, releaseProduct, err := s.locker.Acquire(ctx, target.LockKey())
		if err != nil {
			return err
		}
		defer releaseProduct()

		keys, err := s.childLockKeys(productCtx, target.ID())
		if err != nil {
			return err
		}
		lockCtx, releaseChildren, err := s.locker.Acquire(productCtx, keys...)
		if err != nil {
			return err
		}
		defer releaseChildren()

		return s.scope.Execute(lockCtx, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
			zeroed, removed = nil, 0

			product, err := repos.Products().FindByID(ctx, target.ID())
			if err != nil {
				return err
			}
			holders, err := loadChildren(ctx, repos, product.ID)
			if err != nil {
				return err
			}
			if product.HoldsOwnStock() {
				holders = append([]stockHolder{{target: product.Target(), quantity: product.Quantity}}, holders...)
			}

			for _, h := range holders {
				m, err := s.zeroOut(ctx, h.target, h.quantity, actorID)
				if err != nil {
					return err
				}
				if m != nil {
					zeroed = append(zeroed, m)
				}
			}

			for _, h := range holders {
				switch h.target.Kind() {
				case ledger.TargetVariation:
					err = repos.Variations().Delete(ctx, h.target.ID())
				case ledger.TargetAccessory:
					err = repos.Accessories().Delete(ctx, h.target.ID())
				default:
					continue
				}
				if err != nil {
					return err
				}
				removed++
			}
			if err := repos.Products().Delete(ctx, product.ID); err != nil {
				return err
			}
			removed++
			return nil
		})
	})
	if err != nil {
		if inventory.IsRetryable(err) {
			return nil, 0, busyError(attempts)
		}
		return nil, 0, err
	}
	return zeroed, removed, nil
}

// childLockKeys returns the lock keys of a product's variations and accessories
func (s *Service) childLockKeys(ctx context.Context, productID uuid.UUID) ([]string, error) {
	variations, err := s.repos.Variations.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	accessories, err := s.repos.Accessories.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(variations)+len(accessories))
	for i := range variations {
		keys = append(keys, variations[i].Target().LockKey())
	}
	for i := range accessories {
		keys = append(keys, accessories[i].Target().LockKey())
	}
	return keys, nil
}

// loadChildren reads a product's children inside the transaction, sorted in
// lock order.
func loadChildren(ctx context.Context, repos inventory.TransactionalRepositories, productID uuid.UUID) ([]stockHolder, error) {
	variations, err := repos.Variations().FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	accessories, err := repos.Accessories().FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	holders := make([]stockHolder, 0, len(variations)+len(accessories))
	for i := range variations {
		holders = append(holders, stockHolder{target: variations[i].Target(), quantity: variations[i].Quantity})
	}
	for i := range accessories {
		holders = append(holders, stockHolder{target: accessories[i].Target(), quantity: accessories[i].Quantity})
	}
	sort.Slice(holders, func(i, j int) bool {
		return holders[i].target.LockKey() < holders[j].target.LockKey()
	})
	return holders, nil
}
