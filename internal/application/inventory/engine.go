package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// EngineConfig bounds the retry loop around a single adjustment
type EngineConfig struct {
	// MaxRetries is the number of extra attempts after a lock timeout or a
	// serialization failure
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultEngineConfig returns the retry settings used when none are configured
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// AdjustCommand asks for a change of Magnitude units in the direction fixed by Type
type AdjustCommand struct {
	Target    ledger.TargetRef
	Type      ledger.MovementType
	Magnitude uint
	Remarks   string
	ActorID   *uuid.UUID
}

// SignedAdjustCommand carries a caller-computed delta. The sign must agree
// with Type; a zero delta changes nothing.
type SignedAdjustCommand struct {
	Target  ledger.TargetRef
	Type    ledger.MovementType
	Delta   int64
	Remarks string
	ActorID *uuid.UUID
}

// AdjustResult describes a committed adjustment. Movement is nil when the
// delta was zero and nothing was written.
type AdjustResult struct {
	Target           ledger.TargetRef
	PreviousQuantity int64
	NewQuantity      int64
	Movement         *ledger.Movement
}

// Engine is the only writer of quantity counters. Every change it makes is
// paired with exactly one appended movement in the same transaction.
type Engine struct {
	scope   TransactionScope
	locker  shared.KeyedLocker
	logger  *zap.Logger
	retrier *Retrier
}

// NewEngine creates a new Engine
func NewEngine(scope TransactionScope, locker shared.KeyedLocker, log *zap.Logger, cfg EngineConfig) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		scope:   scope,
		locker:  locker,
		logger:  log,
		retrier: NewRetrier(cfg),
	}
}

// Apply converts the unsigned magnitude to a delta using the movement type's
// sign and applies it.
func (e *Engine) Apply(ctx context.Context, cmd AdjustCommand) (*AdjustResult, error) {
	if err := cmd.Target.Validate(); err != nil {
		return nil, err
	}
	delta, err := cmd.Type.Delta(cmd.Magnitude)
	if err != nil {
		return nil, err
	}
	return e.apply(ctx, SignedAdjustCommand{
		Target:  cmd.Target,
		Type:    cmd.Type,
		Delta:   delta,
		Remarks: cmd.Remarks,
		ActorID: cmd.ActorID,
	})
}

// ApplySigned applies a caller-signed delta. It is used by the catalog for
// initial stock, absolute quantity updates and delete zero-outs.
func (e *Engine) ApplySigned(ctx context.Context, cmd SignedAdjustCommand) (*AdjustResult, error) {
	if err := cmd.Target.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Type.IsValid() {
		return nil, shared.NewValidationError("unknown movement type %q", cmd.Type)
	}
	if cmd.Delta != 0 {
		if err := cmd.Type.CheckDelta(cmd.Delta); err != nil {
			return nil, err
		}
	}
	return e.apply(ctx, cmd)
}

func (e *Engine) apply(ctx context.Context, cmd SignedAdjustCommand) (*AdjustResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_engine", "apply",
		telemetry.WithAttribute(telemetry.AttrTargetKind, string(cmd.Target.Kind())),
		telemetry.WithAttribute(telemetry.AttrTargetID, cmd.Target.ID().String()),
		telemetry.WithAttribute(telemetry.AttrMovementType, cmd.Type.String()),
		telemetry.WithAttribute(telemetry.AttrQuantityDelta, cmd.Delta),
	)
	defer span.End()

	log := logger.WithLogger(ctx, e.logger).With(
		zap.Stringer("target", cmd.Target),
		zap.String("movement_type", cmd.Type.String()),
		zap.Int64("delta", cmd.Delta),
	)

	// Inside an open transaction the outer caller owns the retry decision
	nested := e.scope.InTransaction(ctx)
	if nested {
		result, err := e.applyOnce(ctx, cmd)
		if err != nil {
			e.logFailure(log, err)
			telemetry.RecordError(span, err)
			return nil, err
		}
		log.Debug("Stock adjustment staged in outer transaction",
			zap.Int64("new_quantity", result.NewQuantity))
		telemetry.SetOK(span)
		return result, nil
	}

	var result *AdjustResult
	attempts, err := e.retrier.Do(ctx, log, func(ctx context.Context) error {
		r, err := e.applyOnce(ctx, cmd)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if IsRetryable(err) {
			err = shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("stock for %s is busy, gave up after %d attempts", cmd.Target, attempts))
		}
		e.logFailure(log, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.AttrAttempts, attempts)
	telemetry.SetOK(span)
	if result.Movement != nil {
		log.Info("Stock adjusted",
			zap.Int64("previous_quantity", result.PreviousQuantity),
			zap.Int64("new_quantity", result.NewQuantity),
			zap.Int64("magnitude", result.Movement.Magnitude()),
			zap.String("movement_id", result.Movement.ID.String()))
	}
	return result, nil
}

// applyOnce locks the target, then changes the counter and appends the
// movement in one transaction. The lock is always taken before the
// transaction begins.
func (e *Engine) applyOnce(ctx context.Context, cmd SignedAdjustCommand) (*AdjustResult, error) {
	lockCtx, release, err := e.locker.Acquire(ctx, cmd.Target.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	var result *AdjustResult
	err = e.scope.Execute(lockCtx, func(txCtx context.Context, repos TransactionalRepositories) error {
		r, err := adjustWithin(txCtx, repos, cmd)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func adjustWithin(ctx context.Context, repos TransactionalRepositories, cmd SignedAdjustCommand) (*AdjustResult, error) {
	item, err := repos.StockItems().FindForUpdate(ctx, cmd.Target)
	if err != nil {
		return nil, err
	}

	result := &AdjustResult{
		Target:           cmd.Target,
		PreviousQuantity: item.Quantity,
		NewQuantity:      item.Quantity,
	}
	if cmd.Delta == 0 {
		return result, nil
	}

	if err := item.CheckStockBearing(); err != nil {
		return nil, err
	}
	next, err := item.Apply(cmd.Delta)
	if err != nil {
		return nil, err
	}

	movement, err := ledger.NewMovement(cmd.Target, item.ParentProductID, cmd.Type, cmd.Delta, cmd.Remarks, cmd.ActorID)
	if err != nil {
		return nil, err
	}
	if err := repos.StockItems().UpdateQuantity(ctx, cmd.Target, next); err != nil {
		return nil, err
	}
	if err := repos.Movements().Append(ctx, movement); err != nil {
		return nil, err
	}

	result.NewQuantity = next
	result.Movement = movement
	return result, nil
}

func (e *Engine) logFailure(log *zap.Logger, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		log.Warn("Stock adjustment rejected", zap.String("code", domainErr.Code), zap.Error(err))
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn("Stock adjustment abandoned", zap.Error(err))
		return
	}
	log.Error("Stock adjustment failed", zap.Error(err))
}
