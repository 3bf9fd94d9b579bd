package inventory

import (
	"context"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// AdjustmentService handles manual stock adjustments submitted by callers
type AdjustmentService struct {
	engine *Engine
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(engine *Engine) *AdjustmentService {
	return &AdjustmentService{engine: engine}
}

// AdjustStock applies a manual adjustment. Only manual movement types are
// accepted; lifecycle types such as adjustment_out_delete are rejected.
func (s *AdjustmentService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*AdjustStockResponse, error) {
	kind, err := ledger.ParseTargetKind(req.TargetKind)
	if err != nil {
		return nil, err
	}
	target, err := ledger.NewTargetRef(kind, req.TargetID)
	if err != nil {
		return nil, err
	}
	movementType, err := ledger.ParseMovementType(req.MovementType)
	if err != nil {
		return nil, err
	}
	if !movementType.IsManual() {
		return nil, shared.NewValidationError("movement type %s cannot be submitted manually", movementType)
	}

	result, err := s.engine.Apply(ctx, AdjustCommand{
		Target:    target,
		Type:      movementType,
		Magnitude: req.Quantity,
		Remarks:   req.Remarks,
		ActorID:   req.ActorID,
	})
	if err != nil {
		return nil, err
	}

	return &AdjustStockResponse{
		TargetKind:       target.Kind().String(),
		TargetID:         target.ID(),
		PreviousQuantity: result.PreviousQuantity,
		NewQuantity:      result.NewQuantity,
		Movement:         ToMovementResponse(result.Movement),
	}, nil
}
