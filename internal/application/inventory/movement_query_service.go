package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/ledger"
)

// MovementQueryService is the read-only facade over the ledger. It takes no
// locks and has no side effects.
type MovementQueryService struct {
	movements ledger.MovementRepository
}

// NewMovementQueryService creates a new MovementQueryService
func NewMovementQueryService(movements ledger.MovementRepository) *MovementQueryService {
	return &MovementQueryService{movements: movements}
}

// ListMovements returns the movements matching filter, newest first, with the
// total number of matches ignoring pagination.
func (s *MovementQueryService) ListMovements(ctx context.Context, filter ledger.MovementFilter) ([]MovementResponse, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	movements, err := s.movements.Find(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(movements))
	if filter.Paginated() {
		total, err = s.movements.Count(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
	}

	return ToMovementResponses(movements), total, nil
}

// GetMovement returns a single movement by ID
func (s *MovementQueryService) GetMovement(ctx context.Context, id uuid.UUID) (*MovementResponse, error) {
	movement, err := s.movements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMovementResponse(movement)
	return &resp, nil
}
