package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// dateLayout is the calendar-day format accepted for movement date filters
const dateLayout = "2006-01-02"

// AdjustStockRequest represents a manual stock adjustment
type AdjustStockRequest struct {
	TargetKind   string     `json:"target_kind" binding:"required,oneof=product variation accessory"`
	TargetID     uuid.UUID  `json:"target_id" binding:"required"`
	MovementType string     `json:"movement_type" binding:"required"`
	Quantity     uint       `json:"quantity" binding:"required,min=1"`
	Remarks      string     `json:"remarks" binding:"max=500"`
	ActorID      *uuid.UUID `json:"-"`
}

// AdjustStockResponse reports the committed adjustment
type AdjustStockResponse struct {
	TargetKind       string           `json:"target_kind"`
	TargetID         uuid.UUID        `json:"target_id"`
	PreviousQuantity int64            `json:"previous_quantity"`
	NewQuantity      int64            `json:"new_quantity"`
	Movement         MovementResponse `json:"movement"`
}

// MovementResponse represents a ledger record in API responses
type MovementResponse struct {
	ID              uuid.UUID  `json:"id"`
	TargetKind      string     `json:"target_kind"`
	TargetID        uuid.UUID  `json:"target_id"`
	ProductID       *uuid.UUID `json:"product_id,omitempty"`
	VariationID     *uuid.UUID `json:"variation_id,omitempty"`
	AccessoryID     *uuid.UUID `json:"accessory_id,omitempty"`
	ParentProductID uuid.UUID  `json:"parent_product_id"`
	MovementType    string     `json:"movement_type"`
	QuantityChanged int64      `json:"quantity_changed"`
	Remarks         string     `json:"remarks,omitempty"`
	ActorID         *uuid.UUID `json:"actor_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// MovementListFilter holds the query parameters of a movement listing.
// IDs arrive as strings so a malformed value is reported as a validation
// error rather than a binding failure.
type MovementListFilter struct {
	TargetKind      string `form:"target_kind" binding:"omitempty,oneof=product variation accessory"`
	TargetID        string `form:"target_id"`
	ParentProductID string `form:"parent_product_id"`
	MovementType    string `form:"movement_type"`
	ActorID         string `form:"actor_id"`
	StartDate       string `form:"start_date"`
	EndDate         string `form:"end_date"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ToDomain converts the query parameters into a ledger filter. A bare
// YYYY-MM-DD start widens to the start of that day (UTC) and a bare end to
// its last instant; RFC 3339 timestamps are used as given.
func (f MovementListFilter) ToDomain() (ledger.MovementFilter, error) {
	out := ledger.MovementFilter{
		TypePrefix: strings.TrimSpace(f.MovementType),
		Page:       f.Page,
		PageSize:   f.PageSize,
	}

	if f.TargetKind != "" {
		kind, err := ledger.ParseTargetKind(f.TargetKind)
		if err != nil {
			return out, err
		}
		out.TargetKind = kind
	}

	var err error
	if out.TargetID, err = parseOptionalUUID("target_id", f.TargetID); err != nil {
		return out, err
	}
	if out.ParentProductID, err = parseOptionalUUID("parent_product_id", f.ParentProductID); err != nil {
		return out, err
	}
	if out.ActorID, err = parseOptionalUUID("actor_id", f.ActorID); err != nil {
		return out, err
	}
	if out.From, err = parseBound("start_date", f.StartDate, false); err != nil {
		return out, err
	}
	if out.To, err = parseBound("end_date", f.EndDate, true); err != nil {
		return out, err
	}

	return out, out.Validate()
}

func parseOptionalUUID(field, value string) (*uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, shared.NewValidationError("%s must be a UUID", field)
	}
	return &id, nil
}

func parseBound(field, value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if day, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		if endOfDay {
			day = day.Add(24*time.Hour - time.Microsecond)
		}
		return &day, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, shared.NewValidationError("%s must be YYYY-MM-DD or RFC 3339", field)
	}
	ts = ts.UTC()
	return &ts, nil
}

// ToMovementResponse converts a domain movement to a response DTO
func ToMovementResponse(m *ledger.Movement) MovementResponse {
	productID, variationID, accessoryID := m.Target.Columns()
	return MovementResponse{
		ID:              m.ID,
		TargetKind:      m.Target.Kind().String(),
		TargetID:        m.Target.ID(),
		ProductID:       productID,
		VariationID:     variationID,
		AccessoryID:     accessoryID,
		ParentProductID: m.ParentProductID,
		MovementType:    m.Type.String(),
		QuantityChanged: m.QuantityDelta,
		Remarks:         m.Remarks,
		ActorID:         m.ActorID,
		CreatedAt:       m.CreatedAt,
	}
}

// ToMovementResponses converts a slice of domain movements to response DTOs
func ToMovementResponses(movements []ledger.Movement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}
