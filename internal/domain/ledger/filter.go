package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/shared"
)

// MaxPageSize caps a single page of movements
const MaxPageSize = 500

// MovementFilter narrows a movement listing. Zero fields do not filter.
type MovementFilter struct {
	TargetKind      TargetKind
	TargetID        *uuid.UUID
	ParentProductID *uuid.UUID
	TypePrefix      string
	ActorID         *uuid.UUID
	From            *time.Time
	To              *time.Time
	Page            int
	PageSize        int
}

// Validate rejects filters that could never match or would be unbounded
func (f MovementFilter) Validate() error {
	if f.TargetKind != "" && !f.TargetKind.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidTarget, "unknown target kind "+string(f.TargetKind))
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return shared.NewValidationError("date range start must not be after its end")
	}
	if f.Page < 0 || f.PageSize < 0 {
		return shared.NewValidationError("page and page_size must not be negative")
	}
	if f.PageSize > MaxPageSize {
		return shared.NewValidationError("page_size must not exceed %d", MaxPageSize)
	}
	return nil
}

// Paginated reports whether the filter asks for a single page
func (f MovementFilter) Paginated() bool {
	return f.PageSize > 0
}

// Offset returns the row offset of the requested page
func (f MovementFilter) Offset() int {
	return shared.Filter{Page: f.Page, PageSize: f.PageSize}.Offset()
}

// TargetColumn returns the column that TargetKind narrows to, or "" when the
// kind is unset and a TargetID must be matched against every target column.
func (f MovementFilter) TargetColumn() string {
	switch f.TargetKind {
	case TargetProduct:
		return "product_id"
	case TargetVariation:
		return "variation_id"
	case TargetAccessory:
		return "accessory_id"
	}
	return ""
}
