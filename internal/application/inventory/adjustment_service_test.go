package inventory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustmentService_AdjustStock(t *testing.T) {
	f := newLedgerFixture(t, nil)
	svc := inventory.NewAdjustmentService(f.engine)
	ctx := context.Background()
	actor := testutil.TestUserID()
	p := f.seedProduct(t, catalog.ProductTypeSimple, 10)

	t.Run("records a manual adjustment", func(t *testing.T) {
		resp, err := svc.AdjustStock(ctx, inventory.AdjustStockRequest{
			TargetKind:   "product",
			TargetID:     p.ID,
			MovementType: "sale_adj",
			Quantity:     3,
			Remarks:      "counter sale",
			ActorID:      &actor,
		})
		require.NoError(t, err)

		assert.Equal(t, "product", resp.TargetKind)
		assert.Equal(t, p.ID, resp.TargetID)
		assert.Equal(t, int64(10), resp.PreviousQuantity)
		assert.Equal(t, int64(7), resp.NewQuantity)
		assert.Equal(t, int64(-3), resp.Movement.QuantityChanged)
		assert.Equal(t, "sale_adj", resp.Movement.MovementType)
		require.NotNil(t, resp.Movement.ProductID)
		assert.Equal(t, p.ID, *resp.Movement.ProductID)
		assert.Nil(t, resp.Movement.VariationID)
		assert.Equal(t, &actor, resp.Movement.ActorID)
	})

	t.Run("target kind is case-insensitive", func(t *testing.T) {
		resp, err := svc.AdjustStock(ctx, inventory.AdjustStockRequest{
			TargetKind:   "PRODUCT",
			TargetID:     p.ID,
			MovementType: "adjustment_in",
			Quantity:     1,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(8), resp.NewQuantity)
	})

	tests := []struct {
		name    string
		req     inventory.AdjustStockRequest
		wantErr error
	}{
		{
			name:    "unknown target kind",
			req:     inventory.AdjustStockRequest{TargetKind: "warehouse", TargetID: p.ID, MovementType: "adjustment_in", Quantity: 1},
			wantErr: shared.ErrInvalidTarget,
		},
		{
			name:    "nil target id",
			req:     inventory.AdjustStockRequest{TargetKind: "product", MovementType: "adjustment_in", Quantity: 1},
			wantErr: shared.ErrInvalidTarget,
		},
		{
			name:    "unknown movement type",
			req:     inventory.AdjustStockRequest{TargetKind: "product", TargetID: p.ID, MovementType: "transfer", Quantity: 1},
			wantErr: shared.ErrValidation,
		},
		{
			name:    "lifecycle type cannot be submitted",
			req:     inventory.AdjustStockRequest{TargetKind: "product", TargetID: p.ID, MovementType: string(ledger.MovementDeleteZeroOut), Quantity: 1},
			wantErr: shared.ErrValidation,
		},
		{
			name:    "zero quantity",
			req:     inventory.AdjustStockRequest{TargetKind: "product", TargetID: p.ID, MovementType: "adjustment_in"},
			wantErr: shared.ErrValidation,
		},
		{
			name:    "missing item",
			req:     inventory.AdjustStockRequest{TargetKind: "variation", TargetID: uuid.New(), MovementType: "adjustment_in", Quantity: 1},
			wantErr: shared.ErrNotFound,
		},
		{
			name:    "more than on hand",
			req:     inventory.AdjustStockRequest{TargetKind: "product", TargetID: p.ID, MovementType: "damaged", Quantity: 100},
			wantErr: shared.ErrInsufficientStock,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.AdjustStock(ctx, tt.req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, int64(8), f.quantity(t, p.Target()))
	f.assertReconciled(t, p.Target())
}
