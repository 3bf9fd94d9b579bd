package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CreateVariation adds a variation to a variable product. The parent is
// locked so the insert cannot race a delete of the product.
func (s *Service) CreateVariation(ctx context.Context, req CreateVariationRequest) (*VariationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_variation")
	defer span.End()

	if err := validateInitialQuantity(req.InitialQuantity); err != nil {
		return nil, err
	}
	variation, err := catalog.NewVariation(req.ProductID, req.AttributeName, req.AttributeValue)
	if err != nil {
		return nil, err
	}
	if req.AdditionalPrice != nil {
		variation.SetAdditionalPrice(*req.AdditionalPrice)
	}
	if req.SKUSuffix != "" {
		if err := variation.SetSKUSuffix(req.SKUSuffix); err != nil {
			return nil, err
		}
	}

	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("product_id", req.ProductID.String()),
		zap.String("variation_id", variation.ID.String()))
	keys := []string{ledger.ProductTarget(req.ProductID).LockKey(), variation.Target().LockKey()}
	err = s.write(ctx, log, keys, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
		parent, err := repos.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if err := parent.AcceptsChild(ledger.TargetVariation); err != nil {
			return err
		}
		if err := ensureUniqueAttribute(ctx, repos, variation, nil); err != nil {
			return err
		}
		if err := repos.Variations().Create(ctx, variation); err != nil {
			return err
		}
		quantity, err := s.bookInitialStock(ctx, variation.Target(), req.InitialQuantity, req.ActorID)
		if err != nil {
			return err
		}
		variation.Quantity = quantity
		return nil
	})
	if err != nil {
		s.logFailure(log, "Variation creation failed", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Variation created", zap.Int64("quantity", variation.Quantity))
	telemetry.SetOK(span)
	resp := ToVariationResponse(variation)
	return &resp, nil
}

// UpdateVariation applies a patch to a variation
func (s *Service) UpdateVariation(ctx context.Context, id uuid.UUID, req UpdateVariationRequest) (*VariationResponse, error) {
	if req.IsEmpty() {
		return nil, shared.NewValidationError("update request changes nothing")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "update_variation")
	defer span.End()

	log := logger.WithLogger(ctx, s.logger).With(zap.String("variation_id", id.String()))
	var variation *catalog.Variation
	err := s.write(ctx, log, []string{ledger.VariationTarget(id).LockKey()}, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
		v, err := repos.Variations().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if req.AttributeName != nil || req.AttributeValue != nil {
			if err := v.SetAttribute(valueOr(req.AttributeName, v.AttributeName), valueOr(req.AttributeValue, v.AttributeValue)); err != nil {
				return err
			}
			if err := ensureUniqueAttribute(ctx, repos, v, &v.ID); err != nil {
				return err
			}
		}
		if req.AdditionalPrice != nil {
			v.SetAdditionalPrice(*req.AdditionalPrice)
		}
		if req.SKUSuffix != nil {
			if err := v.SetSKUSuffix(*req.SKUSuffix); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			quantity, _, err := s.setQuantity(ctx, v.Target(), v.Quantity, *req.Quantity, req.Remarks, req.ActorID)
			if err != nil {
				return err
			}
			v.Quantity = quantity
		}

		if err := repos.Variations().Update(ctx, v); err != nil {
			return err
		}
		variation = v
		return nil
	})
	if err != nil {
		s.logFailure(log, "Variation update failed", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Variation updated", zap.Int64("quantity", variation.Quantity))
	telemetry.SetOK(span)
	resp := ToVariationResponse(variation)
	return &resp, nil
}

func ensureUniqueAttribute(ctx context.Context, repos inventory.TransactionalRepositories, v *catalog.Variation, excludeID *uuid.UUID) error {
	exists, err := repos.Variations().ExistsByAttribute(ctx, v.ProductID, v.AttributeName, v.AttributeValue, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists,
			"Variation "+v.AttributeName+"="+v.AttributeValue+" already exists for this product")
	}
	return nil
}

// GetVariation returns a variation by ID
func (s *Service) GetVariation(ctx context.Context, id uuid.UUID) (*VariationResponse, error) {
	variation, err := s.repos.Variations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToVariationResponse(variation)
	return &resp, nil
}

// ListVariations returns the variations of a product
func (s *Service) ListVariations(ctx context.Context, productID uuid.UUID) ([]VariationResponse, error) {
	if _, err := s.repos.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	variations, err := s.repos.Variations.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToVariationResponses(variations), nil
}
