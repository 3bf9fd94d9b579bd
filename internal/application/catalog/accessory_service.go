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

// CreateAccessory adds an accessory to a customisable product
func (s *Service) CreateAccessory(ctx context.Context, req CreateAccessoryRequest) (*AccessoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_accessory")
	defer span.End()

	if err := validateInitialQuantity(req.InitialQuantity); err != nil {
		return nil, err
	}
	accessory, err := catalog.NewAccessory(req.ProductID, req.Name)
	if err != nil {
		return nil, err
	}
	accessory.SetDescription(req.Description)
	if req.Price != nil {
		if err := accessory.SetPrice(*req.Price); err != nil {
			return nil, err
		}
	}

	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("product_id", req.ProductID.String()),
		zap.String("accessory_id", accessory.ID.String()))
	keys := []string{ledger.ProductTarget(req.ProductID).LockKey(), accessory.Target().LockKey()}
	err = s.write(ctx, log, keys, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
		parent, err := repos.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if err := parent.AcceptsChild(ledger.TargetAccessory); err != nil {
			return err
		}
		if err := ensureUniqueAccessoryName(ctx, repos, accessory, nil); err != nil {
			return err
		}
		if err := repos.Accessories().Create(ctx, accessory); err != nil {
			return err
		}
		quantity, err := s.bookInitialStock(ctx, accessory.Target(), req.InitialQuantity, req.ActorID)
		if err != nil {
			return err
		}
		accessory.Quantity = quantity
		return nil
	})
	if err != nil {
		s.logFailure(log, "Accessory creation failed", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Accessory created", zap.Int64("quantity", accessory.Quantity))
	telemetry.SetOK(span)
	resp := ToAccessoryResponse(accessory)
	return &resp, nil
}

// UpdateAccessory applies a patch to an accessory
func (s *Service) UpdateAccessory(ctx context.Context, id uuid.UUID, req UpdateAccessoryRequest) (*AccessoryResponse, error) {
	if req.IsEmpty() {
		return nil, shared.NewValidationError("update request changes nothing")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "update_accessory")
	defer span.End()

	log := logger.WithLogger(ctx, s.logger).With(zap.String("accessory_id", id.String()))
	var accessory *catalog.Accessory
	err := s.write(ctx, log, []string{ledger.AccessoryTarget(id).LockKey()}, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
		a, err := repos.Accessories().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			if err := a.Rename(*req.Name); err != nil {
				return err
			}
			if err := ensureUniqueAccessoryName(ctx, repos, a, &a.ID); err != nil {
				return err
			}
		}
		if req.Description != nil {
			a.SetDescription(*req.Description)
		}
		if req.Price != nil {
			if err := a.SetPrice(*req.Price); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			quantity, _, err := s.setQuantity(ctx, a.Target(), a.Quantity, *req.Quantity, req.Remarks, req.ActorID)
			if err != nil {
				return err
			}
			a.Quantity = quantity
		}

		if err := repos.Accessories().Update(ctx, a); err != nil {
			return err
		}
		accessory = a
		return nil
	})
	if err != nil {
		s.logFailure(log, "Accessory update failed", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Accessory updated", zap.Int64("quantity", accessory.Quantity))
	telemetry.SetOK(span)
	resp := ToAccessoryResponse(accessory)
	return &resp, nil
}

func ensureUniqueAccessoryName(ctx context.Context, repos inventory.TransactionalRepositories, a *catalog.Accessory, excludeID *uuid.UUID) error {
	exists, err := repos.Accessories().ExistsByName(ctx, a.ProductID, a.Name, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Accessory "+a.Name+" already exists for this product")
	}
	return nil
}

// GetAccessory returns an accessory by ID
func (s *Service) GetAccessory(ctx context.Context, id uuid.UUID) (*AccessoryResponse, error) {
	accessory, err := s.repos.Accessories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAccessoryResponse(accessory)
	return &resp, nil
}

// ListAccessories returns the accessories of a product
func (s *Service) ListAccessories(ctx context.Context, productID uuid.UUID) ([]AccessoryResponse, error) {
	if _, err := s.repos.Products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	accessories, err := s.repos.Accessories.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToAccessoryResponses(accessories), nil
}
