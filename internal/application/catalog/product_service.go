package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CreateProduct inserts a product and books its initial quantity in the same
// transaction. Only simple products may start with stock.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create_product")
	defer span.End()

	productType, err := catalog.ParseProductType(req.ProductType)
	if err != nil {
		return nil, err
	}
	if err := validateInitialQuantity(req.InitialQuantity); err != nil {
		return nil, err
	}
	if req.InitialQuantity > 0 && productType != catalog.ProductTypeSimple {
		return nil, shared.NewTypeMismatchError(
			"%s products keep stock on their %ss and cannot start with a quantity",
			productType, productType.ChildKind())
	}

	product, err := catalog.NewProduct(req.Name, req.SKU, productType)
	if err != nil {
		return nil, err
	}
	product.SetDescription(req.Description)
	if req.BasePrice != nil || req.CostOfGoods != nil {
		if err := product.SetPrices(valueOr(req.BasePrice, product.BasePrice), valueOr(req.CostOfGoods, product.CostOfGoods)); err != nil {
			return nil, err
		}
	}

	log := logger.WithLogger(ctx, s.logger).With(zap.String("product_id", product.ID.String()))
	err = s.write(ctx, log, []string{product.Target().LockKey()}, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
		if product.SKU != "" {
			exists, err := repos.Products().ExistsBySKU(ctx, product.SKU, nil)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Product with SKU "+product.SKU+" already exists")
			}
		}
		if err := repos.Products().Create(ctx, product); err != nil {
			return err
		}
		quantity, err := s.bookInitialStock(ctx, product.Target(), req.InitialQuantity, req.ActorID)
		if err != nil {
			return err
		}
		product.Quantity = quantity
		return nil
	})
	if err != nil {
		s.logFailure(log, "Product creation failed", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Product created",
		zap.String("product_type", product.Type.String()),
		zap.Int64("quantity", product.Quantity))
	telemetry.SetOK(span)
	resp := ToProductResponse(product)
	return &resp, nil
}

// UpdateProduct applies a patch. A quantity in the patch is reached through a
// single adjustment before any product type change is checked.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	if req.IsEmpty() {
		return nil, shared.NewValidationError("update request changes nothing")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "update_product")
	defer span.End()

	log := logger.WithLogger(ctx, s.logger).With(zap.String("product_id", id.String()))
	var product *catalog.Product
	err := s.write(ctx, log, []string{ledger.ProductTarget(id).LockKey()}, func(ctx context.Context, repos inventory.TransactionalRepositories) error {
		p, err := repos.Products().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			if err := p.Rename(*req.Name); err != nil {
				return err
			}
		}
		if req.SKU != nil {
			sku := strings.ToUpper(strings.TrimSpace(*req.SKU))
			if sku != "" && sku != p.SKU {
				exists, err := repos.Products().ExistsBySKU(ctx, sku, &p.ID)
				if err != nil {
					return err
				}
				if exists {
					return shared.NewDomainError(shared.CodeAlreadyExists, "Product with SKU "+sku+" already exists")
				}
			}
			if err := p.SetSKU(*req.SKU); err != nil {
				return err
			}
		}
		if req.Description != nil {
			p.SetDescription(*req.Description)
		}
		if req.BasePrice != nil || req.CostOfGoods != nil {
			if err := p.SetPrices(valueOr(req.BasePrice, p.BasePrice), valueOr(req.CostOfGoods, p.CostOfGoods)); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			quantity, _, err := s.setQuantity(ctx, p.Target(), p.Quantity, *req.Quantity, req.Remarks, req.ActorID)
			if err != nil {
				return err
			}
			p.Quantity = quantity
		}
		if req.ProductType != nil {
			if err := s.changeProductType(ctx, repos, p, *req.ProductType); err != nil {
				return err
			}
		}

		if err := repos.Products().Update(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		s.logFailure(log, "Product update failed", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	log.Info("Product updated", zap.Int64("quantity", product.Quantity))
	telemetry.SetOK(span)
	resp := ToProductResponse(product)
	return &resp, nil
}

// changeProductType refuses to move a product that still has variations or
// accessories, since they would no longer match its type.
func (s *Service) changeProductType(ctx context.Context, repos inventory.TransactionalRepositories, p *catalog.Product, value string) error {
	productType, err := catalog.ParseProductType(value)
	if err != nil {
		return err
	}
	if productType == p.Type {
		return nil
	}

	variations, err := repos.Variations().FindByProduct(ctx, p.ID)
	if err != nil {
		return err
	}
	accessories, err := repos.Accessories().FindByProduct(ctx, p.ID)
	if err != nil {
		return err
	}
	if children := len(variations) + len(accessories); children > 0 {
		return shared.NewDomainError(shared.CodeInvalidState,
			"product "+p.ID.String()+" still has variations or accessories and cannot change type")
	}
	return p.ChangeType(productType)
}

// GetProduct returns a product by ID
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// ListProducts returns a page of products and the total match count
func (s *Service) ListProducts(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.ProductType != "" {
		productType, err := catalog.ParseProductType(filter.ProductType)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters["product_type"] = productType.String()
	}
	if filter.InStock {
		domainFilter.Filters["in_stock"] = true
	}

	products, err := s.repos.Products.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Products.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}
