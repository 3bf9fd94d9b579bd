package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormVariationRepository implements VariationRepository using GORM
type GormVariationRepository struct {
	db *gorm.DB
}

// NewGormVariationRepository creates a new GormVariationRepository
func NewGormVariationRepository(db *gorm.DB) *GormVariationRepository {
	return &GormVariationRepository{db: db}
}

// FindByID finds a variation by its ID
func (r *GormVariationRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Variation, error) {
	var model models.VariationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "variation", id)
	}
	return model.ToDomain(), nil
}

// FindByProduct lists a product's variations
func (r *GormVariationRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Variation, error) {
	var rows []models.VariationModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	variations := make([]catalog.Variation, len(rows))
	for i := range rows {
		variations[i] = *rows[i].ToDomain()
	}
	return variations, nil
}

// ExistsByAttribute checks if the product already has a variation with this attribute pair
func (r *GormVariationRepository) ExistsByAttribute(ctx context.Context, productID uuid.UUID, name, value string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.VariationModel{}).
		Where("product_id = ? AND attribute_name = ? AND attribute_value = ?", productID, name, value)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a variation with a zero quantity
func (r *GormVariationRepository) Create(ctx context.Context, variation *catalog.Variation) error {
	model := models.VariationModelFromDomain(variation)
	model.Quantity = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "variation", variation.ID)
	}
	return nil
}

// Update saves every variation field except quantity and owner
func (r *GormVariationRepository) Update(ctx context.Context, variation *catalog.Variation) error {
	result := r.db.WithContext(ctx).Model(&models.VariationModel{}).
		Where("id = ?", variation.ID).
		Updates(map[string]any{
			"attribute_name":   variation.AttributeName,
			"attribute_value":  variation.AttributeValue,
			"additional_price": variation.AdditionalPrice,
			"sku_suffix":       variation.SKUSuffix,
			"updated_at":       variation.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "variation", variation.ID)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("variation", variation.ID)
	}
	return nil
}

// Delete removes a variation row
func (r *GormVariationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.VariationModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "variation", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("variation", id)
	}
	return nil
}

// Ensure GormVariationRepository implements VariationRepository
var _ catalog.VariationRepository = (*GormVariationRepository)(nil)
