package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/catalog"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccessoryRepository implements AccessoryRepository using GORM
type GormAccessoryRepository struct {
	db *gorm.DB
}

// NewGormAccessoryRepository creates a new GormAccessoryRepository
func NewGormAccessoryRepository(db *gorm.DB) *GormAccessoryRepository {
	return &GormAccessoryRepository{db: db}
}

// FindByID finds an accessory by its ID
func (r *GormAccessoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Accessory, error) {
	var model models.AccessoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "accessory", id)
	}
	return model.ToDomain(), nil
}

// FindByProduct lists a product's accessories
func (r *GormAccessoryRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.Accessory, error) {
	var rows []models.AccessoryModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	accessories := make([]catalog.Accessory, len(rows))
	for i := range rows {
		accessories[i] = *rows[i].ToDomain()
	}
	return accessories, nil
}

// ExistsByName checks if the product already has an accessory with this name
func (r *GormAccessoryRepository) ExistsByName(ctx context.Context, productID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AccessoryModel{}).
		Where("product_id = ? AND name = ?", productID, name)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts an accessory with a zero quantity
func (r *GormAccessoryRepository) Create(ctx context.Context, accessory *catalog.Accessory) error {
	model := models.AccessoryModelFromDomain(accessory)
	model.Quantity = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "accessory", accessory.ID)
	}
	return nil
}

// Update saves every accessory field except quantity and owner
func (r *GormAccessoryRepository) Update(ctx context.Context, accessory *catalog.Accessory) error {
	result := r.db.WithContext(ctx).Model(&models.AccessoryModel{}).
		Where("id = ?", accessory.ID).
		Updates(map[string]any{
			"name":        accessory.Name,
			"description": accessory.Description,
			"price":       accessory.Price,
			"updated_at":  accessory.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "accessory", accessory.ID)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("accessory", accessory.ID)
	}
	return nil
}

// Delete removes an accessory row
func (r *GormAccessoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AccessoryModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "accessory", id)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("accessory", id)
	}
	return nil
}

// Ensure GormAccessoryRepository implements AccessoryRepository
var _ catalog.AccessoryRepository = (*GormAccessoryRepository)(nil)
