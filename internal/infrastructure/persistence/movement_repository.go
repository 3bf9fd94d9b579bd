package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMovementRepository implements the append-only MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts a movement
func (r *GormMovementRepository) Append(ctx context.Context, m *ledger.Movement) error {
	model := models.StockMovementModelFromDomain(m)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, "stock movement", m.ID)
	}
	return nil
}

// FindByID finds a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Movement, error) {
	var model models.StockMovementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "stock movement", id)
	}
	return model.ToDomain()
}

// Find lists movements matching the filter, newest first
func (r *GormMovementRepository) Find(ctx context.Context, filter ledger.MovementFilter) ([]ledger.Movement, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockMovementModel{}), filter).
		Order("created_at DESC").
		Order("id DESC")
	if filter.Paginated() {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.StockMovementModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	movements := make([]ledger.Movement, 0, len(rows))
	for i := range rows {
		m, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		movements = append(movements, *m)
	}
	return movements, nil
}

// Count counts movements matching the filter
func (r *GormMovementRepository) Count(ctx context.Context, filter ledger.MovementFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockMovementModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumByTarget totals every delta recorded against the target
func (r *GormMovementRepository) SumByTarget(ctx context.Context, target ledger.TargetRef) (int64, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}
	id := target.ID()
	filter := ledger.MovementFilter{TargetKind: target.Kind(), TargetID: &id}

	var sum int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockMovementModel{}), filter).
		Select("COALESCE(SUM(quantity_changed), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// applyFilter applies the movement filter without ordering or pagination
func (r *GormMovementRepository) applyFilter(query *gorm.DB, filter ledger.MovementFilter) *gorm.DB {
	if filter.TargetID != nil {
		if column := filter.TargetColumn(); column != "" {
			query = query.Where(column+" = ?", *filter.TargetID)
		} else {
			query = query.Where("(product_id = ? OR variation_id = ? OR accessory_id = ?)",
				*filter.TargetID, *filter.TargetID, *filter.TargetID)
		}
	} else if column := filter.TargetColumn(); column != "" {
		query = query.Where(column + " IS NOT NULL")
	}
	if filter.ParentProductID != nil {
		query = query.Where("parent_product_id = ?", *filter.ParentProductID)
	}
	if filter.TypePrefix != "" {
		query = query.Where(`movement_type LIKE ? ESCAPE '\'`, likePrefix(filter.TypePrefix))
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePrefix turns s into a LIKE pattern that matches s literally as a prefix
func likePrefix(s string) string {
	return likeEscaper.Replace(s) + "%"
}

// Ensure GormMovementRepository implements MovementRepository
var _ ledger.MovementRepository = (*GormMovementRepository)(nil)
