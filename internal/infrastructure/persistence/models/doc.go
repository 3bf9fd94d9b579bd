// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel shared by the item tables
// - catalog.go: products, variations and accessories
// - ledger.go: the append-only stock_movements table
//
// AllModels lists every model for AutoMigrate in tests. Production schemas come
// from the SQL files under migrations/.
package models

// AllModels returns every persistence model in creation order
func AllModels() []any {
	return []any{
		&ProductModel{},
		&VariationModel{},
		&AccessoryModel{},
		&StockMovementModel{},
	}
}
