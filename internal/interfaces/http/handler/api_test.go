package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	catalogapp "github.com/stockledger/backend/internal/application/catalog"
	"github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/infrastructure/lock"
	"github.com/stockledger/backend/internal/infrastructure/persistence"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"github.com/stockledger/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testRetry = inventory.EngineConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

// apiFixture serves the stock and catalog handlers over an in-memory SQLite
// ledger, with every request attributed to actor.
type apiFixture struct {
	engine *gin.Engine
	actor  uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	middleware.SetupValidator()

	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	locker := lock.NewMemoryLocker(5 * time.Second)
	stockEngine := inventory.NewEngine(scope, locker, zap.NewNop(), testRetry)

	catalogSvc := catalogapp.NewService(scope, locker, stockEngine, catalogapp.Repositories{
		Products:    persistence.NewGormProductRepository(db),
		Variations:  persistence.NewGormVariationRepository(db),
		Accessories: persistence.NewGormAccessoryRepository(db),
	}, zap.NewNop(), testRetry)

	stock := NewStockHandler(
		inventory.NewAdjustmentService(stockEngine),
		inventory.NewMovementQueryService(persistence.NewGormMovementRepository(db)),
	)
	catalog := NewCatalogHandler(catalogSvc)

	f := &apiFixture{engine: gin.New(), actor: testutil.TestUserID()}
	f.engine.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.JWTUserIDKey, f.actor.String())
		c.Next()
	})

	api := f.engine.Group("/api/v1")
	api.POST("/stock/adjustments", stock.AdjustStock)
	api.GET("/stock/movements", stock.ListMovements)
	api.GET("/stock/movements/:id", stock.GetMovement)

	api.POST("/catalog/products", catalog.CreateProduct)
	api.GET("/catalog/products", catalog.ListProducts)
	api.GET("/catalog/products/:id", catalog.GetProduct)
	api.PUT("/catalog/products/:id", catalog.UpdateProduct)
	api.DELETE("/catalog/products/:id", catalog.DeleteProduct)
	api.POST("/catalog/products/:id/variations", catalog.CreateVariation)
	api.GET("/catalog/products/:id/variations", catalog.ListVariations)
	api.POST("/catalog/products/:id/accessories", catalog.CreateAccessory)
	api.GET("/catalog/products/:id/accessories", catalog.ListAccessories)
	api.GET("/catalog/variations/:id", catalog.GetVariation)
	api.PUT("/catalog/variations/:id", catalog.UpdateVariation)
	api.DELETE("/catalog/variations/:id", catalog.DeleteVariation)
	api.GET("/catalog/accessories/:id", catalog.GetAccessory)
	api.PUT("/catalog/accessories/:id", catalog.UpdateAccessory)
	api.DELETE("/catalog/accessories/:id", catalog.DeleteAccessory)

	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoJSON(t, f.engine, method, "/api/v1"+path, body)
}

func (f *apiFixture) createProduct(t *testing.T, productType string, quantity int64) catalogapp.ProductResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, "/catalog/products", map[string]any{
		"name":             "Product " + uuid.NewString()[:8],
		"product_type":     productType,
		"initial_quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[catalogapp.ProductResponse](t, w)
}

func (f *apiFixture) createVariation(t *testing.T, productID uuid.UUID, value string, quantity int64) catalogapp.VariationResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, fmt.Sprintf("/catalog/products/%s/variations", productID), map[string]any{
		"attribute_name":   "size",
		"attribute_value":  value,
		"initial_quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[catalogapp.VariationResponse](t, w)
}

func (f *apiFixture) createAccessory(t *testing.T, productID uuid.UUID, name string, quantity int64) catalogapp.AccessoryResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, fmt.Sprintf("/catalog/products/%s/accessories", productID), map[string]any{
		"name":             name,
		"initial_quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeData[catalogapp.AccessoryResponse](t, w)
}

func (f *apiFixture) adjust(t *testing.T, kind string, id uuid.UUID, movementType string, quantity uint) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/stock/adjustments", map[string]any{
		"target_kind":   kind,
		"target_id":     id,
		"movement_type": movementType,
		"quantity":      quantity,
	})
}
