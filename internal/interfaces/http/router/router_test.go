package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()

	stock := NewDomainGroup("stock", "/stock").GET("/movements", text("movements"))
	catalog := NewDomainGroup("catalog", "/catalog").GET("/products", text("products"))

	NewRouter(engine, WithAPIVersion("v1")).Register(stock).Register(catalog).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/stock/movements")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "movements", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/catalog/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/stock/movements").Code)
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	engine.GET("/outside", text("outside"))

	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Api-Middleware", "applied")
		c.Next()
	})
	r.Register(NewDomainGroup("stock", "/stock").GET("/movements", text("ok"))).Setup()

	assert.Equal(t, "applied", serve(engine, http.MethodGet, "/api/v1/stock/movements").Header().Get("X-Api-Middleware"))
	assert.Empty(t, serve(engine, http.MethodGet, "/outside").Header().Get("X-Api-Middleware"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("catalog", "/catalog")
		assert.Equal(t, "catalog", g.Name())
		assert.Equal(t, "/catalog", g.Prefix())
	})

	t.Run("every method", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("catalog", "/catalog").
			GET("/products/:id", text("get")).
			POST("/products", text("post")).
			PUT("/products/:id", text("put")).
			Handle(http.MethodPatch, "/products/:id", text("patch")).
			DELETE("/products/:id", text("delete")).
			RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			body   string
		}{
			{http.MethodGet, "/api/v1/catalog/products/1", "get"},
			{http.MethodPost, "/api/v1/catalog/products", "post"},
			{http.MethodPut, "/api/v1/catalog/products/1", "put"},
			{http.MethodPatch, "/api/v1/catalog/products/1", "patch"},
			{http.MethodDelete, "/api/v1/catalog/products/1", "delete"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.body, w.Body.String())
		}
	})

	t.Run("group middleware", func(t *testing.T) {
		engine := gin.New()
		NewDomainGroup("stock", "/stock").
			Use(func(c *gin.Context) {
				c.Header("X-Group", "stock")
				c.Next()
			}).
			GET("/movements", text("ok")).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "stock", serve(engine, http.MethodGet, "/api/v1/stock/movements").Header().Get("X-Group"))
	})

	t.Run("subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("catalog", "/catalog")
		g.Group("variations", "/variations").GET("/:id", text("variation"))
		g.Group("accessories", "/accessories").GET("/:id", text("accessory"))
		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "variation", serve(engine, http.MethodGet, "/api/v1/catalog/variations/7").Body.String())
		assert.Equal(t, "accessory", serve(engine, http.MethodGet, "/api/v1/catalog/accessories/7").Body.String())
	})
}

func TestDomainGroup_Endpoints(t *testing.T) {
	g := NewDomainGroup("catalog", "/catalog")
	g.Group("products", "/products").
		POST("", text("create")).
		GET("/:id/variations", text("list"))
	g.Group("variations", "/variations").DELETE("/:id", text("delete"))

	assert.Equal(t, []string{
		"POST /catalog/products",
		"GET /catalog/products/:id/variations",
		"DELETE /catalog/variations/:id",
	}, g.Endpoints())

	assert.Equal(t, []string{"GET /health"}, NewDomainGroup("system", "").GET("/health", text("ok")).Endpoints())
}
