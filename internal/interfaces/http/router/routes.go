package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/stockledger/backend/internal/infrastructure/auth"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/interfaces/http/handler"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Options configures the HTTP engine built by New
type Options struct {
	Logger         *zap.Logger
	Tokens         *auth.TokenService
	JWTRequired    bool
	CORS           middleware.CORSConfig
	TrustedProxies []string
	TracingEnabled bool
	ServiceName    string

	// Security defaults to middleware.DefaultSecurityConfig when nil.
	Security *middleware.SecurityConfig
	// BodyLimit caps request bodies; zero means middleware.DefaultBodyLimit.
	BodyLimit int64
}

// Handlers groups the HTTP handlers mounted by New
type Handlers struct {
	Stock   *handler.StockHandler
	Catalog *handler.CatalogHandler
	System  *handler.SystemHandler
}

// New builds the gin engine with the full middleware chain and every route
func New(opts Options, h Handlers) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	bodyLimit := opts.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = middleware.DefaultBodyLimit
	}
	security := middleware.DefaultSecurityConfig()
	if opts.Security != nil {
		security = *opts.Security
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)
	if opts.TracingEnabled {
		tracing := middleware.DefaultTracingConfig()
		if opts.ServiceName != "" {
			tracing.ServiceName = opts.ServiceName
		}
		engine.Use(
			middleware.TracingWithConfig(tracing),
			middleware.MarkSpanErrors(),
		)
	}
	engine.Use(
		middleware.SecureWithConfig(security),
		middleware.CORSWithConfig(opts.CORS),
		middleware.BodyLimit(bodyLimit),
	)

	engine.GET("/health", h.System.Health)

	jwtConfig := middleware.DefaultJWTConfig(opts.Tokens, opts.JWTRequired)
	jwtConfig.Logger = log

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthWithConfig(jwtConfig))
	if opts.TracingEnabled {
		r.Use(middleware.AnnotateSpan())
	}

	for _, g := range []*DomainGroup{
		systemRoutes(h.System),
		stockRoutes(h.Stock),
		catalogRoutes(h.Catalog),
	} {
		r.Register(g)
		log.Debug("Routes registered", zap.String("group", g.Name()), zap.Strings("endpoints", g.Endpoints()))
	}
	r.Setup()

	return engine, nil
}

func systemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "").
		GET("/health", h.Health)
}

func stockRoutes(h *handler.StockHandler) *DomainGroup {
	return NewDomainGroup("stock", "/stock").
		POST("/adjustments", h.AdjustStock).
		GET("/movements", h.ListMovements).
		GET("/movements/:id", h.GetMovement)
}

func catalogRoutes(h *handler.CatalogHandler) *DomainGroup {
	catalog := NewDomainGroup("catalog", "/catalog")

	catalog.Group("products", "/products").
		POST("", h.CreateProduct).
		GET("", h.ListProducts).
		GET("/:id", h.GetProduct).
		PUT("/:id", h.UpdateProduct).
		DELETE("/:id", h.DeleteProduct).
		POST("/:id/variations", h.CreateVariation).
		GET("/:id/variations", h.ListVariations).
		POST("/:id/accessories", h.CreateAccessory).
		GET("/:id/accessories", h.ListAccessories)

	catalog.Group("variations", "/variations").
		GET("/:id", h.GetVariation).
		PUT("/:id", h.UpdateVariation).
		DELETE("/:id", h.DeleteVariation)

	catalog.Group("accessories", "/accessories").
		GET("/:id", h.GetAccessory).
		PUT("/:id", h.UpdateAccessory).
		DELETE("/:id", h.DeleteAccessory)

	return catalog
}
