package api

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/skateshop/storefront/internal/api/handler"
	"github.com/skateshop/storefront/internal/api/metrics"
	"github.com/skateshop/storefront/internal/api/middleware"
	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"

	_ "github.com/skateshop/storefront/docs"
)

// formOverhead is the room left for the text fields of a product form on top
// of the image size limit.
const formOverhead = 1 << 20

// Dependencies are the wired services the router exposes.
type Dependencies struct {
	Log      zerolog.Logger
	Tokens   ports.TokenIssuer
	Auth     ports.AuthService
	Products ports.ProductService
	Cart     ports.CartService
	Images   ports.ImageStore

	// UploadDir is served read-only under handler.UploadsPrefix when set.
	UploadDir      string
	UploadMaxBytes int64

	Readiness map[string]handler.ReadinessCheck
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(metrics.Middleware())
	e.Use(middleware.RequestLogger(deps.Log))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	productHandler := handler.NewProductHandler(deps.Products, deps.Images, deps.Log)
	cartHandler := handler.NewCartHandler(deps.Cart)

	requireAuth := middleware.Auth(deps.Tokens)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	buyerOnly := middleware.RequireRole(domain.RoleBuyer)
	formLimit := echomiddleware.BodyLimit(bodyLimit(deps.UploadMaxBytes))

	v := e.Group("/api")

	// --- Auth routes ---
	v.POST("/register", authHandler.Register)
	v.POST("/login", authHandler.Login)
	v.GET("/verify", authHandler.Verify, requireAuth)

	// --- Catalog routes ---
	products := v.Group("/products", requireAuth)
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create, adminOnly, formLimit)
	products.PUT("/:id", productHandler.Update, adminOnly, formLimit)
	products.DELETE("/:id", productHandler.Delete, adminOnly)

	// --- Cart routes ---
	cart := v.Group("/cart", requireAuth, buyerOnly)
	cart.GET("", cartHandler.Get)
	cart.POST("", cartHandler.Add)
	cart.PUT("/:id", cartHandler.Update)
	cart.DELETE("/:id", cartHandler.Remove)
	cart.DELETE("", cartHandler.Clear)

	if deps.UploadDir != "" {
		e.Static(handler.UploadsPrefix, deps.UploadDir)
	}

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return fmt.Sprintf("%dK", (maxUpload+formOverhead)/1024)
}
