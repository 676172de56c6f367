package routes

import (
	"sync"

	"owner-console/console"
	"owner-console/editor"
	"owner-console/handlers"
	"owner-console/middleware"
	"owner-console/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Console   *console.Service
	Stockists handlers.StockistCreator
	Previews  editor.PreviewStore
	Limiter   *middleware.RateLimiter
	Log       *zap.Logger
}

var registerOnce sync.Once

// registerValidators installs the custom binding tags on gin's validator.
func registerValidators(log *zap.Logger) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err := utils.RegisterValidators(v); err != nil {
			log.Error("failed to register validators", zap.Error(err))
		}
	})
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	registerValidators(deps.Log)

	// Initialize handlers
	sessionHandler := &handlers.SessionHandler{Console: deps.Console, Log: deps.Log}
	stockistHandler := &handlers.StockistHandler{API: deps.Stockists, Log: deps.Log}
	previewHandler := &handlers.PreviewHandler{Store: deps.Previews}

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/previews/:handle", previewHandler.ServePreview)

	api := r.Group("/api")
	api.GET("/dashboard", handlers.GetDashboard)

	// Owner routes (require owner role)
	owner := api.Group("")
	owner.Use(middleware.AuthMiddleware())
	owner.Use(middleware.OwnerMiddleware())
	if deps.Limiter != nil {
		owner.Use(deps.Limiter.Middleware())
	}
	{
		// Editor sessions
		owner.POST("/sessions", sessionHandler.OpenSession)
		owner.GET("/sessions/:id", sessionHandler.GetSession)
		owner.DELETE("/sessions/:id", sessionHandler.DiscardSession)

		// Local edits
		owner.PATCH("/sessions/:id/product", sessionHandler.UpdateProductDetails)
		owner.POST("/sessions/:id/variants", sessionHandler.AddVariant)
		owner.PATCH("/sessions/:id/variants/:variantId", sessionHandler.UpdateVariant)
		owner.DELETE("/sessions/:id/variants/:variantId", sessionHandler.RemoveVariant)
		owner.POST("/sessions/:id/variants/:variantId/images", sessionHandler.AddVariantImages)
		owner.DELETE("/sessions/:id/variants/:variantId/images/:index", sessionHandler.RemoveVariantImage)
		owner.PUT("/sessions/:id/invoice", sessionHandler.SetInvoice)
		owner.DELETE("/sessions/:id/invoice", sessionHandler.ClearInvoice)

		// Remote operations
		owner.POST("/sessions/:id/submit", sessionHandler.Submit)
		owner.POST("/sessions/:id/search", sessionHandler.Search)
		owner.POST("/sessions/:id/update", sessionHandler.Update)
		owner.POST("/sessions/:id/delete", sessionHandler.Delete)

		// Stockists
		owner.POST("/stockists", stockistHandler.CreateStockist)
		owner.GET("/stockists/retailer-code", stockistHandler.GenerateRetailerCode)
		owner.GET("/stockists/options", stockistHandler.GetOptions)
	}
}
