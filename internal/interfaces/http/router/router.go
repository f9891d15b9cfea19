package router

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/interfaces/http/handler"
	"storefront/internal/interfaces/http/middleware"
	"storefront/pkg/logger"
)

type Handlers struct {
	Orders   *handler.OrderHandler
	Products *handler.ProductHandler
	Health   *handler.HealthHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers, log logger.Logger) {
	r.Use(middleware.RequestID(), middleware.AccessLog(log))
	r.NoRoute(handler.NotFound)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health.Health)

		api.GET("/products", h.Products.ListProducts)
		api.GET("/products/:id", h.Products.GetProduct)
		api.GET("/categories", h.Products.Categories)
		api.GET("/stats", h.Products.Stats)

		api.POST("/orders", h.Orders.CreateOrder)
		api.GET("/orders", h.Orders.ListOrders)
		api.GET("/orders/:id", h.Orders.GetOrder)
		api.PUT("/orders/:id/status", h.Orders.UpdateStatus)
		api.GET("/orders/:id/estimate", h.Orders.Estimate)
		api.GET("/orders/:id/history", h.Orders.History)
	}
}
