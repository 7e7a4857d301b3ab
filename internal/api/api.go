// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tobihealthops/requiva-go/internal/api/handlers"
	"github.com/tobihealthops/requiva-go/internal/api/middleware"
	"github.com/tobihealthops/requiva-go/internal/service"
)

type Services struct {
	OrderService   *service.OrderService
	InsightService *service.InsightService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.OrderService != nil {
		orderHandler := handlers.NewOrderHandler(services.OrderService, services.InsightService)
		orderGroup := apiGroup.Group("/orders")
		{
			orderGroup.GET("", orderHandler.ListOrders)
			orderGroup.POST("", orderHandler.CreateOrder)
			orderGroup.GET("/pending", orderHandler.PendingOrders)
			orderGroup.GET("/:req_id", orderHandler.GetOrder)
			orderGroup.POST("/:req_id/receive", orderHandler.ReceiveOrder)
		}

		exportHandler := handlers.NewExportHandler(services.OrderService)
		exportGroup := apiGroup.Group("/export")
		{
			exportGroup.GET("/orders.csv", exportHandler.ExportCSV)
			exportGroup.GET("/orders.xlsx", exportHandler.ExportXLSX)
		}
	}

	if services != nil && services.InsightService != nil {
		insightHandler := handlers.NewInsightHandler(services.InsightService)
		insightGroup := apiGroup.Group("/analytics")
		{
			insightGroup.GET("/reorders", insightHandler.Reorders)
			insightGroup.GET("/spending", insightHandler.Spending)
			insightGroup.GET("/anomalies", insightHandler.Anomalies)
			insightGroup.POST("/anomalies/score", insightHandler.ScoreOrder)
			insightGroup.GET("/vendors", insightHandler.Vendors)
			insightGroup.GET("/bulk", insightHandler.Bulk)
			insightGroup.GET("/demand", insightHandler.Demand)
			insightGroup.GET("/top_items", insightHandler.TopItems)
			insightGroup.GET("/dashboard", insightHandler.Dashboard)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
