package http

import (
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/adapter/http/middleware"
	"github.com/Hareem2134/ecommerce-website-with-api-integration/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(oh *OrderHandler, sh *ShippingHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/orders", oh.PlaceOrder)
		v1.GET("/orders/:id", oh.GetOrderByID)
		v1.POST("/shipping/rates", sh.QuoteRates)
		v1.POST("/shipping/track", sh.TrackShipment)
	}

	return r
}
