package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Bookings      *BookingHandler
	Reviews       *ReviewHandler
	Notifications *NotificationHandler
	Professionals *ProfessionalHandler
}

// NewRouter mounts the REST surface. Everything except /health and /metrics needs a bearer token.
func NewRouter(h Handlers, auth Authenticator, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(logger), RequestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authed := router.Group("/", Auth(auth))
	h.Bookings.Register(authed.Group("/bookings"))
	h.Reviews.Register(authed.Group("/reviews"))
	h.Notifications.Register(authed.Group("/notifications"))
	h.Professionals.Register(authed.Group("/professionals"))

	return router
}
