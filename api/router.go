package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zvrva/railbooking/internal/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Booking *BookingHandler
	Admin   *AdminHandler
}

// NewRouter assembles the full HTTP surface: public catalog and auth
// routes, token-gated booking routes, and the admin group.
func NewRouter(h Handlers, jwtSecret string) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	public := router.Group("/api")
	h.Auth.Register(public.Group("/auth"))
	h.Catalog.Register(public)

	authed := router.Group("/api", RequireAuth(jwtSecret))
	h.Auth.RegisterProfile(authed.Group("/auth"))
	h.Booking.Register(authed.Group("/bookings"))

	admin := router.Group("/api/admin", RequireAuth(jwtSecret), RequireAdmin())
	h.Admin.Register(admin)

	return router
}
