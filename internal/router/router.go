package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/notaryops/travel-permits/internal/config"
	"github.com/notaryops/travel-permits/internal/handler"
	"github.com/notaryops/travel-permits/internal/middleware"
)

// Handlers groups every handler wired by the router.  main builds this
// once so the registration signature does not grow a parameter per
// endpoint family.
type Handlers struct {
	Auth      *handler.AuthHandler
	Permits   *handler.PermitHandler
	Identity  *handler.IdentityHandler
	Export    *handler.ExportHandler
	Assistant *handler.AssistantHandler
	Lookup    *handler.LookupHandler
}

// Register wires the full HTTP surface.
//
// Layout:
//   /healthz                     unauthenticated liveness probe
//   /v1/auth/*                   register/login/refresh/logout
//   /v1/*                        JWT-protected registry surface
//
// Every protected route accepts both staff roles; voiding a permit and
// retroactive identity propagation are restricted to NOTARY.  Rate
// limiting applies to everything under /v1; the response cache sits in
// front of the read-only listing and lookup routes only.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, h Handlers) {
	e.GET("/healthz", handler.Health)

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Session endpoints: rate limited, never cached, no JWT.
	authG := e.Group("/v1/auth", rl)
	authG.POST("/register", h.Auth.Register)
	authG.POST("/login", h.Auth.Login)
	authG.POST("/refresh", h.Auth.Refresh)
	authG.POST("/logout", h.Auth.Logout)

	// Protected registry surface.
	v1 := e.Group("/v1", rl, middleware.JWTAuth(cfg.JWTSecret))
	staff := middleware.RequireRole("NOTARY", "CLERK")
	notaryOnly := middleware.RequireRole("NOTARY")

	v1.GET("/me", h.Auth.Me, staff)

	v1.POST("/permits", h.Permits.Create, staff)
	v1.GET("/permits", h.Permits.List, staff, cache)
	v1.GET("/permits/:id", h.Permits.Get, staff)
	v1.GET("/permits/by-correlative/:year/:number", h.Permits.GetByCorrelative, staff)
	v1.PATCH("/permits/:id", h.Permits.Edit, staff)
	v1.POST("/permits/:id/regenerate", h.Permits.Regenerate, staff)
	v1.POST("/permits/:id/void", h.Permits.Void, notaryOnly)

	v1.POST("/identity/propagate", h.Identity.Propagate, notaryOnly)
	v1.POST("/identity/hide", h.Identity.Hide, staff)
	v1.DELETE("/identity/hide", h.Identity.Unhide, staff)
	v1.GET("/identity/suggest", h.Identity.Suggest, staff, cache)

	v1.GET("/export/permits.csv", h.Export.CSV, staff)
	v1.GET("/export/permits.xlsx", h.Export.XLSX, staff)

	v1.POST("/assistant/query", h.Assistant.Query, staff)

	v1.GET("/lookup/dni/:number", h.Lookup.DNILookup, staff, cache)
	v1.GET("/lookup/geo/departments", h.Lookup.Departments, staff, cache)
	v1.GET("/lookup/geo/provinces", h.Lookup.Provinces, staff, cache)
	v1.GET("/lookup/geo/districts", h.Lookup.Districts, staff, cache)
}
