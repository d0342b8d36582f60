// Package router wires handlers and middleware into an Echo instance.
package router

import (
	"context"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-reservation/internal/config"
	"github.com/iliyamo/movie-reservation/internal/handler"
	"github.com/iliyamo/movie-reservation/internal/middleware"
)

// Deps collects everything the routes need.  Redis and Limiter may be nil;
// caching is then disabled and rate limiting is skipped.
type Deps struct {
	Browse       *handler.BrowseHandler
	Reservations *handler.ReservationHandler
	JWTSecret    string
	Cache        config.CacheConfig
	RateLimit    config.RateLimitConfig
	Redis        *redis.Client
	Limiter      middleware.Limiter
	Ping         func(ctx context.Context) error
	Log          zerolog.Logger
}

// New builds the Echo instance with all routes registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	RegisterRoutes(e, d.Ping)
	RegisterBrowse(e, d.Browse, middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	RegisterReservations(e, d.Reservations, d.JWTSecret, middleware.NewRateLimit(d.RateLimit, d.Limiter, d.Log))
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// are not part of the API, currently the health check.
func RegisterRoutes(e *echo.Echo, ping func(ctx context.Context) error) {
	e.GET("/healthz", handler.Health(ping))
}

// RegisterBrowse registers the public catalogue.  The movie and screening
// listings go through the response cache; seat availability never does,
// since it changes with every booking.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/movies", b.ListMovies, cache)
	e.GET("/v1/screenings", b.ListScreenings, cache)
	e.GET("/v1/screenings/:id", b.GetScreening, cache)
	e.GET("/v1/screenings/:id/seats", b.GetSeats)
}

// RegisterReservations registers the reservation endpoints.  All of them
// require a valid JWT; the rate limit runs after authentication so that
// buckets can be keyed by user.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/reservations", middleware.JWTAuth(jwtSecret), limit)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/cancel", h.Cancel)
}
