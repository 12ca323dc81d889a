package router

import (
	"context"
	"net/http"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"opensails/internal/auth"
	"opensails/internal/handler"
	"opensails/internal/logger"
	"opensails/internal/metrics"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Deps carries everything the routes need.
type Deps struct {
	Logger     *zap.Logger
	Metrics    *metrics.Tracker
	JWT        *auth.JWTService
	TokenStore auth.TokenStoreInterface
	Database   Pinger
	Cache      Pinger

	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Collections *handler.CollectionHandler
	Bids        *handler.BidHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e.Use(logger.Middleware(log))

	e.Validator = handler.NewValidator()

	e.GET("/healthz", health(d))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)

	api.GET("/users", d.Users.ListUsers)
	api.GET("/users/:id", d.Users.GetUser)
	api.GET("/users/:id/bids", d.Users.ListUserBids)

	api.GET("/collections", d.Collections.ListCollections)
	api.GET("/collections/:id", d.Collections.GetCollection)

	api.GET("/bids", d.Bids.ListBids)
	api.GET("/bids/:id", d.Bids.GetBid)

	// Secured routes (require JWT authentication)
	secured := api.Group("",
		echojwt.WithConfig(echojwt.Config{
			SigningKey:    d.JWT.Secret(),
			SigningMethod: "HS256",
			TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
			NewClaimsFunc: auth.NewClaimsFunc,
			ContextKey:    auth.ContextKey,
		}),
		auth.RejectRevoked(d.TokenStore),
	)

	secured.POST("/auth/logout", d.Auth.Logout)
	secured.GET("/me", d.Auth.Me)

	secured.POST("/collections", d.Collections.CreateCollection)
	secured.PUT("/collections/:id", d.Collections.UpdateCollection)
	secured.DELETE("/collections/:id", d.Collections.DeleteCollection)

	secured.POST("/bids", d.Bids.PlaceBid)
	secured.PUT("/bids", d.Bids.UpdateBid)
	secured.DELETE("/bids", d.Bids.DeleteBid)
}

// health reports 503 when the database is unreachable. Redis being down
// only degrades the service, since every cache path fails safe.
func health(d Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "database": "ok", "cache": "ok"}
		code := http.StatusOK
		if d.Database != nil {
			if err := d.Database.Ping(ctx); err != nil {
				status["database"] = "unavailable"
				status["status"] = "unavailable"
				code = http.StatusServiceUnavailable
			}
		}
		if d.Cache != nil {
			if err := d.Cache.Ping(ctx); err != nil {
				status["cache"] = "unavailable"
				if code == http.StatusOK {
					status["status"] = "degraded"
				}
			}
		}
		return c.JSON(code, status)
	}
}
