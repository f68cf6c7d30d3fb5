package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lapeslabs/foodhub/internal/auth"
	"github.com/lapeslabs/foodhub/internal/cache"
	"github.com/lapeslabs/foodhub/internal/config"
	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/http/handlers"
	"github.com/lapeslabs/foodhub/internal/http/middlewares"
	"github.com/lapeslabs/foodhub/internal/observability"
	"github.com/lapeslabs/foodhub/internal/queue/redisclient"
	"github.com/lapeslabs/foodhub/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(cfg config.Config, log *slog.Logger, pool *pgxpool.Pool, queue *redisclient.Client, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("foodhub-api"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
	}

	r.Use(middlewares.RequestLogger())

	// health
	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
		}

		if queue != nil {
			return queue.Ping(ctx)
		}

		return nil
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	sessionsRepo := postgres.NewSessionsRepo(pool, prom)
	ordersRepo := postgres.NewOrdersRepo(pool, prom)
	deliveriesRepo := postgres.NewDeliveriesRepo(pool, prom)
	menuRepo := postgres.NewMenuRepo(pool, prom)

	manager := auth.NewManager(sessionsRepo, usersRepo, prom, log)

	sessionMW := middlewares.NewAuthMiddleware(manager, cfg)

	authHandler := handlers.NewAuthHandler(manager, cfg)
	usersHandler := handlers.NewUsersHandler(usersRepo, manager)
	ordersHandler := handlers.NewOrdersHandler(ordersRepo, queue)
	deliveriesHandler := handlers.NewDeliveriesHandler(deliveriesRepo, queue)
	menuHandler := handlers.NewMenuHandler(menuRepo, cache.New(30*time.Second))

	// credential endpoints carry a tight per-IP limit
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", sessionMW.RequireSession(), authHandler.Me)
		authGroup.GET("/sessions", sessionMW.RequireSession(), authHandler.Sessions)
		authGroup.POST("/change-password",
			sessionMW.RequireSession(),
			loginLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
			authHandler.ChangePassword,
		)
	}

	usersGroup := r.Group("/users", sessionMW.RequireSession())
	{
		usersGroup.POST("", sessionMW.RequireRoles(user.RoleAdmin), usersHandler.CreateUser)
		usersGroup.GET("", sessionMW.RequireRoles(user.RoleAdmin), usersHandler.ListUsers)
		usersGroup.GET("/:id", usersHandler.GetUser)
		usersGroup.PUT("/:id", usersHandler.UpdateUser)
		usersGroup.DELETE("/:id", sessionMW.RequireRoles(user.RoleAdmin), usersHandler.DeleteUser)
	}

	// public menu reads; writes are kitchen/admin
	r.GET("/menu", menuHandler.ListMenu)
	r.GET("/menu/items/:id", menuHandler.GetItem)

	menuGroup := r.Group("/menu", sessionMW.RequireSession(), sessionMW.RequireRoles(user.RoleAdmin, user.RoleKitchen))
	{
		menuGroup.POST("/categories", menuHandler.CreateCategory)
		menuGroup.DELETE("/categories/:id", menuHandler.DeleteCategory)
		menuGroup.POST("/items", menuHandler.CreateItem)
		menuGroup.PUT("/items/:id", menuHandler.UpdateItem)
		menuGroup.DELETE("/items/:id", menuHandler.DeleteItem)
	}

	ordersGroup := r.Group("/orders", sessionMW.RequireSession())
	{
		ordersGroup.POST("", sessionMW.RequireRoles(user.RoleCustomer, user.RoleKitchen, user.RoleAdmin), ordersHandler.CreateOrder)
		ordersGroup.GET("", ordersHandler.ListOrders)
		ordersGroup.GET("/:id", ordersHandler.GetOrder)
		ordersGroup.PUT("/:id", sessionMW.RequireRoles(user.RoleAdmin, user.RoleKitchen), ordersHandler.UpdateOrder)
		ordersGroup.DELETE("/:id", sessionMW.RequireRoles(user.RoleAdmin), ordersHandler.DeleteOrder)
	}

	deliveriesGroup := r.Group("/deliveries", sessionMW.RequireSession())
	{
		deliveriesGroup.POST("", sessionMW.RequireRoles(user.RoleAdmin, user.RoleKitchen), deliveriesHandler.CreateDelivery)
		deliveriesGroup.GET("", deliveriesHandler.ListDeliveries)
		deliveriesGroup.GET("/:id", deliveriesHandler.GetDelivery)
		deliveriesGroup.PATCH("/:id/status", deliveriesHandler.UpdateDeliveryStatus)
	}

	return r
}
