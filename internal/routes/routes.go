package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vendmart/vendmart/internal/auth"
	"github.com/vendmart/vendmart/internal/catalog"
	"github.com/vendmart/vendmart/internal/config"
	"github.com/vendmart/vendmart/internal/identity"
	"github.com/vendmart/vendmart/internal/middleware"
	"github.com/vendmart/vendmart/internal/notification"
	"github.com/vendmart/vendmart/internal/vend"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	coins, err := vend.NewCoinSet(d.Cfg.Denominations)
	if err != nil {
		return err
	}

	var store vend.Store
	if d.DB != nil {
		store = vend.NewPostgresStore(d.DB)
	} else {
		store = vend.NewMemoryStore()
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}

	engine := vend.NewEngine(store, coins)
	identitySvc := identity.NewService(identityRepo, store)
	authSvc := auth.NewService(d.Cfg)
	catalogSvc := catalog.NewService(store, store)
	notifier := notification.NewLoggerNotifier(d.Logger)

	authHandler := auth.NewHandler(identitySvc, authSvc)
	userHandler := identity.NewHandler(identitySvc)
	productHandler := catalog.NewHandler(catalogSvc)
	vendHandler := vend.NewHandler(engine, notifier)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	RegisterUserRoutes(protected, userHandler, vendHandler)
	RegisterProductRoutes(protected, productHandler, vendHandler)

	return nil
}
