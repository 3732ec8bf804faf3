package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/healthmarket_backend/config"
	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/healthmarket_backend/internal/api/http/router"
	"github.com/Alijeyrad/healthmarket_backend/pkg/observability"
	"github.com/Alijeyrad/healthmarket_backend/pkg/reqctx"
	"github.com/Alijeyrad/healthmarket_backend/pkg/validation"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:         p.Cfg.Observability.ServiceName,
		ErrorHandler:    errorHandler,
		StructValidator: validation.Fiber{},
	})

	if p.OTel != nil && p.Cfg.Observability.Enabled {
		app.Use(observability.FiberMiddleware())
	}

	configureGlobalMiddleware(app, p.Cfg, p.Redis)

	p.Router.Register(app)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New())
	}
	if cfg.Server.CORS.Enabled {
		app.Use(cors.New(corsConfig(cfg.Server.CORS)))
	}
	app.Use(middleware.NewLimiterWithRedis(rdb, cfg.RateLimit))

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${requestId}] ${method} ${url} ${status} ${latency}\n",
	}))
}

func corsConfig(c config.CORSConfig) cors.Config {
	out := cors.Config{
		AllowOrigins:     c.AllowOrigins,
		AllowMethods:     c.AllowMethods,
		AllowHeaders:     c.AllowHeaders,
		ExposeHeaders:    c.ExposeHeaders,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAgeSeconds,
	}
	// fiber refuses credentials with a wildcard origin
	if out.AllowCredentials && len(out.AllowOrigins) == 1 && strings.TrimSpace(out.AllowOrigins[0]) == "*" {
		out.AllowCredentials = false
	}
	return out
}

// errorHandler renders fiber errors raised by middleware in the {"error": msg} shape.
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = strings.ToLower(fe.Message)
	} else {
		slog.Error("unhandled error",
			"error", err,
			"path", c.Path(),
			"request_id", reqctx.RequestIDFromContext(c.Context()),
		)
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}
