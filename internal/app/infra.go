package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/healthmarket_backend/config"
	"github.com/Alijeyrad/healthmarket_backend/internal/repo"
	"github.com/Alijeyrad/healthmarket_backend/pkg/authorize"
	"github.com/Alijeyrad/healthmarket_backend/pkg/database"
	"github.com/Alijeyrad/healthmarket_backend/pkg/email"
	"github.com/Alijeyrad/healthmarket_backend/pkg/events"
	"github.com/Alijeyrad/healthmarket_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/healthmarket_backend/pkg/redis"
	"github.com/Alijeyrad/healthmarket_backend/pkg/search"
	"github.com/Alijeyrad/healthmarket_backend/pkg/sms"
	"github.com/Alijeyrad/healthmarket_backend/pkg/token"
	"github.com/Alijeyrad/healthmarket_backend/pkg/util/password"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRepoClient),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideEventBus),
	fx.Provide(ProvideSearchIndex),
	fx.Provide(ProvideTokenManager),
	fx.Provide(ProvidePasswordHasher),
)

func ProvideRepoClient(lc fx.Lifecycle, cfg *config.Config) (*repo.Client, error) {
	ctx := context.Background()
	dbCfg := database.FromCentralConfig(cfg.Database)

	if dbCfg.AutoMigrate {
		if err := runMigrations(ctx, dbCfg); err != nil {
			return nil, err
		}
	}

	conn, err := database.Open(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return conn.Close()
		},
	})
	return repo.NewClient(conn), nil
}

func runMigrations(ctx context.Context, cfg database.Config) error {
	pool, err := database.OpenPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := database.NewMigrator(pool, repo.Migrations()).Up(ctx)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if n > 0 {
		slog.Info("applied migrations", "count", n)
	}
	return nil
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(context.Background(), cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	authCfg := authorize.FromCentralConfig(cfg.Authorization)
	dsn := database.CasbinConfig(cfg).DSN()

	enforcer, cleanup, err := authorize.NewEnforcer(authCfg, dsn)
	if err != nil {
		return nil, err
	}
	baseAuth, err := authorize.NewAuthorization(enforcer, authCfg.SuperadminBypass)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}

	var auth authorize.IAuthorization = baseAuth
	if authCfg.EnableAudit {
		auth = authorize.NewAuditedAuthorization(baseAuth, slog.Default())
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) *email.Client {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

// ProvideEventBus connects to NATS when configured and otherwise delivers
// events in-process.
func ProvideEventBus(lc fx.Lifecycle, cfg *config.Config) (events.Bus, error) {
	var bus events.Bus
	if cfg.Nats.URL == "" {
		slog.Info("nats url not set, using in-process event bus")
		bus = events.NewLocalBus()
	} else {
		name := cfg.Nats.Name
		if name == "" {
			name = "healthmarket"
		}
		nc, err := nats.Connect(cfg.Nats.URL, nats.Name(name))
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		bus = events.NewNATSBus(nc, name+"-workers")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing event bus")
			return bus.Close()
		},
	})
	return bus, nil
}

func ProvideSearchIndex(cfg *config.Config) search.DoctorIndex {
	return search.New(cfg.Search)
}

func ProvideTokenManager(cfg *config.Config) (*token.Manager, error) {
	return token.NewFromConfig(cfg)
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
