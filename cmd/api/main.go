package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/taller-stock/internal/application/inventory"
	"github.com/jhoicas/taller-stock/internal/application/stockledger"
	"github.com/jhoicas/taller-stock/internal/infrastructure/inventoryapi"
	"github.com/jhoicas/taller-stock/internal/infrastructure/metrics"
	"github.com/jhoicas/taller-stock/internal/infrastructure/querycache"
	"github.com/jhoicas/taller-stock/internal/infrastructure/redisbus"
	httpRouter "github.com/jhoicas/taller-stock/internal/interfaces/http"
	"github.com/jhoicas/taller-stock/pkg/config"
	"github.com/jhoicas/taller-stock/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("upstream", cfg.Upstream.BaseURL).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cache := querycache.New(querycache.WithFetchTimeout(cfg.Upstream.Timeout))
	collector := metrics.NewCollector()
	api := inventoryapi.NewClient(inventoryapi.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout,
	}, nil)

	ledger := stockledger.NewCoordinator(api, cache,
		stockledger.WithLogger(log.Component("stockledger")),
		stockledger.WithObserver(collector),
		stockledger.WithRequestTimeout(cfg.Upstream.Timeout),
		stockledger.WithRetention(cfg.Cache.MutationRetention),
	)
	queries := inventory.NewQueryUseCase(ledger)

	// Bus de invalidaciones entre réplicas (opcional).
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis no disponible, invalidaciones solo locales")
		} else {
			bus := redisbus.NewInvalidationBus(rdb, cfg.Redis.Channel, uuid.NewString(), log.Component("redisbus"))
			bus.Attach(cache)
			go func() {
				if err := bus.Run(ctx, cache); err != nil {
					log.Error().Err(err).Msg("bus de invalidaciones finalizado")
				}
			}()
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.Upstream.Timeout + time.Second*10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Taller Stock API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "cached_keys": cache.Len()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledger,
		Queries:     queries,
		JWTSecret:   cfg.JWT.Secret,
		WaitTimeout: cfg.Upstream.Timeout + 5*time.Second,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
