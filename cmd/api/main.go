package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/application/sales"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	appLog := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log := appLog.Zerolog()
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Persistencia: PostgreSQL, o memoria con datos de demostración si APP_ENV=memory.
	var (
		txRunner repository.TxRunner
		repos    repository.Repos
	)
	if cfg.App.IsMemory() {
		db := memory.NewStore()
		seedDemo(db)
		txRunner, repos = db, db.Repos()
		log.Warn().Msg("modo memoria: los datos se pierden al reiniciar")
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner, repos = postgres.NewTxRunner(pool), postgres.NewRepos(pool)
	}

	notifier := buildNotifier(ctx, cfg.Redis, log)
	defer func() {
		if err := notifier.Close(); err != nil {
			log.Warn().Err(err).Msg("cierre de notificadores")
		}
	}()

	processor := stock.NewMovementProcessor(txRunner, repos.Movements, log)
	availability := stock.NewAvailabilityChecker(repos.Stock)
	auditor := stock.NewLedgerAuditor(repos.Movements, repos.Stock)
	cycleUC := inventory.NewCycleUseCase(txRunner, repos.Cycles, repos.Lines, processor, notifier, cfg.Inventory.NotifyTimeout, log)
	reportUC := inventory.NewReportUseCase(repos.Cycles, repos.Lines, repos.Products, repos.Stores, infrapdf.NewMarotoCycleReport())
	checkoutUC := sales.NewCheckoutUseCase(txRunner, availability, processor, log)
	receptionUC := purchasing.NewReceptionUseCase(txRunner, processor, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Processor:    processor,
		Availability: availability,
		Auditor:      auditor,
		Cycles:       cycleUC,
		Reports:      reportUC,
		Checkout:     checkoutUC,
		Reception:    receptionUC,
		JWTSecret:    cfg.JWT.Secret,
		Log:          log,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// buildNotifier siempre registra en el log; publica en Redis si está habilitado y responde.
func buildNotifier(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) notify.MultiNotifier {
	notifiers := notify.MultiNotifier{notify.NewLogNotifier(log)}
	if !cfg.Enabled {
		return notifiers
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis no disponible: eventos solo en log")
		_ = client.Close()
		return notifiers
	}
	return append(notifiers, notify.NewRedisNotifier(client, cfg.Channel, log))
}
