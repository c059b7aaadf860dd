package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/jhoicas/Inventario-pares/internal/application/catalog"
	"github.com/jhoicas/Inventario-pares/internal/application/intake"
	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
	"github.com/jhoicas/Inventario-pares/internal/application/ports"
	"github.com/jhoicas/Inventario-pares/internal/application/transfer"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/cache"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/classifier"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/notify"
	"github.com/jhoicas/Inventario-pares/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-pares/internal/interfaces/http"
	"github.com/jhoicas/Inventario-pares/pkg/config"
	"github.com/jhoicas/Inventario-pares/pkg/logger"
)

// storage repositorios de lectura y ejecutor de transacciones del backend elegido.
type storage struct {
	tx        ports.TxRunner
	units     repository.InventoryUnitRepository
	changes   repository.InventoryChangeRepository
	transfers repository.TransferRepository
	incidents repository.IncidentRepository
	locations repository.LocationRepository
	products  repository.ProductRepository
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		s := memory.New(cfg.Storage.LockTimeout)
		return storage{
			tx: s, units: s.Units(), changes: s.Changes(), transfers: s.Transfers(),
			incidents: s.Incidents(), locations: s.Locations(), products: s.Products(),
			close: func() {},
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	repos := postgres.NewRepositories(pool)
	return storage{
		tx:        postgres.NewTxRunner(pool, cfg.Storage.LockTimeout),
		units:     repos.Units,
		changes:   repos.Changes,
		transfers: repos.Transfers,
		incidents: repos.Incidents,
		locations: repos.Locations,
		products:  repos.Products,
		close:     pool.Close,
	}
}

func main() {
	_ = godotenv.Load() // .env opcional en desarrollo

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
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store := openStorage(ctx, cfg, log)
	defer store.close()

	// Notificaciones: siempre al log; a Kafka si hay brokers.
	sinks := []ports.Notifier{notify.NewLogNotifier(log.Named("events"))}
	var kafkaNotifier *notify.KafkaNotifier
	if cfg.Kafka.Enabled() {
		kafkaNotifier = notify.NewKafkaNotifier(notify.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, log.Named("kafka"))
		sinks = append(sinks, kafkaNotifier)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos publicados en Kafka")
	}
	notifier := notify.NewFanout(sinks...)

	var distCache ports.DistributionCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cache.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, distribución sin caché")
		} else {
			defer client.Close()
			distCache = cache.NewRedisDistributionCache(client, cfg.Workflow.DistributionTTL, log.Named("cache"))
		}
	}

	var imageClassifier ports.Classifier
	if cfg.Classifier.Enabled() {
		imageClassifier = classifier.NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.APIKey, cfg.Classifier.Timeout)
	}

	inventoryLedger := ledger.New(ledger.Deps{
		TxRunner:  store.tx,
		Units:     store.units,
		Changes:   store.changes,
		Locations: store.locations,
		Products:  store.products,
		Cache:     distCache,
		Logger:    log.Named("ledger"),
	})
	pairingEngine := pairing.NewEngine(store.tx, inventoryLedger, store.units, notifier, log.Named("pairing"))
	transferEngine := transfer.NewEngine(transfer.Deps{
		TxRunner:  store.tx,
		Ledger:    inventoryLedger,
		Pairing:   pairingEngine,
		Transfers: store.transfers,
		Incidents: store.incidents,
		Locations: store.locations,
		Products:  store.products,
		Notifier:  notifier,
		Logger:    log.Named("transfers"),
		Config:    transfer.Config{HoldTTL: cfg.Workflow.HoldTTL},
	})
	intakeUC := intake.NewUseCase(imageClassifier, store.tx, store.products, inventoryLedger, log.Named("intake"), intake.Config{
		MinConfidence: cfg.Classifier.MinConfidence,
		Timeout:       cfg.Classifier.Timeout,
	})

	if cfg.Workflow.HoldAutoExpire {
		go transfer.NewHoldSweeper(transferEngine, cfg.Workflow.HoldSweepInterval).Run(ctx)
		log.Info().Dur("ttl", cfg.Workflow.HoldTTL).Msg("vencimiento automático de reservas activo")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    10 << 20,
		ErrorHandler: httpRouter.ErrorHandler(func(c *fiber.Ctx, err error) {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		}),
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LocationUC: catalog.NewLocationUseCase(store.locations),
		ProductUC:  catalog.NewProductUseCase(store.products),
		Ledger:     inventoryLedger,
		Pairing:    pairingEngine,
		Transfers:  transferEngine,
		IntakeUC:   intakeUC,
		JWTSecret:  cfg.JWT.Secret,
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
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar productor Kafka")
		}
	}

	log.Info().Msg("aplicación detenida")
}
