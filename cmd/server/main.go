// Command server runs the identity registry HTTP service.
//
// State lives in Postgres when VERIS_POSTGRES_DSN is set, otherwise in
// memory. The ledger height comes from Redis when VERIS_REDIS_URL is
// set, otherwise from a process-local counter. Audit events go to
// Kafka when VERIS_KAFKA_BROKERS is set, otherwise to an in-process
// sink.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"veris/internal/audit"
	"veris/internal/identity/handler"
	identitymetrics "veris/internal/identity/metrics"
	"veris/internal/identity/service"
	"veris/internal/identity/store"
	historyStore "veris/internal/identity/store/history"
	identityStore "veris/internal/identity/store/identity"
	transferStore "veris/internal/identity/store/transfer"
	jwttoken "veris/internal/jwt_token"
	"veris/internal/ledger"
	"veris/internal/platform/config"
	"veris/internal/platform/httpserver"
	"veris/internal/platform/logger"
	"veris/internal/platform/metrics"
	"veris/internal/platform/middleware"
	"veris/internal/platform/postgres"
	platformredis "veris/internal/platform/redis"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		identities service.IdentityStore
		transfers  service.TransferStore
		history    service.HistoryStore
		atomic     service.Atomic
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		identities = identityStore.NewPostgres(db)
		transfers = transferStore.NewPostgres(db)
		history = historyStore.NewPostgres(db)
		atomic = store.NewPostgresTx(db)
		log.Info("using postgres stores")
	} else {
		identities = identityStore.NewInMemory()
		transfers = transferStore.NewInMemory()
		history = historyStore.NewInMemory()
		atomic = store.NewMemoryTx()
		log.Info("using in-memory stores")
	}

	var heights ledger.HeightSource = ledger.NewCounter(0)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		heights = ledger.NewRedisSource(redisClient.Client)
		log.Info("using redis height source")
	}

	var publisher audit.Publisher = audit.NewMemory()
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafka(cfg.KafkaBrokers,
			audit.WithTopic(cfg.KafkaTopic),
			audit.WithLogger(log),
		)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("publishing audit events to kafka", "topic", cfg.KafkaTopic)
	}

	registryMetrics := identitymetrics.New()
	svc, err := service.New(identities, transfers, history, atomic,
		service.WithLogger(log),
		service.WithMetrics(registryMetrics),
		service.WithAuditPublisher(publisher),
		service.WithCascadeRevoke(cfg.CascadeRevoke),
	)
	if err != nil {
		log.Error("service construction failed", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	validator := jwttoken.NewJWTServiceAdapter(jwtService)
	httpMetrics := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log, httpMetrics))
	router.Use(middleware.Height(heights, log))

	registryHandler := handler.New(svc, log, registryMetrics, middleware.RequireAuth(validator, log))
	registryHandler.Register(router)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting veris registry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
