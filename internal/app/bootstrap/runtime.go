package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	cacheadapter "github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/identity"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/storage"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/platform/otel"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

const serviceVersion = "0.1.0"

// countingCatalog is a catalog that also owns the view counter.
type countingCatalog interface {
	ports.CatalogRepository
	ports.ViewTracker
}

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	catalog    countingCatalog
	cleanups   []func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping m60 stream access service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"confirmation_mode", cfg.ConfirmationMode,
		"admin_elevation_mode", cfg.AdminElevationMode,
		"view_tracking", cfg.ViewTracking,
	)

	r := &Runtime{cfg: cfg, logger: logger}
	fail := func(err error) (*Runtime, error) {
		r.cleanup(context.Background())
		return nil, err
	}

	shutdownTracing, err := otel.Setup(ctx, cfg.ServiceID, serviceVersion)
	if err != nil {
		return fail(fmt.Errorf("setup tracing: %w", err))
	}
	r.onCleanup(func(ctx context.Context) { _ = shutdownTracing(ctx) })

	checks := map[string]httpadapter.ReadinessCheck{}

	var catalog countingCatalog
	if cfg.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		r.onCleanup(closeDB(db))
		if err := postgres.RunMigrations(ctx, db); err != nil {
			return fail(fmt.Errorf("run migrations: %w", err))
		}
		catalog = postgres.NewOfferingRepository(db)
		checks["postgres"] = func(ctx context.Context) error { return postgres.Ping(ctx, db) }
	} else {
		logger.Warn("DB_URL not set; using in-memory catalog")
		catalog = memory.NewCatalog()
	}
	r.catalog = catalog

	var (
		flags       ports.ElevationFlagStore
		revocations ports.CapabilityRevocationStore
		settlements ports.SettlementLedger
	)
	if cfg.RedisURL != "" {
		redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fail(fmt.Errorf("connect redis: %w", err))
		}
		r.onCleanup(func(context.Context) { _ = redisClient.Close() })
		flags = cacheadapter.NewRedisElevationFlagStore(redisClient)
		revocations = cacheadapter.NewRedisCapabilityRevocationStore(redisClient)
		settlements = cacheadapter.NewRedisSettlementLedger(redisClient, cfg.SettlementTTL)
		checks["redis"] = func(ctx context.Context) error { return cacheadapter.Ping(ctx, redisClient) }
	} else {
		logger.Warn("REDIS_URL not set; elevation and settlement state is process-local")
		flags = memory.NewElevationFlags()
		revocations = memory.NewRevocations(nil)
		settlements = memory.NewSettlementLedger()
	}

	tokenSigner, err := security.NewJWTSigner(cfg.JWTKeyID, cfg.JWTPrivateKeyPEM, cfg.JWTPublicKeyPEM)
	if err != nil {
		if !cfg.AllowEphemeralJWT {
			return fail(fmt.Errorf("init jwt signer: %w", err))
		}
		logger.Warn("using ephemeral JWT keys for local/dev runtime")
		tokenSigner, err = security.NewEphemeralJWTSigner(cfg.JWTKeyID)
		if err != nil {
			return fail(fmt.Errorf("init ephemeral jwt signer: %w", err))
		}
	}

	var views ports.ViewTracker
	switch cfg.ViewTracking {
	case ViewTrackingKafka:
		tracker, err := eventadapter.NewKafkaViewTracker(cfg.KafkaBrokers, cfg.KafkaViewTopic)
		if err != nil {
			return fail(fmt.Errorf("init kafka view tracker: %w", err))
		}
		r.onCleanup(func(context.Context) { _ = tracker.Close() })
		views = tracker
	case ViewTrackingLog:
		views = eventadapter.NewLoggingViewTracker(logger)
	default:
		views = catalog
	}

	var identityProvider ports.IdentityProvider
	if cfg.IdentityBaseURL != "" {
		identityProvider = identity.NewHTTPClient(cfg.IdentityBaseURL, cfg.IdentityMePath, cfg.IdentityTimeout)
	} else {
		logger.Warn("IDENTITY_URL not set; user sessions resolve to anonymous")
	}

	var (
		uploader   ports.Uploader
		uploadsDir string
	)
	if cfg.UploadsDir != "" {
		disk, err := storage.NewDiskUploader(cfg.UploadsDir, cfg.UploadsBaseURL, cfg.UploadMaxBytes)
		if err != nil {
			return fail(fmt.Errorf("init uploader: %w", err))
		}
		uploader = disk
		uploadsDir = cfg.UploadsDir
	}

	deps := application.Dependencies{
		Config: application.Config{
			ServiceName:         cfg.ServiceID,
			ConfirmationDelay:   cfg.ConfirmationDelay,
			ConfirmationMode:    cfg.ConfirmationMode,
			AdminElevationMode:  cfg.AdminElevationMode,
			AdminPassphraseHash: cfg.AdminPassphraseHash,
			AdminCapabilityTTL:  cfg.AdminCapabilityTTL,
			WatchTokenTTL:       cfg.WatchTokenTTL,
			AttemptTTL:          cfg.AttemptTTL,
			DefaultPaymentKey:   cfg.DefaultPaymentKey,
		},
		Catalog:     catalog,
		Identity:    identityProvider,
		Views:       views,
		Uploader:    uploader,
		Settlements: settlements,
		Tokens:      tokenSigner,
		Passwords:   security.NewBcryptPassphrase(cfg.BcryptCost),
		Flags:       flags,
		Revocations: revocations,
	}
	svc := application.NewService(deps)
	if cfg.AdminPassphraseHash == "" {
		logger.Warn("ADMIN_PASSPHRASE_HASH not set; admin login is disabled")
	}

	handler := httpadapter.NewHandler(svc, httpadapter.HandlerOptions{Checks: checks, UploadsDir: uploadsDir})
	// No WriteTimeout: attempt event streams stay open for the countdown.
	r.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	r.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(r.grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(r.grpcServer, grpcadapter.NewStreamAccessInternalServer(svc))
	return r, nil
}

// RunAPI serves HTTP and gRPC. Ports are bound here so a worker built from
// the same config never claims them.
func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.cleanup(context.Background())
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanup(shutdownCtx)
	return runErr
}

// RunWorker drains view events into the catalog counter.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.ShutdownTimeout)
		defer cancel()
		r.cleanup(shutdownCtx)
	}()

	if r.cfg.ViewTracking != ViewTrackingKafka {
		return fmt.Errorf("view count worker requires view_tracking %q", ViewTrackingKafka)
	}
	// The reader joins the consumer group on creation, so only the worker
	// builds one.
	consumer := eventadapter.NewViewCountConsumer(r.cfg.KafkaBrokers, r.cfg.KafkaViewTopic, r.cfg.KafkaConsumerGroup, r.catalog, r.logger)
	defer consumer.Close()

	r.logger.Info("view count worker started", "topic", r.cfg.KafkaViewTopic, "group", r.cfg.KafkaConsumerGroup)
	err := consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Runtime) onCleanup(fn func(context.Context)) {
	r.cleanups = append(r.cleanups, fn)
}

// cleanup runs registered closers in reverse order, once.
func (r *Runtime) cleanup(ctx context.Context) {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i](ctx)
	}
	r.cleanups = nil
}

func closeDB(db *gorm.DB) func(context.Context) {
	return func(context.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		_ = sqlDB.Close()
	}
}
