package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/walletflow/internal/adapter/amqp"
	"github.com/simaogato/walletflow/internal/adapter/cache"
	grpcadapter "github.com/simaogato/walletflow/internal/adapter/grpc"
	"github.com/simaogato/walletflow/internal/adapter/repository/memory"
	"github.com/simaogato/walletflow/internal/adapter/repository/sqlstore"
	"github.com/simaogato/walletflow/internal/config"
	"github.com/simaogato/walletflow/internal/domain"
	"github.com/simaogato/walletflow/internal/logging"
	"github.com/simaogato/walletflow/internal/metrics"
	"github.com/simaogato/walletflow/internal/usecase/dashboard"
	"github.com/simaogato/walletflow/internal/usecase/journal"
	"github.com/simaogato/walletflow/internal/usecase/ledger"
	"github.com/simaogato/walletflow/internal/usecase/seeder"
)

const (
	connectAttempts   = 5
	connectBackoff    = 2 * time.Second
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	checks := map[string]metrics.HealthCheck{}

	// 1. Setup storage
	store, closeStore, err := openStore(ctx, cfg, logger, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. Initialize event publishers
	m := metrics.New()
	publishers := journal.MultiPublisher{m}
	if cfg.AMQPURL != "" {
		publisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		defer publisher.Close()
		publishers = append(publishers, publisher)
		checks["amqp"] = func(context.Context) error {
			if publisher.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
		logger.Info("publishing journal events", zap.String("exchange", cfg.AMQPExchange))
	}

	// 3. Initialize Services (Use Cases)
	ledgerService := ledger.NewLedgerService(store, logger)
	journalService := journal.NewJournalService(store, ledgerService, publishers, logger)
	dashboardService := dashboard.NewDashboardService(ledgerService)

	if cfg.SeedFile != "" {
		seed, err := seeder.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := seeder.NewWalletSeeder(ledgerService, seed, logger).Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed wallets: %w", err)
		}
	}

	// 4. Build gRPC server
	interceptors := []grpclib.UnaryServerInterceptor{
		grpcadapter.LoggingInterceptor(logger),
		grpcadapter.MetricsInterceptor(m),
		grpcadapter.AuthInterceptor(cfg.APIToken),
	}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		interceptors = append(interceptors, grpcadapter.IdempotencyInterceptor(rdb, cfg.IdempotencyTTL, logger))
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	grpcServer := grpclib.NewServer(grpclib.ChainUnaryInterceptor(interceptors...))
	grpcadapter.RegisterWalletFlowServiceServer(grpcServer, grpcadapter.NewServer(ledgerService, journalService, dashboardService))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}

	adminServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metrics.NewAdminRouter(m, checks),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// 5. Serve until a signal arrives or a server fails
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		return grpcServer.Serve(lis)
	})

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			logger.Info("admin server listening", zap.String("addr", cfg.MetricsAddr))
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return adminServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore selects the storage backend and registers its health check
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, checks map[string]metrics.HealthCheck) (domain.UnitOfWork, func(), error) {
	var (
		db  *sqlstore.DB
		err error
	)

	switch cfg.DataBackend {
	case "memory":
		logger.Warn("using in-memory storage; data is lost on exit")
		return memory.NewStore(), func() {}, nil
	case "sqlite":
		db, err = sqlstore.OpenSQLite(ctx, cfg.SQLiteDBPath)
	case "postgres":
		// Postgres may still be starting when running under compose
		for attempt := 1; attempt <= connectAttempts; attempt++ {
			db, err = sqlstore.OpenPostgres(ctx, cfg.PostgresConnString())
			if err == nil {
				break
			}
			logger.Warn("database not ready", zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(connectBackoff):
			}
		}
	default:
		return nil, nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("database ready", zap.String("backend", db.Dialect()))

	checks["database"] = db.PingContext
	return sqlstore.NewStore(db), func() { db.Close() }, nil
}
