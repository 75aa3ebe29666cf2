// Command delphi-server starts the property registry gRPC server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/thewoodfish/property-delphi-contract/internal/api"
	"github.com/thewoodfish/property-delphi-contract/internal/cidutil"
	"github.com/thewoodfish/property-delphi-contract/internal/config"
	pkgcrypto "github.com/thewoodfish/property-delphi-contract/internal/crypto"
	"github.com/thewoodfish/property-delphi-contract/internal/event"
	"github.com/thewoodfish/property-delphi-contract/internal/limiter"
	"github.com/thewoodfish/property-delphi-contract/internal/metrics"
	"github.com/thewoodfish/property-delphi-contract/internal/migrate"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
	"github.com/thewoodfish/property-delphi-contract/internal/repository/memory"
	"github.com/thewoodfish/property-delphi-contract/internal/repository/postgres"
	grpcserver "github.com/thewoodfish/property-delphi-contract/internal/server/grpc"
	"github.com/thewoodfish/property-delphi-contract/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.LoadServer(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// backend bundles the storage-dependent pieces selected by --store.
type backend struct {
	store repository.Store
	creds repository.CredentialRepository
	lim   limiter.Limiter
	close func()
}

func openBackend(ctx context.Context, cfg config.Server, logger *zap.Logger) (*backend, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using in-memory store; state is lost on exit")
		return &backend{
			store: memory.NewStore(),
			creds: memory.NewCredentials(),
			lim:   limiter.NewMemory(cfg.LoginPolicy()),
			close: func() {},
		}, nil
	}

	ver, err := migrate.Up(ctx, cfg.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	logger.Info("schema ready", zap.Int64("version", ver))

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &backend{
		store: postgres.NewStore(db),
		creds: postgres.NewCredentialRepo(db),
		lim:   limiter.NewPG(db.Pool, cfg.LoginPolicy()),
		close: db.Close,
	}, nil
}

func run(ctx context.Context, cfg config.Server, logger *zap.Logger) error {
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []service.Option{service.WithLogger(logger), service.WithRejectionObserver(m)}
	if cfg.StrictCID {
		opts = append(opts, service.WithAddressValidator(cidutil.Parse))
	}
	notifier := event.Multi{event.NewLogNotifier(logger.Named("events")), m}
	registrySvc := service.NewRegistryService(be.store, notifier, opts...)
	authSvc := service.NewAuthService(be.creds, pkgcrypto.DefaultParams, []byte(cfg.JWTKey), cfg.AccessTTL, be.lim)

	srvOpts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.MetricsUnary(m),
			grpcserver.AuthUnary([]byte(cfg.JWTKey)),
		),
	}
	if cfg.TLS() {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		srvOpts = append(srvOpts, grpc.Creds(creds))
	} else {
		logger.Warn("TLS disabled; bearer tokens travel in plaintext")
	}
	s := grpc.NewServer(srvOpts...)
	api.RegisterRegistryServer(s, grpcserver.New(authSvc, registrySvc))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLS()))
		return s.Serve(lis)
	})

	var ms *http.Server
	if cfg.MetricsAddr != "" {
		ms = &http.Server{Addr: cfg.MetricsAddr, Handler: metricsRouter(reg), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		hs.Shutdown()
		if ms != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Shutdown(sctx)
		}
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
		return nil
	})

	return g.Wait()
}

func metricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
