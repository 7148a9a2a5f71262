// Command studydeck-server serves the studydeck.v1 gRPC API over PostgreSQL.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "github.com/and161185/studydeck/internal/api/studydeckv1"
	"github.com/and161185/studydeck/internal/config"
	pkgcrypto "github.com/and161185/studydeck/internal/crypto"
	"github.com/and161185/studydeck/internal/limiter"
	"github.com/and161185/studydeck/internal/migrate"
	"github.com/and161185/studydeck/internal/repository/postgres"
	grpcserver "github.com/and161185/studydeck/internal/server/grpc"
	"github.com/and161185/studydeck/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownGrace = 5 * time.Second

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.LoadServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		stop()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func serverCreds(cfg *config.ServerConfig) (credentials.TransportCredentials, error) {
	if cfg.Insecure {
		return insecure.NewCredentials(), nil
	}
	creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("load TLS cert/key: %w", err)
	}
	return creds, nil
}

// run migrates the database and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger) error {
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.Bool("tls", !cfg.Insecure),
	)

	creds, err := serverCreds(cfg)
	if err != nil {
		return err
	}

	if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("pgxpool: %w", err)
	}
	defer db.Close()

	lim := limiter.NewPG(db.Pool, limiter.Policy{
		Window:   cfg.LoginWindow,
		MaxFails: cfg.LoginMaxFails,
		BlockFor: cfg.LoginBlockFor,
	})
	authSvc := service.NewAuthService(
		postgres.NewUserRepo(db),
		postgres.NewProfileRepo(db),
		pkgcrypto.NewHasher(pkgcrypto.DefaultParams),
		[]byte(cfg.JWTKey), cfg.AccessTTL, lim,
	)
	recordSvc := service.NewRecordService(postgres.NewRecordRepo(db), nil)

	s := newGRPCServer(cfg, creds, authSvc, recordSvc, logger)

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, s, lis, logger)
}

func newGRPCServer(
	cfg *config.ServerConfig,
	creds credentials.TransportCredentials,
	authSvc service.AuthService,
	recordSvc service.RecordService,
	logger *zap.Logger,
) *grpc.Server {
	s := grpc.NewServer(
		grpc.Creds(creds),
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.AuthUnary([]byte(cfg.JWTKey), cfg.TokenLeeway, api.PublicMethods),
		),
	)
	api.RegisterStudyDeckServer(s, grpcserver.New(authSvc, recordSvc, logger))

	hs := health.NewServer()
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Dev {
		reflection.Register(s)
	}
	return s
}

// serve blocks until ctx is done or the server fails, then stops gracefully.
func serve(ctx context.Context, s *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", lis.Addr().String()))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownGrace):
			s.Stop()
		}
		return nil
	case err := <-errCh:
		return err
	}
}
