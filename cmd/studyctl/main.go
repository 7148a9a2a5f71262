// Command studyctl is an interactive client for studydeck notes and flashcards.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"go.uber.org/zap"

	"github.com/and161185/studydeck/internal/config"
	pkgcrypto "github.com/and161185/studydeck/internal/crypto"
	"github.com/and161185/studydeck/internal/gateway"
	"github.com/and161185/studydeck/internal/gateway/embedded"
	"github.com/and161185/studydeck/internal/gateway/remote"
	"github.com/and161185/studydeck/internal/limiter"
	"github.com/and161185/studydeck/internal/repository/memory"
	"github.com/and161185/studydeck/internal/service"
	"github.com/and161185/studydeck/internal/store"
)

var version = "dev"

// embeddedTTL bounds in-process sessions; they never outlive the process anyway.
const embeddedTTL = 24 * time.Hour

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

func main() {
	cfg, err := config.LoadClient(os.Args[1:])
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

	gw, closer, err := newGateway(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "studyctl:", err)
		stop()
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	st := store.New(gw, logger.Named("store"))
	st.Bootstrap()
	defer st.Close()

	a := newApp(st, os.Stdout, cfg.Timeout)
	unwatch := a.watch()
	defer unwatch()

	fmt.Fprint(os.Stdout, figure.NewFigure("studydeck", "cybermedium", true).String())
	fmt.Fprintf(os.Stdout, "\nstudyctl %s. Type 'help' for commands.\n", version)
	runREPL(ctx, a, os.Stdin)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newGateway picks the in-process backend or dials the server and restores a saved session.
func newGateway(ctx context.Context, cfg *config.ClientConfig, log *zap.Logger) (gateway.Gateway, io.Closer, error) {
	if cfg.Embedded {
		gw, err := newEmbedded(log)
		if err != nil {
			return nil, nil, err
		}
		return gw, nopCloser{}, nil
	}

	dir := cfg.TokenDir
	if dir == "" {
		dir = remote.DefaultDir()
	}
	gw, err := remote.Dial(remote.DialConfig{
		Addr:       cfg.Addr,
		CACert:     cfg.CACert,
		SkipVerify: cfg.SkipVerify,
		Plaintext:  cfg.Plaintext,
	}, remote.NewTokenStore(dir), log.Named("remote"))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}

	rctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := gw.Restore(rctx); err != nil {
		// offline start is fine; commands will report the network error
		log.Warn("restore session", zap.Error(err))
	}
	return gw, gw, nil
}

// newEmbedded runs the services in-process over memory repositories.
func newEmbedded(log *zap.Logger) (*embedded.Gateway, error) {
	key, err := pkgcrypto.RandBytes(32)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}
	auth := service.NewAuthService(
		memory.NewUserRepo(), memory.NewProfileRepo(),
		pkgcrypto.NewHasher(pkgcrypto.DefaultParams),
		key, embeddedTTL, limiter.NewMemory(limiter.DefaultPolicy),
	)
	records := service.NewRecordService(memory.NewRecordRepo(), nil)
	return embedded.New(auth, records, log.Named("embedded")), nil
}
