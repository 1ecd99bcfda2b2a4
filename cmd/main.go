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

	"github.com/okian/househunt/internal/adapters/http/api"
	"github.com/okian/househunt/internal/adapters/http/swagger"
	app "github.com/okian/househunt/internal/app"
	"github.com/okian/househunt/internal/auth"
	"github.com/okian/househunt/internal/config"
	"github.com/okian/househunt/pkg/logger"
	"github.com/okian/househunt/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	registerRuntimeCollectors(metrics.GetRegistry())

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
	log.Info(ctx, "server stopped")
}

// run serves the project API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	store, err := app.OpenStore(ctx, cfg.StoreBackend, cfg.RedisURL, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	svc := app.New(app.WithStore(store), app.WithLogger(log.Named("service")))
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn(ctx, "store close failed", logger.Error(err))
		}
	}()

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if !verifier.Verifying() {
		log.Warn(ctx, "auth_insecure is set; bearer tokens are decoded without signature checks")
	}

	var docs []swagger.Option
	if cfg.RedocJSPath != "" {
		js, err := os.ReadFile(cfg.RedocJSPath)
		if err != nil {
			return fmt.Errorf("read redoc bundle: %w", err)
		}
		docs = append(docs, swagger.WithRedocScript(js))
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	log.Info(ctx, "starting HTTP server",
		logger.String("addr", ln.Addr().String()),
		logger.String("store_backend", cfg.StoreBackend),
	)
	return serve(ctx, newHTTPServer(newMux(ctx, svc, verifier, docs...)), ln, log)
}

func newMux(ctx context.Context, deps api.Dependencies, verifier api.Verifier, docs ...swagger.Option) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux, docs...)
	api.NewServer(deps, verifier).Register(ctx, mux)
	return mux
}

func newHTTPServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// serve runs srv on ln and shuts it down gracefully once ctx is done.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, log logger.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// registerRuntimeCollectors adds Go runtime and process metrics to reg.
func registerRuntimeCollectors(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				logger.GetOrNop().Warn(context.Background(), "collector registration failed", logger.Error(err))
			}
		}
	}
}
