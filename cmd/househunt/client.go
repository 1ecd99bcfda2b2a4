package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/okian/househunt/internal/adapters/remote"
	"github.com/okian/househunt/internal/adapters/session"
	"github.com/okian/househunt/internal/config"
	"github.com/okian/househunt/internal/projects"
	"github.com/okian/househunt/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const remoteBurst = 5

// errSignIn is shown when the session is missing or expired.
var errSignIn = errors.New("you must sign in: set HOUSEHUNT_AUTH_TOKEN or --token")

// syncClient bundles the pieces one command needs: the controller over the
// remote store and the session monitor it checks before every mutation.
type syncClient struct {
	controller *projects.Controller
	monitor    *session.Monitor
	remote     *remote.Client
	log        logger.Logger
}

func loadConfig(ctx context.Context, flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if flags.baseURL != "" {
		cfg.RemoteBaseURL = flags.baseURL
	}
	if flags.token != "" {
		cfg.AuthToken = flags.token
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) logger.Logger {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		return logger.Nop()
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	return logger.Get()
}

func newSyncClient(cfg *config.Config, log logger.Logger) (*syncClient, error) {
	monitor := session.NewMonitor(session.Static(cfg.AuthToken),
		session.WithInterval(cfg.SessionCheckInterval()),
		session.WithLogger(log),
		session.WithOnExpired(func() {
			log.Warn(context.Background(), errSignIn.Error())
		}),
	)
	client, err := remote.New(cfg.RemoteBaseURL, monitor,
		remote.WithTimeout(cfg.RemoteTimeout()),
		remote.WithRateLimit(cfg.RemoteRPS, remoteBurst),
		remote.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	controller := projects.NewController(client,
		projects.WithAuthenticator(monitor),
		projects.WithQueueCapacity(cfg.SyncQueueSize),
		projects.WithLogger(log),
	)
	return &syncClient{controller: controller, monitor: monitor, remote: client, log: log}, nil
}

// withClient loads settings, mounts the controller with the session monitor
// running beside it, and runs fn. The controller is unmounted before return.
func withClient(ctx context.Context, flags *globalFlags, fn func(ctx context.Context, c *syncClient) error) error {
	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	c, err := newSyncClient(cfg, initLogging(cfg))
	if err != nil {
		return err
	}
	if !c.monitor.Check(ctx) {
		return errSignIn
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return c.monitor.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		if err := c.controller.Mount(gctx); err != nil {
			return fmt.Errorf("mount: %w", err)
		}
		defer c.controller.Unmount()
		return fn(gctx, c)
	})
	return g.Wait()
}

// settled waits for the load covering rev and turns a failed load into an error.
func (c *syncClient) settled(ctx context.Context, rev uint64, timeout time.Duration) (projects.Snapshot, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	snap, err := c.controller.Wait(waitCtx, rev)
	if err != nil {
		return snap, fmt.Errorf("waiting for projects: %w", err)
	}
	if snap.State == projects.LoadFailed {
		if errors.Is(snap.Err, remote.ErrAuth) {
			return snap, errSignIn
		}
		return snap, fmt.Errorf("could not load projects: %w", snap.Err)
	}
	return snap, nil
}
