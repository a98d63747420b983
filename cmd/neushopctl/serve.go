package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/goliatone/go-users/pkg/types"

	"github.com/goliatone/go-neushop/components/console"
	"github.com/goliatone/go-neushop/components/console/gorouter"
	"github.com/goliatone/go-neushop/pkg/activity"
	"github.com/goliatone/go-neushop/pkg/activity/usersink"
	"github.com/goliatone/go-neushop/pkg/telemetry"
)

type serveCmd struct {
	Addr     string `help:"Listen address (overrides server.addr)."`
	BasePath string `default:"/console" help:"Mount point of the console pages."`
}

func (cmd *serveCmd) Run(a *app) error {
	cfg, logger, err := a.configure()
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Server.Addr = cmd.Addr
	}

	broadcast := console.NewBroadcastHook()
	h := hooks{
		events: broadcast,
		activity: activity.NewEmitter(activity.Hooks{
			usersink.Hook{Sink: logSink{logger: logger}},
		}, activity.Config{Enabled: cfg.Activity.Enabled}),
	}
	if cfg.Metrics.Enabled {
		h.telemetry = telemetry.New(telemetry.Config{Namespace: cfg.Metrics.Namespace})
	}
	rt, err := a.boot(cfg, logger, h)
	if err != nil {
		return err
	}

	renderer, err := console.NewTemplateRenderer()
	if err != nil {
		return err
	}
	controller := console.NewController(console.ControllerOptions{
		Service:  rt.service,
		Renderer: renderer,
		BasePath: cmd.BasePath,
	})

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:       server.Router(),
		Controller:   controller,
		Executor:     rt.exec,
		Broadcast:    broadcast,
		SecureCookie: cfg.Server.SecureCookie,
		CookieTTL:    cfg.Server.SessionTTL,
	}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()
	go sweep(ctx, rt, h.telemetry, cfg.Server.SweepInterval)

	if cfg.Metrics.Addr != "" {
		ops := opsServer(cfg.Metrics.Addr, h.telemetry, broadcast)
		go func() {
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops listener stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = ops.Shutdown(shutdownCtx)
		}()
		logger.Info("ops listener ready", "addr", cfg.Metrics.Addr, "metrics", h.telemetry != nil)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(cfg.Server.Addr)
	}()
	logger.Info("console ready", "addr", cfg.Server.Addr, "base_path", controller.BasePath(), "backend", cfg.Backend.BaseURL)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errCh:
		return err
	}
}

// opsServer exposes the event streams and, when metrics is set, Prometheus
// metrics.
func opsServer(addr string, metrics *telemetry.Prometheus, events *console.BroadcastHook) *http.Server {
	mux := http.NewServeMux()
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.HandleFunc("/events/ws", events.ServeWebSocket)
	mux.HandleFunc("/events/sse", events.ServeSSE)
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
}

func sweep(ctx context.Context, rt *runtime, metrics *telemetry.Prometheus, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.service.Sweep(ctx)
			if metrics != nil {
				metrics.SetWorkspaces(rt.service.Workspaces())
			}
		}
	}
}

// logSink writes activity records to the process log.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Log(ctx context.Context, record types.ActivityRecord) error {
	s.logger.InfoContext(ctx, "activity",
		"verb", record.Verb,
		"object_type", record.ObjectType,
		"object_id", record.ObjectID,
		"actor_id", record.ActorID.String(),
		"channel", record.Channel,
	)
	return nil
}
