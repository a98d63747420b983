package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-neushop/components/console"
	"github.com/goliatone/go-neushop/components/console/commands"
	"github.com/goliatone/go-neushop/components/dashboard"
	"github.com/goliatone/go-neushop/components/panel"
	"github.com/goliatone/go-neushop/components/session"
	"github.com/goliatone/go-neushop/pkg/config"
	"github.com/goliatone/go-neushop/pkg/neushop"
	"github.com/goliatone/go-neushop/pkg/telemetry"
)

type cli struct {
	Config   string   `type:"path" env:"NEUSHOP_CONFIG" help:"YAML configuration file."`
	EnvFile  []string `name:"env-file" default:".env" help:"dotenv files loaded before NEUSHOP_* overrides."`
	Username string   `short:"u" env:"NEUSHOP_USERNAME" help:"Backend username for one-shot commands."`
	Password string   `short:"p" env:"NEUSHOP_PASSWORD" help:"Backend password for one-shot commands."`

	Serve    serveCmd    `cmd:"" help:"Run the admin console web server."`
	Entities entitiesCmd `cmd:"" help:"Print the entity manifest."`
	List     listCmd     `cmd:"" help:"List the records of an entity."`
	Create   createCmd   `cmd:"" help:"Create a record."`
	Update   updateCmd   `cmd:"" help:"Update the editable fields of a record."`
	Delete   deleteCmd   `cmd:"" help:"Delete a record after confirmation."`
	Query    queryCmd    `cmd:"" help:"Run a dashboard query."`
}

// app carries process wiring into command Run methods.
type app struct {
	ctx     context.Context
	globals *cli
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	// factory overrides the HTTP backend client.
	factory console.ClientFactory
}

func main() {
	var c cli
	parser := kong.Parse(&c,
		kong.Name("neushopctl"),
		kong.Description("Admin console and command line client for the Neushop backend."),
		kong.UsageOnError(),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := parser.Run(&app{ctx: ctx, globals: &c, stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
	parser.FatalIfErrorf(err)
}

type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	service *console.Service
	exec    *commands.Executor
}

// hooks are the optional observers wired by serve.
type hooks struct {
	telemetry *telemetry.Prometheus
	activity  console.ActivityEmitter
	events    console.EventHook
}

// configure loads configuration and builds the process logger.
func (a *app) configure() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(a.globals.Config, a.globals.EnvFile...)
	if err != nil {
		return config.Config{}, nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})), nil
}

// start is configure plus boot without observers, for one-shot commands.
func (a *app) start() (*runtime, error) {
	cfg, logger, err := a.configure()
	if err != nil {
		return nil, err
	}
	return a.boot(cfg, logger, hooks{})
}

// boot builds the console service and its command executor.
func (a *app) boot(cfg config.Config, logger *slog.Logger, h hooks) (*runtime, error) {
	entities, err := loadRegistry(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	charts := dashboard.NewBarChartRenderer(
		dashboard.WithChartCache(dashboard.NewChartCache(cfg.Charts.CacheTTL)),
		dashboard.WithChartTheme(cfg.Charts.Theme),
		dashboard.WithChartAssetsHost(cfg.Charts.AssetsHost),
	)

	factory := a.factory
	if factory == nil {
		backend := cfg.Backend
		factory = func() (neushop.Client, error) {
			return neushop.NewHTTPClient(neushop.HTTPConfig{
				BaseURL:   backend.BaseURL,
				Timeout:   backend.Timeout,
				UserAgent: backend.UserAgent,
			})
		}
	}

	opts := console.Options{
		ClientFactory: factory,
		Registry:      entities,
		Widgets:       dashboard.NewRegistry(dashboard.WithChartRenderer(charts)),
		Events:        h.events,
		Activity:      h.activity,
		Logger:        logger,
		SessionTTL:    cfg.Server.SessionTTL,
	}
	var cmdTelemetry commands.Telemetry
	if h.telemetry != nil {
		opts.Telemetry = h.telemetry
		cmdTelemetry = h.telemetry
	}
	service, err := console.NewService(opts)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		service: service,
		exec:    commands.NewExecutor(service, cmdTelemetry),
	}, nil
}

func loadRegistry(path string) (*panel.Registry, error) {
	if path == "" {
		return panel.NewRegistry(nil)
	}
	manifest, err := panel.ReadManifest(path)
	if err != nil {
		return nil, err
	}
	return panel.NewRegistry(manifest)
}

var errMissingCredentials = errors.New("neushopctl: --username and --password are required")

// session opens a workspace and signs it in. The returned func signs out.
func (a *app) session(rt *runtime) (string, func(), error) {
	if a.globals.Username == "" || a.globals.Password == "" {
		return "", nil, errMissingCredentials
	}
	ws, err := rt.service.Open(a.ctx)
	if err != nil {
		return "", nil, err
	}
	err = rt.exec.Login.Execute(a.ctx, commands.LoginInput{
		Workspace: ws.ID,
		Username:  a.globals.Username,
		Password:  a.globals.Password,
	})
	if err != nil {
		_ = rt.service.Close(a.ctx, ws.ID)
		return "", nil, fmt.Errorf("neushopctl: %s: %w", session.InvalidLoginText, err)
	}
	done := func() {
		if err := rt.service.Close(a.ctx, ws.ID); err != nil {
			rt.logger.Warn("close workspace", "error", err)
		}
	}
	return ws.ID, done, nil
}
