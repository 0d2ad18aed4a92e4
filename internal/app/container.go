// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/runoshun/flow/internal/domain"
	"github.com/runoshun/flow/internal/infra/config"
	"github.com/runoshun/flow/internal/infra/errsink"
	"github.com/runoshun/flow/internal/infra/executor"
	"github.com/runoshun/flow/internal/infra/git"
	"github.com/runoshun/flow/internal/infra/history"
	"github.com/runoshun/flow/internal/infra/logging"
	"github.com/runoshun/flow/internal/infra/runner"
	"github.com/runoshun/flow/internal/infra/telemetry"
	"github.com/runoshun/flow/internal/infra/treestore"
	"github.com/runoshun/flow/internal/scheduler"
	"github.com/runoshun/flow/internal/usecase"
)

// Config holds the application paths.
type Config struct {
	ProjectDir  string // Root directory of the project
	TreePath    string // Default workflow tree file
	HistoryPath string // Run history database (empty when disabled)
	RunID       string // Identifies this process's workflow run
}

// newConfig resolves paths relative to the project root.
func newConfig(projectDir string, appConfig *domain.Config) Config {
	cfg := Config{
		ProjectDir: projectDir,
		TreePath:   domain.ResolvePath(projectDir, appConfig.Workflow.File),
		RunID:      uuid.NewString(),
	}
	if cfg.TreePath == "" {
		cfg.TreePath = domain.DefaultTreePath(projectDir)
	}
	if appConfig.History.Enabled {
		cfg.HistoryPath = domain.ResolvePath(projectDir, appConfig.History.Path)
		if cfg.HistoryPath == "" {
			cfg.HistoryPath = domain.HistoryPath(projectDir)
		}
	}
	return cfg
}

// Options customize container construction.
type Options struct {
	Stderr  io.Writer // Log and telemetry destination (default os.Stderr)
	Version string    // Reported as service.version
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	// Ports (interfaces bound to implementations)
	Runner        domain.CommandRunner
	Executor      domain.CommandExecutor
	Trees         domain.TreeRepository
	History       domain.HistoryRepository // nil when run history is disabled
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	Clock         domain.Clock

	// Pointer fields
	Logger    *slog.Logger
	Errors    *errsink.Collector
	Project   *domain.Project
	AppConfig *domain.Config
	observers []domain.TaskObserver
	closers   []func(context.Context) error

	// Configuration
	Config Config
}

// New creates a new Container for the project containing dir.
// The project root is the enclosing git worktree, or dir itself outside a
// repository.
func New(ctx context.Context, dir string, opts Options) (*Container, error) {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	project, err := git.NewResolver().Resolve(dir)
	if errors.Is(err, domain.ErrNotGitRepository) {
		abs, absErr := filepath.Abs(dir)
		if absErr != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, absErr)
		}
		project, err = domain.NewProject("", abs), nil
	}
	if err != nil {
		return nil, err
	}

	configLoader := config.NewLoader(project.Path)
	appConfig, err := configLoader.Load()
	if err != nil {
		// broken config files are reported by the config commands
		appConfig = domain.NewDefaultConfig()
	}

	c := &Container{
		ConfigLoader:  configLoader,
		ConfigManager: config.NewManager(project.Path),
		Clock:         domain.RealClock{},
		Project:       project,
		AppConfig:     appConfig,
		Config:        newConfig(project.Path, appConfig),
	}

	level := logging.ParseLevel(appConfig.Log.Level)
	c.Logger = logging.New(opts.Stderr, level)

	if appConfig.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			Writer:         opts.Stderr,
			ServiceName:    appConfig.Telemetry.ServiceName,
			ServiceVersion: opts.Version,
			Exporter:       appConfig.Telemetry.Exporter,
			OTLPEndpoint:   appConfig.Telemetry.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
		c.closers = append(c.closers, shutdown)
		c.Logger = logging.NewBridged(opts.Stderr, level)

		metrics, err := telemetry.NewObserver()
		if err != nil {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("init telemetry metrics: %w", err)
		}
		c.observers = append(c.observers, metrics)
	}
	c.observers = append(c.observers, logging.NewObserver(c.Logger))

	if c.Config.HistoryPath != "" {
		store, err := history.Open(ctx, c.Config.HistoryPath)
		if err != nil {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("open run history: %w", err)
		}
		c.closers = append(c.closers, func(context.Context) error { return store.Close() })
		c.History = store
		c.observers = append(c.observers, history.NewObserver(store, c.Config.RunID, c.Logger))
	}

	processHost := executor.NewClient()
	c.Executor = processHost
	c.Runner = runner.NewClient(processHost,
		runner.WithWindowsShims(appConfig.Runner.WindowsShims),
		runner.WithLogger(c.Logger),
	)
	c.Trees = treestore.New()
	c.Errors = errsink.New(c.Logger, c.Clock)

	return c, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(cfg Config, project *domain.Project, trees domain.TreeRepository, cmdRunner domain.CommandRunner, clock domain.Clock, logger *slog.Logger) *Container {
	return &Container{
		Runner:    cmdRunner,
		Trees:     trees,
		Clock:     clock,
		Logger:    logger,
		Errors:    errsink.New(logger, clock),
		Project:   project,
		AppConfig: domain.NewDefaultConfig(),
		Config:    cfg,
	}
}

// Close flushes telemetry and closes the run history, newest first.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i](ctx))
	}
	c.closers = nil
	return errors.Join(errs...)
}

// NewScheduler returns a task manager notifying the container's observers
// followed by extra.
func (c *Container) NewScheduler(extra ...domain.TaskObserver) *scheduler.Manager {
	opts := []scheduler.Option{
		scheduler.WithErrorSink(c.Errors),
		scheduler.WithClock(c.Clock),
		scheduler.WithLogger(c.Logger),
	}
	for _, o := range c.observers {
		opts = append(opts, scheduler.WithObserver(o))
	}
	for _, o := range extra {
		opts = append(opts, scheduler.WithObserver(o))
	}
	return scheduler.New(opts...)
}

// UseCase factory methods

// RunWorkflowUseCase returns a new RunWorkflow use case. extra observers
// receive task events after the built-in ones.
func (c *Container) RunWorkflowUseCase(extra ...domain.TaskObserver) *usecase.RunWorkflow {
	return usecase.NewRunWorkflow(c.Trees, c.Runner, c.NewScheduler(extra...), c.Errors, c.Logger)
}

// ShowWorkflowUseCase returns a new ShowWorkflow use case.
func (c *Container) ShowWorkflowUseCase() *usecase.ShowWorkflow {
	return usecase.NewShowWorkflow(c.Trees, c.Runner)
}

// ImportGulpTasksUseCase returns a new ImportGulpTasks use case.
func (c *Container) ImportGulpTasksUseCase() *usecase.ImportGulpTasks {
	return usecase.NewImportGulpTasks(c.Executor, c.Trees, c.AppConfig.Runner.WindowsShims, c.Logger)
}

// ListHistoryUseCase returns a new ListHistory use case.
func (c *Container) ListHistoryUseCase() *usecase.ListHistory {
	return usecase.NewListHistory(c.History)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.ConfigLoader)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}
