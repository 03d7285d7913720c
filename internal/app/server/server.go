package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"paycalc/internal/domain/audit"
	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/config"
	"paycalc/internal/platform/csvsource"
	"paycalc/internal/platform/db"
	"paycalc/internal/platform/jobs"
	"paycalc/internal/platform/logging"
	"paycalc/internal/platform/metrics"
	"paycalc/internal/platform/rules"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Logger  *slog.Logger
	Payroll *payroll.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Audit   *audit.Service
}

func Run() error {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Environment)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("paycalc server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Build loads rules and source data and connects the ledger. Without
// DATABASE_URL posted payroll lives in memory.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	r, rulesPath, err := rules.Resolve(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	if rulesPath == "" {
		slog.Info("using built-in payroll rules")
	} else {
		slog.Info("payroll rules loaded", "path", rulesPath)
	}

	loader := csvsource.NewLoader(cfg.SourceTimeout)
	data, err := loader.LoadDataset(ctx, cfg.EmployeesSource, cfg.AttendanceSource)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	var ledger payroll.Ledger
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect failed: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations failed: %w", err)
			}
		}
		app.DB = pool
		ledger = payroll.NewStore(pool)
	} else {
		slog.Warn("DATABASE_URL not set, posted payroll is kept in memory")
		ledger = payroll.NewMemoryStore()
	}

	app.Payroll = payroll.NewService(payroll.NewEngine(r), data, ledger, cfg.BatchWorkers)
	app.Jobs = jobs.New(app.DB, cfg.JobQueueSize)
	app.Audit = audit.New(app.DB)
	slog.Info("payroll dataset ready",
		"employees", data.Employees.Len(),
		"attendance", len(data.Attendance),
		"skipped", data.SkippedRecords,
	)
	return app, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
