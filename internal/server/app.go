// Package server wires configuration, logging, the database and the user
// service into the accounts command line.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dmitrijs2005/accountkeeper/internal/cryptox"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/cli"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountkeeper/internal/server/services"
)

var (
	shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
	notifyContext   = signal.NotifyContext
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	cli    *cli.App
}

// NewApp opens the database and builds the service graph. Logs go to logOut
// so that they do not mix with command output on stdout.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	h, err := logging.NewHandler(c.LogFormat, c.LogLevel, logOut, c.SentryDSN)
	if h == nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger := logging.NewSlogLogger(slog.New(h))
	if err != nil {
		logger.Warn(ctx, "sentry disabled", "error", err)
	}

	db, err := dbx.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewRepositoryManager(c.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	hasher, err := cryptox.NewBcryptHasher(c.BcryptCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	us, err := services.NewUserService(db, rm, hasher, logger, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	migrate := func(ctx context.Context) error { return rm.RunMigrations(ctx, db) }
	app := cli.NewApp(us, migrate, os.Stdin, int(os.Stdin.Fd()), os.Stdout)

	return &App{config: c, logger: logger, db: db, cli: app}, nil
}

// Run executes the command named in args and releases all resources. A
// shutdown signal cancels the context passed to the command.
func (app *App) Run(ctx context.Context, args []string) error {
	ctx, stop := notifyContext(ctx, shutdownSignals...)
	defer stop()
	defer app.close()

	app.logger.Debug(ctx, "running command", "args_count", len(args))

	if err := app.cli.Run(ctx, args); err != nil {
		app.logger.Debug(ctx, "command failed", "error", err)
		return err
	}
	return nil
}

func (app *App) close() {
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "error closing database", "error", err)
	}
	if app.config.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}
}
