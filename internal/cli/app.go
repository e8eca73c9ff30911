// Package cli implements the sasset administration command line: schema
// migrations, accounts and tokens, settings, and asset operations including
// locking and revision history.
//
// Commands run against the configured database. The request account is taken
// from -token or $SASSET_TOKEN and attributes created and updated documents.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sasset/core/internal/account"
	"github.com/sasset/core/internal/archive"
	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/config"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/flagx"
	"github.com/sasset/core/internal/logging"
	"github.com/sasset/core/internal/repositories/repomanager"
	"github.com/sasset/core/internal/services"
)

// openConn is a seam for tests.
var openConn = dbx.Open

type App struct {
	config   *config.Config
	logger   logging.Logger
	conn     *dbx.Conn
	manager  repomanager.RepositoryManager
	accounts *services.AccountService
	assets   *services.AssetService
	settings *services.SettingService
	reader   *bufio.Reader
	out      io.Writer
	closers  []io.Closer
}

// NewApp opens the database and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	var closers []io.Closer
	logger := logging.New(c.LogLevel, c.LogFormat, os.Stdout)
	if c.ErrorLogPath != "" {
		f, err := os.OpenFile(c.ErrorLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening error log: %w", err)
		}
		closers = append(closers, f)
		logger = logging.NewWithErrorLog(c.LogLevel, c.LogFormat, os.Stdout, f)
	}

	conn, err := openConn(ctx, repomanager.DriverName, c.DSN())
	if err != nil {
		for _, cl := range closers {
			_ = cl.Close()
		}
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := newApp(c, conn, repomanager.NewPostgresRepositoryManager(), logger, archive.NewS3Store(c),
		bufio.NewReader(os.Stdin), os.Stdout)
	app.closers = append(closers, conn)
	return app, nil
}

func newApp(c *config.Config, conn *dbx.Conn, m repomanager.RepositoryManager, logger logging.Logger,
	store services.RevisionArchive, reader *bufio.Reader, out io.Writer) *App {
	return &App{
		config:   c,
		logger:   logger,
		conn:     conn,
		manager:  m,
		accounts: services.NewAccountService(conn, m, logger, c),
		assets:   services.NewAssetService(conn, m, logger, store),
		settings: services.NewSettingService(conn, m, logger),
		reader:   reader,
		out:      out,
	}
}

// Run executes the command named by args. Flags owned by the configuration
// layer are skipped.
func (a *App) Run(ctx context.Context, args []string) error {
	ctx, err := a.accountContext(ctx, tokenFromArgs(args))
	if err != nil {
		return err
	}
	positional := flagx.Positional(args, append(append([]string{}, config.FlagsWithValues...), "-token"))
	return dispatch(ctx, a, positional)
}

// Close releases the connection and log files.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// tokenFromArgs returns the -token flag value, falling back to $SASSET_TOKEN.
func tokenFromArgs(args []string) string {
	var token string
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&token, "token", "", "access token")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-token", "--token"}))
	if token != "" {
		return token
	}
	return os.Getenv(common.TokenEnvVar)
}

// accountContext attaches the account carried by token to ctx. An empty
// token leaves the context without an account.
func (a *App) accountContext(ctx context.Context, token string) (context.Context, error) {
	if token == "" {
		return ctx, nil
	}
	data, err := a.accounts.AccountFromToken(token)
	if err != nil {
		return nil, err
	}
	return account.NewContext(ctx, account.NewHolder(data)), nil
}

func (a *App) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func (a *App) Migrate(ctx context.Context) error {
	if !dbx.IsAlive(a.conn) {
		return common.ErrConnectionDown
	}
	if err := a.manager.RunMigrations(ctx, a.conn.DB()); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}
	a.logger.Info(ctx, "migrations applied")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	text, ok := dbx.GetStateText(a.conn)
	if !ok {
		text = "unknown"
	}
	_, err := fmt.Fprintf(a.out, "database: %s\n", text)
	return err
}
