package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/persist"
	"github.com/syssam/persist/dialect"
	"github.com/syssam/persist/dialect/sql"
	"github.com/syssam/persist/dialect/sql/sqlgraph"
	"github.com/syssam/persist/dialect/sqlschema"
	"github.com/syssam/persist/schema"
	"github.com/syssam/persist/schema/load"
)

// app is the state shared by the commands of one invocation.
type app struct {
	v         *viper.Viper
	cfg       Config
	log       *slog.Logger
	schema    *load.Schema
	persister *sqlgraph.Persister

	drv   dialect.Driver
	stats *sql.StatsDriver
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Write object graphs to SQL databases",
		Long: `persist - write object graphs to SQL databases

Objects are JSON documents of the models declared in a YAML schema. Each
write runs in its own transaction and prints its result: count=N for the
number of rows written to the model table, unchanged when nothing differed
or ignored when the write did not apply.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.init(cmd.ErrOrStderr(), cfgFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	fs := cmd.PersistentFlags()
	fs.StringVar(&cfgFile, "config", "", "config file (default: ./persist.yaml)")
	fs.String("schema", "", "path of the YAML model schema")
	fs.String("dialect", dialect.SQLite, "database dialect: postgres, mysql or sqlite")
	fs.String("dsn", "", "data source name")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
	fs.Bool("debug", false, "log every statement")
	fs.Bool("stats", false, "log statement statistics when done")
	fs.StringSlice("deny", nil, "operations refused by the write policy: insert, update or delete")
	cobra.CheckErr(bindFlags(a.v, fs))

	cmd.AddCommand(
		newValidateCmd(a),
		newInsertCmd(a),
		newApplyCmd(a),
		newDeleteCmd(a),
	)
	return cmd
}

// init loads the configuration and the schema.
func (a *app) init(w io.Writer, cfgFile string) error {
	cfg, err := loadConfig(a.v, cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.log, err = newLogger(w, cfg); err != nil {
		return err
	}
	if cfg.Schema == "" {
		return errors.New("missing schema: set --schema or schema in persist.yaml")
	}
	if a.schema, err = load.LoadFile(cfg.Schema); err != nil {
		return err
	}
	opts := []sqlgraph.Option{sqlgraph.WithLogger(a.log)}
	policy, err := cfg.policy()
	if err != nil {
		return err
	}
	if policy != nil {
		opts = append(opts, sqlgraph.WithPolicy(policy))
	}
	a.persister = sqlgraph.New(opts...)
	return nil
}

// open connects to the configured database.
func (a *app) open() error {
	if a.cfg.DSN == "" {
		return errors.New("missing dsn: set --dsn or dsn in persist.yaml")
	}
	drv, err := sql.Open(a.cfg.Dialect, a.cfg.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", a.cfg.Dialect, err)
	}
	if a.cfg.Dialect == dialect.SQLite {
		// SQLite allows a single writer.
		drv.DB().SetMaxOpenConns(1)
	}
	a.drv = drv
	if a.cfg.Stats {
		a.stats = sql.NewStatsDriver(a.drv, sql.WithStatsLogger(a.log))
		a.drv = a.stats
	}
	if a.cfg.Debug {
		a.drv = sql.NewDebugDriver(a.drv, a.log)
	}
	return nil
}

func (a *app) close() error {
	if a.drv == nil {
		return nil
	}
	if a.stats != nil {
		a.log.Info("statements", "stats", a.stats.QueryStats().Snapshot())
	}
	return a.drv.Close()
}

// connect opens the database, runs fn and closes the database.
func (a *app) connect(fn func() error) (err error) {
	if err := a.open(); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, a.close()) }()
	return fn()
}

// target returns the named model and its table. An empty table means the
// model's default table.
func (a *app) target(model, table string) (*schema.Model, string, error) {
	if model == "" {
		return nil, "", errors.New("missing --model")
	}
	m := a.schema.Model(model)
	if m == nil {
		return nil, "", fmt.Errorf("%w: %q", persist.ErrUnknownModel, model)
	}
	if table == "" {
		table = sqlschema.TableName(m)
	}
	return m, table, nil
}

// read returns the content of the file at path; "-" reads from r.
func read(r io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(r)
	}
	return os.ReadFile(path)
}

// object decodes the object of model m stored at path. An empty path reads
// as a nil object.
func (a *app) object(r io.Reader, m *schema.Model, path string) (*schema.Record, error) {
	if path == "" {
		return nil, nil
	}
	data, err := read(r, path)
	if err != nil {
		return nil, err
	}
	return a.schema.Decode(m.Name, data)
}

// write runs fn in a transaction. Errors are reported as mutation errors of
// m, with constraint violations classified.
func (a *app) write(ctx context.Context, m *schema.Model, op persist.Op, fn func(dialect.ExecQuerier) (persist.Result, error)) (persist.Result, error) {
	tx, err := a.drv.Tx(ctx)
	if err != nil {
		return persist.Result{}, fmt.Errorf("begin: %w", err)
	}
	res, err := fn(tx)
	if err != nil {
		err = persist.NewMutationError(m.Name, op, sqlgraph.ConstraintError(err))
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, &persist.RollbackError{Err: rerr})
		}
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, persist.NewMutationError(m.Name, op, fmt.Errorf("commit: %w", err))
	}
	return res, nil
}
