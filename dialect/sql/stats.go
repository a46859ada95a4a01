package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/persist/dialect"
)

// QueryStats holds statement execution counters.
type QueryStats struct {
	Queries  atomic.Int64
	Execs    atomic.Int64
	Duration atomic.Int64 // nanoseconds
	Slow     atomic.Int64
	Errors   atomic.Int64
}

// Snapshot returns a point-in-time copy of the counters.
func (s *QueryStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Queries:  s.Queries.Load(),
		Execs:    s.Execs.Load(),
		Duration: time.Duration(s.Duration.Load()),
		Slow:     s.Slow.Load(),
		Errors:   s.Errors.Load(),
	}
}

// Reset sets all counters to zero.
func (s *QueryStats) Reset() {
	s.Queries.Store(0)
	s.Execs.Store(0)
	s.Duration.Store(0)
	s.Slow.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Queries  int64
	Execs    int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	total := s.Queries + s.Execs
	if total == 0 {
		return 0
	}
	return s.Duration / time.Duration(total)
}

// LogValue implements slog.LogValuer.
func (s StatsSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("queries", s.Queries),
		slog.Int64("execs", s.Execs),
		slog.Duration("duration", s.Duration),
		slog.Duration("avg", s.Avg()),
		slog.Int64("slow", s.Slow),
		slog.Int64("errors", s.Errors),
	)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.Queries, s.Execs, s.Duration, s.Avg(), s.Slow, s.Errors)
}

// StatsDriver wraps a dialect.Driver and counts the statements it runs.
// Statements slower than the threshold are reported through the logger.
type StatsDriver struct {
	dialect.Driver
	stats     *QueryStats
	threshold time.Duration
	log       *slog.Logger
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the slow statement threshold. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithStatsLogger sets the logger used to report slow statements.
func WithStatsLogger(l *slog.Logger) StatsOption {
	return func(s *StatsDriver) {
		s.log = l
	}
}

// NewStatsDriver wraps drv with statistics collection.
//
//	drv, _ := sql.Open("postgres", dsn)
//	sd := sql.NewStatsDriver(drv, sql.WithSlowThreshold(200*time.Millisecond))
//	res, err := sqlgraph.Update(ctx, sd, sd.Dialect(), "account", account, original, update)
//	slog.Info("done", "stats", sd.QueryStats().Snapshot())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:    drv,
		stats:     &QueryStats{},
		threshold: 100 * time.Millisecond,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying counters.
func (d *StatsDriver) QueryStats() *QueryStats { return d.stats }

// Query executes a query and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	elapsed := time.Since(start)
	if isQuery {
		d.stats.Queries.Add(1)
	} else {
		d.stats.Execs.Add(1)
	}
	d.stats.Duration.Add(int64(elapsed))
	if err != nil {
		d.stats.Errors.Add(1)
	}
	if elapsed > d.threshold {
		d.stats.Slow.Add(1)
		d.log.WarnContext(ctx, "slow statement", "duration", elapsed, "query", query, "args", args)
	}
}

// Tx starts a transaction whose statements are also counted.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query executes a query within the transaction and records it.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement within the transaction and records it.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, false)
	return err
}

// DebugDriver wraps a dialect.Driver and logs every statement at debug level.
type DebugDriver struct {
	dialect.Driver
	log *slog.Logger
}

// NewDebugDriver wraps drv with statement logging. A nil logger means
// slog.Default().
func NewDebugDriver(drv dialect.Driver, l *slog.Logger) *DebugDriver {
	if l == nil {
		l = slog.Default()
	}
	return &DebugDriver{Driver: drv, log: l}
}

// Query logs and executes a query.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, "query", "sql", query, "args", args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs and executes a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, "exec", "sql", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction with statement logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.DebugContext(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx wraps a transaction with statement logging.
type DebugTx struct {
	dialect.Tx
	log *slog.Logger
}

// Query logs and executes a query within the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log.DebugContext(ctx, "tx query", "sql", query, "args", args)
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec logs and executes a statement within the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log.DebugContext(ctx, "tx exec", "sql", query, "args", args)
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit logs and commits the transaction.
func (tx *DebugTx) Commit() error {
	tx.log.Debug("commit transaction")
	return tx.Tx.Commit()
}

// Rollback logs and rolls back the transaction.
func (tx *DebugTx) Rollback() error {
	tx.log.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

// Statement is one statement seen by a Recorder.
type Statement struct {
	Exec  bool
	Query string
	Args  []any
}

// Recorder is a dialect.ExecQuerier that records every statement in
// execution order before passing it to the wrapped ExecQuerier.
type Recorder struct {
	dialect.ExecQuerier
	mu    sync.Mutex
	stmts []Statement
}

// NewRecorder returns a Recorder around ex.
func NewRecorder(ex dialect.ExecQuerier) *Recorder {
	return &Recorder{ExecQuerier: ex}
}

// Exec records and executes a statement.
func (r *Recorder) Exec(ctx context.Context, query string, args, v any) error {
	r.add(true, query, args)
	return r.ExecQuerier.Exec(ctx, query, args, v)
}

// Query records and executes a query.
func (r *Recorder) Query(ctx context.Context, query string, args, v any) error {
	r.add(false, query, args)
	return r.ExecQuerier.Query(ctx, query, args, v)
}

func (r *Recorder) add(exec bool, query string, args any) {
	argv, _ := args.([]any)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = append(r.stmts, Statement{Exec: exec, Query: query, Args: append([]any(nil), argv...)})
}

// Statements returns a copy of the recorded statements.
func (r *Recorder) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Statement(nil), r.stmts...)
}

// Reset drops the recorded statements.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stmts = nil
}

var (
	_ dialect.Driver      = (*StatsDriver)(nil)
	_ dialect.Tx          = (*StatsTx)(nil)
	_ dialect.Driver      = (*DebugDriver)(nil)
	_ dialect.Tx          = (*DebugTx)(nil)
	_ dialect.ExecQuerier = (*Recorder)(nil)
)

// OpenWithStats opens a database connection with statistics collection enabled.
func OpenWithStats(driverName, source string, opts ...StatsOption) (*StatsDriver, error) {
	drv, err := Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return NewStatsDriver(drv, opts...), nil
}
