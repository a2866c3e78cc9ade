package main

import (
	"context"
	"sync"
	"time"

	"go.devnw.com/event"
)

// App ties a configuration to its driver and sinks and remembers the
// result of the last successful pass.
type App struct {
	cfg     *Config
	driver  *Driver
	sinks   Sinks
	db      *SQLiteSink
	metrics *Metrics
	logger  Logger

	mu     sync.RWMutex
	last   Result
	lastAt time.Time
}

// NewApp builds the sinks the configuration names. provider may be nil
// for plain file and http loads.
func NewApp(
	cfg *Config,
	provider Provider,
	pub *event.Publisher,
	logger Logger,
) (*App, error) {
	err := checkNil(cfg)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = &NOOPLogger{}
	}

	format, err := cfg.Output.Formatter()
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg: cfg,
		driver: &Driver{
			Provider:   provider,
			Classifier: PSL{},
			Logger:     logger,
			Pub:        pub,
			Workers:    cfg.Workers,
		},
		metrics: NewMetrics(),
		logger:  logger,
	}

	if cfg.Output.BlockFile != "" {
		a.sinks = append(a.sinks, FileSink{
			BlockPath: cfg.Output.BlockFile,
			AllowPath: cfg.Output.AllowFile,
			Format:    format,
		})
	}

	if cfg.Output.CDB != "" {
		a.sinks = append(a.sinks, CDBSink{Path: cfg.Output.CDB})
	}

	if cfg.Output.SQLite != "" {
		a.db, err = OpenSQLite(cfg.Output.SQLite)
		if err != nil {
			return nil, err
		}

		a.sinks = append(a.sinks, a.db)
	}

	if cfg.Output.Metrics != "" {
		a.sinks = append(a.sinks, MetricsSink{
			Path:    cfg.Output.Metrics,
			Metrics: a.metrics,
		})
	}

	return a, nil
}

// Pass runs one ingestion pass and hands the result to every sink. Sinks
// are never written when the pass fails.
func (a *App) Pass(ctx context.Context) (Result, error) {
	start := time.Now()

	res, err := a.driver.Run(ctx, a.cfg)
	if err != nil {
		a.metrics.Failed()
		return Result{}, err
	}

	a.metrics.Observe(res, time.Since(start))

	err = a.sinks.Write(ctx, res)
	if err != nil {
		a.metrics.Failed()
		return Result{}, err
	}

	a.mu.Lock()
	a.last = res
	a.lastAt = time.Now()
	a.mu.Unlock()

	return res, nil
}

// Last returns the result of the last successful pass.
func (a *App) Last() (Result, time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.last, a.lastAt
}

// Search explains why domain is blocked, preferring the database of
// previous runs over the in-memory result.
func (a *App) Search(ctx context.Context, domain string) (Reason, bool, error) {
	lookup := a.lookup()
	return Search(ctx, lookup, a.driver.Classifier, domain)
}

func (a *App) lookup() Lookup {
	if a.db != nil {
		return a.db.Lookup
	}

	res, _ := a.Last()
	return ResultLookup(res)
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}

	return a.db.Close()
}
