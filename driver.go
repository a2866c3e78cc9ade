package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.devnw.com/event"
	"golang.org/x/sync/errgroup"
)

// defaultWorkers bounds concurrent source loads.
const defaultWorkers = 4

// Driver runs complete ingestion passes.
type Driver struct {
	Provider   Provider
	Classifier Classifier
	Logger     Logger
	Pub        *event.Publisher
	Workers    int
}

// loaded is the content of one source after the fetch phase.
type loaded struct {
	data []byte
	err  error
}

// Plan returns the ordered list of sources a pass feeds: the configured
// lists, then the user block list, then the custom lists.
func (c *Config) Plan() Sources {
	plan := c.Sources.Enabled()

	if c.Blacklist != "" {
		plan = append(plan, Source{
			Name:    USERBLACKLIST,
			Path:    c.Blacklist,
			Grammar: PLAIN,
			Enabled: true,
		})
	}

	return append(plan, CustomSources(c.Custom...)...)
}

// Run performs one pass. Misconfiguration fails before anything is read.
// A source that cannot be loaded contributes nothing and the pass goes
// on without it.
func (d *Driver) Run(ctx context.Context, cfg *Config) (Result, error) {
	err := checkNil(cfg)
	if err != nil {
		return Result{}, err
	}

	plan := cfg.Plan()
	err = plan.Validate()
	if err != nil {
		return Result{}, err
	}

	matchers := make([]Matcher, len(plan))
	for i, src := range plan {
		matchers[i], err = src.Grammar.Matcher()
		if err != nil {
			return Result{}, err
		}
	}

	logger := d.Logger
	if logger == nil {
		logger = &NOOPLogger{}
	}

	aux := Sources{
		{Name: WHITELIST, Path: cfg.Whitelist, Grammar: PLAIN},
		{Name: "tld_table", Path: cfg.TLD.Table},
		{Name: "tld_blacklist", Path: cfg.TLD.Blacklist},
		{Name: "tld_whitelist", Path: cfg.TLD.Whitelist},
	}

	loads := d.load(ctx, append(aux, plan...))
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	run := NewRun(ctx, d.Pub, logger, d.Classifier)

	// User files which do not exist are empty; a missing list is not.
	optional := func(i int) []byte {
		if loads[i].err != nil && !errors.Is(loads[i].err, fs.ErrNotExist) {
			run.error(unavailable(aux[i], loads[i].err))
		}

		return loads[i].data
	}

	err = run.AllowFrom(bytes.NewReader(optional(0)))
	if err != nil {
		run.error(err)
	}

	policy := TLDPolicy{}
	policy.Table, err = ReadTLDTable(bytes.NewReader(optional(1)))
	if err != nil {
		run.error(err)
	}

	policy.Deny, err = ReadTLDList(bytes.NewReader(optional(2)))
	if err != nil {
		run.error(err)
	}

	policy.Allow, err = ReadTLDList(bytes.NewReader(optional(3)))
	if err != nil {
		run.error(err)
	}

	run.ProcessTLDs(policy)

	for i, src := range plan {
		l := loads[len(aux)+i]
		if l.err != nil {
			run.source(src.Name)
			run.error(unavailable(src, l.err))
			continue
		}

		err = run.Feed(src.Name, matchers[i], bytes.NewReader(l.data))
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}

			run.error(err)
		}

		logger.Infow("source processed",
			"source", src.Name,
			"stats", run.Stats(src.Name).String(),
		)
	}

	res := run.Finish()
	logger.Infow("pass complete",
		"domains", len(res.Entries),
		"allow", len(res.Allow),
		"collapsed", res.Collapsed,
		"stats", res.Total.String(),
	)

	return res, nil
}

// load fetches every source with a path concurrently. Results keep the
// order of srcs.
func (d *Driver) load(ctx context.Context, srcs Sources) []loaded {
	provider := d.Provider
	if provider == nil {
		provider = FSProvider{}
	}

	workers := d.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	out := make([]loaded, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range srcs {
		if src.Path == "" {
			continue
		}

		i, src := i, src
		g.Go(func() error {
			data, err := provider.Load(gctx, src)
			out[i] = loaded{data: data, err: err}

			// Failures stay with their source; only cancellation stops
			// the other loads.
			return gctx.Err()
		})
	}

	_ = g.Wait()

	return out
}

func unavailable(src Source, err error) error {
	return Error{
		Msg:      fmt.Sprintf("unable to load %s", src.Path),
		Inner:    fmt.Errorf("%w: %s", ErrSourceUnavailable, err),
		Source:   src.Name,
		Category: SOURCE,
	}
}
