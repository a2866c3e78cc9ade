package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.devnw.com/event"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Println(err)
		// nolint:gocritic
		os.Exit(1)
	}
}

// setup loads the configuration and builds the app with its logger and
// event publisher. The returned func releases everything.
func setup(ctx context.Context, cached bool) (*App, Logger, func(), error) {
	v := viper.GetViper()

	zl, err := configLogger(v)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := zl.Sugar()

	cfg, err := LoadConfig(v)
	if err != nil {
		return nil, nil, nil, err
	}

	if v.GetBool("verbose") {
		logger.Debug(spew.Sdump(cfg))
	}

	pub := event.NewPublisher(ctx)
	drain(ctx, pub, logger)

	var provider Provider = FSProvider{}
	if cached {
		cp := NewCachedProvider(ctx, provider, cfg.Serve.MaxAge)
		cp.Force = v.GetBool("force")
		provider = cp
	}

	app, err := NewApp(cfg, provider, pub, logger)
	if err != nil {
		pub.Close()
		return nil, nil, nil, err
	}

	return app, logger, func() {
		_ = app.Close()
		pub.Close()
		_ = zl.Sync()
	}, nil
}

func runCmd(cmd *cobra.Command, _ []string) error {
	app, logger, done, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer done()

	res, err := app.Pass(cmd.Context())
	if err != nil {
		return err
	}

	for _, s := range res.Sources {
		logger.Infow("source", "name", s.Source, "stats", s.String())
	}

	fmt.Fprintf(
		cmd.OutOrStdout(),
		"%d domains blocked, %d allow records, %d duplicates removed\n",
		len(res.Entries),
		len(res.Allow),
		res.Total.Duplicates,
	)

	return nil
}

func serveCmd(cmd *cobra.Command, _ []string) error {
	app, _, done, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer done()

	return app.Serve(
		cmd.Context(),
		app.cfg.Serve.Listen,
		app.cfg.Serve.Interval,
	)
}

func searchCmd(cmd *cobra.Command, args []string) error {
	app, _, done, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer done()

	lookup := app.lookup()
	if app.db == nil {
		// Nothing persisted to search, build the list in memory.
		res, err := app.driver.Run(cmd.Context(), app.cfg)
		if err != nil {
			return err
		}

		lookup = ResultLookup(res)
	}

	reason, ok, err := Search(cmd.Context(), lookup, app.driver.Classifier, args[0])
	if err != nil {
		return err
	}

	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is not blocked\n", args[0])
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), reason.String())
	return nil
}

func configCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()

	return enc.Encode(cfg)
}
