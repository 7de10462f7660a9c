package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/sarchlab/mipscan/resolve"
	"github.com/sarchlab/mipscan/watch"
)

type watchOptions struct {
	pid        int32
	name       string
	config     string
	saveConfig string
	strategy   string
	profile    string
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the controller status word of a running emulator",
		Long: `watch finds console RAM inside a running emulator process, resolves the
status buffer from a snapshot and prints the controller state whenever it
changes. It re-resolves when the code around the recovered call site moves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lc := g.logger(cmd)
			defer func() { _ = lc.Close() }()

			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if opts.saveConfig != "" {
				return cfg.SaveConfig(opts.saveConfig)
			}

			pid, err := opts.target()
			if err != nil {
				return err
			}
			pm, err := watch.OpenProcess(pid)
			if err != nil {
				return err
			}
			defer func() { _ = pm.Close() }()

			strategy, _ := resolve.ParseStrategy(cfg.Strategy)
			r, err := g.resolver(strategy, opts.profile, lc.Logger)
			if err != nil {
				return err
			}

			w, err := watch.NewWatcher(pm, cfg,
				watch.WithLogger(lc.Logger),
				watch.WithResolver(resolve.NewCachedResolver(r, resolve.DefaultCacheSize)))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			lc.Info("watching", "pid", pid, "poll", cfg.PollInterval())
			err = w.Run(ctx, eventPrinter(cmd.OutOrStdout()))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().Int32Var(&opts.pid, "pid", 0, "Emulator process id")
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Emulator process name (substring match)")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "Watch configuration JSON")
	cmd.Flags().StringVar(&opts.saveConfig, "save-config", "", "Write the effective configuration to a file and exit")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", "", "Override the configured pick strategy")
	cmd.Flags().StringVarP(&opts.profile, "profile", "p", "", "Only try the named signature profile")
	cmd.MarkFlagsMutuallyExclusive("pid", "name")

	return cmd
}

func (o *watchOptions) loadConfig(cmd *cobra.Command) (*watch.Config, error) {
	cfg := watch.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = watch.LoadConfig(o.config); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = o.strategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid watch configuration")
	}
	return cfg, nil
}

func (o *watchOptions) target() (int32, error) {
	switch {
	case o.pid != 0:
		return o.pid, nil
	case o.name != "":
		return watch.FindProcess(o.name)
	}
	return 0, errors.New("one of --pid or --name is required")
}

// eventPrinter returns a callback that prints an event line whenever the
// displayed state changes.
func eventPrinter(w io.Writer) func(watch.Event) {
	last := ""
	return func(ev watch.Event) {
		line := formatEvent(ev)
		if line == last {
			return
		}
		last = line
		fmt.Fprintf(w, "%s  %s\n", ev.Time.Format("15:04:05.000"), line)
	}
}

func formatEvent(ev watch.Event) string {
	switch {
	case ev.Pad != nil:
		return ev.Pad.String()
	case ev.Idle:
		return "idle"
	}
	return ev.State.String()
}
