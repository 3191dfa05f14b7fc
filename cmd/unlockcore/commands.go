package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathoo/unlockcore/cli"
	"github.com/nathoo/unlockcore/config"
	"github.com/nathoo/unlockcore/engine"
	"github.com/nathoo/unlockcore/loader"
	"github.com/nathoo/unlockcore/logging"
	"github.com/nathoo/unlockcore/storage/sqlite"
	"github.com/nathoo/unlockcore/tui"
)

type runOptions struct {
	plain      bool
	trace      bool
	noChain    bool
	scriptFile string
	dbPath     string
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [content_dir]",
		Short: "Load content and open the unlock console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			dir, err := contentDir(cfg, args)
			if err != nil {
				return err
			}
			if opts.dbPath == "" {
				opts.dbPath = cfg.DBPath
			}
			return runConsole(cfg, log, dir, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "use the line-based console instead of the TUI")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "print the signals and evaluations behind each command")
	cmd.Flags().BoolVar(&opts.noChain, "no-chain", false, "do not pulse unlock:<id> when an unlock is achieved")
	cmd.Flags().StringVar(&opts.scriptFile, "script", "", "replay console commands from a file")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "persist achieved unlocks to this SQLite file")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [content_dir]",
		Short: "Validate content and report warnings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			dir, err := contentDir(cfg, args)
			if err != nil {
				return err
			}
			content, err := loader.Load(dir, log)
			if err != nil {
				return err
			}
			if _, err := engine.New(content.Unlocks); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, w := range content.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "%s: %d unlocks OK\n", dir, len(content.Unlocks))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "unlockcore %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// setup reads the environment and builds the stderr logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func contentDir(cfg config.Config, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if cfg.ContentDir != "" {
		return cfg.ContentDir, nil
	}
	return "", fmt.Errorf("no content directory: pass one or set UNLOCKCORE_CONTENT_DIR")
}

func runConsole(cfg config.Config, log *slog.Logger, dir string, opts runOptions) error {
	content, err := loader.Load(dir, log)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	var engOpts []engine.Option
	if opts.noChain {
		engOpts = append(engOpts, engine.WithoutChaining())
	}
	eng, err := engine.New(content.Unlocks, append([]engine.Option{engine.WithLogger(log)}, engOpts...)...)
	if err != nil {
		return err
	}

	s := cli.NewSession(eng, content)
	s.ContentDir = dir
	s.SaveDir = cfg.SaveDir
	s.Log = log
	s.Options = engOpts
	s.Trace = opts.trace

	var startup []string
	if opts.dbPath != "" {
		store, err := sqlite.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		s.UseStore(store)

		ids, err := store.Load()
		if err != nil {
			return err
		}
		replayed, err := eng.Restore(ids)
		if err != nil {
			return err
		}
		startup = s.Replay(replayed)
	}

	if opts.scriptFile != "" {
		f, err := os.Open(opts.scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := cli.New(s)
		c.In = f
		c.EchoInput = true
		printLines(startup)
		c.Run()
		return nil
	}

	if opts.plain || !isTerminal() {
		printLines(startup)
		cli.New(s).Run()
		return nil
	}
	return tui.Run(s, startup...)
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
