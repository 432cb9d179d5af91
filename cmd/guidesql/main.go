package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/guidesql/internal/config"
)

const (
	exitOK       = 0
	exitError    = 1
	exitProblems = 2 // --strict and the report is not clean
)

type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitCodeError{code: code, err: err}
}

// app carries what every subcommand needs after the root pre-run.
type app struct {
	cfg config.Config
	log *slog.Logger

	configFile string
	logFormat  string
	logLevel   string
	strict     bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "guidesql",
		Short:         "Repair, reconcile and import guide section SQL dumps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML config file (environment variables override it)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&a.strict, "strict", false, "Exit with status 2 when anything was malformed, unresolved or not written")
	pf.Int64("document-id", 0, "Document id of the guide")
	pf.String("table", "", "Target table")

	root.AddCommand(
		newTokenizeCmd(a),
		newFixCmd(a),
		newImportCmd(a),
		newExtractCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configFile != "" {
		a.cfg, err = config.LoadFile(a.configFile)
		if err != nil {
			return err
		}
	} else {
		a.cfg = config.Load()
	}

	if a.logFormat != "" {
		a.cfg.LogFormat = a.logFormat
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	flags := cmd.Flags()
	if flags.Changed("document-id") {
		a.cfg.DocumentID, _ = flags.GetInt64("document-id")
	}
	if flags.Changed("table") {
		a.cfg.Table, _ = flags.GetString("table")
	}
	applyFlagOverrides(cmd, &a.cfg)

	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.log, err = newLogger(a.cfg.LogFormat, a.cfg.LogLevel)
	return err
}

// applyFlagOverrides copies subcommand flags that share a name with a config
// field.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	str("charset", &cfg.Charset)
	str("id-scheme", &cfg.IDScheme)
	str("policy", &cfg.Policy)
	str("curation", &cfg.CurationFile)
	str("parent-mode", &cfg.ParentMode)
	str("store", &cfg.Store)
	str("sqlite-path", &cfg.SQLitePath)
	if flags.Lookup("id-base") != nil && flags.Changed("id-base") {
		cfg.IDBase, _ = flags.GetInt64("id-base")
	}
	if flags.Lookup("replace") != nil && flags.Changed("replace") {
		cfg.ReplaceExisting, _ = flags.GetBool("replace")
	}
}

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	// Logs go to stderr; stdout carries SQL and reports.
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		os.Exit(exitOK)
	}
	code := exitError
	var ce *exitCodeError
	if errors.As(err, &ce) {
		code = ce.code
	}
	fmt.Fprintln(os.Stderr, "guidesql:", err)
	os.Exit(code)
}
