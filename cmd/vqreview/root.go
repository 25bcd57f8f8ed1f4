// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/youthgov-queue/middleware"
	"github.com/danielhkuo/youthgov-queue/review"
)

type commandContext struct {
	configFlag   string
	baseURLFlag  string
	staffIDFlag  string
	staffKeyFlag string
	timeoutFlag  int
	verbose      bool

	configOnce sync.Once
	config     cliConfig
	configPath string
	configErr  error
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "vqreview",
		Short:         "Review youth survey submissions in the validation queue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx.setupLogging(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	flags.StringVar(&ctx.baseURLFlag, "base-url", "", "Validation queue API base URL")
	flags.StringVar(&ctx.staffIDFlag, "staff-id", "", "Staff ID")
	flags.StringVar(&ctx.staffKeyFlag, "staff-key", "", "Staff key")
	flags.IntVar(&ctx.timeoutFlag, "timeout", 0, "Request timeout in seconds")
	flags.BoolVarP(&ctx.verbose, "verbose", "v", false, "Log request failures to stderr")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newCompletedCommand(ctx))
	rootCmd.AddCommand(newApproveCommand(ctx))
	rootCmd.AddCommand(newRejectCommand(ctx))
	rootCmd.AddCommand(newBulkCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newWhoamiCommand(ctx))
	rootCmd.AddCommand(newReviewCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// ensureConfig loads the config file once and applies flag overrides
func (c *commandContext) ensureConfig() (cliConfig, error) {
	c.configOnce.Do(func() {
		cfg, path, err := loadConfig(c.configFlag)
		if err != nil {
			c.configErr = err
			return
		}
		if v := strings.TrimSpace(c.baseURLFlag); v != "" {
			cfg.BaseURL = v
		}
		if v := strings.TrimSpace(c.staffIDFlag); v != "" {
			cfg.StaffID = v
		}
		if v := strings.TrimSpace(c.staffKeyFlag); v != "" {
			cfg.StaffKey = v
		}
		if c.timeoutFlag > 0 {
			cfg.TimeoutSeconds = c.timeoutFlag
		}
		c.config, c.configPath = cfg, path
	})
	return c.config, c.configErr
}

func (c *commandContext) setupLogging(w io.Writer) {
	format := "text"
	if cfg, err := c.ensureConfig(); err == nil {
		format = cfg.LogFormat
	}
	if !c.verbose {
		w = io.Discard
	}
	slog.SetDefault(middleware.NewLogger(format, w))
}

// session is one command's client, queue state and dispatcher
type session struct {
	client     *review.Client
	queue      *review.Queue
	dispatcher *review.Dispatcher
}

func (c *commandContext) newSession(out io.Writer) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.requireStaff(); err != nil {
		return nil, err
	}
	client, err := review.NewClient(cfg.BaseURL, cfg.StaffID, cfg.StaffKey, cfg.timeout())
	if err != nil {
		return nil, err
	}
	queue := review.NewQueue()
	return &session{
		client:     client,
		queue:      queue,
		dispatcher: review.NewDispatcher(client, queue, newTerminalNotifier(out)),
	}, nil
}

// reportedError marks a failure the dispatcher has already shown to the
// reviewer; main exits non-zero without printing it again
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

var localErrors = []error{
	review.ErrBusy,
	review.ErrNoModal,
	review.ErrNotPending,
	review.ErrUnknownAction,
	review.ErrUnknownResolution,
}

// dispatchErr wraps errors the dispatcher notified about. Its own guard
// errors are never notified and pass through unchanged.
func dispatchErr(err error) error {
	if err == nil {
		return nil
	}
	for _, local := range localErrors {
		if errors.Is(err, local) {
			return err
		}
	}
	return &reportedError{err: err}
}

func isReported(err error) bool {
	var reported *reportedError
	return errors.As(err, &reported)
}
