// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/youthgov-queue/models"
	"github.com/danielhkuo/youthgov-queue/review"
)

// maxPageLimit matches the server's cap on ?limit
const maxPageLimit = 100

// listOptions are the queue filters shared by list, bulk and export
type listOptions struct {
	tab        string
	search     string
	barangay   string
	voterMatch string
	scoreMin   float64
	scoreMax   float64
	sortBy     string
	order      string
	page       int
	limit      int
}

func (o *listOptions) bind(cmd *cobra.Command, limit int) {
	f := cmd.Flags()
	f.StringVar(&o.tab, "tab", models.StatusPending, "Queue tab: pending, completed or rejected")
	f.StringVarP(&o.search, "search", "s", "", "Match first name, last name or barangay")
	f.StringVar(&o.barangay, "barangay", "", "Only this barangay")
	f.StringVar(&o.voterMatch, "voter-match", "", "Only exact, partial or no_match")
	f.Float64Var(&o.scoreMin, "score-min", 0, "Minimum validation score (0-1)")
	f.Float64Var(&o.scoreMax, "score-max", 1, "Maximum validation score (0-1)")
	f.StringVar(&o.sortBy, "sort", "", "Sort by submittedAt, lastName, validationScore or barangay")
	f.StringVar(&o.order, "order", "", "Sort order: asc or desc")
	f.IntVar(&o.page, "page", 1, "Page number")
	f.IntVar(&o.limit, "limit", limit, "Items per page")
}

func (o *listOptions) apply(cmd *cobra.Command, q *review.Queue) error {
	if err := q.SetTab(o.tab); err != nil {
		return err
	}
	filters := review.Filters{
		Search:     o.search,
		Barangay:   o.barangay,
		VoterMatch: o.voterMatch,
		SortBy:     o.sortBy,
		SortOrder:  o.order,
	}
	if cmd.Flags().Changed("score-min") {
		v := o.scoreMin
		filters.ScoreMin = &v
	}
	if cmd.Flags().Changed("score-max") {
		v := o.scoreMax
		filters.ScoreMax = &v
	}
	q.SetFilters(filters)
	q.SetLimit(o.limit)
	q.SetPage(o.page)
	return nil
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions in the validation queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, s.queue); err != nil {
				return err
			}
			if err := s.dispatcher.Refresh(cmd.Context()); err != nil {
				return dispatchErr(err)
			}
			printQueue(cmd.OutOrStdout(), s.queue, time.Now())
			return nil
		},
	}
	opts.bind(cmd, 10)
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			item, err := s.client.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load submission: %w", err)
			}
			printItem(cmd.OutOrStdout(), item, time.Now())
			return nil
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			stats, err := s.client.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

func newCompletedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "completed",
		Short: "List submissions approved today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			items, err := s.client.CompletedToday(cmd.Context())
			if err != nil {
				return fmt.Errorf("load completed items: %w", err)
			}
			printCompleted(cmd.OutOrStdout(), items, time.Now())
			return nil
		},
	}
}

func newApproveCommand(ctx *commandContext) *cobra.Command {
	var resolve, comments string
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve one submission",
		Long: "Approve one submission. A submission whose contact details differ from the\n" +
			"matched profile needs --resolve update_contact, create_new_profile or reject.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			item, err := s.client.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load submission: %w", err)
			}
			if err := s.dispatcher.RequestApprove(item); err != nil {
				return err
			}

			if s.dispatcher.Modal().Kind != review.ModalContactMismatch {
				return dispatchErr(s.dispatcher.Confirm(cmd.Context(), ""))
			}

			printItem(cmd.OutOrStdout(), item, time.Now())
			if resolve == "" {
				s.dispatcher.Cancel()
				return errors.New("submission has a contact mismatch; pass --resolve update_contact, create_new_profile or reject")
			}
			r := review.Resolution(resolve)
			if err := s.dispatcher.ResolveMismatch(cmd.Context(), r); err != nil {
				return dispatchErr(err)
			}
			if r == review.ResolveReject {
				return dispatchErr(s.dispatcher.Confirm(cmd.Context(), comments))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resolve, "resolve", "", "Contact mismatch resolution: update_contact, create_new_profile or reject")
	cmd.Flags().StringVar(&comments, "comments", "", "Rejection reason when resolving with reject")
	return cmd
}

func newRejectCommand(ctx *commandContext) *cobra.Command {
	var comments string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			item, err := s.client.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load submission: %w", err)
			}
			if err := s.dispatcher.RequestReject(item); err != nil {
				return err
			}
			return dispatchErr(s.dispatcher.Confirm(cmd.Context(), comments))
		},
	}
	cmd.Flags().StringVar(&comments, "comments", "", "Reason for rejection")
	return cmd
}

func newBulkCommand(ctx *commandContext) *cobra.Command {
	var comments string
	var all bool
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "bulk <approve|reject> [id...]",
		Short: "Approve or reject several pending submissions at once",
		Long: "Approve or reject several pending submissions at once. IDs must be on the\n" +
			"fetched page; --all selects every submission matching the filters.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := strings.ToLower(args[0])
			if !models.IsValidAction(action) {
				return review.ErrUnknownAction
			}

			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			opts.tab = models.StatusPending
			if err := opts.apply(cmd, s.queue); err != nil {
				return err
			}
			if err := s.dispatcher.Refresh(cmd.Context()); err != nil {
				return dispatchErr(err)
			}

			if all {
				s.queue.SelectAll()
			}
			for _, id := range args[1:] {
				if !s.queue.IsSelected(id) && !s.queue.Toggle(id) {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: not a pending submission on this page\n", id)
				}
			}

			if err := s.dispatcher.RequestBulk(action); err != nil {
				if errors.Is(err, review.ErrEmptySelection) {
					return &reportedError{err: err}
				}
				return err
			}
			return dispatchErr(s.dispatcher.Confirm(cmd.Context(), comments))
		},
	}
	cmd.Flags().StringVar(&comments, "comments", "", "Comment stored on every item")
	cmd.Flags().BoolVar(&all, "all", false, "Select every pending submission matching the filters")
	opts.bind(cmd, maxPageLimit)
	cmd.Flags().MarkHidden("tab")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "export <csv|pdf>",
		Short: "Record an export of the filtered queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, s.queue); err != nil {
				return err
			}
			if err := s.dispatcher.Refresh(cmd.Context()); err != nil {
				return dispatchErr(err)
			}
			return dispatchErr(s.dispatcher.Export(cmd.Context(), strings.ToLower(args[0])))
		},
	}
	opts.bind(cmd, maxPageLimit)

	history := &cobra.Command{
		Use:   "history",
		Short: "List logged exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			entries, err := s.client.ExportHistory(cmd.Context())
			if err != nil {
				return fmt.Errorf("load export history: %w", err)
			}
			printHistory(cmd.OutOrStdout(), entries, time.Now())
			return nil
		},
	}
	cmd.AddCommand(history)
	return cmd
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated staff member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			staff, err := s.client.Me(cmd.Context())
			if err != nil {
				return fmt.Errorf("load staff: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", staff.Name, staff.Role, staff.ID)
			return nil
		},
	}
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			key := "(unset)"
			if cfg.StaffKey != "" {
				key = "(set)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config file:     %s\n", ctx.configPath)
			fmt.Fprintf(out, "base_url:        %s\n", cfg.BaseURL)
			fmt.Fprintf(out, "staff_id:        %s\n", orDash(cfg.StaffID))
			fmt.Fprintf(out, "staff_key:       %s\n", key)
			fmt.Fprintf(out, "timeout_seconds: %d\n", cfg.TimeoutSeconds)
			fmt.Fprintf(out, "log_format:      %s\n", cfg.LogFormat)
			return nil
		},
	}

	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the resolved configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := strings.TrimSpace(path)
			if target == "" {
				target = ctx.configPath
			}
			if err := writeConfig(target, cfg, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "Destination file (defaults to the config path)")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
