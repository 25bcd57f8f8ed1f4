// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/youthgov-queue/models"
	"github.com/danielhkuo/youthgov-queue/review"
)

var errQuit = errors.New("quit")

type prompter interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// linePrompter reads from a terminal with history and line editing
type linePrompter struct {
	state   *liner.State
	history string
}

func newLinePrompter() *linePrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	p := &linePrompter{state: state, history: historyFile()}
	if p.history != "" {
		if f, err := os.Open(p.history); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return p
}

func (p *linePrompter) Prompt(prompt string) (string, error) {
	line, err := p.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		p.state.AppendHistory(line)
	}
	return line, nil
}

func (p *linePrompter) Close() error {
	if p.history != "" {
		if f, err := os.Create(p.history); err == nil {
			p.state.WriteHistory(f)
			f.Close()
		}
	}
	return p.state.Close()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vqreview_history")
}

// scanPrompter reads piped input one line at a time
type scanPrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *scanPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (p *scanPrompter) Close() error { return nil }

func newPrompter(in io.Reader, out io.Writer) prompter {
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return newLinePrompter()
	}
	return &scanPrompter{scanner: bufio.NewScanner(in), out: out}
}

func newReviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Work through the queue interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.newSession(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			defer p.Close()

			loop := &reviewLoop{session: s, prompt: p, out: cmd.OutOrStdout(), now: time.Now}
			return loop.run(cmd.Context())
		},
	}
}

// reviewLoop is the interactive stand-in for the queue page: rows are
// addressed by their number in the last printed table
type reviewLoop struct {
	*session
	prompt prompter
	out    io.Writer
	now    func() time.Time
}

func (l *reviewLoop) run(ctx context.Context) error {
	if err := l.dispatcher.Refresh(ctx); err != nil {
		return dispatchErr(err)
	}
	printQueue(l.out, l.queue, l.now())
	fmt.Fprintln(l.out, "Type 'help' for commands.")

	for {
		line, err := l.prompt.Prompt("review> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		err = l.exec(ctx, strings.ToLower(fields[0]), fields[1:])
		switch {
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, io.EOF):
			return nil
		case err != nil && !isReported(err):
			fmt.Fprintf(l.out, "error: %v\n", err)
		}
	}
}

func (l *reviewLoop) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		l.help()
	case "ls", "list":
		printQueue(l.out, l.queue, l.now())
	case "refresh":
		if err := l.dispatcher.Refresh(ctx); err != nil {
			return dispatchErr(err)
		}
		printQueue(l.out, l.queue, l.now())
	case "stats":
		printStats(l.out, l.queue.Stats())
	case "done":
		printCompleted(l.out, l.queue.CompletedToday(), l.now())
	case "show":
		item, err := l.row(args)
		if err != nil {
			return err
		}
		printItem(l.out, item, l.now())
	case "tab":
		if len(args) != 1 {
			return errors.New("usage: tab pending|completed|rejected")
		}
		if err := l.queue.SetTab(strings.ToLower(args[0])); err != nil {
			return err
		}
		return l.reload(ctx)
	case "search":
		f := l.queue.Filters()
		f.Search = strings.Join(args, " ")
		l.queue.SetFilters(f)
		return l.reload(ctx)
	case "match":
		f := l.queue.Filters()
		f.VoterMatch = ""
		if len(args) == 1 && args[0] != "any" {
			f.VoterMatch = args[0]
		}
		l.queue.SetFilters(f)
		return l.reload(ctx)
	case "sort":
		if len(args) == 0 || len(args) > 2 {
			return errors.New("usage: sort submittedAt|lastName|validationScore|barangay [asc|desc]")
		}
		f := l.queue.Filters()
		f.SortBy, f.SortOrder = args[0], ""
		if len(args) == 2 {
			f.SortOrder = args[1]
		}
		l.queue.SetFilters(f)
		return l.reload(ctx)
	case "page":
		n, err := l.number(args)
		if err != nil {
			return err
		}
		l.queue.SetPage(n)
		return l.reload(ctx)
	case "select":
		if len(args) == 0 {
			return errors.New("usage: select <row>...")
		}
		visible := l.queue.Visible()
		for _, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil || n < 1 || n > len(visible) {
				return fmt.Errorf("no row %q", a)
			}
			l.queue.Toggle(visible[n-1].ID)
		}
		fmt.Fprintf(l.out, "%d selected\n", len(l.queue.Selected()))
	case "all":
		l.queue.SelectAll()
		fmt.Fprintf(l.out, "%d selected\n", len(l.queue.Selected()))
	case "clear":
		l.queue.Clear()
	case "approve", "a":
		item, err := l.row(args)
		if err != nil {
			return err
		}
		return l.approve(ctx, item)
	case "reject", "r":
		item, err := l.row(args)
		if err != nil {
			return err
		}
		if err := l.dispatcher.RequestReject(item); err != nil {
			return err
		}
		return l.reject(ctx, fmt.Sprintf("Reject %s %s", item.FirstName, item.LastName))
	case "bulk":
		if len(args) != 1 {
			return errors.New("usage: bulk approve|reject")
		}
		return l.bulk(ctx, strings.ToLower(args[0]))
	case "export":
		if len(args) != 1 {
			return errors.New("usage: export csv|pdf")
		}
		return dispatchErr(l.dispatcher.Export(ctx, strings.ToLower(args[0])))
	default:
		return fmt.Errorf("unknown command %q; type 'help'", cmd)
	}
	return nil
}

func (l *reviewLoop) approve(ctx context.Context, item models.ValidationQueueItem) error {
	if err := l.dispatcher.RequestApprove(item); err != nil {
		return err
	}

	if l.dispatcher.Modal().Kind == review.ModalApproveConfirm {
		ok, err := l.confirm(fmt.Sprintf("Approve %s %s?", item.FirstName, item.LastName))
		if err != nil || !ok {
			l.dispatcher.Cancel()
			return err
		}
		return dispatchErr(l.dispatcher.Confirm(ctx, ""))
	}

	printItem(l.out, item, l.now())
	answer, err := l.prompt.Prompt("Resolve: [u]pdate contact, [n]ew profile, [r]eject, [c]ancel: ")
	if err != nil {
		l.dispatcher.Cancel()
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "u", "update":
		return dispatchErr(l.dispatcher.ResolveMismatch(ctx, review.ResolveUpdateContact))
	case "n", "new":
		return dispatchErr(l.dispatcher.ResolveMismatch(ctx, review.ResolveCreateNewProfile))
	case "r", "reject":
		if err := l.dispatcher.ResolveMismatch(ctx, review.ResolveReject); err != nil {
			return dispatchErr(err)
		}
		return l.reject(ctx, fmt.Sprintf("Reject %s %s", item.FirstName, item.LastName))
	default:
		l.dispatcher.Cancel()
		return nil
	}
}

// reject asks for a reason and submits the open reject modal. A failed
// submission leaves the modal open, so the reviewer may send it again.
func (l *reviewLoop) reject(ctx context.Context, title string) error {
	fmt.Fprintln(l.out, title)
	reason, err := l.prompt.Prompt("Reason (optional): ")
	if err != nil {
		l.dispatcher.Cancel()
		return err
	}
	for {
		err := l.dispatcher.Confirm(ctx, reason)
		if err == nil || l.dispatcher.Modal().Kind != review.ModalReject {
			return dispatchErr(err)
		}
		again, perr := l.confirm("Submit the rejection again?")
		if perr != nil || !again {
			l.dispatcher.Cancel()
			return dispatchErr(err)
		}
	}
}

func (l *reviewLoop) bulk(ctx context.Context, action string) error {
	if err := l.dispatcher.RequestBulk(action); err != nil {
		if errors.Is(err, review.ErrEmptySelection) {
			return nil
		}
		return err
	}

	ids := l.dispatcher.Modal().IDs
	verb := "Approve"
	comments := ""
	if action == models.ActionReject {
		verb = "Reject"
	}
	ok, err := l.confirm(fmt.Sprintf("%s %d selected submission(s)?", verb, len(ids)))
	if err != nil || !ok {
		l.dispatcher.Cancel()
		return err
	}
	if action == models.ActionReject {
		comments, err = l.prompt.Prompt("Reason (optional): ")
		if err != nil {
			l.dispatcher.Cancel()
			return err
		}
	}
	return dispatchErr(l.dispatcher.Confirm(ctx, comments))
}

func (l *reviewLoop) confirm(question string) (bool, error) {
	answer, err := l.prompt.Prompt(question + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (l *reviewLoop) reload(ctx context.Context) error {
	if err := l.dispatcher.Refresh(ctx); err != nil {
		return dispatchErr(err)
	}
	printQueue(l.out, l.queue, l.now())
	return nil
}

func (l *reviewLoop) number(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number %q", args[0])
	}
	return n, nil
}

// row resolves a 1-based row number against the visible items
func (l *reviewLoop) row(args []string) (models.ValidationQueueItem, error) {
	n, err := l.number(args)
	if err != nil {
		return models.ValidationQueueItem{}, err
	}
	visible := l.queue.Visible()
	if n > len(visible) {
		return models.ValidationQueueItem{}, fmt.Errorf("no row %d", n)
	}
	return visible[n-1], nil
}

func (l *reviewLoop) help() {
	fmt.Fprint(l.out, `Commands:
  ls | refresh              show the page (refresh refetches it)
  show N                    details of row N
  approve N | reject N      decide one submission
  select N... | all | clear manage the selection
  bulk approve|reject       decide every selected submission
  tab T | search TEXT | match exact|partial|no_match|any
  sort FIELD [asc|desc] | page N
  stats | done              counters and today's approvals
  export csv|pdf            record an export of the visible rows
  quit
`)
}
