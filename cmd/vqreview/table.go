// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/youthgov-queue/models"
	"github.com/danielhkuo/youthgov-queue/review"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

var itemHeaders = []string{"#", "Sel", "ID", "Name", "Age", "Barangay", "Voter match", "Score", "Mismatch", "Submitted"}

var itemAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}

// itemRows formats queue items for display; row numbers start at 1
func itemRows(items []models.ValidationQueueItem, selected func(string) bool, now time.Time) [][]string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		mark := ""
		if selected != nil && selected(item.ID) {
			mark = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			mark,
			item.ID,
			item.FirstName + " " + item.LastName,
			strconv.Itoa(item.Age),
			item.Barangay,
			item.VoterMatch,
			formatScore(item.ValidationScore),
			formatMismatch(item.ContactMismatch),
			humanize.RelTime(item.SubmittedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func formatScore(score float64) string {
	return humanize.FtoaWithDigits(score*100, 1) + "%"
}

func formatMismatch(m *models.ContactMismatch) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", m.Type, m.Severity)
}

// printQueue writes the visible page of q with a one-line summary
func printQueue(w io.Writer, q *review.Queue, now time.Time) {
	p := q.Pagination()
	pages := p.TotalPages
	if pages < 1 {
		pages = 1
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	fmt.Fprintf(w, "%s · page %d/%d · %s total\n", titleCase(q.Tab()), page, pages, humanize.Comma(int64(p.Total)))

	visible := q.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(w, "No submissions on this tab.")
		return
	}
	fmt.Fprintln(w, renderTable(itemHeaders, itemRows(visible, q.IsSelected, now), itemAligns))
}

func printStats(w io.Writer, s models.QueueStats) {
	count := func(n int) string { return humanize.Comma(int64(n)) }
	rows := [][]string{
		{"Pending", count(s.Pending)},
		{"Completed today", count(s.CompletedToday)},
		{"Rejected today", count(s.RejectedToday)},
		{"Total", count(s.Total)},
		{"Exact voter match", count(s.ByVoterMatch[models.VoterMatchExact])},
		{"Partial voter match", count(s.ByVoterMatch[models.VoterMatchPartial])},
		{"No voter match", count(s.ByVoterMatch[models.VoterMatchNone])},
		{"Contact mismatch", count(s.WithContactMismatch)},
	}
	fmt.Fprintln(w, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func printCompleted(w io.Writer, items []models.ValidationQueueItem, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing completed today.")
		return
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		when := "-"
		if item.ValidatedAt != nil {
			when = humanize.RelTime(*item.ValidatedAt, now, "ago", "from now")
		}
		by := "-"
		if item.ValidatedBy != nil {
			by = *item.ValidatedBy
		}
		rows = append(rows, []string{item.ID, item.FirstName + " " + item.LastName, item.Barangay, by, when})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Name", "Barangay", "Validated by", "When"}, rows, nil))
}

func printHistory(w io.Writer, entries []models.ActivityLog, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No exports logged.")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{humanize.RelTime(e.CreatedAt, now, "ago", "from now"), e.StaffID, e.Details})
	}
	fmt.Fprintln(w, renderTable([]string{"When", "Staff", "Details"}, rows, nil))
}

// printItem shows one submission, including both sides of a contact mismatch
func printItem(w io.Writer, item models.ValidationQueueItem, now time.Time) {
	fmt.Fprintf(w, "%s %s, %d, %s\n", item.FirstName, item.LastName, item.Age, item.Barangay)
	fmt.Fprintf(w, "  id:          %s\n", item.ID)
	fmt.Fprintf(w, "  status:      %s\n", item.Status)
	fmt.Fprintf(w, "  voter match: %s (score %s)\n", item.VoterMatch, formatScore(item.ValidationScore))
	fmt.Fprintf(w, "  batch:       %s\n", item.BatchName)
	fmt.Fprintf(w, "  submitted:   %s\n", humanize.RelTime(item.SubmittedAt, now, "ago", "from now"))
	if m := item.ContactMismatch; m != nil {
		fmt.Fprintf(w, "  contact mismatch (%s, %s severity)\n", m.Type, m.Severity)
		fmt.Fprintf(w, "    on file:   %s  %s\n", orDash(m.Existing.Contact), orDash(m.Existing.Email))
		fmt.Fprintf(w, "    submitted: %s  %s\n", orDash(m.New.Contact), orDash(m.New.Email))
	}
	if item.Comments != nil {
		fmt.Fprintf(w, "  comments:    %s\n", *item.Comments)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func shouldColorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// terminalNotifier prints dispatcher notices as single lines
type terminalNotifier struct {
	out   io.Writer
	color bool
}

func newTerminalNotifier(w io.Writer) *terminalNotifier {
	return &terminalNotifier{out: w, color: shouldColorize(w)}
}

func (n *terminalNotifier) Notify(level review.Level, title, message string) {
	label := "[" + title + "]"
	if n.color {
		label = levelColors(level).Sprint(label)
	}
	fmt.Fprintf(n.out, "%s %s\n", label, message)
}

func levelColors(level review.Level) text.Colors {
	switch level {
	case review.LevelSuccess:
		return text.Colors{text.FgGreen, text.Bold}
	case review.LevelError:
		return text.Colors{text.FgRed, text.Bold}
	case review.LevelWarning:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgCyan}
	}
}
