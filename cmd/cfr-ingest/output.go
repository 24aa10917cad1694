package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

var (
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	green  = color.New(color.FgGreen)
	bold   = color.New(color.Bold)
)

func successf(w io.Writer, format string, args ...any) {
	_, _ = green.Fprintf(w, "✓ "+format+"\n", args...)
}

func warningf(w io.Writer, format string, args ...any) {
	_, _ = yellow.Fprintf(w, "⚠ "+format+"\n", args...)
}

func errorf(w io.Writer, format string, args ...any) {
	_, _ = red.Fprintf(w, "✗ "+format+"\n", args...)
}

// printRunResult writes the end-of-run summary.
func printRunResult(w io.Writer, res *domain.RunResult) {
	if res == nil {
		return
	}

	s := res.Stats
	switch res.State {
	case domain.RunStateDone:
		successf(w, "Ingestion complete in %s", formatSeconds(res.Duration))
	default:
		errorf(w, "Ingestion %s after %s: %s", res.State, formatSeconds(res.Duration), res.Error)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Processed", "Skipped"})
	t.AppendRow(table.Row{"Agencies", s.AgenciesProcessed, s.AgenciesSkipped})
	t.AppendRow(table.Row{"Titles", s.TitlesProcessed, s.TitlesSkipped + s.TitlesNoContent})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Versions", s.VersionsCreated, ""})
	t.AppendRow(table.Row{"References", s.ReferencesWritten, s.ReferencesFailed})
	t.Render()

	if s.ChangesFailed > 0 {
		warningf(w, "%d change records failed", s.ChangesFailed)
	}
}

// printStatus writes the checkpoint and row counts.
func printStatus(w io.Writer, st *domain.IngestStatus) {
	_, _ = bold.Fprintln(w, "Checkpoint")

	cp := st.Checkpoint
	ct := table.NewWriter()
	ct.SetOutputMirror(w)
	ct.SetStyle(table.StyleLight)
	if cp == nil {
		ct.AppendRow(table.Row{"State", "none (next run starts from the beginning)"})
	} else {
		ct.AppendRow(table.Row{"Last agency", orDash(cp.AgencyID())})
		ct.AppendRow(table.Row{"Last title", titleOrDash(cp.LastTitleNumber)})
		ct.AppendRow(table.Row{"Saved at", cp.Timestamp.Local().Format(time.DateTime)})
		ct.AppendRow(table.Row{"Agencies processed", cp.Progress.AgenciesProcessed})
		ct.AppendRow(table.Row{"Titles processed", cp.Progress.TitlesProcessed})
	}
	ct.Render()

	fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "Store")

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Agencies", "Titles", "Versions", "Sections"})
	t.AppendRow(table.Row{st.Counts.Agencies, st.Counts.Titles, st.Counts.Versions, st.Counts.Sections})
	t.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func titleOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func formatSeconds(s float64) string {
	return (time.Duration(s * float64(time.Second))).Round(time.Millisecond).String()
}
