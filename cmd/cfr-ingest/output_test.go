package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/cfr-ingest/internal/config"
	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

func init() {
	color.NoColor = true
}

func TestPrintRunResult_Done(t *testing.T) {
	var buf bytes.Buffer
	printRunResult(&buf, &domain.RunResult{
		State:    domain.RunStateDone,
		Duration: 1.5,
		Stats: domain.RunStats{
			AgenciesProcessed: 2,
			TitlesProcessed:   4,
			TitlesSkipped:     1,
			VersionsCreated:   4,
			ReferencesWritten: 12,
			ChangesFailed:     2,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Ingestion complete in 1.5s")
	assert.Contains(t, out, "Agencies")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "2 change records failed")
}

func TestPrintRunResult_Failed(t *testing.T) {
	var buf bytes.Buffer
	printRunResult(&buf, &domain.RunResult{State: domain.RunStateFailed, Error: "upstream down"})
	assert.Contains(t, buf.String(), "Ingestion failed")
	assert.Contains(t, buf.String(), "upstream down")
}

func TestPrintRunResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	printRunResult(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestPrintStatus(t *testing.T) {
	slug := "agriculture-department"
	title := 7

	var buf bytes.Buffer
	printStatus(&buf, &domain.IngestStatus{
		Checkpoint: &domain.Checkpoint{
			LastAgencyID:    &slug,
			LastTitleNumber: &title,
			Timestamp:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			Progress:        domain.Progress{AgenciesProcessed: 3, TitlesProcessed: 9},
		},
		Counts: domain.StoreCounts{Agencies: 3, Titles: 50, Versions: 9, Sections: 1200},
	})

	out := buf.String()
	assert.Contains(t, out, slug)
	assert.Contains(t, out, "1200")
	assert.Contains(t, out, "Titles processed")
}

func TestPrintStatus_NoCheckpoint(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &domain.IngestStatus{})
	assert.Contains(t, buf.String(), "none")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "title_number", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), out)
	assert.Contains(t, out, `"title_number":7`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestProgressReporter_LogsWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := newProgressReporter(io.Discard, false, true, logger)

	p.AgencyStarted("alpha", 0, 2)
	p.TitleDone("alpha", 1, nil)
	p.TitleDone("alpha", 2, assert.AnError)
	p.Finish()

	out := buf.String()
	assert.Contains(t, out, "agency_id=alpha")
	assert.Contains(t, out, "title failed")
	assert.Equal(t, 1, p.Failed())
}

func TestProgressReporter_Bar(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressReporter(&buf, true, true, nil)

	p.AgencyStarted("alpha", 0, 2)
	p.TitleDone("alpha", 1, nil)
	p.AgencyStarted("beta", 1, 2)
	p.Finish()

	assert.NotEmpty(t, buf.String())
	assert.Equal(t, 0, p.Failed())
}
