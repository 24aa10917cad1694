package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driving"
)

var _ driving.ProgressReporter = (*progressReporter)(nil)

// progressReporter renders run progress as a bar over agencies when the
// output is a terminal, and as log lines otherwise.
type progressReporter struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	w       io.Writer
	noColor bool
	logger  *slog.Logger
	failed  int
}

// newProgressReporter returns a reporter writing to w. A bar is drawn only
// when enabled is true.
func newProgressReporter(w io.Writer, enabled, noColor bool, logger *slog.Logger) *progressReporter {
	if logger == nil {
		logger = slog.Default()
	}
	p := &progressReporter{w: w, noColor: noColor, logger: logger}
	if !enabled {
		p.w = nil
	}
	return p
}

// stderrIsTerminal reports whether progress bars make sense on stderr.
func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *progressReporter) AgencyStarted(slug string, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.w == nil {
		p.logger.Info("processing agency", "agency_id", slug, "index", index+1, "total", total)
		return
	}

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionEnableColorCodes(!p.noColor),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	p.bar.Describe(fmt.Sprintf("%-30.30s", slug))
	_ = p.bar.Set(index)
}

func (p *progressReporter) TitleDone(slug string, titleNumber int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.failed++
	}
	if p.w == nil {
		if err != nil {
			p.logger.Warn("title failed", "agency_id", slug, "title_number", titleNumber, "error", err)
		}
		return
	}
	if p.bar != nil {
		p.bar.Describe(fmt.Sprintf("%-22.22s title %-3d", slug, titleNumber))
	}
}

// Finish completes and clears the bar.
func (p *progressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		_, _ = fmt.Fprintln(p.w)
		p.bar = nil
	}
}

// Failed returns the number of titles reported with an error.
func (p *progressReporter) Failed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}
