package ghrelease

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressFunc receives the completed percentage (0 to 100) of one download.
type ProgressFunc func(percent float64)

// Progress hands out a ProgressFunc for each asset about to be downloaded.
// Implementations must be safe for concurrent use.
type Progress interface {
	Track(asset *Asset) ProgressFunc
}

const (
	barNameWidth   = 24
	barReserved    = 36
	barDefaultSize = 40
)

// terminalProgress keeps one screen row per tracked asset. Each bar renders
// into its row, and every update redraws the whole block in place.
type terminalProgress struct {
	mu    sync.Mutex
	out   io.Writer
	width int
	rows  []string
	drawn int
}

// NewTerminalProgress draws one progress bar per asset on out. It returns nil
// when out is not a terminal, so callers can fall back to no progress.
func NewTerminalProgress(out *os.File) Progress {
	if out == nil || !term.IsTerminal(int(out.Fd())) {
		return nil
	}

	width := barDefaultSize
	if cols, _, err := term.GetSize(int(out.Fd())); err == nil && cols-barReserved > 0 {
		width = cols - barReserved
	}
	return newTerminalProgress(out, width)
}

func newTerminalProgress(out io.Writer, width int) *terminalProgress {
	return &terminalProgress{out: out, width: width}
}

func (p *terminalProgress) Track(asset *Asset) ProgressFunc {
	p.mu.Lock()
	row := len(p.rows)
	p.rows = append(p.rows, "")
	p.mu.Unlock()

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(&rowWriter{progress: p, row: row}),
		progressbar.OptionSetDescription(rpad(asset.Name, barNameWidth)),
		progressbar.OptionSetWidth(p.width),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "▇",
			SaucerHead:    "▇",
			SaucerPadding: "-",
			BarStart:      "",
			BarEnd:        "",
		}),
	)

	return func(percent float64) {
		_ = bar.Set(int(percent))
	}
}

// update stores the latest frame of a bar and redraws every row. Frames
// arrive as carriage-return prefixed lines; writes that only clear the line
// are dropped.
func (p *terminalProgress) update(row int, frame string) {
	frame = strings.TrimRight(frame, "\r\n")
	if i := strings.LastIndex(frame, "\r"); i >= 0 {
		frame = frame[i+1:]
	}
	if strings.TrimSpace(frame) == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.rows[row] = frame

	var b strings.Builder
	if p.drawn > 0 {
		fmt.Fprintf(&b, "\x1b[%dA", p.drawn)
	}
	for _, r := range p.rows {
		b.WriteString("\r\x1b[K")
		b.WriteString(r)
		b.WriteString("\n")
	}
	p.drawn = len(p.rows)

	_, _ = io.WriteString(p.out, b.String())
}

type rowWriter struct {
	progress *terminalProgress
	row      int
}

func (w *rowWriter) Write(b []byte) (int, error) {
	w.progress.update(w.row, string(b))
	return len(b), nil
}

func rpad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return fmt.Sprintf("%-*s", n, s)
}

// progressWriter counts bytes written and reports whole-percent steps.
type progressWriter struct {
	total    int64
	written  int64
	reported int
	report   ProgressFunc
}

func newProgressWriter(total int64, report ProgressFunc) *progressWriter {
	return &progressWriter{total: total, reported: -1, report: report}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.total > 0 {
		pct := int(w.written * 100 / w.total)
		if pct > 100 {
			pct = 100
		}
		if pct != w.reported {
			w.reported = pct
			w.report(float64(pct))
		}
	}
	return len(p), nil
}

// finish reports completion if the last write did not already do so.
func (w *progressWriter) finish() {
	if w.reported != 100 {
		w.reported = 100
		w.report(100)
	}
}
