package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// style applies a color, falling back to plain text when color is off
type style struct {
	color *color.Color
}

func (s style) Sprintf(format string, a ...any) string {
	text := fmt.Sprintf(format, a...)
	if noColor() {
		return text
	}
	return s.color.Sprint(text)
}

func noColor() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	success = style{color.New(color.FgGreen)}
	failure = style{color.New(color.FgRed)}
	warning = style{color.New(color.FgYellow)}
	hint    = style{color.New(color.FgCyan)}
	muted   = style{color.New(color.FgHiBlack)}
)

// progressSpinner shows a message with a percentage on stderr while a
// long operation runs. It does nothing when stderr is not a terminal.
type progressSpinner struct {
	s       *spinner.Spinner
	message string
}

func startSpinner(message string) *progressSpinner {
	ps := &progressSpinner{message: message}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return ps
	}
	ps.s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	ps.s.Suffix = " " + message
	_ = ps.s.Color("cyan")
	ps.s.Start()
	return ps
}

// Progress is an entry.ProgressFunc updating the spinner suffix.
func (ps *progressSpinner) Progress(percent int) {
	if ps.s == nil {
		return
	}
	ps.s.Lock()
	ps.s.Suffix = fmt.Sprintf(" %s %3d%%", ps.message, percent)
	ps.s.Unlock()
}

// Stop removes the spinner from the terminal.
func (ps *progressSpinner) Stop() {
	if ps.s != nil {
		ps.s.Stop()
	}
}

// formatSize formats a size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

// colorizeDiff colors added and removed lines of a unified diff
func colorizeDiff(diff string) string {
	if noColor() {
		return diff
	}
	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(hint.Sprintf("%s", line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(success.Sprintf("%s", line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(failure.Sprintf("%s", line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}
