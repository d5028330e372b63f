// Package output provides consistent CLI output formatting for search
// results, pages and progress.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a new output Writer. Color is enabled when out is a terminal
// and NO_COLOR is unset.
func New(out io.Writer) *Writer {
	return &Writer{
		out:      out,
		useColor: isTerminal(out) && os.Getenv("NO_COLOR") == "",
	}
}

// isTerminal reports whether w is a terminal file.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColor forces color on or off.
func (w *Writer) SetColor(enabled bool) {
	w.useColor = enabled
}

func (w *Writer) style(code, s string) string {
	if !w.useColor {
		return s
	}
	return code + s + ansiReset
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Item prints one ranked result: the rank, a bold title and a dimmed
// detail line.
func (w *Writer) Item(rank int, title, detail string) {
	_, _ = fmt.Fprintf(w.out, "%3d. %s\n", rank, w.style(ansiBold, title))
	if detail != "" {
		_, _ = fmt.Fprintf(w.out, "     %s\n", w.style(ansiDim, detail))
	}
}

// Placeholder prints a ranked hit that has no backing object.
func (w *Writer) Placeholder(rank int, id string, score float64) {
	_, _ = fmt.Fprintf(w.out, "%3d. %s\n", rank,
		w.style(ansiDim, fmt.Sprintf("[unresolved %s score=%.3f]", id, score)))
}

// PageFooter prints the page position and a window of page numbers with
// the current one bracketed.
func (w *Writer) PageFooter(page, pages, start, end, total int, window []int) {
	_, _ = fmt.Fprintln(w.out)
	if total == 0 {
		_, _ = fmt.Fprintln(w.out, "No results.")
		return
	}
	_, _ = fmt.Fprintf(w.out, "Showing %d-%d of %d (page %d/%d)\n", start, end, total, page, pages)
	if len(window) > 1 {
		parts := make([]string, len(window))
		for i, p := range window {
			if p == page {
				parts[i] = w.style(ansiBold, fmt.Sprintf("[%d]", p))
			} else {
				parts[i] = fmt.Sprint(p)
			}
		}
		_, _ = fmt.Fprintf(w.out, "Pages: %s\n", strings.Join(parts, " "))
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Progress prints a progress bar with message.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	bar := renderProgressBar(current, total, 30)

	// Carriage return for in-place updates
	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", bar, pct, msg)

	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// renderProgressBar creates a text progress bar.
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	filled := int(float64(current) / float64(total) * float64(width))
	filled = max(0, min(filled, width))

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
