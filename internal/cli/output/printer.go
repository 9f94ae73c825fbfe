package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Printer writes command results in one format.
type Printer struct {
	out    io.Writer
	format Format
	color  bool
}

// NewPrinter creates a Printer. Color is used only when out is a terminal
// and the format is table.
func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{
		out:    out,
		format: format,
		color:  format == FormatTable && isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Format returns the printer's output format.
func (p *Printer) Format() Format {
	return p.format
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Print outputs data in the configured format. In table format data must
// implement TableRenderer; anything else falls back to JSON.
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatTable:
		if renderer, ok := data.(TableRenderer); ok {
			return PrintTable(p.out, renderer)
		}
		return PrintJSON(p.out, data)
	case FormatJSON:
		return PrintJSON(p.out, data)
	case FormatYAML:
		return PrintYAML(p.out, data)
	default:
		return fmt.Errorf("unknown format: %s", p.format)
	}
}

// PrintKV prints a single record. Tables get "key: value" lines; JSON and
// YAML get the structured value v.
func (p *Printer) PrintKV(pairs [][2]string, v any) error {
	if p.format == FormatTable {
		return SimpleTable(p.out, pairs)
	}
	return p.Print(v)
}

// Success prints a green message in table mode and nothing otherwise, so
// machine-readable output stays parseable.
func (p *Printer) Success(format string, args ...any) {
	if p.format != FormatTable {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if p.color {
		_, _ = fmt.Fprintf(p.out, "\033[32m%s\033[0m\n", msg)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}

// Warning prints a yellow message in table mode.
func (p *Printer) Warning(format string, args ...any) {
	if p.format != FormatTable {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if p.color {
		_, _ = fmt.Fprintf(p.out, "\033[33m%s\033[0m\n", msg)
		return
	}
	_, _ = fmt.Fprintln(p.out, msg)
}
