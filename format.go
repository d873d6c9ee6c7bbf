package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// newTableWriter returns a writer that aligns columns when stdout is a
// terminal and emits plain tab-separated output when piped.
func newTableWriter() *tabwriter.Writer {
	padding := 2
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		padding = 1
	}

	return tabwriter.NewWriter(os.Stdout, 0, 8, padding, ' ', 0)
}

// formatNano returns a compact timestamp for a Unix-nanosecond value.
func formatNano(nanos int64) string {
	t := time.Unix(0, nanos)
	now := time.Now()

	// Same calendar year: show "Jan  2 15:04".
	if t.Year() == now.Year() {
		return t.Format("Jan _2 15:04")
	}

	return t.Format("Jan _2  2006")
}
