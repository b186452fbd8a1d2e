package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// statusf prints a progress note to stderr unless quiet mode is set. Command
// output proper goes to the command's stdout.
func statusf(quiet bool, format string, args ...any) {
	if quiet {
		return
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

var sizeUnits = []string{"KB", "MB", "GB", "TB"}

// formatSize renders a byte count with one decimal in binary units,
// e.g. "1.5 KB". Counts under 1 KB are shown exactly.
func formatSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}

	v := float64(n) / 1024
	unit := 0

	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}

// formatTime renders an item timestamp in ls style: time of day for this
// year, the year otherwise, and "-" when the service gave none.
func formatTime(t time.Time) string {
	switch {
	case t.IsZero():
		return "-"
	case t.Year() == time.Now().Year():
		return t.Format("Jan _2 15:04")
	default:
		return t.Format("Jan _2  2006")
	}
}

// displayWidth counts terminal columns. East Asian wide and fullwidth runes
// take two.
func displayWidth(s string) int {
	n := 0

	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}

	return n
}

// printTable writes rows under headers in columns padded to the widest
// cell. Every row has len(headers) cells.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))

	for _, row := range append([][]string{headers}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	var b strings.Builder

	for i, cell := range cells {
		if i > 0 {
			b.WriteString("  ")
		}

		b.WriteString(cell)

		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-displayWidth(cell)))
		}
	}

	fmt.Fprintln(w, b.String())
}

// formatDuration rounds d to whole seconds for display.
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}
