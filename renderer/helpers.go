package renderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// ConditionalBlock let you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// mdRenderer accumulates markdown.
type mdRenderer struct {
	*strings.Builder
}

func newRenderer() *mdRenderer { return &mdRenderer{Builder: &strings.Builder{}} }

// Printf formats according to a format specifier and writes to the renderer's buffer.
func (r *mdRenderer) Printf(format string, args ...any) {
	fmt.Fprintf(r, format, args...)
}

// Table prints a markdown table. align holds one of "l", "r" per column.
func (r *mdRenderer) Table(header []string, align string, rows [][]string) {
	r.Printf("| %s |\n", strings.Join(header, " | "))
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = ":---"
		if i < len(align) && align[i] == 'r' {
			seps[i] = "---:"
		}
	}
	r.Printf("|%s|\n", strings.Join(seps, "|"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		r.Printf("| %s |\n", strings.Join(cells, " | "))
	}
	r.Printf("\n")
}

// escapeCell protects pipes so that free text does not break a table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func percent(f float64) string { return fmt.Sprintf("%.2f%%", f*100) }
