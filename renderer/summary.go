// Package renderer renders the engine outputs as markdown for the terminal.
package renderer

import (
	"fmt"
	"strconv"
	"time"

	"github.com/etnz/stakefolio"
)

// Summary renders a portfolio summary: headline figures, state buckets and
// allocations. names maps custodian IDs to display names and may be nil.
func Summary(s stakefolio.PortfolioSummary, names map[string]string) string {
	r := newRenderer()
	r.Printf("# Portfolio Summary on %s\n\n", s.AsOf.Format(time.DateOnly))
	r.Printf("Total Value: %s  \n", s.TotalValue)
	r.Printf("Blended APY: %s  \n", s.BlendedAPY)
	r.Printf("Validators: %d  \n", s.ValidatorCount)
	r.Printf("Yield Window: %s to %s", s.Window.Start.Format(time.DateOnly), s.Window.End.Format(time.DateOnly))
	if s.Period != "" {
		r.Printf(" (%s)", s.Period)
	}
	r.Printf("\n\n")

	r.Printf("## State Buckets\n\n")
	renderBuckets(r, s.Buckets)

	r.Printf("## Allocations\n\n")
	renderAllocations(r, s.Allocations, names)
	return r.String()
}

// Buckets renders the state buckets alone.
func Buckets(b stakefolio.StateBuckets) string {
	r := newRenderer()
	r.Printf("# State Buckets\n\n")
	renderBuckets(r, b)
	return r.String()
}

// Allocations renders a table of allocations under a title.
func Allocations(title string, allocations []stakefolio.Allocation, names map[string]string) string {
	r := newRenderer()
	r.Printf("# %s\n\n", title)
	renderAllocations(r, allocations, names)
	return r.String()
}

func renderBuckets(r *mdRenderer, b stakefolio.StateBuckets) {
	total := b.Total()
	var rows [][]string
	for state, value := range b.All() {
		rows = append(rows, []string{string(state), value.String(), percent(value.Ratio(total))})
	}
	rows = append(rows, []string{"**Total**", "**" + total.String() + "**", ""})
	r.Table([]string{"State", "Value", "Share"}, "lrr", rows)
}

func renderAllocations(r *mdRenderer, allocations []stakefolio.Allocation, names map[string]string) {
	if len(allocations) == 0 {
		r.Printf("No allocation.\n\n")
		return
	}
	rows := make([][]string, 0, len(allocations))
	for _, a := range allocations {
		name := a.ID
		if n, ok := names[a.ID]; ok && n != "" {
			name = fmt.Sprintf("%s (%s)", n, a.ID)
		}
		rows = append(rows, []string{
			name,
			a.Value.String(),
			percent(a.Percentage),
			a.TrailingAPY.String(),
			strconv.Itoa(a.ValidatorCount),
		})
	}
	r.Table([]string{"Name", "Value", "Share", "Trailing APY", "Validators"}, "lrrrr", rows)
}
