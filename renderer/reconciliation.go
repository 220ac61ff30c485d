package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/etnz/stakefolio"
)

// Reconciliation renders reconciliation reports: an overview table then
// the variance categories of every report that has some.
func Reconciliation(reports []stakefolio.ReconciliationReport) string {
	r := newRenderer()
	r.Printf("# Reconciliation\n\n")
	if len(reports) == 0 {
		r.Printf("No custodian statement.\n")
		return r.String()
	}
	rows := make([][]string, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, []string{
			rep.Source,
			rep.ReportDate.Format(time.DateOnly),
			rep.InternalTotal.String(),
			rep.ExternalTotal.String(),
			rep.Variance.SignedString(),
			percent(rep.VariancePercentage),
			string(rep.Status),
		})
	}
	r.Table([]string{"Source", "Date", "Internal", "External", "Variance", "%", "Status"}, "llrrrrl", rows)

	for _, rep := range reports {
		ConditionalBlock(r, func(w io.Writer) bool {
			fmt.Fprintf(w, "## %s\n\n", rep.Source)
			fmt.Fprintf(w, "| Category | Amount | Explanation |\n")
			fmt.Fprintf(w, "|:---|---:|:---|\n")
			for _, c := range rep.Categories {
				fmt.Fprintf(w, "| %s | %s | %s |\n", c.Tag, c.Amount, escapeCell(c.Explanation))
			}
			fmt.Fprintf(w, "\n")
			if rest := rep.Unattributed(); !rest.IsZero() {
				fmt.Fprintf(w, "Unattributed: %s\n\n", rest)
			}
			for _, c := range rep.Categories {
				if len(c.Evidence) == 0 {
					continue
				}
				fmt.Fprintf(w, "Evidence for %s:\n\n", c.Tag)
				writeEvidence(w, c.Evidence)
			}
			return len(rep.Categories) > 0
		})
	}
	return r.String()
}
