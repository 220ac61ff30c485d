package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/etnz/stakefolio"
)

// Exceptions renders the detected exceptions, one section each.
func Exceptions(exceptions []stakefolio.Exception) string {
	r := newRenderer()
	r.Printf("# Exceptions\n\n")
	if len(exceptions) == 0 {
		r.Printf("No exception detected.\n")
		return r.String()
	}
	rows := make([][]string, 0, len(exceptions))
	for _, e := range exceptions {
		rows = append(rows, []string{string(e.Severity), string(e.Type), e.Title})
	}
	r.Table([]string{"Severity", "Type", "Title"}, "lll", rows)

	for _, e := range exceptions {
		r.Printf("## %s\n\n", e.Title)
		r.Printf("%s\n\n", e.Description)
		r.Printf("- ID: `%s`\n", e.ID)
		r.Printf("- Severity: %s\n", e.Severity)
		r.Printf("- Status: %s\n", e.Status)
		r.Printf("- Detected: %s\n\n", e.DetectedAt.Format(time.RFC3339))
		ConditionalBlock(r, func(w io.Writer) bool {
			fmt.Fprintf(w, "Evidence:\n\n")
			writeEvidence(w, e.Evidence)
			return len(e.Evidence) > 0
		})
	}
	return r.String()
}

func writeEvidence(w io.Writer, evidence []stakefolio.EvidenceLink) {
	for _, l := range evidence {
		if l.Label != "" {
			fmt.Fprintf(w, "- %s `%s` (%s)\n", l.Kind, l.Ref, l.Label)
		} else {
			fmt.Fprintf(w, "- %s `%s`\n", l.Kind, l.Ref)
		}
	}
	fmt.Fprintf(w, "\n")
}
