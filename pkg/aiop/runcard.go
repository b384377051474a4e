package aiop

import (
	"fmt"
	"strings"
)

// renderRunCard builds the optional Markdown companion to core.json
// (§4.9 step 8). It restates the run's status and totals as a short
// bullet list, then the narrative layer, for a human skimming run
// history without opening the JSON; evidence entries are not listed.
func renderRunCard(pipelineSlug, runURI, status, narrative string, totals map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", pipelineSlug)
	fmt.Fprintf(&b, "- Run: `%s`\n", runURI)
	fmt.Fprintf(&b, "- Status: **%s**\n", status)
	if rows, ok := totals["rows_out"]; ok {
		fmt.Fprintf(&b, "- Rows out: %v\n", rows)
	}
	if ms, ok := totals["duration_ms"]; ok {
		fmt.Fprintf(&b, "- Duration: %v ms\n", ms)
	}
	b.WriteString("\n## Summary\n\n")
	b.WriteString(narrative)
	b.WriteString("\n")
	return b.String()
}
