package agent

import (
	"fmt"
	"strings"
)

// Render formats a terminal run state as a human-readable report.
func Render(st *RunState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", st.Goal)
	fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(string(st.Status)))
	fmt.Fprintf(&b, "Results: %d/%d\n", len(st.Results), st.TargetCount)
	fmt.Fprintf(&b, "Iterations: %d\n", st.Iteration)
	if st.LastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", st.LastError)
	}
	b.WriteString("\nResults:\n")

	for i, res := range st.Results {
		switch {
		case res.URL != "":
			title := res.Title
			if title == "" {
				title = "No title"
			}
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, title, res.URL)
			if res.Description != "" {
				fmt.Fprintf(&b, "   Description: %s\n", res.Description)
			}
			if len(res.Emails) > 0 {
				fmt.Fprintf(&b, "   Emails: %s\n", strings.Join(res.Emails, ", "))
			}
			if res.JobTitle != "" {
				fmt.Fprintf(&b, "   Position: %s", res.JobTitle)
				if res.Company != "" {
					fmt.Fprintf(&b, " at %s", res.Company)
				}
				if res.Location != "" {
					fmt.Fprintf(&b, " (%s)", res.Location)
				}
				b.WriteString("\n")
			}
		case len(res.ContactInfo) > 0:
			fmt.Fprintf(&b, "%d. Contact information: %s\n", i+1, strings.Join(res.ContactInfo, ", "))
		default:
			title := res.Title
			if title == "" {
				title = "No title"
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, title)
			if res.Description != "" {
				fmt.Fprintf(&b, "   %s\n", res.Description)
			}
		}
	}
	return b.String()
}
