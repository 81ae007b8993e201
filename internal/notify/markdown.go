package notify

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/promoter/internal/promotion"
)

// maxMessageWidth keeps table rows on one terminal line.
const maxMessageWidth = 72

// Markdown renders report as a markdown document.
func Markdown(report promotion.RunReport) string {
	s := Summarize(report)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", s.JobStatus, s.Ticket)

	fmt.Fprintf(&b, "- **Run:** `%s` (%s)\n", s.RunID, s.Status)
	fmt.Fprintf(&b, "- **Registry:** `%s`\n", s.Registry)
	fmt.Fprintf(&b, "- **Mode:** %s\n", s.Mode)
	if s.SourceTag != "" {
		fmt.Fprintf(&b, "- **Tags:** `%s` → `%s`\n", s.SourceTag, s.DestTag)
	}
	fmt.Fprintf(&b, "- **Dry run:** %s\n", yesNo(s.DryRun))
	b.WriteString("- **Approval:** " + gateLine(s) + "\n")
	if s.ReleaseLink != "" {
		fmt.Fprintf(&b, "- **Release notes:** %s\n", s.ReleaseLink)
	}
	if s.JobURL != "" {
		fmt.Fprintf(&b, "- **Job:** %s\n", s.JobURL)
	}

	if s.Error != "" {
		fmt.Fprintf(&b, "\n> %s\n", escapeCell(s.Error))
	}

	if len(s.Results) > 0 {
		b.WriteString("\n| Image | Status | Message |\n|---|---|---|\n")
		for _, r := range s.Results {
			msg := ansi.Truncate(r.Message, maxMessageWidth, "…")
			fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Image, r.Status, escapeCell(msg))
		}
	}

	m := s.Metrics
	fmt.Fprintf(&b, "\n%s. %s. %d registry calls, %d retries.\n",
		m.FormatCounts(), m.FormatTiming(), m.RegistryCalls, m.Retries)
	return b.String()
}

func gateLine(s Summary) string {
	switch {
	case s.Gate == promotion.GateApproved.String() && s.Approver != "":
		return "approved by " + s.Approver
	case s.Approver != "":
		return s.Gate + " (" + s.Approver + ")"
	default:
		return strings.ReplaceAll(s.Gate, "_", " ")
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
