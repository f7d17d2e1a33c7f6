// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-importer/internal/boundary"
	"github.com/jonathan/resume-importer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, boxWidth-4)
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintRecord outputs a human-readable summary of an extracted record.
func (p *Printer) PrintRecord(record *types.ResumeRecord) {
	if record == nil {
		return
	}
	if record.IsEmpty() {
		p.printBox("EXTRACTED RESUME", "No fields could be extracted.")
		return
	}

	var sb strings.Builder
	personal := record.Personal
	sb.WriteString(fmt.Sprintf("Name:     %s\n", orDash(personal.Name)))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", orDash(personal.Email)))
	sb.WriteString(fmt.Sprintf("Phone:    %s\n", orDash(personal.Phone)))
	sb.WriteString(fmt.Sprintf("Location: %s\n", orDash(personal.Location)))
	if personal.LinkedIn != "" {
		sb.WriteString(fmt.Sprintf("LinkedIn: %s\n", personal.LinkedIn))
	}

	if len(record.Skills) > 0 {
		sb.WriteString("\n")
		shown := record.Skills[:min(len(record.Skills), maxItemsToShow)]
		sb.WriteString(fmt.Sprintf("Skills: %s", strings.Join(shown, ", ")))
		if len(record.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf(" (+%d more)", len(record.Skills)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(record.WorkExperience) > 0 {
		sb.WriteString("\nExperience:\n")
		count := min(len(record.WorkExperience), maxItemsToShow)
		for i := 0; i < count; i++ {
			w := record.WorkExperience[i]
			sb.WriteString(fmt.Sprintf("  • %s", orDash(w.Position)))
			if w.Company != "" {
				sb.WriteString(fmt.Sprintf(" @ %s", w.Company))
			}
			if span := dateSpan(w.StartDate, w.EffectiveEndDate()); span != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", span))
			}
			sb.WriteString("\n")
		}
		if len(record.WorkExperience) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(record.WorkExperience)-maxItemsToShow))
		}
	}

	if len(record.Education) > 0 {
		sb.WriteString("\nEducation:\n")
		count := min(len(record.Education), 3)
		for i := 0; i < count; i++ {
			e := record.Education[i]
			degree := strings.TrimSpace(strings.Join([]string{e.Degree, e.Field}, " "))
			sb.WriteString(fmt.Sprintf("  • %s", orDash(e.Institution)))
			if degree != "" {
				sb.WriteString(fmt.Sprintf(", %s", degree))
			}
			sb.WriteString("\n")
		}
		if len(record.Education) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(record.Education)-3))
		}
	}

	if n := len(record.Projects) + len(record.Certifications) + len(record.Languages); n > 0 {
		sb.WriteString(fmt.Sprintf("\nProjects: %d  Certifications: %d  Languages: %d\n",
			len(record.Projects), len(record.Certifications), len(record.Languages)))
	}

	p.printBox("EXTRACTED RESUME", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutcome outputs how a request was routed and classified.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintOutcome(out boundary.Outcome) {
	if !out.Envelope.Success {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate("❌ "+out.Envelope.Error, boxWidth-4))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Route:          %s\n", out.Route.Kind))
	sb.WriteString(fmt.Sprintf("Capability:     %s\n", out.Capability))
	if out.Fallback {
		sb.WriteString(fmt.Sprintf("Fallback from:  %s\n", out.Route.Capability))
	}
	sb.WriteString(fmt.Sprintf("Classification: %s", out.Classification))
	if out.Envelope.Message != "" {
		sb.WriteString("\n\n⚠ " + out.Envelope.Message)
	}
	p.printBox("IMPORT RESULT", sb.String())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dateSpan(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start
	case start == "":
		return end
	}
	return start + " – " + end
}
