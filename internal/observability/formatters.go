// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/apply-pilot/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxErrorsToShow is the default number of error messages to display
	maxErrorsToShow = 5
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

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintOutcome outputs a human-readable summary of a finished run.
func (p *Printer) PrintOutcome(out *types.Outcome) {
	if out == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:      %s\n", out.JobURL))
	sb.WriteString(fmt.Sprintf("Board:    %s\n", out.Board))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", out.FinalStatus))
	if out.FailurePoint != "" {
		sb.WriteString(fmt.Sprintf("Failed:   %s\n", out.FailurePoint))
	}
	sb.WriteString(fmt.Sprintf("Filled:   %s (%.1f%%)\n", out.FillDisplay, out.FillRatio*100))
	sb.WriteString(fmt.Sprintf("Handoff:  %t\n", out.SessionPreserved))

	if len(out.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		count := min(len(out.Errors), maxErrorsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", out.Errors[i]))
		}
		if len(out.Errors) > count {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(out.Errors)-count))
		}
	}

	p.printBox("Run Outcome", strings.TrimRight(sb.String(), "\n"))
}

// PrintSections outputs the per-section fill status of a run.
func (p *Printer) PrintSections(sections map[types.Section]types.SectionStatus) {
	if len(sections) == 0 {
		return
	}

	names := make([]string, 0, len(sections))
	for s := range sections {
		names = append(names, string(s))
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("%-18s %s\n", name+":", sections[types.Section(name)]))
	}

	p.printBox("Form Sections", strings.TrimRight(sb.String(), "\n"))
}

// PrintVisibility outputs where a running session can be observed.
func (p *Printer) PrintVisibility(handle types.VisibilityHandle) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Mode:     %s\n", handle.Mode))
	if handle.Locator != "" {
		sb.WriteString(fmt.Sprintf("Locator:  %s\n", handle.Locator))
	}
	if handle.FallbackMessage != "" {
		sb.WriteString(fmt.Sprintf("Note:     %s\n", handle.FallbackMessage))
	}

	p.printBox("Session Visibility", strings.TrimRight(sb.String(), "\n"))
}
