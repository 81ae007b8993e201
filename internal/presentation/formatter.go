// Package presentation renders command output as JSON or aligned tables.
package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Output formats accepted by NewFormatter.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	output string
}

// NewFormatter creates a new formatter. Unknown formats are rejected.
func NewFormatter(writer io.Writer, output string) (*Formatter, error) {
	switch output {
	case "", OutputTable:
		output = OutputTable
	case OutputJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s or %s)", output, OutputTable, OutputJSON)
	}
	return &Formatter{writer: writer, output: output}, nil
}

// FormatRuns formats a list of recorded runs
func (f *Formatter) FormatRuns(runs []RunDTO) error {
	if f.output == OutputJSON {
		return f.json(runs)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(f.writer, "No runs recorded")
		return err
	}
	w := f.table()
	fmt.Fprintln(w, "RUN ID\tSTARTED\tTICKET\tTAGS\tSTATUS\tOK/FAILED/SKIPPED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s -> %s\t%s\t%d/%d/%d\t%s\n",
			r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04"), dash(r.Ticket),
			r.SourceTag, r.DestTag, statusLabel(r), r.Succeeded, r.Failed, r.Skipped, r.Duration)
	}
	return w.Flush()
}

// FormatRun formats one run with its artifact results
func (f *Formatter) FormatRun(run RunDetailDTO) error {
	if f.output == OutputJSON {
		return f.json(run)
	}
	w := f.table()
	fmt.Fprintf(w, "Run:\t%s\n", run.RunID)
	fmt.Fprintf(w, "Status:\t%s\n", statusLabel(run.RunDTO))
	fmt.Fprintf(w, "Ticket:\t%s\n", dash(run.Ticket))
	fmt.Fprintf(w, "Registry:\t%s\n", run.Registry)
	fmt.Fprintf(w, "Mode:\t%s\n", run.Mode)
	fmt.Fprintf(w, "Tags:\t%s -> %s\n", run.SourceTag, run.DestTag)
	gate := run.Gate
	if run.Approver != "" {
		gate += " by " + run.Approver
	}
	fmt.Fprintf(w, "Approval:\t%s\n", gate)
	if run.RequestedBy != "" {
		fmt.Fprintf(w, "Requested by:\t%s\n", run.RequestedBy)
	}
	if run.ReleaseLink != "" {
		fmt.Fprintf(w, "Release:\t%s\n", run.ReleaseLink)
	}
	if run.JobURL != "" {
		fmt.Fprintf(w, "Job:\t%s\n", run.JobURL)
	}
	fmt.Fprintf(w, "Started:\t%s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Duration)
	if run.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", run.Error)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(run.Artifacts) == 0 {
		return nil
	}

	fmt.Fprintln(f.writer)
	w = f.table()
	fmt.Fprintln(w, "ARTIFACT\tSTATUS\tATTEMPTS\tSTEP\tMESSAGE")
	for _, a := range run.Artifacts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", a.Artifact, a.Status, a.Attempts, dash(a.Step), a.Message)
	}
	return w.Flush()
}

// FormatArtifacts formats the canonical artifact list
func (f *Formatter) FormatArtifacts(names []string) error {
	if f.output == OutputJSON {
		return f.json(names)
	}
	_, err := fmt.Fprintln(f.writer, strings.Join(names, "\n"))
	return err
}

// FormatPending formats approval requests waiting for a decision
func (f *Formatter) FormatPending(pending []PendingDTO) error {
	if f.output == OutputJSON {
		return f.json(pending)
	}
	if len(pending) == 0 {
		_, err := fmt.Fprintln(f.writer, "No pending approvals")
		return err
	}
	w := f.table()
	fmt.Fprintln(w, "RUN ID\tTICKET\tTAGS\tARTIFACTS\tAPPROVERS\tDEADLINE")
	for _, p := range pending {
		deadline := "-"
		if !p.Deadline.IsZero() {
			deadline = p.Deadline.Local().Format("15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.RunID, dash(p.Ticket), p.Tags, strings.Join(p.Artifacts, ","), strings.Join(p.Approvers, ","), deadline)
	}
	return w.Flush()
}

func (f *Formatter) json(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) table() *tabwriter.Writer {
	return tabwriter.NewWriter(f.writer, 0, 4, 2, ' ', 0)
}

func statusLabel(r RunDTO) string {
	if r.DryRun {
		return r.Status + " (dry run)"
	}
	return r.Status
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
