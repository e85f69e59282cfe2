// Package ui renders lifecycle results for the terminal.
//
// Text output is styled with lipgloss when stdout is an interactive terminal
// and plain otherwise, so piped output stays free of escape sequences. YAML
// output is meant for scripts.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/imamik/quantserver/internal/lifecycle"
	"github.com/imamik/quantserver/pkg/cloud"
)

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// ValidateFormat checks an --output value.
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (use %s or %s)", format, FormatText, FormatYAML)
	}
}

// IsInteractiveTTY reports whether f is a terminal.
func IsInteractiveTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printer writes results to w.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter returns a Printer. With styled unset no escape sequences are
// written.
func NewPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{w: w, styled: styled}
}

// NewStdoutPrinter returns a Printer for stdout, styled when it is a terminal.
func NewStdoutPrinter() *Printer {
	return NewPrinter(os.Stdout, IsInteractiveTTY(os.Stdout))
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// YAML writes v as a YAML document.
func (p *Printer) YAML(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// Status writes a status report.
func (p *Printer) Status(r *lifecycle.StatusReport) error {
	var b strings.Builder

	title := fmt.Sprintf("quantserver: %s (%s)", r.Label, r.Provider)
	b.WriteString("\n")
	b.WriteString("  " + p.render(titleStyle, title) + "\n")
	b.WriteString("  " + p.render(dimStyle, strings.Repeat("═", len(title))) + "\n\n")

	p.section(&b, "Instance")
	if r.Instance == nil {
		b.WriteString("    " + p.render(dimStyle, "No instance running") + "\n")
	} else {
		p.instance(&b, r.Instance)
	}
	b.WriteString("\n")

	p.section(&b, fmt.Sprintf("Backups (%d, keep %d, max age %d days)",
		len(r.Backups), r.Policy.MaxCount, r.Policy.RetainDays))
	if len(r.Backups) == 0 {
		b.WriteString("    " + p.render(dimStyle, "No backups") + "\n")
	} else {
		reasons := make(map[string]string, len(r.Plan.Delete))
		for _, c := range r.Plan.Delete {
			reasons[c.Snapshot.ID] = strings.Join(c.Reasons, ", ")
		}
		var rows [][]string
		for _, s := range r.Backups {
			retention := p.render(readyStyle, "keep")
			if reason, ok := reasons[s.ID]; ok {
				retention = p.render(warningStyle, "prune: "+reason)
			}
			rows = append(rows, []string{s.ID, s.Description, p.snapshotStatus(s.Status), formatTime(s.CreatedAt), retention})
		}
		p.table(&b, []string{"ID", "DESCRIPTION", "STATUS", "CREATED", "RETENTION"}, rows)
	}

	_, err := io.WriteString(p.w, b.String())
	return err
}

// Start writes the outcome of a start action.
func (p *Printer) Start(r *lifecycle.StartResult) error {
	var b strings.Builder
	verb := "already running"
	if r.Created {
		verb = "created"
	}
	fmt.Fprintf(&b, "%s Instance %s %s\n", p.render(readyStyle, "[OK]"), r.Instance.ID, verb)
	p.instance(&b, r.Instance)
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Stop writes the outcome of a stop action.
func (p *Printer) Stop(r *lifecycle.StopResult) error {
	var b strings.Builder
	if r.Snapshot != nil {
		fmt.Fprintf(&b, "%s Snapshot %s (%s) complete\n", p.render(readyStyle, "[OK]"),
			r.Snapshot.ID, r.Snapshot.Description)
	}
	if r.Instance != nil {
		fmt.Fprintf(&b, "%s Instance %s destroyed\n", p.render(readyStyle, "[OK]"), r.Instance.ID)
	}
	if r.Prune != nil {
		p.pruneSummary(&b, r.Prune)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Prune writes a prune plan and what happened to it.
func (p *Printer) Prune(r *lifecycle.PruneResult) error {
	var b strings.Builder
	if len(r.Plan.Delete) == 0 {
		b.WriteString("No backups to prune\n")
		_, err := io.WriteString(p.w, b.String())
		return err
	}

	failed := make(map[string]bool, len(r.Failed))
	for _, id := range r.Failed {
		failed[id] = true
	}
	var rows [][]string
	for _, c := range r.Plan.Delete {
		action := p.render(readyStyle, "deleted")
		switch {
		case r.DryRun:
			action = p.render(dimStyle, "would delete")
		case failed[c.Snapshot.ID]:
			action = p.render(failedStyle, "failed")
		}
		rows = append(rows, []string{c.Snapshot.ID, c.Snapshot.Description, strings.Join(c.Reasons, ", "), action})
	}
	p.table(&b, []string{"ID", "DESCRIPTION", "REASON", "ACTION"}, rows)
	p.pruneSummary(&b, r)

	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *Printer) pruneSummary(b *strings.Builder, r *lifecycle.PruneResult) {
	switch {
	case r.DryRun:
		fmt.Fprintf(b, "Dry run: %d of %d backups would be deleted\n",
			len(r.Plan.Delete), len(r.Plan.Delete)+len(r.Plan.Keep))
	case len(r.Failed) > 0:
		fmt.Fprintf(b, "%s Deleted %d backups, %d failed\n", p.render(failedStyle, "[!!]"),
			len(r.Deleted), len(r.Failed))
	default:
		fmt.Fprintf(b, "%s Deleted %d backups, kept %d\n", p.render(readyStyle, "[OK]"),
			len(r.Deleted), len(r.Plan.Keep))
	}
}

func (p *Printer) section(b *strings.Builder, title string) {
	b.WriteString("  " + p.render(sectionStyle, title) + "\n")
	b.WriteString("  " + p.render(dimStyle, strings.Repeat("─", 35)) + "\n")
}

func (p *Printer) instance(b *strings.Builder, inst *cloud.Instance) {
	state := inst.Status + " / " + inst.PowerStatus
	if inst.IsRunning() {
		state = p.render(readyStyle, state)
	} else {
		state = p.render(warningStyle, state)
	}
	ip := inst.MainIP
	if ip == "" {
		ip = "-"
	}
	fmt.Fprintf(b, "    %-8s %s\n", "ID", inst.ID)
	fmt.Fprintf(b, "    %-8s %s\n", "State", state)
	fmt.Fprintf(b, "    %-8s %s\n", "IP", ip)
	if inst.Region != "" {
		fmt.Fprintf(b, "    %-8s %s\n", "Region", inst.Region)
	}
	if inst.Plan != "" {
		fmt.Fprintf(b, "    %-8s %s\n", "Plan", inst.Plan)
	}
}

// table writes aligned columns. Widths are measured with lipgloss so styled
// cells line up with plain ones.
func (p *Printer) table(b *strings.Builder, header []string, rows [][]string) {
	cells := make([]string, len(header))
	widths := make([]int, len(header))
	for i, h := range header {
		cells[i] = p.render(dimStyle, h)
		widths[i] = lipgloss.Width(cells[i])
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	writeRow := func(row []string) {
		b.WriteString("    ")
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	writeRow(cells)
	for _, row := range rows {
		writeRow(row)
	}
}

func (p *Printer) snapshotStatus(status string) string {
	switch status {
	case cloud.SnapshotComplete:
		return p.render(readyStyle, status)
	case cloud.SnapshotError:
		return p.render(failedStyle, status)
	default:
		return p.render(warningStyle, status)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
