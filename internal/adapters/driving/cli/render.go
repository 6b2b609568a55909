package cli

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/services"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	delStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("1"))
	insStyle     = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("2"))
)

// styled reports whether stdout is an interactive terminal. Plain output is
// used when piping so downstream tools see no escape codes.
func styled() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// render applies a style only when writing to a terminal.
func render(style lipgloss.Style, s string) string {
	if !styled() {
		return s
	}
	return style.Render(s)
}

func riskStyle(risk domain.RiskLevel) lipgloss.Style {
	switch risk {
	case domain.RiskHigh:
		return failStyle
	case domain.RiskMedium:
		return warnStyle
	default:
		return okStyle
	}
}

func renderMatches(cmd *cobra.Command, matches []domain.SearchMatch) {
	if len(matches) == 0 {
		cmd.Println("No matches found.")
		return
	}

	for i, m := range matches {
		cmd.Printf("%s %s\n",
			render(headingStyle, fmt.Sprintf("[%d] %d%% %s", i+1, m.Confidence, m.Type)),
			render(dimStyle, fmt.Sprintf("bytes %d-%d", m.Range.Start, m.Range.End)))
		cmd.Printf("    %s\n", oneLine(m.Context, 120))
	}
}

func renderResolutions(cmd *cobra.Command, resolutions []domain.SectionResolution) {
	for _, res := range resolutions {
		if res.Found {
			cmd.Printf("%s %s %s\n",
				render(okStyle, "resolved"),
				render(headingStyle, res.Key),
				render(dimStyle, fmt.Sprintf("%d%% %s", res.Confidence, res.Type)))
			if res.Context != "" {
				cmd.Printf("    %s\n", oneLine(res.Context, 120))
			}
			continue
		}
		cmd.Printf("%s %s %s\n",
			render(failStyle, "unresolved"),
			render(headingStyle, res.Key),
			render(dimStyle, res.Reason))
	}
}

func renderReport(cmd *cobra.Command, report *domain.ApplyReport) {
	for _, outcome := range report.Applied {
		mode := "tracked"
		if !outcome.Tracked {
			mode = "marked"
		}
		cmd.Printf("%s %s %s\n",
			render(okStyle, "applied"),
			render(headingStyle, outcome.Key),
			render(dimStyle, fmt.Sprintf("%d changes, %s", outcome.Changes, mode)))
	}
	for _, key := range report.Skipped {
		cmd.Printf("%s %s %s\n",
			render(warnStyle, "skipped"),
			render(headingStyle, key),
			render(dimStyle, "already applied in this session"))
	}
	for _, failure := range report.Failed {
		cmd.Printf("%s %s %s\n",
			render(failStyle, "failed"),
			render(headingStyle, failure.Key),
			render(dimStyle, failure.Reason))
	}
	cmd.Println()
	cmd.Println(report.Summary())
}

func renderSections(cmd *cobra.Command, review *domain.Review, redline *services.RedlineService) {
	for _, sec := range review.Sections {
		label := string(sec.Risk)
		if label == "" {
			label = "unrated"
		}
		cmd.Printf("%s %s %s\n",
			render(riskStyle(sec.Risk), fmt.Sprintf("%-7s", label)),
			render(headingStyle, sec.Key()),
			render(dimStyle, sectionSummary(&sec)))
		if sec.Rationale != "" {
			cmd.Printf("    %s\n", oneLine(sec.Rationale, 120))
		}
		if redline != nil && sec.Kind == domain.SectionKindLegacy {
			renderRedline(cmd, redline.Segments(sec.OriginalText, sec.RevisedText))
		}
	}
}

// renderRedline writes the redline of a full-text revision, deletions struck
// through and insertions underlined. When output is piped the segments are
// wrapped in [-...-] and {+...+} markers instead of escape codes.
func renderRedline(cmd *cobra.Command, segments []domain.RedlineSegment) {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Op {
		case domain.RedlineDelete:
			if styled() {
				b.WriteString(delStyle.Render(seg.Text))
			} else {
				b.WriteString("[-" + seg.Text + "-]")
			}
		case domain.RedlineInsert:
			if styled() {
				b.WriteString(insStyle.Render(seg.Text))
			} else {
				b.WriteString("{+" + seg.Text + "+}")
			}
		default:
			b.WriteString(seg.Text)
		}
	}
	for _, line := range strings.Split(b.String(), "\n") {
		cmd.Printf("    %s\n", line)
	}
}

func sectionSummary(sec *domain.SectionReview) string {
	switch sec.Kind {
	case domain.SectionKindChanges:
		return fmt.Sprintf("%d scoped changes", len(sec.Changes))
	case domain.SectionKindLegacy:
		return fmt.Sprintf("full-text revision, %d bytes", len(sec.RevisedText))
	case domain.SectionKindInsertion:
		return fmt.Sprintf("new section after %q", sec.Insertion.InsertAfter)
	default:
		return string(sec.Kind)
	}
}

// oneLine collapses whitespace and truncates for single-line display,
// cutting at a rune boundary so multi-byte characters survive.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "..."
}
