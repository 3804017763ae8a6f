package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/githydra/internal/engine"
	domain "github.com/zjrosen/githydra/internal/git/domain"
	"github.com/zjrosen/githydra/internal/ui/styles"
)

// View renders the whole frame.
func (m Model) View() string {
	if !m.ready || m.quitting {
		return ""
	}

	rm := m.eng.Render()

	var b strings.Builder
	if m.cfg.UI.ShowStatusBar {
		b.WriteString(m.renderStatusBar(rm))
		b.WriteString("\n")
	}
	b.WriteString(m.renderTabs(rm.View))
	b.WriteString("\n")

	mainHeight := m.mainHeight()
	if rm.View == engine.ViewStatus {
		list := m.renderListPane(rm, m.listPaneWidth(), mainHeight)
		diff := m.renderDiffPane(m.diffPaneWidth(), mainHeight)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, diff))
	} else {
		b.WriteString(m.renderListPane(rm, m.width, mainHeight))
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter(rm))

	return b.String()
}

func (m Model) renderStatusBar(rm engine.RenderModel) string {
	var parts []string
	if rm.Branch != "" {
		parts = append(parts, styles.TitleStyle.Render(rm.Branch))
	}
	if rm.Head != "" {
		parts = append(parts, styles.MutedStyle.Render(styles.FormatShortHash(rm.Head)))
	}
	if ab := styles.FormatAheadBehind(rm.Ahead, rm.Behind); ab != "" {
		parts = append(parts, styles.MarkerStyle.Render(ab))
	}
	left := strings.Join(parts, " ")

	var right string
	if rm.Running != "" {
		right = styles.MutedStyle.Render(rm.Running)
		if m.cfg.UI.ShowSpinner {
			right = m.spin.View() + " " + right
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncate.String(left, uint(max(m.width, 1)))
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderTabs(active engine.ViewKind) string {
	var tabs []string
	for i, v := range engine.AllViews() {
		label := fmt.Sprintf("%d:%s", i+1, v)
		if v == active {
			tabs = append(tabs, styles.TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, styles.TabInactiveStyle.Render(label))
		}
	}
	return truncate.String(strings.Join(tabs, "  "), uint(max(m.width, 1)))
}

func (m Model) renderListPane(rm engine.RenderModel, width, height int) string {
	innerWidth := max(width-2, 1)
	innerHeight := max(height-2, 1)

	var lines []string
	if len(rm.Rows) == 0 {
		lines = append(lines, styles.MutedStyle.Render(emptyText(rm.View)))
	} else {
		start := listWindowStart(rm.Cursor, len(rm.Rows), innerHeight)
		end := min(start+innerHeight, len(rm.Rows))
		for i := start; i < end; i++ {
			row := rm.Rows[i]
			line := fmt.Sprintf("%s %s", styles.MarkerStyle.Render(row.Marker), row.Text)
			if i == rm.Cursor {
				line = styles.SelectedRowStyle.Render("> " + row.Marker + " " + row.Text)
			}
			lines = append(lines, truncate.String(line, uint(innerWidth)))
		}
	}

	title := fmt.Sprintf("%s (%d)", rm.View, len(rm.Rows))
	return styles.RenderPane(strings.Join(lines, "\n"), title, width, height, true)
}

func (m Model) renderDiffPane(width, height int) string {
	var content string
	switch {
	case m.diffErr != nil:
		content = styles.BannerErrorStyle.Render(m.diffErr.Error())
	case m.hasDiff:
		content = m.diff.View()
	default:
		content = styles.MutedStyle.Render("No file selected")
	}
	return styles.RenderPane(content, "Diff", width, height, false)
}

func (m Model) renderFooter(rm engine.RenderModel) string {
	if m.prompt != promptNone {
		return styles.PromptStyle.Render(promptLabel(m.prompt)) + " " + m.input.View()
	}
	if rm.Banner != "" {
		style := styles.BannerInfoStyle
		if rm.BannerError {
			style = styles.BannerErrorStyle
		}
		return style.Render(wordwrap.String(rm.Banner, max(m.width, 1)))
	}
	return styles.HintStyle.Render(truncate.String(keyHint(rm.View), uint(max(m.width, 1))))
}

func promptLabel(kind promptKind) string {
	switch kind {
	case promptCommit:
		return "Commit:"
	case promptBranch:
		return "Branch:"
	case promptStash:
		return "Stash:"
	default:
		return ">"
	}
}

func emptyText(view engine.ViewKind) string {
	switch view {
	case engine.ViewStatus:
		return "Working tree clean"
	case engine.ViewLog:
		return "No commits"
	case engine.ViewBranches:
		return "No branches"
	case engine.ViewRemote:
		return "No remotes"
	case engine.ViewStash:
		return "No stash entries"
	default:
		return ""
	}
}

func keyHint(view engine.ViewKind) string {
	base := "1-5 views  j/k move  r refresh  P push  L pull  q quit"
	switch view {
	case engine.ViewStatus:
		return "space stage/unstage  c commit  s stash  " + base
	case engine.ViewBranches:
		return "enter checkout  n new  d/D delete  " + base
	case engine.ViewStash:
		return "p pop  x drop  " + base
	default:
		return base
	}
}

// listWindowStart positions the visible slice so the cursor stays in view.
func listWindowStart(cursor, total, height int) int {
	if total <= height {
		return 0
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start
}

// renderDiff turns parsed hunks into the styled text shown in the diff
// viewport, with intraline changes emphasized.
func renderDiff(hunks []domain.DiffHunk, width int) string {
	if len(hunks) == 0 {
		return styles.MutedStyle.Render("No changes")
	}

	var b strings.Builder
	for i, hunk := range hunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.DiffHeaderStyle.Render(truncate.String(hunk.Header, uint(max(width, 1)))))
		b.WriteString("\n")
		for _, line := range hunk.Lines {
			b.WriteString(renderDiffLine(line, width))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDiffLine(line domain.DiffLine, width int) string {
	var prefix string
	var base, emph lipgloss.Style
	switch line.Tag {
	case domain.LineAdded:
		prefix, base, emph = "+", styles.DiffAddedStyle, styles.DiffAddedEmphStyle
	case domain.LineRemoved:
		prefix, base, emph = "-", styles.DiffRemovedStyle, styles.DiffRemovedEmphStyle
	default:
		prefix, base = " ", styles.DiffContextStyle
	}

	text := prefix + styleSegments(line.Text, line.Segments, base, emph)
	return truncate.String(text, uint(max(width, 1)))
}

// styleSegments renders text with the given byte ranges emphasized.
func styleSegments(text string, segments []domain.Segment, base, emph lipgloss.Style) string {
	if len(segments) == 0 {
		return base.Render(text)
	}

	var b strings.Builder
	pos := 0
	for _, seg := range segments {
		if seg.Start > len(text) {
			break
		}
		end := min(seg.End, len(text))
		if seg.Start > pos {
			b.WriteString(base.Render(text[pos:seg.Start]))
		}
		b.WriteString(emph.Render(text[seg.Start:end]))
		pos = end
	}
	if pos < len(text) {
		b.WriteString(base.Render(text[pos:]))
	}
	return b.String()
}
