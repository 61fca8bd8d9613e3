package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mobil-koeln/tickets/internal/models"
)

// View renders the entire TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Layout: header + panel + notice + status bar
	header := m.renderHeader()
	notice := m.renderNotice()
	statusBar := m.renderStatusBar()

	panelHeight := m.height - lipgloss.Height(header) - lipgloss.Height(notice) - lipgloss.Height(statusBar)
	if panelHeight < 5 {
		panelHeight = 5
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}

	var body string
	switch m.currentView() {
	case viewError:
		body = m.renderError(width - 2)
	case viewEdit:
		body = m.renderForm("EDIT TICKET")
	case viewDetail:
		body = m.renderDetail(width - 2)
	case viewCreate:
		body = m.renderForm("NEW TICKET")
	default:
		body = m.renderList(width-2, panelHeight-2)
	}

	border := stylePanelNormal
	if m.mode == modeFailed {
		border = stylePanelError
	}
	panel := border.Width(width).Height(panelHeight - 2).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, panel, notice, statusBar)
}

// renderHeader renders the title and the action button.
func (m Model) renderHeader() string {
	title := styleTitle.Render(" Tickets")

	label := m.buttonLabel()
	if label == "" {
		return title
	}

	binding := m.keys.Back
	if label == labelAdd {
		binding = m.keys.Add
	}
	button := styleButton.Render(fmt.Sprintf("[%s] %s", binding.Help().Key, label))

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(button) - 1
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + button
}

// renderList renders the ticket list with the cursor kept in view.
func (m Model) renderList(width, height int) string {
	title := styleHeader.Render(fmt.Sprintf("TICKETS (%d)", m.tickets.Len()))

	if m.synced.IsZero() {
		return title + "\n" + styleLoading.Render(" Connecting...")
	}
	if m.tickets.Len() == 0 {
		return title + "\n" + styleMuted.Render(fmt.Sprintf(" No tickets yet. Press %s to add one.", m.keys.Add.Help().Key))
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	maxVisible := height - 1
	if maxVisible < 1 {
		maxVisible = 1
	}
	start, end := visibleRange(m.cursor, m.tickets.Len(), maxVisible)

	for i := start; i < end; i++ {
		b.WriteString(renderTicketLine(m.tickets.At(i), width, i == m.cursor))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderTicketLine renders one list entry in three columns.
func renderTicketLine(t models.Ticket, width int, selected bool) string {
	avail := width - 3 // cursor indicator + column gaps
	namesWidth := avail * 30 / 100
	locationWidth := avail * 25 / 100
	issueWidth := avail - namesWidth - locationWidth

	entry := fmt.Sprintf("%s %s %s",
		styleNames.Render(padRight(truncate(t.Names, namesWidth), namesWidth)),
		styleLocation.Render(padRight(truncate(t.Location, locationWidth), locationWidth)),
		truncate(t.Issue, issueWidth),
	)

	if selected {
		return styleSelected.Render(">") + entry
	}
	return " " + entry
}

// renderDetail renders the selected ticket.
func (m Model) renderDetail(width int) string {
	t, live := m.displayedTicket()

	var b strings.Builder
	b.WriteString(styleHeader.Render("TICKET " + truncate(t.ID, width-8)))
	b.WriteString("\n\n")
	b.WriteString(detailRow("Names", t.Names, width))
	b.WriteString(detailRow("Location", t.Location, width))
	b.WriteString(detailRow("Issue", t.Issue, width))
	b.WriteString("\n")

	switch {
	case !live:
		b.WriteString(styleMuted.Render(" " + staleNotice(t.ID)))
	case m.pending:
		b.WriteString(styleLoading.Render(" Deleting..."))
	case m.confirmDelete:
		b.WriteString(styleWarning.Render(fmt.Sprintf(" Delete this ticket? %s/%s",
			m.keys.Confirm.Help().Key, m.keys.Cancel.Help().Key)))
	case m.detailErr != "":
		b.WriteString(styleError.Render(" " + m.detailErr))
	}
	return b.String()
}

func detailRow(label, value string, width int) string {
	return " " + styleLabel.Render(padRight(label+":", 10)) + truncate(value, width-11) + "\n"
}

// renderForm renders the create or edit form.
func (m Model) renderForm(title string) string {
	if m.mode == modeEditing {
		title += " " + m.selected.ID
	}
	return styleHeader.Render(title) + "\n\n" + m.form.view(m.pending)
}

// renderError renders the terminal sync failure.
func (m Model) renderError(width int) string {
	var b strings.Builder
	b.WriteString(styleError.Bold(true).Render("SYNC FAILED"))
	b.WriteString("\n\n")
	b.WriteString(" " + truncate(m.failure, width-1))
	b.WriteString("\n\n")
	b.WriteString(styleMuted.Render(" The ticket list can no longer be kept up to date. Restart to reconnect."))
	return b.String()
}

// renderNotice renders the transient notice line.
func (m Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	return styleNotice.Render(" " + m.notice)
}

// renderStatusBar renders context-aware keyboard hints and sync state.
func (m Model) renderStatusBar() string {
	k := m.keys
	var help string
	switch m.currentView() {
	case viewError:
		help = hints(k.Quit, k.ForceQuit)
	case viewEdit, viewCreate:
		help = hints(k.NextField, k.Submit, k.Back)
	case viewDetail:
		if m.confirmDelete {
			help = hints(k.Confirm, k.Cancel)
		} else {
			help = hints(k.Edit, k.Delete, k.Back, k.Quit)
		}
	default:
		help = hints(k.Up, k.Down, k.Select, k.Add, k.Quit)
	}

	sync := "connecting"
	if !m.synced.IsZero() {
		sync = "synced " + humanize.RelTime(m.synced, m.now(), "ago", "from now")
	}
	if m.mode == modeFailed {
		sync = "offline"
	}

	right := fmt.Sprintf("%d tickets  %s ", m.tickets.Len(), sync)
	gap := m.width - lipgloss.Width(help) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return styleStatusBar.Width(m.width).Render(" " + help + strings.Repeat(" ", gap) + right)
}

// listHeight is the number of list rows visible in the current layout.
func (m Model) listHeight() int {
	h := m.height - 6
	if h < 1 {
		h = 1
	}
	return h
}

// visibleRange calculates the start and end indices for a scrollable list.
func visibleRange(cursor, total, maxVisible int) (int, int) {
	if total <= maxVisible {
		return 0, total
	}

	start := cursor - maxVisible/2
	if start < 0 {
		start = 0
	}
	end := start + maxVisible
	if end > total {
		end = total
		start = end - maxVisible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

// truncate truncates a string to the given display width.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "~"
}
