package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/tickets/internal/models"
	"github.com/mobil-koeln/tickets/internal/store"
)

// Update handles all messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		return m.handleSnapshot(msg)

	case mirrorErrMsg:
		return m.handleMirrorError(msg)

	case createdMsg:
		return m.handleCreated(msg)

	case updatedMsg:
		return m.handleUpdated(msg)

	case deletedMsg:
		return m.handleDeleted(msg)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case clockTickMsg:
		return m, clockTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Pass remaining messages (cursor blink) to the form when one is shown
	if m.mode == modeCreating || m.mode == modeEditing {
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd
	}

	return m, nil
}

// handleSnapshot replaces the mirror wholesale. The selection is left as a
// soft reference and re-resolved whenever it is read.
func (m Model) handleSnapshot(msg snapshotMsg) (tea.Model, tea.Cmd) {
	m.tickets = msg.tickets
	m.synced = m.now()
	m.clampCursor()

	if m.feed == nil {
		return m, nil
	}
	return m, listenForFeed(m.feed)
}

// handleMirrorError enters the terminal Failed state. The feed stays
// armed so later snapshots still replace the collection.
func (m Model) handleMirrorError(msg mirrorErrMsg) (tea.Model, tea.Cmd) {
	m.logger.Error().Str("message", msg.message).Msg("ticket mirror failed")
	m.mode = modeFailed
	m.failure = msg.message
	m.pending = false
	m.confirmDelete = false

	if m.feed == nil {
		return m, nil
	}
	return m, listenForFeed(m.feed)
}

// toggleFormOrReturn is the action button. With a selection it returns to
// the list; otherwise it toggles between the list and the create form.
func (m Model) toggleFormOrReturn() (Model, tea.Cmd) {
	if m.mode == modeFailed {
		return m, nil
	}

	if m.selectedID != "" {
		m.clearSelection()
		m.abandon()
		m.mode = modeListing
		return m, nil
	}

	switch m.mode {
	case modeCreating:
		m.abandon()
		m.mode = modeListing
	default:
		m.mode = modeCreating
		m.form = newForm(models.Fields{})
	}
	return m, nil
}

// selectTicket opens ticket id, or takes the stale path if it is gone.
func (m Model) selectTicket(id string) (Model, tea.Cmd) {
	if m.mode == modeFailed {
		return m, nil
	}

	t, ok := m.tickets.Lookup(id)
	if !ok {
		return m.staleSelection(id)
	}

	m.abandon()
	m.mode = modeViewing
	m.selectedID = t.ID
	m.selected = t
	m.confirmDelete = false
	m.detailErr = ""
	if i := m.tickets.IndexOf(id); i >= 0 {
		m.cursor = i
	}
	return m, nil
}

// requestEdit switches from Viewing to Editing with the form prefilled.
func (m Model) requestEdit() (Model, tea.Cmd) {
	if m.mode != modeViewing {
		return m, nil
	}

	t, ok := m.selectedTicket()
	if !ok {
		return m.staleSelection(m.selectedID)
	}

	m.mode = modeEditing
	m.selected = t
	m.confirmDelete = false
	m.detailErr = ""
	m.form = newForm(t.Fields())
	return m, nil
}

// submitCreate validates fields and starts the insert.
func (m Model) submitCreate(fields models.Fields) (Model, tea.Cmd) {
	if m.mode != modeCreating || m.pending {
		return m, nil
	}

	fields = fields.Trimmed()
	if err := fields.Validate(); err != nil {
		m.form.err = err.Error()
		return m, nil
	}

	m.form.err = ""
	m.pending = true
	m.opSeq++
	return m, createTicket(m.mutator, fields, m.opSeq, m.mutationTimeout)
}

// submitEdit validates the edited ticket and starts the update.
func (m Model) submitEdit(t models.Ticket) (Model, tea.Cmd) {
	if m.mode != modeEditing || m.pending {
		return m, nil
	}

	if _, ok := m.tickets.Lookup(t.ID); !ok {
		return m.staleSelection(t.ID)
	}

	fields := t.Fields().Trimmed()
	if err := fields.Validate(); err != nil {
		m.form.err = err.Error()
		return m, nil
	}

	m.form.err = ""
	m.pending = true
	m.opSeq++
	return m, updateTicket(m.mutator, t.ID, fields, m.opSeq, m.mutationTimeout)
}

// confirmDeleteTicket starts the delete of ticket id.
func (m Model) confirmDeleteTicket(id string) (Model, tea.Cmd) {
	if m.mode != modeViewing || m.pending {
		return m, nil
	}

	if _, ok := m.tickets.Lookup(id); !ok {
		return m.staleSelection(id)
	}

	m.confirmDelete = false
	m.detailErr = ""
	m.pending = true
	m.opSeq++
	return m, deleteTicket(m.mutator, id, m.opSeq, m.mutationTimeout)
}

func (m Model) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.opSeq || !m.pending {
		return m.handleAbandoned("create", msg.id, msg.err)
	}
	m.pending = false

	if msg.err != nil {
		m.logger.Warn().Err(msg.err).Msg("create ticket failed")
		m.form.err = "Could not save ticket: " + store.Describe(msg.err)
		return m, nil
	}

	m.logger.Info().Str("ticket_id", msg.id).Msg("ticket created")
	m.mode = modeListing
	m.form = newForm(models.Fields{})
	return m.setNotice("Ticket created")
}

func (m Model) handleUpdated(msg updatedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.opSeq || !m.pending {
		return m.handleAbandoned("update", msg.id, msg.err)
	}
	m.pending = false

	if msg.err != nil {
		if errors.Is(msg.err, store.ErrNotFound) {
			return m.staleSelection(msg.id)
		}
		m.logger.Warn().Err(msg.err).Str("ticket_id", msg.id).Msg("update ticket failed")
		m.form.err = "Could not save ticket: " + store.Describe(msg.err)
		return m, nil
	}

	m.logger.Info().Str("ticket_id", msg.id).Msg("ticket updated")
	m.clearSelection()
	m.mode = modeListing
	return m.setNotice("Ticket updated")
}

func (m Model) handleDeleted(msg deletedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.opSeq || !m.pending {
		return m.handleAbandoned("delete", msg.id, msg.err)
	}
	m.pending = false

	if msg.err != nil {
		if errors.Is(msg.err, store.ErrNotFound) {
			return m.staleSelection(msg.id)
		}
		m.logger.Warn().Err(msg.err).Str("ticket_id", msg.id).Msg("delete ticket failed")
		m.detailErr = "Could not delete ticket: " + store.Describe(msg.err)
		return m, nil
	}

	m.logger.Info().Str("ticket_id", msg.id).Msg("ticket deleted")
	m.clearSelection()
	m.mode = modeListing
	return m.setNotice("Ticket deleted")
}

// handleAbandoned deals with the result of a mutation the user navigated
// away from. Successes need nothing, the mirror shows them. Failures are
// surfaced as a notice so they are not lost.
func (m Model) handleAbandoned(op, id string, err error) (tea.Model, tea.Cmd) {
	if err == nil || m.mode == modeFailed {
		return m, nil
	}
	m.logger.Warn().Err(err).Str("op", op).Str("ticket_id", id).Msg("abandoned mutation failed")
	return m.setNotice("Could not " + op + " ticket: " + store.Describe(err))
}

// staleSelection returns to the list with a notice when the selected
// ticket no longer exists.
func (m Model) staleSelection(id string) (Model, tea.Cmd) {
	m.logger.Debug().Str("ticket_id", id).Msg("selection is stale")
	m.clearSelection()
	m.abandon()
	m.mode = modeListing
	return m.setNotice(staleNotice(id))
}

func (m *Model) clearSelection() {
	m.selectedID = ""
	m.selected = models.Ticket{}
	m.confirmDelete = false
	m.detailErr = ""
}

// abandon drops any in-flight mutation and resets the form.
func (m *Model) abandon() {
	if m.pending {
		m.pending = false
		m.opSeq++
	}
	m.form = newForm(models.Fields{})
}

func (m Model) setNotice(text string) (Model, tea.Cmd) {
	m.notice = text
	m.noticeSeq++
	return m, noticeExpiry(m.noticeSeq, m.noticeDuration)
}

func (m *Model) clampCursor() {
	n := m.tickets.Len()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	switch m.mode {
	case modeFailed:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case modeListing:
		return m.handleListKeys(msg)
	case modeViewing:
		return m.handleDetailKeys(msg)
	case modeCreating, modeEditing:
		return m.handleFormKeys(msg)
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.tickets.Len()
	page := m.listHeight()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Add):
		return m.toggleFormOrReturn()

	case key.Matches(msg, m.keys.Select):
		if n == 0 {
			return m, nil
		}
		return m.selectTicket(m.tickets.At(m.cursor).ID)

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < n-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= page
		m.clampCursor()
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += page
		m.clampCursor()
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		m.cursor = n - 1
		m.clampCursor()
	}
	return m, nil
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.confirmDeleteTicket(m.selectedID)
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Back):
			m.confirmDelete = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		return m.toggleFormOrReturn()
	case key.Matches(msg, m.keys.Edit):
		if m.pending {
			return m, nil
		}
		return m.requestEdit()
	case key.Matches(msg, m.keys.Delete):
		if m.pending {
			return m, nil
		}
		if _, ok := m.selectedTicket(); !ok {
			return m.staleSelection(m.selectedID)
		}
		m.confirmDelete = true
		m.detailErr = ""
	}
	return m, nil
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.toggleFormOrReturn()
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	case msg.Type == tea.KeyEnter:
		if m.form.onLastField() {
			return m.submitForm()
		}
		m.form = m.form.move(1)
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.form = m.form.move(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.form = m.form.move(-1)
		return m, nil
	}

	if m.pending {
		return m, nil
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) submitForm() (Model, tea.Cmd) {
	if m.mode == modeEditing {
		return m.submitEdit(m.selected.WithFields(m.form.fields()))
	}
	return m.submitCreate(m.form.fields())
}
