package tui

import (
	"fmt"

	"github.com/mobil-koeln/tickets/internal/models"
)

// mode is the single active UI state.
type mode int

const (
	modeListing mode = iota
	modeCreating
	modeViewing
	modeEditing
	modeFailed
)

func (md mode) String() string {
	switch md {
	case modeListing:
		return "listing"
	case modeCreating:
		return "creating"
	case modeViewing:
		return "viewing"
	case modeEditing:
		return "editing"
	case modeFailed:
		return "failed"
	}
	return fmt.Sprintf("mode(%d)", int(md))
}

// viewKind is the view derived from the current state.
type viewKind int

const (
	viewList viewKind = iota
	viewCreate
	viewDetail
	viewEdit
	viewError
)

const (
	labelAdd    = "Add Ticket"
	labelReturn = "Return to Ticket List"
)

// currentView derives the visible view. Failed wins over everything.
func (m Model) currentView() viewKind {
	switch m.mode {
	case modeFailed:
		return viewError
	case modeEditing:
		return viewEdit
	case modeViewing:
		return viewDetail
	case modeCreating:
		return viewCreate
	}
	return viewList
}

// buttonLabel is the label of the action button, empty when none is shown.
func (m Model) buttonLabel() string {
	switch m.currentView() {
	case viewError:
		return ""
	case viewList:
		return labelAdd
	}
	return labelReturn
}

// selectedTicket resolves the soft selection against the latest snapshot.
func (m Model) selectedTicket() (models.Ticket, bool) {
	if m.selectedID == "" {
		return models.Ticket{}, false
	}
	return m.tickets.Lookup(m.selectedID)
}

// displayedTicket is what the detail and edit views show: the live ticket
// when the selection still resolves, else the copy taken when selected.
func (m Model) displayedTicket() (models.Ticket, bool) {
	if t, ok := m.selectedTicket(); ok {
		return t, true
	}
	return m.selected, false
}

func staleNotice(id string) string {
	return fmt.Sprintf("Ticket %s is no longer available", id)
}
