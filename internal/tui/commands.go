package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/tickets/internal/models"
)

const (
	defaultMutationTimeout = 10 * time.Second
	defaultNoticeDuration  = 4 * time.Second
	clockInterval          = 15 * time.Second
)

// createTicket returns a tea.Cmd that inserts a ticket.
func createTicket(mut Mutator, fields models.Fields, seq int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		id, err := mut.CreateTicket(ctx, fields)
		return createdMsg{seq: seq, id: id, err: err}
	}
}

// updateTicket returns a tea.Cmd that overwrites ticket id.
func updateTicket(mut Mutator, id string, fields models.Fields, seq int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := mut.UpdateTicket(ctx, id, fields)
		return updatedMsg{seq: seq, id: id, err: err}
	}
}

// deleteTicket returns a tea.Cmd that removes ticket id.
func deleteTicket(mut Mutator, id string, seq int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := mut.DeleteTicket(ctx, id)
		return deletedMsg{seq: seq, id: id, err: err}
	}
}

// noticeExpiry returns a tea.Cmd that clears notice seq after d.
func noticeExpiry(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// clockTick returns a tea.Cmd that refreshes the sync age display.
func clockTick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}
