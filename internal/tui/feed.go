package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/tickets/internal/models"
)

// Feed hands mirror callbacks, which run on store goroutines, to the
// Bubble Tea loop. It holds at most one undelivered message; a newer
// snapshot replaces an older one since every snapshot is a full replace.
type Feed struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{
		ch:   make(chan tea.Msg, 1),
		done: make(chan struct{}),
	}
}

// OnUpdate is the mirror's update callback.
func (f *Feed) OnUpdate(tickets models.Collection) {
	f.put(snapshotMsg{tickets: tickets})
}

// OnError is the mirror's error callback.
func (f *Feed) OnError(message string) {
	f.put(mirrorErrMsg{message: message})
}

// Close releases any listener blocked on the feed.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.done) })
}

func (f *Feed) put(msg tea.Msg) {
	for {
		select {
		case f.ch <- msg:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// listenForFeed returns a tea.Cmd that blocks until the mirror delivers
// something. It is re-armed after every snapshot.
func listenForFeed(f *Feed) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-f.ch:
			return msg
		case <-f.done:
			return nil
		}
	}
}
