// Package tui implements the full-screen ticket tracker: a view-state
// controller over a live mirror of the ticket collection.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/mobil-koeln/tickets/internal/models"
)

// Mutator performs remote ticket mutations. *mirror.Mirror implements it.
type Mutator interface {
	CreateTicket(ctx context.Context, fields models.Fields) (string, error)
	UpdateTicket(ctx context.Context, id string, fields models.Fields) error
	DeleteTicket(ctx context.Context, id string) error
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	mutator Mutator
	feed    *Feed
	keys    KeyMap
	logger  zerolog.Logger
	now     func() time.Time

	mutationTimeout time.Duration
	noticeDuration  time.Duration

	width  int
	height int

	// Mirror of the remote collection, replaced on every snapshot.
	tickets models.Collection
	synced  time.Time
	cursor  int

	mode       mode
	selectedID string
	// selected is the ticket as it was when selected, shown if the
	// selection goes stale.
	selected models.Ticket
	failure  string

	form          form
	pending       bool
	opSeq         int
	confirmDelete bool
	detailErr     string

	notice    string
	noticeSeq int
}

// Option configures a Model.
type Option func(*Model)

// WithKeyMap replaces the default key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// WithLogger sets the logger for controller events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithMutationTimeout bounds each create, update and delete call.
func WithMutationTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.mutationTimeout = d
		}
	}
}

// WithNoticeDuration sets how long transient notices stay visible.
func WithNoticeDuration(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.noticeDuration = d
		}
	}
}

// WithFeed connects the model to mirror notifications.
func WithFeed(feed *Feed) Option {
	return func(m *Model) { m.feed = feed }
}

// New creates a new TUI model in the Listing state with an empty collection.
func New(mutator Mutator, opts ...Option) Model {
	m := Model{
		mutator:         mutator,
		keys:            DefaultKeyMap,
		logger:          zerolog.Nop(),
		now:             time.Now,
		mutationTimeout: defaultMutationTimeout,
		noticeDuration:  defaultNoticeDuration,
		mode:            modeListing,
		form:            newForm(models.Fields{}),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts listening for mirror notifications.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, clockTick()}
	if m.feed != nil {
		cmds = append(cmds, listenForFeed(m.feed))
	}
	return tea.Batch(cmds...)
}
