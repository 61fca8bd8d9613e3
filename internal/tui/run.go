package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/tickets/internal/mirror"
)

// Run mirrors the collection behind mir and runs the TUI until the user
// quits or ctx is cancelled. The subscription is released on every exit
// path.
func Run(ctx context.Context, mir *mirror.Mirror, opts ...Option) error {
	return run(ctx, mir, []tea.ProgramOption{tea.WithAltScreen()}, opts...)
}

func run(ctx context.Context, mir *mirror.Mirror, progOpts []tea.ProgramOption, opts ...Option) error {
	feed := NewFeed()
	handle := mir.Start(feed.OnUpdate, feed.OnError)
	defer func() {
		handle.Stop()
		feed.Close()
	}()

	model := New(mir, append(opts, WithFeed(feed))...)
	p := tea.NewProgram(model, append(progOpts, tea.WithContext(ctx))...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
