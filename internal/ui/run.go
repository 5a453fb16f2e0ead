package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/DaanHessen/rabbithole/internal/text"
	"github.com/DaanHessen/rabbithole/internal/util"
)

// Run starts the quest, boots the TUI program and blocks until it exits.
// tracker may be nil.
func Run(ctx context.Context, quest engine.Quest, narrator text.Narrator, tracker Tracker, cfg util.Config) error {
	quest.StartQuest(ctx)
	m := initialModel(ctx, quest, narrator, tracker, engine.SystemClock(), cfg.Theme)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := program.Run()
	if fm, ok := final.(model); ok {
		fm.leave()
	}
	return err
}
