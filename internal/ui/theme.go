package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

type palette struct {
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Accent    lipgloss.Color
	AccentAlt lipgloss.Color
	Border    lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Glitch    lipgloss.Color
}

const defaultTheme = "matrix"

var palettes = map[string]palette{
	"matrix": {
		Text:      lipgloss.Color("#00ff41"),
		Muted:     lipgloss.Color("#008f11"),
		Accent:    lipgloss.Color("#00ff41"),
		AccentAlt: lipgloss.Color("#ffffff"),
		Border:    lipgloss.Color("#003b00"),
		Success:   lipgloss.Color("#00ff41"),
		Warning:   lipgloss.Color("#ff0040"),
		Glitch:    lipgloss.Color("#ff00ff"),
	},
	"red_pill": {
		Text:      lipgloss.Color("#f8f8f2"),
		Muted:     lipgloss.Color("#a0a0a0"),
		Accent:    lipgloss.Color("#ff3b3b"),
		AccentAlt: lipgloss.Color("#ffb86c"),
		Border:    lipgloss.Color("#5c1a1a"),
		Success:   lipgloss.Color("#50fa7b"),
		Warning:   lipgloss.Color("#ff5555"),
		Glitch:    lipgloss.Color("#ff00ff"),
	},
	"blue_pill": {
		Text:      lipgloss.Color("#e0f2ff"),
		Muted:     lipgloss.Color("#7aa2c8"),
		Accent:    lipgloss.Color("#3b82f6"),
		AccentAlt: lipgloss.Color("#93c5fd"),
		Border:    lipgloss.Color("#1e3a5f"),
		Success:   lipgloss.Color("#34d399"),
		Warning:   lipgloss.Color("#fbbf24"),
		Glitch:    lipgloss.Color("#f472b6"),
	},
	"catppuccin": {
		Text:      lipgloss.Color("#cdd6f4"),
		Muted:     lipgloss.Color("#a6adc8"),
		Accent:    lipgloss.Color("#cba6f7"),
		AccentAlt: lipgloss.Color("#f38ba8"),
		Border:    lipgloss.Color("#585b70"),
		Success:   lipgloss.Color("#94e2d5"),
		Warning:   lipgloss.Color("#f9e2af"),
		Glitch:    lipgloss.Color("#f5c2e7"),
	},
}

func paletteFor(name string) palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes[defaultTheme]
}

func themeNames() []string {
	names := make([]string, 0, len(palettes))
	for k := range palettes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func nextThemeName(current string, step int) string {
	names := themeNames()
	if len(names) == 0 {
		return current
	}
	idx := 0
	for i, name := range names {
		if name == current {
			idx = i
			break
		}
	}
	idx = (idx + step) % len(names)
	if idx < 0 {
		idx += len(names)
	}
	return names[idx]
}

type styles struct {
	title   lipgloss.Style
	text    lipgloss.Style
	muted   lipgloss.Style
	option  lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	glitch  lipgloss.Style
	sidebar lipgloss.Style
}

func newStyles(p palette) styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		text:    lipgloss.NewStyle().Foreground(p.Text),
		muted:   lipgloss.NewStyle().Foreground(p.Muted),
		option:  lipgloss.NewStyle().Foreground(p.AccentAlt),
		good:    lipgloss.NewStyle().Foreground(p.Success),
		bad:     lipgloss.NewStyle().Foreground(p.Warning),
		glitch:  lipgloss.NewStyle().Bold(true).Foreground(p.Glitch),
		sidebar: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(p.Border).Padding(0, 1),
	}
}
