// pattern: Functional Core

package tui

import (
	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"

	"gwa/internal/config"
	"gwa/internal/events"
)

type Styles struct {
	flavor catppuccin.Flavor
}

func NewStyles(themeName string) *Styles {
	flavor := flavorFromName(themeName)
	return &Styles{flavor: flavor}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	default:
		return catppuccin.Mocha
	}
}

func (s *Styles) color(c catppuccin.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex)
}

func (s *Styles) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Mauve()))
}

func (s *Styles) SubtitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Subtext0()))
}

func (s *Styles) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Overlay0()))
}

func (s *Styles) BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.color(s.flavor.Surface1())).
		Padding(1, 2)
}

func (s *Styles) DangerBoxStyle() lipgloss.Style {
	return s.BoxStyle().BorderForeground(s.color(s.flavor.Red()))
}

func (s *Styles) InfoStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Text()))
}

func (s *Styles) MutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Overlay1()))
}

func (s *Styles) AccentStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Teal()))
}

func (s *Styles) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Red())).
		Bold(true)
}

func (s *Styles) WarnStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Peach()))
}

func (s *Styles) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Green()))
}

func (s *Styles) InfoStatusStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Subtext1()))
}

func (s *Styles) SelectedRowStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Text())).
		Background(s.color(s.flavor.Surface0()))
}

func (s *Styles) PanelHeaderFocusedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(s.color(s.flavor.Base())).
		Background(s.color(s.flavor.Mauve()))
}

func (s *Styles) PanelHeaderUnfocusedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Subtext0())).
		Background(s.color(s.flavor.Surface0()))
}

func (s *Styles) SeparatorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Surface1()))
}

func (s *Styles) LogTimestampStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Overlay0()))
}

func (s *Styles) LogSourceStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.color(s.flavor.Lavender()))
}

// StreamStyle colors a log line by where it came from.
func (s *Styles) StreamStyle(stream events.Stream) lipgloss.Style {
	switch stream {
	case events.Stderr:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Maroon()))
	case events.System:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Sky())).Italic(true)
	default:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Text()))
	}
}

// ClassificationStyle colors the badge of a branch row.
func (s *Styles) ClassificationStyle(kind events.ClassificationKind) lipgloss.Style {
	switch kind {
	case events.Tracked:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Green()))
	case events.Untracked:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Overlay1()))
	case events.Ignored:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Surface2()))
	case events.AlreadyWorktree:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Blue()))
	default:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Yellow()))
	}
}

// HookStyle colors a worktree's hook state.
func (s *Styles) HookStyle(state config.HookState) lipgloss.Style {
	switch state {
	case config.HookSucceeded:
		return s.SuccessStyle()
	case config.HookFailed:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Red()))
	case config.HookRunning:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Peach()))
	case config.HookInterrupted:
		return lipgloss.NewStyle().Foreground(s.color(s.flavor.Maroon()))
	default:
		return s.MutedStyle()
	}
}

// SpinnerStyle is applied to the status spinner.
func (s *Styles) SpinnerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.color(s.flavor.Mauve()))
}
