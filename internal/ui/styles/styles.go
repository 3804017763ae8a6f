// Package styles contains Lip Gloss style definitions.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Core palette. Adaptive pairs pick the variant matching the terminal
// background unless a theme mode is forced.
var (
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "235", Dark: "252"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "245", Dark: "241"}
	AccentColor        = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	ErrorColor         = lipgloss.AdaptiveColor{Light: "124", Dark: "203"}
	WarningColor       = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
	SelectionBgColor   = lipgloss.AdaptiveColor{Light: "254", Dark: "237"}
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
	BorderFocusedColor = AccentColor

	DiffAddedColor     = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	DiffRemovedColor   = lipgloss.AdaptiveColor{Light: "124", Dark: "196"}
	DiffAddedBgColor   = lipgloss.AdaptiveColor{Light: "194", Dark: "22"}
	DiffRemovedBgColor = lipgloss.AdaptiveColor{Light: "224", Dark: "52"}
)

// Reusable presets.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextPrimaryColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	SelectedRowStyle = lipgloss.NewStyle().
				Background(SelectionBgColor).
				Bold(true)

	MarkerStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	TabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor).
			Underline(true)

	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(TextMutedColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextPrimaryColor)

	BannerErrorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ErrorColor)

	BannerInfoStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	PromptStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	HintStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor).
			Italic(true)

	DiffHeaderStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	DiffAddedStyle   = lipgloss.NewStyle().Foreground(DiffAddedColor)
	DiffRemovedStyle = lipgloss.NewStyle().Foreground(DiffRemovedColor)
	DiffContextStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	DiffAddedEmphStyle = lipgloss.NewStyle().
				Foreground(DiffAddedColor).
				Background(DiffAddedBgColor)

	DiffRemovedEmphStyle = lipgloss.NewStyle().
				Foreground(DiffRemovedColor).
				Background(DiffRemovedBgColor)
)

// ApplyThemeMode forces light or dark variants of the adaptive palette.
// An empty mode keeps terminal detection. NO_COLOR strips color entirely.
func ApplyThemeMode(mode string) {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	switch mode {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}
}
