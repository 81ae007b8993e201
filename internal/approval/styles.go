package approval

import "github.com/charmbracelet/lipgloss"

var (
	textPrimaryColor   = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"}
	textMutedColor     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#696969"}
	borderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	borderFocusColor   = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#54A0FF"}
	statusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	titleColor         = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#C9C9C9"}

	buttonTextColor           = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	buttonPrimaryBgColor      = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	buttonPrimaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	buttonDangerBgColor       = lipgloss.AdaptiveColor{Light: "#922B21", Dark: "#922B21"}
	buttonDangerFocusBgColor  = lipgloss.AdaptiveColor{Light: "#E74C3C", Dark: "#E74C3C"}

	baseButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)

	proceedButtonStyle = baseButtonStyle.
				Foreground(buttonTextColor).
				Background(buttonPrimaryBgColor)

	proceedButtonFocusedStyle = baseButtonStyle.
					Foreground(buttonTextColor).
					Background(buttonPrimaryFocusBgColor).
					Underline(true).
					UnderlineSpaces(true)

	abortButtonStyle = baseButtonStyle.
				Foreground(buttonTextColor).
				Background(buttonDangerBgColor)

	abortButtonFocusedStyle = baseButtonStyle.
				Foreground(buttonTextColor).
				Background(buttonDangerFocusBgColor).
				Underline(true).
				UnderlineSpaces(true)

	labelStyle   = lipgloss.NewStyle().Foreground(textMutedColor).Width(11)
	valueStyle   = lipgloss.NewStyle().Foreground(textPrimaryColor)
	errorStyle   = lipgloss.NewStyle().Foreground(statusErrorColor)
	hintStyle    = lipgloss.NewStyle().Foreground(textMutedColor)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(titleColor).PaddingLeft(1)
	dividerStyle = lipgloss.NewStyle().Foreground(borderDefaultColor)
)
