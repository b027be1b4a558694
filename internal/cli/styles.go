// Package cli renders analysis and forecast reports for the terminal using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color (spicy red).
	PrimaryColor = lipgloss.Color("#FF6B6B")
	// SuccessColor marks completed work and high confidence.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor marks skipped records and medium confidence.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor marks failures and low confidence.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor marks informational text.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor marks secondary text.
	SubtleColor = lipgloss.Color("#666666")
	// BorderColor is used for boxes and table rules.
	BorderColor = lipgloss.Color("#333")

	// TitleStyle is used for report titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered report sections.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(BorderColor)

	// TableCellStyle pads table cells.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)

	// HolidayStyle highlights forecast days inside a holiday window.
	HolidayStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Italic(true)
)

// Icons.
const (
	SuccessIcon  = "✓"
	ErrorIcon    = "✗"
	WarningIcon  = "⚠️"
	InfoIcon     = "ℹ️"
	SpiceIcon    = "🌶️"
	ChartIcon    = "📊"
	CalendarIcon = "📅"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the spice icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(SpiceIcon + " " + title)
}

// RenderBox renders content in a titled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}

// ConfidenceStyle picks a color for a confidence score in [0,1].
func ConfidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.75:
		return SuccessStyle
	case confidence >= 0.5:
		return WarningStyle
	default:
		return ErrorStyle
	}
}
