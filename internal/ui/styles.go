package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors, assigned by initializeColors based on the terminal
// background
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	// Semantic colors
	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color
	ColorInfo    lipgloss.Color

	// Neutral colors
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorTextDim   lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorSurface   lipgloss.Color
)

// Component styles, built by initializeColors once the palette is known.
// Building them at package init would freeze the zero-value colors in.
var (
	StyleTitle lipgloss.Style

	StyleText      lipgloss.Style
	StyleTextMuted lipgloss.Style
	StyleTextDim   lipgloss.Style

	StyleFocused    lipgloss.Style
	StyleSelected   lipgloss.Style
	StyleUnselected lipgloss.Style

	StyleSuccess lipgloss.Style
	StyleWarning lipgloss.Style
	StyleError   lipgloss.Style
	StyleInfo    lipgloss.Style

	StyleContentContainer lipgloss.Style

	StyleFormLabel lipgloss.Style
	StyleFormHelp  lipgloss.Style

	StyleLoading  lipgloss.Style
	StyleMetadata lipgloss.Style

	StyleScrollIndicator       lipgloss.Style
	StyleScrollIndicatorActive lipgloss.Style
)

// initializeColors sets up adaptive colors based on terminal background
func initializeColors() {
	// Check for environment variable override
	switch os.Getenv("GLAMOUR_STYLE") {
	case "light":
		setLightThemeColors()
	case "dark":
		setDarkThemeColors()
	default:
		// Auto-detect based on terminal background
		if lipgloss.HasDarkBackground() {
			setDarkThemeColors()
		} else {
			setLightThemeColors()
		}
	}

	buildStyles()
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")  // Bright magenta/pink
	ColorSecondary = lipgloss.Color("33") // Bright cyan/blue
	ColorAccent = lipgloss.Color("214")   // Bright orange/yellow

	ColorSuccess = lipgloss.Color("10") // Bright green
	ColorWarning = lipgloss.Color("11") // Bright yellow
	ColorError = lipgloss.Color("9")    // Bright red
	ColorInfo = lipgloss.Color("12")    // Bright blue

	// High contrast against dark backgrounds
	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorTextDim = lipgloss.Color("240")
	ColorBorder = lipgloss.Color("238")
	ColorSurface = lipgloss.Color("236")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")  // Darker magenta for contrast
	ColorSecondary = lipgloss.Color("24") // Darker cyan
	ColorAccent = lipgloss.Color("130")   // Darker orange

	ColorSuccess = lipgloss.Color("22")
	ColorWarning = lipgloss.Color("136")
	ColorError = lipgloss.Color("160")
	ColorInfo = lipgloss.Color("24")

	// High contrast against light backgrounds
	ColorText = lipgloss.Color("232")
	ColorTextMuted = lipgloss.Color("240")
	ColorTextDim = lipgloss.Color("244")
	ColorBorder = lipgloss.Color("248")
	ColorSurface = lipgloss.Color("254")
}

func buildStyles() {
	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1)

	StyleText = lipgloss.NewStyle().
		Foreground(ColorText)

	StyleTextMuted = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	StyleTextDim = lipgloss.NewStyle().
		Foreground(ColorTextDim)

	StyleFocused = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")). // Pure white
		Background(ColorSecondary).
		Bold(true).
		Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Background(ColorAccent).
		Bold(true).
		Padding(0, 1)

	StyleUnselected = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Padding(0, 1)

	StyleSuccess = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true).
		Padding(0, 1)

	StyleWarning = lipgloss.NewStyle().
		Foreground(ColorWarning).
		Bold(true).
		Padding(0, 1)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true).
		Padding(0, 1)

	StyleInfo = lipgloss.NewStyle().
		Foreground(ColorInfo).
		Bold(true).
		Padding(0, 1)

	// Content container for asset previews
	StyleContentContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(1, 2).
		Background(ColorSurface).
		MarginTop(1).
		MarginBottom(1)

	StyleFormLabel = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true).
		MarginBottom(0)

	StyleFormHelp = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Italic(true).
		Padding(0, 3)

	StyleLoading = lipgloss.NewStyle().
		Foreground(ColorInfo).
		Italic(true).
		Padding(0, 1)

	StyleMetadata = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Padding(0, 1)

	StyleScrollIndicator = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Align(lipgloss.Center)

	StyleScrollIndicatorActive = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true).
		Align(lipgloss.Center)
}

// Create header for main page (no back button)
func CreateMainHeader(titleText string) string {
	return StyleTitle.Render(titleText)
}

// Create header for subpages (title only, back handled via keybind)
func CreateSubPageHeader(titleText string) string {
	return StyleTitle.Render(titleText)
}

func CreateMetadata(text string) string {
	return StyleMetadata.Render(text)
}

// Context-aware help creation with proper row display and smart truncation
func CreateContextualHelp(essential []string, additional []string, showExpanded bool, width int) string {
	var lines []string

	// First row: essential keybinds + Ctrl+g hint if there are additional keys
	firstRowParts := essential
	if len(additional) > 0 && !showExpanded {
		firstRowParts = append(firstRowParts, "Ctrl+g for more")
	}

	essentialText := strings.Join(firstRowParts, " • ")
	if width > 0 && len(essentialText) > width-4 {
		essentialText = essentialText[:width-7] + "..."
	}
	lines = append(lines, essentialText)

	if showExpanded && len(additional) > 0 {
		// Additional rows: each string becomes a separate row
		for _, additionalRow := range additional {
			if width > 0 && len(additionalRow) > width-4 {
				additionalRow = additionalRow[:width-7] + "..."
			}
			lines = append(lines, additionalRow)
		}
	}

	allText := strings.Join(lines, "\n")
	return StyleTextDim.Render(allText)
}

// Guaranteed help text that ensures visibility regardless of terminal size
func CreateGuaranteedHelp(helpText string, width int) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Width(width).
		Align(lipgloss.Left).
		Padding(0, 1)

	// Truncate help text if it's too long for the terminal width
	if width > 0 && len(helpText) > width-2 {
		helpText = helpText[:width-5] + "..."
	}

	return helpStyle.Render(helpText)
}

func CreateStatus(text string, statusType string) string {
	switch statusType {
	case "success":
		return StyleSuccess.Render(text)
	case "warning":
		return StyleWarning.Render(text)
	case "error":
		return StyleError.Render(text)
	case "info":
		return StyleInfo.Render(text)
	default:
		return StyleText.Render(text)
	}
}

// Option rendering with consistent styling
func CreateOption(label, description string, isSelected bool) []string {
	var style lipgloss.Style
	var prefix string

	if isSelected {
		style = StyleFocused
		prefix = "▶ "
	} else {
		style = StyleUnselected
		prefix = "  " // Two spaces to maintain alignment
	}

	lines := []string{style.Render(prefix + label)}

	if description != "" {
		descStyle := lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Italic(true).
			Padding(0, 3)
		lines = append(lines, descStyle.Render(description))
	}

	lines = append(lines, "") // Add spacing
	return lines
}

// Git status styling
func CreateGitStatus(status string) string {
	return StyleMetadata.Render("Git: " + status)
}

// Modal centering helper
func CenterModal(content string, width, height int) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// Add consistent padding to main content (left only, no top padding)
func AddMainPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(content)
}

// Add consistent padding to form content (left only, no top padding)
func AddFormPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(3).Render(content)
}

// Create scroll indicators based on scroll state
func CreateScrollIndicators(canScrollUp, canScrollDown bool, width int) (string, string) {
	var topIndicator string
	if canScrollUp {
		topIndicator = StyleScrollIndicatorActive.Render("...")
	} else {
		topIndicator = StyleScrollIndicator.Render("─────────")
	}

	var bottomIndicator string
	if canScrollDown {
		bottomIndicator = StyleScrollIndicatorActive.Render("...")
	} else {
		bottomIndicator = StyleScrollIndicator.Render("─────────")
	}

	return topIndicator, bottomIndicator
}
