// ABOUTME: Terminal styles for CLI output
// ABOUTME: Shared lipgloss styles for headers, statuses, and hints
package cli

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(14)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	busyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// statusLabel renders a sync status the way the status command shows it.
func statusLabel(status string) string {
	switch status {
	case "syncing":
		return busyStyle.Render("⟳ Syncing")
	case "error":
		return errorStyle.Render("✗ Error")
	case "idle":
		return okStyle.Render("✓ Idle")
	}
	return hintStyle.Render("Not synced yet")
}
