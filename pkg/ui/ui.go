// Package ui provides the client identity string and console styling
// shared by the CLI and any package that issues outbound requests.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/websecscan/websecscan/pkg/defaults"
)

// UserAgent returns the standard User-Agent string for WebSecScan requests.
// Every outbound request carries it so targets can identify the scanner.
func UserAgent() string {
	return fmt.Sprintf("websecscan/%s", defaults.Version)
}

// UserAgentWithContext returns a User-Agent with context
// (e.g. "websecscan/X.Y.Z (crawler)").
func UserAgentWithContext(context string) string {
	return fmt.Sprintf("websecscan/%s (%s)", defaults.Version, context)
}

// Console styles for event rendering. Severity colors follow the usual
// traffic-light convention; info stays unstyled dim.
var (
	StyleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	StyleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	StyleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	StyleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	StyleCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true)
	StyleHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	StyleMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	StyleLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("112"))

	StylePhase = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
)
