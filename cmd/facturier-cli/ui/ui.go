// Package ui provides terminal output helpers for the facturier CLI.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var verboseFlag bool

// InitUI applies the persistent color and verbosity flags. fatih/color
// consults its package-level NoColor switch, so one assignment here
// covers every helper below.
func InitUI(noColor, verbose bool) {
	verboseFlag = verbose
	if noColor {
		color.NoColor = true
	}
}

// Close stops any spinner still running so error paths leave a clean line.
func Close() {
	stopActiveSpinner()
}

// Success prints a green check-marked message.
func Success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(os.Stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(os.Stdout, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func Info(format string, args ...any) {
	color.New(color.FgCyan).Fprintf(os.Stdout, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Verbose prints an indented message only when verbose output is enabled.
func Verbose(format string, args ...any) {
	if !verboseFlag {
		return
	}
	fmt.Fprintf(os.Stdout, "  %s\n", fmt.Sprintf(format, args...))
}

// KeyValue prints an indented key-value pair.
func KeyValue(key string, value any) {
	color.New(color.FgYellow).Fprintf(os.Stdout, "  %s: ", key)
	fmt.Fprintf(os.Stdout, "%v\n", value)
}

// Section prints a titled section header.
func Section(title string) {
	fmt.Fprintln(os.Stdout)
	color.New(color.FgCyan, color.Bold).Fprintln(os.Stdout, title)
	fmt.Fprintln(os.Stdout, strings.Repeat("=", len(title)))
	fmt.Fprintln(os.Stdout)
}

// Newline prints a newline.
func Newline() {
	fmt.Fprintln(os.Stdout)
}
