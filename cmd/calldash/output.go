package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kalambet/calldash/internal/discovery"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printStep(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorCyan, "→ "+msg))
}

// stageColor follows the dashboard's badge variants.
func stageColor(stage string) string {
	switch discovery.StageVariant(stage) {
	case "secondary":
		return colorCyan
	case "destructive":
		return colorRed
	}
	return colorGreen
}

func writeCallLine(w io.Writer, c discovery.Call) {
	stage := c.Stage
	if stage == "" {
		stage = "-"
	}
	fmt.Fprintf(w, "%s  %s  %-24s %s\n",
		colorize(colorCyan, c.ID.String()),
		c.CreatedAt.Date(),
		colorize(stageColor(c.Stage), stage),
		discovery.Excerpt(c.CallSummary, 80),
	)
}
