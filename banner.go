package gantry

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// printBanner writes the startup banner. Colors are used only on a TTY.
func (a *app) printBanner() {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)
	value := color.New(color.FgWhite)
	accent := color.New(color.FgGreen)

	if !isTTY {
		title.DisableColor()
		label.DisableColor()
		value.DisableColor()
		accent.DisableColor()
	}

	fmt.Println()
	title.Printf("  %s", a.config.Name)

	if a.config.Version != "" {
		label.Printf(" v%s", a.config.Version)
	}

	fmt.Println()

	if a.config.Description != "" {
		label.Printf("  %s\n", a.config.Description)
	}

	fmt.Println()

	printBannerLine(label, value, "environment", a.config.Environment)
	printBannerLine(label, accent, "listening", a.config.HTTPAddress)
	printBannerLine(label, value, "modules", fmt.Sprintf("%d", len(a.loader.Loaded())))
	printBannerLine(label, value, "routes", fmt.Sprintf("%d", len(a.router.Routes())))
	printBannerLine(label, value, "health", "/_/health")

	if a.metrics != nil {
		printBannerLine(label, value, "metrics", "/_/metrics")
	}

	fmt.Println()
}

func printBannerLine(label, value *color.Color, key, val string) {
	label.Printf("  %-12s", key)
	value.Printf("%s\n", val)
}
