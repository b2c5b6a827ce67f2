package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the oidtree ASCII banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Indigo to rose, one shade per line.
	lines := []struct{ text, color string }{
		{`        _     _ _`, "#818cf8"},
		{`   ___ (_) __| | |_ _ __ ___  ___`, "#a78bfa"},
		{`  / _ \| |/ _` + "`" + ` | __| '__/ _ \/ _ \`, "#c084fc"},
		{` | (_) | | (_| | |_| | |  __/  __/`, "#e879f9"},
		{`  \___/|_|\__,_|\__|_|  \___|\___|`, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Foreground(p.Color("#fb7185")).Faint())
	}
	fmt.Fprintln(w)
}
