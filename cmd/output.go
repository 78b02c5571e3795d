package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/etnz/performance/renderer"
)

// printMarkdown prints md rendered for the terminal, or raw when it cannot be rendered.
func printMarkdown(md string) {
	out, err := renderer.Terminal(md, terminalWidth())
	if err != nil {
		out = md
	}
	fmt.Print(out)
}

// terminalWidth reads $COLUMNS, 100 when unset.
func terminalWidth() int {
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 20 {
		return w
	}
	return 100
}
