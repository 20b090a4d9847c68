package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	colorPurple   = color.New(color.FgMagenta)
	colorNeonCyan = color.New(color.FgHiCyan)
	colorNeonMag  = color.New(color.FgHiMagenta)
)

const maxStatusTask = 25

const banner = `
 _            _     __ _
| |_ __ _ ___| | __/ _| | _____      __
| __/ _' / __| |/ / |_| |/ _ \ \ /\ / /
| || (_| \__ \   <|  _| | (_) \ V  V /
 \__\__,_|___/_|\_\_| |_|\___/ \_/\_/

      >> plan . refine . execute <<
`

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			return width
		}
	}
	return 80
}

func PrintBanner(w io.Writer) {
	width := termWidth(w)
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", padding), colorNeonCyan.Sprint(l))
	}
}

// StatusLine renders a one-line health summary: heartbeat age, role, active
// task and uptime.
func StatusLine(s *Status, started time.Time) string {
	role, task, lastHB := s.Get()

	pulse, pulseColor := "OFFLINE", colorNeonMag
	switch delta := time.Since(lastHB); {
	case delta < 40*time.Second:
		pulse, pulseColor = "HEALTHY", colorNeonCyan
	case delta < 90*time.Second:
		pulse, pulseColor = "LAGGING", colorPurple
	}

	if task == "" {
		task = "Waiting..."
	}
	if r := []rune(task); len(r) > maxStatusTask {
		task = string(r[:maxStatusTask-3]) + "..."
	}

	return fmt.Sprintf("[%s] %s | [%-8s] [%s] [%v]",
		lastHB.Format("15:04:05"),
		pulseColor.Sprintf("%-8s", pulse),
		role,
		task,
		time.Since(started).Round(time.Second),
	)
}
