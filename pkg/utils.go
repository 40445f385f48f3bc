package pkg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"golang.org/x/term"
)

// RootMarkers lists the files that identify the project root, in order of preference.
var RootMarkers = []string{"CMakePresets.json", ".git"}

// GetProjectRoot walks upwards from start until it finds a directory containing one of
// the RootMarkers. Markers earlier in the list win over markers later in the list even
// if the latter are closer to start.
func GetProjectRoot(start string) (string, error) {
	start, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to resolve %s", start)
	}

	for _, marker := range RootMarkers {
		mypath := start
		for {
			_, err := os.Stat(filepath.Join(mypath, marker))
			if err == nil {
				return mypath, nil
			}

			if !eris.Is(err, os.ErrNotExist) {
				return "", eris.Wrap(err, "Error ocurred while searching for project root")
			}

			nextPath := filepath.Dir(mypath)
			if mypath == nextPath {
				break
			}
			mypath = nextPath
		}
	}

	return "", eris.Errorf("Project root not found (looked for %v above %s)", RootMarkers, start)
}

// Output is the operator-facing writer used by the Print* helpers.
var Output io.Writer = os.Stdout

var colorizer = colorstring.Colorize{
	Colors: colorstring.DefaultColors,
	Reset:  true,
}

// SetColors enables or disables color codes in operator output.
func SetColors(enabled bool) {
	colorizer.Disable = !enabled
}

// IsTerminal reports whether the given file is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Colorize expands colorstring tags in msg, or strips them when colors are disabled.
func Colorize(msg string) string {
	return colorizer.Color(msg)
}

func PrintTask(msg string) {
	fmt.Fprintln(Output, Colorize("[blue][bold]==>[reset] "+msg))
}

func PrintSubtask(msg string) {
	fmt.Fprintln(Output, Colorize("[green][bold]  ->[reset] "+msg))
}

func PrintError(msg string) {
	fmt.Fprintln(Output, Colorize("[red][bold]  ->[reset] "+msg))
}
