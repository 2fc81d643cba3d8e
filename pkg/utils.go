package pkg

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// FindProjectRoot walks up from start until it finds a directory containing marker. If no parent has it,
// start is returned.
func FindProjectRoot(start, marker string) (string, error) {
	start, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "failed to resolve %s", start)
	}

	path := start
	for {
		_, err := os.Stat(filepath.Join(path, marker))
		if err == nil {
			return path, nil
		}

		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrap(err, "error occurred while searching for project root")
		}

		parent := filepath.Dir(path)
		if parent == path {
			return start, nil
		}
		path = parent
	}
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}

func PrintError(msg string) {
	colorstring.Fprintf(os.Stderr, "[red][bold]  ->[reset] %s\n", msg)
}
