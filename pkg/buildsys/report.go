package buildsys

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

func sizeLabel(size int64) string {
	return fmt.Sprintf("%d bytes, %s", size, humanize.Bytes(uint64(size)))
}

// Report prints the produced artifacts and their sizes. Paths are shown relative to root.
func Report(w io.Writer, root string, result *Result) error {
	if result.Skipped {
		_, err := fmt.Fprintln(w, "Up to date, nothing to build.")
		return err
	}

	_, err := fmt.Fprintf(w, "Built: %s (%s)\n", displayPath(root, result.HTML.Path), sizeLabel(result.HTML.Size))
	if err != nil {
		return err
	}

	for _, archive := range result.Archives {
		verb := "Packed"
		if archive.Kind == "zip" {
			verb = "Zipped"
		}

		_, err = fmt.Fprintf(w, "%s: %s (%s)\n", verb, displayPath(root, archive.Path), sizeLabel(archive.Size))
		if err != nil {
			return err
		}
	}

	return nil
}
