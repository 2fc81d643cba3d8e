package pack

import (
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
)

// Format describes an archive type the build can produce
type Format struct {
	Name      string
	Extension string
	Write     func(path, entryName string, content io.Reader, opts Options) error
}

// Formats lists every supported archive type, ZIP first
var Formats = []Format{
	{Name: "zip", Extension: ".zip", Write: WriteZip},
	{Name: "kar", Extension: ".kar", Write: WriteKar},
	{Name: "txz", Extension: ".tar.xz", Write: WriteTarXz},
}

// LookupFormat returns the format with the given name
func LookupFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Formats {
		if f.Name == name {
			return f, nil
		}
	}

	names := make([]string, len(Formats))
	for idx, f := range Formats {
		names[idx] = f.Name
	}
	return Format{}, eris.Errorf("unknown archive format %q (supported: %s)", name, strings.Join(names, ", "))
}

// WriteFile packs the file at srcPath into an archive of the given format
func (f Format) WriteFile(path, entryName, srcPath string, opts Options) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", srcPath)
	}
	defer src.Close()

	return f.Write(path, entryName, src, opts)
}

// NewProgress returns a byte progress bar for the given amount of input. It prints to stderr.
func NewProgress(size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
