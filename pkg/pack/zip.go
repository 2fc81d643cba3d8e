// Package pack writes the distributable archives for a build. Every archive contains the same single
// entry (index.html by default); ZIP is the primary format, .kar and .tar.xz are optional extras.
package pack

import (
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rotisserie/eris"
)

// EntryName is the name of the document inside every archive
const EntryName = "index.html"

// Options influence how an archive is written
type Options struct {
	// Comment is stored as the archive comment (ZIP only)
	Comment string
	// Modified is the timestamp recorded for the entry; the zero value means time.Now()
	Modified time.Time
	// Progress receives a copy of the uncompressed bytes as they are written
	Progress io.Writer
}

func (o Options) modTime() time.Time {
	if o.Modified.IsZero() {
		return time.Now()
	}
	return o.Modified
}

func (o Options) source(content io.Reader) io.Reader {
	if o.Progress == nil {
		return content
	}
	return io.TeeReader(content, o.Progress)
}

// WriteZip creates (or replaces) the ZIP archive at path with a single deflated entry.
func WriteZip(path, entryName string, content io.Reader, opts Options) error {
	hdl, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", path)
	}

	zw := zip.NewWriter(hdl)
	if opts.Comment != "" {
		err = zw.SetComment(opts.Comment)
		if err != nil {
			hdl.Close()
			return eris.Wrap(err, "failed to set archive comment")
		}
	}

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: opts.modTime(),
	})
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "failed to add %s to %s", entryName, path)
	}

	_, err = io.Copy(w, opts.source(content))
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "failed to compress %s", entryName)
	}

	err = zw.Close()
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "failed to finish %s", path)
	}

	err = hdl.Close()
	if err != nil {
		return eris.Wrapf(err, "failed to close %s", path)
	}

	return nil
}

// WriteZipFile is a shortcut for WriteZip which reads the entry from srcPath.
func WriteZipFile(path, entryName, srcPath string, opts Options) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", srcPath)
	}
	defer src.Close()

	return WriteZip(path, entryName, src, opts)
}
