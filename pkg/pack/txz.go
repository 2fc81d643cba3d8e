package pack

import (
	"archive/tar"
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/ulikunitz/xz"
)

// WriteTarXz creates a .tar.xz archive at path with a single regular file entry.
func WriteTarXz(path, entryName string, content io.Reader, opts Options) error {
	// tar needs the size up front
	data, err := io.ReadAll(opts.source(content))
	if err != nil {
		return eris.Wrapf(err, "failed to read %s", entryName)
	}

	hdl, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", path)
	}

	xzw, err := xz.NewWriter(hdl)
	if err != nil {
		hdl.Close()
		return eris.Wrap(err, "failed to initialize xz writer")
	}

	tw := tar.NewWriter(xzw)
	err = tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     entryName,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  opts.modTime(),
	})
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "failed to add %s to %s", entryName, path)
	}

	_, err = io.Copy(tw, bytes.NewReader(data))
	if err != nil {
		hdl.Close()
		return eris.Wrapf(err, "failed to write %s", entryName)
	}

	err = tw.Close()
	if err != nil {
		hdl.Close()
		return eris.Wrap(err, "failed to finish tar stream")
	}

	err = xzw.Close()
	if err != nil {
		hdl.Close()
		return eris.Wrap(err, "failed to finish xz stream")
	}

	return eris.Wrapf(hdl.Close(), "failed to close %s", path)
}
