package pack

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/andybalholm/brotli"
	"github.com/rotisserie/eris"
)

// .kar layout:
//   header: "KNAR", version (uint32), TOC offset (uint32), TOC item count (uint32)
//   brotli streams, one per file
//   TOC: offset, size, decSize (uint32 each), name length (uint16), name
// Directories are TOC entries with zero offset/size followed by their children and a ".." entry.

const (
	karMagic      = "KNAR"
	karVersion    = 2
	karHeaderSize = 4 + 12
	karEntrySize  = 14
)

type karFile struct {
	offset  uint32
	size    uint32
	decSize uint32
}

type karFolder struct {
	folders map[string]*karFolder
	files   map[string]*karFile
}

func newKarFolder() *karFolder {
	return &karFolder{
		folders: map[string]*karFolder{},
		files:   map[string]*karFile{},
	}
}

// KarWriter writes brotli-compressed .kar archives
type KarWriter struct {
	hdl      *os.File
	dirStack []*karFolder
	buffer   []byte
	quality  int
}

// NewKarWriter creates the archive at filename. quality is the brotli level (0-11).
func NewKarWriter(filename string, quality int) (*KarWriter, error) {
	hdl, err := os.Create(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to create %s", filename)
	}

	// the header is written last since it points at the TOC
	_, err = hdl.Seek(karHeaderSize, io.SeekStart)
	if err != nil {
		hdl.Close()
		return nil, eris.Wrap(err, "failed to skip header")
	}

	return &KarWriter{
		hdl:      hdl,
		dirStack: []*karFolder{newKarFolder()},
		buffer:   make([]byte, 32*1024),
		quality:  quality,
	}, nil
}

func (w *KarWriter) current() *karFolder {
	return w.dirStack[len(w.dirStack)-1]
}

// OpenDirectory creates a directory entry. Everything written until the matching CloseDirectory() call ends
// up inside it.
func (w *KarWriter) OpenDirectory(dirname string) {
	dir := newKarFolder()
	w.current().folders[dirname] = dir
	w.dirStack = append(w.dirStack, dir)
}

// CloseDirectory closes the directory that was opened last
func (w *KarWriter) CloseDirectory() error {
	if len(w.dirStack) < 2 {
		return eris.New("no directory left on stack")
	}

	w.dirStack = w.dirStack[:len(w.dirStack)-1]
	return nil
}

// WriteFile compresses everything read from reader into a new file entry in the current directory
func (w *KarWriter) WriteFile(filename string, reader io.Reader) error {
	offset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return eris.Wrap(err, "failed to determine offset")
	}

	brw := brotli.NewWriterLevel(w.hdl, w.quality)
	decSize, err := io.CopyBuffer(brw, reader, w.buffer)
	if err != nil {
		return eris.Wrapf(err, "failed to compress %s", filename)
	}

	err = brw.Close()
	if err != nil {
		return eris.Wrapf(err, "failed to finish %s", filename)
	}

	end, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return eris.Wrap(err, "failed to determine offset")
	}

	w.current().files[filename] = &karFile{
		offset:  uint32(offset),
		size:    uint32(end - offset),
		decSize: uint32(decSize),
	}
	return nil
}

// Close writes the TOC and header and closes the file
func (w *KarWriter) Close() error {
	if len(w.dirStack) != 1 {
		w.hdl.Close()
		return eris.New("open directories left over")
	}

	err := w.finish()
	if err != nil {
		w.hdl.Close()
		return err
	}

	return eris.Wrap(w.hdl.Close(), "failed to close archive")
}

func (w *KarWriter) finish() error {
	tocOffset, err := w.hdl.Seek(0, io.SeekCurrent)
	if err != nil {
		return eris.Wrap(err, "failed to determine TOC offset")
	}

	items := uint32(0)
	buffer := make([]byte, karHeaderSize)
	err = writeKarEntries(w.dirStack[0], w.hdl, &items, buffer)
	if err != nil {
		return eris.Wrap(err, "failed to write TOC")
	}

	_, err = w.hdl.Seek(0, io.SeekStart)
	if err != nil {
		return eris.Wrap(err, "failed to seek to header")
	}

	copy(buffer, karMagic)
	binary.LittleEndian.PutUint32(buffer[4:8], karVersion)
	binary.LittleEndian.PutUint32(buffer[8:12], uint32(tocOffset))
	binary.LittleEndian.PutUint32(buffer[12:16], items)

	_, err = w.hdl.Write(buffer[:karHeaderSize])
	return eris.Wrap(err, "failed to write header")
}

func writeKarEntry(hdl io.Writer, buffer []byte, name string, file *karFile) error {
	if file == nil {
		file = &karFile{}
	}

	binary.LittleEndian.PutUint32(buffer[:4], file.offset)
	binary.LittleEndian.PutUint32(buffer[4:8], file.size)
	binary.LittleEndian.PutUint32(buffer[8:12], file.decSize)
	binary.LittleEndian.PutUint16(buffer[12:14], uint16(len(name)))

	_, err := hdl.Write(buffer[:karEntrySize])
	if err != nil {
		return err
	}

	_, err = io.WriteString(hdl, name)
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeKarEntries(folder *karFolder, hdl io.Writer, items *uint32, buffer []byte) error {
	for _, name := range sortedKeys(folder.folders) {
		err := writeKarEntry(hdl, buffer, name, nil)
		if err != nil {
			return err
		}

		err = writeKarEntries(folder.folders[name], hdl, items, buffer)
		if err != nil {
			return err
		}

		err = writeKarEntry(hdl, buffer, "..", nil)
		if err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(folder.files) {
		err := writeKarEntry(hdl, buffer, name, folder.files[name])
		if err != nil {
			return err
		}
	}

	*items += uint32(len(folder.folders)*2 + len(folder.files))
	return nil
}

// KarEntry describes a file stored in a .kar archive
type KarEntry struct {
	Path    string
	Offset  uint32
	Size    uint32
	DecSize uint32
}

// ReadKarIndex parses the header and TOC of a .kar archive and returns all file entries with their full paths.
func ReadKarIndex(r io.ReadSeeker) ([]KarEntry, error) {
	header := make([]byte, karHeaderSize)
	_, err := io.ReadFull(r, header)
	if err != nil {
		return nil, eris.Wrap(err, "failed to read header")
	}

	if string(header[:4]) != karMagic {
		return nil, eris.Errorf("invalid magic %q", header[:4])
	}

	version := binary.LittleEndian.Uint32(header[4:8])
	if version != karVersion {
		return nil, eris.Errorf("unsupported version %d", version)
	}

	tocOffset := binary.LittleEndian.Uint32(header[8:12])
	count := binary.LittleEndian.Uint32(header[12:16])

	_, err = r.Seek(int64(tocOffset), io.SeekStart)
	if err != nil {
		return nil, eris.Wrap(err, "failed to seek to TOC")
	}

	result := make([]KarEntry, 0, count)
	dirs := []string{}
	buffer := make([]byte, karEntrySize)
	for idx := uint32(0); idx < count; idx++ {
		_, err = io.ReadFull(r, buffer)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read TOC entry %d", idx)
		}

		name := make([]byte, binary.LittleEndian.Uint16(buffer[12:14]))
		_, err = io.ReadFull(r, name)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read name of TOC entry %d", idx)
		}

		entry := KarEntry{
			Offset:  binary.LittleEndian.Uint32(buffer[:4]),
			Size:    binary.LittleEndian.Uint32(buffer[4:8]),
			DecSize: binary.LittleEndian.Uint32(buffer[8:12]),
		}

		switch {
		case string(name) == "..":
			if len(dirs) == 0 {
				return nil, eris.Errorf("TOC entry %d leaves the root directory", idx)
			}
			dirs = dirs[:len(dirs)-1]
		case entry.Size == 0 && entry.Offset == 0 && entry.DecSize == 0:
			dirs = append(dirs, string(name))
		default:
			entry.Path = joinKarPath(dirs, string(name))
			result = append(result, entry)
		}
	}

	return result, nil
}

func joinKarPath(dirs []string, name string) string {
	path := ""
	for _, dir := range dirs {
		path += dir + "/"
	}
	return path + name
}

// OpenKarEntry returns a reader for the decompressed content of entry
func OpenKarEntry(r io.ReaderAt, entry KarEntry) io.Reader {
	return brotli.NewReader(io.NewSectionReader(r, int64(entry.Offset), int64(entry.Size)))
}

// WriteKar creates a .kar archive at path with a single entry.
func WriteKar(path, entryName string, content io.Reader, opts Options) error {
	writer, err := NewKarWriter(path, brotli.BestCompression)
	if err != nil {
		return err
	}

	err = writer.WriteFile(entryName, opts.source(content))
	if err != nil {
		writer.hdl.Close()
		return err
	}

	return writer.Close()
}
