package opc

import (
	"archive/zip"
	"compress/flate"
	"io"
	"strings"
)

// zipContentTypesItemName is the reserved ZIP entry holding the
// content-types manifest, per ECMA-376 Part 2 §6's ZIP physical mapping.
const zipContentTypesItemName = "/[Content_Types].xml"

// CompressionOption selects how a ZipWriter compresses the entries it
// creates, mirroring the deflate compression-level bands archive/zip
// exposes (ECMA-376 Part 2 leaves compression entirely to the physical
// mapping; this has no bearing on logical-layer conformance).
type CompressionOption int

const (
	// CompressionNone stores entries uncompressed.
	CompressionNone CompressionOption = iota
	// CompressionNormal is the default deflate trade-off.
	CompressionNormal
	// CompressionMaximum favors smaller archives over write speed.
	CompressionMaximum
	// CompressionFast favors write speed over archive size.
	CompressionFast
	// CompressionSuperFast favors write speed most aggressively.
	CompressionSuperFast
)

func compressionLevel(c CompressionOption) int {
	switch c {
	case CompressionMaximum:
		return flate.BestCompression
	case CompressionFast:
		return 3
	case CompressionSuperFast:
		return flate.BestSpeed
	default:
		return flate.DefaultCompression
	}
}

func compressionFunc(level int) func(io.Writer) (io.WriteCloser, error) {
	return func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	}
}

// ZipReader is the reference ReaderBackend, reading OPC parts from a ZIP
// archive per the ZIP physical mapping in ECMA-376 Part 2 §6. A part
// "/foo/bar" maps to the ZIP entry "foo/bar"; directory-style entries
// (trailing "/") are never parts.
type ZipReader struct {
	zr *zip.Reader
}

// NewZipReader opens a ZIP-backed ReaderBackend over r.
func NewZipReader(r io.ReaderAt, size int64) (*ZipReader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, wrapError(KindIOFailure, "", err)
	}
	return &ZipReader{zr: zr}, nil
}

// ContentTypesStreamName implements ReaderBackend.
func (z *ZipReader) ContentTypesStreamName() string {
	return zipContentTypesItemName
}

// ListItems implements ReaderBackend.
func (z *ZipReader) ListItems() ([]string, error) {
	names := make([]string, 0, len(z.zr.File))
	for _, f := range z.zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		names = append(names, "/"+f.Name)
	}
	return names, nil
}

// OpenItem implements ReaderBackend.
func (z *ZipReader) OpenItem(name string) (io.ReadCloser, error) {
	entry := strings.TrimPrefix(name, "/")
	for _, f := range z.zr.File {
		if f.Name == entry {
			rc, err := f.Open()
			if err != nil {
				return nil, wrapError(KindIOFailure, name, err)
			}
			return rc, nil
		}
	}
	return nil, newError(KindNotFound, name)
}

// ZipWriter is the reference WriterBackend, writing OPC parts into a ZIP
// archive.
type ZipWriter struct {
	zw          *zip.Writer
	compression CompressionOption
}

// NewZipWriter creates a ZIP-backed WriterBackend writing to w, using
// CompressionNormal by default.
func NewZipWriter(w io.Writer) *ZipWriter {
	return &ZipWriter{zw: zip.NewWriter(w), compression: CompressionNormal}
}

// SetCompression changes the compression option applied to subsequently
// created items.
func (z *ZipWriter) SetCompression(c CompressionOption) {
	z.compression = c
}

func (z *ZipWriter) setCompressor(fh *zip.FileHeader, compression CompressionOption) {
	if compression == CompressionNone {
		fh.Method = zip.Store
		return
	}
	fh.Method = zip.Deflate
	z.zw.RegisterCompressor(zip.Deflate, compressionFunc(compressionLevel(compression)))
}

// ContentTypesStreamName implements WriterBackend.
func (z *ZipWriter) ContentTypesStreamName() string {
	return zipContentTypesItemName
}

// CreateItem implements WriterBackend.
func (z *ZipWriter) CreateItem(name, contentType string) (io.WriteCloser, error) {
	entry := strings.TrimPrefix(name, "/")
	fh := &zip.FileHeader{Name: entry}
	z.setCompressor(fh, z.compression)
	w, err := z.zw.CreateHeader(fh)
	if err != nil {
		return nil, wrapError(KindIOFailure, name, err)
	}
	return nopWriteCloser{w}, nil
}

// Close implements WriterBackend.
func (z *ZipWriter) Close() error {
	if err := z.zw.Close(); err != nil {
		return wrapError(KindIOFailure, "", err)
	}
	return nil
}

// nopWriteCloser adapts the io.Writer archive/zip hands back from
// CreateHeader (entries are finalized when the next entry is created, or
// the writer is closed) into an io.WriteCloser, as WriterBackend requires.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
