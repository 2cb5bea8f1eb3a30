package opc

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipBackendRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := NewZipWriter(&buf)
	zw.SetCompression(CompressionMaximum)

	w := NewWriter(zw)
	wc, err := w.OpenPart("/docs/readme.xml", "text/plain")
	require.NoError(t, err)
	_, err = io.WriteString(wc, "hello from zip")
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	require.NoError(t, w.Close())

	zr, err := NewZipReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	r, err := Open(zr)
	require.NoError(t, err)

	rc, err := r.OpenPart("/docs/readme.xml")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello from zip", string(data))
	require.NoError(t, rc.Close())
}

func TestZipWriterCompressionNone(t *testing.T) {
	var buf bytes.Buffer
	zw := NewZipWriter(&buf)
	zw.SetCompression(CompressionNone)

	wc, err := zw.CreateItem("/a.txt", "text/plain")
	require.NoError(t, err)
	_, err = io.WriteString(wc, "stored, not compressed")
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	require.NoError(t, zw.Close())

	zr, err := NewZipReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	rc, err := zr.OpenItem("/a.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "stored, not compressed", string(data))
}
