package opc

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderRoundTripWithRelationshipsAndCoreProperties(t *testing.T) {
	backend := newMemBackend()
	w := NewWriter(backend)

	wc, err := w.OpenPart("/docs/readme.xml", "text/plain")
	require.NoError(t, err)
	_, err = io.WriteString(wc, "hello package")
	require.NoError(t, err)
	require.NoError(t, wc.Close())

	require.NoError(t, w.WriteRelationships("/", []*Relationship{
		{ID: "rId1", Type: RelTypeCoreProperties, Target: "docProps/core.xml"},
		{ID: "rId2", Type: "http://example.com/rel/readme", Target: "docs/readme.xml"},
	}))

	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	cp := &CoreProperties{
		Title:   "Example Package",
		Creator: "Test Suite",
		Created: &created,
		Keywords: []Keyword{
			{Lang: "en-US", Text: "sample"},
			{Lang: "fr-FR", Text: "exemple"},
		},
	}
	wc2, err := w.OpenPart("/docProps/core.xml", CorePropertiesContentType)
	require.NoError(t, err)
	require.NoError(t, EncodeCoreProperties(wc2, cp))
	require.NoError(t, wc2.Close())

	require.NoError(t, w.Close())

	r, err := Open(backend)
	require.NoError(t, err)

	parts := r.ListParts(false)
	var names []string
	for _, p := range parts {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "/docs/readme.xml")
	assert.Contains(t, names, "/docprops/core.xml")
	assert.NotContains(t, names, "/_rels/.rels")

	rc, err := r.OpenPart("/docs/readme.xml")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello package", string(data))
	require.NoError(t, rc.Close())

	byType, err := r.RelatedPartsByType("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docprops/core.xml"}, byType[RelTypeCoreProperties])

	gotCP, err := r.CoreProperties()
	require.NoError(t, err)
	require.NotNil(t, gotCP)
	assert.Equal(t, "Example Package", gotCP.Title)
	assert.Equal(t, "Test Suite", gotCP.Creator)
	require.NotNil(t, gotCP.Created)
	assert.True(t, created.Equal(*gotCP.Created))
	require.Len(t, gotCP.Keywords, 2)
	assert.Equal(t, "en-US", gotCP.Keywords[0].Lang)
	assert.Equal(t, "sample", gotCP.Keywords[0].Text)
	assert.Equal(t, "fr-FR", gotCP.Keywords[1].Lang)
	assert.Equal(t, "exemple", gotCP.Keywords[1].Text)
}

func TestReaderCorePropertiesAbsentIsNotAnError(t *testing.T) {
	backend := newMemBackend()
	w := NewWriter(backend)
	wc, err := w.OpenPart("/docs/readme.xml", "text/plain")
	require.NoError(t, err)
	require.NoError(t, wc.Close())
	require.NoError(t, w.Close())

	r, err := Open(backend)
	require.NoError(t, err)

	cp, err := r.CoreProperties()
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestReaderOpenFragmentedPart(t *testing.T) {
	backend := newMemBackend()
	w := NewWriter(backend)

	fw, err := w.CreateFragmentedPart("/docs/big.bin", "application/octet-stream")
	require.NoError(t, err)
	first, err := fw.Next(false)
	require.NoError(t, err)
	_, err = io.WriteString(first, "alpha-")
	require.NoError(t, err)
	require.NoError(t, first.Close())
	last, err := fw.Next(true)
	require.NoError(t, err)
	_, err = io.WriteString(last, "beta")
	require.NoError(t, err)
	require.NoError(t, last.Close())

	require.NoError(t, w.Close())

	r, err := Open(backend)
	require.NoError(t, err)

	rc, err := r.OpenPart("/docs/big.bin")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "alpha-beta", string(data))
	require.NoError(t, rc.Close())
}

func TestReaderOpenPartNotFound(t *testing.T) {
	backend := newMemBackend()
	w := NewWriter(backend)
	require.NoError(t, w.Close())

	r, err := Open(backend)
	require.NoError(t, err)

	_, err = r.OpenPart("/missing.xml")
	require.Error(t, err)
	var opcErr *Error
	require.ErrorAs(t, err, &opcErr)
	assert.Equal(t, KindNotFound, opcErr.Kind)
}
