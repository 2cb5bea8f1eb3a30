package opc

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRelationshipsRoundTrip(t *testing.T) {
	rels := []*Relationship{
		{ID: "rId1", Type: "http://example.com/rel/doc", Target: "doc.xml"},
		{ID: "rId2", Type: "http://example.com/rel/img", Target: "http://example.com/logo.png", TargetMode: ModeExternal},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeRelationships(&buf, rels))

	decoded, err := DecodeRelationships(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "rId1", decoded[0].ID)
	assert.Equal(t, ModeInternal, decoded[0].TargetMode)
	assert.Equal(t, "rId2", decoded[1].ID)
	assert.Equal(t, ModeExternal, decoded[1].TargetMode)
	assert.Equal(t, "http://example.com/logo.png", decoded[1].Target)
}

func TestRelationshipDecoderStreams(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="t1" Target="a.xml"/>
  <Relationship Id="rId2" Type="t2" Target="b.xml"/>
</Relationships>`
	dec := NewRelationshipDecoder(bytes.NewBufferString(doc))

	r1, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "rId1", r1.ID)

	r2, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "rId2", r2.ID)

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestValidateRelationshipsRejectsDuplicateID(t *testing.T) {
	rels := []*Relationship{
		{ID: "rId1", Type: "t", Target: "a.xml"},
		{ID: "rId1", Type: "t", Target: "b.xml"},
	}
	err := validateRelationships(rels)
	require.Error(t, err)
	var opcErr *Error
	require.ErrorAs(t, err, &opcErr)
	assert.Equal(t, KindMalformedRelationship, opcErr.Kind)
}

func TestValidateRelationshipsRejectsAbsoluteInternalTarget(t *testing.T) {
	rels := []*Relationship{
		{ID: "rId1", Type: "t", Target: "http://example.com/a.xml"},
	}
	err := validateRelationships(rels)
	require.Error(t, err)
}

func TestNewRelationshipIDIsUnique(t *testing.T) {
	a := NewRelationshipID()
	b := NewRelationshipID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "rId")
}
