package opc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePartName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "/docs/readme.xml", "/docs/readme.xml"},
		{"uppercase folds", "/Docs/ReadMe.XML", "/docs/readme.xml"},
		{"percent-encodes space", "/docs/my file.xml", "/docs/my%20file.xml"},
		{"lowercases existing percent escape", "/docs/%4A.xml", "/docs/%4a.xml"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := NormalizePartName(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestCheckPartNameRejections(t *testing.T) {
	bad := []string{
		"",
		"/",
		"noleadingslash",
		"/trailing/",
		"/a//b",
		"/./a",
		"/..",
		"/a/%2F/b",
		"/a/%5c/b",
	}
	for _, name := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizePartName(name)
			require.Error(t, err)
			var opcErr *Error
			require.ErrorAs(t, err, &opcErr)
			assert.Equal(t, KindMalformedName, opcErr.Kind)
		})
	}
}

func TestResolvePartReference(t *testing.T) {
	cases := []struct {
		name   string
		ref    string
		source string
		want   string
	}{
		{"sibling", "image.png", "/docs/readme.xml", "/docs/image.png"},
		{"parent then descend", "../media/image.png", "/docs/readme.xml", "/media/image.png"},
		{"absolute resets to root", "/media/image.png", "/docs/sub/readme.xml", "/media/image.png"},
		{"dot segment is no-op", "./image.png", "/docs/readme.xml", "/docs/image.png"},
		{"root source", "image.png", "/", "/image.png"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := resolvePartReference(c.ref, c.source)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestResolvePartReferencePastRoot(t *testing.T) {
	_, err := resolvePartReference("../../image.png", "/docs/readme.xml")
	require.Error(t, err)
	var opcErr *Error
	require.ErrorAs(t, err, &opcErr)
	assert.Equal(t, KindMalformedReference, opcErr.Kind)
}

func TestRelsPartFor(t *testing.T) {
	assert.Equal(t, "/docs/_rels/readme.xml.rels", relsPartFor("/docs/readme.xml"))
	assert.Equal(t, "/_rels/.rels", relsPartFor("/"))
}

func TestIsRelationshipURI(t *testing.T) {
	assert.True(t, isRelationshipURI("/docs/_rels/readme.xml.rels"))
	assert.True(t, isRelationshipURI("/_rels/.rels"))
	assert.False(t, isRelationshipURI("/docs/readme.xml"))
}
