package opc

import (
	"encoding/xml"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

const contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

// ContentTypesStreamName is the normalized part name of the package-level
// content-types manifest in a ZIP physical mapping.
const ContentTypesStreamName = "/[content_types].xml"

// RelationshipsContentType is the content type written for every .rels part.
const RelationshipsContentType = "application/vnd.openxmlformats-package.relationships+xml"

// contentTypesEntry is one (key, MIME type) pair. defaults are keyed by a
// lowercased extension, overrides by a normalized part name. A slice plus an
// index map is used, rather than a bare map, so that re-encoding preserves
// insertion order - encoding/xml's Default/Override ordering is otherwise
// unspecified, but the round-trip property in the OPC testable-properties
// list requires insertion-preserving re-encoding.
type contentTypesEntry struct {
	key   string
	value string
}

// contentTypes is the in-memory model of a [Content_Types].xml manifest:
// Defaults (extension -> MIME) and Overrides (normalized part name -> MIME).
type contentTypes struct {
	defaults      []contentTypesEntry
	defaultIndex  map[string]int
	overrides     []contentTypesEntry
	overrideIndex map[string]int
}

func (c *contentTypes) ensureIndexes() {
	if c.defaultIndex == nil {
		c.defaultIndex = make(map[string]int)
	}
	if c.overrideIndex == nil {
		c.overrideIndex = make(map[string]int)
	}
}

func (c *contentTypes) addDefault(extension, contentType string) {
	c.ensureIndexes()
	if i, ok := c.defaultIndex[extension]; ok {
		c.defaults[i].value = contentType
		return
	}
	c.defaultIndex[extension] = len(c.defaults)
	c.defaults = append(c.defaults, contentTypesEntry{key: extension, value: contentType})
}

func (c *contentTypes) addOverride(partName, contentType string) {
	c.ensureIndexes()
	if i, ok := c.overrideIndex[partName]; ok {
		c.overrides[i].value = contentType
		return
	}
	c.overrideIndex[partName] = len(c.overrides)
	c.overrides = append(c.overrides, contentTypesEntry{key: partName, value: contentType})
}

// add registers contentType for partName, per ECMA-376 Part 2 §10.1.2.3: if
// the extension of partName already has a Default with a different type, an
// Override is added for partName specifically; if it has a Default with the
// same type, nothing is added; otherwise a new Default is recorded for the
// extension (or an Override, if partName has no extension).
func (c *contentTypes) add(partName, contentType string) {
	t, params, err := mime.ParseMediaType(contentType)
	if err == nil {
		contentType = mime.FormatMediaType(t, params)
	}

	norm := normalize(partName)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(norm), "."))
	if ext == "" {
		c.addOverride(norm, contentType)
		return
	}
	c.ensureIndexes()
	if i, ok := c.defaultIndex[ext]; ok {
		if c.defaults[i].value != contentType {
			c.addOverride(norm, contentType)
		}
		return
	}
	c.addDefault(ext, contentType)
}

// findType resolves a part's content type per ECMA-376 Part 2 §10.1.2.3's
// resolution order: an Override for the normalized part name, else a
// Default for its extension, else UnknownContentType.
func (c *contentTypes) findType(partName string) (string, error) {
	norm := normalize(partName)
	c.ensureIndexes()
	if i, ok := c.overrideIndex[norm]; ok {
		return c.overrides[i].value, nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(norm), "."))
	if ext != "" {
		if i, ok := c.defaultIndex[ext]; ok {
			return c.defaults[i].value, nil
		}
	}
	return "", newError(KindUnknownContentType, partName)
}

type contentTypesXMLRoot struct {
	XMLName xml.Name      `xml:"Types"`
	XMLNS   string        `xml:"xmlns,attr"`
	Items   []interface{} `xml:",any"`
}

type defaultXML struct {
	XMLName     xml.Name `xml:"Default"`
	Extension   string   `xml:"Extension,attr"`
	ContentType string   `xml:"ContentType,attr"`
}

type overrideXML struct {
	XMLName     xml.Name `xml:"Override"`
	PartName    string   `xml:"PartName,attr"`
	ContentType string   `xml:"ContentType,attr"`
}

// encodeContentTypes writes ct as a [Content_Types].xml document: Defaults
// first, then Overrides, each group in insertion order.
func encodeContentTypes(w io.Writer, ct *contentTypes) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return wrapError(KindIOFailure, "", err)
	}
	root := &contentTypesXMLRoot{XMLNS: contentTypesNamespace}
	for _, d := range ct.defaults {
		root.Items = append(root.Items, &defaultXML{Extension: d.key, ContentType: d.value})
	}
	for _, o := range ct.overrides {
		root.Items = append(root.Items, &overrideXML{PartName: o.key, ContentType: o.value})
	}
	if err := xml.NewEncoder(w).Encode(root); err != nil {
		return wrapError(KindMalformedXML, "", err)
	}
	return nil
}

type mixedContentTypeItem struct {
	Value interface{}
}

func (m *mixedContentTypeItem) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	switch start.Name.Local {
	case "Default":
		var e defaultXML
		if err := d.DecodeElement(&e, &start); err != nil {
			return err
		}
		m.Value = e
	case "Override":
		var e overrideXML
		if err := d.DecodeElement(&e, &start); err != nil {
			return err
		}
		m.Value = e
	default:
		return d.Skip()
	}
	return nil
}

type contentTypesXMLReader struct {
	XMLName xml.Name                `xml:"Types"`
	XMLNS   string                  `xml:"xmlns,attr"`
	Items   []mixedContentTypeItem  `xml:",any"`
}

// decodeContentTypes parses a [Content_Types].xml document. A Default
// element repeating an already-seen extension is a MalformedXML error, per
// ECMA-376 Part 2 M2.6.
func decodeContentTypes(r io.Reader) (*contentTypes, error) {
	var parsed contentTypesXMLReader
	if err := xml.NewDecoder(r).Decode(&parsed); err != nil {
		return nil, wrapError(KindMalformedXML, "", err)
	}
	ct := &contentTypes{}
	ct.ensureIndexes()
	for _, item := range parsed.Items {
		switch v := item.Value.(type) {
		case defaultXML:
			ext := strings.ToLower(v.Extension)
			if ext == "" {
				return nil, newError(KindMalformedXML, "Default")
			}
			if _, ok := ct.defaultIndex[ext]; ok {
				return nil, newError(KindMalformedXML, ext)
			}
			ct.addDefault(ext, v.ContentType)
		case overrideXML:
			ct.addOverride(normalize(v.PartName), v.ContentType)
		}
	}
	return ct, nil
}
