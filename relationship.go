package opc

import (
	"encoding/xml"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// TargetMode distinguishes a relationship that points inside the package
// from one that points at an external resource.
type TargetMode int

const (
	// ModeInternal targets a part within the package; its Target is a
	// relative reference resolved against the relationship's source part.
	// This is the default when TargetMode is absent from serialized XML.
	ModeInternal TargetMode = iota
	// ModeExternal targets a resource outside the package; its Target may
	// be any absolute or relative URI and is never resolved by this package.
	ModeExternal
)

const targetModeExternal = "External"
const targetModeInternal = "Internal"

// RelTypeCoreProperties identifies the package-root relationship pointing at
// the Core Properties part.
const RelTypeCoreProperties = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"

// Relationship is a typed, directed reference from a source part (or the
// package root) to a target, defined in ECMA-376 Part 2 §9.3.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode TargetMode
}

// NewRelationshipID returns a freshly generated, collision-resistant
// relationship identifier suitable for use as Relationship.ID. Callers are
// free to supply their own IDs instead; the package never generates one on
// their behalf.
func NewRelationshipID() string {
	return "rId" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func (r *Relationship) validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return newErrorRelationship(KindMalformedRelationship, r.Target, r.ID)
	}
	if strings.TrimSpace(r.Type) == "" {
		return newErrorRelationship(KindMalformedRelationship, r.Target, r.ID)
	}
	if r.TargetMode == ModeInternal {
		u, err := url.Parse(strings.TrimSpace(r.Target))
		if err != nil || u.String() == "" || u.IsAbs() {
			return newErrorRelationship(KindMalformedRelationship, r.Target, r.ID)
		}
	}
	return nil
}

// validateRelationships checks every record's required fields and rejects
// duplicate IDs within the same .rels part, per ECMA-376 Part 2 M1.26. It
// does not perform cross-referential validation (e.g. dangling targets) -
// that is explicitly out of scope for the relationships codec.
func validateRelationships(rels []*Relationship) error {
	seen := make(map[string]struct{}, len(rels))
	for _, r := range rels {
		if err := r.validate(); err != nil {
			return err
		}
		if _, ok := seen[r.ID]; ok {
			return newErrorRelationship(KindMalformedRelationship, r.Target, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

type relationshipsXMLRoot struct {
	XMLName xml.Name           `xml:"Relationships"`
	XMLNS   string             `xml:"xmlns,attr"`
	Items   []*relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
	Mode   string `xml:"TargetMode,attr,omitempty"`
}

func (r *Relationship) toXML() *relationshipXML {
	x := &relationshipXML{ID: r.ID, Type: r.Type, Target: r.Target}
	if r.TargetMode == ModeExternal {
		x.Mode = targetModeExternal
	}
	return x
}

// EncodeRelationships writes rels as a .rels part: a Relationships root in
// the package relationships namespace, one Relationship child per record,
// attributes ordered Id, Type, Target, TargetMode, with TargetMode
// serialized as "Internal"/"External" and omitted when Internal (the
// default).
func EncodeRelationships(w io.Writer, rels []*Relationship) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return wrapError(KindIOFailure, "", err)
	}
	root := &relationshipsXMLRoot{XMLNS: relationshipsNamespace}
	for _, r := range rels {
		root.Items = append(root.Items, r.toXML())
	}
	if err := xml.NewEncoder(w).Encode(root); err != nil {
		return wrapError(KindMalformedXML, "", err)
	}
	return nil
}

// RelationshipDecoder is a streaming pull-parser over a .rels document,
// yielding one Relationship at a time so large packages never require
// holding the whole document in memory.
type RelationshipDecoder struct {
	dec *xml.Decoder
}

// NewRelationshipDecoder wraps r for streaming relationship decoding.
func NewRelationshipDecoder(r io.Reader) *RelationshipDecoder {
	return &RelationshipDecoder{dec: xml.NewDecoder(r)}
}

// Next returns the next relationship in the document, or io.EOF once
// exhausted. Unknown attributes on a Relationship element are ignored; a
// missing TargetMode defaults to ModeInternal; an unrecognized TargetMode
// value is a MalformedRelationship error.
func (d *RelationshipDecoder) Next() (*Relationship, error) {
	for {
		tok, err := d.dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, wrapError(KindMalformedXML, "", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var rx relationshipXML
		if err := d.dec.DecodeElement(&rx, &se); err != nil {
			return nil, wrapError(KindMalformedXML, "", err)
		}
		rel := &Relationship{ID: rx.ID, Type: rx.Type, Target: rx.Target}
		switch strings.ToLower(rx.Mode) {
		case "", strings.ToLower(targetModeInternal):
			rel.TargetMode = ModeInternal
		case strings.ToLower(targetModeExternal):
			rel.TargetMode = ModeExternal
		default:
			return nil, newErrorRelationship(KindMalformedRelationship, rx.Target, rx.ID)
		}
		return rel, nil
	}
}

// DecodeRelationships fully drains r into a slice, for callers that don't
// need the streaming form.
func DecodeRelationships(r io.Reader) ([]*Relationship, error) {
	dec := NewRelationshipDecoder(r)
	var rels []*Relationship
	for {
		rel, err := dec.Next()
		if err == io.EOF {
			return rels, nil
		}
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
}
