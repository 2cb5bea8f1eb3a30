package opc

import (
	"io"
	"regexp"
	"strconv"
)

var reFragmentItem = regexp.MustCompile(`^(.*)/\[(\d+)\](\.last)?\.piece$`)

// partEntry is a part discovered during Open, indexed by its normalized
// name. rawName is the physical item name as the backend reported it
// (fragmented parts store the common prefix shared by every fragment) and
// is what gets passed back to the backend or to newFragmentReader.
type partEntry struct {
	rawName     string
	contentType string
	fragmented  bool
}

// PartInfo is a read-only summary of a discovered part, returned by
// Reader.ListParts.
type PartInfo struct {
	Name        string
	ContentType string
}

// Reader enumerates and opens the logical parts of an OPC package backed by
// a ReaderBackend. Construct one with Open.
type Reader struct {
	backend      ReaderBackend
	contentTypes *contentTypes
	parts        map[string]*partEntry
	// order preserves the backend's physical enumeration order (after
	// fragment grouping), since Go's map iteration order is randomized and
	// ListParts must be deterministic.
	order []string
}

// Open reads the content-types manifest and enumerates every part behind
// backend, grouping interleaved fragment items (".../[k].piece",
// ".../[k].last.piece") into single fragmented parts. Only the "[0]"
// fragment of a group registers the part; later fragments are resolved
// lazily by OpenPart.
func Open(backend ReaderBackend) (*Reader, error) {
	items, err := backend.ListItems()
	if err != nil {
		return nil, wrapError(KindIOFailure, "", err)
	}

	ctStreamName := normalize(backend.ContentTypesStreamName())
	var ctItem string
	for _, item := range items {
		if normalize(item) == ctStreamName {
			ctItem = item
			break
		}
	}
	var ct *contentTypes
	if ctItem != "" {
		r, err := backend.OpenItem(ctItem)
		if err != nil {
			return nil, wrapError(KindIOFailure, ctItem, err)
		}
		defer r.Close()
		ct, err = decodeContentTypes(r)
		if err != nil {
			return nil, err
		}
	} else {
		ct = &contentTypes{}
		ct.ensureIndexes()
	}

	rd := &Reader{backend: backend, contentTypes: ct, parts: make(map[string]*partEntry)}
	for _, item := range items {
		if item == ctItem {
			continue
		}
		rawName := item
		fragmented := false
		if m := reFragmentItem.FindStringSubmatch(item); m != nil {
			idx, convErr := strconv.Atoi(m[2])
			if convErr != nil {
				continue
			}
			if idx != 0 {
				continue // non-leading fragment, resolved lazily from the part it belongs to
			}
			rawName = m[1]
			fragmented = true
		}

		norm := normalize(rawName)
		if _, exists := rd.parts[norm]; exists {
			continue
		}
		contentType, ctErr := ct.findType(rawName)
		if ctErr != nil {
			if isRelationshipURI(norm) {
				contentType = RelationshipsContentType
			} else {
				return nil, ctErr
			}
		}
		rd.parts[norm] = &partEntry{rawName: rawName, contentType: contentType, fragmented: fragmented}
		rd.order = append(rd.order, norm)
	}
	return rd, nil
}

// ListParts returns every discovered part in physical enumeration order.
// Relationship parts (".rels") are omitted unless includeRels is true.
func (r *Reader) ListParts(includeRels bool) []PartInfo {
	infos := make([]PartInfo, 0, len(r.order))
	for _, norm := range r.order {
		if !includeRels && isRelationshipURI(norm) {
			continue
		}
		e := r.parts[norm]
		infos = append(infos, PartInfo{Name: norm, ContentType: e.contentType})
	}
	return infos
}

// OpenPart opens the named part's content as a sequential byte stream,
// reassembling its fragments transparently if it was written interleaved.
func (r *Reader) OpenPart(name string) (io.ReadCloser, error) {
	norm := normalize(name)
	e, ok := r.parts[norm]
	if !ok {
		return nil, newError(KindNotFound, name)
	}
	if e.fragmented {
		return newFragmentReader(e.rawName, r.backend)
	}
	rc, err := r.backend.OpenItem(e.rawName)
	if err != nil {
		return nil, wrapError(KindIOFailure, name, err)
	}
	return rc, nil
}

// RawRelationships returns the relationships stored for source (a part name,
// or "/" for the package root), in document order. A source with no .rels
// part at all has no relationships, which is not an error.
func (r *Reader) RawRelationships(source string) ([]*Relationship, error) {
	relsName := relsPartFor(normalize(source))
	rc, err := r.OpenPart(relsName)
	if err != nil {
		if opcErr, ok := err.(*Error); ok && opcErr.Kind == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer rc.Close()
	return DecodeRelationships(rc)
}

// RelatedPartsByType groups source's relationships by Type, resolving each
// internal relationship's Target into a normalized part name. External
// targets are omitted, since they do not name a part within the package.
func (r *Reader) RelatedPartsByType(source string) (map[string][]string, error) {
	rels, err := r.RawRelationships(source)
	if err != nil {
		return nil, err
	}
	result := make(map[string][]string)
	for _, rel := range rels {
		if rel.TargetMode != ModeInternal {
			continue
		}
		target, err := resolvePartReference(rel.Target, source)
		if err != nil {
			return nil, err
		}
		result[rel.Type] = append(result[rel.Type], target)
	}
	return result, nil
}

// CoreProperties locates and decodes the package's Core Properties part via
// its root relationship (RelTypeCoreProperties). A package with no such
// relationship has no Core Properties, which is not an error: both return
// values are nil.
func (r *Reader) CoreProperties() (*CoreProperties, error) {
	byType, err := r.RelatedPartsByType("/")
	if err != nil {
		return nil, err
	}
	targets := byType[RelTypeCoreProperties]
	if len(targets) == 0 {
		return nil, nil
	}
	rc, err := r.OpenPart(targets[0])
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeCoreProperties(rc)
}
