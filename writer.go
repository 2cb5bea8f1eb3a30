package opc

import (
	"io"
)

// Writer emits the logical parts of an OPC package to a WriterBackend,
// tracking the content-types manifest and each part's pending relationships
// so they can be flushed as the physical container is closed.
type Writer struct {
	backend      WriterBackend
	contentTypes *contentTypes
	manifestOpen bool // becomes true once the manifest has been written to the backend
	rels         map[string][]*Relationship
	relsOrder    []string
	closed       bool
}

// NewWriter starts a new package write against backend.
func NewWriter(backend WriterBackend) *Writer {
	ct := &contentTypes{}
	ct.ensureIndexes()
	return &Writer{backend: backend, contentTypes: ct, rels: make(map[string][]*Relationship)}
}

// registerContentType records contentType for name in the content-types
// manifest. Once the manifest has been flushed (by WriteContentTypesStream,
// or implicitly by Close), registering a part that the manifest does not
// already resolve to contentType (whether its type differs or it resolves
// to no type at all) is an InconsistentManifest error - the manifest is
// append-only before the flush point and frozen after.
func (w *Writer) registerContentType(name, contentType string) error {
	norm := normalize(name)
	if existing, err := w.contentTypes.findType(norm); err == nil {
		if existing != contentType {
			if w.manifestOpen {
				return newError(KindInconsistentManifest, name)
			}
			w.contentTypes.add(norm, contentType)
			return nil
		}
		return nil
	} else if w.manifestOpen {
		return newError(KindInconsistentManifest, name)
	}
	w.contentTypes.add(norm, contentType)
	return nil
}

// OpenPart opens name for writing with the given content type. The caller
// must close the returned stream before opening another part, since most
// physical backends (ZIP included) serialize writes.
func (w *Writer) OpenPart(name, contentType string) (io.WriteCloser, error) {
	if err := checkPartName(name); err != nil {
		return nil, err
	}
	if err := w.registerContentType(name, contentType); err != nil {
		return nil, err
	}
	wc, err := w.backend.CreateItem(name, contentType)
	if err != nil {
		return nil, wrapError(KindIOFailure, name, err)
	}
	return wc, nil
}

// CreateFragmentedPart opens name for interleaved writing: the caller drives
// the returned FragmentWriter fragment by fragment, sealing the part with a
// final Next(true) call.
func (w *Writer) CreateFragmentedPart(name, contentType string) (*FragmentWriter, error) {
	if err := checkPartName(name); err != nil {
		return nil, err
	}
	if err := w.registerContentType(name, contentType); err != nil {
		return nil, err
	}
	return newFragmentWriter(name, contentType, w.backend), nil
}

// checkRelsSource reports whether source names a valid relationship source:
// either the package root ("/", which fails the strict part-name grammar on
// purpose) or a well-formed part name.
func checkRelsSource(source string) error {
	if source == "/" {
		return nil
	}
	return checkPartName(source)
}

// WriteRelationships stages rels as the relationships of source (a part
// name, or "/" for the package root), replacing any relationships
// previously staged for it. Nothing is written to the backend until Close.
func (w *Writer) WriteRelationships(source string, rels []*Relationship) error {
	if err := checkRelsSource(source); err != nil {
		return err
	}
	if err := validateRelationships(rels); err != nil {
		return err
	}
	norm := normalize(source)
	if _, exists := w.rels[norm]; !exists {
		w.relsOrder = append(w.relsOrder, norm)
	}
	w.rels[norm] = rels
	return nil
}

func (w *Writer) flushRelationships() error {
	for _, source := range w.relsOrder {
		rels := w.rels[source]
		relsName := relsPartFor(source)
		wc, err := w.OpenPart(relsName, RelationshipsContentType)
		if err != nil {
			return err
		}
		err = EncodeRelationships(wc, rels)
		closeErr := wc.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return wrapError(KindIOFailure, relsName, closeErr)
		}
	}
	return nil
}

// WriteContentTypesStream flushes the content-types manifest accumulated so
// far to the backend's reserved content-types item, and freezes it: later
// parts are accepted only if the written manifest already resolves them to
// the requested type.
// Called again after the manifest is already flushed, it is a no-op.
// Backends with no reserved content-types item (ContentTypesStreamName
// returning "") reject this with OperationNotApplicable.
func (w *Writer) WriteContentTypesStream() error {
	if w.manifestOpen {
		return nil
	}
	streamName := w.backend.ContentTypesStreamName()
	if streamName == "" {
		return newError(KindOperationNotApplicable, "")
	}
	wc, err := w.backend.CreateItem(streamName, "")
	if err != nil {
		return wrapError(KindIOFailure, streamName, err)
	}
	err = encodeContentTypes(wc, w.contentTypes)
	closeErr := wc.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return wrapError(KindIOFailure, streamName, closeErr)
	}
	w.manifestOpen = true
	return nil
}

// Close flushes any staged relationships and the content-types manifest (if
// not already flushed), then closes the underlying backend.
func (w *Writer) Close() error {
	if w.closed {
		return newError(KindAlreadyFinished, "")
	}
	w.closed = true
	if err := w.flushRelationships(); err != nil {
		return err
	}
	if err := w.WriteContentTypesStream(); err != nil {
		return err
	}
	return w.backend.Close()
}
