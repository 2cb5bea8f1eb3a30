package opc

import "io"

// ReaderBackend is the minimal read surface a physical container format
// must provide for Reader to enumerate and open its items. Names passed to
// and returned from these methods are the logical part names as the backend
// encodes them (the ZIP adapter, for instance, strips and restores the
// leading "/").
type ReaderBackend interface {
	// ListItems returns every physical item name stored in the container,
	// in the backend's natural enumeration order.
	ListItems() ([]string, error)
	// OpenItem opens a sequential byte stream for the named physical item.
	OpenItem(name string) (io.ReadCloser, error)
	// ContentTypesStreamName names the reserved physical item the backend
	// uses to store the content-types manifest, or "" if the physical
	// format instead carries a native MIME type per item.
	ContentTypesStreamName() string
}

// WriterBackend is the minimal write surface a physical container format
// must provide for Writer to emit logical parts.
type WriterBackend interface {
	// CreateItem opens a new physical item for writing. A backend whose
	// physical format serializes entries (as ZIP does) may reject a second
	// concurrently open item.
	CreateItem(name, contentType string) (io.WriteCloser, error)
	// ContentTypesStreamName names the reserved physical item the backend
	// uses to store the content-types manifest, or "" if not applicable.
	ContentTypesStreamName() string
	// Close releases the backend, finalizing any buffered physical state.
	Close() error
}
