package opc

import (
	"fmt"
	"io"
)

// fragmentReader reassembles an interleaved (fragmented) part's ordered
// physical fragments into a single sequential byte stream. Ported from
// pyecma376_2.package_model.FragmentedPartReader: fragment 0 is opened at
// construction; a Read that drains the current fragment transparently opens
// the next one, until the most recently opened fragment carried the
// ".last.piece" suffix and has itself returned EOF.
type fragmentReader struct {
	name     string
	backend  ReaderBackend
	index    int
	finished bool
	current  io.ReadCloser
}

func newFragmentReader(name string, backend ReaderBackend) (*fragmentReader, error) {
	fr := &fragmentReader{name: name, backend: backend}
	if err := fr.openNext(); err != nil {
		return nil, err
	}
	return fr, nil
}

func (fr *fragmentReader) openNext() error {
	plain := fmt.Sprintf("%s/[%d].piece", fr.name, fr.index)
	if rc, err := fr.backend.OpenItem(plain); err == nil {
		fr.current = rc
		fr.index++
		return nil
	}
	last := fmt.Sprintf("%s/[%d].last.piece", fr.name, fr.index)
	rc, err := fr.backend.OpenItem(last)
	if err != nil {
		return newError(KindMissingFragment, fmt.Sprintf("%s/[%d]", fr.name, fr.index))
	}
	fr.current = rc
	fr.index++
	fr.finished = true
	return nil
}

// Read implements io.Reader. Not seekable: fragments are consumed strictly
// in order.
func (fr *fragmentReader) Read(p []byte) (int, error) {
	for {
		n, err := fr.current.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != io.EOF {
			return 0, wrapError(KindIOFailure, fr.name, err)
		}
		if fr.finished {
			return 0, io.EOF
		}
		fr.current.Close()
		if openErr := fr.openNext(); openErr != nil {
			return 0, openErr
		}
	}
}

// Close releases the currently open fragment.
func (fr *fragmentReader) Close() error {
	if fr.current == nil {
		return nil
	}
	return fr.current.Close()
}

// FragmentWriter emits an interleaved part's ordered fragments to a
// WriterBackend. Obtained from Writer.CreateFragmentedPart. Ported from
// pyecma376_2.package_model.FragmentedPartWriterHandle: the caller decides,
// fragment by fragment, when to seal the part by passing last=true.
type FragmentWriter struct {
	name        string
	contentType string
	backend     WriterBackend
	index       int
	finished    bool
}

func newFragmentWriter(name, contentType string, backend WriterBackend) *FragmentWriter {
	return &FragmentWriter{name: name, contentType: contentType, backend: backend}
}

// Next opens the next fragment for writing. The caller must close the
// returned stream before calling Next again. Pass last=true to seal the
// part: the fragment is emitted with the ".last.piece" suffix, and any
// further call to Next fails with AlreadyFinished.
func (fw *FragmentWriter) Next(last bool) (io.WriteCloser, error) {
	if fw.finished {
		return nil, newError(KindAlreadyFinished, fw.name)
	}
	suffix := ".piece"
	if last {
		suffix = ".last.piece"
	}
	itemName := fmt.Sprintf("%s/[%d]%s", fw.name, fw.index, suffix)
	w, err := fw.backend.CreateItem(itemName, fw.contentType)
	if err != nil {
		return nil, wrapError(KindIOFailure, itemName, err)
	}
	fw.index++
	fw.finished = last
	return w, nil
}
