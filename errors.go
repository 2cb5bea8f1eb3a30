package opc

import "fmt"

// Kind identifies the category of an OPC conformance failure, independent of
// the diagnostic message attached to it. Callers should branch on Kind
// rather than on the string produced by Error(), mirroring the numbered
// conformance-clause codes used by qmuntal/opc, the direct ancestor of this
// package's reader/writer design.
type Kind string

// The error kinds this package can return, as enumerated by the OPC
// packaging specification's error handling design.
const (
	KindMalformedName          Kind = "malformed_name"
	KindMalformedReference     Kind = "malformed_reference"
	KindMalformedRelationship  Kind = "malformed_relationship"
	KindUnknownContentType     Kind = "unknown_content_type"
	KindNotFound               Kind = "not_found"
	KindMissingFragment        Kind = "missing_fragment"
	KindInconsistentManifest   Kind = "inconsistent_manifest"
	KindAlreadyFinished        Kind = "already_finished"
	KindOperationNotApplicable Kind = "operation_not_applicable"
	KindMalformedXML           Kind = "malformed_xml"
	KindIOFailure              Kind = "io_failure"
)

var kindMessages = map[Kind]string{
	KindMalformedName:          "part name does not conform to the OPC part-name grammar",
	KindMalformedReference:     "relative reference could not be resolved against its source part",
	KindMalformedRelationship:  "relationship is missing a required field or has an unrecognized target mode",
	KindUnknownContentType:     "part has no resolvable content type",
	KindNotFound:               "part does not exist in the package",
	KindMissingFragment:        "an expected fragment of an interleaved part is missing",
	KindInconsistentManifest:   "content type disagrees with the content-types manifest already written",
	KindAlreadyFinished:        "fragmented part has already been finished",
	KindOperationNotApplicable: "operation does not apply to this physical backend",
	KindMalformedXML:           "malformed XML",
	KindIOFailure:              "physical backend I/O failure",
}

// Error reports a single OPC conformance failure. Name holds the part,
// reference, or other value that triggered it; it is empty for failures
// not tied to a single value (for example a backend I/O error on the whole
// container, or closing a Writer twice).
type Error struct {
	Kind   Kind
	Name   string // offending part name, reference, or other diagnostic value
	RelID  string // relationship ID, set only when the error concerns one
	Err    error  // wrapped cause, set when the failure originated in a backend
}

func newError(kind Kind, name string) *Error {
	return &Error{Kind: kind, Name: name}
}

func newErrorRelationship(kind Kind, name, relID string) *Error {
	return &Error{Kind: kind, Name: name, RelID: relID}
}

func wrapError(kind Kind, name string, err error) *Error {
	return &Error{Kind: kind, Name: name, Err: err}
}

func (e *Error) Error() string {
	msg, ok := kindMessages[e.Kind]
	if !ok {
		msg = string(e.Kind)
	}
	if e.RelID != "" {
		msg = fmt.Sprintf("%s (relationship %s)", msg, e.RelID)
	}
	if e.Err != nil {
		return fmt.Sprintf("opc: %s: %s: %v", e.Name, msg, e.Err)
	}
	return fmt.Sprintf("opc: %s: %s", e.Name, msg)
}

// Unwrap exposes the wrapped backend error, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}
