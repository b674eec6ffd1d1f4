package docs

import (
	"errors"
	"fmt"
)

// Kind classifies service failures. Every error leaving this package carries
// exactly one kind so callers can map outcomes without string matching.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindMalformedInput Kind = "malformed_input"
	KindNotFound       Kind = "not_found"
	KindCapability     Kind = "capability"
	KindConflict       Kind = "conflict"
	KindClosed         Kind = "closed"
	KindResource       Kind = "resource"
)

// Error pairs a failure kind with a stable numeric code.
type Error struct {
	kind Kind
	code int
	err  error
}

func (e Error) Error() string {
	if e.err == nil {
		return string(e.kind)
	}
	return e.err.Error()
}

func (e Error) Unwrap() error {
	return e.err
}

// Kind returns the failure classification.
func (e Error) Kind() Kind {
	return e.kind
}

// Code returns the stable numeric code.
func (e Error) Code() int {
	return e.code
}

func makeError(kind Kind, code int, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}

	var existing Error
	if errors.As(err, &existing) {
		if existing.kind != "" {
			return existing
		}
	}

	return Error{kind: kind, code: code, err: err}
}

// KindOf extracts the kind, or KindResource for unclassified errors.
func KindOf(err error) Kind {
	var e Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindResource
}

// CodeOf extracts the numeric code, falling back to the kind default.
func CodeOf(err error) int {
	var e Error
	if errors.As(err, &e) && e.code > 0 {
		return e.code
	}
	return defaultErrorCodeByKind(KindOf(err))
}

func validationCode(code int, err error) error {
	return makeError(KindValidation, code, err)
}

func malformed(err error) error {
	return malformedCode(ErrCodeInvalidJSON, err)
}

func malformedCode(code int, err error) error {
	return makeError(KindMalformedInput, code, err)
}

func notFoundCode(code int, err error) error {
	return makeError(KindNotFound, code, err)
}

func capabilityError(err error) error {
	return capabilityCode(ErrCodeReadOnly, err)
}

func capabilityCode(code int, err error) error {
	return makeError(KindCapability, code, err)
}

func conflict(err error) error {
	return conflictCode(ErrCodeConflict, err)
}

func conflictCode(code int, err error) error {
	return makeError(KindConflict, code, err)
}

func closedError(code int, err error) error {
	return makeError(KindClosed, code, err)
}

func resourceError(err error) error {
	return resourceCode(ErrCodeStoreFailure, err)
}

func resourceCode(code int, err error) error {
	return makeError(KindResource, code, err)
}

func errHandleClosed() error {
	return closedError(ErrCodeHandleClosed, fmt.Errorf("handle is closed"))
}

// errDocumentDropped reads as not-found: drop is terminal, so a stale
// handle fails the same way a fresh Open on the dropped id does.
func errDocumentDropped() error {
	return notFoundCode(ErrCodeDocumentDropped, fmt.Errorf("document was dropped"))
}

func errServiceClosed() error {
	return closedError(ErrCodeServiceClosed, fmt.Errorf("document service is closed"))
}
