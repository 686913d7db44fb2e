package devimport

import "errors"

// Sentinel errors for device description import.
var (
	// ErrDocumentTooLarge indicates the document exceeds the size limit.
	ErrDocumentTooLarge = errors.New("device document exceeds maximum size limit")

	// ErrInvalidDocument indicates the input is not a JSON object.
	ErrInvalidDocument = errors.New("invalid device document")

	// ErrNoScript indicates no bus script matched the search pattern.
	ErrNoScript = errors.New("no bus script found")

	// ErrEncodingError indicates a file is not valid UTF-8.
	ErrEncodingError = errors.New("encoding error")
)
