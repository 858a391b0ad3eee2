package services

import "errors"

// Input errors rejected before any I/O.
var (
	// ErrMissingID is returned when a transition request carries no id.
	ErrMissingID = errors.New("missing id")
	// ErrMissingQuestion is returned when neither the request nor the stored
	// record yields a non-empty question.
	ErrMissingQuestion = errors.New("missing question")
	// ErrUnknownItem is returned when an id resolves neither via the catalog
	// nor via the relevant source collection.
	ErrUnknownItem = errors.New("unknown item")
)
