package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResult marks a response that parsed as a valid but empty flashcard
// array. It is distinct from shape errors because an empty generation is the
// most common failure worth its own diagnostic.
var ErrEmptyResult = errors.New("no flashcards generated from the text")

// MalformedJSONError reports an extracted region that is not syntactically
// valid JSON. The full region is retained; Error() bounds the excerpt.
type MalformedJSONError struct {
	Err    error
	Region string
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("could not parse JSON response: %v: %.500s", e.Err, e.Region)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

// Issue is a single field-level validation failure.
type Issue struct {
	Path   string // e.g. items[2].question
	Reason string // e.g. empty, missing, not a string
}

func (i Issue) String() string { return i.Path + ": " + i.Reason }

// ValidationError reports syntactically valid JSON that does not satisfy the
// expected shape. All field failures are accumulated, not just the first.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("invalid response shape: %s", strings.Join(parts, "; "))
}
