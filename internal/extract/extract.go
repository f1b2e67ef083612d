// Package extract locates the JSON region inside raw model output. Models
// routinely wrap JSON in prose or markdown fences; carving from the first
// opening bracket to the last closing bracket tolerates all of that without
// attempting to parse. Parsing belongs to the schema package.
package extract

import (
	"fmt"
	"strings"
)

// Kind names the bracket pair a caller expects.
type Kind string

const (
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// NoJSONError reports raw text with no plausible JSON region of the
// requested kind. The full raw text is retained; Error() bounds the excerpt.
type NoJSONError struct {
	Kind Kind
	Raw  string
}

func (e *NoJSONError) Error() string {
	return fmt.Sprintf("could not find JSON %s in response: %.200s", e.Kind, e.Raw)
}

// Array returns the slice of raw from the first '[' to the last ']',
// inclusive. Idempotent: an already-carved region is returned unchanged.
func Array(raw string) (string, error) {
	return region(raw, '[', ']', KindArray)
}

// Object returns the slice of raw from the first '{' to the last '}',
// inclusive.
func Object(raw string) (string, error) {
	return region(raw, '{', '}', KindObject)
}

func region(raw string, opening, closing byte, kind Kind) (string, error) {
	start := strings.IndexByte(raw, opening)
	end := strings.LastIndexByte(raw, closing)
	if start == -1 || end <= start {
		return "", &NoJSONError{Kind: kind, Raw: raw}
	}
	return raw[start : end+1], nil
}
