// Package schema defines the typed values exchanged with the model and the
// shape validation that turns untrusted JSON into them. Validation is strict:
// a payload either becomes a fully valid value or fails with a structured
// error carrying every field-level problem found.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Flashcard is a single question/answer pair. Both fields are non-empty
// after trimming; instances are only created through validation.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Valid reports whether the card satisfies the non-empty invariant.
func (f Flashcard) Valid() bool {
	return strings.TrimSpace(f.Question) != "" && strings.TrimSpace(f.Answer) != ""
}

// FlashcardSet is an ordered sequence of flashcards. Each phase of the
// workflow produces a whole new set; sets are never patched in place.
type FlashcardSet []Flashcard

// Feedback is the structured critique produced by the reflection phase.
// The three list fields may be empty; OverallQuality never is.
type Feedback struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	OverallQuality  string   `json:"overall_quality"`
}

// ValidateFlashcards parses a JSON region and validates it as a non-empty
// array of flashcards. Parse failures return *MalformedJSONError, an empty
// array returns ErrEmptyResult, and shape problems return a *ValidationError
// listing every offending field.
func ValidateFlashcards(region string) (FlashcardSet, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(region), &payload); err != nil {
		return nil, &MalformedJSONError{Err: err, Region: region}
	}

	items, ok := payload.([]interface{})
	if !ok {
		return nil, &ValidationError{Issues: []Issue{{Path: "items", Reason: "not a JSON array"}}}
	}
	if len(items) == 0 {
		return nil, ErrEmptyResult
	}

	set := make(FlashcardSet, 0, len(items))
	var issues []Issue
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			issues = append(issues, Issue{Path: fmt.Sprintf("items[%d]", i), Reason: "not a JSON object"})
			continue
		}
		question, qIssues := stringField(obj, "question", fmt.Sprintf("items[%d].question", i))
		answer, aIssues := stringField(obj, "answer", fmt.Sprintf("items[%d].answer", i))
		issues = append(issues, qIssues...)
		issues = append(issues, aIssues...)
		if len(qIssues) == 0 && len(aIssues) == 0 {
			set = append(set, Flashcard{Question: question, Answer: answer})
		}
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}
	return set, nil
}

// ValidateFeedback parses a JSON region and validates it as a feedback
// object. Missing or malformed list fields degrade to empty lists;
// overall_quality is mandatory.
func ValidateFeedback(region string) (*Feedback, error) {
	var payload interface{}
	if err := json.Unmarshal([]byte(region), &payload); err != nil {
		return nil, &MalformedJSONError{Err: err, Region: region}
	}

	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil, &ValidationError{Issues: []Issue{{Path: "feedback", Reason: "not a JSON object"}}}
	}

	fb := &Feedback{
		Strengths:       stringList(obj, "strengths"),
		Weaknesses:      stringList(obj, "weaknesses"),
		Recommendations: stringList(obj, "recommendations"),
	}

	quality, _ := obj["overall_quality"].(string)
	quality = strings.TrimSpace(quality)
	if quality == "" {
		return nil, &ValidationError{Issues: []Issue{{Path: "overall_quality", Reason: "missing or empty"}}}
	}
	fb.OverallQuality = quality

	return fb, nil
}

// stringField extracts a trimmed, non-empty string field from an object,
// reporting missing, mistyped, and blank values separately.
func stringField(obj map[string]interface{}, key, path string) (string, []Issue) {
	raw, present := obj[key]
	if !present {
		return "", []Issue{{Path: path, Reason: "missing"}}
	}
	s, ok := raw.(string)
	if !ok {
		return "", []Issue{{Path: path, Reason: "not a string"}}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", []Issue{{Path: path, Reason: "empty"}}
	}
	return s, nil
}

// stringList extracts a list of trimmed, non-empty strings. Anything that is
// not a list of strings degrades to an empty list rather than failing.
func stringList(obj map[string]interface{}, key string) []string {
	out := []string{}
	raw, ok := obj[key].([]interface{})
	if !ok {
		return out
	}
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
