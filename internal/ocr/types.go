// Package ocr defines the uniform recognition contract and its two
// backends: a remote OCR.space-compatible HTTP provider and an optional
// in-process Tesseract engine.
package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultConfidence is reported for providers that return no per-segment score.
const DefaultConfidence = 0.9

// EmptyResultMessage is the client-facing text for a recognition with no text.
const EmptyResultMessage = "no text recognized"

// Point is an (x, y) pixel coordinate; it serialises as [x, y].
type Point [2]float64

// Segment is one recognized unit of text.
type Segment struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       []Point `json:"bbox"`
}

// MarshalJSON keeps bbox an array even when no geometry is known.
func (s Segment) MarshalJSON() ([]byte, error) {
	type plain Segment
	p := plain(s)
	if p.BBox == nil {
		p.BBox = []Point{}
	}
	return json.Marshal(p)
}

// FailureKind distinguishes why a recognition produced no segments.
type FailureKind string

const (
	FailureProvider    FailureKind = "provider"
	FailureEmptyResult FailureKind = "empty_result"
)

// Failure describes an unsuccessful recognition.
type Failure struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Outcome is either a list of segments or a Failure, never both.
// The zero value is a successful empty result.
type Outcome struct {
	segments []Segment
	failure  *Failure
}

// Ok builds a successful outcome.
func Ok(segments []Segment) Outcome {
	if segments == nil {
		segments = []Segment{}
	}
	return Outcome{segments: segments}
}

// Fail builds a failed outcome.
func Fail(kind FailureKind, message string, cause error) Outcome {
	return Outcome{failure: &Failure{Kind: kind, Message: message, Cause: cause}}
}

// Segments returns the recognized segments and true, or nil and false for a failure.
func (o Outcome) Segments() ([]Segment, bool) {
	if o.failure != nil {
		return nil, false
	}
	return o.segments, true
}

// Failure returns the failure, or nil for a successful outcome.
func (o Outcome) Failure() *Failure {
	return o.failure
}

// Recognizer is the single capability every backend provides.
type Recognizer interface {
	Recognize(ctx context.Context, jpeg []byte) Outcome
	Name() string
	Close() error
}

// EmptyTextPolicy decides what happens to segments without text.
type EmptyTextPolicy string

const (
	// PolicyStrict drops empty segments and fails when none remain.
	PolicyStrict EmptyTextPolicy = "strict"
	// PolicyLenient keeps every segment; an empty list is a valid result.
	PolicyLenient EmptyTextPolicy = "lenient"
)

// ParseEmptyTextPolicy maps a config value to a policy.
func ParseEmptyTextPolicy(value string) (EmptyTextPolicy, error) {
	switch p := EmptyTextPolicy(strings.ToLower(strings.TrimSpace(value))); p {
	case PolicyStrict, PolicyLenient:
		return p, nil
	case "":
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown empty text policy: %q", value)
	}
}

// filter applies the policy to segments whose text is already trimmed.
func (p EmptyTextPolicy) filter(segments []Segment) Outcome {
	if p == PolicyLenient {
		return Ok(segments)
	}
	kept := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Text != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return Fail(FailureEmptyResult, EmptyResultMessage, nil)
	}
	return Ok(kept)
}

// requireAny fails an empty list under the strict policy without dropping
// individual segments.
func (p EmptyTextPolicy) requireAny(segments []Segment) Outcome {
	if p != PolicyLenient && len(segments) == 0 {
		return Fail(FailureEmptyResult, EmptyResultMessage, nil)
	}
	return Ok(segments)
}
