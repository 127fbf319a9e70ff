//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs recognition in-process through gosseract. A client is
// created per call because gosseract clients are not safe for concurrent use.
type Tesseract struct {
	opts LocalOptions
}

// NewLocalEngine probes for a usable Tesseract installation with the
// requested language and returns it as a Recognizer.
func NewLocalEngine(opts LocalOptions) (Recognizer, error) {
	opts = opts.withDefaults()

	languages, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocalEngineUnavailable, err)
	}
	for _, lang := range strings.Split(opts.Language, "+") {
		if !slices.Contains(languages, lang) {
			return nil, fmt.Errorf("%w: language %q is not installed", ErrLocalEngineUnavailable, lang)
		}
	}

	return &Tesseract{opts: opts}, nil
}

func (t *Tesseract) Name() string { return "local" }

func (t *Tesseract) Close() error { return nil }

// Recognize returns one segment per detected text line. Orientation and
// script detection stands in for angle classification. Lines are never
// dropped; only a result with no lines at all is subject to the policy.
func (t *Tesseract) Recognize(ctx context.Context, jpeg []byte) Outcome {
	if err := ctx.Err(); err != nil {
		return Fail(FailureProvider, fmt.Sprintf("OCR processing aborted: %v", err), err)
	}

	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetLanguage(strings.Split(t.opts.Language, "+")...); err != nil {
		return Fail(FailureProvider, fmt.Sprintf("OCR engine setup failed: %v", err), err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO_OSD); err != nil {
		return Fail(FailureProvider, fmt.Sprintf("OCR engine setup failed: %v", err), err)
	}
	if err := c.SetImageFromBytes(jpeg); err != nil {
		return Fail(FailureProvider, fmt.Sprintf("OCR engine could not read image: %v", err), err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Fail(FailureProvider, fmt.Sprintf("OCR processing failed: %v", err), err)
	}

	segments := make([]Segment, 0, len(boxes))
	for _, b := range boxes {
		segments = append(segments, Segment{
			Text:       strings.TrimSpace(b.Word),
			Confidence: normalizeConfidence(b.Confidence),
			BBox:       rectPolygon(b.Box),
		})
	}
	return t.opts.Policy.requireAny(segments)
}
