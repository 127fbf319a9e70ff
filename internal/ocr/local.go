package ocr

import (
	"errors"
	"image"
)

const DefaultLocalLanguage = "chi_sim"

// ErrLocalEngineUnavailable is returned by the probe when no in-process
// engine can be acquired.
var ErrLocalEngineUnavailable = errors.New("local OCR engine is not available")

// LocalOptions configures the in-process engine.
type LocalOptions struct {
	// Language is a Tesseract traineddata name, e.g. chi_sim.
	Language string
	Policy   EmptyTextPolicy
}

func (o LocalOptions) withDefaults() LocalOptions {
	if o.Language == "" {
		o.Language = DefaultLocalLanguage
	}
	if o.Policy == "" {
		o.Policy = PolicyStrict
	}
	return o
}

// rectPolygon returns the four corners of r clockwise from the top-left.
func rectPolygon(r image.Rectangle) []Point {
	return []Point{
		{float64(r.Min.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Min.Y)},
		{float64(r.Max.X), float64(r.Max.Y)},
		{float64(r.Min.X), float64(r.Max.Y)},
	}
}

// normalizeConfidence maps a 0..100 engine score to [0, 1].
func normalizeConfidence(score float64) float64 {
	c := score / 100
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
