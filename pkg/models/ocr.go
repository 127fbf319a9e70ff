package models

import (
	"strings"

	"github.com/anime-shed/ocr-gateway-go/internal/analyzer"
	"github.com/anime-shed/ocr-gateway-go/internal/ocr"
)

// OCRResponse is the success body of POST /ocr
type OCRResponse struct {
	Results []ocr.Segment `json:"results"`

	// Only present when the client supplied expected_text
	Accuracy *analyzer.Accuracy `json:"accuracy,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// Text joins the recognized segments one per line.
func (r *OCRResponse) Text() string {
	lines := make([]string, len(r.Results))
	for i, s := range r.Results {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n")
}
