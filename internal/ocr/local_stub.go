//go:build !ocr

package ocr

import "fmt"

// NewLocalEngine reports the engine as unavailable when the binary was built
// without the "ocr" tag. Rebuild with -tags ocr and install Tesseract
// (with the chi_sim traineddata) to enable it.
func NewLocalEngine(opts LocalOptions) (Recognizer, error) {
	return nil, fmt.Errorf("%w: built without the ocr tag", ErrLocalEngineUnavailable)
}
