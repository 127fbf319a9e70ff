//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// newEnglishEngine skips the test when Tesseract or its eng data is missing.
func newEnglishEngine(t *testing.T, policy EmptyTextPolicy) Recognizer {
	t.Helper()
	r, err := NewLocalEngine(LocalOptions{Language: "eng", Policy: policy})
	if err != nil {
		t.Skipf("tesseract with eng traineddata not available: %v", err)
	}
	return r
}

// renderJPEG draws each line in black on white and scales it up so the
// bitmap font is large enough for recognition.
func renderJPEG(t *testing.T, lines ...string) ([]byte, image.Rectangle) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 30+25*len(lines)))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	for i, line := range lines {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.Black,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(10, 30+25*i),
		}
		d.DrawString(line)
	}

	scaled := imaging.Resize(img, img.Bounds().Dx()*4, 0, imaging.NearestNeighbor)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes(), scaled.Bounds()
}

func TestTesseractRecognize_Lines(t *testing.T) {
	engine := newEnglishEngine(t, PolicyStrict)
	defer engine.Close()

	data, bounds := renderJPEG(t, "HELLO OCR", "GO SERVICE")
	outcome := engine.Recognize(context.Background(), data)

	segments, ok := outcome.Segments()
	if !ok {
		t.Fatalf("Expected success, got %v", outcome.Failure())
	}
	if len(segments) == 0 {
		t.Fatal("Expected at least one line")
	}

	var texts []string
	for i, s := range segments {
		texts = append(texts, s.Text)
		if s.Confidence < 0 || s.Confidence > 1 {
			t.Errorf("Segment %d: confidence %v outside [0, 1]", i, s.Confidence)
		}
		if len(s.BBox) != 4 {
			t.Fatalf("Segment %d: expected 4-point bbox, got %v", i, s.BBox)
		}
		topLeft, bottomRight := s.BBox[0], s.BBox[2]
		if topLeft[0] >= bottomRight[0] || topLeft[1] >= bottomRight[1] {
			t.Errorf("Segment %d: bbox is not clockwise from top-left: %v", i, s.BBox)
		}
		if bottomRight[0] > float64(bounds.Dx()) || bottomRight[1] > float64(bounds.Dy()) {
			t.Errorf("Segment %d: bbox %v outside %v", i, s.BBox, bounds)
		}
	}

	joined := strings.ToUpper(strings.Join(texts, "\n"))
	if !strings.Contains(joined, "HELLO") || !strings.Contains(joined, "SERVICE") {
		t.Errorf("Unexpected OCR output: %q", joined)
	}
	if strings.Index(joined, "HELLO") > strings.Index(joined, "SERVICE") {
		t.Errorf("Expected lines in reading order, got %q", joined)
	}
}

func TestTesseractRecognize_BlankImage(t *testing.T) {
	blank, _ := renderJPEG(t)

	strict := newEnglishEngine(t, PolicyStrict)
	defer strict.Close()
	if f := strict.Recognize(context.Background(), blank).Failure(); f == nil || f.Kind != FailureEmptyResult {
		t.Errorf("Expected empty_result under strict policy, got %v", f)
	}

	lenient := newEnglishEngine(t, PolicyLenient)
	defer lenient.Close()
	if segments, ok := lenient.Recognize(context.Background(), blank).Segments(); !ok || len(segments) != 0 {
		t.Errorf("Expected empty success under lenient policy, got %v (ok=%v)", segments, ok)
	}
}

func TestTesseractRecognize_CancelledContext(t *testing.T) {
	engine := newEnglishEngine(t, PolicyStrict)
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data, _ := renderJPEG(t, "HELLO")
	if f := engine.Recognize(ctx, data).Failure(); f == nil || f.Kind != FailureProvider {
		t.Errorf("Expected provider failure for cancelled context, got %v", f)
	}
}
