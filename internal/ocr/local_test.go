package ocr

import (
	"image"
	"testing"
)

func rectPolygonFor(x0, y0, x1, y1 int) []Point {
	return rectPolygon(image.Rect(x0, y0, x1, y1))
}

func TestRectPolygon(t *testing.T) {
	got := rectPolygonFor(10, 20, 110, 45)
	want := []Point{{10, 20}, {110, 20}, {110, 45}, {10, 45}}

	if len(got) != 4 {
		t.Fatalf("Expected 4 points, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Point %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNormalizeConfidence(t *testing.T) {
	tests := map[float64]float64{
		-1:    0,
		0:     0,
		87.5:  0.875,
		100:   1,
		130.2: 1,
	}
	for in, want := range tests {
		if got := normalizeConfidence(in); got != want {
			t.Errorf("normalizeConfidence(%v): expected %v, got %v", in, want, got)
		}
	}
}

func TestLocalOptions_Defaults(t *testing.T) {
	opts := LocalOptions{}.withDefaults()
	if opts.Language != DefaultLocalLanguage {
		t.Errorf("Expected %s, got %s", DefaultLocalLanguage, opts.Language)
	}
	if opts.Policy != PolicyStrict {
		t.Errorf("Expected strict policy, got %s", opts.Policy)
	}
}
