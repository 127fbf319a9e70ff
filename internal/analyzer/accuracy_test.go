package analyzer

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		expected   string
		recognized string
		cer        float64
		wer        float64
		match      float64
	}{
		{"exact match", "Hello World", "Hello World", 0, 0, 1},
		{"line breaks ignored", "Hello World", "Hello\nWorld ", 0, 0, 1},
		{"one wrong character", "Hello World", "Hallo World", 1.0 / 11, 0.5, 1 - 1.0/11},
		{"chinese characters", "你好世界", "你好世", 0.25, 1, 0.75},
		{"nothing recognized", "abc", "", 1, 1, 0},
		{"both empty", "", "", 0, 0, 1},
		{"unexpected text", "", "noise", 1, 1, 0},
		{"far off", "ab", "xyzuvw", 3, 1, 0},
	}

	scorer := NewTextScorer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.expected, tt.recognized)
			if !almostEqual(got.CER, tt.cer) {
				t.Errorf("Expected CER %v, got %v", tt.cer, got.CER)
			}
			if !almostEqual(got.WER, tt.wer) {
				t.Errorf("Expected WER %v, got %v", tt.wer, got.WER)
			}
			if !almostEqual(got.MatchScore, tt.match) {
				t.Errorf("Expected match score %v, got %v", tt.match, got.MatchScore)
			}
		})
	}
}
