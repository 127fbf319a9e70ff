package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// Accuracy compares recognized text against what the client expected to see.
type Accuracy struct {
	CER        float64 `json:"character_error_rate"`
	WER        float64 `json:"word_error_rate"`
	MatchScore float64 `json:"match_score"`
}

// TextScorer scores recognized text against a reference.
type TextScorer interface {
	Score(expected, recognized string) Accuracy
}

type errorRateScorer struct{}

// NewTextScorer creates a scorer based on character and word edit distance.
func NewTextScorer() TextScorer {
	return &errorRateScorer{}
}

// Score returns error rates relative to expected. Whitespace runs are
// collapsed first so line breaks from the provider do not count as errors.
func (s *errorRateScorer) Score(expected, recognized string) Accuracy {
	ref := normalizeWhitespace(expected)
	hyp := normalizeWhitespace(recognized)

	cer := characterErrorRate(ref, hyp)
	return Accuracy{
		CER:        cer,
		WER:        wordErrorRate(ref, hyp),
		MatchScore: clamp01(1 - cer),
	}
}

func characterErrorRate(ref, hyp string) float64 {
	n := utf8.RuneCountInString(ref)
	if n == 0 {
		if hyp == "" {
			return 0
		}
		return 1
	}
	return float64(levenshtein.Distance(ref, hyp)) / float64(n)
}

func wordErrorRate(ref, hyp string) float64 {
	refWords := strings.Fields(ref)
	hypWords := strings.Fields(hyp)
	if len(refWords) == 0 {
		if len(hypWords) == 0 {
			return 0
		}
		return 1
	}
	rate, _ := wer.WER(refWords, hypWords)
	return rate
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
