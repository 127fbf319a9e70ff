package service

import (
	"context"
	"errors"
	"time"

	"github.com/anime-shed/ocr-gateway-go/internal/analyzer"
	apperrors "github.com/anime-shed/ocr-gateway-go/internal/errors"
	"github.com/anime-shed/ocr-gateway-go/internal/observer"
	"github.com/anime-shed/ocr-gateway-go/internal/ocr"
	"github.com/anime-shed/ocr-gateway-go/internal/preprocess"
	"github.com/anime-shed/ocr-gateway-go/pkg/models"
)

// Upload is one image received from a client. It lives for a single request.
type Upload struct {
	RequestID   string
	Filename    string
	ContentType string
	Data        []byte

	// ExpectedText enables accuracy scoring when non-empty
	ExpectedText string
}

// OCRService runs the normalize → recognize pipeline for one upload
type OCRService interface {
	Recognize(ctx context.Context, upload Upload) (*models.OCRResponse, error)

	// Backend names the recognizer chosen at startup
	Backend() string
}

type ocrService struct {
	normalizer preprocess.Normalizer
	recognizer ocr.Recognizer
	scorer     analyzer.TextScorer
	events     observer.Subject
}

// NewOCRService creates a new OCR service
func NewOCRService(
	normalizer preprocess.Normalizer,
	recognizer ocr.Recognizer,
	scorer analyzer.TextScorer,
	events observer.Subject,
) OCRService {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &ocrService{
		normalizer: normalizer,
		recognizer: recognizer,
		scorer:     scorer,
		events:     events,
	}
}

func (s *ocrService) Backend() string {
	return s.recognizer.Name()
}

// Recognize normalizes the upload, sends it to the backend and converts the
// outcome. Failures are returned as AppErrors.
func (s *ocrService) Recognize(ctx context.Context, upload Upload) (*models.OCRResponse, error) {
	start := time.Now()
	base := observer.RecognitionEvent{
		RequestID: upload.RequestID,
		Filename:  upload.Filename,
		Backend:   s.recognizer.Name(),
	}
	s.publish(ctx, base, observer.RecognitionStarted, start, nil)

	normalized, err := s.normalizer.Normalize(upload.Data)
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			err = apperrors.NewPreprocessingError("image preprocessing failed: "+err.Error(), err)
		}
		s.publish(ctx, base, observer.ImageNormalizeFailed, start, err)
		return nil, err
	}
	s.publish(ctx, withMetadata(base, map[string]interface{}{
		"input_bytes":      len(upload.Data),
		"normalized_bytes": len(normalized),
	}), observer.ImageNormalized, start, nil)

	outcome := s.recognizer.Recognize(ctx, normalized)
	if f := outcome.Failure(); f != nil {
		err := toAppError(f)
		s.publish(ctx, withMetadata(base, map[string]interface{}{
			"failure_kind": string(f.Kind),
		}), observer.RecognitionFailed, start, err)
		return nil, err
	}

	segments, _ := outcome.Segments()
	response := &models.OCRResponse{Results: segments}
	if upload.ExpectedText != "" {
		accuracy := s.scorer.Score(upload.ExpectedText, response.Text())
		response.Accuracy = &accuracy
	}

	s.publish(ctx, withMetadata(base, map[string]interface{}{
		"segments": len(segments),
	}), observer.RecognitionCompleted, start, nil)
	return response, nil
}

func toAppError(f *ocr.Failure) *apperrors.AppError {
	if f.Kind == ocr.FailureEmptyResult {
		return apperrors.NewEmptyResultError(f.Message)
	}
	return apperrors.NewProviderError(f.Message, f.Cause)
}

func (s *ocrService) publish(ctx context.Context, event observer.RecognitionEvent, kind observer.EventType, start time.Time, err error) {
	event.EventType = kind
	event.ProcessingTime = time.Since(start)
	event.Success = err == nil
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	s.events.NotifyObservers(ctx, event)
}

func withMetadata(event observer.RecognitionEvent, metadata map[string]interface{}) observer.RecognitionEvent {
	event.Metadata = metadata
	return event
}
