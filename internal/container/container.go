package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/ocr-gateway-go/internal/analyzer"
	"github.com/anime-shed/ocr-gateway-go/internal/config"
	"github.com/anime-shed/ocr-gateway-go/internal/factory"
	"github.com/anime-shed/ocr-gateway-go/internal/logger"
	"github.com/anime-shed/ocr-gateway-go/internal/observer"
	"github.com/anime-shed/ocr-gateway-go/internal/ocr"
	"github.com/anime-shed/ocr-gateway-go/internal/preprocess"
	"github.com/anime-shed/ocr-gateway-go/internal/service"
	"github.com/anime-shed/ocr-gateway-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	recognizer ocr.Recognizer
	ocrService service.OCRService
	handler    http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	return newContainer(cfg, nil)
}

// newContainer builds the graph; a non-nil factory replaces the real backends.
func newContainer(cfg *config.Config, recognizers *factory.RecognizerFactory) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)

	normalizer, err := preprocess.NewNormalizer(preprocess.Options{
		MaxDimension: cfg.Image.MaxDimension,
		JPEGQuality:  cfg.Image.JPEGQuality,
		MaxPixels:    cfg.Image.MaxPixels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create normalizer: %w", err)
	}

	policy, err := ocr.ParseEmptyTextPolicy(cfg.OCR.EmptyTextPolicy)
	if err != nil {
		return nil, err
	}
	kind, err := factory.ParseBackendKind(cfg.OCR.Backend)
	if err != nil {
		return nil, err
	}

	if recognizers == nil {
		recognizers = factory.NewRecognizerFactory(
			ocr.LocalOptions{
				Language: cfg.OCR.LocalLanguage,
				Policy:   policy,
			},
			ocr.RemoteOptions{
				Endpoint: cfg.OCR.APIURL,
				APIKey:   cfg.OCR.APIKey,
				Language: cfg.OCR.Language,
				Engine:   cfg.OCR.Engine,
				Timeout:  cfg.OCR.ProviderTimeout,
				Policy:   policy,
			},
		)
	}
	recognizer, err := recognizers.CreateRecognizer(kind)
	if err != nil {
		return nil, fmt.Errorf("failed to select OCR backend: %w", err)
	}

	events := observer.NewEventPublisher(observer.NewLoggingObserver(logger.Logger))
	ocrService := service.NewOCRService(normalizer, recognizer, analyzer.NewTextScorer(), events)
	handler := transport.NewHandler(ocrService, cfg)

	return &Container{
		recognizer: recognizer,
		ocrService: ocrService,
		handler:    handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Backend names the OCR backend chosen at startup
func (c *Container) Backend() string {
	return c.recognizer.Name()
}

// Close releases the recognizer
func (c *Container) Close() error {
	return c.recognizer.Close()
}
