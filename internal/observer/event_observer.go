package observer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/ocr-gateway-go/internal/logger"
)

// RecognitionEvent describes one step of a request's OCR pipeline
type RecognitionEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	Filename       string                 `json:"filename,omitempty"`
	Backend        string                 `json:"backend"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of recognition event
type EventType string

const (
	RecognitionStarted   EventType = "recognition_started"
	ImageNormalized      EventType = "image_normalized"
	ImageNormalizeFailed EventType = "image_normalize_failed"
	RecognitionCompleted EventType = "recognition_completed"
	RecognitionFailed    EventType = "recognition_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event RecognitionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	NotifyObservers(ctx context.Context, event RecognitionEvent)
}

// LoggingObserver logs recognition events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(log *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: log,
	}
}

// OnEvent handles recognition events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event RecognitionEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"backend":            event.Backend,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.Filename != "" {
		fields["filename"] = event.Filename
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case RecognitionStarted:
		entry.Debug("OCR recognition started")
	case ImageNormalized:
		entry.Debug("Image normalized")
	case ImageNormalizeFailed:
		entry.Error("Image preprocessing failed")
	case RecognitionCompleted:
		entry.Info("OCR recognition completed")
	case RecognitionFailed:
		entry.Error("OCR recognition failed")
	default:
		entry.Info("Recognition event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher fans events out to a fixed set of observers. The set is
// fixed at construction so requests share no mutable state.
type EventPublisher struct {
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(observers ...Observer) Subject {
	return &EventPublisher{
		observers: append([]Observer(nil), observers...),
	}
}

// NotifyObservers delivers the event synchronously on the caller's goroutine.
// A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event RecognitionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, obs := range p.observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event RecognitionEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"observer":   obs.GetObserverName(),
				"event_type": event.EventType,
				"panic":      r,
			}).Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
