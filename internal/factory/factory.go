package factory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/ocr-gateway-go/internal/logger"
	"github.com/anime-shed/ocr-gateway-go/internal/ocr"
)

// BackendKind names an OCR backend variant
type BackendKind string

const (
	// AutoBackend probes for the local engine and falls back to the remote provider
	AutoBackend BackendKind = "auto"
	// LocalBackend requires the in-process engine
	LocalBackend BackendKind = "local"
	// RemoteBackend always uses the HTTP provider
	RemoteBackend BackendKind = "remote"
)

// ParseBackendKind maps a config value to a BackendKind
func ParseBackendKind(value string) (BackendKind, error) {
	switch kind := BackendKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case AutoBackend, LocalBackend, RemoteBackend:
		return kind, nil
	case "":
		return AutoBackend, nil
	default:
		return "", fmt.Errorf("unsupported backend type: %s", value)
	}
}

// RecognizerFactory resolves the process-wide backend once at startup
type RecognizerFactory struct {
	Local  ocr.LocalOptions
	Remote ocr.RemoteOptions

	// Constructors are swappable so selection can be tested without Tesseract
	NewLocal  func(ocr.LocalOptions) (ocr.Recognizer, error)
	NewRemote func(ocr.RemoteOptions) (ocr.Recognizer, error)
}

// NewRecognizerFactory creates a factory wired to the real backends
func NewRecognizerFactory(local ocr.LocalOptions, remote ocr.RemoteOptions) *RecognizerFactory {
	return &RecognizerFactory{
		Local:    local,
		Remote:   remote,
		NewLocal: ocr.NewLocalEngine,
		NewRemote: func(opts ocr.RemoteOptions) (ocr.Recognizer, error) {
			return ocr.NewRemoteClient(opts)
		},
	}
}

// CreateRecognizer builds the recognizer for kind. Auto tries the local
// engine first; any probe failure selects the remote provider instead.
func (f *RecognizerFactory) CreateRecognizer(kind BackendKind) (ocr.Recognizer, error) {
	switch kind {
	case LocalBackend:
		r, err := f.NewLocal(f.Local)
		if err != nil {
			return nil, fmt.Errorf("local backend requested: %w", err)
		}
		return r, nil
	case RemoteBackend:
		return f.createRemote()
	case AutoBackend:
		r, err := f.NewLocal(f.Local)
		if err == nil {
			logger.WithField("backend", r.Name()).Info("Local OCR engine available")
			return r, nil
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"fallback": RemoteBackend,
		}).Info("Local OCR engine unavailable, using remote provider")
		remote, rerr := f.createRemote()
		if rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", kind)
	}
}

func (f *RecognizerFactory) createRemote() (ocr.Recognizer, error) {
	r, err := f.NewRemote(f.Remote)
	if err != nil {
		return nil, fmt.Errorf("remote backend: %w", err)
	}
	return r, nil
}
