package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/ocr-gateway-go/internal/logger"
)

const (
	DefaultRemoteLanguage = "chs"
	DefaultRemoteEngine   = "2"
	DefaultRemoteTimeout  = 30 * time.Second

	// maxResponseBytes caps how much of a provider response is decoded.
	maxResponseBytes = 10 << 20
)

// ErrMissingAPIKey is returned when the remote backend has no credential.
var ErrMissingAPIKey = errors.New("OCR provider API key is not configured (set OCR_API_KEY)")

// RemoteOptions configures the HTTP provider client.
type RemoteOptions struct {
	Endpoint string
	APIKey   string
	Language string
	// Engine is sent as OCREngine when non-empty.
	Engine  string
	Timeout time.Duration
	Policy  EmptyTextPolicy
	// Client overrides the default HTTP client, mainly for tests.
	Client *http.Client
}

// RemoteClient talks to an OCR.space-compatible endpoint.
type RemoteClient struct {
	opts   RemoteOptions
	client *http.Client
}

// ocrSpaceResponse is the subset of the provider payload we read.
// ErrorMessage is a string or an array of strings depending on the failure.
type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
}

// NewRemoteClient validates opts and builds a client with a bounded timeout.
func NewRemoteClient(opts RemoteOptions) (*RemoteClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, fmt.Errorf("OCR provider endpoint is not configured")
	}
	if opts.Language == "" {
		opts.Language = DefaultRemoteLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRemoteTimeout
	}
	if opts.Policy == "" {
		opts.Policy = PolicyStrict
	}

	client := opts.Client
	if client == nil {
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,

			TLSHandshakeTimeout:    10 * time.Second,
			ExpectContinueTimeout:  1 * time.Second,
			MaxResponseHeaderBytes: 16 << 10,
		}
		client = &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		}
	}

	return &RemoteClient{opts: opts, client: client}, nil
}

func (r *RemoteClient) Name() string { return "remote" }

func (r *RemoteClient) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// Recognize posts the image as a base64 data URI and maps the provider's
// ParsedResults to segments. It makes exactly one request.
func (r *RemoteClient) Recognize(ctx context.Context, jpeg []byte) Outcome {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	form := url.Values{}
	form.Set("base64Image", "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(jpeg))
	form.Set("apikey", r.opts.APIKey)
	form.Set("language", r.opts.Language)
	if r.opts.Engine != "" {
		form.Set("OCREngine", r.opts.Engine)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Fail(FailureProvider, fmt.Sprintf("OCR request failed: %v", err), err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "OCR-Gateway-Go/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return Fail(FailureProvider, fmt.Sprintf("OCR request timed out after %s: %v", r.opts.Timeout, err), err)
		}
		return Fail(FailureProvider, fmt.Sprintf("OCR request failed: %v", err), err)
	}
	defer resp.Body.Close()

	entry := logger.WithFields(logrus.Fields{
		"endpoint":    r.opts.Endpoint,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		entry.Warn("OCR provider returned non-success status")
		return Fail(FailureProvider, fmt.Sprintf("OCR API request failed: status %d", resp.StatusCode), nil)
	}

	var payload ocrSpaceResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		if isTimeout(err) {
			return Fail(FailureProvider, fmt.Sprintf("OCR request timed out after %s: %v", r.opts.Timeout, err), err)
		}
		return Fail(FailureProvider, fmt.Sprintf("OCR response could not be parsed: %v", err), err)
	}

	if payload.IsErroredOnProcessing {
		msg := errorText(payload.ErrorMessage)
		if msg == "" {
			msg = "unknown error"
		}
		entry.WithField("provider_error", msg).Warn("OCR provider reported a processing error")
		return Fail(FailureProvider, "OCR processing error: "+msg, nil)
	}

	segments := make([]Segment, 0, len(payload.ParsedResults))
	for _, parsed := range payload.ParsedResults {
		segments = append(segments, Segment{
			Text:       strings.TrimSpace(parsed.ParsedText),
			Confidence: DefaultConfidence,
			BBox:       []Point{},
		})
	}

	entry.WithField("segments", len(segments)).Debug("OCR provider response parsed")
	return r.opts.Policy.filter(segments)
}

// errorText flattens the provider's ErrorMessage, which may be a string,
// a list of strings, or absent.
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	}
	return strings.TrimSpace(string(raw))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
