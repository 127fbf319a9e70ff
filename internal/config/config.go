package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/anime-shed/ocr-gateway-go/internal/preprocess"
	"github.com/anime-shed/ocr-gateway-go/pkg/validation"
)

const DefaultOCRSpaceURL = "https://api.ocr.space/parse/image"

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	OCR   OCRConfig
	Image ImageConfig
}

// OCRConfig selects and parameterizes the recognition backend.
type OCRConfig struct {
	Backend         string // auto, local or remote
	APIURL          string
	APIKey          string
	Language        string
	Engine          string
	ProviderTimeout time.Duration
	LocalLanguage   string
	EmptyTextPolicy string // strict or lenient
}

type ImageConfig struct {
	MaxDimension int
	JPEGQuality  int
	MaxPixels    int64
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Load reads an optional .env file and an optional YAML file named by
// OCR_CONFIG_FILE, then builds the config. Environment variables win over
// file values.
func Load() (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	var file map[string]string
	if path := strings.TrimSpace(os.Getenv("OCR_CONFIG_FILE")); path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		file = values
	}
	return build(source{file: file})
}

// LoadFromEnv builds the config from the process environment only.
func LoadFromEnv() (*Config, error) {
	return build(source{})
}

func build(src source) (*Config, error) {
	cfg := &Config{
		Host:               src.stringOr("HOST", "0.0.0.0"),
		Port:               src.stringOr("PORT", "5000"),
		RequestTimeout:     src.durationOr("REQUEST_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: src.intOr("MAX_REQUEST_BODY_SIZE", 16*1024*1024), // 16MB
		LogLevel:           src.stringOr("LOG_LEVEL", "info"),
		OCR: OCRConfig{
			Backend:         strings.ToLower(src.stringOr("OCR_BACKEND", "auto")),
			APIURL:          src.stringOr("OCR_API_URL", DefaultOCRSpaceURL),
			APIKey:          src.stringOr("OCR_API_KEY", ""),
			Language:        src.stringOr("OCR_LANGUAGE", "chs"),
			Engine:          src.stringOr("OCR_ENGINE", "2"),
			ProviderTimeout: src.durationOr("OCR_PROVIDER_TIMEOUT", 30*time.Second),
			LocalLanguage:   src.stringOr("OCR_LOCAL_LANGUAGE", "chi_sim"),
			EmptyTextPolicy: strings.ToLower(src.stringOr("OCR_EMPTY_TEXT_POLICY", "strict")),
		},
		Image: ImageConfig{
			MaxDimension: int(src.intOr("IMAGE_MAX_DIMENSION", 2000)),
			JPEGQuality:  int(src.intOr("IMAGE_JPEG_QUALITY", 85)),
			MaxPixels:    src.intOr("IMAGE_MAX_PIXELS", preprocess.DefaultMaxPixels),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.OCR.ProviderTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, provider=%s)",
			c.RequestTimeout, c.OCR.ProviderTimeout)
	}
	switch c.OCR.Backend {
	case "auto", "local", "remote":
	default:
		return fmt.Errorf("invalid OCR_BACKEND: %q (want auto, local or remote)", c.OCR.Backend)
	}
	switch c.OCR.EmptyTextPolicy {
	case "strict", "lenient":
	default:
		return fmt.Errorf("invalid OCR_EMPTY_TEXT_POLICY: %q (want strict or lenient)", c.OCR.EmptyTextPolicy)
	}
	if c.OCR.Backend == "remote" && c.OCR.APIKey == "" {
		return fmt.Errorf("OCR_API_KEY is required when OCR_BACKEND=remote")
	}
	if err := validation.NewURLValidator().ValidateEndpoint(c.OCR.APIURL); err != nil {
		return fmt.Errorf("invalid OCR_API_URL: %w", err)
	}
	if c.Image.MaxDimension <= 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must be > 0 (got %d)", c.Image.MaxDimension)
	}
	if c.Image.MaxPixels <= 0 {
		return fmt.Errorf("IMAGE_MAX_PIXELS must be > 0 (got %d)", c.Image.MaxPixels)
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be within 1..100 (got %d)", c.Image.JPEGQuality)
	}
	return nil
}

// readFile loads a flat YAML mapping whose keys are the environment
// variable names, e.g. "OCR_API_KEY: abc".
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return values, nil
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value, true
	}
	if value, ok := s.file[key]; ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), true
	}
	return "", false
}

func (s source) stringOr(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (s source) durationOr(key string, defaultValue time.Duration) time.Duration {
	if value, ok := s.lookup(key); ok {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func (s source) intOr(key string, defaultValue int64) int64 {
	if value, ok := s.lookup(key); ok {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
