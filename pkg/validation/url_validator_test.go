package validation

import (
	"errors"
	"testing"

	apperrors "github.com/anime-shed/ocr-gateway-go/internal/errors"
)

func expectMessage(t *testing.T, err error, want string) {
	t.Helper()
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got: %T", err)
	}
	if appErr.Message != want {
		t.Errorf("Expected %q error, got: %s", want, appErr.Message)
	}
}

func TestValidateEndpoint_ValidURLs(t *testing.T) {
	validator := NewURLValidator()

	validURLs := []string{
		"https://api.ocr.space/parse/image",
		"http://127.0.0.1:8089/parse/image",
		"HTTPS://ocr.internal.example.com/v2/parse",
	}

	for _, endpoint := range validURLs {
		if err := validator.ValidateEndpoint(endpoint); err != nil {
			t.Errorf("Expected valid URL %s to pass validation, got error: %v", endpoint, err)
		}
	}
}

func TestValidateEndpoint_EmptyURL(t *testing.T) {
	validator := NewURLValidator()

	for _, endpoint := range []string{"", "   ", "\t\n"} {
		err := validator.ValidateEndpoint(endpoint)
		if err == nil {
			t.Fatalf("Expected empty URL '%s' to fail validation", endpoint)
		}
		expectMessage(t, err, "URL cannot be empty")
	}
}

func TestValidateEndpoint_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		message  string
	}{
		{"missing scheme", "://missing-scheme", "Invalid URL format"},
		{"relative path", "not-a-url", "URL scheme not allowed"},
		{"ftp scheme", "ftp://example.com/parse", "URL scheme not allowed"},
		{"file scheme", "file://local/path", "URL scheme not allowed"},
		{"no host", "https://", "URL must have a valid host"},
		{"no host with path", "http:///parse/image", "URL must have a valid host"},
	}

	validator := NewURLValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEndpoint(tt.endpoint)
			if err == nil {
				t.Fatalf("Expected %q to fail validation", tt.endpoint)
			}
			expectMessage(t, err, tt.message)
		})
	}
}

func TestValidateEndpoint_RestrictedHosts(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"api.ocr.space"})

	if err := validator.ValidateEndpoint("https://api.ocr.space/parse/image"); err != nil {
		t.Errorf("Expected allowed host to pass validation, got error: %v", err)
	}
	if err := validator.ValidateEndpoint("https://api.ocr.space:443/parse/image"); err != nil {
		t.Errorf("Expected port to be ignored for host matching, got error: %v", err)
	}

	err := validator.ValidateEndpoint("https://attacker.example.com/parse/image")
	if err == nil {
		t.Fatal("Expected disallowed host to fail validation")
	}
	expectMessage(t, err, "URL host not allowed")

	err = validator.ValidateEndpoint("http://api.ocr.space/parse/image")
	if err == nil {
		t.Fatal("Expected http scheme to be rejected when only https is allowed")
	}
	expectMessage(t, err, "URL scheme not allowed")
}
