package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/ocr-gateway-go/internal/config"
	apperrors "github.com/anime-shed/ocr-gateway-go/internal/errors"
	"github.com/anime-shed/ocr-gateway-go/internal/logger"
	"github.com/anime-shed/ocr-gateway-go/internal/service"
	"github.com/anime-shed/ocr-gateway-go/pkg/models"
	"github.com/anime-shed/ocr-gateway-go/web"
)

const (
	// Version is reported by the health endpoint
	Version = "1.0.0"

	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	imageField        = "image"
	expectedTextField = "expected_text"
)

func NewHandler(svc service.OCRService, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		requestID(),
		requestLogger(),
		gin.CustomRecovery(recoverPanic),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/", indexPage)
	r.GET("/health", healthCheck(svc))
	r.POST("/ocr", recognizeImage(svc, cfg))

	return r
}

func recognizeImage(svc service.OCRService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		upload, err := readUpload(c)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":   upload.RequestID,
			"filename":     upload.Filename,
			"content_type": upload.ContentType,
			"size":         len(upload.Data),
		}).Debug("Image received")

		resp, err := svc.Recognize(ctx, upload)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         upload.RequestID,
			"backend":            svc.Backend(),
			"segments":           len(resp.Results),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("OCR request completed successfully")

		c.JSON(http.StatusOK, resp)
	}
}

// readUpload pulls the "image" part out of the multipart body.
func readUpload(c *gin.Context) (service.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.Upload{}, apperrors.NewValidationError(
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), err)
		}
		return service.Upload{}, apperrors.NewValidationError("no image uploaded", err)
	}

	files := form.File[imageField]
	if len(files) == 0 {
		// Browsers send an empty text part when the file input is left blank
		if _, ok := form.Value[imageField]; ok {
			return service.Upload{}, apperrors.NewValidationError("no file selected", nil)
		}
		return service.Upload{}, apperrors.NewValidationError("no image uploaded", nil)
	}

	header := files[0]
	if header.Filename == "" {
		return service.Upload{}, apperrors.NewValidationError("no file selected", nil)
	}

	data, err := readFile(header)
	if err != nil {
		return service.Upload{}, apperrors.NewValidationError("uploaded file could not be read", err)
	}

	upload := service.Upload{
		RequestID:   c.GetString(requestIDKey),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if values := form.Value[expectedTextField]; len(values) > 0 {
		upload.ExpectedText = values[0]
	}
	return upload, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func indexPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func healthCheck(svc service.OCRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "available",
			Backend: svc.Backend(),
			Version: Version,
			Time:    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// requestID tags every request with an id, reusing the client's when it is a valid UUID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"user_agent":         c.Request.UserAgent(),
			"request_id":         c.GetString(requestIDKey),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	}
}

func recoverPanic(c *gin.Context, recovered any) {
	respondError(c, apperrors.NewInternalError(fmt.Sprintf("internal server error: %v", recovered), nil))
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	message := apperrors.PublicMessage(err)

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
		"request_id":  c.GetString(requestIDKey),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{Error: message})
}
