// Package preprocess turns arbitrary uploaded images into the canonical form
// the OCR backends accept: an opaque RGB JPEG no larger than a fixed box.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Extra decoders beyond what imaging registers (JPEG, PNG, GIF, BMP, TIFF).
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/ocr-gateway-go/internal/errors"
	"github.com/anime-shed/ocr-gateway-go/internal/logger"
)

const (
	DefaultMaxDimension = 2000
	DefaultJPEGQuality  = 85

	// DefaultMaxPixels matches the decompression bomb limit of common
	// imaging stacks (2 * 89478485 pixels).
	DefaultMaxPixels = 178956970
)

var errEmptyImage = errors.New("empty image data")

// Options bounds the normalized output.
type Options struct {
	MaxDimension int
	JPEGQuality  int

	// MaxPixels caps width*height declared by the image header; zero means DefaultMaxPixels.
	MaxPixels int64
}

// DefaultOptions returns the 2000x2000 / quality 85 profile.
func DefaultOptions() Options {
	return Options{
		MaxDimension: DefaultMaxDimension,
		JPEGQuality:  DefaultJPEGQuality,
		MaxPixels:    DefaultMaxPixels,
	}
}

// Normalizer converts uploaded image bytes into normalized JPEG bytes.
type Normalizer interface {
	Normalize(data []byte) ([]byte, error)
}

type jpegNormalizer struct {
	opts Options
}

// NewNormalizer creates a Normalizer for the given options.
func NewNormalizer(opts Options) (Normalizer, error) {
	if opts.MaxDimension <= 0 {
		return nil, fmt.Errorf("max dimension must be > 0 (got %d)", opts.MaxDimension)
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within 1..100 (got %d)", opts.JPEGQuality)
	}
	if opts.MaxPixels < 0 {
		return nil, fmt.Errorf("max pixels must be >= 0 (got %d)", opts.MaxPixels)
	}
	if opts.MaxPixels == 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &jpegNormalizer{opts: opts}, nil
}

// Normalize decodes data, forces it to opaque RGB, shrinks it to fit the
// configured box and re-encodes it as JPEG. All failures are
// preprocessing AppErrors.
func (n *jpegNormalizer) Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, apperrors.NewPreprocessingError("decode failed: "+errEmptyImage.Error(), errEmptyImage)
	}

	// Size is checked from the header alone; decoding allocates width*height*4 bytes.
	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewPreprocessingError(fmt.Sprintf("decode failed: %v", err), err)
	}
	if pixels := int64(header.Width) * int64(header.Height); pixels > n.opts.MaxPixels {
		err := fmt.Errorf("%dx%d exceeds %d pixels", header.Width, header.Height, n.opts.MaxPixels)
		return nil, apperrors.NewPreprocessingError("decode failed: image too large", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewPreprocessingError(fmt.Sprintf("decode failed: %v", err), err)
	}

	src := img.Bounds()
	rgb := toRGB(img)
	scaled := imaging.Fit(rgb, n.opts.MaxDimension, n.opts.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(n.opts.JPEGQuality)); err != nil {
		return nil, apperrors.NewPreprocessingError(fmt.Sprintf("encode failed: %v", err), err)
	}

	dst := scaled.Bounds()
	logger.WithFields(logrus.Fields{
		"source_size":  fmt.Sprintf("%dx%d", src.Dx(), src.Dy()),
		"output_size":  fmt.Sprintf("%dx%d", dst.Dx(), dst.Dy()),
		"input_bytes":  len(data),
		"output_bytes": buf.Len(),
	}).Debug("Image normalized")

	return buf.Bytes(), nil
}

// toRGB copies img into an NRGBA buffer and marks every pixel opaque. Colour
// channels are kept as stored, so alpha and palette information is dropped
// rather than composited.
func toRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
