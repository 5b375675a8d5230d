// Package media decodes uploaded images and computes their low-resolution
// placeholders.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

const (
	// blurDataSize bounds the thumbnail embedded as the blur data URL.
	blurDataSize = 10
	// blurHashSize bounds the thumbnail the BlurHash is computed from.
	blurHashSize = 64
)

var (
	ErrInvalidEncoding = errors.New("image is not valid base64")
	ErrNotImage        = errors.New("upload is not an image")
)

// Placeholder is what the client needs to render an image progressively.
type Placeholder struct {
	ContentType string
	Width       int
	Height      int
	BlurDataURL string
	BlurHash    string
}

// DecodeDataURL decodes an upload sent as a data URL
// ("data:image/png;base64,...") or as bare base64.
func DecodeDataURL(s string) ([]byte, error) {
	payload := strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, ErrInvalidEncoding
		}
		payload = data
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(payload); err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, ErrInvalidEncoding
}

// DetectContentType sniffs data and fails unless it is an image.
func DetectContentType(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return mt.String(), nil
}

// Analyze decodes the image and builds its placeholder.
func Analyze(data []byte) (*Placeholder, error) {
	contentType, err := DetectContentType(data)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrNotImage, err)
	}

	blurDataURL, err := BlurDataURL(img)
	if err != nil {
		return nil, err
	}
	hash, err := BlurHash(img)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &Placeholder{
		ContentType: contentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		BlurDataURL: blurDataURL,
		BlurHash:    hash,
	}, nil
}

// BlurDataURL returns a tiny PNG of img as a data URL.
func BlurDataURL(img image.Image) (string, error) {
	thumb := imaging.Fit(img, blurDataSize, blurDataSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return "", fmt.Errorf("encode blur thumbnail: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// BlurHash encodes img with 4x3 components from a 64px thumbnail.
func BlurHash(img image.Image) (string, error) {
	thumb := imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)
	hash, err := blurhash.Encode(4, 3, thumb)
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}
