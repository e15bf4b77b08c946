// Package storage keeps uploaded recipe images on the local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// MaxImageSize bounds decoded uploads
const MaxImageSize = 10 << 20

var (
	ErrInvalidImage     = errors.New("image must be a base64 data URI (data:image/<type>;base64,...)")
	ErrUnsupportedImage = errors.New("image type must be png, jpeg, gif or webp")
	ErrImageTooLarge    = errors.New("image exceeds the 10 MB limit")
)

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Storage persists image bytes under a key and resolves public URLs
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Image is a decoded upload ready to be stored
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeDataURI parses "data:image/png;base64,<payload>" and checks the payload
// really is one of the allowed image types, whatever the URI claims
func DecodeDataURI(uri string) (*Image, error) {
	if !strings.HasPrefix(uri, "data:image/") {
		return nil, ErrInvalidImage
	}
	_, payload, found := strings.Cut(uri, ";base64,")
	if !found || payload == "" {
		return nil, ErrInvalidImage
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return nil, ErrUnsupportedImage
	}

	return &Image{Data: data, ContentType: mtype.String(), Extension: mtype.Extension()}, nil
}

// NewImageKey returns a unique key for an image under the given prefix
func NewImageKey(prefix, extension string) string {
	return fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.New().String(), extension)
}

// joinURL appends key to base with a single slash between them
func joinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
