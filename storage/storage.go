// Package storage keeps uploaded post images on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/google/uuid"
)

// Upload is an image received from a form.
type Upload struct {
	Filename string
	Data     []byte
}

// ImageStore persists images under generated names like "posts/<uuid>.png".
type ImageStore interface {
	// Check validates type and size without storing anything.
	Check(u Upload) error
	Save(ctx context.Context, u Upload) (string, error)
	Delete(ctx context.Context, name string) error
	// URL is where browsers fetch the stored image.
	URL(name string) string
}

var (
	ErrEmptyImage       = errors.New("The submitted file is empty.")
	ErrUnsupportedImage = errors.New("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// limits is embedded by both stores.
type limits struct {
	maxBytes int64
}

func (l limits) Check(u Upload) error {
	_, err := l.sniff(u)
	return err
}

func (l limits) sniff(u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", ErrEmptyImage
	}
	if l.maxBytes > 0 && int64(len(u.Data)) > l.maxBytes {
		return "", fmt.Errorf("File too large. Maximum size is %d MB.", l.maxBytes>>20)
	}
	contentType := http.DetectContentType(u.Data)
	if _, ok := imageExtensions[contentType]; !ok {
		return "", ErrUnsupportedImage
	}
	return contentType, nil
}

func newObjectName(contentType string) string {
	return path.Join("posts", uuid.NewString()+imageExtensions[contentType])
}

// validName rejects names that were not produced by newObjectName.
func validName(name string) bool {
	clean := path.Clean(name)
	return clean == name && path.Dir(clean) == "posts" && path.Base(clean) != ".."
}
