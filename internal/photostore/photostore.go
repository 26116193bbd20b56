package photostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get and Delete when no photo exists for a key.
var ErrNotFound = errors.New("photo not found")

// PhotoStore persists photo bytes under generated keys. Implementations own
// the key namespace; callers treat keys as opaque.
type PhotoStore interface {
	Save(ctx context.Context, filename, mediaType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

// NewKey returns a storage key of the form {unix-nanos}-{uuid}{ext}. The
// filename's extension is kept only when it names the same image type as
// mediaType, so a key's extension always agrees with the stored content.
// Otherwise the extension is derived from mediaType.
func NewKey(filename, mediaType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !extMatches(ext, mediaType) {
		ext = ExtForMediaType(mediaType)
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), ext)
}

func extMatches(ext, mediaType string) bool {
	if !validExt(ext) {
		return false
	}
	extType := MediaTypeForKey(ext)
	if !strings.HasPrefix(extType, "image/") {
		return false
	}
	if mediaType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	return err == nil && mt == extType
}

// ValidateKey rejects keys that are not a single plain path element.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return fmt.Errorf("invalid photo key %q", key)
	}
	return nil
}

var extByMediaType = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/svg+xml": ".svg",
	"image/tiff":    ".tiff",
	"image/heic":    ".heic",
	"image/avif":    ".avif",
}

var mediaTypeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".avif": "image/avif",
}

// ExtForMediaType maps a media type to a file extension, or "" if unknown.
func ExtForMediaType(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	if ext, ok := extByMediaType[mt]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// MediaTypeForKey guesses a key's media type from its extension.
func MediaTypeForKey(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if mt, ok := mediaTypeByExt[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 10 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
