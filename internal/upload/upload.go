// Package upload coordinates the per-registration document fan-out to the
// object store. Registration is all-or-nothing: either every requested file
// lands and a complete slot→URL mapping is returned, or every object that
// already landed is deleted again and the first error is reported.
package upload

import (
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

// File is a typed upload request, decoupled from any HTTP framework's
// multipart representation.
type File struct {
	Slot        string
	Filename    string
	ContentType string
	Data        []byte
}

// ErrInvalidFile marks a declared file with no content or no content type.
var ErrInvalidFile = errors.New("invalid file")

// Error reports a single slot's upload failure.
type Error struct {
	Slot string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Slot, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind classifies the stored resource by its declared content type, mirroring
// the image/video/raw split of the upstream media store.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindRaw   Kind = "raw"
)

// KindFor maps a MIME content type onto a resource kind. Anything that is not
// an image or video is stored raw.
func KindFor(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return KindRaw
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage
	case strings.HasPrefix(mediaType, "video/"):
		return KindVideo
	default:
		return KindRaw
	}
}

// ObjectKey builds the deterministic key for a slot within a submission:
// <folder>/<slot>_<unix-timestamp><original extension>.
func ObjectKey(folder, slot, filename string, submittedAt time.Time) string {
	return fmt.Sprintf("%s/%s_%d%s", folder, slot, submittedAt.Unix(), path.Ext(filename))
}
