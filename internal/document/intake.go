package document

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("document is empty")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("document exceeds size limit")
	// ErrUnsupportedType is returned when the detected content type is not allowed.
	ErrUnsupportedType = errors.New("document type not allowed")
)

// File is an uploaded supporting document.
type File struct {
	Name    string
	Content io.Reader
}

// Intake turns uploaded documents into data URLs that can be stored verbatim.
type Intake struct {
	maxBytes int64
	allowed  []string
}

// NewIntake creates an intake that accepts up to maxBytes of the given MIME types.
func NewIntake(maxBytes int64, allowed []string) *Intake {
	return &Intake{maxBytes: maxBytes, allowed: allowed}
}

// Store reads f and returns a data URL for it. The content type is sniffed from
// the bytes, not taken from the file name.
func (in *Intake) Store(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(f.Content, in.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %q: %w", f.Name, err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > in.maxBytes {
		return "", fmt.Errorf("%w: %q is larger than %d bytes", ErrTooLarge, f.Name, in.maxBytes)
	}

	mt := mimetype.Detect(data)
	if len(in.allowed) > 0 && !mimetype.EqualsAny(mt.String(), in.allowed...) {
		return "", fmt.Errorf("%w: %q is %s", ErrUnsupportedType, f.Name, mt.String())
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mt.String()) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(baseType(mt.String()))
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), nil
}

// baseType drops MIME parameters such as "; charset=utf-8".
func baseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		return strings.TrimSpace(mime[:i])
	}
	return mime
}
