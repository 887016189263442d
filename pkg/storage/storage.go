package storage

import (
	"context"
	"io"
	"strings"
	"unicode"
)

// FileStorage defines contract for uploaded file storage (resumes).
type FileStorage interface {
	// Upload stores the content of r under folder and returns a reference
	// suitable for persisting on a record.
	Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// Delete removes the file identified by ref. Missing files are not an error.
	Delete(ctx context.Context, ref string) error
	// URL returns a link to the stored file.
	URL(ref string) string
}

// sanitizeName keeps letters, digits, dot, dash and underscore.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
