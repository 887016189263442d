package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type localStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage stores files below root and links them under baseURL (e.g. "/media/").
func NewLocalStorage(root, baseURL string) (FileStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &localStorage{root: root, baseURL: baseURL}, nil
}

// Upload writes the file and returns its slash-separated path relative to root,
// e.g. "resumes/1712345678-cv.pdf".
func (s *localStorage) Upload(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(folder)), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", folder, err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	base := sanitizeName(strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)))
	ref := path.Join(folder, fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), base, ext))

	f, err := os.OpenFile(s.fullPath(ref), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return ref, nil
}

func (s *localStorage) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(s.fullPath(ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *localStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + strings.TrimPrefix(ref, "/")
}

// fullPath resolves ref inside root; ".." segments cannot escape it.
func (s *localStorage) fullPath(ref string) string {
	clean := path.Clean("/" + ref)
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

// ctxReader stops a copy once the request is gone.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if c.ctx != nil {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
	}
	return c.r.Read(p)
}
