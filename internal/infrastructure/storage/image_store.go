// Package storage keeps uploaded product images on the local disk.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/skateshop/storefront/internal/core/domain"
	"github.com/skateshop/storefront/internal/core/ports"
)

// DefaultMaxBytes is the upload size limit when none is configured.
const DefaultMaxBytes = 5 << 20

// sniffLen is how much of the upload is inspected to detect its content type.
const sniffLen = 3072

var allowedExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// DiskImageStore writes images into a single directory. A reference is the
// file's base name, which is also its path under the public uploads prefix.
type DiskImageStore struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

var _ ports.ImageStore = (*DiskImageStore)(nil)

// NewDiskImageStore creates dir if needed. If maxBytes <= 0, DefaultMaxBytes
// is used.
func NewDiskImageStore(dir string, maxBytes int64) (*DiskImageStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskImageStore{dir: dir, maxBytes: maxBytes, now: time.Now}, nil
}

// Dir is the directory images are written to.
func (s *DiskImageStore) Dir() string { return s.dir }

// MaxBytes is the largest accepted upload.
func (s *DiskImageStore) MaxBytes() int64 { return s.maxBytes }

// Save validates the extension, the declared size and the sniffed content
// type, then writes the image under "<unix millis>-<sanitized name>". A name
// already taken gets a counter between the two parts.
// Rejections match domain.ErrInvalidInput.
func (s *DiskImageStore) Save(_ context.Context, originalName string, size int64, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	want, ok := allowedExtensions[ext]
	if !ok {
		return "", errNotAnImage()
	}
	if size > s.maxBytes {
		return "", s.errTooLarge()
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if !mimetype.Detect(head).Is(want) {
		return "", errNotAnImage()
	}

	f, name, err := s.create(sanitizeName(originalName))
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)

	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), src), s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > s.maxBytes {
		err = s.errTooLarge()
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, domain.ErrInvalidInput) {
			return "", err
		}
		return "", fmt.Errorf("write image file: %w", err)
	}

	return name, nil
}

// maxNameAttempts bounds how many numbered names are tried when uploads with
// the same name land in the same millisecond.
const maxNameAttempts = 100

// create opens a new file named "<unix millis>-<base>", falling back to
// "<unix millis>-<n>-<base>" while the name is taken.
func (s *DiskImageStore) create(base string) (*os.File, string, error) {
	prefix := strconv.FormatInt(s.now().UnixMilli(), 10)
	name := prefix + "-" + base
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) || i >= maxNameAttempts {
			return nil, "", fmt.Errorf("create image file: %w", err)
		}
		name = prefix + "-" + strconv.Itoa(i) + "-" + base
	}
}

// Delete removes a stored image. A missing file is not an error.
func (s *DiskImageStore) Delete(_ context.Context, ref string) error {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." {
		return fmt.Errorf("invalid image reference %q", ref)
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func errNotAnImage() error {
	return domain.NewInputError("only images are allowed (jpeg, jpg, png, gif, webp)")
}

func (s *DiskImageStore) errTooLarge() error {
	return domain.NewInputError("image must not exceed %d bytes", s.maxBytes)
}

// sanitizeName keeps the base name of the upload and replaces anything other
// than letters, digits, dot, dash and underscore.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
