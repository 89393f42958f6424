package utils

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedImage is returned for uploads that are not a known image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

const maxImageSize = 10 * 1024 * 1024

// SaveImage stores an uploaded post image under <mediaRoot>/posts/ with a
// generated name and returns the relative media path (posts/<name>) that is
// persisted on the post record.
func SaveImage(header *multipart.FileHeader, mediaRoot string) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImage
	}
	if header.Size > maxImageSize {
		return "", errors.New("image exceeds size limit")
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(mediaRoot, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	lr := &io.LimitedReader{R: src, N: maxImageSize + 1}
	written, err := io.Copy(dst, lr)
	if err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}
	if written > maxImageSize {
		_ = os.Remove(dstPath)
		return "", errors.New("image exceeds size limit")
	}

	return "posts/" + name, nil
}
