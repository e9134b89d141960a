package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"

	"quartz-storefront/internal/core/config"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported media driver")
	ErrBadFolder         = errors.New("invalid folder")
	ErrBadType           = errors.New("only image and video files are accepted")
)

type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Uploader stores one file in a single shot and reports where it landed.
// contentType is the sniffed type of r, never the client's claim.
type Uploader interface {
	Upload(ctx context.Context, contentType string, r io.Reader, folder string) (Asset, error)
}

func New(c config.Media) (Uploader, error) {
	switch c.Driver {
	case "cloudinary":
		return NewCloudinary(c.CloudinaryURL)
	case "local":
		return NewLocal(c.LocalDir, c.PublicBaseURL), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
}

var folderRe = regexp.MustCompile(`^[A-Za-z0-9_-]+(/[A-Za-z0-9_-]+)*$`)

// CleanFolder falls back to def for an empty folder and rejects anything that
// is not a plain relative path.
func CleanFolder(folder, def string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		folder = def
	}
	if !folderRe.MatchString(folder) || path.Clean(folder) != folder {
		return "", ErrBadFolder
	}
	return folder, nil
}

// Sniff reads the head of r to classify it and returns a reader that still
// yields the full content.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}

func Accept(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

var preferredExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// Ext maps a content type to a file extension, "" when none is known.
func Ext(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	if e, ok := preferredExt[mt]; ok {
		return e
	}
	if exts, _ := mime.ExtensionsByType(mt); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
