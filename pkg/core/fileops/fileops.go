// Package fileops stores uploaded media on disk and derives thumbnails and hashes.
package fileops

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // registers the webp decoder
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFileName reduces name to a safe ASCII file name. Empty results become "file".
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unidecode.Unidecode(name)
	name = unsafeFileChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "file"
	}
	return strings.ToLower(name)
}

// UploadPath returns the dated directory uploads land in, e.g. <root>/2026/10.
func UploadPath(root string, now time.Time) string {
	return filepath.Join(root, now.Format("2006"), now.Format("01"))
}

// UniquePath returns dir/name, adding -1, -2, ... before the extension while the file exists.
func UniquePath(dir, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, i, ext))
	}
}

// SaveFile writes data to a new unique file named after name inside dir.
func SaveFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	path := UniquePath(dir, SanitizeFileName(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return path, nil
}

// MaxDecodePixels bounds the images DecodeImage decodes in full.
const MaxDecodePixels = 40_000_000

// ErrImageTooLarge is returned when the declared dimensions exceed MaxDecodePixels.
var ErrImageTooLarge = errors.New("image dimensions exceed the decode limit")

// DecodeImage decodes jpeg, png, gif or webp data. The header is checked first so a
// small file declaring huge dimensions is refused before any pixel buffer is allocated.
func DecodeImage(data []byte) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Thumbnail scales src to cover width x height and crops the overflow around the center.
func Thumbnail(src image.Image, width, height int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 || width <= 0 || height <= 0 {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}

	// Source rectangle with the target aspect ratio.
	crop := b
	if sw*height > sh*width {
		cw := sh * width / height
		x0 := b.Min.X + (sw-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else if sw*height < sh*width {
		ch := sw * height / width
		y0 := b.Min.Y + (sh-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

// EncodeImage encodes img in format. Formats without an encoder fall back to png;
// the returned extension matches the encoding used.
func EncodeImage(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	var err error
	ext := ".png"
	switch format {
	case "jpeg":
		ext = ".jpg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "gif":
		ext = ".gif"
		err = gif.Encode(&buf, img, nil)
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return buf.Bytes(), ext, nil
}

// ThumbName derives the thumbnail file name for an original, e.g. poster-150x150.jpg.
func ThumbName(original string, width, height int, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	return fmt.Sprintf("%s-%dx%d%s", base, width, height, ext)
}
