package fileops

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"poster.jpg", "poster.jpg"},
		{"Fight Club (1999).JPG", "fight-club-1999-.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\uploads\Ämélie.png`, "amelie.png"},
		{"", "file"},
		{"...", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFileName(tt.input))
		})
	}
}

func TestSaveFileIsUnique(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2026", "10")
	first, err := SaveFile(dir, "b1.jpg", []byte("one"))
	require.NoError(t, err)
	second, err := SaveFile(dir, "b1.jpg", []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "b1.jpg"), first)
	assert.Equal(t, filepath.Join(dir, "b1-1.jpg"), second)
	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestUploadPath(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("up", "2026", "10"), UploadPath("up", now))
}

func TestThumbnail(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for x := 0; x < 300; x++ {
		for y := 0; y < 100; y++ {
			c := color.RGBA{R: 255, A: 255}
			if x >= 100 && x < 200 {
				c = color.RGBA{B: 255, A: 255}
			}
			src.Set(x, y, c)
		}
	}

	thumb := Thumbnail(src, 150, 150)
	assert.Equal(t, image.Rect(0, 0, 150, 150), thumb.Bounds())
	// The wide source is cropped to its blue center square.
	r, g, b, _ := thumb.At(75, 75).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.NotZero(t, b)

	empty := Thumbnail(image.NewRGBA(image.Rect(0, 0, 0, 0)), 10, 10)
	assert.Equal(t, 10, empty.Bounds().Dx())
}

func TestEncodeDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 3))
	data, ext, err := EncodeImage(src, "jpeg")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	img, format, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, ext, err = EncodeImage(src, "webp")
	require.NoError(t, err)
	assert.Equal(t, ".png", ext, "formats without an encoder are written as png")

	_, _, err = DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestDecodeImageRefusesHugeDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	data := buf.Bytes()

	// Rewrite the IHDR width and height to 100000x100000 and fix up its CRC.
	binary.BigEndian.PutUint32(data[16:20], 100000)
	binary.BigEndian.PutUint32(data[20:24], 100000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	_, _, err := DecodeImage(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestThumbName(t *testing.T) {
	assert.Equal(t, "poster-150x150.jpg", ThumbName("/up/2026/10/poster.png", 150, 150, ".jpg"))
}

func TestCalculateMD5Hash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md5.txt")
	require.NoError(t, os.WriteFile(path, []byte("md5 test content"), 0644))

	sum, err := CalculateMD5Hash(path)
	require.NoError(t, err)
	want, err := MD5Reader(strings.NewReader("md5 test content"))
	require.NoError(t, err)
	assert.Equal(t, want, sum)
	assert.Len(t, sum, 32)

	_, err = CalculateMD5Hash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestMovieHash(t *testing.T) {
	// 128 KiB of zeroes: both chunk sums are zero, so the hash is the size.
	data := make([]byte, 2*movieHashChunk)
	hash, err := MovieHash(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "0000000000020000", hash)

	// A one in the first word of the head adds one.
	data[0] = 1
	hash, err = MovieHash(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "0000000000020001", hash)

	path := filepath.Join(t.TempDir(), "movie.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	fileHash, size, err := CalculateMovieHash(path)
	require.NoError(t, err)
	assert.Equal(t, hash, fileHash)
	assert.Equal(t, int64(len(data)), size)
}

func TestMovieHashFileTooSmall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.bin")
	require.NoError(t, os.WriteFile(path, []byte("tiny"), 0644))
	_, size, err := CalculateMovieHash(path)
	assert.Error(t, err)
	assert.Equal(t, int64(4), size)
	assert.True(t, strings.Contains(err.Error(), "too small"))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	_, err = MovieHash(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.Error(t, err)
}
