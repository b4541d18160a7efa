package fileops

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// movieHashChunk is the number of bytes read from each end of the file.
const movieHashChunk = 64 * 1024

// MD5Reader returns the hex MD5 of everything read from r.
func MD5Reader(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CalculateMD5Hash computes the MD5 hash of a file.
func CalculateMD5Hash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file for MD5 hashing '%s': %w", filePath, err)
	}
	defer file.Close()

	sum, err := MD5Reader(file)
	if err != nil {
		return "", fmt.Errorf("failed to hash '%s': %w", filePath, err)
	}
	return sum, nil
}

func sumWords(buf []byte) (sum uint64) {
	for i := 0; i+8 <= len(buf); i += 8 {
		sum += binary.LittleEndian.Uint64(buf[i : i+8])
	}
	return
}

// MovieHash computes the 64-bit movie hash used by Media.getInfo and Media.addID: the
// file size plus the little-endian word sums of the first and last 64 KiB.
func MovieHash(r io.ReaderAt, size int64) (string, error) {
	if size < movieHashChunk*2 {
		return "", fmt.Errorf("file is too small for a movie hash (size: %d)", size)
	}
	head := make([]byte, movieHashChunk)
	if _, err := r.ReadAt(head, 0); err != nil {
		return "", fmt.Errorf("failed to read head chunk: %w", err)
	}
	tail := make([]byte, movieHashChunk)
	if _, err := r.ReadAt(tail, size-movieHashChunk); err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read tail chunk: %w", err)
	}
	// Overflow wraps, as the algorithm expects.
	return fmt.Sprintf("%016x", uint64(size)+sumWords(head)+sumWords(tail)), nil
}

// CalculateMovieHash opens filePath and returns its movie hash and size.
func CalculateMovieHash(filePath string) (hash string, byteSize int64, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open file for hashing '%s': %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat file '%s': %w", filePath, err)
	}
	byteSize = stat.Size()
	hash, err = MovieHash(file, byteSize)
	if err != nil {
		return "", byteSize, fmt.Errorf("'%s': %w", filePath, err)
	}
	return hash, byteSize, nil
}
