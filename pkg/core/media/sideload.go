// Package media downloads remote images into local attachments.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/angelospk/tmdb-go/internal/constants"
	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/fileops"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 25 << 20

// Options configures a Sideloader.
type Options struct {
	UploadsDir string
	HTTPClient *http.Client
	MaxBytes   int64
	UserAgent  string
}

// Sideloader fetches remote images and records them as attachments of an item.
type Sideloader struct {
	media    host.MediaStore
	http     *http.Client
	dir      string
	maxBytes int64
	ua       string
	now      func() time.Time
	logger   *log.Logger
}

// NewSideloader creates a Sideloader. A nil logger falls back to a stdout text logger.
func NewSideloader(media host.MediaStore, opts Options, logger *log.Logger) *Sideloader {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.UploadsDir == "" {
		opts.UploadsDir = "uploads"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constants.DefaultUserAgent
	}
	return &Sideloader{
		media:    media,
		http:     opts.HTTPClient,
		dir:      opts.UploadsDir,
		maxBytes: opts.MaxBytes,
		ua:       opts.UserAgent,
		now:      time.Now,
		logger:   logger,
	}
}

// Sideload downloads rawURL and attaches it to the item titled after the URL's last
// path segment.
func (s *Sideloader) Sideload(ctx context.Context, itemID uint, rawURL string) (*host.Attachment, error) {
	return s.SideloadWithTitle(ctx, itemID, rawURL, "")
}

// SideloadWithTitle downloads rawURL, stores it with a thumbnail and creates the
// attachment. An empty title defaults to the last path segment of the URL.
func (s *Sideloader) SideloadWithTitle(ctx context.Context, itemID uint, rawURL, title string) (*host.Attachment, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid image url %q", rawURL)
	}
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = "image"
	}
	if title == "" {
		title = name
	}

	data, err := s.download(ctx, u.String())
	if err != nil {
		return nil, err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%s is %s: %w", rawURL, mtype.String(), coreErrors.ErrNotAnImage)
	}
	if filepath.Ext(name) == "" {
		name += mtype.Extension()
	}

	dir := fileops.UploadPath(s.dir, s.now())
	filePath, err := fileops.SaveFile(dir, name, data)
	if err != nil {
		return nil, err
	}

	att := &host.Attachment{
		ItemID:    itemID,
		Title:     title,
		SourceURL: u.String(),
		FilePath:  filePath,
		MimeType:  mtype.String(),
		FileSize:  int64(len(data)),
	}
	if att.Hash, err = fileops.MD5Reader(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	if img, format, err := fileops.DecodeImage(data); err == nil {
		att.Width, att.Height = img.Bounds().Dx(), img.Bounds().Dy()
		thumb := fileops.Thumbnail(img, constants.ThumbWidth, constants.ThumbHeight)
		encoded, ext, err := fileops.EncodeImage(thumb, format)
		if err == nil {
			thumbName := fileops.ThumbName(filePath, constants.ThumbWidth, constants.ThumbHeight, ext)
			if att.ThumbPath, err = fileops.SaveFile(dir, thumbName, encoded); err != nil {
				s.logger.WithError(err).Warn("Failed to store thumbnail")
			}
		}
	} else {
		s.logger.WithFields(log.Fields{"url": rawURL, "mime": mtype.String()}).WithError(err).Debug("Image not decodable, skipping thumbnail")
	}

	if err := s.media.CreateAttachment(ctx, att); err != nil {
		os.Remove(filePath)
		if att.ThumbPath != "" {
			os.Remove(att.ThumbPath)
		}
		return nil, err
	}

	s.logger.WithFields(log.Fields{
		"item_id":       itemID,
		"attachment_id": att.ID,
		"url":           rawURL,
		"bytes":         att.FileSize,
	}).Info("Sideloaded image")
	return att, nil
}

func (s *Sideloader) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", s.ua)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to download %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", rawURL, s.maxBytes)
	}
	return data, nil
}
