// Package host defines the content-management collaborators the movie workflow relies on:
// per-item metadata, taxonomy terms, site options, items and media attachments.
package host

import (
	"context"
	"time"
)

// Item is a content item (a post) that movie metadata is attached to.
type Item struct {
	ID        uint
	Title     string
	Content   string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Term is a named tag inside one taxonomy.
type Term struct {
	ID       uint
	Name     string
	Slug     string
	Taxonomy string
}

// Attachment is a media file stored locally and linked to an item.
type Attachment struct {
	ID        uint
	ItemID    uint
	Title     string
	SourceURL string
	FilePath  string
	ThumbPath string
	MimeType  string
	Width     int
	Height    int
	FileSize  int64
	Hash      string
	CreatedAt time.Time
}

// MetaStore is per-item key-value storage.
type MetaStore interface {
	// GetMeta returns the stored value and whether the key exists.
	GetMeta(ctx context.Context, itemID uint, key string) (string, bool, error)
	UpdateMeta(ctx context.Context, itemID uint, key, value string) error
	DeleteMeta(ctx context.Context, itemID uint, keys ...string) error
}

// TermStore manages taxonomy terms and their assignment to items.
type TermStore interface {
	// CreateTerm returns the existing term with that name in the taxonomy or creates it.
	CreateTerm(ctx context.Context, name, taxonomy string) (*Term, error)
	// SetItemTerms replaces the item's terms in taxonomy with the comma-separated names,
	// creating missing terms. An empty list clears the taxonomy for the item.
	SetItemTerms(ctx context.Context, itemID uint, taxonomy, names string) error
	ItemTerms(ctx context.Context, itemID uint, taxonomy string) ([]Term, error)
}

// OptionStore is site-wide key-value storage.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
	// AddOption stores value only when name is not set yet and reports whether it wrote.
	AddOption(ctx context.Context, name, value string) (bool, error)
	UpdateOption(ctx context.Context, name, value string) error
	DeleteOption(ctx context.Context, name string) error
}

// ItemStore reads and writes items. UpdateItem fires the save hooks.
type ItemStore interface {
	GetItem(ctx context.Context, id uint) (*Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
}

// MediaStore records attachments.
type MediaStore interface {
	CreateAttachment(ctx context.Context, a *Attachment) error
	GetAttachment(ctx context.Context, id uint) (*Attachment, error)
	ListAttachments(ctx context.Context, itemID uint) ([]Attachment, error)
}
