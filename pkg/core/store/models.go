package store

import (
	"time"

	"github.com/angelospk/tmdb-go/pkg/core/host"
)

// Item is the persisted content item.
type Item struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"size:255"`
	Content   string `gorm:"type:text"`
	Type      string `gorm:"size:32;default:movie"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Item) TableName() string { return "items" }

func (i Item) toHost() host.Item {
	return host.Item{ID: i.ID, Title: i.Title, Content: i.Content, Type: i.Type, CreatedAt: i.CreatedAt, UpdatedAt: i.UpdatedAt}
}

// Meta is one key-value pair attached to an item.
type Meta struct {
	ID        uint   `gorm:"primaryKey"`
	ItemID    uint   `gorm:"uniqueIndex:idx_item_meta_key;not null"`
	MetaKey   string `gorm:"size:191;uniqueIndex:idx_item_meta_key;not null"`
	MetaValue string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Meta) TableName() string { return "item_meta" }

// Term is a taxonomy term. Names are unique per taxonomy.
type Term struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:200;uniqueIndex:idx_taxonomy_name;not null"`
	Slug     string `gorm:"size:200;index"`
	Taxonomy string `gorm:"size:32;uniqueIndex:idx_taxonomy_name;not null"`
}

func (Term) TableName() string { return "terms" }

func (t Term) toHost() host.Term {
	return host.Term{ID: t.ID, Name: t.Name, Slug: t.Slug, Taxonomy: t.Taxonomy}
}

// TermRelationship links an item to a term.
type TermRelationship struct {
	ItemID    uint   `gorm:"primaryKey"`
	TermID    uint   `gorm:"primaryKey"`
	Taxonomy  string `gorm:"size:32;index"`
	TermOrder int
}

func (TermRelationship) TableName() string { return "term_relationships" }

// Option is a site-wide setting.
type Option struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:191;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

func (Option) TableName() string { return "options" }

// Attachment is a locally stored media file.
type Attachment struct {
	ID        uint   `gorm:"primaryKey"`
	ItemID    uint   `gorm:"index"`
	Title     string `gorm:"size:255"`
	SourceURL string `gorm:"type:text"`
	FilePath  string `gorm:"type:text"`
	ThumbPath string `gorm:"type:text"`
	MimeType  string `gorm:"size:100"`
	Width     int
	Height    int
	FileSize  int64
	Hash      string `gorm:"size:32;index"`
	CreatedAt time.Time
}

func (Attachment) TableName() string { return "attachments" }

func (a Attachment) toHost() host.Attachment {
	return host.Attachment{
		ID: a.ID, ItemID: a.ItemID, Title: a.Title, SourceURL: a.SourceURL,
		FilePath: a.FilePath, ThumbPath: a.ThumbPath, MimeType: a.MimeType,
		Width: a.Width, Height: a.Height, FileSize: a.FileSize, Hash: a.Hash, CreatedAt: a.CreatedAt,
	}
}
