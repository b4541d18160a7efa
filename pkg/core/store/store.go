// Package store implements the host storage interfaces on top of gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	coreErrors "github.com/angelospk/tmdb-go/pkg/core/errors"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	"github.com/mozillazg/go-unidecode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements every host storage interface over one database.
type Store struct {
	db     *gorm.DB
	events *host.Dispatcher
}

var (
	_ host.MetaStore   = (*Store)(nil)
	_ host.TermStore   = (*Store)(nil)
	_ host.OptionStore = (*Store)(nil)
	_ host.ItemStore   = (*Store)(nil)
	_ host.MediaStore  = (*Store)(nil)
)

// New wraps db. events may be nil, in which case UpdateItem fires no hooks.
func New(db *gorm.DB, events *host.Dispatcher) *Store {
	return &Store{db: db, events: events}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a name into a lower-case ASCII slug.
func Slugify(name string) string {
	ascii := strings.ToLower(unidecode.Unidecode(name))
	return strings.Trim(nonSlugChars.ReplaceAllString(ascii, "-"), "-")
}

// --- Meta --- //

func (s *Store) GetMeta(ctx context.Context, itemID uint, key string) (string, bool, error) {
	var m Meta
	err := s.db.WithContext(ctx).Where("item_id = ? AND meta_key = ?", itemID, key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read meta %s for item %d: %w", key, itemID, err)
	}
	return m.MetaValue, true, nil
}

func (s *Store) UpdateMeta(ctx context.Context, itemID uint, key, value string) error {
	m := Meta{ItemID: itemID, MetaKey: key, MetaValue: value}
	err := s.db.WithContext(ctx).
		Where("item_id = ? AND meta_key = ?", itemID, key).
		Assign(map[string]interface{}{"meta_value": value}).
		FirstOrCreate(&m).Error
	if err != nil {
		return fmt.Errorf("failed to write meta %s for item %d: %w", key, itemID, err)
	}
	return nil
}

func (s *Store) DeleteMeta(ctx context.Context, itemID uint, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Where("item_id = ? AND meta_key IN ?", itemID, keys).Delete(&Meta{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete meta for item %d: %w", itemID, err)
	}
	return nil
}

// --- Terms --- //

func (s *Store) CreateTerm(ctx context.Context, name, taxonomy string) (*host.Term, error) {
	term, err := createTerm(s.db.WithContext(ctx), name, taxonomy)
	if err != nil {
		return nil, err
	}
	h := term.toHost()
	return &h, nil
}

func createTerm(tx *gorm.DB, name, taxonomy string) (*Term, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("term name must not be empty")
	}
	term := Term{Name: name, Taxonomy: taxonomy, Slug: Slugify(name)}
	if err := tx.Where("taxonomy = ? AND name = ?", taxonomy, name).FirstOrCreate(&term).Error; err != nil {
		return nil, fmt.Errorf("failed to create term %q in %s: %w", name, taxonomy, err)
	}
	return &term, nil
}

// SplitNames splits a comma-separated list, trimming blanks and dropping duplicates.
func SplitNames(names string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(names, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

func (s *Store) SetItemTerms(ctx context.Context, itemID uint, taxonomy, names string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ? AND taxonomy = ?", itemID, taxonomy).Delete(&TermRelationship{}).Error; err != nil {
			return fmt.Errorf("failed to clear %s terms for item %d: %w", taxonomy, itemID, err)
		}
		for i, name := range SplitNames(names) {
			term, err := createTerm(tx, name, taxonomy)
			if err != nil {
				return err
			}
			rel := TermRelationship{ItemID: itemID, TermID: term.ID, Taxonomy: taxonomy, TermOrder: i}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rel).Error; err != nil {
				return fmt.Errorf("failed to link term %q to item %d: %w", name, itemID, err)
			}
		}
		return nil
	})
}

func (s *Store) ItemTerms(ctx context.Context, itemID uint, taxonomy string) ([]host.Term, error) {
	var terms []Term
	err := s.db.WithContext(ctx).
		Joins("JOIN term_relationships ON term_relationships.term_id = terms.id").
		Where("term_relationships.item_id = ? AND terms.taxonomy = ?", itemID, taxonomy).
		Order("term_relationships.term_order").
		Find(&terms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s terms for item %d: %w", taxonomy, itemID, err)
	}
	out := make([]host.Term, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.toHost())
	}
	return out, nil
}

// --- Options --- //

func (s *Store) GetOption(ctx context.Context, name string) (string, bool, error) {
	var o Option
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read option %s: %w", name, err)
	}
	return o.Value, true, nil
}

func (s *Store) AddOption(ctx context.Context, name, value string) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&Option{Name: name, Value: value})
	if result.Error != nil {
		return false, fmt.Errorf("failed to add option %s: %w", name, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) UpdateOption(ctx context.Context, name, value string) error {
	o := Option{Name: name, Value: value}
	err := s.db.WithContext(ctx).Where("name = ?", name).Assign(map[string]interface{}{"value": value}).FirstOrCreate(&o).Error
	if err != nil {
		return fmt.Errorf("failed to write option %s: %w", name, err)
	}
	return nil
}

func (s *Store) DeleteOption(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Option{}).Error; err != nil {
		return fmt.Errorf("failed to delete option %s: %w", name, err)
	}
	return nil
}

// --- Items --- //

func (s *Store) GetItem(ctx context.Context, id uint) (*host.Item, error) {
	var item Item
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item %d: %w", id, coreErrors.ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to read item %d: %w", id, err)
	}
	h := item.toHost()
	return &h, nil
}

func (s *Store) CreateItem(ctx context.Context, item *host.Item) error {
	row := Item{Title: item.Title, Content: item.Content, Type: item.Type}
	if row.Type == "" {
		row.Type = "movie"
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	*item = row.toHost()
	return nil
}

// UpdateItem writes title and content, then fires the save hooks with ctx.
func (s *Store) UpdateItem(ctx context.Context, item *host.Item) error {
	result := s.db.WithContext(ctx).Model(&Item{ID: item.ID}).Updates(map[string]interface{}{
		"title":   item.Title,
		"content": item.Content,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update item %d: %w", item.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("item %d: %w", item.ID, coreErrors.ErrItemNotFound)
	}
	return s.events.FireSave(ctx, item.ID)
}

// --- Attachments --- //

func (s *Store) CreateAttachment(ctx context.Context, a *host.Attachment) error {
	row := Attachment{
		ItemID: a.ItemID, Title: a.Title, SourceURL: a.SourceURL, FilePath: a.FilePath,
		ThumbPath: a.ThumbPath, MimeType: a.MimeType, Width: a.Width, Height: a.Height,
		FileSize: a.FileSize, Hash: a.Hash,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}
	*a = row.toHost()
	return nil
}

func (s *Store) GetAttachment(ctx context.Context, id uint) (*host.Attachment, error) {
	var row Attachment
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attachment %d: %w", id, coreErrors.ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to read attachment %d: %w", id, err)
	}
	h := row.toHost()
	return &h, nil
}

func (s *Store) ListAttachments(ctx context.Context, itemID uint) ([]host.Attachment, error) {
	var rows []Attachment
	if err := s.db.WithContext(ctx).Where("item_id = ?", itemID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list attachments for item %d: %w", itemID, err)
	}
	out := make([]host.Attachment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toHost())
	}
	return out, nil
}
