package metadata

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tmdb "github.com/angelospk/tmdb-go"
	"github.com/angelospk/tmdb-go/pkg/core/host"
	log "github.com/sirupsen/logrus"
)

// Mapper turns movie records into taxonomy terms.
type Mapper struct {
	terms   host.TermStore
	options host.OptionStore
	logger  *log.Logger
}

// NewMapper creates a Mapper. A nil logger falls back to a stdout text logger.
func NewMapper(terms host.TermStore, options host.OptionStore, logger *log.Logger) *Mapper {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(log.InfoLevel)
	}
	return &Mapper{terms: terms, options: options, logger: logger}
}

// Classify returns the people taxonomy for a crew department, or "" when the department
// is neither directing nor writing. Both checks run in order and the later match wins,
// so a department naming both is filed under writers.
func Classify(department string) string {
	dept := strings.ToLower(department)
	taxonomy := ""
	if strings.Contains(dept, "directing") {
		taxonomy = TaxonomyDirector
	}
	if strings.Contains(dept, "writing") {
		taxonomy = TaxonomyWriter
	}
	return taxonomy
}

// MapToTaxonomies collects actor, genre, director and writer names from record. Every
// classified person gets a term in its taxonomy and the person id is recorded against
// that term; an existing mapping is left alone.
func (m *Mapper) MapToTaxonomies(ctx context.Context, record *tmdb.MovieRecord) (*Terms, error) {
	if record == nil {
		return nil, fmt.Errorf("movie record is nil")
	}
	terms := &Terms{}

	for _, c := range record.Casts.Cast {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if err := m.linkPerson(ctx, c.Name, TaxonomyActor, c.ID); err != nil {
			return nil, err
		}
		terms.Actors = append(terms.Actors, c.Name)
	}

	for _, c := range record.Casts.Crew {
		taxonomy := Classify(c.Department)
		if taxonomy == "" || strings.TrimSpace(c.Name) == "" {
			continue
		}
		if err := m.linkPerson(ctx, c.Name, taxonomy, c.ID); err != nil {
			return nil, err
		}
		switch taxonomy {
		case TaxonomyDirector:
			terms.Directors = append(terms.Directors, c.Name)
		case TaxonomyWriter:
			terms.Writers = append(terms.Writers, c.Name)
		}
	}

	for _, g := range record.Genres {
		if strings.TrimSpace(g.Name) != "" {
			terms.Genres = append(terms.Genres, g.Name)
		}
	}

	m.logger.WithFields(log.Fields{
		"movie_id":  record.ID,
		"actors":    len(terms.Actors),
		"directors": len(terms.Directors),
		"writers":   len(terms.Writers),
		"genres":    len(terms.Genres),
	}).Debug("Mapped movie record to taxonomies")
	return terms, nil
}

func (m *Mapper) linkPerson(ctx context.Context, name, taxonomy string, personID int) error {
	term, err := m.terms.CreateTerm(ctx, name, taxonomy)
	if err != nil {
		return fmt.Errorf("failed to create %s term %q: %w", taxonomy, name, err)
	}
	if personID == 0 {
		return nil
	}
	if _, err := m.options.AddOption(ctx, PersonOption(term.ID), strconv.Itoa(personID)); err != nil {
		return fmt.Errorf("failed to record person %d for term %d: %w", personID, term.ID, err)
	}
	return nil
}

// ApplyTerms replaces the item's genre and people terms with terms.
func (m *Mapper) ApplyTerms(ctx context.Context, itemID uint, terms *Terms) error {
	if terms == nil {
		return nil
	}
	assignments := []struct {
		taxonomy string
		names    []string
	}{
		{TaxonomyActor, terms.Actors},
		{TaxonomyGenre, terms.Genres},
		{TaxonomyDirector, terms.Directors},
		{TaxonomyWriter, terms.Writers},
	}
	for _, a := range assignments {
		if err := m.terms.SetItemTerms(ctx, itemID, a.taxonomy, strings.Join(a.names, ", ")); err != nil {
			return fmt.Errorf("failed to set %s terms on item %d: %w", a.taxonomy, itemID, err)
		}
	}
	return nil
}

// ApplyCertificate sets the item's certificate term. An empty certificate clears it.
func (m *Mapper) ApplyCertificate(ctx context.Context, itemID uint, certificate string) error {
	if err := m.terms.SetItemTerms(ctx, itemID, TaxonomyCertificate, certificate); err != nil {
		return fmt.Errorf("failed to set certificate on item %d: %w", itemID, err)
	}
	return nil
}
