// Package recipeservice manages recipe files in the vault and keeps the
// catalog in step with every write.
package recipeservice

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/sqlstore"
	"github.com/starford/larder/internal/storage"
)

// RecipeDetail is the full representation of a recipe file.
type RecipeDetail struct {
	ID       int64                `json:"id"`
	Slug     string               `json:"slug"`
	Path     string               `json:"path"`
	Checksum string               `json:"checksum"`
	Recipe   recipefile.RecipeDoc `json:"recipe"`
	// Missing lists component slugs that no imported recipe answers to.
	Missing []string `json:"missing"`
}

// Service coordinates vault storage and catalog operations for recipes.
type Service struct {
	store storage.Provider
	db    sqlstore.Index
}

// NewService creates a new recipe service.
func NewService(store storage.Provider, db sqlstore.Index) *Service {
	return &Service{store: store, db: db}
}

// pathOf returns the vault path of slug, preferring the path it was
// imported from.
func (s *Service) pathOf(ctx context.Context, slug string) string {
	if p, err := s.db.RecipePath(ctx, slug); err == nil {
		return p
	}
	return recipefile.RecipePath(slug)
}

// Get reads a recipe file and enriches it with catalog data.
func (s *Service) Get(ctx context.Context, slug string) (*RecipeDetail, error) {
	if !recipefile.ValidSlug(slug) {
		return nil, apperr.ErrNotFound
	}
	path := s.pathOf(ctx, slug)
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(ctx, slug, path, data)
}

// Create writes a new recipe and imports it. An empty slug is derived from
// the recipe name.
func (s *Service) Create(ctx context.Context, slug string, doc recipefile.RecipeDoc) (*RecipeDetail, error) {
	if slug == "" {
		slug = recipefile.Slugify(doc.Name)
	}
	if !recipefile.ValidSlug(slug) {
		return nil, fmt.Errorf("%w: slug %q", apperr.ErrInvalid, slug)
	}
	if err := s.checkDoc(ctx, slug, doc); err != nil {
		return nil, err
	}
	path := s.pathOf(ctx, slug)
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	return s.write(ctx, slug, path, doc)
}

// Update replaces a recipe with optimistic concurrency: a non-empty ifMatch
// must equal the checksum of the file on disk.
func (s *Service) Update(ctx context.Context, slug string, doc recipefile.RecipeDoc, ifMatch string) (*RecipeDetail, error) {
	if !recipefile.ValidSlug(slug) {
		return nil, apperr.ErrNotFound
	}
	path := s.pathOf(ctx, slug)
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != storage.Checksum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.checkDoc(ctx, slug, doc); err != nil {
		return nil, err
	}
	return s.write(ctx, slug, path, doc)
}

// checkDoc validates doc for writing under slug. The write is rejected
// when any recipe doc uses, directly or through the catalog, leads back to
// slug.
func (s *Service) checkDoc(ctx context.Context, slug string, doc recipefile.RecipeDoc) error {
	if err := doc.Check(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	var queue []string
	for _, l := range doc.Lines() {
		if l.Kind == models.LineRecipe {
			queue = append(queue, l.SubRecipeSlug)
		}
	}
	for _, ln := range doc.Links() {
		queue = append(queue, ln.ChildSlug)
	}

	seen := make(map[string]bool)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == slug {
			return fmt.Errorf("%w: recipe %q would contain itself", apperr.ErrInvalid, slug)
		}
		if seen[next] {
			continue
		}
		seen[next] = true

		r, err := s.db.LookupRecipeBySlug(ctx, next)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("check components of %s: %w", slug, err)
		}
		for _, l := range r.Lines {
			if l.Kind == models.LineRecipe && l.SubRecipeSlug != "" {
				queue = append(queue, l.SubRecipeSlug)
			}
		}
		for _, ln := range r.Links {
			queue = append(queue, ln.ChildSlug)
		}
	}
	return nil
}

// Delete removes a recipe from the vault and the catalog.
func (s *Service) Delete(ctx context.Context, slug string) error {
	if !recipefile.ValidSlug(slug) {
		return apperr.ErrNotFound
	}
	path := s.pathOf(ctx, slug)
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeletePath(ctx, path)
}

// List returns paginated recipes whose name or slug contains query.
func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]sqlstore.RecipeRow, int, error) {
	return s.db.ListRecipes(ctx, query, limit, offset)
}

// Lookup returns the catalog form of a recipe, with lines and links.
func (s *Service) Lookup(ctx context.Context, slug string) (*models.Recipe, error) {
	return s.db.LookupRecipeBySlug(ctx, slug)
}

func (s *Service) write(ctx context.Context, slug, path string, doc recipefile.RecipeDoc) (*RecipeDetail, error) {
	data, err := recipefile.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := sqlstore.IndexFile(ctx, s.db, path, data); err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, slug, path, data)
}

// buildDetail constructs a RecipeDetail from raw data without re-reading the file.
func (s *Service) buildDetail(ctx context.Context, slug, path string, data []byte) (*RecipeDetail, error) {
	doc, err := recipefile.ParseRecipe(data)
	if err != nil {
		return nil, err
	}
	d := &RecipeDetail{
		Slug:     slug,
		Path:     path,
		Checksum: storage.Checksum(data),
		Recipe:   *doc,
		Missing:  []string{},
	}
	d.Recipe.Ingredients = nonNilSlice(d.Recipe.Ingredients)

	r, err := s.db.LookupRecipeBySlug(ctx, slug)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return d, nil
	case err != nil:
		return nil, err
	}
	d.ID = r.ID
	for _, l := range r.Lines {
		if l.Kind == models.LineRecipe && l.SubRecipeID == 0 {
			d.Missing = append(d.Missing, l.SubRecipeSlug)
		}
	}
	for _, ln := range r.Links {
		if ln.ChildID == 0 {
			d.Missing = append(d.Missing, ln.ChildSlug)
		}
	}
	return d, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
