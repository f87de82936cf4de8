package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
)

// Memory is a Catalog held in maps. It backs tests and the one-shot CLI.
type Memory struct {
	mu          sync.RWMutex
	recipes     map[int64]*models.Recipe
	slugs       map[string]int64
	ingredients []models.Ingredient
	stores      []models.Store
	assignments []models.Assignment
}

var _ Catalog = (*Memory)(nil)

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		recipes: make(map[int64]*models.Recipe),
		slugs:   make(map[string]int64),
	}
}

// AddRecipe stores r, replacing any recipe with the same id.
func (m *Memory) AddRecipe(r models.Recipe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recipes[r.ID] = &r
	if r.Slug != "" {
		m.slugs[r.Slug] = r.ID
	}
}

// AddIngredient appends a canonical ingredient.
func (m *Memory) AddIngredient(ing models.Ingredient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingredients = append(m.ingredients, ing)
}

// AddStore appends a store with its sections.
func (m *Memory) AddStore(s models.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores = append(m.stores, s)
}

// Assign places an ingredient in a section. The first assignment per
// (ingredient, store) wins.
func (m *Memory) Assign(a models.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, prev := range m.assignments {
		if prev.IngredientID == a.IngredientID && prev.StoreID == a.StoreID {
			return
		}
	}
	m.assignments = append(m.assignments, a)
}

func (m *Memory) LookupRecipe(_ context.Context, id int64) (*models.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, fmt.Errorf("recipe %d: %w", id, apperr.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) LookupRecipeBySlug(ctx context.Context, slug string) (*models.Recipe, error) {
	m.mu.RLock()
	id, ok := m.slugs[slug]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("recipe %q: %w", slug, apperr.ErrNotFound)
	}
	return m.LookupRecipe(ctx, id)
}

func (m *Memory) LookupIngredient(_ context.Context, id int64) (*models.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ing := range m.ingredients {
		if ing.ID == id {
			return &ing, nil
		}
	}
	return nil, fmt.Errorf("ingredient %d: %w", id, apperr.ErrNotFound)
}

func (m *Memory) LookupIngredientByCatalogID(_ context.Context, catalogID string) ([]models.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Ingredient
	for _, ing := range m.ingredients {
		if catalogID != "" && ing.CatalogID == catalogID {
			out = append(out, ing)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("catalog id %q: %w", catalogID, apperr.ErrNotFound)
	}
	return out, nil
}

func (m *Memory) ListIngredients(_ context.Context) ([]models.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.ingredients), nil
}

func (m *Memory) LookupStore(_ context.Context, id int64) (*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.stores {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("store %d: %w", id, apperr.ErrNotFound)
}

// DefaultStore returns the store flagged default, else the first store.
func (m *Memory) DefaultStore(_ context.Context) (*models.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.stores) == 0 {
		return nil, fmt.Errorf("default store: %w", apperr.ErrNotFound)
	}
	for _, s := range m.stores {
		if s.IsDefault {
			return &s, nil
		}
	}
	s := m.stores[0]
	return &s, nil
}

func (m *Memory) LookupSections(_ context.Context, storeID int64) ([]models.Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.stores {
		if s.ID == storeID {
			return slices.Clone(s.Sections), nil
		}
	}
	return nil, nil
}

func (m *Memory) LookupAssignments(_ context.Context, storeID int64) ([]models.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Assignment
	for _, a := range m.assignments {
		if a.StoreID == storeID {
			out = append(out, a)
		}
	}
	return out, nil
}
