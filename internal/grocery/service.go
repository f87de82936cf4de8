// Package grocery runs the shopping-list pipeline: resolve recipes, attach
// ingredient identities, aggregate, then bucket into store sections.
package grocery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/larder/internal/aggregate"
	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/catalog"
	"github.com/starford/larder/internal/categorize"
	"github.com/starford/larder/internal/identity"
	"github.com/starford/larder/internal/metrics"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
	"github.com/starford/larder/internal/resolve"
	"github.com/starford/larder/internal/units"
)

// PlanSource loads weekly plans.
type PlanSource interface {
	GetPlan(ctx context.Context, id string) (*models.WeeklyPlan, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger passed down to every pipeline stage.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithThreshold sets the fuzzy similarity threshold for identity and
// section matching.
func WithThreshold(th float64) Option {
	return func(s *Service) { s.threshold = th }
}

// WithUnits replaces the built-in conversion table.
func WithUnits(t *units.Table) Option {
	return func(s *Service) { s.units = t }
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPlans enables BuildPlanList.
func WithPlans(p PlanSource) Option {
	return func(s *Service) { s.plans = p }
}

// Service builds shopping lists from a catalog. Every call reads a fresh
// snapshot of ingredients and store layout, so it is safe for concurrent use.
type Service struct {
	cat       catalog.Catalog
	plans     PlanSource
	units     *units.Table
	threshold float64
	logger    *slog.Logger
	metrics   *metrics.Metrics

	engine *resolve.Engine
	agg    *aggregate.Aggregator
	sorter *categorize.Categorizer
}

// New creates a service reading from cat.
func New(cat catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		cat:       cat,
		units:     units.Default(),
		threshold: identity.DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = resolve.New(cat, resolve.WithLogger(s.logger))
	s.agg = aggregate.New(s.units,
		aggregate.WithLogger(s.logger),
		aggregate.WithPrecision(s.units.Precision()))
	s.sorter = categorize.New(categorize.WithThreshold(s.threshold), categorize.WithLogger(s.logger))
	return s
}

// Entry is one recipe to shop for. Either RecipeID or Slug identifies the
// recipe; Multiplier scales it and defaults to 1.
type Entry struct {
	RecipeID   int64  `json:"recipe_id,omitempty"`
	Slug       string `json:"recipe,omitempty"`
	Multiplier string `json:"multiplier,omitempty"`
}

// Request asks for a categorized list of several recipes. StoreID 0 picks
// the default store.
type Request struct {
	Entries []Entry `json:"entries"`
	StoreID int64   `json:"store_id,omitempty"`
}

func (s *Service) resolver(ctx context.Context) (*identity.Resolver, error) {
	ings, err := s.cat.ListIngredients(ctx)
	if err != nil {
		return nil, fmt.Errorf("grocery: ingredients: %w", err)
	}
	return identity.NewResolver(ings, identity.WithThreshold(s.threshold)), nil
}

// ResolveRecipe flattens one recipe and attaches identities to its items.
func (s *Service) ResolveRecipe(ctx context.Context, id int64) (*resolve.Result, error) {
	return s.ResolveScaled(ctx, id, quantity.One)
}

// ResolveScaled is ResolveRecipe with a multiplier.
func (s *Service) ResolveScaled(ctx context.Context, id int64, mult quantity.Quantity) (*resolve.Result, error) {
	res, err := s.engine.ResolveScaled(ctx, id, mult)
	if err != nil {
		return nil, err
	}
	r, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	res.Items = r.ResolveAll(res.Items)
	s.metrics.ObserveResolution(res.Items, res.Notices)
	s.metrics.ObserveIdentities(res.Items)
	return res, nil
}

// Aggregate attaches identities to items that lack one and folds them.
func (s *Service) Aggregate(ctx context.Context, items []models.LineItem) ([]models.AggregatedItem, error) {
	r, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	resolved := r.ResolveAll(items)
	s.metrics.ObserveIdentities(resolved)
	return s.agg.Aggregate(resolved), nil
}

// Categorize buckets items into the sections of a store. With storeID 0 the
// default store is used; with no store at all every item is uncategorized.
func (s *Service) Categorize(ctx context.Context, items []models.AggregatedItem, storeID int64) (*models.ShoppingList, error) {
	list := &models.ShoppingList{}
	layout := categorize.Layout{}

	store, err := s.store(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store != nil {
		list.StoreID, list.Store = store.ID, store.Name
		if layout.Sections, err = s.cat.LookupSections(ctx, store.ID); err != nil {
			return nil, fmt.Errorf("grocery: sections: %w", err)
		}
		if layout.Assignments, err = s.cat.LookupAssignments(ctx, store.ID); err != nil {
			return nil, fmt.Errorf("grocery: assignments: %w", err)
		}
		if layout.Ingredients, err = s.cat.ListIngredients(ctx); err != nil {
			return nil, fmt.Errorf("grocery: ingredients: %w", err)
		}
	}
	list.Sections = s.sorter.Categorize(items, layout)
	return list, nil
}

func (s *Service) store(ctx context.Context, storeID int64) (*models.Store, error) {
	if storeID != 0 {
		return s.cat.LookupStore(ctx, storeID)
	}
	st, err := s.cat.DefaultStore(ctx)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	return st, err
}

// BuildList runs the whole pipeline over every entry. Entries naming a
// recipe that does not exist or carrying a malformed multiplier become
// notices; the rest of the list is still built.
func (s *Service) BuildList(ctx context.Context, req Request) (*models.ShoppingList, error) {
	start := time.Now()
	list, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveList("recipes", start)
	return list, nil
}

// BuildPlanList builds the list for every meal of a weekly plan.
func (s *Service) BuildPlanList(ctx context.Context, planID string, storeID int64) (*models.ShoppingList, error) {
	if s.plans == nil {
		return nil, fmt.Errorf("grocery: plan %s: %w", planID, apperr.ErrNotFound)
	}
	start := time.Now()
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	req := Request{StoreID: storeID, Entries: make([]Entry, 0, len(plan.Meals))}
	for _, m := range plan.Meals {
		req.Entries = append(req.Entries, Entry{Slug: m.RecipeSlug, Multiplier: m.Multiplier})
	}
	list, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveList("plan", start)
	return list, nil
}

func (s *Service) build(ctx context.Context, req Request) (*models.ShoppingList, error) {
	var items []models.LineItem
	notices := []models.Notice{}

	for _, e := range req.Entries {
		mult, err := quantity.Parse(e.Multiplier)
		if err != nil {
			notices = append(notices, models.Notice{
				Kind:     models.NoticeBadQuantity,
				RecipeID: e.RecipeID,
				Ref:      e.Slug,
				Message:  err.Error(),
			})
			continue
		}
		id, err := s.recipeID(ctx, e)
		if errors.Is(err, apperr.ErrNotFound) {
			notices = append(notices, missingEntry(e))
			continue
		}
		if err != nil {
			return nil, err
		}
		res, err := s.engine.ResolveScaled(ctx, id, mult)
		if errors.Is(err, apperr.ErrNotFound) {
			notices = append(notices, missingEntry(e))
			continue
		}
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveResolution(res.Items, res.Notices)
		items = append(items, res.Items...)
		notices = append(notices, res.Notices...)
	}

	aggregated, err := s.Aggregate(ctx, items)
	if err != nil {
		return nil, err
	}
	list, err := s.Categorize(ctx, aggregated, req.StoreID)
	if err != nil {
		return nil, err
	}
	list.Notices = notices
	s.logger.Debug("grocery: list built",
		slog.Int("entries", len(req.Entries)),
		slog.Int("items", len(aggregated)),
		slog.Int("notices", len(notices)))
	return list, nil
}

func (s *Service) recipeID(ctx context.Context, e Entry) (int64, error) {
	if e.RecipeID != 0 {
		return e.RecipeID, nil
	}
	if e.Slug == "" {
		return 0, fmt.Errorf("grocery: entry without recipe: %w", apperr.ErrNotFound)
	}
	r, err := s.cat.LookupRecipeBySlug(ctx, e.Slug)
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

func missingEntry(e Entry) models.Notice {
	ref := e.Slug
	if ref == "" {
		ref = fmt.Sprint(e.RecipeID)
	}
	return models.Notice{
		Kind:     models.NoticeMissingRecipe,
		RecipeID: e.RecipeID,
		Ref:      e.Slug,
		Message:  fmt.Sprintf("recipe %s does not exist", ref),
	}
}
