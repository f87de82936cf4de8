// Package resolve flattens a recipe and its component recipes into scaled
// line items.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
)

// RecipeSource is the part of the catalog the engine reads.
type RecipeSource interface {
	LookupRecipe(ctx context.Context, id int64) (*models.Recipe, error)
}

// Result is the flattened output of one resolution.
type Result struct {
	Items   []models.LineItem `json:"items"`
	Notices []models.Notice   `json:"notices,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for skipped lines and truncated branches.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine walks the recipe composition graph. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	src    RecipeSource
	logger *slog.Logger
}

// New creates an engine reading from src.
func New(src RecipeSource, opts ...Option) *Engine {
	e := &Engine{src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve flattens recipeID at a multiplier of 1.
func (e *Engine) Resolve(ctx context.Context, recipeID int64) (*Result, error) {
	return e.ResolveScaled(ctx, recipeID, quantity.One)
}

// ResolveScaled flattens recipeID with every quantity multiplied by mult.
//
// Direct ingredient lines are emitted before sub-recipe expansions, each in
// declaration order. A recipe already on the current branch is not expanded
// again, which bounds the walk on cyclic graphs; siblings that reuse the same
// component are still expanded. A missing root recipe is an error wrapping
// apperr.ErrNotFound; a missing component only empties its branch.
func (e *Engine) ResolveScaled(ctx context.Context, recipeID int64, mult quantity.Quantity) (*Result, error) {
	if mult.IsNone() {
		mult = quantity.One
	}
	root, err := e.src.LookupRecipe(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("resolve: recipe %d: %w", recipeID, err)
	}

	w := &walk{engine: e, root: root.ID, res: &Result{Items: []models.LineItem{}}}
	if err := w.expand(ctx, root, mult, nil); err != nil {
		return nil, err
	}
	return w.res, nil
}

type walk struct {
	engine *Engine
	root   int64
	res    *Result
}

func (w *walk) visit(ctx context.Context, id int64, ref string, mult quantity.Quantity, path []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if slices.Contains(path, id) {
		w.notice(models.Notice{
			Kind:     models.NoticeCycle,
			RecipeID: id,
			Ref:      ref,
			Path:     path,
			Message:  fmt.Sprintf("recipe %d already on this branch; not expanded again", id),
		})
		return nil
	}

	r, err := w.engine.src.LookupRecipe(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			w.missing(id, ref, path)
			return nil
		}
		return fmt.Errorf("resolve: recipe %d: %w", id, err)
	}
	return w.expand(ctx, r, mult, path)
}

func (w *walk) expand(ctx context.Context, r *models.Recipe, mult quantity.Quantity, path []int64) error {
	// each branch gets its own copy so siblings never see each other's visits
	branch := append(slices.Clone(path), r.ID)

	for _, line := range r.Lines {
		if line.Kind != models.LineIngredient {
			continue
		}
		q, err := quantity.Parse(line.Quantity)
		if err != nil {
			w.badQuantity(r, line.Name, err, branch)
			continue
		}
		w.res.Items = append(w.res.Items, models.LineItem{
			IngredientID: line.IngredientID,
			CatalogID:    line.CatalogID,
			Name:         line.Name,
			Quantity:     quantity.Scale(q, mult),
			Unit:         line.Unit,
			Size:         line.Size,
			Descriptor:   line.Descriptor,
			RecipeID:     r.ID,
			RecipeName:   r.Name,
			RootRecipeID: w.root,
			Path:         branch,
		})
	}

	for _, line := range r.Lines {
		if line.Kind != models.LineRecipe {
			continue
		}
		if err := w.component(ctx, r, line.SubRecipeID, line.SubRecipeSlug, line.Quantity, mult, branch); err != nil {
			return err
		}
	}
	for _, link := range r.Links {
		if err := w.component(ctx, r, link.ChildID, link.ChildSlug, link.Quantity, mult, branch); err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) component(ctx context.Context, parent *models.Recipe, childID int64, ref, qty string, mult quantity.Quantity, path []int64) error {
	m, err := quantity.Parse(qty)
	if err != nil {
		w.badQuantity(parent, ref, err, path)
		return nil
	}
	if m.IsNone() {
		m = quantity.One
	}
	if childID == 0 {
		w.missing(0, ref, path)
		return nil
	}
	return w.visit(ctx, childID, ref, quantity.Scale(mult, m), path)
}

func (w *walk) missing(id int64, ref string, path []int64) {
	label := ref
	if label == "" {
		label = fmt.Sprint(id)
	}
	w.notice(models.Notice{
		Kind:     models.NoticeMissingRecipe,
		RecipeID: id,
		Ref:      ref,
		Path:     path,
		Message:  fmt.Sprintf("component recipe %s does not exist", label),
	})
}

func (w *walk) badQuantity(r *models.Recipe, name string, err error, path []int64) {
	w.notice(models.Notice{
		Kind:     models.NoticeBadQuantity,
		RecipeID: r.ID,
		Ref:      name,
		Path:     path,
		Message:  err.Error(),
	})
}

func (w *walk) notice(n models.Notice) {
	w.res.Notices = append(w.res.Notices, n)
	w.engine.logger.Warn("resolve: "+string(n.Kind),
		slog.Int64("root", w.root),
		slog.Int64("recipe", n.RecipeID),
		slog.String("ref", n.Ref),
		slog.String("detail", n.Message))
}
