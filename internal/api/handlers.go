package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/grocery"
	"github.com/starford/larder/internal/quantity"
	"github.com/starford/larder/internal/recipeservice"
	"github.com/starford/larder/internal/sqlstore"
)

// Handler holds API route handlers.
type Handler struct {
	recipes *recipeservice.Service
	lists   *grocery.Service
	db      sqlstore.Index
}

// NewHandler creates a new Handler.
func NewHandler(recipes *recipeservice.Service, lists *grocery.Service, db sqlstore.Index) *Handler {
	return &Handler{recipes: recipes, lists: lists, db: db}
}

// ListRecipes handles GET /api/recipes.
//
//	@Summary		List recipes with optional search and pagination
//	@Tags			recipes
//	@Produce		json
//	@Param			q		query		string	false	"Name or slug contains"
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Success		200		{object}	RecipeListResponse
//	@Security		BearerAuth
//	@Router			/recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.recipes.List(r.Context(), q.Get("q"), limit, offset)
	if err != nil {
		writeError(w, "list recipes", err)
		return
	}
	writeJSON(w, http.StatusOK, RecipeListResponse{Recipes: items, Total: total})
}

// GetRecipe handles GET /api/recipes/{slug}.
//
//	@Summary		Get a single recipe by slug
//	@Tags			recipes
//	@Produce		json
//	@Param			slug	path		string	true	"Recipe slug"
//	@Success		200		{object}	RecipeDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{slug} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	recipe, err := h.recipes.Get(r.Context(), slug)
	if err != nil {
		writeError(w, "get recipe", err, slog.String("slug", slug))
		return
	}
	w.Header().Set("ETag", strconv.Quote(recipe.Checksum))
	writeJSON(w, http.StatusOK, recipe)
}

// CreateRecipe handles POST /api/recipes.
//
//	@Summary		Create a new recipe
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateRecipeRequest	true	"Recipe to create"
//	@Success		201		{object}	RecipeDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes [post]
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	recipe, err := h.recipes.Create(r.Context(), req.Slug, req.Recipe)
	if err != nil {
		writeError(w, "create recipe", err, slog.String("slug", req.Slug))
		return
	}
	w.Header().Set("ETag", strconv.Quote(recipe.Checksum))
	writeJSON(w, http.StatusCreated, recipe)
}

// UpdateRecipe handles PUT /api/recipes/{slug}.
//
//	@Summary		Replace a recipe with optimistic concurrency
//	@Tags			recipes
//	@Accept			json
//	@Produce		json
//	@Param			slug		path		string				true	"Recipe slug"
//	@Param			If-Match	header		string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateRecipeRequest	true	"Updated recipe"
//	@Success		200			{object}	RecipeDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{slug} [put]
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	var req UpdateRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	recipe, err := h.recipes.Update(r.Context(), slug, req.Recipe, ifMatch)
	if err != nil {
		writeError(w, "update recipe", err, slog.String("slug", slug))
		return
	}
	w.Header().Set("ETag", strconv.Quote(recipe.Checksum))
	writeJSON(w, http.StatusOK, recipe)
}

// DeleteRecipe handles DELETE /api/recipes/{slug}.
//
//	@Summary		Delete a recipe
//	@Tags			recipes
//	@Param			slug	path	string	true	"Recipe slug"
//	@Success		204		"Recipe deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{slug} [delete]
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := h.recipes.Delete(r.Context(), slug); err != nil {
		writeError(w, "delete recipe", err, slog.String("slug", slug))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecipeLines handles GET /api/recipes/{slug}/lines.
//
//	@Summary		Flatten a recipe into scaled line items
//	@Tags			recipes
//	@Produce		json
//	@Param			slug		path		string	true	"Recipe slug"
//	@Param			multiplier	query		string	false	"Scale factor, e.g. 2 or 1/2"
//	@Success		200			{object}	ResolvedLines
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recipes/{slug}/lines [get]
func (h *Handler) RecipeLines(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	mult, err := quantity.Parse(r.URL.Query().Get("multiplier"))
	if err != nil {
		writeError(w, "recipe lines", fmt.Errorf("%w: multiplier: %v", apperr.ErrInvalid, err))
		return
	}
	recipe, err := h.recipes.Lookup(r.Context(), slug)
	if err != nil {
		writeError(w, "recipe lines", err, slog.String("slug", slug))
		return
	}
	res, err := h.lists.ResolveScaled(r.Context(), recipe.ID, mult)
	if err != nil {
		writeError(w, "recipe lines", err, slog.String("slug", slug))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
