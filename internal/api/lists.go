package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/larder/internal/grocery"
	"github.com/starford/larder/internal/models"
)

// ListStores handles GET /api/stores.
//
//	@Summary		List stores
//	@Tags			stores
//	@Produce		json
//	@Success		200	{object}	StoreListResponse
//	@Security		BearerAuth
//	@Router			/stores [get]
func (h *Handler) ListStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.db.ListStores(r.Context())
	if err != nil {
		writeError(w, "list stores", err)
		return
	}
	if stores == nil {
		stores = []models.Store{}
	}
	writeJSON(w, http.StatusOK, StoreListResponse{Stores: stores})
}

// GetStore handles GET /api/stores/{slug}.
//
//	@Summary		Get a store with its ordered sections
//	@Tags			stores
//	@Produce		json
//	@Param			slug	path		string	true	"Store slug"
//	@Success		200		{object}	models.Store
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stores/{slug} [get]
func (h *Handler) GetStore(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	store, err := h.db.LookupStoreBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, "get store", err, slog.String("slug", slug))
		return
	}
	writeJSON(w, http.StatusOK, store)
}

// ListIngredients handles GET /api/ingredients.
//
//	@Summary		List canonical ingredients
//	@Tags			ingredients
//	@Produce		json
//	@Param			catalog_id	query		string	false	"Only rows sharing this external catalog id"
//	@Success		200			{object}	IngredientListResponse
//	@Security		BearerAuth
//	@Router			/ingredients [get]
func (h *Handler) ListIngredients(w http.ResponseWriter, r *http.Request) {
	var (
		ings []models.Ingredient
		err  error
	)
	if id := r.URL.Query().Get("catalog_id"); id != "" {
		ings, err = h.db.LookupIngredientByCatalogID(r.Context(), id)
	} else {
		ings, err = h.db.ListIngredients(r.Context())
	}
	if err != nil {
		writeError(w, "list ingredients", err)
		return
	}
	if ings == nil {
		ings = []models.Ingredient{}
	}
	writeJSON(w, http.StatusOK, IngredientListResponse{Ingredients: ings})
}

// GetIngredient handles GET /api/ingredients/{id}.
//
//	@Summary		Get a canonical ingredient
//	@Tags			ingredients
//	@Produce		json
//	@Param			id	path		int	true	"Ingredient id"
//	@Success		200	{object}	models.Ingredient
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ingredients/{id} [get]
func (h *Handler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid ingredient id"))
		return
	}
	ing, err := h.db.LookupIngredient(r.Context(), id)
	if err != nil {
		writeError(w, "get ingredient", err, slog.Int64("id", id))
		return
	}
	writeJSON(w, http.StatusOK, ing)
}

// BuildList handles POST /api/lists.
//
//	@Summary		Build a categorized shopping list from recipes
//	@Tags			lists
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ListRequest	true	"Recipes with optional multipliers"
//	@Success		200		{object}	ShoppingList
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lists [post]
func (h *Handler) BuildList(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	storeID, err := h.storeID(r.Context(), req.Store, req.StoreID)
	if err != nil {
		writeError(w, "build list", err, slog.String("store", req.Store))
		return
	}
	list, err := h.lists.BuildList(r.Context(), grocery.Request{Entries: req.Entries, StoreID: storeID})
	if err != nil {
		writeError(w, "build list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AggregateItems handles POST /api/lists/aggregate.
//
//	@Summary		Fold line items into one entry per ingredient
//	@Tags			lists
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AggregateRequest	true	"Line items"
//	@Success		200		{object}	AggregateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lists/aggregate [post]
func (h *Handler) AggregateItems(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	items := make([]models.LineItem, len(req.Items))
	for i, in := range req.Items {
		items[i] = in.LineItem()
	}
	out, err := h.lists.Aggregate(r.Context(), items)
	if err != nil {
		writeError(w, "aggregate", err)
		return
	}
	if out == nil {
		out = []models.AggregatedItem{}
	}
	writeJSON(w, http.StatusOK, AggregateResponse{Items: out})
}

// CategorizeItems handles POST /api/lists/categorize.
//
//	@Summary		Bucket aggregated items into store sections
//	@Tags			lists
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CategorizeRequest	true	"Aggregated items and store"
//	@Success		200		{object}	ShoppingList
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/lists/categorize [post]
func (h *Handler) CategorizeItems(w http.ResponseWriter, r *http.Request) {
	var req CategorizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	storeID, err := h.storeID(r.Context(), req.Store, req.StoreID)
	if err != nil {
		writeError(w, "categorize", err, slog.String("store", req.Store))
		return
	}
	list, err := h.lists.Categorize(r.Context(), req.Items, storeID)
	if err != nil {
		writeError(w, "categorize", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// storeID resolves a store slug to its id. An empty slug keeps id, where 0
// means the default store.
func (h *Handler) storeID(ctx context.Context, slug string, id int64) (int64, error) {
	if slug == "" {
		return id, nil
	}
	st, err := h.db.LookupStoreBySlug(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("store %q: %w", slug, err)
	}
	return st.ID, nil
}

// storeParam reads the optional ?store= query parameter.
func (h *Handler) storeParam(r *http.Request) (int64, error) {
	return h.storeID(r.Context(), r.URL.Query().Get("store"), 0)
}
