package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", h.ListRecipes)
		r.Post("/", h.CreateRecipe)
		r.Get("/{slug}", h.GetRecipe)
		r.Put("/{slug}", h.UpdateRecipe)
		r.Delete("/{slug}", h.DeleteRecipe)
		r.Get("/{slug}/lines", h.RecipeLines)
	})

	r.Get("/stores", h.ListStores)
	r.Get("/stores/{slug}", h.GetStore)
	r.Get("/ingredients", h.ListIngredients)
	r.Get("/ingredients/{id}", h.GetIngredient)

	r.Post("/lists", h.BuildList)
	r.Post("/lists/aggregate", h.AggregateItems)
	r.Post("/lists/categorize", h.CategorizeItems)

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.ListPlans)
		r.Post("/", h.CreatePlan)
		r.Get("/{id}", h.GetPlan)
		r.Delete("/{id}", h.DeletePlan)
		r.Get("/{id}/list", h.PlanList)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
