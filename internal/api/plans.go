package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/larder/internal/models"
)

// ListPlans handles GET /api/plans.
//
//	@Summary		List weekly plans, newest first
//	@Tags			plans
//	@Produce		json
//	@Success		200	{object}	PlanListResponse
//	@Security		BearerAuth
//	@Router			/plans [get]
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.db.ListPlans(r.Context())
	if err != nil {
		writeError(w, "list plans", err)
		return
	}
	if plans == nil {
		plans = []models.WeeklyPlan{}
	}
	writeJSON(w, http.StatusOK, PlanListResponse{Plans: plans})
}

// CreatePlan handles POST /api/plans.
//
//	@Summary		Create a weekly plan
//	@Tags			plans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePlanRequest	true	"Plan to create"
//	@Success		201		{object}	models.WeeklyPlan
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans [post]
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	now := time.Now().UTC()
	plan := models.WeeklyPlan{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Meals:     req.Slots(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.db.CreatePlan(r.Context(), plan); err != nil {
		writeError(w, "create plan", err, slog.String("name", req.Name))
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// GetPlan handles GET /api/plans/{id}.
//
//	@Summary		Get a weekly plan
//	@Tags			plans
//	@Produce		json
//	@Param			id	path		string	true	"Plan id"
//	@Success		200	{object}	models.WeeklyPlan
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id} [get]
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	plan, err := h.db.GetPlan(r.Context(), id)
	if err != nil {
		writeError(w, "get plan", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// DeletePlan handles DELETE /api/plans/{id}.
//
//	@Summary		Delete a weekly plan
//	@Tags			plans
//	@Param			id	path	string	true	"Plan id"
//	@Success		204	"Plan deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id} [delete]
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeletePlan(r.Context(), id); err != nil {
		writeError(w, "delete plan", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlanList handles GET /api/plans/{id}/list.
//
//	@Summary		Build the shopping list for a weekly plan
//	@Tags			plans
//	@Produce		json
//	@Param			id		path		string	true	"Plan id"
//	@Param			store	query		string	false	"Store slug; the default store when empty"
//	@Success		200		{object}	ShoppingList
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/plans/{id}/list [get]
func (h *Handler) PlanList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	storeID, err := h.storeParam(r)
	if err != nil {
		writeError(w, "plan list", err, slog.String("id", id))
		return
	}
	list, err := h.lists.BuildPlanList(r.Context(), id, storeID)
	if err != nil {
		writeError(w, "plan list", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, list)
}
