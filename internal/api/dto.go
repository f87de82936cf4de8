package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/larder/internal/grocery"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/recipeservice"
	"github.com/starford/larder/internal/resolve"
	"github.com/starford/larder/internal/sqlstore"
)

// CreateRecipeRequest is the request body for creating a recipe. An empty
// slug is derived from the recipe name.
type CreateRecipeRequest struct {
	Slug   string               `json:"slug,omitempty" example:"tomato-sauce"`
	Recipe recipefile.RecipeDoc `json:"recipe" validate:"required"`
}

// UpdateRecipeRequest is the request body for replacing a recipe.
type UpdateRecipeRequest struct {
	Recipe recipefile.RecipeDoc `json:"recipe" validate:"required"`
}

// RecipeDetail is the full recipe response type (aliased from the domain layer).
type RecipeDetail = recipeservice.RecipeDetail

// RecipeListItem is one row of a recipe listing.
type RecipeListItem = sqlstore.RecipeRow

// RecipeListResponse wraps paginated recipe listings.
type RecipeListResponse struct {
	Recipes []RecipeListItem `json:"recipes" validate:"required"`
	Total   int              `json:"total" example:"42" validate:"required"`
}

// ResolvedLines is the flattened, scaled form of one recipe.
type ResolvedLines = resolve.Result

// ListRequest asks for a categorized shopping list. Store is a store slug;
// it takes precedence over StoreID. With neither the default store is used.
type ListRequest struct {
	Entries []grocery.Entry `json:"entries" validate:"required"`
	Store   string          `json:"store,omitempty" example:"corner-shop"`
	StoreID int64           `json:"store_id,omitempty"`
}

// Validate checks that the request names at least one recipe.
func (r ListRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Entries, validation.Required),
	)
}

// LineItemInput is a line item submitted for aggregation.
type LineItemInput struct {
	Name         string `json:"name" example:"garlic" validate:"required"`
	Quantity     string `json:"quantity,omitempty" example:"1 1/2"`
	Unit         string `json:"unit,omitempty" example:"clove"`
	Size         string `json:"size,omitempty"`
	Descriptor   string `json:"descriptor,omitempty"`
	IngredientID int64  `json:"ingredient_id,omitempty"`
	CatalogID    string `json:"catalog_id,omitempty"`
	RecipeID     int64  `json:"recipe_id,omitempty"`
	RecipeName   string `json:"recipe_name,omitempty"`
}

// Validate checks the name and that the quantity parses.
func (in LineItemInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Quantity, validation.By(parsesAsQuantity)),
	)
}

// LineItem converts the input to a model line item.
func (in LineItemInput) LineItem() models.LineItem {
	q, _ := quantity.Parse(in.Quantity)
	return models.LineItem{
		IngredientID: in.IngredientID,
		CatalogID:    in.CatalogID,
		Name:         in.Name,
		Quantity:     q,
		Unit:         in.Unit,
		Size:         in.Size,
		Descriptor:   in.Descriptor,
		RecipeID:     in.RecipeID,
		RecipeName:   in.RecipeName,
		RootRecipeID: in.RecipeID,
	}
}

// AggregateRequest is the request body for POST /lists/aggregate.
type AggregateRequest struct {
	Items []LineItemInput `json:"items" validate:"required"`
}

// Validate checks every item.
func (r AggregateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items),
	)
}

// AggregateResponse wraps aggregated items.
type AggregateResponse struct {
	Items []models.AggregatedItem `json:"items" validate:"required"`
}

// CategorizeRequest is the request body for POST /lists/categorize.
type CategorizeRequest struct {
	Items   []models.AggregatedItem `json:"items" validate:"required"`
	Store   string                  `json:"store,omitempty" example:"corner-shop"`
	StoreID int64                   `json:"store_id,omitempty"`
}

// ShoppingList is the categorized list response.
type ShoppingList = models.ShoppingList

var (
	weekdays  = []any{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	mealTypes = []any{"breakfast", "lunch", "dinner", "snack"}
)

// MealInput schedules one recipe in a plan.
type MealInput struct {
	Day        string `json:"day" example:"monday"`
	Meal       string `json:"meal" example:"dinner"`
	Recipe     string `json:"recipe" example:"pasta-bake" validate:"required"`
	Multiplier string `json:"multiplier,omitempty" example:"2"`
}

// Validate checks the slot. Day and meal are compared lowercase.
func (m MealInput) Validate() error {
	day, meal := strings.ToLower(m.Day), strings.ToLower(m.Meal)
	return validation.ValidateStruct(&m,
		validation.Field(&m.Day, validation.By(func(any) error {
			return validation.Validate(day, validation.In(weekdays...))
		})),
		validation.Field(&m.Meal, validation.By(func(any) error {
			return validation.Validate(meal, validation.In(mealTypes...))
		})),
		validation.Field(&m.Recipe, validation.Required, validation.By(validSlug)),
		validation.Field(&m.Multiplier, validation.By(parsesAsQuantity)),
	)
}

// CreatePlanRequest is the request body for creating a weekly plan.
type CreatePlanRequest struct {
	Name  string      `json:"name" example:"Week 42" validate:"required"`
	Meals []MealInput `json:"meals" validate:"required"`
}

// Validate checks the plan and each of its meals.
func (r CreatePlanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Meals, validation.Required),
	)
}

// Slots converts the meals to model slots.
func (r CreatePlanRequest) Slots() []models.MealSlot {
	out := make([]models.MealSlot, len(r.Meals))
	for i, m := range r.Meals {
		out[i] = models.MealSlot{
			Day:        strings.ToLower(m.Day),
			Meal:       strings.ToLower(m.Meal),
			RecipeSlug: m.Recipe,
			Multiplier: m.Multiplier,
		}
	}
	return out
}

// PlanListResponse wraps weekly plans.
type PlanListResponse struct {
	Plans []models.WeeklyPlan `json:"plans" validate:"required"`
}

// IngredientListResponse wraps canonical ingredients.
type IngredientListResponse struct {
	Ingredients []models.Ingredient `json:"ingredients" validate:"required"`
}

// StoreListResponse wraps stores.
type StoreListResponse struct {
	Stores []models.Store `json:"stores" validate:"required"`
}

func parsesAsQuantity(v any) error {
	s, _ := v.(string)
	_, err := quantity.Parse(s)
	return err
}

func validSlug(v any) error {
	s, _ := v.(string)
	if !recipefile.ValidSlug(s) {
		return validation.NewError("validation_slug", "must be a lowercase slug")
	}
	return nil
}
