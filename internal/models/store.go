package models

import "time"

// UncategorizedOrder places the synthetic bucket after every real section.
const UncategorizedOrder = 999

// UncategorizedName is the label of the synthetic bucket.
const UncategorizedName = "Uncategorized"

// Store is a shop with an ordered set of sections.
type Store struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	Sections  []Section `json:"sections,omitempty"`
}

// Section is an aisle or area of a store.
type Section struct {
	ID      int64  `json:"id"`
	StoreID int64  `json:"store_id"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
}

// Assignment places an ingredient in a section of one store.
type Assignment struct {
	IngredientID int64 `json:"ingredient_id"`
	SectionID    int64 `json:"section_id"`
	StoreID      int64 `json:"store_id"`
}

// WeeklyPlan is a set of planned meals.
type WeeklyPlan struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Meals     []MealSlot `json:"meals"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MealSlot schedules one recipe on a day.
type MealSlot struct {
	Day        string `json:"day"`
	Meal       string `json:"meal"`
	RecipeSlug string `json:"recipe"`
	Multiplier string `json:"multiplier,omitempty"`
}
