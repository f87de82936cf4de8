// Package recipefile reads and writes the YAML documents kept in the vault:
// the ingredient registry, recipes and store layouts.
package recipefile

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/quantity"
)

// Kind classifies a vault path.
type Kind string

const (
	KindIngredients Kind = "ingredients"
	KindRecipe      Kind = "recipe"
	KindStore       Kind = "store"
	KindUnknown     Kind = ""
)

const (
	// IngredientsPath is the vault-relative path of the ingredient registry.
	IngredientsPath = "ingredients.yaml"
	recipesDir      = "recipes"
	storesDir       = "stores"
)

// KindOf classifies a vault-relative path.
func KindOf(p string) Kind {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	ext := path.Ext(p)
	if ext != ".yaml" && ext != ".yml" {
		return KindUnknown
	}
	switch dir := path.Dir(p); {
	case dir == "." && strings.TrimSuffix(p, ext) == "ingredients":
		return KindIngredients
	case dir == recipesDir:
		return KindRecipe
	case dir == storesDir:
		return KindStore
	}
	return KindUnknown
}

// SlugOf returns the file name of p without its extension.
func SlugOf(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// RecipePath is the vault path of the recipe with the given slug.
func RecipePath(slug string) string { return recipesDir + "/" + slug + ".yaml" }

// StorePath is the vault path of the store with the given slug.
func StorePath(slug string) string { return storesDir + "/" + slug + ".yaml" }

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9]+`)
	slugShape = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Slugify derives a file slug from a recipe name.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ValidSlug reports whether s is usable as a file slug.
func ValidSlug(s string) bool { return slugShape.MatchString(s) }

// LineDoc is one entry of a recipe's ingredient list. Exactly one of Item
// and Recipe is set.
type LineDoc struct {
	Item       string `yaml:"item,omitempty" json:"item,omitempty"`
	Recipe     string `yaml:"recipe,omitempty" json:"recipe,omitempty"`
	Quantity   string `yaml:"quantity,omitempty" json:"quantity,omitempty"`
	Unit       string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Size       string `yaml:"size,omitempty" json:"size,omitempty"`
	Descriptor string `yaml:"descriptor,omitempty" json:"descriptor,omitempty"`
	CatalogID  string `yaml:"catalog_id,omitempty" json:"catalog_id,omitempty"`
}

// Validate checks the shape of the line.
func (l LineDoc) Validate() error {
	if (l.Item == "") == (l.Recipe == "") {
		return errors.New("exactly one of item or recipe is required")
	}
	if l.Recipe != "" && (l.Unit != "" || l.Size != "" || l.Descriptor != "" || l.CatalogID != "") {
		return errors.New("recipe references take only a quantity")
	}
	return nil
}

// ComponentDoc links a sub-recipe with a multiplier.
type ComponentDoc struct {
	Recipe   string `yaml:"recipe" json:"recipe"`
	Quantity string `yaml:"quantity,omitempty" json:"quantity,omitempty"`
}

// Validate checks the component.
func (c ComponentDoc) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Recipe, validation.Required),
	)
}

// RecipeDoc is the content of recipes/<slug>.yaml.
type RecipeDoc struct {
	Name        string         `yaml:"name" json:"name"`
	Servings    int            `yaml:"servings,omitempty" json:"servings,omitempty"`
	Ingredients []LineDoc      `yaml:"ingredients" json:"ingredients"`
	Components  []ComponentDoc `yaml:"components,omitempty" json:"components,omitempty"`
}

// Validate checks the structure of the document. Quantities are not parsed
// here: a bad quantity only drops its line when the recipe is resolved.
func (d RecipeDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Servings, validation.Min(0)),
		validation.Field(&d.Ingredients),
		validation.Field(&d.Components),
	)
}

// Check is Validate plus a parse of every quantity. Writes through the API
// use it so malformed amounts never reach the vault.
func (d RecipeDoc) Check() error {
	if err := d.Validate(); err != nil {
		return err
	}
	errs := validation.Errors{}
	for i, l := range d.Ingredients {
		if _, err := quantity.Parse(l.Quantity); err != nil {
			errs[fmt.Sprintf("ingredients.%d.quantity", i)] = err
		}
	}
	for i, c := range d.Components {
		if _, err := quantity.Parse(c.Quantity); err != nil {
			errs[fmt.Sprintf("components.%d.quantity", i)] = err
		}
	}
	return errs.Filter()
}

// Lines converts the ingredient list to model lines. Ingredient identity
// is left to the catalog store.
func (d RecipeDoc) Lines() []models.IngredientLine {
	out := make([]models.IngredientLine, 0, len(d.Ingredients))
	for _, l := range d.Ingredients {
		if l.Recipe != "" {
			out = append(out, models.RecipeRef(strings.TrimSpace(l.Recipe), strings.TrimSpace(l.Quantity)))
			continue
		}
		line := models.IngredientItem(strings.TrimSpace(l.Item), strings.TrimSpace(l.Quantity), strings.TrimSpace(l.Unit))
		line.CatalogID = strings.TrimSpace(l.CatalogID)
		line.Size = strings.TrimSpace(l.Size)
		line.Descriptor = strings.TrimSpace(l.Descriptor)
		out = append(out, line)
	}
	return out
}

// Links converts the components list to model links.
func (d RecipeDoc) Links() []models.SubRecipeLink {
	out := make([]models.SubRecipeLink, 0, len(d.Components))
	for _, c := range d.Components {
		out = append(out, models.SubRecipeLink{
			ChildSlug: strings.TrimSpace(c.Recipe),
			Quantity:  strings.TrimSpace(c.Quantity),
		})
	}
	return out
}

// FromRecipe rebuilds the document of a stored recipe.
func FromRecipe(r models.Recipe) RecipeDoc {
	d := RecipeDoc{Name: r.Name, Servings: r.Servings, Ingredients: []LineDoc{}}
	for _, l := range r.Lines {
		if l.Kind == models.LineRecipe {
			d.Ingredients = append(d.Ingredients, LineDoc{Recipe: l.SubRecipeSlug, Quantity: l.Quantity})
			continue
		}
		d.Ingredients = append(d.Ingredients, LineDoc{
			Item:       l.Name,
			Quantity:   l.Quantity,
			Unit:       l.Unit,
			Size:       l.Size,
			Descriptor: l.Descriptor,
			CatalogID:  l.CatalogID,
		})
	}
	for _, ln := range r.Links {
		d.Components = append(d.Components, ComponentDoc{Recipe: ln.ChildSlug, Quantity: ln.Quantity})
	}
	return d
}

// SectionDoc is one aisle of a store file, listing the ingredient names it stocks.
type SectionDoc struct {
	Name  string   `yaml:"name" json:"name"`
	Items []string `yaml:"items,omitempty" json:"items,omitempty"`
}

// Validate checks the section.
func (s SectionDoc) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
	)
}

// StoreDoc is the content of stores/<slug>.yaml. Section order in the file
// is the walking order of the store.
type StoreDoc struct {
	Name     string       `yaml:"name" json:"name"`
	Default  bool         `yaml:"default,omitempty" json:"default,omitempty"`
	Sections []SectionDoc `yaml:"sections" json:"sections"`
}

// Validate checks the store.
func (d StoreDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Sections),
	)
}

// IngredientDoc is one registry entry.
type IngredientDoc struct {
	Name        string `yaml:"name" json:"name"`
	CatalogID   string `yaml:"catalog_id,omitempty" json:"catalog_id,omitempty"`
	DisplayName string `yaml:"display_name,omitempty" json:"display_name,omitempty"`
}

// Validate checks the entry.
func (d IngredientDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
	)
}

// IngredientsDoc is the content of ingredients.yaml.
type IngredientsDoc struct {
	Ingredients []IngredientDoc `yaml:"ingredients" json:"ingredients"`
}

// Validate checks every entry.
func (d IngredientsDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Ingredients),
	)
}

// ParseRecipe decodes and validates a recipe document.
func ParseRecipe(data []byte) (*RecipeDoc, error) {
	var d RecipeDoc
	if err := decode(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseStore decodes and validates a store document.
func ParseStore(data []byte) (*StoreDoc, error) {
	var d StoreDoc
	if err := decode(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseIngredients decodes and validates the ingredient registry.
func ParseIngredients(data []byte) (*IngredientsDoc, error) {
	var d IngredientsDoc
	if err := decode(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Marshal encodes any vault document as YAML.
func Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("recipefile: marshal: %w", err)
	}
	return data, nil
}

func decode(data []byte, v validation.Validatable) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("recipefile: parse yaml: %w", err)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("recipefile: invalid document: %w", err)
	}
	return nil
}
