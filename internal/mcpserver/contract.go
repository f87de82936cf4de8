package mcpserver

// RecipeFormatContract describes the recipe file format that LLM consumers
// should follow when creating recipes.
const RecipeFormatContract = `# Larder Recipe Format

Recipes are YAML files stored at ` + "`" + `recipes/<slug>.yaml` + "`" + `. The slug is
lowercase letters, digits and single hyphens (e.g. ` + "`" + `tomato-sauce` + "`" + `).

## Structure

` + "```" + `yaml
name: Pasta Bake            # REQUIRED - display name
servings: 4                 # OPTIONAL - whole number, 0 or more
ingredients:                # list of lines, kept in order
  - item: dried pasta       # an ingredient line
    quantity: 1             # "2", "0.75", "1/2", "1 1/2" or blank
    unit: lb                # OPTIONAL - cup, tbsp, g, ml, clove, ...
    size: large             # OPTIONAL
    descriptor: penne       # OPTIONAL - free text kept with the line
    catalog_id: usda-1234   # OPTIONAL - external catalog id
  - recipe: tomato-sauce    # a sub-recipe line: the slug of another recipe
    quantity: 1/2           # multiplier applied to the whole sub-recipe
components:                 # OPTIONAL - more sub-recipes with multipliers
  - recipe: garlic-bread
    quantity: 1
` + "```" + `

## Rules

1. Each ingredient line sets exactly one of ` + "`" + `item` + "`" + ` or ` + "`" + `recipe` + "`" + `.
2. A ` + "`" + `recipe` + "`" + ` line takes only a ` + "`" + `quantity` + "`" + `; no unit, size or descriptor.
3. Quantities are plain numbers, decimals or fractions. Words like "a pinch"
   are rejected; write ` + "`" + `quantity: 1` + "`" + ` with ` + "`" + `unit: pinch` + "`" + ` instead.
4. Ingredient names are matched case-insensitively, ignoring accents, plurals
   and punctuation, so "Tomatoes" and "tomato" are the same ingredient.
5. A recipe must not include itself, directly or through other recipes.
   Cycles are cut when the recipe is resolved and reported as notices.
6. Referencing a recipe that does not exist yet is allowed; it contributes
   nothing until the recipe is created.

## Shopping lists

Build a list with ` + "`" + `build_shopping_list` + "`" + `, passing recipe slugs, each
optionally followed by ` + "`" + `*multiplier` + "`" + `:

    pasta-bake*2, pesto

Items are grouped into the sections of the chosen store, in store order.
Items no store section claims end up under "Uncategorized".
`
