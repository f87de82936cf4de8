// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Larder tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/grocery"
	"github.com/starford/larder/internal/quantity"
	"github.com/starford/larder/internal/recipefile"
	"github.com/starford/larder/internal/recipeservice"
	"github.com/starford/larder/internal/sqlstore"
)

const formatURI = "larder://recipe-format"

// Server wraps the MCP server with Larder tools.
type Server struct {
	mcp     *server.MCPServer
	recipes *recipeservice.Service
	lists   *grocery.Service
	db      sqlstore.Index
}

// New creates a new MCP server with all Larder tools registered.
func New(recipes *recipeservice.Service, lists *grocery.Service, db sqlstore.Index) *Server {
	s := &Server{recipes: recipes, lists: lists, db: db}

	s.mcp = server.NewMCPServer(
		"Larder",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List recipes, optionally filtered by a name or slug fragment."),
		mcp.WithString("query", mcp.Description("Optional name or slug fragment")),
	), s.listRecipes)

	s.mcp.AddTool(mcp.NewTool("read_recipe",
		mcp.WithDescription("Read a recipe as YAML."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Recipe slug (e.g. tomato-sauce)")),
	), s.readRecipe)

	s.mcp.AddTool(mcp.NewTool("create_recipe",
		mcp.WithDescription("Create a new recipe from YAML. "+
			"Content MUST follow the recipe format. Read it first via "+
			"the get_recipe_contract tool or the "+formatURI+" resource."),
		mcp.WithString("slug", mcp.Description("Slug for the new recipe; derived from the name when empty")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Recipe YAML following the Larder recipe format")),
	), s.createRecipe)

	s.mcp.AddTool(mcp.NewTool("resolve_recipe",
		mcp.WithDescription("Flatten a recipe and its sub-recipes into scaled ingredient lines."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Recipe slug")),
		mcp.WithString("multiplier", mcp.Description("Optional scale factor, e.g. 2 or 1/2")),
	), s.resolveRecipe)

	s.mcp.AddTool(mcp.NewTool("build_shopping_list",
		mcp.WithDescription("Build a shopping list grouped by store section."),
		mcp.WithString("recipes", mcp.Required(), mcp.Description("Comma separated recipe slugs, each optionally followed by *multiplier (e.g. pasta-bake*2, pesto)")),
		mcp.WithString("store", mcp.Description("Optional store slug; the default store when empty")),
	), s.buildShoppingList)

	s.mcp.AddTool(mcp.NewTool("get_recipe_contract",
		mcp.WithDescription("Returns the Larder recipe format. "+
			"Call this before creating recipes to ensure correct structure."),
	), s.getRecipeContract)

	// Resource: recipe format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Recipe Format",
			mcp.WithResourceDescription("YAML recipe format that all recipes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecipeFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, _, err := s.recipes.List(ctx, req.GetString("query", ""), 200, 0)
	if err != nil {
		return toolError(err), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no recipes found"), nil
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.Slug + "\t" + r.Name
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.recipes.Get(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return toolError(err), nil
	}
	data, err := recipefile.Marshal(d.Recipe)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := recipefile.ParseRecipe([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.recipes.Create(ctx, req.GetString("slug", ""), *doc)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError("recipe already exists"), nil
		}
		return toolError(err), nil
	}
	msg := fmt.Sprintf("created: %s", d.Path)
	if len(d.Missing) > 0 {
		msg += "\nmissing sub-recipes: " + strings.Join(d.Missing, ", ")
	}
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) resolveRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mult, err := quantity.Parse(req.GetString("multiplier", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := s.recipes.Lookup(ctx, slug)
	if err != nil {
		return toolError(err), nil
	}
	res, err := s.lists.ResolveScaled(ctx, r.ID, mult)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res), nil
}

func (s *Server) buildShoppingList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("recipes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries := grocery.ParseEntries(raw)
	if len(entries) == 0 {
		return mcp.NewToolResultError("no recipes given"), nil
	}

	var storeID int64
	if slug := req.GetString("store", ""); slug != "" {
		st, err := s.db.LookupStoreBySlug(ctx, slug)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown store: %s", slug)), nil
		}
		storeID = st.ID
	}

	list, err := s.lists.BuildList(ctx, grocery.Request{Entries: entries, StoreID: storeID})
	if err != nil {
		return toolError(err), nil
	}
	var b strings.Builder
	if err := grocery.WriteText(&b, list); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getRecipeContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecipeFormatContract), nil
}

func (s *Server) readRecipeFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     RecipeFormatContract,
		},
	}, nil
}
