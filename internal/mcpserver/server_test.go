package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/larder/internal/grocery"
	"github.com/starford/larder/internal/recipeservice"
	"github.com/starford/larder/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	testutil.SeedVault(t, store, db, testutil.KitchenFiles)

	recipes := recipeservice.NewService(store, db)
	lists := grocery.New(db, grocery.WithLogger(testutil.Quiet()))
	return New(recipes, lists, db)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_recipes":
		result, err = srv.listRecipes(ctx, req)
	case "read_recipe":
		result, err = srv.readRecipe(ctx, req)
	case "create_recipe":
		result, err = srv.createRecipe(ctx, req)
	case "resolve_recipe":
		result, err = srv.resolveRecipe(ctx, req)
	case "build_shopping_list":
		result, err = srv.buildShoppingList(ctx, req)
	case "get_recipe_contract":
		result, err = srv.getRecipeContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListRecipes(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "list_recipes", map[string]interface{}{}))
	if text != "pasta-bake\tPasta Bake\npesto\tPesto\ntomato-sauce\tTomato Sauce" {
		t.Errorf("list = %q", text)
	}
	text = resultText(callTool(t, srv, "list_recipes", map[string]interface{}{"query": "zzz"}))
	if text != "no recipes found" {
		t.Errorf("empty search = %q", text)
	}
}

func TestCreateAndReadRecipe(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_recipe", map[string]interface{}{
		"content": "name: Garlic Bread\ningredients:\n  - item: baguette\n    quantity: 1\n  - recipe: garlic-butter\n    quantity: 1/2\n",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	if text := resultText(r); text != "created: recipes/garlic-bread.yaml\nmissing sub-recipes: garlic-butter" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_recipe", map[string]interface{}{"slug": "garlic-bread"})
	text := resultText(r)
	if !strings.Contains(text, "name: Garlic Bread") || !strings.Contains(text, "recipe: garlic-butter") {
		t.Errorf("read result = %q", text)
	}

	r = callTool(t, srv, "create_recipe", map[string]interface{}{
		"slug":    "garlic-bread",
		"content": "name: Garlic Bread\n",
	})
	if !r.IsError {
		t.Error("expected error for duplicate recipe")
	}
}

func TestCreateRecipe_Invalid(t *testing.T) {
	srv := testServer(t)
	for _, content := range []string{
		"name: [",
		"servings: 2\n",
		"name: Soup\ningredients:\n  - item: salt\n    quantity: a pinch\n",
	} {
		r := callTool(t, srv, "create_recipe", map[string]interface{}{"content": content})
		if !r.IsError {
			t.Errorf("expected error for %q", content)
		}
	}
}

func TestReadRecipeMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_recipe", map[string]interface{}{"slug": "nope"})
	if !r.IsError || resultText(r) != "not found: nope" {
		t.Errorf("missing recipe = %q (error %v)", resultText(r), r.IsError)
	}
}

func TestResolveRecipe(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "resolve_recipe", map[string]interface{}{"slug": "pesto", "multiplier": "2"})
	if r.IsError {
		t.Fatalf("resolve failed: %s", resultText(r))
	}
	var res struct {
		Items []struct {
			Name     string `json:"name"`
			Quantity string `json:"quantity"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 3 || res.Items[2].Name != "pine nuts" || res.Items[2].Quantity != "1/2" {
		t.Errorf("items = %+v", res.Items)
	}

	if r := callTool(t, srv, "resolve_recipe", map[string]interface{}{"slug": "pesto", "multiplier": "x"}); !r.IsError {
		t.Error("expected error for bad multiplier")
	}
}

func TestBuildShoppingList(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "build_shopping_list", map[string]interface{}{
		"recipes": "pasta-bake, pesto*2",
		"store":   "corner-shop",
	})
	if r.IsError {
		t.Fatalf("build failed: %s", resultText(r))
	}
	text := resultText(r)
	for _, want := range []string{"Shopping list for Corner Shop", "  - pasta: 1 lb", "  - basil: 4 cup"} {
		if !strings.Contains(text, want) {
			t.Errorf("list missing %q:\n%s", want, text)
		}
	}

	if r := callTool(t, srv, "build_shopping_list", map[string]interface{}{"recipes": "pesto", "store": "mall"}); !r.IsError {
		t.Error("expected error for unknown store")
	}
	if r := callTool(t, srv, "build_shopping_list", map[string]interface{}{"recipes": " , "}); !r.IsError {
		t.Error("expected error for empty recipe list")
	}
}

func TestRecipeContract(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_recipe_contract", nil))
	if !strings.Contains(text, "recipes/<slug>.yaml") {
		t.Error("contract should describe the file layout")
	}
	contents, err := srv.readRecipeFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != "larder://recipe-format" {
		t.Errorf("resource = %+v", contents[0])
	}
}
