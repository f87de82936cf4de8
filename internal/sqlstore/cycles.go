package sqlstore

import (
	"context"
	"fmt"
	"slices"
)

// FindCycles reports every composition loop among imported recipes as the
// slugs along the loop, first slug repeated at the end. Resolution already
// stops at a loop; this only makes loops visible at import time.
func (db *DB) FindCycles(ctx context.Context) ([][]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.slug, l.sub_recipe_slug FROM recipe_lines l JOIN recipes r ON r.id = l.recipe_id
		WHERE l.kind = 'recipe'
		UNION ALL
		SELECT r.slug, k.child_slug FROM recipe_links k JOIN recipes r ON r.id = k.parent_id
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: composition edges: %w", err)
	}
	defer rows.Close()

	edges := make(map[string][]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, err
		}
		if !slices.Contains(edges[from], to) {
			edges[from] = append(edges[from], to)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	nodes := make([]string, 0, len(edges))
	for n := range edges {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	for _, n := range nodes {
		slices.Sort(edges[n])
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int)
	var stack []string
	var cycles [][]string

	var visit func(n string)
	visit = func(n string) {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range edges[n] {
			switch color[next] {
			case grey:
				start := slices.Index(stack, next)
				loop := append(slices.Clone(stack[start:]), next)
				cycles = append(cycles, loop)
			case white:
				visit(next)
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}
	for _, n := range nodes {
		if color[n] == white {
			visit(n)
		}
	}
	return cycles, nil
}
