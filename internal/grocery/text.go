package grocery

import (
	"fmt"
	"io"
	"strings"

	"github.com/starford/larder/internal/models"
)

// ParseEntry reads "slug" or "slug*multiplier", e.g. "pesto*1/2".
func ParseEntry(s string) Entry {
	slug, mult, _ := strings.Cut(strings.TrimSpace(s), "*")
	return Entry{Slug: strings.TrimSpace(slug), Multiplier: strings.TrimSpace(mult)}
}

// ParseEntries splits a comma or whitespace separated list of entries.
func ParseEntries(s string) []Entry {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' })
	out := make([]Entry, 0, len(fields))
	for _, f := range fields {
		if e := ParseEntry(f); e.Slug != "" {
			out = append(out, e)
		}
	}
	return out
}

// WriteText renders a list as plain text: one heading per section, one
// line per item with every total, then the notices.
func WriteText(w io.Writer, list *models.ShoppingList) error {
	var b strings.Builder
	if list.Store != "" {
		fmt.Fprintf(&b, "Shopping list for %s\n", list.Store)
	}
	for _, sec := range list.Sections {
		fmt.Fprintf(&b, "\n%s\n", sec.Name)
		for _, it := range sec.Items {
			totals := make([]string, 0, len(it.Totals))
			for _, a := range it.Totals {
				if a.Display != "" {
					totals = append(totals, a.Display)
				}
			}
			if len(totals) == 0 {
				fmt.Fprintf(&b, "  - %s\n", it.DisplayName)
				continue
			}
			fmt.Fprintf(&b, "  - %s: %s\n", it.DisplayName, strings.Join(totals, " + "))
		}
	}
	if len(list.Notices) > 0 {
		b.WriteString("\nNotices\n")
		for _, n := range list.Notices {
			fmt.Fprintf(&b, "  ! %s: %s\n", n.Kind, n.Message)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
