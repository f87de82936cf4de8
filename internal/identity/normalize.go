// Package identity normalizes ingredient names and resolves line items to
// stable ingredient identities.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var defaultPrefixes = []string{
	"fresh", "freshly", "dried", "frozen", "canned", "whole",
	"chopped", "diced", "sliced", "minced", "grated", "shredded",
	"peeled", "organic",
}

var defaultCorrections = map[string]string{
	"aubergine":     "eggplant",
	"courgette":     "zucchini",
	"coriander":     "cilantro",
	"capsicum":      "bell pepper",
	"chilli":        "chili",
	"chile":         "chili",
	"scallion":      "green onion",
	"spring onion":  "green onion",
	"yoghurt":       "yogurt",
	"garbanzo bean": "chickpea",
	"garbanzo":      "chickpea",
	"rocket":        "arugula",
	"caster sugar":  "superfine sugar",
	"icing sugar":   "powdered sugar",
}

var defaultPlurals = map[string]string{
	"tomatoes": "tomato",
	"potatoes": "potato",
	"carrots":  "carrot",
	"onions":   "onion",
	"apples":   "apple",
	"bananas":  "banana",
	"eggs":     "egg",
	"lemons":   "lemon",
	"oranges":  "orange",
	"leaves":   "leaf",
	"loaves":   "loaf",
	"halves":   "half",
	"knives":   "knife",
	"mangoes":  "mango",
	"chilies":  "chili",
	"chillies": "chili",
	"cookies":  "cookie",
}

// words that end in "s" but are already singular
var defaultInvariant = []string{
	"asparagus", "hummus", "couscous", "molasses", "swiss", "grits",
	"citrus", "octopus", "hibiscus", "watercress", "schnapps", "hops",
}

// Normalizer turns free-text ingredient names into comparable keys.
type Normalizer struct {
	prefixes    []string
	corrections map[string]string
	plurals     map[string]string
	invariant   map[string]struct{}
}

// NewNormalizer returns a normalizer with the built-in word tables.
func NewNormalizer() *Normalizer {
	n := &Normalizer{
		prefixes:    defaultPrefixes,
		corrections: defaultCorrections,
		plurals:     defaultPlurals,
		invariant:   make(map[string]struct{}, len(defaultInvariant)),
	}
	for _, w := range defaultInvariant {
		n.invariant[w] = struct{}{}
	}
	return n
}

var std = NewNormalizer()

// Normalize applies the default normalizer.
func Normalize(name string) string { return std.Normalize(name) }

// Normalize lower-cases name, folds diacritics, collapses whitespace, strips
// leading descriptive words, applies spelling corrections and singularizes the
// final word. The result is idempotent: Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(name string) string {
	s := n.clean(name)
	if s == "" {
		return ""
	}
	s = n.stripPrefixes(s)
	s = n.correct(s)
	s = n.singularize(s)
	return n.correct(s)
}

// clean folds case and diacritics and reduces punctuation to spaces.
func (n *Normalizer) clean(name string) string {
	// transformers carry state, so build a fresh chain per call
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	lower := cases.Lower(language.Und).String(folded)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '\'':
			return r
		default:
			return ' '
		}
	}, lower)
	return strings.Join(strings.Fields(mapped), " ")
}

func (n *Normalizer) stripPrefixes(s string) string {
	for {
		stripped := false
		for _, p := range n.prefixes {
			if rest, ok := strings.CutPrefix(s, p+" "); ok && rest != "" {
				s = rest
				stripped = true
			}
		}
		if !stripped {
			return s
		}
	}
}

func (n *Normalizer) correct(s string) string {
	if c, ok := n.corrections[s]; ok {
		return c
	}
	// multi-word names correct their head noun: "green chilli" → "green chili"
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		if c, ok := n.corrections[s[i+1:]]; ok {
			return s[:i+1] + c
		}
	}
	return s
}

func (n *Normalizer) singularize(s string) string {
	if _, ok := n.invariant[s]; ok {
		return s
	}
	head, last := "", s
	if i := strings.LastIndexByte(s, ' '); i >= 0 {
		head, last = s[:i+1], s[i+1:]
	}
	return head + n.singular(last)
}

func (n *Normalizer) singular(w string) string {
	if p, ok := n.plurals[w]; ok {
		return p
	}
	if _, ok := n.invariant[w]; ok {
		return w
	}
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
		strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "sses")):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s") && len(w)-1 > 2:
		return w[:len(w)-1]
	}
	return w
}
