// Package quantity models ingredient amounts that may be absent, exact
// fractions, or decimals, and implements the arithmetic the shopping-list
// pipeline needs on them.
package quantity

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Kind discriminates the representation held by a Quantity.
type Kind uint8

const (
	// None means no amount was given ("salt to taste").
	None Kind = iota
	// Fraction is an exact rational num/den.
	Fraction
	// Decimal is an arbitrary-precision decimal.
	Decimal
)

func (k Kind) String() string {
	switch k {
	case Fraction:
		return "fraction"
	case Decimal:
		return "decimal"
	default:
		return "none"
	}
}

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("quantity: unparseable")

// ParseError reports quantity text that is neither blank, numeric nor a fraction.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("quantity: cannot parse %q: %s", e.Text, e.Reason)
}

// Is makes errors.Is(err, ErrParse) hold for any *ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Quantity is an immutable amount. The zero value is "no quantity".
type Quantity struct {
	kind Kind
	num  int64
	den  int64
	dec  *apd.Decimal
}

// arithmetic context shared by all decimal operations.
var ctx = apd.BaseContext.WithPrecision(34)

var (
	decimalRe  = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]+)?|\.[0-9]+)$`)
	fractionRe = regexp.MustCompile(`^(?:([0-9]+)\s+)?([0-9]+)\s*/\s*([0-9]+)$`)
)

var vulgarFractions = strings.NewReplacer(
	"½", " 1/2", "⅓", " 1/3", "⅔", " 2/3", "¼", " 1/4", "¾", " 3/4",
	"⅛", " 1/8", "⅜", " 3/8", "⅝", " 5/8", "⅞", " 7/8",
)

// One is the neutral multiplier.
var One = Quantity{kind: Fraction, num: 1, den: 1}

// Parse reads user-entered quantity text. Blank text yields the zero Quantity
// and no error; "3", "0.75" and ".5" yield decimals; "1/2" and "1 1/2" yield
// exact fractions. Anything else yields a *ParseError.
func Parse(text string) (Quantity, error) {
	s := strings.TrimSpace(vulgarFractions.Replace(text))
	if s == "" {
		return Quantity{}, nil
	}

	if m := fractionRe.FindStringSubmatch(s); m != nil {
		var whole int64
		if m[1] != "" {
			w, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return Quantity{}, &ParseError{Text: text, Reason: "whole part out of range"}
			}
			whole = w
		}
		num, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return Quantity{}, &ParseError{Text: text, Reason: "numerator out of range"}
		}
		den, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			return Quantity{}, &ParseError{Text: text, Reason: "denominator out of range"}
		}
		if den == 0 {
			return Quantity{}, &ParseError{Text: text, Reason: "zero denominator"}
		}
		wd, ok := mul64(whole, den)
		if !ok {
			return Quantity{}, &ParseError{Text: text, Reason: "value out of range"}
		}
		n, ok := add64(wd, num)
		if !ok {
			return Quantity{}, &ParseError{Text: text, Reason: "value out of range"}
		}
		return Quantity{kind: Fraction, num: n, den: den}, nil
	}

	if decimalRe.MatchString(s) {
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return Quantity{}, &ParseError{Text: text, Reason: err.Error()}
		}
		return Quantity{kind: Decimal, dec: d}, nil
	}

	return Quantity{}, &ParseError{Text: text, Reason: "not a number or fraction"}
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(text string) Quantity {
	q, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return q
}

// FromInt returns n as a whole fraction.
func FromInt(n int64) Quantity {
	return Quantity{kind: Fraction, num: n, den: 1}
}

// Kind reports the representation.
func (q Quantity) Kind() Kind { return q.kind }

// IsNone reports whether q carries no amount.
func (q Quantity) IsNone() bool { return q.kind == None }

// IsOne reports whether q is numerically 1.
func (q Quantity) IsOne() bool {
	switch q.kind {
	case Fraction:
		return q.num == q.den
	case Decimal:
		return q.dec.Cmp(apd.New(1, 0)) == 0
	}
	return false
}

// Parts returns the numerator and denominator of a fraction.
func (q Quantity) Parts() (num, den int64, ok bool) {
	if q.kind != Fraction {
		return 0, 0, false
	}
	return q.num, q.den, true
}

// Decimal returns q as a fresh decimal, or nil when q is None.
// Fractions with non-terminating expansions are rounded to the context precision.
func (q Quantity) Decimal() *apd.Decimal {
	switch q.kind {
	case Fraction:
		d := new(apd.Decimal)
		_, _ = ctx.Quo(d, apd.New(q.num, 0), apd.New(q.den, 0))
		return d
	case Decimal:
		return new(apd.Decimal).Set(q.dec)
	}
	return nil
}

// cmp compares numeric values. None sorts before everything.
func (q Quantity) cmp(o Quantity) int {
	switch {
	case q.kind == None && o.kind == None:
		return 0
	case q.kind == None:
		return -1
	case o.kind == None:
		return 1
	}
	return q.Decimal().Cmp(o.Decimal())
}

// Equal reports numeric equality regardless of representation.
func (q Quantity) Equal(o Quantity) bool {
	if q.kind == Fraction && o.kind == Fraction {
		// cross-multiply to stay exact
		l, ok1 := mul64(q.num, o.den)
		r, ok2 := mul64(o.num, q.den)
		if ok1 && ok2 {
			return l == r
		}
	}
	return q.cmp(o) == 0
}

// Combine adds two quantities. Two fractions add exactly over their least
// common denominator and the result is reduced; any decimal operand makes the
// sum decimal. None is the identity.
func Combine(a, b Quantity) Quantity {
	switch {
	case a.kind == None:
		return b
	case b.kind == None:
		return a
	}

	if a.kind == Fraction && b.kind == Fraction {
		if sum, ok := addFractions(a, b); ok {
			return sum
		}
	}

	d := new(apd.Decimal)
	_, _ = ctx.Add(d, a.Decimal(), b.Decimal())
	return Quantity{kind: Decimal, dec: d}
}

func addFractions(a, b Quantity) (Quantity, bool) {
	g := gcd(a.den, b.den)
	lcd, ok := mul64(a.den/g, b.den)
	if !ok {
		return Quantity{}, false
	}
	an, ok := mul64(a.num, lcd/a.den)
	if !ok {
		return Quantity{}, false
	}
	bn, ok := mul64(b.num, lcd/b.den)
	if !ok {
		return Quantity{}, false
	}
	n, ok := add64(an, bn)
	if !ok {
		return Quantity{}, false
	}
	return reduce(n, lcd), true
}

// Scale multiplies q by m. A fraction times an integer stays an exact
// fraction (numerator multiplied, denominator kept); every other combination
// is computed in decimal. Scale(q, 1) returns q unchanged and a None
// multiplier counts as 1.
func Scale(q, m Quantity) Quantity {
	if q.kind == None || m.kind == None || m.IsOne() {
		return q
	}

	if q.kind == Fraction {
		if k, ok := m.integer(); ok {
			if n, ok := mul64(q.num, k); ok {
				return Quantity{kind: Fraction, num: n, den: q.den}
			}
		}
	}

	d := new(apd.Decimal)
	_, _ = ctx.Mul(d, q.Decimal(), m.Decimal())
	return Quantity{kind: Decimal, dec: d}
}

// Rescale returns q*mul/div as a decimal rounded to places fractional digits.
// It is the primitive behind unit conversion, which never keeps fractions.
func Rescale(q Quantity, mul, div *apd.Decimal, places int32) (Quantity, error) {
	if q.kind == None {
		return q, nil
	}
	if div.IsZero() {
		return Quantity{}, errors.New("quantity: rescale by zero")
	}
	d := new(apd.Decimal)
	if _, err := ctx.Mul(d, q.Decimal(), mul); err != nil {
		return Quantity{}, fmt.Errorf("quantity: rescale: %w", err)
	}
	if _, err := ctx.Quo(d, d, div); err != nil {
		return Quantity{}, fmt.Errorf("quantity: rescale: %w", err)
	}
	if _, err := ctx.Quantize(d, d, -places); err != nil {
		return Quantity{}, fmt.Errorf("quantity: rescale: %w", err)
	}
	return Quantity{kind: Decimal, dec: d}, nil
}

// integer returns m as an int64 when m is a whole number.
func (q Quantity) integer() (int64, bool) {
	switch q.kind {
	case Fraction:
		if q.num%q.den != 0 {
			return 0, false
		}
		return q.num / q.den, true
	case Decimal:
		var r apd.Decimal
		r.Reduce(q.dec)
		if r.Exponent < 0 {
			return 0, false
		}
		n, err := r.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// DisplayPlaces is the number of fractional digits Format keeps for decimals.
const DisplayPlaces = 3

// Format renders q for display: whole fractions as integers, improper
// fractions as "w r/d", proper fractions as "n/d", decimals rounded to
// DisplayPlaces without trailing zeros. None formats as the empty string.
func Format(q Quantity) string { return FormatPlaces(q, DisplayPlaces) }

// FormatPlaces is Format with decimals rounded half-up to places fractional
// digits. A negative places keeps every digit.
func FormatPlaces(q Quantity, places int32) string {
	switch q.kind {
	case Fraction:
		r := reduce(q.num, q.den)
		if r.den == 1 {
			return strconv.FormatInt(r.num, 10)
		}
		sign := ""
		n := r.num
		if n < 0 {
			sign, n = "-", -n
		}
		if n > r.den {
			return fmt.Sprintf("%s%d %d/%d", sign, n/r.den, n%r.den, r.den)
		}
		return fmt.Sprintf("%s%d/%d", sign, n, r.den)
	case Decimal:
		var r apd.Decimal
		r.Set(q.dec)
		if places >= 0 && -r.Exponent > places {
			if _, err := ctx.Quantize(&r, q.dec, -places); err != nil {
				r.Set(q.dec)
			}
		}
		r.Reduce(&r)
		if r.IsZero() {
			r.Negative = false
		}
		return r.Text('f')
	}
	return ""
}

// String implements fmt.Stringer.
func (q Quantity) String() string { return Format(q) }

// MarshalText encodes q exactly, so decimals round-trip without display
// rounding.
func (q Quantity) MarshalText() ([]byte, error) {
	return []byte(FormatPlaces(q, -1)), nil
}

// UnmarshalText parses text with Parse.
func (q *Quantity) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

func reduce(num, den int64) Quantity {
	g := gcd(abs(num), den)
	if g > 1 {
		num, den = num/g, den/g
	}
	return Quantity{kind: Fraction, num: num, den: den}
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

func add64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}
