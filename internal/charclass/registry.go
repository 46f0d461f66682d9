// Package charclass holds the fixed table of Unicode general categories that
// the ignore_character processor can strip, plus a process-wide cache of
// compiled custom patterns.
package charclass

import (
	"fmt"
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultPatternCacheSize bounds the number of distinct custom patterns kept
// compiled at once.
const DefaultPatternCacheSize = 256

// Class is one Unicode general category.
type Class struct {
	// Code is the two-letter category code, e.g. "Po".
	Code string
	// Label is the human-readable category name.
	Label string
	// Expression is the character-class body matching the category.
	Expression string

	pattern *regexp.Regexp
}

// classes is the canonical ordering. Normalization applies enabled classes
// in this order regardless of how the configuration lists them.
var classes = []Class{
	{Code: "Pc", Label: "Punctuation, Connector Characters"},
	{Code: "Pd", Label: "Punctuation, Dash Characters"},
	{Code: "Pe", Label: "Punctuation, Close Characters"},
	{Code: "Pf", Label: "Punctuation, Final quote Characters"},
	{Code: "Pi", Label: "Punctuation, Initial quote Characters"},
	{Code: "Po", Label: "Punctuation, Other Characters"},
	{Code: "Ps", Label: "Punctuation, Open Characters"},

	{Code: "Cc", Label: "Other, Control Characters"},
	{Code: "Cf", Label: "Other, Format Characters"},
	{Code: "Co", Label: "Other, Private Use Characters"},

	{Code: "Mc", Label: "Mark, Spacing Combining Characters"},
	{Code: "Me", Label: "Mark, Enclosing Characters"},
	{Code: "Mn", Label: "Mark, Nonspacing Characters"},

	{Code: "Sc", Label: "Symbol, Currency Characters"},
	{Code: "Sk", Label: "Symbol, Modifier Characters"},
	{Code: "Sm", Label: "Symbol, Math Characters"},
	{Code: "So", Label: "Symbol, Other Characters"},

	{Code: "Zl", Label: "Separator, Line Characters"},
	{Code: "Zp", Label: "Separator, Paragraph Characters"},
	{Code: "Zs", Label: "Separator, Space Characters"},
}

// byCode indexes classes by code; positions give the canonical order.
var byCode = make(map[string]int, len(classes))

func init() {
	for i := range classes {
		c := &classes[i]
		c.Expression = `\p{` + c.Code + `}`
		c.pattern = regexp.MustCompile(`[` + c.Expression + `]+`)
		byCode[c.Code] = i
	}
}

// Classes returns all registered classes in canonical order.
func Classes() []Class {
	out := make([]Class, len(classes))
	copy(out, classes)
	return out
}

// Codes returns the registered category codes in canonical order.
func Codes() []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.Code
	}
	return out
}

// Lookup returns the compiled matcher for a category code.
// Unknown codes report false.
func Lookup(code string) (*regexp.Regexp, bool) {
	i, ok := byCode[code]
	if !ok {
		return nil, false
	}
	return classes[i].pattern, true
}

// IsKnown reports whether code is a registered category.
func IsKnown(code string) bool {
	_, ok := byCode[code]
	return ok
}

// Ordered filters codes down to known categories and returns them in
// canonical order without duplicates.
func Ordered(codes []string) []string {
	enabled := make([]bool, len(classes))
	for _, code := range codes {
		if i, ok := byCode[code]; ok {
			enabled[i] = true
		}
	}

	out := make([]string, 0, len(codes))
	for i, on := range enabled {
		if on {
			out = append(out, classes[i].Code)
		}
	}
	return out
}

var (
	cacheOnce sync.Once
	cache     *lru.Cache[string, *regexp.Regexp]
)

func patternCache() *lru.Cache[string, *regexp.Regexp] {
	cacheOnce.Do(func() {
		// Only errors on a non-positive size.
		cache, _ = lru.New[string, *regexp.Regexp](DefaultPatternCacheSize)
	})
	return cache
}

// CompileRun compiles expr so that it matches a maximal run of one or more
// consecutive matches. Results are cached, so reloading an unchanged
// configuration does not recompile.
func CompileRun(expr string) (*regexp.Regexp, error) {
	c := patternCache()
	if re, ok := c.Get(expr); ok {
		return re, nil
	}

	re, err := regexp.Compile(`(?:` + expr + `)+`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	c.Add(expr, re)
	return re, nil
}
