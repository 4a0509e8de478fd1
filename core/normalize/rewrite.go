package normalize

import (
	"strings"
	"unicode"
)

// suffixRewrites canonicalizes known warehouse-type suffixes. The list is
// ordered: longer, more specific forms must come before their substrings so
// "REGIONAL_FULFILLMENT_CENTER" wins over "FULFILLMENT_CENTER".
var suffixRewrites = []struct {
	match     string
	canonical string
}{
	{"REGIONAL_FULFILLMENT_CENTER", "RFC"},
	{"FULFILLMENT_CENTER", "FC"},
	{"DISTRIBUTION_CENTER", "DC"},
	{"SORTING_CENTER", "SC"},
	{"WAREHOUSE", "WH"},
	// Source-alphabet variants seen in marketplace exports.
	{"РФЦ", "RFC"},
	{"СЦ", "SC"},
	{"СКЛАД", "WH"},
}

// Rewrite derives a canonical warehouse name from a cleaned (trimmed,
// upper-cased) raw name. The pipeline is a fixed ordered list of structural
// rules, so the same input always derives the same output:
//
//  1. collapse whitespace runs into a single underscore
//  2. strip characters outside [A-Za-z0-9_-] and the source alphabet
//  3. canonicalize known warehouse-type suffixes
//  4. trim trailing separators
func Rewrite(cleaned string) string {
	name := collapseWhitespace(cleaned)
	name = stripInvalid(name)
	name = canonicalizeSuffix(name)
	name = strings.TrimRight(name, "_-")
	return name
}

// collapseWhitespace replaces every run of whitespace with one underscore.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// stripInvalid removes runes outside the allowed set. Letters from the source
// alphabet (any Unicode letter) are kept so native-script warehouse names
// survive until the suffix table can translate them.
func stripInvalid(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-':
			b.WriteRune(r)
		case unicode.IsLetter(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalizeSuffix rewrites a recognized warehouse-type suffix to its
// canonical abbreviation. Only the trailing token is considered; a name that
// consists solely of a recognized type is left to the suffix form as well.
func canonicalizeSuffix(s string) string {
	for _, rule := range suffixRewrites {
		if s == rule.match {
			return rule.canonical
		}
		if strings.HasSuffix(s, "_"+rule.match) {
			return strings.TrimSuffix(s, rule.match) + rule.canonical
		}
	}
	return s
}
