// Package identifier normalizes user-authored names into target-language
// identifiers: Pascal case, with invalid characters stripped and reserved
// words avoided. It is used only for cosmetic names inside the binary
// container and the manifest (struct names, field names, db property
// names) — it never affects on-disk value encoding.
package identifier

import (
	"strconv"
	"strings"
	"unicode"
)

// reservedWords lists identifiers that collide with a common target
// generated-code language keyword; names matching one get an underscore
// suffix.
var reservedWords = map[string]bool{
	"type": true, "struct": true, "interface": true, "func": true,
	"package": true, "import": true, "const": true, "var": true,
	"map": true, "range": true, "return": true, "default": true,
	"class": true, "namespace": true, "enum": true, "object": true,
	"string": true, "int": true, "float": true, "bool": true, "byte": true,
}

// Pascal converts a raw user-authored name (snake_case, kebab-case, space
// separated, or already mixed case) into PascalCase, stripping any
// character that isn't a letter or digit and treating separators as word
// boundaries.
func Pascal(raw string) string {
	var b strings.Builder
	upperNext := true
	prevDigit := false
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			upperNext = false
			prevDigit = true
		case unicode.IsLetter(r):
			if upperNext || prevDigit {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(r)
			}
			upperNext = false
			prevDigit = false
		default:
			upperNext = true
			prevDigit = false
		}
	}
	out := b.String()
	if out == "" {
		return "Field"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}

// AvoidReserved appends an underscore to name if it collides case-
// insensitively with a reserved word of the target generated-code
// language.
func AvoidReserved(name string) string {
	if reservedWords[strings.ToLower(name)] {
		return name + "_"
	}
	return name
}

// Disambiguate returns name unchanged the first time it's seen for a given
// used-names set, and otherwise appends a numeric suffix until it finds a
// name not yet in used. used is mutated to record the returned name.
//
// This mirrors a DbPropertyName/field-name disambiguation scheme:
// ties are broken by a deterministic numeric
// suffix, not by declaration order jitter.
func Disambiguate(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = name + strconv.Itoa(n)
	}
	used[candidate] = true
	return candidate
}
