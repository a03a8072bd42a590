// Package ident maps arbitrary column names to identifiers that can be bound
// in both template languages (Starlark and HCL expressions).
package ident

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholder is returned for inputs that contain no usable characters.
const Placeholder = "_col"

// reserved holds Starlark keywords, names Starlark reserves for future use,
// its literal constants and the HCL expression keywords.
var reserved = map[string]struct{}{
	"and": {}, "break": {}, "continue": {}, "def": {}, "elif": {}, "else": {},
	"for": {}, "if": {}, "in": {}, "lambda": {}, "load": {}, "not": {},
	"or": {}, "pass": {}, "return": {}, "while": {},
	"as": {}, "assert": {}, "async": {}, "await": {}, "class": {}, "del": {},
	"except": {}, "finally": {}, "from": {}, "global": {}, "import": {},
	"is": {}, "nonlocal": {}, "raise": {}, "try": {}, "with": {}, "yield": {},
	"None": {}, "True": {}, "False": {},
	"true": {}, "false": {}, "null": {},
}

// IsReserved reports whether name is a keyword in either template language.
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// Sanitize converts s into a bindable identifier.
// It is total and deterministic: accents are folded, decimal digits of any
// script become ASCII digits, every run of characters that cannot appear in
// an identifier becomes a single underscore, and names starting with a digit
// or colliding with a keyword get an underscore prefix.
func Sanitize(s string) string {
	folded := fold(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if r > unicode.MaxASCII && unicode.IsDigit(r) {
			r = asciiDigit(r)
		}
		if isIdentRune(r) {
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if pendingSep && b.Len() > 0 {
		b.WriteByte('_')
	}

	id := b.String()
	switch {
	case id == "":
		return Placeholder
	case isDigit(rune(id[0])):
		return "_" + id
	case IsReserved(id):
		return "_" + id
	}
	return id
}

// Valid reports whether s is already a bindable identifier.
func Valid(s string) bool {
	if s == "" || IsReserved(s) {
		return false
	}
	for i, r := range s {
		if !isIdentRune(r) {
			return false
		}
		if i == 0 && isDigit(r) {
			return false
		}
	}
	return true
}

// Assign sanitizes names in order and resolves collisions between them by
// suffixing later duplicates with _2, _3, ... The result is parallel to names.
func Assign(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]struct{}, len(names))
	for i, name := range names {
		base := Sanitize(name)
		id := base
		for n := 2; ; n++ {
			if _, dup := taken[id]; !dup {
				break
			}
			id = base + "_" + strconv.Itoa(n)
		}
		taken[id] = struct{}{}
		out[i] = id
	}
	return out
}

// isIdentRune accepts letters of any script but only ASCII digits, which is
// what the Starlark scanner accepts.
func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || isDigit(r)
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

// asciiDigit maps a decimal digit of any script to '0'..'9'. Each script
// lays out its digits as a contiguous run starting at zero.
func asciiDigit(r rune) rune {
	zero := r
	for zero > r-9 && unicode.IsDigit(zero-1) {
		zero--
	}
	return '0' + (r - zero)
}

// fold strips combining marks so "Größe" and "café" keep their letters.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
