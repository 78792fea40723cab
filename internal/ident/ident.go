// Package ident computes stable, content-derived symbol identifiers.
//
// Identity must be deterministic across translation units: the same logical
// declaration, observed through pointers, references, cv-qualification,
// typedefs, or template specialization, must always yield the same SymbolID.
// Built-in types and types with no underlying declared entity yield the zero
// ID ("no target").
package ident

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hward/cppdex/internal/sym"
)

// hash derives a SymbolID from the given identity parts. The parts are
// joined with an unambiguous separator before hashing so that ("a", "bc")
// and ("ab", "c") cannot collide.
func hash(parts ...string) sym.SymbolID {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	id := sym.SymbolID(binary.BigEndian.Uint64(h.Sum(nil)[:8]))
	if id.IsZero() {
		// The zero ID is reserved for "no target".
		id = 1
	}
	return id
}

// ID returns the identifier for a non-function declaration with the given
// fully qualified name.
func ID(qualifiedName string) sym.SymbolID {
	return hash(qualifiedName)
}

// FunctionID returns the identifier for a function declaration. Overloads
// share a qualified name, so the canonical parameter-type spellings and the
// cv/ref-qualifier suffix are part of the identity. Callers must pass
// parameter types through the canonical printer first so that redeclarations
// with renamed template parameters agree.
func FunctionID(qualifiedName string, paramTypes []string, qual string) sym.SymbolID {
	parts := make([]string, 0, len(paramTypes)+2)
	parts = append(parts, qualifiedName)
	parts = append(parts, paramTypes...)
	parts = append(parts, qual)
	return hash(parts...)
}

// SpecializationID returns the identifier for an explicitly written template
// specialization: distinct from the primary template's ID, but stable across
// translation units because it is derived from the resolved argument
// spellings rather than the parser's internal numbering.
func SpecializationID(qualifiedName string, args []string) sym.SymbolID {
	if len(args) == 0 {
		return ID(qualifiedName)
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, qualifiedName)
	parts = append(parts, args...)
	return hash(parts...)
}

// TypeID resolves a type spelling observed inside the given namespace scope
// to the identifier of the underlying declared entity. Pointer, reference,
// and cv wrappers are collapsed, and a template specialization collapses to
// its primary template, so T, const T&, T*, and T<int> all resolve to the
// same symbol. Built-in and unresolvable types yield the zero ID.
func TypeID(spelling string, scope []string) sym.SymbolID {
	base := NormalizeType(spelling)
	if base == "" || IsBuiltin(base) {
		return sym.SymbolID(0)
	}
	if strings.Contains(base, "::") {
		return ID(base)
	}
	if len(scope) > 0 {
		return ID(strings.Join(scope, "::") + "::" + base)
	}
	return ID(base)
}

// NormalizeType strips the wrappers that make distinct spellings of one
// declared entity look different: cv-qualifiers, pointer/reference suffixes,
// elaborated-type keywords, a leading global-scope "::", and any template
// argument list. The declared entity's qualified spelling remains.
func NormalizeType(s string) string {
	s = strings.TrimSpace(s)
	for {
		trimmed := s
		for _, kw := range []string{"const ", "volatile ", "struct ", "class ", "enum ", "union ", "typename "} {
			trimmed = strings.TrimPrefix(trimmed, kw)
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			break
		}
		s = trimmed
	}
	for {
		trimmed := strings.TrimSpace(s)
		trimmed = strings.TrimSuffix(trimmed, "*")
		trimmed = strings.TrimSuffix(trimmed, "&")
		trimmed = strings.TrimSuffix(trimmed, "...")
		for _, kw := range []string{" const", " volatile"} {
			trimmed = strings.TrimSuffix(trimmed, kw)
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			break
		}
		s = trimmed
	}
	s = strings.TrimPrefix(s, "::")
	s = stripTemplateArgs(s)
	return strings.TrimSpace(s)
}

// stripTemplateArgs removes a template argument list from a spelling:
// "std::vector<int>" becomes "std::vector", and a qualified name reaching
// through a specialization, "std::vector<int>::iterator", becomes
// "std::vector::iterator".
func stripTemplateArgs(s string) string {
	open := strings.IndexByte(s, '<')
	if open < 0 {
		return s
	}
	depth := 0
	var b strings.Builder
	b.WriteString(s[:open])
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
		}
	}
	return b.String()
}

// builtinTokens covers the fundamental types and the standard integer
// typedefs that have no documented declaration to link to.
var builtinTokens = map[string]bool{
	"void": true, "bool": true, "char": true, "short": true, "int": true,
	"long": true, "signed": true, "unsigned": true, "float": true,
	"double": true, "auto": true, "wchar_t": true, "char8_t": true,
	"char16_t": true, "char32_t": true, "size_t": true, "ssize_t": true,
	"ptrdiff_t": true, "nullptr_t": true, "intptr_t": true, "uintptr_t": true,
	"intmax_t": true, "uintmax_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
}

// IsBuiltin reports whether a normalized type spelling denotes a built-in
// type or a standard typedef with no declared entity behind it. Multi-word
// spellings like "unsigned long long" count when every word does.
func IsBuiltin(base string) bool {
	if base == "" || strings.HasPrefix(base, "decltype") {
		return true
	}
	for _, tok := range strings.Fields(base) {
		tok = strings.TrimPrefix(tok, "std::")
		if !builtinTokens[tok] {
			return false
		}
	}
	return true
}

// PlaceholderPrefix starts every canonical template-parameter spelling;
// the digits after it are the parameter's index.
const PlaceholderPrefix = "type-parameter-0-"

// Placeholder returns the canonical spelling for the i-th template parameter
// of the innermost template. Identity and stored protos use this form so
// that redeclarations with differently named parameters agree; the template
// substitution resolver pass rewrites it back to the declared name.
func Placeholder(i int) string {
	return PlaceholderPrefix + strconv.Itoa(i)
}

// Canonicalize replaces whole-word occurrences of the given template
// parameter names in s with their index placeholders.
func Canonicalize(s string, paramNames []string) string {
	for i, name := range paramNames {
		if name == "" {
			continue
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		s = re.ReplaceAllString(s, Placeholder(i))
	}
	return s
}
