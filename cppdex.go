// Package cppdex builds a cross-referenced symbol index from C++ sources,
// parsed with tree-sitter. It extracts functions, records, enums,
// namespaces, and type aliases into deterministic, content-addressed
// symbol tables suitable for documentation generation.
package cppdex
