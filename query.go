package cppdex

import (
	"sort"
	"strings"

	"github.com/hward/cppdex/internal/sym"
)

// Query is the read-only lookup surface over a resolved index. It is what
// a documentation renderer consumes: by-name lookups, the namespace tree,
// and member expansion.
type Query struct {
	idx *sym.Index
}

// Query returns a lookup surface over the engine's index. Valid only after
// Run has completed.
func (e *Engine) Query() *Query {
	return &Query{idx: e.idx}
}

// FunctionsNamed returns the full overload set sharing a qualified name,
// sorted by signature for stable rendering.
func (q *Query) FunctionsNamed(qualifiedName string) []sym.FunctionSymbol {
	var out []sym.FunctionSymbol
	q.idx.Functions.ForEach(func(_ sym.SymbolID, f sym.FunctionSymbol) {
		if f.QualifiedName == qualifiedName {
			out = append(out, f)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Proto < out[j].Proto })
	return out
}

// RecordNamed returns the record with the given qualified name. Written
// specializations share the primary's qualified name; the primary wins and
// specializations are reachable through SpecializationsOf.
func (q *Query) RecordNamed(qualifiedName string) (sym.RecordSymbol, bool) {
	var found sym.RecordSymbol
	ok := false
	primary := func(r sym.RecordSymbol) bool { return !strings.Contains(r.Name, "<") }
	q.idx.Records.ForEach(func(_ sym.SymbolID, r sym.RecordSymbol) {
		if r.QualifiedName != qualifiedName {
			return
		}
		if !ok || (primary(r) && !primary(found)) {
			found, ok = r, true
		}
	})
	return found, ok
}

// SpecializationsOf returns every record sharing qualifiedName, primary
// included, sorted by display name.
func (q *Query) SpecializationsOf(qualifiedName string) []sym.RecordSymbol {
	var out []sym.RecordSymbol
	q.idx.Records.ForEach(func(_ sym.SymbolID, r sym.RecordSymbol) {
		if r.QualifiedName == qualifiedName {
			out = append(out, r)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// EnumNamed returns the enum with the given qualified name.
func (q *Query) EnumNamed(qualifiedName string) (sym.EnumSymbol, bool) {
	var found sym.EnumSymbol
	ok := false
	q.idx.Enums.ForEach(func(_ sym.SymbolID, e sym.EnumSymbol) {
		if e.QualifiedName == qualifiedName {
			found, ok = e, true
		}
	})
	return found, ok
}

// NamespaceNamed returns the namespace with the given qualified name.
func (q *Query) NamespaceNamed(qualifiedName string) (sym.NamespaceSymbol, bool) {
	var found sym.NamespaceSymbol
	ok := false
	q.idx.Namespaces.ForEach(func(_ sym.SymbolID, n sym.NamespaceSymbol) {
		if n.QualifiedName == qualifiedName {
			found, ok = n, true
		}
	})
	return found, ok
}

// AliasNamed returns the alias with the given qualified name.
func (q *Query) AliasNamed(qualifiedName string) (sym.AliasSymbol, bool) {
	var found sym.AliasSymbol
	ok := false
	q.idx.Aliases.ForEach(func(_ sym.SymbolID, a sym.AliasSymbol) {
		if a.QualifiedName == qualifiedName {
			found, ok = a, true
		}
	})
	return found, ok
}

// RootNamespaces returns the namespaces with no enclosing namespace,
// sorted by name. Walking their child lists reaches every linked symbol.
func (q *Query) RootNamespaces() []sym.NamespaceSymbol {
	var out []sym.NamespaceSymbol
	q.idx.Namespaces.ForEach(func(_ sym.SymbolID, n sym.NamespaceSymbol) {
		if n.ParentNamespaceID.IsZero() {
			out = append(out, n)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Methods resolves a record's method IDs, in declaration order. The list
// has no gaps: orphan pruning already dropped IDs with no entry.
func (q *Query) Methods(r sym.RecordSymbol) []sym.FunctionSymbol {
	out := make([]sym.FunctionSymbol, 0, len(r.MethodIDs))
	for _, id := range r.MethodIDs {
		if f, ok := q.idx.Functions.Get(id); ok {
			out = append(out, f)
		}
	}
	return out
}

// MemberAliases resolves a record's member-alias IDs, in declaration order.
func (q *Query) MemberAliases(r sym.RecordSymbol) []sym.AliasSymbol {
	out := make([]sym.AliasSymbol, 0, len(r.AliasIDs))
	for _, id := range r.AliasIDs {
		if a, ok := q.idx.Aliases.Get(id); ok {
			out = append(out, a)
		}
	}
	return out
}
