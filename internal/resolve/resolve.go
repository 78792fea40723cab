// Package resolve runs the post-traversal passes over a populated index.
// The passes are single-threaded and order-dependent: namespace linking and
// base-class assembly need the full symbol tables, template substitution
// must happen before reference pruning (the substituted spellings survive,
// their dangling IDs do not), and method pruning runs last so it sees the
// final function table.
package resolve

import (
	"sort"
	"strings"

	"github.com/hward/cppdex/internal/ident"
	"github.com/hward/cppdex/internal/sym"
)

// Run executes the passes in their fixed order.
func Run(idx *sym.Index) {
	linkNamespaces(idx)
	assembleBaseProtos(idx)
	substituteTemplateParams(idx)
	pruneTypeRefs(idx)
	pruneOrphanMethods(idx)
}

// linkNamespaces fills each namespace's child ID lists from the parent
// links recorded during traversal. Children are sorted by display name so
// repeated runs over the same sources produce identical output.
func linkNamespaces(idx *sym.Index) {
	type link struct {
		parent sym.SymbolID
		child  sym.SymbolID
		name   string
	}
	var recs, enums, nss, aliases []link
	idx.Records.ForEach(func(id sym.SymbolID, r sym.RecordSymbol) {
		recs = append(recs, link{r.ParentNamespaceID, id, r.Name})
	})
	idx.Enums.ForEach(func(id sym.SymbolID, e sym.EnumSymbol) {
		enums = append(enums, link{e.ParentNamespaceID, id, e.Name})
	})
	idx.Namespaces.ForEach(func(id sym.SymbolID, n sym.NamespaceSymbol) {
		nss = append(nss, link{n.ParentNamespaceID, id, n.Name})
	})
	idx.Aliases.ForEach(func(id sym.SymbolID, a sym.AliasSymbol) {
		if !a.IsRecordMember {
			aliases = append(aliases, link{a.ParentNamespaceID, id, a.Name})
		}
	})

	attach := func(ls []link, pick func(n *sym.NamespaceSymbol) *[]sym.SymbolID) {
		sort.Slice(ls, func(i, j int) bool {
			if ls[i].name != ls[j].name {
				return ls[i].name < ls[j].name
			}
			return ls[i].child < ls[j].child
		})
		for _, l := range ls {
			if l.parent.IsZero() {
				continue
			}
			n, ok := idx.Namespaces.Get(l.parent)
			if !ok {
				continue
			}
			*pick(&n) = append(*pick(&n), l.child)
			idx.Namespaces.Update(l.parent, n)
		}
	}
	attach(recs, func(n *sym.NamespaceSymbol) *[]sym.SymbolID { return &n.Records })
	attach(enums, func(n *sym.NamespaceSymbol) *[]sym.SymbolID { return &n.Enums })
	attach(nss, func(n *sym.NamespaceSymbol) *[]sym.SymbolID { return &n.Namespaces })
	attach(aliases, func(n *sym.NamespaceSymbol) *[]sym.SymbolID { return &n.Aliases })
}

// assembleBaseProtos appends the base-class list to every derived record's
// heading, e.g. " : public Base1, private Base2".
func assembleBaseProtos(idx *sym.Index) {
	idx.Records.ForEach(func(id sym.SymbolID, r sym.RecordSymbol) {
		if len(r.BaseRecords) == 0 {
			return
		}
		parts := make([]string, 0, len(r.BaseRecords))
		for _, b := range r.BaseRecords {
			if access := b.Access.String(); access != "" {
				parts = append(parts, access+" "+b.Name)
			} else {
				parts = append(parts, b.Name)
			}
		}
		r.Proto += " : " + strings.Join(parts, ", ")
		idx.Records.Update(id, r)
	})
}

// substituteTemplateParams rewrites the canonical parameter placeholders in
// member-function signatures back to the enclosing record's declared
// parameter names, recomputing the stored proto offsets.
func substituteTemplateParams(idx *sym.Index) {
	idx.Records.ForEach(func(_ sym.SymbolID, r sym.RecordSymbol) {
		if len(r.TemplateParams) == 0 {
			return
		}
		// Descending index order so "-10" is never matched as "-1" followed
		// by a stray digit.
		pairs := make([]string, 0, 2*len(r.TemplateParams))
		for i := len(r.TemplateParams) - 1; i >= 0; i-- {
			if r.TemplateParams[i].Name == "" {
				continue
			}
			pairs = append(pairs, ident.Placeholder(i), r.TemplateParams[i].Name)
		}
		if len(pairs) == 0 {
			return
		}
		rep := strings.NewReplacer(pairs...)

		for _, mid := range r.MethodIDs {
			f, ok := idx.Functions.Get(mid)
			if !ok {
				continue
			}
			// Conversion operator names and parameter defaults carry canonical
			// placeholders too, not just the type spellings.
			f.Name = rep.Replace(f.Name)
			f.ReturnType.Name = rep.Replace(f.ReturnType.Name)
			for i := range f.Params {
				f.Params[i].Type.Name = rep.Replace(f.Params[i].Type.Name)
				f.Params[i].DefaultValue = rep.Replace(f.Params[i].DefaultValue)
			}
			rewriteProto(&f, rep)
			idx.Functions.Update(mid, f)
		}
	})
}

// rewriteProto applies rep to the proto in three segments split at the
// stored offsets, so the offsets can be recomputed from the rewritten
// segment lengths. Placeholders never straddle the split points.
func rewriteProto(f *sym.FunctionSymbol, rep *strings.Replacer) {
	pre := rep.Replace(f.Proto[:f.PostTemplate])
	mid := rep.Replace(f.Proto[f.PostTemplate:f.NameStart])
	rest := rep.Replace(f.Proto[f.NameStart:])
	f.Proto = pre + mid + rest
	f.PostTemplate = len(pre)
	f.NameStart = len(pre) + len(mid)
}

// pruneTypeRefs zeroes every type-reference ID that does not point at an
// indexed record, enum, or alias. The display spelling is kept; a zero ID
// with a name means "unresolved", which renderers treat as plain text.
func pruneTypeRefs(idx *sym.Index) {
	resolvable := func(id sym.SymbolID) bool {
		if id.IsZero() {
			return false
		}
		return idx.Records.Contains(id) || idx.Enums.Contains(id) || idx.Aliases.Contains(id)
	}
	prune := func(ref *sym.TypeRef) {
		if !ref.ID.IsZero() && !resolvable(ref.ID) {
			ref.ID = 0
		}
	}

	idx.Functions.ForEach(func(id sym.SymbolID, f sym.FunctionSymbol) {
		prune(&f.ReturnType)
		for i := range f.Params {
			prune(&f.Params[i].Type)
		}
		idx.Functions.Update(id, f)
	})
	idx.Records.ForEach(func(id sym.SymbolID, r sym.RecordSymbol) {
		for i := range r.Vars {
			prune(&r.Vars[i].Type)
		}
		for i := range r.BaseRecords {
			if !r.BaseRecords[i].ID.IsZero() && !idx.Records.Contains(r.BaseRecords[i].ID) {
				r.BaseRecords[i].ID = 0
			}
		}
		idx.Records.Update(id, r)
	})
	idx.Aliases.ForEach(func(id sym.SymbolID, a sym.AliasSymbol) {
		prune(&a.Target)
		idx.Aliases.Update(id, a)
	})
}

// pruneOrphanMethods removes member functions whose owning record is not in
// the index (filtered out, or never indexed), then drops method and
// member-alias IDs whose symbols no longer exist, so records only list
// members that do.
func pruneOrphanMethods(idx *sym.Index) {
	idx.Functions.ForEach(func(id sym.SymbolID, f sym.FunctionSymbol) {
		if f.IsRecordMember && !idx.Records.Contains(f.ParentNamespaceID) {
			idx.Functions.Delete(id)
		}
	})
	idx.Records.ForEach(func(id sym.SymbolID, r sym.RecordSymbol) {
		methods := r.MethodIDs[:0]
		for _, mid := range r.MethodIDs {
			if idx.Functions.Contains(mid) {
				methods = append(methods, mid)
			}
		}
		r.MethodIDs = methods

		aliases := r.AliasIDs[:0]
		for _, aid := range r.AliasIDs {
			if idx.Aliases.Contains(aid) {
				aliases = append(aliases, aid)
			}
		}
		r.AliasIDs = aliases
		idx.Records.Update(id, r)
	})
}
