// Package mapper turns declaration observations into index entries. Each
// symbol kind has one mapper; all of them share the same filter chain and
// the reserve/build/update commit protocol, so the package is safe to call
// from concurrent traversal workers.
package mapper

import (
	"regexp"
	"strings"

	"github.com/hward/cppdex/internal/config"
	"github.com/hward/cppdex/internal/frontend"
	"github.com/hward/cppdex/internal/ident"
	"github.com/hward/cppdex/internal/sym"
)

// Apply routes one observation to the mapper for its kind.
func Apply(idx *sym.Index, cfg *config.Config, d *frontend.Decl) {
	switch d.Kind {
	case frontend.DeclFunction:
		mapFunction(idx, cfg, d)
	case frontend.DeclRecord:
		mapRecord(idx, cfg, d)
	case frontend.DeclEnum:
		mapEnum(idx, cfg, d)
	case frontend.DeclNamespace:
		mapNamespace(idx, cfg, d)
	case frontend.DeclAlias:
		mapAlias(idx, cfg, d)
	}
}

// rejected applies the filter chain common to every symbol kind, in order:
// implicit declarations, ignored files and namespaces, declarations without
// a usable source location, private members under suppression, and anything
// inside an anonymous namespace. The caller has already counted the match.
func rejected(cfg *config.Config, d *frontend.Decl) bool {
	if d.Implicit {
		return true
	}
	if cfg.IgnoresFile(d.File) || cfg.IgnoresNamespace(d.Namespace) {
		return true
	}
	if !d.Valid {
		return true
	}
	if cfg.IgnorePrivateMembers && d.Access == sym.AccessPrivate {
		return true
	}
	for _, ns := range d.Namespace {
		if ns == "" {
			return true
		}
	}
	return false
}

// memberRejected is the per-member variant of the suppression filter, used
// for the method, variable, and alias lists a record observation carries.
func memberRejected(cfg *config.Config, access sym.Access, implicit bool) bool {
	if implicit {
		return true
	}
	return cfg.IgnorePrivateMembers && access == sym.AccessPrivate
}

// newBase fills the fields shared by every symbol kind. The parent link
// points at the owning record when there is one, otherwise at the nearest
// enclosing namespace; top-level declarations keep the zero ID.
func newBase(cfg *config.Config, d *frontend.Decl, id sym.SymbolID) sym.Base {
	var parent sym.SymbolID
	if d.OwnerQualified != "" {
		parent = ident.ID(d.OwnerQualified)
	}
	return sym.Base{
		ID:                id,
		Name:              d.Name,
		QualifiedName:     d.QualifiedName,
		File:              cfg.RelPath(d.File),
		Line:              d.Line,
		Col:               d.Col,
		Access:            d.Access,
		ParentNamespaceID: parent,
		BriefDoc:          frontend.Brief(d.Doc),
		Doc:               d.Doc,
	}
}

// typeScope is the namespace chain a declaration's unqualified type
// spellings are resolved against.
func typeScope(d *frontend.Decl) []string {
	scope := make([]string, 0, len(d.Namespace))
	for _, ns := range d.Namespace {
		if ns != "" {
			scope = append(scope, ns)
		}
	}
	return scope
}

func typeRef(spelling string, scope []string) sym.TypeRef {
	return sym.TypeRef{ID: ident.TypeID(spelling, scope), Name: spelling}
}

// ctorDtorArgs strips an explicit template-argument suffix from constructor
// and destructor names, which otherwise leaks the enclosing specialization
// arguments into the display name.
var ctorDtorArgs = regexp.MustCompile(`<.*>`)

func mapFunction(idx *sym.Index, cfg *config.Config, d *frontend.Decl) {
	idx.Functions.CountMatch()
	fn := d.Func
	if fn.IsDeleted || fn.IsDeductionGuide {
		return
	}
	if rejected(cfg, d) {
		return
	}
	// Static free functions have internal linkage and no documentable
	// surface outside their own translation unit.
	if fn.IsStatic && !d.IsMember {
		return
	}

	id := ident.FunctionID(d.QualifiedName, fn.IDParamTypes, frontend.IdentityQual(fn))
	if !idx.Functions.Reserve(id) {
		return
	}

	f := sym.FunctionSymbol{Base: newBase(cfg, d, id)}
	if fn.IsCtor || fn.IsDtor {
		f.Name = ctorDtorArgs.ReplaceAllString(f.Name, "")
		f.IsCtorOrDtor = true
	}
	f.IsConversionOp = fn.IsConversionOp
	f.IsRecordMember = d.IsMember

	f.IsVariadic = fn.IsVariadic
	f.IsVirtual = fn.IsVirtual
	f.IsConstexpr = fn.IsConstexpr
	f.IsConsteval = fn.IsConsteval
	f.IsInline = fn.IsInline
	f.IsExplicit = fn.IsExplicit
	f.IsStatic = fn.IsStatic
	f.IsNoDiscard = fn.IsNoDiscard
	f.IsNoExcept = fn.IsNoExcept
	f.IsNoReturn = fn.IsNoReturn
	f.IsConst = fn.IsConst
	f.IsVolatile = fn.IsVolatile
	f.HasTrailingReturn = fn.HasTrailingReturn
	f.RefQualifier = fn.RefQualifier
	f.TemplateParams = fn.TemplateParams

	scope := typeScope(d)
	if !f.IsCtorOrDtor && !f.IsConversionOp {
		f.ReturnType = typeRef(fn.ReturnType, scope)
	}
	for _, p := range fn.Params {
		f.Params = append(f.Params, sym.FunctionParam{
			Name:         p.Name,
			Type:         typeRef(p.Type, scope),
			DefaultValue: p.DefaultValue,
		})
	}

	f.Proto, f.PostTemplate, f.NameStart = functionProto(&f)
	idx.Functions.Update(id, f)
}

func mapRecord(idx *sym.Index, cfg *config.Config, d *frontend.Decl) {
	idx.Records.CountMatch()
	rec := d.Record
	if !rec.Complete || rec.ImplicitSpec {
		return
	}
	if rejected(cfg, d) {
		return
	}
	name := d.Name
	if name == "" {
		name = rec.TypedefName
	}
	if name == "" {
		return
	}

	var id sym.SymbolID
	var specArgs []string
	if rec.IsSpecialization {
		specArgs = resolveSpecArgs(rec.SpecArgs, rec.TemplateParams)
		id = ident.SpecializationID(d.QualifiedName, specArgs)
	} else {
		id = ident.ID(d.QualifiedName)
	}
	if !idx.Records.Reserve(id) {
		return
	}

	r := sym.RecordSymbol{Base: newBase(cfg, d, id)}
	// Nested records display under their immediate parent's name; written
	// specializations carry their arguments.
	if d.Owner != "" {
		name = d.Owner + "::" + name
	}
	if rec.IsSpecialization {
		name += "<" + strings.Join(specArgs, ", ") + ">"
	}
	r.Name = name
	r.RecordKind = rec.RecordKind
	r.TemplateParams = rec.TemplateParams

	scope := typeScope(d)
	for _, b := range rec.Bases {
		r.BaseRecords = append(r.BaseRecords, sym.BaseRecord{
			ID:     ident.TypeID(b.Name, scope),
			Access: b.Access,
			Name:   baseDisplayName(b),
		})
	}
	for _, v := range rec.Vars {
		if memberRejected(cfg, v.Access, false) {
			continue
		}
		ref := sym.TypeRef{Name: v.Type}
		if !v.Anonymous {
			ref = typeRef(v.Type, scope)
		}
		r.Vars = append(r.Vars, sym.MemberVariable{
			Name:         v.Name,
			Type:         ref,
			DefaultValue: v.DefaultValue,
			Access:       v.Access,
			IsStatic:     v.IsStatic,
			Doc:          v.Doc,
		})
	}
	for _, m := range rec.Methods {
		if memberRejected(cfg, m.Access, m.Implicit) {
			continue
		}
		r.MethodIDs = append(r.MethodIDs, ident.FunctionID(m.QualifiedName, m.ParamTypes, m.Qual))
	}
	for _, a := range rec.MemberAliases {
		if memberRejected(cfg, a.Access, a.Implicit) {
			continue
		}
		r.AliasIDs = append(r.AliasIDs, ident.ID(a.QualifiedName))
	}

	r.Proto = recordProto(&r)
	idx.Records.Update(id, r)
}

// baseDisplayName renders one base-class entry: the last name segment with
// its arguments dropped, restored to a "std::" prefix when the base lives
// in the standard library.
func baseDisplayName(b frontend.BaseDecl) string {
	name := b.Name
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if b.InStd {
		name = "std::" + name
	}
	return name
}

func mapEnum(idx *sym.Index, cfg *config.Config, d *frontend.Decl) {
	idx.Enums.CountMatch()
	if d.Name == "" {
		return
	}
	if rejected(cfg, d) {
		return
	}

	id := ident.ID(d.QualifiedName)
	if !idx.Enums.Reserve(id) {
		return
	}

	e := sym.EnumSymbol{Base: newBase(cfg, d, id)}
	if d.Owner != "" {
		e.Name = d.Owner + "::" + d.Name
	}
	switch {
	case !d.Enum.Scoped:
		e.EnumKind = "enum"
	case d.Enum.ClassTag:
		e.EnumKind = "enum class"
	default:
		e.EnumKind = "enum struct"
	}
	for _, m := range d.Enum.Members {
		e.Members = append(e.Members, sym.EnumMember{Name: m.Name, Value: m.Value, Doc: m.Doc})
	}

	e.Proto = e.EnumKind + " " + e.Name
	idx.Enums.Update(id, e)
}

func mapNamespace(idx *sym.Index, cfg *config.Config, d *frontend.Decl) {
	idx.Namespaces.CountMatch()
	if d.Name == "" {
		return
	}
	if rejected(cfg, d) {
		return
	}

	id := ident.ID(d.QualifiedName)
	if !idx.Namespaces.Reserve(id) {
		return
	}

	n := sym.NamespaceSymbol{Base: newBase(cfg, d, id)}
	if i := strings.LastIndex(d.QualifiedName, "::"); i >= 0 {
		n.ParentNamespaceID = ident.ID(d.QualifiedName[:i])
	}
	n.Proto = "namespace " + d.QualifiedName
	idx.Namespaces.Update(id, n)
}

func mapAlias(idx *sym.Index, cfg *config.Config, d *frontend.Decl) {
	idx.Aliases.CountMatch()
	if d.Alias.LocalScope {
		return
	}
	if rejected(cfg, d) {
		return
	}

	id := ident.ID(d.QualifiedName)
	if !idx.Aliases.Reserve(id) {
		return
	}

	a := sym.AliasSymbol{Base: newBase(cfg, d, id)}
	a.IsRecordMember = d.IsMember
	a.Target = typeRef(d.Alias.Target, typeScope(d))
	a.Proto = "using " + d.Name + " = " + d.Alias.Target
	idx.Aliases.Update(id, a)
}
