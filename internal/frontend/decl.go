// Package frontend is the source-parser collaborator: it parses C++
// translation units with tree-sitter and emits a stream of typed
// declaration observations. It performs no indexing itself: identity,
// filtering, and storage are the mapper layer's job.
package frontend

import "github.com/hward/cppdex/internal/sym"

// DeclKind is the closed set of declaration-observation kinds. Dispatch on
// it is a fixed tagged-variant routing, one mapper function per kind.
type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclRecord
	DeclEnum
	DeclNamespace
	DeclAlias
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunction:
		return "function"
	case DeclRecord:
		return "record"
	case DeclEnum:
		return "enum"
	case DeclNamespace:
		return "namespace"
	case DeclAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// Decl is one declaration observation. Exactly one of the kind payloads is
// non-nil, matching Kind.
type Decl struct {
	Kind DeclKind

	// Name is the written, unqualified name. Empty for anonymous entities.
	Name string
	// QualifiedName is Name qualified by every enclosing named scope.
	QualifiedName string
	// Namespace is the enclosing namespace chain, outermost first. An empty
	// string entry marks an anonymous namespace.
	Namespace []string
	// Owner is the immediate enclosing record's written name, "" when the
	// declaration is not nested in a record.
	Owner string
	// OwnerQualified is the owning record's qualified name.
	OwnerQualified string

	File string
	Line int
	Col  int

	// Valid reports whether the declaration has a real source range.
	Valid bool
	// Implicit marks compiler-synthesized declarations.
	Implicit bool

	Access sym.Access
	Doc    string

	// IsMember reports record membership (in-class declarations and
	// out-of-line member definitions).
	IsMember bool

	// Kind payloads; namespaces carry no extra observation data, their
	// child linking happens after traversal.
	Func   *FuncDecl
	Record *RecordDecl
	Enum   *EnumDecl
	Alias  *AliasDecl
}

// FuncDecl is the function-kind payload. Type spellings are canonical: for
// members of a class template, the enclosing template parameter names are
// already replaced by their index placeholders.
type FuncDecl struct {
	ReturnType string
	Params     []ParamDecl
	// IDParamTypes are the parameter spellings used for identity, with the
	// function's own template parameter names canonicalized as well so that
	// renamed redeclarations collide.
	IDParamTypes   []string
	TemplateParams []sym.TemplateParam

	IsDeleted        bool
	IsDeductionGuide bool
	IsCtor           bool
	IsDtor           bool
	IsConversionOp   bool

	IsVariadic        bool
	IsVirtual         bool
	IsConstexpr       bool
	IsConsteval       bool
	IsInline          bool
	IsExplicit        bool
	IsStatic          bool
	IsNoDiscard       bool
	IsNoExcept        bool
	IsNoReturn        bool
	IsConst           bool
	IsVolatile        bool
	HasTrailingReturn bool
	RefQualifier      string
}

// ParamDecl is one observed function parameter.
type ParamDecl struct {
	Name         string
	Type         string
	DefaultValue string
}

// BaseDecl is one observed base class.
type BaseDecl struct {
	Name   string // written spelling, possibly qualified or with arguments
	Access sym.Access
	InStd  bool
}

// MemberVarDecl is one observed data member.
type MemberVarDecl struct {
	Name         string
	Type         string
	DefaultValue string
	Access       sym.Access
	IsStatic     bool
	Doc          string
	// Anonymous marks members whose type is an unnamed nested struct or
	// union; their rendered type is a fixed placeholder.
	Anonymous bool
}

// MemberFuncRef carries the identity ingredients of a member function so
// the record mapper can compute the same SymbolID the function mapper does.
type MemberFuncRef struct {
	QualifiedName string
	ParamTypes    []string
	Qual          string // cv/ref identity suffix
	Access        sym.Access
	Implicit      bool
}

// MemberAliasRef identifies a member type alias of a record.
type MemberAliasRef struct {
	QualifiedName string
	Access        sym.Access
	Implicit      bool
}

// RecordDecl is the record-kind payload.
type RecordDecl struct {
	RecordKind string // "class", "struct", "union"
	Complete   bool

	Bases          []BaseDecl
	Vars           []MemberVarDecl
	Methods        []MemberFuncRef
	MemberAliases  []MemberAliasRef
	TemplateParams []sym.TemplateParam

	// TypedefName is the name adopted from an associated typedef when the
	// record itself has no written name.
	TypedefName string

	// SpecArgs holds the written template-argument spellings when this is a
	// template specialization. ImplicitSpec marks compiler-injected
	// specializations with no written arguments.
	SpecArgs         []string
	IsSpecialization bool
	ImplicitSpec     bool
}

// EnumDecl is the enum-kind payload.
type EnumDecl struct {
	Scoped   bool
	ClassTag bool // "enum class" rather than "enum struct"
	Members  []EnumeratorDecl
}

// EnumeratorDecl is one observed enumerator, in declaration order.
type EnumeratorDecl struct {
	Name  string
	Value int64
	Doc   string
}

// AliasDecl is the alias-kind payload. Target is the resolved target
// spelling: the underlying type for a type-alias declaration, or the (last)
// shadowed target of a using-declaration.
type AliasDecl struct {
	Target string
	// LocalScope marks aliases declared inside a function or method body;
	// those are never indexed.
	LocalScope bool
}
