package sym

import "fmt"

// SymbolID is an opaque, deterministic, content-derived identifier for a
// declaration. The zero value means "no target": it is what unresolved or
// built-in type references carry, and the rendering stage never follows it.
type SymbolID uint64

// IsZero reports whether the ID is the "no target" identifier.
func (id SymbolID) IsZero() bool { return id == 0 }

func (id SymbolID) String() string { return fmt.Sprintf("%016x", uint64(id)) }

// Access is a C++ access specifier. The zero value AccessNone covers
// declarations where no specifier applies (free functions, namespace-scope
// types).
type Access int

const (
	AccessNone Access = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return ""
	}
}

// TypeRef is a weak reference to another indexed symbol. Only the ID points
// into the index; Name is the canonical rendering used for display. A zero
// ID with a non-empty Name means "unresolved", which is valid, not an error.
type TypeRef struct {
	ID   SymbolID
	Name string
}

// TemplateParamKind distinguishes the three kinds of C++ template parameters.
type TemplateParamKind int

const (
	TemplateTypeParam TemplateParamKind = iota
	NonTypeTemplateParam
	TemplateTemplateParam
)

// TemplateParam is one declared template parameter, generic over the three
// parameter kinds.
type TemplateParam struct {
	Kind         TemplateParamKind
	Name         string
	Type         string // non-type: the value type; template-template: raw source text
	DefaultValue string
	IsPack       bool
	IsTypename   bool // declared with "typename" rather than "class"
}

// Base carries the fields shared by every symbol variant.
type Base struct {
	ID                SymbolID
	Name              string // display name, possibly parent-qualified or arg-suffixed
	QualifiedName     string
	File              string // relative to the configured root dir
	Line              int
	Col               int
	Proto             string // rendered signature
	Access            Access
	ParentNamespaceID SymbolID // nearest enclosing namespace or owning record
	BriefDoc          string
	Doc               string
}

// FunctionParam is one parameter of an indexed function.
type FunctionParam struct {
	Name         string
	Type         TypeRef
	DefaultValue string
	Doc          string
}

// FunctionSymbol is an indexed function, member or free.
type FunctionSymbol struct {
	Base

	ReturnType     TypeRef
	Params         []FunctionParam
	TemplateParams []TemplateParam

	// Offsets into Proto: PostTemplate is the end of the template clause,
	// NameStart the start of the function name. Both are recomputed when the
	// template substitution pass rewrites the proto.
	PostTemplate int
	NameStart    int

	IsRecordMember bool
	IsCtorOrDtor   bool
	IsConversionOp bool

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
	RefQualifier      string // "", "&", "&&"
}

// BaseRecord is one entry in a record's base-class list.
type BaseRecord struct {
	ID     SymbolID
	Access Access
	Name   string // display name, "std::"-prefixed for standard-library bases
}

// MemberVariable is a data member of a record.
type MemberVariable struct {
	Name         string
	Type         TypeRef
	DefaultValue string
	Access       Access
	IsStatic     bool
	Doc          string
}

// RecordSymbol is an indexed class, struct, or union definition.
type RecordSymbol struct {
	Base

	RecordKind     string // "class", "struct", "union"
	BaseRecords    []BaseRecord
	Vars           []MemberVariable
	MethodIDs      []SymbolID
	AliasIDs       []SymbolID
	TemplateParams []TemplateParam
}

// EnumMember is one enumerator, in declaration order.
type EnumMember struct {
	Name  string
	Value int64
	Doc   string
}

// EnumSymbol is an indexed enumeration.
type EnumSymbol struct {
	Base

	EnumKind string // "enum", "enum class", "enum struct"
	Members  []EnumMember
}

// NamespaceSymbol is an indexed namespace. The child lists are empty until
// the namespace-linking resolver pass runs.
type NamespaceSymbol struct {
	Base

	Records    []SymbolID
	Enums      []SymbolID
	Namespaces []SymbolID
	Aliases    []SymbolID
}

// AliasSymbol is an indexed type alias or using-declaration.
type AliasSymbol struct {
	Base

	Target         TypeRef
	IsRecordMember bool
}
