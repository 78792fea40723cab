package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hward/cppdex/internal/config"
	"github.com/hward/cppdex/internal/frontend"
	"github.com/hward/cppdex/internal/ident"
	"github.com/hward/cppdex/internal/sym"
)

func testConfig() *config.Config {
	return config.Default("/src")
}

func funcDecl(name, qualified string, ns []string, fd *frontend.FuncDecl) *frontend.Decl {
	return &frontend.Decl{
		Kind:          frontend.DeclFunction,
		Name:          name,
		QualifiedName: qualified,
		Namespace:     ns,
		File:          "/src/a.cpp",
		Line:          10,
		Col:           1,
		Valid:         true,
		Func:          fd,
	}
}

func TestMapFunction_FreeFunction(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	d := funcDecl("area", "geo::area", []string{"geo"}, &frontend.FuncDecl{
		ReturnType: "int",
		Params: []frontend.ParamDecl{
			{Name: "w", Type: "int"},
			{Name: "h", Type: "int"},
		},
		IDParamTypes: []string{"int", "int"},
	})
	d.OwnerQualified = "geo"

	Apply(idx, testConfig(), d)

	require.Equal(t, 1, idx.Functions.Len())
	f, ok := idx.Functions.Get(ident.FunctionID("geo::area", []string{"int", "int"}, ""))
	require.True(t, ok)
	assert.Equal(t, "int area(int w, int h)", f.Proto)
	assert.Equal(t, 0, f.PostTemplate)
	assert.Equal(t, 4, f.NameStart)
	assert.Equal(t, "area", f.Proto[f.NameStart:f.NameStart+4])
	assert.Equal(t, "a.cpp", f.File)
	assert.Equal(t, ident.ID("geo"), f.ParentNamespaceID)
	// Built-in parameter and return types carry no target.
	assert.True(t, f.ReturnType.ID.IsZero())
	assert.True(t, f.Params[0].Type.ID.IsZero())
}

func TestMapFunction_DeletedAndDeductionGuidesCountButAreNotIndexed(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	Apply(idx, cfg, funcDecl("f", "f", nil, &frontend.FuncDecl{IsDeleted: true}))
	Apply(idx, cfg, funcDecl("Box", "Box", nil, &frontend.FuncDecl{IsDeductionGuide: true}))

	assert.Equal(t, int64(2), idx.Functions.Matches())
	assert.Equal(t, 0, idx.Functions.Len())
}

func TestMapFunction_RetraversalIsIdempotent(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()
	fd := &frontend.FuncDecl{ReturnType: "void", IDParamTypes: nil}

	// The same header declaration seen from two translation units.
	Apply(idx, cfg, funcDecl("init", "lib::init", []string{"lib"}, fd))
	Apply(idx, cfg, funcDecl("init", "lib::init", []string{"lib"}, fd))

	assert.Equal(t, int64(2), idx.Functions.Matches())
	assert.Equal(t, 1, idx.Functions.Len())
}

func TestMapFunction_StaticFreeFunctionSkipped(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	free := funcDecl("helper", "helper", nil, &frontend.FuncDecl{ReturnType: "void", IsStatic: true})
	Apply(idx, cfg, free)
	assert.Equal(t, 0, idx.Functions.Len(), "internal linkage has no documentable surface")

	method := funcDecl("make", "Shape::make", nil, &frontend.FuncDecl{ReturnType: "Shape", IsStatic: true})
	method.IsMember = true
	method.Owner = "Shape"
	method.OwnerQualified = "Shape"
	Apply(idx, cfg, method)
	assert.Equal(t, 1, idx.Functions.Len(), "static member functions are indexed")
}

func TestMapFunction_CtorHasNoReturnTypeAndCleanName(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	d := funcDecl("Box<T>", "Box::Box", nil, &frontend.FuncDecl{IsCtor: true})
	d.IsMember = true
	d.Owner = "Box"
	d.OwnerQualified = "Box"

	Apply(idx, testConfig(), d)

	require.Equal(t, 1, idx.Functions.Len())
	f, ok := idx.Functions.Get(ident.FunctionID("Box::Box", nil, ""))
	require.True(t, ok)
	assert.Equal(t, "Box", f.Name)
	assert.True(t, f.IsCtorOrDtor)
	assert.Empty(t, f.ReturnType.Name)
	assert.Equal(t, "Box()", f.Proto)
	assert.Equal(t, 0, f.NameStart)
}

func TestMapFunction_TemplateProtoOffsets(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	d := funcDecl("max", "max", nil, &frontend.FuncDecl{
		ReturnType: "T",
		Params: []frontend.ParamDecl{
			{Name: "a", Type: "T"},
			{Name: "b", Type: "T"},
		},
		IDParamTypes:   []string{ident.Placeholder(0), ident.Placeholder(0)},
		TemplateParams: []sym.TemplateParam{{Name: "T", IsTypename: true}},
	})

	Apply(idx, testConfig(), d)

	f, ok := idx.Functions.Get(ident.FunctionID("max", []string{ident.Placeholder(0), ident.Placeholder(0)}, ""))
	require.True(t, ok)
	assert.Equal(t, "template <typename T>\nT max(T a, T b)", f.Proto)
	assert.Equal(t, len("template <typename T>\n"), f.PostTemplate)
	assert.Equal(t, "max", f.Proto[f.NameStart:f.NameStart+3])
}

func TestMapFunction_QualifierRendering(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	d := funcDecl("name", "Shape::name", nil, &frontend.FuncDecl{
		ReturnType:   "std::string",
		IsNoDiscard:  true,
		IsVirtual:    true,
		IsConst:      true,
		IsNoExcept:   true,
		RefQualifier: "&",
	})
	d.IsMember = true
	d.Owner = "Shape"
	d.OwnerQualified = "Shape"

	Apply(idx, testConfig(), d)

	f, ok := idx.Functions.Get(ident.FunctionID("Shape::name", nil, frontend.IdentityQual(d.Func)))
	require.True(t, ok)
	assert.Equal(t, "[[nodiscard]] virtual std::string name() const & noexcept", f.Proto)
	assert.True(t, f.IsRecordMember)
}

func TestFilterChain_AppliesToEveryKind(t *testing.T) {
	t.Parallel()

	cases := map[string]*frontend.Decl{
		"implicit": {
			Kind: frontend.DeclRecord, Name: "R", QualifiedName: "R", Valid: true,
			Implicit: true, Record: &frontend.RecordDecl{RecordKind: "class", Complete: true},
		},
		"invalid location": {
			Kind: frontend.DeclEnum, Name: "E", QualifiedName: "E",
			Enum: &frontend.EnumDecl{},
		},
		"anonymous namespace": {
			Kind: frontend.DeclFunction, Name: "f", QualifiedName: "f", Valid: true,
			Namespace: []string{""}, Func: &frontend.FuncDecl{},
		},
	}
	for label, d := range cases {
		idx := sym.NewIndex()
		d.File = "/src/a.cpp"
		Apply(idx, testConfig(), d)
		total := idx.Functions.Len() + idx.Records.Len() + idx.Enums.Len() +
			idx.Namespaces.Len() + idx.Aliases.Len()
		assert.Equal(t, 0, total, "case %q must be filtered", label)
	}
}

func TestFilterChain_IgnoredPathsAndNamespaces(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		RootDir:          "/src",
		IgnorePaths:      []string{"vendor/"},
		IgnoreNamespaces: []string{"detail"},
	}
	cfg.Finalize()
	idx := sym.NewIndex()

	vendored := funcDecl("f", "f", nil, &frontend.FuncDecl{})
	vendored.File = "/src/vendor/lib.cpp"
	Apply(idx, cfg, vendored)

	hidden := funcDecl("g", "lib::detail::g", []string{"lib", "detail"}, &frontend.FuncDecl{})
	Apply(idx, cfg, hidden)

	kept := funcDecl("h", "lib::h", []string{"lib"}, &frontend.FuncDecl{})
	Apply(idx, cfg, kept)

	assert.Equal(t, int64(3), idx.Functions.Matches())
	assert.Equal(t, 1, idx.Functions.Len())
}

func recordDecl(name, qualified string, rd *frontend.RecordDecl) *frontend.Decl {
	return &frontend.Decl{
		Kind:          frontend.DeclRecord,
		Name:          name,
		QualifiedName: qualified,
		File:          "/src/a.hpp",
		Line:          3,
		Col:           1,
		Valid:         true,
		Record:        rd,
	}
}

func TestMapRecord_ForwardDeclarationsAreCountedNotIndexed(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()

	Apply(idx, testConfig(), recordDecl("Shape", "Shape", &frontend.RecordDecl{
		RecordKind: "class", Complete: false,
	}))

	assert.Equal(t, int64(1), idx.Records.Matches())
	assert.Equal(t, 0, idx.Records.Len())
}

func TestMapRecord_AnonymousWithoutTypedefDropped(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	Apply(idx, cfg, recordDecl("", "", &frontend.RecordDecl{RecordKind: "struct", Complete: true}))
	assert.Equal(t, 0, idx.Records.Len())

	// With a typedef, the record adopts the typedef's name.
	named := recordDecl("", "Point", &frontend.RecordDecl{
		RecordKind: "struct", Complete: true, TypedefName: "Point",
	})
	Apply(idx, cfg, named)
	r, ok := idx.Records.Get(ident.ID("Point"))
	require.True(t, ok)
	assert.Equal(t, "Point", r.Name)
}

func TestMapRecord_SpecializationIdentityAndDisplayName(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	Apply(idx, cfg, recordDecl("Box", "Box", &frontend.RecordDecl{
		RecordKind: "class", Complete: true,
		TemplateParams: []sym.TemplateParam{{Name: "T", IsTypename: true}},
	}))
	Apply(idx, cfg, recordDecl("Box", "Box", &frontend.RecordDecl{
		RecordKind: "class", Complete: true,
		IsSpecialization: true,
		SpecArgs:         []string{"int"},
	}))

	require.Equal(t, 2, idx.Records.Len())
	spec, ok := idx.Records.Get(ident.SpecializationID("Box", []string{"int"}))
	require.True(t, ok)
	assert.Equal(t, "Box<int>", spec.Name)
	primary, ok := idx.Records.Get(ident.ID("Box"))
	require.True(t, ok)
	assert.Equal(t, "Box", primary.Name)
}

func TestMapRecord_PartialSpecializationRecoversParamName(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()

	// template <class X> class Box<X*>: the canonical argument placeholder
	// maps back to the specialization's own parameter name.
	Apply(idx, testConfig(), recordDecl("Box", "Box", &frontend.RecordDecl{
		RecordKind: "class", Complete: true,
		IsSpecialization: true,
		SpecArgs:         []string{ident.Placeholder(0)},
		TemplateParams:   []sym.TemplateParam{{Name: "X", IsTypename: true}},
	}))

	spec, ok := idx.Records.Get(ident.SpecializationID("Box", []string{"X"}))
	require.True(t, ok)
	assert.Equal(t, "Box<X>", spec.Name)
}

func TestMapRecord_PlaceholderFallbackCyclesThroughAlphabet(t *testing.T) {
	t.Parallel()

	// No parameter list to look names up in: single letters starting at T,
	// wrapping to A after Z.
	args := make([]string, 9)
	for i := range args {
		args[i] = ident.Placeholder(i)
	}
	resolved := resolveSpecArgs(args, nil)
	assert.Equal(t, []string{"T", "U", "V", "W", "X", "Y", "Z", "A", "B"}, resolved)
}

func TestMapRecord_ImplicitSpecializationSkipped(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()

	Apply(idx, testConfig(), recordDecl("Box", "Box", &frontend.RecordDecl{
		RecordKind: "class", Complete: true,
		IsSpecialization: true, ImplicitSpec: true,
	}))

	assert.Equal(t, int64(1), idx.Records.Matches())
	assert.Equal(t, 0, idx.Records.Len())
}

func TestMapRecord_MembersAndBases(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	d := recordDecl("Circle", "geo::Circle", &frontend.RecordDecl{
		RecordKind: "class", Complete: true,
		Bases: []frontend.BaseDecl{
			{Name: "Shape", Access: sym.AccessPublic},
			{Name: "enable_shared_from_this<Circle>", Access: sym.AccessPrivate, InStd: true},
		},
		Vars: []frontend.MemberVarDecl{
			{Name: "radius", Type: "double", Access: sym.AccessPrivate},
		},
		Methods: []frontend.MemberFuncRef{
			{QualifiedName: "geo::Circle::area", Qual: "const", Access: sym.AccessPublic},
			{QualifiedName: "geo::Circle::Circle", Access: sym.AccessPublic, Implicit: true},
		},
		MemberAliases: []frontend.MemberAliasRef{
			{QualifiedName: "geo::Circle::value_type", Access: sym.AccessPublic},
		},
	})
	d.Namespace = []string{"geo"}
	Apply(idx, cfg, d)

	r, ok := idx.Records.Get(ident.ID("geo::Circle"))
	require.True(t, ok)
	require.Len(t, r.BaseRecords, 2)
	assert.Equal(t, "Shape", r.BaseRecords[0].Name)
	assert.Equal(t, ident.ID("geo::Shape"), r.BaseRecords[0].ID)
	assert.Equal(t, "std::enable_shared_from_this", r.BaseRecords[1].Name)

	require.Len(t, r.Vars, 1)
	assert.Equal(t, "radius", r.Vars[0].Name)

	// Implicit members never appear in the member lists.
	require.Len(t, r.MethodIDs, 1)
	assert.Equal(t, ident.FunctionID("geo::Circle::area", nil, "const"), r.MethodIDs[0])
	require.Len(t, r.AliasIDs, 1)
}

func TestMapRecord_PrivateMemberSuppression(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{RootDir: "/src", IgnorePrivateMembers: true}
	cfg.Finalize()
	idx := sym.NewIndex()

	Apply(idx, cfg, recordDecl("Box", "Box", &frontend.RecordDecl{
		RecordKind: "class", Complete: true,
		Vars: []frontend.MemberVarDecl{
			{Name: "hidden", Type: "int", Access: sym.AccessPrivate},
			{Name: "shown", Type: "int", Access: sym.AccessPublic},
		},
		Methods: []frontend.MemberFuncRef{
			{QualifiedName: "Box::secret", Access: sym.AccessPrivate},
			{QualifiedName: "Box::open", Access: sym.AccessPublic},
		},
	}))

	r, ok := idx.Records.Get(ident.ID("Box"))
	require.True(t, ok)
	require.Len(t, r.Vars, 1)
	assert.Equal(t, "shown", r.Vars[0].Name)
	require.Len(t, r.MethodIDs, 1)
	assert.Equal(t, ident.FunctionID("Box::open", nil, ""), r.MethodIDs[0])
}

func TestMapRecord_NestedDisplayName(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()

	d := recordDecl("iterator", "List::iterator", &frontend.RecordDecl{
		RecordKind: "struct", Complete: true,
	})
	d.Owner = "List"
	d.OwnerQualified = "List"
	d.IsMember = true
	d.Access = sym.AccessPublic
	Apply(idx, testConfig(), d)

	r, ok := idx.Records.Get(ident.ID("List::iterator"))
	require.True(t, ok)
	assert.Equal(t, "List::iterator", r.Name)
	assert.Equal(t, ident.ID("List"), r.ParentNamespaceID)
}

func TestMapEnum_KindsAndMembers(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	scoped := &frontend.Decl{
		Kind: frontend.DeclEnum, Name: "Color", QualifiedName: "Color",
		File: "/src/a.hpp", Valid: true,
		Enum: &frontend.EnumDecl{
			Scoped: true, ClassTag: true,
			Members: []frontend.EnumeratorDecl{
				{Name: "Red", Value: 0},
				{Name: "Green", Value: 5},
			},
		},
	}
	Apply(idx, cfg, scoped)

	e, ok := idx.Enums.Get(ident.ID("Color"))
	require.True(t, ok)
	assert.Equal(t, "enum class", e.EnumKind)
	assert.Equal(t, "enum class Color", e.Proto)
	require.Len(t, e.Members, 2)
	assert.Equal(t, int64(5), e.Members[1].Value)

	// Anonymous enums are counted but not indexed.
	anon := &frontend.Decl{
		Kind: frontend.DeclEnum, QualifiedName: "", File: "/src/a.hpp", Valid: true,
		Enum: &frontend.EnumDecl{},
	}
	Apply(idx, cfg, anon)
	assert.Equal(t, int64(2), idx.Enums.Matches())
	assert.Equal(t, 1, idx.Enums.Len())
}

func TestMapNamespace_ParentLink(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	outer := &frontend.Decl{
		Kind: frontend.DeclNamespace, Name: "geo", QualifiedName: "geo",
		File: "/src/a.hpp", Valid: true,
	}
	inner := &frontend.Decl{
		Kind: frontend.DeclNamespace, Name: "detail", QualifiedName: "geo::detail",
		Namespace: []string{"geo"}, File: "/src/a.hpp", Valid: true,
	}
	Apply(idx, cfg, outer)
	Apply(idx, cfg, inner)

	n, ok := idx.Namespaces.Get(ident.ID("geo::detail"))
	require.True(t, ok)
	assert.Equal(t, ident.ID("geo"), n.ParentNamespaceID)

	root, ok := idx.Namespaces.Get(ident.ID("geo"))
	require.True(t, ok)
	assert.True(t, root.ParentNamespaceID.IsZero())
}

func TestMapAlias_LocalScopeSkipped(t *testing.T) {
	t.Parallel()
	idx := sym.NewIndex()
	cfg := testConfig()

	local := &frontend.Decl{
		Kind: frontend.DeclAlias, Name: "It", QualifiedName: "It",
		File: "/src/a.cpp", Valid: true,
		Alias: &frontend.AliasDecl{Target: "std::vector<int>::iterator", LocalScope: true},
	}
	Apply(idx, cfg, local)
	assert.Equal(t, 0, idx.Aliases.Len())

	global := &frontend.Decl{
		Kind: frontend.DeclAlias, Name: "Grid", QualifiedName: "geo::Grid",
		Namespace: []string{"geo"}, File: "/src/a.hpp", Valid: true,
		Alias: &frontend.AliasDecl{Target: "std::vector<Row>"},
	}
	global.OwnerQualified = "geo"
	Apply(idx, cfg, global)

	a, ok := idx.Aliases.Get(ident.ID("geo::Grid"))
	require.True(t, ok)
	assert.Equal(t, "using Grid = std::vector<Row>", a.Proto)
	// The target collapses to its primary template's qualified name.
	assert.Equal(t, ident.ID("std::vector"), a.Target.ID)
}
