package frontend

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/hward/cppdex/internal/ident"
	"github.com/hward/cppdex/internal/sym"
)

// Parser parses one translation unit at a time. A Parser is not safe for
// concurrent use; the traversal executor creates one per worker.
type Parser struct {
	inner *sitter.Parser
}

func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(cpp.GetLanguage())
	return &Parser{inner: p}
}

// ParseUnit parses src and invokes emit once per declaration observation,
// in source order. Nested declarations are emitted before their enclosing
// record only when the grammar forces it; observers must not rely on order.
func (p *Parser) ParseUnit(ctx context.Context, path string, src []byte, emit func(*Decl)) error {
	tree, err := p.inner.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	w := &walker{src: src, file: path, emit: emit}
	w.walkScope(tree.RootNode(), scope{})
	return nil
}

// scope tracks the lexical context of the walk.
type scope struct {
	namespaces []string // "" marks an anonymous namespace
	owners     []owner  // enclosing records, outermost first
	access     sym.Access
}

// owner is an enclosing record: its written name and its declared template
// parameter names, used to canonicalize member signatures.
type owner struct {
	name      string
	tmplNames []string
}

func (s scope) qualify(name string) string {
	var parts []string
	for _, ns := range s.namespaces {
		if ns != "" {
			parts = append(parts, ns)
		}
	}
	for _, o := range s.owners {
		parts = append(parts, o.name)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, "::")
}

func (s scope) ownerName() string {
	if len(s.owners) == 0 {
		return ""
	}
	return s.owners[len(s.owners)-1].name
}

func (s scope) ownerTemplateNames() []string {
	if len(s.owners) == 0 {
		return nil
	}
	return s.owners[len(s.owners)-1].tmplNames
}

type walker struct {
	src  []byte
	file string
	emit func(*Decl)
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// walkScope dispatches the children of a declaration scope (translation
// unit, namespace body, linkage block, or preprocessor branch).
func (w *walker) walkScope(n *sitter.Node, sc scope) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "namespace_definition":
			w.namespaceDef(c, sc)
		case "linkage_specification":
			if body := c.ChildByFieldName("body"); body != nil {
				w.walkScope(body, sc)
			}
		case "preproc_if", "preproc_ifdef", "preproc_else", "preproc_elif":
			w.walkScope(c, sc)
		case "template_declaration":
			w.templateDecl(c, sc, nil)
		case "class_specifier", "struct_specifier", "union_specifier":
			w.recordDef(c, sc, nil, w.docFor(c), "")
		case "enum_specifier":
			w.enumDef(c, sc, w.docFor(c), "")
		case "function_definition":
			w.functionDecl(c, sc, nil, w.docFor(c), nil)
		case "declaration":
			w.plainDecl(c, sc, nil, w.docFor(c))
		case "alias_declaration":
			w.aliasDef(c, sc, w.docFor(c), nil)
		case "using_declaration":
			w.usingDecl(c, sc, w.docFor(c))
		case "type_definition":
			w.typedefDecl(c, sc, w.docFor(c))
		}
	}
}

// namespaceDef emits one observation per namespace segment ("namespace
// a::b" declares both a and a::b) and walks the body with the extended
// chain. Anonymous namespaces are emitted too: the mapper counts and
// rejects them.
func (w *walker) namespaceDef(n *sitter.Node, sc scope) {
	var segments []string
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		segments = strings.Split(w.text(nameNode), "::")
	} else {
		segments = []string{""}
	}

	doc := w.docFor(n)
	row, col := position(n)
	for _, seg := range segments {
		w.emit(&Decl{
			Kind:          DeclNamespace,
			Name:          seg,
			QualifiedName: sc.qualify(seg),
			Namespace:     append([]string(nil), sc.namespaces...),
			File:          w.file,
			Line:          row,
			Col:           col,
			Valid:         true,
			Doc:           doc,
		})
		sc.namespaces = append(sc.namespaces, seg)
		doc = ""
	}

	if body := n.ChildByFieldName("body"); body != nil {
		w.walkScope(body, sc)
	}
}

// templateDecl parses the parameter list and dispatches the templated
// entity with those parameters attached.
func (w *walker) templateDecl(n *sitter.Node, sc scope, collect *RecordDecl) {
	params := w.templateParams(n.ChildByFieldName("parameters"))
	doc := w.docFor(n)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			w.recordDef(c, sc, params, doc, "")
		case "enum_specifier":
			w.enumDef(c, sc, doc, "")
		case "function_definition":
			w.functionDecl(c, sc, params, doc, collect)
		case "declaration":
			w.plainDecl(c, sc, params, doc)
		case "alias_declaration":
			w.aliasDef(c, sc, doc, params)
		case "template_declaration":
			// Member template of a template: the inner parameter list is
			// the one that belongs to the entity.
			w.templateDecl(c, sc, collect)
		}
	}
}

// plainDecl handles a bodyless declaration node: function prototypes,
// deduction guides, forward declarations, and namespace-scope variables
// (which are not indexed).
func (w *walker) plainDecl(n *sitter.Node, sc scope, tmpl []sym.TemplateParam, doc string) {
	typeNode := n.ChildByFieldName("type")
	if typeNode != nil {
		switch typeNode.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			w.recordDef(typeNode, sc, tmpl, doc, "")
			return
		case "enum_specifier":
			w.enumDef(typeNode, sc, doc, "")
			return
		}
	}
	if findFunctionDeclarator(n.ChildByFieldName("declarator")) != nil {
		w.functionDecl(n, sc, tmpl, doc, nil)
	}
}

// typedefDecl gives C-style anonymous records and enums the name of their
// typedef. Plain typedefs of existing types are not alias observations;
// only using-declarations and alias-declarations are.
func (w *walker) typedefDecl(n *sitter.Node, sc scope, doc string) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	declName := ""
	if d := n.ChildByFieldName("declarator"); d != nil && d.Type() == "type_identifier" {
		declName = w.text(d)
	}
	switch typeNode.Type() {
	case "struct_specifier", "union_specifier", "class_specifier":
		if typeNode.ChildByFieldName("body") != nil {
			w.recordDef(typeNode, sc, nil, doc, declName)
		}
	case "enum_specifier":
		if typeNode.ChildByFieldName("body") != nil {
			w.enumDef(typeNode, sc, doc, declName)
		}
	}
}

func (w *walker) aliasDef(n *sitter.Node, sc scope, doc string, tmpl []sym.TemplateParam) *MemberAliasRef {
	_ = tmpl
	name := w.text(n.ChildByFieldName("name"))
	target := strings.TrimSpace(w.text(n.ChildByFieldName("type")))
	row, col := position(n)
	d := &Decl{
		Kind:           DeclAlias,
		Name:           name,
		QualifiedName:  sc.qualify(name),
		Namespace:      append([]string(nil), sc.namespaces...),
		Owner:          sc.ownerName(),
		OwnerQualified: sc.qualify(""),
		File:           w.file,
		Line:           row,
		Col:            col,
		Valid:          name != "",
		Access:         sc.access,
		Doc:            doc,
		IsMember:       len(sc.owners) > 0,
		Alias:          &AliasDecl{Target: target},
	}
	w.emit(d)
	return &MemberAliasRef{QualifiedName: d.QualifiedName, Access: d.Access}
}

func (w *walker) usingDecl(n *sitter.Node, sc scope, doc string) *MemberAliasRef {
	target := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "namespace":
			// using-directive, not an alias
			return nil
		case "identifier", "qualified_identifier":
			// For a multi-declarator using statement the last target wins.
			target = w.text(c)
		}
	}
	if target == "" {
		return nil
	}
	name := target
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	row, col := position(n)
	d := &Decl{
		Kind:           DeclAlias,
		Name:           name,
		QualifiedName:  sc.qualify(name),
		Namespace:      append([]string(nil), sc.namespaces...),
		Owner:          sc.ownerName(),
		OwnerQualified: sc.qualify(""),
		File:           w.file,
		Line:           row,
		Col:            col,
		Valid:          true,
		Access:         sc.access,
		Doc:            doc,
		IsMember:       len(sc.owners) > 0,
		Alias:          &AliasDecl{Target: target},
	}
	w.emit(d)
	return &MemberAliasRef{QualifiedName: d.QualifiedName, Access: d.Access}
}

func (w *walker) enumDef(n *sitter.Node, sc scope, doc string, typedefName string) {
	name := w.text(n.ChildByFieldName("name"))
	if name == "" {
		name = typedefName
	}
	scoped, classTag := false, false
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "class":
			scoped, classTag = true, true
		case "struct":
			scoped, classTag = true, false
		}
	}

	var members []EnumeratorDecl
	next := int64(0)
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			e := body.NamedChild(i)
			if e.Type() != "enumerator" {
				continue
			}
			val, explicit := parseEnumValue(w.text(e.ChildByFieldName("value")))
			if explicit {
				next = val
			}
			members = append(members, EnumeratorDecl{
				Name:  w.text(e.ChildByFieldName("name")),
				Value: next,
				Doc:   w.enumeratorDoc(e),
			})
			next++
		}
	}

	row, col := position(n)
	w.emit(&Decl{
		Kind:           DeclEnum,
		Name:           name,
		QualifiedName:  sc.qualify(name),
		Namespace:      append([]string(nil), sc.namespaces...),
		Owner:          sc.ownerName(),
		OwnerQualified: sc.qualify(""),
		File:           w.file,
		Line:           row,
		Col:            col,
		Valid:          true,
		Access:         sc.access,
		Doc:            doc,
		IsMember:       len(sc.owners) > 0,
		Enum:           &EnumDecl{Scoped: scoped, ClassTag: classTag, Members: members},
	})
}

// recordDef extracts a class/struct/union definition: its bases, template
// shape, and members. Member functions, nested types, and member aliases
// are emitted as their own observations while the record collects the
// identity references it needs.
func (w *walker) recordDef(n *sitter.Node, sc scope, tmpl []sym.TemplateParam, doc string, typedefName string) {
	kind := map[string]string{
		"class_specifier":  "class",
		"struct_specifier": "struct",
		"union_specifier":  "union",
	}[n.Type()]

	name := ""
	var specArgs []string
	isSpec := false
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		if nameNode.Type() == "template_type" {
			isSpec = true
			name = w.text(nameNode.ChildByFieldName("name"))
			if args := nameNode.ChildByFieldName("arguments"); args != nil {
				for i := 0; i < int(args.NamedChildCount()); i++ {
					specArgs = append(specArgs, ident.Canonicalize(
						strings.TrimSpace(w.text(args.NamedChild(i))), tmplNames(tmpl)))
				}
			}
		} else {
			name = w.text(nameNode)
		}
	}

	body := n.ChildByFieldName("body")
	rec := &RecordDecl{
		RecordKind:       kind,
		Complete:         body != nil,
		TemplateParams:   tmpl,
		TypedefName:      typedefName,
		SpecArgs:         specArgs,
		IsSpecialization: isSpec,
		ImplicitSpec:     isSpec && len(specArgs) == 0,
	}
	rec.Bases = w.baseClasses(n, kind)

	displayName := name
	if displayName == "" {
		displayName = typedefName
	}

	inner := sc
	inner.owners = append(append([]owner(nil), sc.owners...), owner{
		name:      displayName,
		tmplNames: tmplNames(tmpl),
	})
	if kind == "class" {
		inner.access = sym.AccessPrivate
	} else {
		inner.access = sym.AccessPublic
	}

	if body != nil {
		w.recordBody(body, inner, rec)
	}

	row, col := position(n)
	w.emit(&Decl{
		Kind:           DeclRecord,
		Name:           name,
		QualifiedName:  sc.qualify(displayName),
		Namespace:      append([]string(nil), sc.namespaces...),
		Owner:          sc.ownerName(),
		OwnerQualified: sc.qualify(""),
		File:           w.file,
		Line:           row,
		Col:            col,
		Valid:          true,
		Access:         sc.access,
		Doc:            doc,
		IsMember:       len(sc.owners) > 0,
		Record:         rec,
	})
}

// recordBody walks a field_declaration_list, tracking the running access
// specifier, collecting members into rec, and emitting nested observations.
func (w *walker) recordBody(body *sitter.Node, sc scope, rec *RecordDecl) {
	for i := 0; i < int(body.ChildCount()); i++ {
		c := body.Child(i)
		switch c.Type() {
		case "access_specifier":
			sc.access = accessFromString(w.text(c))
		case "field_declaration":
			if findFunctionDeclarator(c.ChildByFieldName("declarator")) != nil {
				if ref := w.functionDecl(c, sc, nil, w.docFor(c), rec); ref != nil {
					rec.Methods = append(rec.Methods, *ref)
				}
				continue
			}
			// A named nested record or enum defined inline with a variable.
			if t := c.ChildByFieldName("type"); t != nil && t.ChildByFieldName("body") != nil {
				switch t.Type() {
				case "class_specifier", "struct_specifier", "union_specifier":
					if t.ChildByFieldName("name") != nil {
						w.recordDef(t, sc, nil, "", "")
					}
				case "enum_specifier":
					if t.ChildByFieldName("name") != nil {
						w.enumDef(t, sc, "", "")
					}
				}
			}
			if mv := w.memberVar(c, sc, false); mv != nil {
				rec.Vars = append(rec.Vars, *mv)
			}
		case "function_definition":
			if ref := w.functionDecl(c, sc, nil, w.docFor(c), rec); ref != nil {
				rec.Methods = append(rec.Methods, *ref)
			}
		case "template_declaration":
			w.memberTemplate(c, sc, rec)
		case "class_specifier", "struct_specifier", "union_specifier":
			w.recordDef(c, sc, nil, w.docFor(c), "")
		case "enum_specifier":
			w.enumDef(c, sc, w.docFor(c), "")
		case "alias_declaration":
			if ref := w.aliasDef(c, sc, w.docFor(c), nil); ref != nil {
				rec.MemberAliases = append(rec.MemberAliases, *ref)
			}
		case "using_declaration":
			if ref := w.usingDecl(c, sc, w.docFor(c)); ref != nil {
				rec.MemberAliases = append(rec.MemberAliases, *ref)
			}
		case "declaration":
			// Static data members reach the body as plain declarations.
			if findFunctionDeclarator(c.ChildByFieldName("declarator")) != nil {
				if ref := w.functionDecl(c, sc, nil, w.docFor(c), rec); ref != nil {
					rec.Methods = append(rec.Methods, *ref)
				}
			} else if mv := w.memberVar(c, sc, true); mv != nil {
				rec.Vars = append(rec.Vars, *mv)
			}
		case "friend_declaration", "comment", "preproc_def", "preproc_function_def":
			// not members
		}
	}
}

// memberTemplate handles a template declaration inside a record body:
// member function templates join the method list, nested templated records
// and alias templates are emitted as usual.
func (w *walker) memberTemplate(n *sitter.Node, sc scope, rec *RecordDecl) {
	params := w.templateParams(n.ChildByFieldName("parameters"))
	doc := w.docFor(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "function_definition", "declaration", "field_declaration":
			if findFunctionDeclarator(c.ChildByFieldName("declarator")) == nil {
				continue
			}
			if ref := w.functionDecl(c, sc, params, doc, rec); ref != nil {
				rec.Methods = append(rec.Methods, *ref)
			}
		case "class_specifier", "struct_specifier", "union_specifier":
			w.recordDef(c, sc, params, doc, "")
		case "alias_declaration":
			if ref := w.aliasDef(c, sc, doc, params); ref != nil {
				rec.MemberAliases = append(rec.MemberAliases, *ref)
			}
		case "template_declaration":
			w.memberTemplate(c, sc, rec)
		}
	}
}

// memberVar extracts a data member from a field_declaration or a static
// member from a declaration node. Returns nil when the node declares no
// variable (e.g. a bare nested type definition).
func (w *walker) memberVar(n *sitter.Node, sc scope, forceStatic bool) *MemberVarDecl {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return nil
	}

	anonymous := false
	typeText := strings.TrimSpace(w.text(typeNode))
	switch typeNode.Type() {
	case "struct_specifier", "union_specifier":
		if typeNode.ChildByFieldName("body") != nil {
			if typeNode.ChildByFieldName("name") == nil {
				anonymous = true
				typeText = ""
			} else {
				typeText = w.text(typeNode.ChildByFieldName("name"))
			}
		}
	case "enum_specifier", "class_specifier":
		if typeNode.ChildByFieldName("body") != nil && typeNode.ChildByFieldName("name") != nil {
			typeText = w.text(typeNode.ChildByFieldName("name"))
		}
	}

	decl := n.ChildByFieldName("declarator")
	if decl == nil {
		return nil
	}
	name, marks, defaultValue := unwrapDeclarator(decl, w.src)
	if name == "" {
		return nil
	}
	if !anonymous {
		typeText = ident.Canonicalize(collapseSpace(typeText+marks), sc.ownerTemplateNames())
	}
	if dv := n.ChildByFieldName("default_value"); dv != nil {
		defaultValue = strings.TrimSpace(w.text(dv))
	}

	isStatic := forceStatic
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "storage_class_specifier" && w.text(n.Child(i)) == "static" {
			isStatic = true
		}
	}

	return &MemberVarDecl{
		Name:         name,
		Type:         typeText,
		DefaultValue: ident.Canonicalize(defaultValue, sc.ownerTemplateNames()),
		Access:       sc.access,
		IsStatic:     isStatic,
		Doc:          w.docFor(n),
		Anonymous:    anonymous,
	}
}

func (w *walker) baseClasses(n *sitter.Node, kind string) []BaseDecl {
	var bases []BaseDecl
	var clause *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "base_class_clause" {
			clause = n.Child(i)
			break
		}
	}
	if clause == nil {
		return nil
	}

	// Unwritten base access defaults to the record kind's member default.
	defaultAccess := sym.AccessPrivate
	if kind != "class" {
		defaultAccess = sym.AccessPublic
	}
	current := defaultAccess
	for i := 0; i < int(clause.ChildCount()); i++ {
		c := clause.Child(i)
		switch c.Type() {
		case "access_specifier":
			current = accessFromString(w.text(c))
		case "type_identifier", "qualified_identifier", "template_type":
			spelling := strings.TrimSpace(w.text(c))
			bases = append(bases, BaseDecl{
				Name:   spelling,
				Access: current,
				InStd:  strings.HasPrefix(spelling, "std::"),
			})
			current = defaultAccess
		case ",":
			// next base reverts to the default unless an access is written
		}
	}
	return bases
}
