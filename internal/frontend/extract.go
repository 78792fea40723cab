package frontend

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hward/cppdex/internal/ident"
	"github.com/hward/cppdex/internal/sym"
)

// functionDecl extracts a function from a function_definition, declaration,
// or field_declaration node, emits the observation, and returns the
// identity reference the enclosing record needs (nil for free functions or
// when no function declarator is present).
func (w *walker) functionDecl(n *sitter.Node, sc scope, tmpl []sym.TemplateParam, doc string, rec *RecordDecl) *MemberFuncRef {
	fdecl := findFunctionDeclarator(n.ChildByFieldName("declarator"))
	if fdecl == nil {
		return nil
	}

	f := &FuncDecl{TemplateParams: tmpl}
	ownerNames := sc.ownerTemplateNames()

	// Return-type pointer/reference marks live on the wrappers between the
	// declaration and its function_declarator.
	retMarks := declaratorMarks(n.ChildByFieldName("declarator"))

	name, qualifiedPrefix := w.declaratorName(fdecl.ChildByFieldName("declarator"))
	if name == "" {
		return nil
	}

	switch {
	case strings.HasPrefix(name, "~"):
		f.IsDtor = true
	case strings.HasPrefix(name, "operator"):
		if d := fdecl.ChildByFieldName("declarator"); d != nil && d.Type() == "operator_cast" {
			f.IsConversionOp = true
		}
	}

	// The name a constructor compares against is the owner's written name
	// with any specialization arguments stripped.
	ownerBase := stripArgs(sc.ownerName())
	inClass := rec != nil
	if inClass && (stripArgs(name) == ownerBase) {
		f.IsCtor = true
	}
	// Out-of-line definitions: "Foo::Foo" and "Foo::~Foo".
	if qualifiedPrefix != "" {
		last := lastSegment(qualifiedPrefix)
		if stripArgs(name) == stripArgs(last) {
			f.IsCtor = true
		}
	}

	// Parameters.
	var idTypes []string
	if params := fdecl.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			switch p.Type() {
			case "parameter_declaration", "optional_parameter_declaration":
				pd := w.paramDecl(p, ownerNames)
				f.Params = append(f.Params, pd)
				idTypes = append(idTypes, ident.Canonicalize(pd.Type, tmplNames(tmpl)))
			case "variadic_parameter_declaration":
				f.IsVariadic = true
			}
			if w.text(p) == "..." {
				f.IsVariadic = true
			}
		}
	}
	f.IDParamTypes = idTypes

	// Specifiers on the declaration node.
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "storage_class_specifier":
			switch w.text(c) {
			case "static":
				f.IsStatic = true
			case "inline":
				f.IsInline = true
			}
		case "type_qualifier":
			switch w.text(c) {
			case "constexpr":
				f.IsConstexpr = true
			case "consteval":
				f.IsConsteval = true
			}
		case "virtual", "virtual_function_specifier":
			f.IsVirtual = true
		case "explicit_function_specifier":
			f.IsExplicit = true
		case "attribute_declaration", "attribute_specifier":
			attr := w.text(c)
			if strings.Contains(attr, "nodiscard") {
				f.IsNoDiscard = true
			}
			if strings.Contains(attr, "noreturn") {
				f.IsNoReturn = true
			}
		case "delete_method_clause":
			f.IsDeleted = true
		case "default_method_clause":
			// defaulted functions are indexed but not constexpr-as-written
			f.IsConstexpr = false
		}
	}
	if !f.IsDeleted && strings.Contains(w.text(n), "= delete") {
		f.IsDeleted = true
	}

	// Qualifiers trailing the parameter list.
	for i := 0; i < int(fdecl.ChildCount()); i++ {
		c := fdecl.Child(i)
		switch c.Type() {
		case "type_qualifier":
			switch w.text(c) {
			case "const":
				f.IsConst = true
			case "volatile":
				f.IsVolatile = true
			}
		case "ref_qualifier":
			f.RefQualifier = w.text(c)
		case "noexcept":
			f.IsNoExcept = true
		case "trailing_return_type":
			f.HasTrailingReturn = true
			f.ReturnType = collapseSpace(strings.TrimSpace(strings.TrimPrefix(w.text(c), "->")))
		}
	}

	if !f.HasTrailingReturn {
		if t := n.ChildByFieldName("type"); t != nil {
			f.ReturnType = collapseSpace(w.cvQualifiers(n) + w.text(t) + retMarks)
		}
	}
	f.ReturnType = ident.Canonicalize(f.ReturnType, ownerNames)

	// A declaration with no written return type whose trailing return names
	// the declared name itself is a deduction guide.
	if n.ChildByFieldName("type") == nil && f.HasTrailingReturn && !f.IsCtor && !f.IsDtor {
		if ident.NormalizeType(f.ReturnType) == stripArgs(name) || lastSegment(ident.NormalizeType(f.ReturnType)) == stripArgs(name) {
			f.IsDeductionGuide = true
		}
	}
	if f.IsCtor || f.IsDtor {
		f.ReturnType = ""
	}

	qualName := sc.qualify(name)
	if qualifiedPrefix != "" {
		// Out-of-line member definition: the declarator already carries the
		// owner qualification.
		qualName = sc.qualify(qualifiedPrefix + "::" + name)
	}

	isMember := inClass || qualifiedPrefix != ""
	row, col := position(n)
	d := &Decl{
		Kind:           DeclFunction,
		Name:           name,
		QualifiedName:  qualName,
		Namespace:      append([]string(nil), sc.namespaces...),
		Owner:          sc.ownerName(),
		OwnerQualified: sc.qualify(""),
		File:           w.file,
		Line:           row,
		Col:            col,
		Valid:          true,
		Access:         sc.access,
		Doc:            doc,
		IsMember:       isMember,
		Func:           f,
	}
	w.emit(d)

	if rec == nil {
		return nil
	}
	if f.IsDeleted || f.IsDeductionGuide {
		return nil
	}
	return &MemberFuncRef{
		QualifiedName: qualName,
		ParamTypes:    idTypes,
		Qual:          IdentityQual(f),
		Access:        sc.access,
	}
}

// IdentityQual renders the cv/ref-qualifier identity suffix of a member
// function; overloads differing only in constness must not collide.
func IdentityQual(f *FuncDecl) string {
	var b strings.Builder
	if f.IsConst {
		b.WriteString("const")
	}
	if f.IsVolatile {
		b.WriteString("volatile")
	}
	b.WriteString(f.RefQualifier)
	return b.String()
}

// cvQualifiers collects the cv-qualifiers written among a declaration's
// specifiers. The grammar attaches them to the declaration node rather than
// the type node, so the type field alone would drop them. East-const
// spellings come out normalized to the prefix position.
func (w *walker) cvQualifiers(n *sitter.Node) string {
	var prefix string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() != "type_qualifier" {
			continue
		}
		switch w.text(c) {
		case "const", "volatile":
			prefix += w.text(c) + " "
		}
	}
	return prefix
}

// paramDecl extracts one parameter, rendering its type through the
// canonical printer (enclosing template parameter names replaced by index
// placeholders).
func (w *walker) paramDecl(p *sitter.Node, ownerNames []string) ParamDecl {
	typeText := w.cvQualifiers(p) + strings.TrimSpace(w.text(p.ChildByFieldName("type")))
	name, marks, _ := unwrapDeclarator(p.ChildByFieldName("declarator"), w.src)
	defaultValue := ""
	if dv := p.ChildByFieldName("default_value"); dv != nil {
		defaultValue = strings.TrimSpace(w.text(dv))
	}
	return ParamDecl{
		Name:         name,
		Type:         ident.Canonicalize(collapseSpace(typeText+marks), ownerNames),
		DefaultValue: ident.Canonicalize(defaultValue, ownerNames),
	}
}

// templateParams extracts a template_parameter_list into the generic
// template-parameter model: type, non-type, and template-template kinds,
// with defaults and pack flags.
func (w *walker) templateParams(list *sitter.Node) []sym.TemplateParam {
	if list == nil {
		return nil
	}
	var params []sym.TemplateParam
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		switch p.Type() {
		case "type_parameter_declaration", "optional_type_parameter_declaration",
			"variadic_type_parameter_declaration":
			tp := sym.TemplateParam{Kind: sym.TemplateTypeParam}
			tp.IsPack = p.Type() == "variadic_type_parameter_declaration"
			for j := 0; j < int(p.ChildCount()); j++ {
				c := p.Child(j)
				switch c.Type() {
				case "typename":
					tp.IsTypename = true
				case "type_identifier":
					tp.Name = w.text(c)
				}
			}
			if dv := p.ChildByFieldName("default_type"); dv != nil {
				tp.DefaultValue = strings.TrimSpace(w.text(dv))
			}
			params = append(params, tp)
		case "parameter_declaration", "optional_parameter_declaration",
			"variadic_parameter_declaration":
			name, marks, _ := unwrapDeclarator(p.ChildByFieldName("declarator"), w.src)
			tp := sym.TemplateParam{
				Kind:   sym.NonTypeTemplateParam,
				Name:   name,
				Type:   collapseSpace(strings.TrimSpace(w.text(p.ChildByFieldName("type"))) + marks),
				IsPack: p.Type() == "variadic_parameter_declaration",
			}
			if dv := p.ChildByFieldName("default_value"); dv != nil {
				tp.DefaultValue = strings.TrimSpace(w.text(dv))
			}
			params = append(params, tp)
		case "template_template_parameter_declaration":
			tp := sym.TemplateParam{
				Kind: sym.TemplateTemplateParam,
				Type: collapseSpace(w.text(p)),
			}
			for j := 0; j < int(p.ChildCount()); j++ {
				c := p.Child(j)
				if c.Type() == "type_identifier" {
					tp.Name = w.text(c)
				}
				if c.Type() == "type_parameter_declaration" || c.Type() == "variadic_type_parameter_declaration" {
					for k := 0; k < int(c.ChildCount()); k++ {
						if c.Child(k).Type() == "type_identifier" {
							tp.Name = w.text(c.Child(k))
						}
					}
				}
			}
			params = append(params, tp)
		}
	}
	return params
}

// declaratorName resolves the name node of a function declarator. For a
// qualified_identifier ("Foo::bar") it returns the final name and the
// qualifying prefix separately.
func (w *walker) declaratorName(d *sitter.Node) (name, qualifiedPrefix string) {
	if d == nil {
		return "", ""
	}
	switch d.Type() {
	case "identifier", "field_identifier", "type_identifier", "operator_name", "destructor_name":
		return w.text(d), ""
	case "operator_cast":
		return collapseSpace(w.text(d)), ""
	case "qualified_identifier":
		full := w.text(d)
		if i := strings.LastIndex(full, "::"); i >= 0 {
			return full[i+2:], full[:i]
		}
		return full, ""
	case "template_function":
		return w.declaratorName(d.ChildByFieldName("name"))
	case "parenthesized_declarator", "pointer_declarator", "reference_declarator":
		for i := 0; i < int(d.NamedChildCount()); i++ {
			if n, p := w.declaratorName(d.NamedChild(i)); n != "" {
				return n, p
			}
		}
	}
	return "", ""
}

// findFunctionDeclarator unwraps pointer/reference wrappers until it finds
// a function_declarator, or nil when the declaration is not a function.
func findFunctionDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			return d
		case "pointer_declarator", "reference_declarator", "parenthesized_declarator", "init_declarator":
			d = d.ChildByFieldName("declarator")
			if d == nil {
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}

// declaratorMarks renders the pointer/reference marks between an outer
// declarator and its function declarator, e.g. the "*" of "int *f()".
func declaratorMarks(d *sitter.Node) string {
	var b strings.Builder
	for d != nil && d.Type() != "function_declarator" {
		switch d.Type() {
		case "pointer_declarator":
			b.WriteString(" *")
		case "reference_declarator":
			b.WriteString(" &")
		}
		d = d.ChildByFieldName("declarator")
	}
	return b.String()
}

// unwrapDeclarator walks a variable declarator to the declared identifier,
// collecting pointer/reference marks and an initializer if present.
func unwrapDeclarator(d *sitter.Node, src []byte) (name, marks, defaultValue string) {
	for d != nil {
		switch d.Type() {
		case "identifier", "field_identifier", "type_identifier":
			return d.Content(src), marks, defaultValue
		case "pointer_declarator":
			marks += " *"
			d = d.ChildByFieldName("declarator")
		case "reference_declarator":
			marks += " &"
			// reference_declarator has no field name for its child
			if d.NamedChildCount() > 0 {
				d = d.NamedChild(int(d.NamedChildCount()) - 1)
			} else {
				return "", marks, defaultValue
			}
		case "init_declarator":
			if v := d.ChildByFieldName("value"); v != nil {
				defaultValue = strings.TrimSpace(v.Content(src))
			}
			d = d.ChildByFieldName("declarator")
		case "array_declarator", "parenthesized_declarator":
			d = d.ChildByFieldName("declarator")
		default:
			return "", marks, defaultValue
		}
	}
	return "", marks, defaultValue
}

func tmplNames(params []sym.TemplateParam) []string {
	if len(params) == 0 {
		return nil
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func stripArgs(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return s[:i]
	}
	return s
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[i+2:]
	}
	return s
}

func accessFromString(s string) sym.Access {
	switch strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ":")) {
	case "public":
		return sym.AccessPublic
	case "protected":
		return sym.AccessProtected
	case "private":
		return sym.AccessPrivate
	default:
		return sym.AccessNone
	}
}

// parseEnumValue evaluates an enumerator initializer when it is a plain
// integer literal (decimal, hex, octal, or binary, with an optional sign).
// Expression initializers keep the running counter value.
func parseEnumValue(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	clean := strings.ReplaceAll(s, "'", "")
	if v, err := strconv.ParseInt(clean, 0, 64); err == nil {
		return v, true
	}
	return 0, false
}

func position(n *sitter.Node) (line, col int) {
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column) + 1
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
