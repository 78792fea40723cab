package mapper

import (
	"strconv"
	"strings"

	"github.com/hward/cppdex/internal/ident"
	"github.com/hward/cppdex/internal/sym"
)

// functionProto renders the display signature and returns it with the two
// offsets the substitution pass needs: the end of the template clause and
// the start of the function name.
func functionProto(f *sym.FunctionSymbol) (proto string, postTemplate, nameStart int) {
	var b strings.Builder
	if len(f.TemplateParams) > 0 {
		b.WriteString("template <")
		b.WriteString(templateParamList(f.TemplateParams))
		b.WriteString(">\n")
	}
	postTemplate = b.Len()

	if f.IsNoDiscard {
		b.WriteString("[[nodiscard]] ")
	}
	if f.IsNoReturn {
		b.WriteString("[[noreturn]] ")
	}
	if f.IsStatic {
		b.WriteString("static ")
	}
	if f.IsVirtual {
		b.WriteString("virtual ")
	}
	if f.IsExplicit {
		b.WriteString("explicit ")
	}
	if f.IsConsteval {
		b.WriteString("consteval ")
	} else if f.IsConstexpr {
		b.WriteString("constexpr ")
	}
	if f.IsInline {
		b.WriteString("inline ")
	}
	switch {
	case f.IsCtorOrDtor || f.IsConversionOp:
		// no return type
	case f.HasTrailingReturn:
		b.WriteString("auto ")
	case f.ReturnType.Name != "":
		b.WriteString(f.ReturnType.Name)
		b.WriteByte(' ')
	}

	nameStart = b.Len()
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.Name)
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
		if p.DefaultValue != "" {
			b.WriteString(" = ")
			b.WriteString(p.DefaultValue)
		}
	}
	if f.IsVariadic {
		if len(f.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte(')')

	if f.IsConst {
		b.WriteString(" const")
	}
	if f.IsVolatile {
		b.WriteString(" volatile")
	}
	if f.RefQualifier != "" {
		b.WriteByte(' ')
		b.WriteString(f.RefQualifier)
	}
	if f.IsNoExcept {
		b.WriteString(" noexcept")
	}
	if f.HasTrailingReturn && f.ReturnType.Name != "" {
		b.WriteString(" -> ")
		b.WriteString(f.ReturnType.Name)
	}
	return b.String(), postTemplate, nameStart
}

// recordProto renders the record heading; base classes are appended later,
// once their entries exist and unresolved ones have been dropped.
func recordProto(r *sym.RecordSymbol) string {
	var b strings.Builder
	if len(r.TemplateParams) > 0 {
		b.WriteString("template <")
		b.WriteString(templateParamList(r.TemplateParams))
		b.WriteString(">\n")
	}
	b.WriteString(r.RecordKind)
	b.WriteByte(' ')
	b.WriteString(r.Name)
	return b.String()
}

func templateParamList(params []sym.TemplateParam) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, renderTemplateParam(p))
	}
	return strings.Join(parts, ", ")
}

func renderTemplateParam(p sym.TemplateParam) string {
	var b strings.Builder
	switch p.Kind {
	case sym.TemplateTemplateParam:
		// kept as written; re-rendering a nested parameter list loses
		// nothing a reader needs and risks mangling it
		b.WriteString(p.Type)
	case sym.NonTypeTemplateParam:
		b.WriteString(p.Type)
		if p.IsPack {
			b.WriteString("...")
		}
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	default:
		if p.IsTypename {
			b.WriteString("typename")
		} else {
			b.WriteString("class")
		}
		if p.IsPack {
			b.WriteString("...")
		}
		if p.Name != "" {
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
	}
	if p.DefaultValue != "" {
		b.WriteString(" = ")
		b.WriteString(p.DefaultValue)
	}
	return b.String()
}

// resolveSpecArgs maps the canonical template-argument spellings of a
// written specialization back to display text. Placeholder arguments are
// looked up by index in the specialization's own parameter list; when that
// fails they fall back to single-letter names cycling T through Z and
// wrapping to A. Non-placeholder arguments keep their spelling with nested
// argument lists collapsed.
func resolveSpecArgs(args []string, params []sym.TemplateParam) []string {
	fallback := byte('T')
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if i := placeholderIndex(arg); i >= 0 {
			name := ""
			if i < len(params) {
				name = params[i].Name
			}
			if name == "" {
				name = string(fallback)
				fallback++
				if fallback > 'Z' {
					fallback = 'A'
				}
			}
			out = append(out, name)
			continue
		}
		out = append(out, collapseArgs(arg))
	}
	return out
}

// placeholderIndex returns the parameter index encoded in a canonical
// placeholder spelling, or -1 when arg is not a placeholder.
func placeholderIndex(arg string) int {
	rest, ok := strings.CutPrefix(arg, ident.PlaceholderPrefix)
	if !ok {
		return -1
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return -1
	}
	i, err := strconv.Atoi(rest[:end])
	if err != nil {
		return -1
	}
	return i
}

// collapseArgs truncates a nested template-argument list so specialization
// display names stay one line.
func collapseArgs(s string) string {
	open := strings.IndexByte(s, '<')
	if open < 0 {
		return s
	}
	end := strings.LastIndexByte(s, '>')
	if end <= open {
		return s
	}
	return s[:open+1] + "..." + s[end:]
}
