package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// docFor collects the documentation comment block immediately preceding a
// declaration: consecutive comment siblings with no blank line between the
// last comment and the declaration.
func (w *walker) docFor(n *sitter.Node) string {
	var comments []string
	prev := n.PrevSibling()
	expectRow := int(n.StartPoint().Row)
	for prev != nil && prev.Type() == "comment" {
		gap := expectRow - int(prev.EndPoint().Row)
		if gap > 1 {
			break
		}
		comments = append(comments, w.text(prev))
		expectRow = int(prev.StartPoint().Row)
		prev = prev.PrevSibling()
	}
	if len(comments) == 0 {
		return ""
	}
	// Collected backwards.
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return cleanComment(strings.Join(comments, "\n"))
}

// enumeratorDoc reads either a preceding comment or a trailing comment on
// the same line ("A = 1, ///< doc" style).
func (w *walker) enumeratorDoc(e *sitter.Node) string {
	if next := e.NextSibling(); next != nil {
		// skip the comma
		if next.Type() == "," {
			next = next.NextSibling()
		}
		if next != nil && next.Type() == "comment" && next.StartPoint().Row == e.EndPoint().Row {
			return cleanComment(w.text(next))
		}
	}
	return w.docFor(e)
}

// cleanComment strips comment markers and common documentation decorations,
// preserving line structure.
func cleanComment(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "///<"), strings.HasPrefix(line, "//!<"):
			line = strings.TrimPrefix(strings.TrimPrefix(line, "///<"), "//!<")
		case strings.HasPrefix(line, "///"), strings.HasPrefix(line, "//!"):
			line = strings.TrimPrefix(strings.TrimPrefix(line, "///"), "//!")
		case strings.HasPrefix(line, "//"):
			line = strings.TrimPrefix(line, "//")
		case strings.HasPrefix(line, "/**"), strings.HasPrefix(line, "/*!"):
			line = strings.TrimPrefix(strings.TrimPrefix(line, "/**"), "/*!")
			line = strings.TrimSuffix(line, "*/")
		case strings.HasPrefix(line, "/*"):
			line = strings.TrimSuffix(strings.TrimPrefix(line, "/*"), "*/")
		case strings.HasPrefix(line, "*"):
			line = strings.TrimSuffix(strings.TrimPrefix(line, "*"), "*/")
		}
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "@brief ")
		line = strings.TrimPrefix(line, `\brief `)
		out = append(out, line)
	}
	// Trim leading/trailing empty lines.
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// Brief returns the first paragraph of a cleaned documentation comment.
func Brief(doc string) string {
	if doc == "" {
		return ""
	}
	for _, line := range strings.Split(doc, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
