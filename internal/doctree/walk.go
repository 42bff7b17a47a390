package doctree

import "strings"

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// PlainText flattens a node to its text content. Inline nodes are
// concatenated; block nodes are separated by newlines.
func PlainText(n Node) string {
	switch v := n.(type) {
	case nil:
		return ""
	case *Text:
		return v.Value
	case *Emphasis:
		return v.Value
	case *Strong:
		return v.Value
	case *Literal:
		return v.Value
	case *Link:
		return v.Text
	case *Reference:
		if v.Text != "" {
			return v.Text
		}
		return v.Target
	case *Code:
		return v.Value
	case *Raw, *Anchor, *Separator, *Meta, *Stylesheet, *DirectivePlaceholder, *Toc:
		return ""
	case *Span:
		var b strings.Builder
		for _, c := range v.Nodes {
			b.WriteString(PlainText(c))
		}
		return b.String()
	case *Table:
		var lines []string
		for _, r := range v.Rows {
			lines = append(lines, r.String())
		}
		return strings.Join(lines, "\n")
	}

	var parts []string
	for _, c := range n.Children() {
		if s := strings.TrimSpace(PlainText(c)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// NestSections groups a flat list of nodes into Sections keyed by title
// level. Nodes before the first title stay at the top.
func NestSections(nodes []Node) []Node {
	var root []Node
	var stack []*Section

	appendNode := func(n Node) {
		if len(stack) == 0 {
			root = append(root, n)
			return
		}
		top := stack[len(stack)-1]
		top.Nodes = append(top.Nodes, n)
	}

	for _, n := range nodes {
		title, ok := n.(*Title)
		if !ok {
			appendNode(n)
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].Title.Level >= title.Level {
			stack = stack[:len(stack)-1]
		}
		sec := &Section{Title: title}
		appendNode(sec)
		stack = append(stack, sec)
	}
	return root
}
