package marketplace

import (
	"strings"

	"golang.org/x/net/html"
)

// Small traversal helpers over the parsed HTML tree. Selector support is
// limited to what the marketplace pages need: tag name and class membership.

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && (tag == "" || n.Data == tag)
}

// findAll collects every descendant (including n itself) matching tag and
// class; either may be empty to match any.
func findAll(n *html.Node, tag, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if isElement(node, tag) && (class == "" || hasClass(node, class)) {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, tag, class string) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(node *html.Node) bool {
		if isElement(node, tag) && (class == "" || hasClass(node, class)) {
			found = node
			return true
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(n)
	return found
}

// textContent renders all text under n, whitespace-collapsed.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
