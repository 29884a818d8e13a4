// Package htmlutils turns rendered wiki HTML into plain text.
//
// The package handles:
//   - Removing page furniture (edit links, references, navboxes, tables of contents)
//   - Rendering the remaining tree as paragraph-separated text with markdown headings
//   - Splitting long text into rune-bounded pages at paragraph boundaries
package htmlutils

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// removedClasses lists CSS classes whose elements never carry article prose.
var removedClasses = []string{
	"mw-editsection",
	"reference",
	"reflist",
	"references",
	"mw-references-wrap",
	"navbox",
	"vertical-navbox",
	"toc",
	"noprint",
	"mw-empty-elt",
	"mw-jump-link",
	"hatnote",
	"metadata",
	"sistersitebox",
	"shortdescription",
}

// removedTags lists elements dropped together with their content.
var removedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Link:     true,
	atom.Meta:     true,
	atom.Noscript: true,
	atom.Title:    true,
}

var blockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Section:    true,
	atom.Blockquote: true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Dl:         true,
	atom.Table:      true,
	atom.Tr:         true,
	atom.Figure:     true,
	atom.Pre:        true,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1,
	atom.H2: 2,
	atom.H3: 3,
	atom.H4: 4,
	atom.H5: 5,
	atom.H6: 6,
}

// CleanHTML parses an HTML fragment, drops page furniture and renders it back
// as a standalone document.
func CleanHTML(fragment string) (string, error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	prune(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// ToText renders HTML as plain text. Headings become markdown headings, list
// items become "- " lines and blocks are separated by blank lines.
func ToText(document string) string {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return ""
	}

	prune(doc)

	w := &textWriter{}
	w.walk(doc)

	return w.String()
}

// SplitText splits text into pages of at most limit runes. Pages end at a
// paragraph break, then a line break, then a space when one is available.
// Joining the pages gives back text unchanged.
func SplitText(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var pages []string

	for text != "" {
		page, rest := findBestSplit(text, limit)
		pages = append(pages, page)
		text = rest
	}

	return pages
}

func findBestSplit(text string, maxRunes int) (page, remainder string) {
	if utf8.RuneCountInString(text) <= maxRunes {
		return text, ""
	}

	searchText := runePrefix(text, maxRunes)

	for _, sep := range []string{"\n\n", "\n", " "} {
		if pos := strings.LastIndex(searchText, sep); pos > 0 {
			splitAt := pos + len(sep)
			return text[:splitAt], text[splitAt:]
		}
	}

	return searchText, text[len(searchText):]
}

func runePrefix(s string, n int) string {
	count := 0

	for i := range s {
		if count == n {
			return s[:i]
		}

		count++
	}

	return s
}

// prune removes unwanted nodes in place.
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling

		if shouldRemove(c) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}

		c = next
	}
}

func shouldRemove(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode:
		return true
	case html.ElementNode:
	default:
		return false
	}

	if removedTags[n.DataAtom] {
		return true
	}

	for _, attr := range n.Attr {
		switch attr.Key {
		case "class":
			if hasAnyClass(attr.Val, removedClasses) {
				return true
			}
		case "role":
			if attr.Val == "navigation" || attr.Val == "note" {
				return true
			}
		case "style":
			if strings.Contains(strings.ReplaceAll(attr.Val, " ", ""), "display:none") {
				return true
			}
		}
	}

	return false
}

func hasAnyClass(classAttr string, classes []string) bool {
	for _, class := range strings.Fields(classAttr) {
		for _, target := range classes {
			if class == target {
				return true
			}
		}
	}

	return false
}

type textWriter struct {
	sb           strings.Builder
	inPre        bool
	pendingSpace bool
}

func (w *textWriter) String() string {
	lines := strings.Split(w.sb.String(), "\n")

	var out []string

	blank := true
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank {
				out = append(out, "")
			}

			blank = true

			continue
		}

		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}

		return
	}

	if level, ok := headingLevels[n.DataAtom]; ok {
		w.block()
		w.sb.WriteString(strings.Repeat("#", level) + " ")
		w.children(n)
		w.block()

		return
	}

	switch n.DataAtom {
	case atom.Br:
		w.sb.WriteString("\n")
		w.pendingSpace = false
	case atom.Li:
		if !w.atLineStart() {
			w.sb.WriteString("\n")
		}

		w.sb.WriteString("- ")
		w.pendingSpace = false
		w.children(n)
		w.sb.WriteString("\n")
	case atom.Td, atom.Th:
		w.children(n)
		w.sb.WriteString(" ")
	case atom.Pre:
		w.block()
		w.inPre = true
		w.children(n)
		w.inPre = false
		w.block()
	default:
		if blockTags[n.DataAtom] {
			w.block()
			w.children(n)
			w.block()

			return
		}

		w.children(n)
	}
}

func (w *textWriter) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *textWriter) block() {
	w.sb.WriteString("\n\n")
	w.pendingSpace = false
}

func (w *textWriter) text(s string) {
	if w.inPre {
		w.sb.WriteString(s)
		return
	}

	if s == "" {
		return
	}

	leading := strings.TrimLeft(s, " \t\n\r") != s
	trailing := strings.TrimRight(s, " \t\n\r") != s
	words := strings.Fields(s)

	if len(words) == 0 {
		w.pendingSpace = true
		return
	}

	if (leading || w.pendingSpace) && !w.atLineStart() {
		w.sb.WriteString(" ")
	}

	w.sb.WriteString(strings.Join(words, " "))
	w.pendingSpace = trailing
}

func (w *textWriter) atLineStart() bool {
	s := w.sb.String()

	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "- ") || strings.HasSuffix(s, "# ")
}
