package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	brushParam  = regexp.MustCompile(`brush:\s*([A-Za-z0-9_+-]+)`)
	spaceRuns   = regexp.MustCompile(`[ \t\r\n\f]+`)
	langClasses = regexp.MustCompile(`(?:^|\s)(?:language|lang)-([A-Za-z0-9_+-]+)`)
)

// ToMarkdown converts rendered page HTML to Markdown. Unknown elements are
// unwrapped so their text survives.
func ToMarkdown(src string) (md string, err error) {
	defer func() {
		if r := recover(); r != nil {
			md, err = "", fmt.Errorf("%w: %v", ErrConversion, r)
		}
	}()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}
	doc.Find("script, style, noscript").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var c converter
	return normalize(c.children(root)), nil
}

type converter struct{}

func (c *converter) children(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		b.WriteString(c.node(child))
	})
	return b.String()
}

func (c *converter) node(s *goquery.Selection) string {
	n := s.Get(0)
	switch n.Type {
	case html.TextNode:
		return spaceRuns.ReplaceAllString(n.Data, " ")
	case html.ElementNode:
	default:
		return ""
	}

	switch tag := goquery.NodeName(s); tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		text := strings.Join(strings.Fields(c.children(s)), " ")
		if text == "" {
			return ""
		}
		return block(strings.Repeat("#", level) + " " + text)
	case "p", "div", "section", "article", "main", "header", "footer", "figure":
		return block(c.children(s))
	case "br":
		return "\n"
	case "hr":
		return block("---")
	case "strong", "b":
		return wrapInline(c.children(s), "**")
	case "em", "i":
		return wrapInline(c.children(s), "_")
	case "del", "s", "strike":
		return wrapInline(c.children(s), "~~")
	case "code", "kbd", "tt":
		text := s.Text()
		if strings.TrimSpace(text) == "" {
			return text
		}
		return "`" + strings.TrimSpace(text) + "`"
	case "pre":
		return block("```" + codeLanguage(s) + "\n" + strings.TrimRight(s.Text(), "\n") + "\n```")
	case "a":
		return link(s, c.children(s))
	case "img":
		alt, _ := s.Attr("alt")
		src, _ := s.Attr("src")
		if src == "" {
			return alt
		}
		return "![" + alt + "](" + src + ")"
	case "ul", "ol":
		return c.list(s, tag == "ol")
	case "blockquote":
		inner := strings.TrimSpace(normalize(c.children(s)))
		if inner == "" {
			return ""
		}
		lines := strings.Split(inner, "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight("> "+l, " ")
		}
		return block(strings.Join(lines, "\n"))
	case "table":
		return c.table(s)
	case "head", "title", "button", "input", "select", "template":
		return ""
	default:
		return c.children(s)
	}
}

func (c *converter) list(s *goquery.Selection, ordered bool) string {
	var b strings.Builder
	n := 0
	if v, ok := s.Attr("start"); ok && ordered {
		if start, err := strconv.Atoi(v); err == nil {
			n = start - 1
		}
	}
	s.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		n++
		marker := "- "
		if ordered {
			marker = strconv.Itoa(n) + ". "
		}
		body := strings.TrimSpace(normalize(c.children(li)))
		lines := strings.Split(body, "\n")
		b.WriteString(marker + strings.TrimSpace(lines[0]) + "\n")
		indent := strings.Repeat(" ", len(marker))
		for _, l := range lines[1:] {
			if strings.TrimSpace(l) == "" {
				continue
			}
			b.WriteString(indent + l + "\n")
		}
	})
	if b.Len() == 0 {
		return ""
	}
	return block(b.String())
}

func (c *converter) table(s *goquery.Selection) string {
	var rows [][]string
	s.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(s)
	}).Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.Join(strings.Fields(c.children(cell)), " ")
			cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) == 0 {
		return ""
	}
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		for len(cells) < cols {
			cells = append(cells, "")
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	writeRow(rows[0])
	b.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
	for _, r := range rows[1:] {
		writeRow(r)
	}
	return block(b.String())
}

func link(s *goquery.Selection, inner string) string {
	text := strings.TrimSpace(inner)
	href, _ := s.Attr("href")
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return inner
	}
	if text == "" {
		text = href
	}
	return "[" + text + "](" + href + ")"
}

func codeLanguage(s *goquery.Selection) string {
	if params, ok := s.Attr("data-syntaxhighlighter-params"); ok {
		if m := brushParam.FindStringSubmatch(params); m != nil {
			return m[1]
		}
	}
	classes, _ := s.Attr("class")
	if code := s.Find("code").First(); code.Length() > 0 {
		if cc, ok := code.Attr("class"); ok {
			classes += " " + cc
		}
	}
	if m := langClasses.FindStringSubmatch(classes); m != nil {
		return m[1]
	}
	return ""
}

// wrapInline puts a marker around text, keeping surrounding spaces outside.
func wrapInline(text, marker string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text
	}
	lead := text[:len(text)-len(strings.TrimLeft(text, " "))]
	trail := text[len(strings.TrimRight(text, " ")):]
	return lead + marker + trimmed + marker + trail
}

func block(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	return "\n\n" + content + "\n\n"
}

// normalize trims trailing spaces outside code fences and collapses blank line runs.
func normalize(md string) string {
	lines := strings.Split(md, "\n")
	inFence := false
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			inFence = !inFence
			lines[i] = strings.TrimSpace(l)
			continue
		}
		if !inFence {
			lines[i] = strings.TrimRight(l, " \t")
			if strings.TrimSpace(lines[i]) == "" {
				lines[i] = ""
			} else if !isIndented(lines[i]) {
				lines[i] = strings.TrimLeft(lines[i], " ")
			}
		}
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}

// isIndented reports whether a line carries list nesting that must keep its
// leading spaces. Single spaces are leftovers from collapsed whitespace.
func isIndented(line string) bool {
	return len(line)-len(strings.TrimLeft(line, " ")) >= 2
}
