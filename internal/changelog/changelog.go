// Package changelog parses keep-a-changelog style markdown into structured release entries.
package changelog

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// versionHeading matches `[1.2.3] - 2025-09-01`, `v1.2.3`, `1.2.3-rc.1 2025-09-01` and similar.
var versionHeading = regexp.MustCompile(`^\[?v?(\d+\.\d+\.\d+(?:-[^\]\s]+)?)\]?\s*-?\s*([0-9]{4}-[0-9]{2}-[0-9]{2})?\s*$`)

// Entry is one released version.
type Entry struct {
	Version string              `json:"version"`
	Date    *string             `json:"date"`
	Changes map[string][]string `json:"changes"`
}

// Parse extracts release entries in document order.
// Level-2+ headings that look like versions start entries, level-3 headings start change groups,
// and list items under a group become its changes. Anything else is ignored.
func Parse(source []byte) []Entry {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	entries := []Entry{}
	var (
		current    *Entry
		changeType string
	)
	flush := func() {
		if current != nil {
			entries = append(entries, *current)
		}
	}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(blockText(n, source))
			if n.Level >= 2 {
				if match := versionHeading.FindStringSubmatch(title); match != nil {
					flush()
					current = &Entry{Version: match[1], Changes: map[string][]string{}}
					if match[2] != "" {
						date := match[2]
						current.Date = &date
					}
					changeType = ""
					continue
				}
			}
			if n.Level == 3 && current != nil {
				changeType = title
				if _, ok := current.Changes[changeType]; !ok {
					current.Changes[changeType] = []string{}
				}
			}
		case *ast.List:
			if current == nil || changeType == "" {
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				if bullet := listItemText(item, source); bullet != "" {
					current.Changes[changeType] = append(current.Changes[changeType], bullet)
				}
			}
		}
	}
	flush()
	return entries
}

// listItemText returns the first line of one list item.
func listItemText(item ast.Node, source []byte) string {
	block := item.FirstChild()
	if block == nil {
		return ""
	}
	full := blockText(block, source)
	first, _, _ := strings.Cut(full, "\n")
	return strings.TrimSpace(first)
}

// blockText joins the raw source lines of one block node.
func blockText(node ast.Node, source []byte) string {
	lines := node.Lines()
	if lines == nil {
		return ""
	}
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}
