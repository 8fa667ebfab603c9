package scrape

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// ErrBadEntrySelector is returned when the profile's entry selector is not
// of the supported id-prefix form.
var ErrBadEntrySelector = errors.New("entry selector must match an id prefix, e.g. div[id^=\"allresults_\"]")

// idPrefixRe extracts the prefix from an id-prefix CSS selector.
// The browser session passes the selector straight to the page; this parser
// only needs the prefix itself.
var idPrefixRe = regexp.MustCompile(`id\^="([^"]+)"`)

// blockElements are HTML elements that produce a line break when an entry's
// content is flattened to text. The flattened form mirrors what a browser's
// innerText yields, which is what the label extractor expects.
var blockElements = map[string]bool{
	"div": true, "p": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "ul": true, "ol": true,
}

// EntryTexts parses a results page and returns the flattened text of each
// booking entry, in page order. Entries are identified by the id prefix in
// entrySelector.
//
// Design decision: We use golang.org/x/net/html rather than regex because it
// correctly handles the malformed markup the portal emits, and the resulting
// tree lets us reproduce browser-style text flattening for the extractor.
func EntryTexts(pageHTML, entrySelector string) ([]string, error) {
	prefix, err := idPrefix(entrySelector)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var entries []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.HasPrefix(attr(n, "id"), prefix) {
			entries = append(entries, flattenText(n))
			// Entries do not nest; no need to descend further.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return entries, nil
}

// HasElement reports whether the page contains an element matching a simple
// #id selector. The session uses this to detect the login form reappearing
// after a search, which means the authentication lapsed.
func HasElement(pageHTML, idSelector string) bool {
	id := strings.TrimPrefix(idSelector, "#")
	if id == idSelector {
		// Not an id selector; nothing we can check cheaply.
		return false
	}

	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return false
	}

	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return found
}

// idPrefix extracts the id prefix from an id-prefix CSS selector.
func idPrefix(selector string) (string, error) {
	m := idPrefixRe.FindStringSubmatch(selector)
	if m == nil {
		return "", fmt.Errorf("%w: got %q", ErrBadEntrySelector, selector)
	}
	return m[1], nil
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// flattenText renders a node's text content with newlines at block
// boundaries, collapsing runs of blank lines.
func flattenText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			if blockElements[n.Data] {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(n)

	return normalizeLines(b.String())
}

// normalizeLines trims each line and drops consecutive blanks.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
