package client

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Entry is a file or directory in a mirror directory listing.
type Entry struct {
	Name  string `json:"name"`
	URL   string `json:"url"`            // Full URL
	Size  string `json:"size,omitempty"` // As printed by the listing, e.g. "1.2M"
	Date  string `json:"date,omitempty"`
	IsDir bool   `json:"is_dir"`
}

// parseDirectoryListing reads an autoindex-style HTML page. Table rows
// contribute size and date columns; bare anchors (as in <pre> listings)
// contribute names only. Each URL is reported once.
func parseDirectoryListing(r io.Reader, dirURL string) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	base, err := url.Parse(dirURL)
	if err != nil {
		return nil, fmt.Errorf("parsing directory URL: %w", err)
	}

	var entries []Entry
	seen := map[string]bool{}
	add := func(e Entry, ok bool) {
		if ok && !seen[e.URL] {
			seen[e.URL] = true
			entries = append(entries, e)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "tr":
				add(rowEntry(n, base))
			case "a":
				href, name := anchor(n)
				add(linkEntry(base, href, name))
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return entries, nil
}

func rowEntry(tr *html.Node, base *url.URL) (Entry, bool) {
	var cells []*html.Node
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if td.Type == html.ElementNode && td.Data == "td" {
			cells = append(cells, td)
		}
	}
	if len(cells) == 0 {
		return Entry{}, false
	}
	a := findAnchor(cells[0])
	if a == nil {
		return Entry{}, false
	}
	href, name := anchor(a)
	e, ok := linkEntry(base, href, name)
	if !ok {
		return Entry{}, false
	}
	// archive.org puts the date before the size.
	if len(cells) > 1 {
		e.Date = strings.TrimSpace(textContent(cells[1]))
	}
	if len(cells) > 2 {
		e.Size = strings.TrimSpace(textContent(cells[2]))
	}
	if looksLikeSize(e.Date) && !looksLikeSize(e.Size) {
		e.Date, e.Size = e.Size, e.Date
	}
	return e, true
}

func linkEntry(base *url.URL, href, name string) (Entry, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "?") {
		return Entry{}, false
	}
	if href == "../" || href == "./" {
		return Entry{}, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return Entry{}, false
	}
	full := base.ResolveReference(ref)
	if full.Scheme != "http" && full.Scheme != "https" {
		return Entry{}, false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = lastSegment(ref.Path)
	}
	name = strings.TrimSuffix(name, "/")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if name == "" || name == "." || name == ".." ||
		strings.EqualFold(name, "Parent Directory") || strings.EqualFold(name, "Go to parent directory") {
		return Entry{}, false
	}

	return Entry{
		Name:  name,
		URL:   full.String(),
		IsDir: strings.HasSuffix(ref.Path, "/"),
	}, true
}

func lastSegment(p string) string {
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// looksLikeSize matches "-", "512", "1.2M", "3.4 GiB" and the like.
func looksLikeSize(s string) bool {
	if s == "-" {
		return true
	}
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	digits := strings.TrimRight(strings.TrimSpace(s), "KMGTBikbi ")
	for _, c := range digits {
		if (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}

func findAnchor(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "a" {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if a := findAnchor(child); a != nil {
			return a
		}
	}
	return nil
}

// anchor returns the href of a and its title attribute, or its text.
func anchor(a *html.Node) (href, name string) {
	var title string
	for _, attr := range a.Attr {
		switch attr.Key {
		case "href":
			href = attr.Val
		case "title":
			title = attr.Val
		}
	}
	if title != "" {
		return href, title
	}
	return href, textContent(a)
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(textContent(child))
	}
	return sb.String()
}
