package listing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Clean collapses runs of whitespace and normalizes to NFC so that composed
// and decomposed Vietnamese diacritics compare equal.
func Clean(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// TextNodes returns the cleaned, non-empty text nodes under sel in document order.
func TextNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := Clean(n.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

func joinedText(sel *goquery.Selection, sep string) string {
	return strings.Join(TextNodes(sel), sep)
}

func text(sel *goquery.Selection) string {
	return Clean(sel.Text())
}
