package textutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockTags get a separating space so adjacent paragraphs do not fuse into one word.
const blockTags = "p, div, br, li, h1, h2, h3, h4, h5, h6, blockquote, tr"

// PlainText reduces an HTML fragment to whitespace-collapsed text with
// entities decoded. Input without markup or entities is only collapsed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return CollapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return CollapseSpace(s)
	}
	doc.Find("script, style").Remove()
	doc.Find(blockTags).Each(func(_ int, sel *goquery.Selection) {
		sel.BeforeHtml(" ")
		sel.AppendHtml(" ")
	})
	return CollapseSpace(doc.Text())
}
