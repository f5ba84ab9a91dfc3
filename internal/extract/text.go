package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnnamedProduct is the title placeholder when every strategy comes up
// empty.
const UnnamedProduct = "unnamed product"

// shortDescLimit caps a short description derived from the long one.
const shortDescLimit = 300

var shortDescSelectors = ".woocommerce-product-details__short-description, .short-description, .product-short-description"

var longDescSelectors = "#tab-description, .woocommerce-Tabs-panel--description, .product-description, #description"

var skuSelectors = ".sku, .product-sku, [itemprop=sku]"

// titleStrategies are tried in order; the first non-empty result wins.
var titleStrategies = []func(*goquery.Document) string{
	titleFromProductHeading,
	titleFromFirstH1,
	titleFromOpenGraph,
}

// Text holds the title and descriptions pulled from a page.
type Text struct {
	Title            string
	ShortDescription string
	LongDescription  string
}

// ExtractText derives title and descriptions via cascading heuristics.
// The structured-data Product object (may be nil) supplies the long
// description when no description markup exists.
func ExtractText(doc *goquery.Document, product map[string]any) Text {
	var t Text

	for _, strategy := range titleStrategies {
		if title := strategy(doc); title != "" {
			t.Title = title
			break
		}
	}
	if t.Title == "" {
		t.Title = UnnamedProduct
	}

	t.ShortDescription = collapseWhitespace(doc.Find(shortDescSelectors).First().Text())

	t.LongDescription = collapseWhitespace(doc.Find(longDescSelectors).First().Text())
	if t.LongDescription == "" {
		t.LongDescription = collapseWhitespace(ProductString(product, "description"))
	}

	if t.ShortDescription == "" {
		t.ShortDescription = truncateRunes(t.LongDescription, shortDescLimit)
	}

	return t
}

// ExtractSKU reads the product SKU from known markup, or "" when the
// page carries none.
func ExtractSKU(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(skuSelectors).First().Text())
}

func titleFromProductHeading(doc *goquery.Document) string {
	var title string
	doc.Find("h1, h2").EachWithBreak(func(i int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !strings.Contains(strings.ToLower(class), "product") {
			return true
		}
		if text := collapseWhitespace(s.Text()); text != "" {
			title = text
			return false
		}
		return true
	})
	return title
}

func titleFromFirstH1(doc *goquery.Document) string {
	return collapseWhitespace(doc.Find("h1").First().Text())
}

func titleFromOpenGraph(doc *goquery.Document) string {
	var title string
	doc.Find("meta").EachWithBreak(func(i int, s *goquery.Selection) bool {
		prop, _ := s.Attr("property")
		if prop != "og:title" {
			return true
		}
		content, _ := s.Attr("content")
		title = strings.TrimSpace(content)
		return false
	})
	return title
}

// collapseWhitespace trims and squashes internal whitespace runs to
// single spaces, matching text extracted across nested elements.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n runes, keeping multi-byte text
// intact.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
