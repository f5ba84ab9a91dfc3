package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Status distinguishes "the page has no such data" from "the data is
// there but unparseable". Both degrade to the same empty result, but
// callers can log the malformed case.
type Status int

const (
	StatusFound Status = iota
	StatusAbsent
	StatusMalformed
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusAbsent:
		return "absent"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// JSONLDBlocks returns every JSON-LD object embedded in the document,
// in document order. Script blocks holding a top-level array are
// flattened into individual objects. Blocks that fail to parse are
// skipped; the count of skipped blocks is returned alongside.
func JSONLDBlocks(doc *goquery.Document) ([]map[string]any, int) {
	var blocks []map[string]any
	malformed := 0

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			malformed++
			return
		}

		switch v := parsed.(type) {
		case map[string]any:
			blocks = append(blocks, v)
		case []any:
			for _, item := range v {
				if obj, ok := item.(map[string]any); ok {
					blocks = append(blocks, obj)
				}
			}
		}
	})

	return blocks, malformed
}

// PickProduct selects the first object typed "Product" from a list of
// JSON-LD objects. Top-level objects are checked first; each object's
// @graph container is searched one level deep. Returns false if no
// Product object exists.
func PickProduct(blocks []map[string]any) (map[string]any, bool) {
	for _, block := range blocks {
		if isProductType(block["@type"]) {
			return block, true
		}

		graph, ok := block["@graph"].([]any)
		if !ok {
			continue
		}
		for _, node := range graph {
			obj, ok := node.(map[string]any)
			if !ok {
				continue
			}
			if isProductType(obj["@type"]) {
				return obj, true
			}
		}
	}

	return nil, false
}

// isProductType accepts "@type": "Product" as a plain string or as a
// single-element list.
func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []any:
		return len(v) == 1 && v[0] == "Product"
	}
	return false
}

// ProductString returns a string field from a structured-data Product
// object, or "".
func ProductString(product map[string]any, key string) string {
	if product == nil {
		return ""
	}
	if s, ok := product[key].(string); ok {
		return s
	}
	return ""
}
