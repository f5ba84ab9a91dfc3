package models

import (
	"time"
)

// ImageSource identifies which heuristic produced an image candidate.
// Lower values are higher priority; on duplicate URLs the earliest
// source wins.
type ImageSource int

const (
	SourceGallery ImageSource = iota
	SourceOpenGraph
	SourceStructuredData
	SourceClassFallback
)

func (s ImageSource) String() string {
	switch s {
	case SourceGallery:
		return "gallery"
	case SourceOpenGraph:
		return "opengraph"
	case SourceStructuredData:
		return "structured_data"
	case SourceClassFallback:
		return "class_fallback"
	default:
		return "unknown"
	}
}

// ImageCandidate is an absolute, query-stripped image URL together with
// the source that produced it.
type ImageCandidate struct {
	URL    string      `json:"url"`
	Source ImageSource `json:"source"`
}

// ProcessedImage is a normalized 1080x1080 JPEG written to disk. After
// the normalize step only the base filename is referenced; the archive
// is flat.
type ProcessedImage struct {
	Filename  string `json:"filename"`
	SourceURL string `json:"source_url"`
}

// ProductRecord holds the facts extracted from one product page.
type ProductRecord struct {
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"short_description"`
	LongDescription  string    `json:"long_description"`
	SKU              string    `json:"sku"`
	Brand            string    `json:"brand,omitempty"`
	Categories       string    `json:"categories,omitempty"`
	Tags             string    `json:"tags,omitempty"`
	ScrapedAt        time.Time `json:"scraped_at"`
}

// AttributePair is one attribute key/value of a single variation.
// Pairs keep the order they appeared in the variation JSON.
type AttributePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Variation is one purchasable combination under a parent product.
// Image starts out as an absolute URL from the page and is swapped for
// a processed filename before row building.
type Variation struct {
	Attributes []AttributePair `json:"attributes"`
	SKU        string          `json:"sku,omitempty"`
	Price      string          `json:"price,omitempty"`
	Image      string          `json:"image,omitempty"`
}

// AttributeValue returns the variation's value for key, or "".
func (v *Variation) AttributeValue(key string) string {
	for _, p := range v.Attributes {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// AttributeSet aggregates attribute values across all variations of a
// product. Key order and per-key value order are first-seen insertion
// order.
type AttributeSet struct {
	keys   []string
	values map[string][]string
}

func NewAttributeSet() *AttributeSet {
	return &AttributeSet{values: make(map[string][]string)}
}

// Add records value under key, skipping values already present for
// that key.
func (a *AttributeSet) Add(key, value string) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
		a.values[key] = []string{}
	}
	for _, v := range a.values[key] {
		if v == value {
			return
		}
	}
	a.values[key] = append(a.values[key], value)
}

// Keys returns the attribute keys in first-seen order.
func (a *AttributeSet) Keys() []string {
	return a.keys
}

// Values returns the distinct values recorded for key in first-seen
// order.
func (a *AttributeSet) Values(key string) []string {
	return a.values[key]
}

func (a *AttributeSet) Len() int {
	return len(a.keys)
}
