package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gonature/product-scraper/internal/models"
)

// gallerySelectors are known product-gallery containers, tried in
// order. Within a matched <img>, the large-image attribute beats the
// lazy-load attribute, which beats the plain src.
var gallerySelectors = []string{
	".woocommerce-product-gallery img",
	".product-images img",
	".images img",
	".gallery img",
}

var galleryAttrs = []string{"data-large_image", "data-src", "src"}

// fallbackClassHints mark an <img> as product-related when any of them
// appears in its class list.
var fallbackClassHints = []string{"product", "gallery", "zoom"}

// CollectImageCandidates gathers image URLs from the document's
// gallery markup, Open-Graph tags, the structured-data Product object,
// and finally any image with a product-looking class. The result is
// absolute, deduplicated by query-stripped URL (first-seen source
// wins), and restricted to http/https.
func CollectImageCandidates(doc *goquery.Document, base *url.URL, product map[string]any) []models.ImageCandidate {
	var raw []models.ImageCandidate

	add := func(src string, source models.ImageSource) {
		if src == "" {
			return
		}
		raw = append(raw, models.ImageCandidate{URL: resolveURL(base, src), Source: source})
	}

	for _, sel := range gallerySelectors {
		doc.Find(sel).Each(func(i int, s *goquery.Selection) {
			add(firstAttr(s, galleryAttrs), models.SourceGallery)
		})
	}

	doc.Find("meta").Each(func(i int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		if prop == "og:image" || prop == "og:image:url" {
			content, _ := s.Attr("content")
			add(content, models.SourceOpenGraph)
		}
	})

	if product != nil {
		switch imgs := product["image"].(type) {
		case string:
			add(imgs, models.SourceStructuredData)
		case []any:
			for _, u := range imgs {
				if s, ok := u.(string); ok {
					add(s, models.SourceStructuredData)
				}
			}
		}
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src := firstAttr(s, []string{"src", "data-src"})
		if src == "" {
			return
		}
		class, _ := s.Attr("class")
		class = strings.ToLower(class)
		for _, hint := range fallbackClassHints {
			if strings.Contains(class, hint) {
				add(src, models.SourceClassFallback)
				return
			}
		}
	})

	return dedupeCandidates(raw)
}

// dedupeCandidates strips query strings, keeps the first occurrence of
// each URL, and drops anything that is not http(s).
func dedupeCandidates(in []models.ImageCandidate) []models.ImageCandidate {
	seen := make(map[string]struct{})
	out := make([]models.ImageCandidate, 0, len(in))

	for _, c := range in {
		u := c.URL
		if idx := strings.Index(u, "?"); idx >= 0 {
			u = u[:idx]
		}
		lower := strings.ToLower(u)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, models.ImageCandidate{URL: u, Source: c.Source})
	}

	return out
}

// firstAttr returns the first non-empty attribute among attrs.
func firstAttr(s *goquery.Selection, attrs []string) string {
	for _, a := range attrs {
		if v, ok := s.Attr(a); ok && v != "" {
			return v
		}
	}
	return ""
}

// resolveURL resolves ref against base, returning ref unchanged when
// it cannot be parsed or no base is available.
func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
