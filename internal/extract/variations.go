package extract

import (
	"bytes"
	"encoding/json"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gonature/product-scraper/internal/models"
)

// variationsFormSelector matches the WooCommerce variations form by
// class substring.
const variationsFormSelector = `form[class*="variations_form"]`

var variationDataAttrs = []string{"data-product_variations", "data-product_variations-json"}

// variationPayload mirrors one element of the embedded variations
// array. Attributes stays raw so its key order can be preserved.
type variationPayload struct {
	Attributes   json.RawMessage `json:"attributes"`
	Image        json.RawMessage `json:"image"`
	SKU          string          `json:"sku"`
	DisplayPrice json.RawMessage `json:"display_price"`
	PriceHTML    string          `json:"price_html"`
}

// ParseVariations reads the JSON-encoded variation array carried on
// the variations form. A missing form or data attribute is the common
// no-variations case (StatusAbsent); a present but unparseable payload
// is StatusMalformed. Both yield an empty attribute set and no
// variations.
func ParseVariations(doc *goquery.Document, base *url.URL) (*models.AttributeSet, []models.Variation, Status) {
	attrs := models.NewAttributeSet()

	form := doc.Find(variationsFormSelector).First()
	if form.Length() == 0 {
		return attrs, nil, StatusAbsent
	}

	raw := firstAttr(form, variationDataAttrs)
	if strings.TrimSpace(raw) == "" {
		return attrs, nil, StatusAbsent
	}

	var payloads []variationPayload
	if err := json.Unmarshal([]byte(html.UnescapeString(raw)), &payloads); err != nil {
		return attrs, nil, StatusMalformed
	}

	variations := make([]models.Variation, 0, len(payloads))
	for _, p := range payloads {
		v := models.Variation{
			SKU:   p.SKU,
			Price: priceString(p.DisplayPrice, p.PriceHTML),
			Image: variationImage(p.Image, base),
		}

		pairs, err := decodeOrderedAttributes(p.Attributes)
		if err != nil {
			pairs = nil
		}
		for _, pair := range pairs {
			if pair.Value == "" {
				continue
			}
			v.Attributes = append(v.Attributes, pair)
			attrs.Add(pair.Key, pair.Value)
		}

		variations = append(variations, v)
	}

	return attrs, variations, StatusFound
}

// decodeOrderedAttributes walks the attributes object token by token
// so the JSON key order survives; a plain map would shuffle it.
func decodeOrderedAttributes(raw json.RawMessage) ([]models.AttributePair, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil
	}

	var pairs []models.AttributePair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if s, ok := value.(string); ok {
			pairs = append(pairs, models.AttributePair{Key: key, Value: s})
		}
	}

	return pairs, nil
}

// variationImage accepts either a nested object carrying src/url or a
// bare string, resolved against base. Anything else yields "".
func variationImage(raw json.RawMessage, base *url.URL) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return ""
		}
		return resolveURL(base, asString)
	}

	var asObject struct {
		Src string `json:"src"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		src := asObject.Src
		if src == "" {
			src = asObject.URL
		}
		if src != "" {
			return resolveURL(base, src)
		}
	}

	return ""
}

// priceString prefers the formatted display price, falling back to the
// price-html field. Numeric display prices are rendered without
// trailing zeros.
func priceString(displayPrice json.RawMessage, priceHTML string) string {
	if len(displayPrice) > 0 {
		var n float64
		if err := json.Unmarshal(displayPrice, &n); err == nil {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		var s string
		if err := json.Unmarshal(displayPrice, &s); err == nil && s != "" {
			return s
		}
	}
	return priceHTML
}
