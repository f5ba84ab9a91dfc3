package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTextTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "Product-classed heading beats plain h1",
			html: `<h1>Site Name</h1><h2 class="product_title entry-title">Trail Pack 30L</h2>`,
			want: "Trail Pack 30L",
		},
		{
			name: "Product class on h2 only",
			html: `<h2 class="product_title">Trail Pack 30L</h2><h1>Welcome</h1>`,
			want: "Trail Pack 30L",
		},
		{
			name: "First h1 fallback",
			html: `<h1>Camp Stove</h1><h1>Other</h1>`,
			want: "Camp Stove",
		},
		{
			name: "OpenGraph title fallback",
			html: `<meta property="og:title" content="Dry Bag 20L"><div>no headings</div>`,
			want: "Dry Bag 20L",
		},
		{
			name: "Placeholder when nothing matches",
			html: `<div>bare page</div>`,
			want: UnnamedProduct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractText(docFromHTML(t, tt.html), nil)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}

func TestExtractTextProductHeadingBeatsFirstH1(t *testing.T) {
	html := `<h1>Welcome to the shop</h1><h1 class="product-title">Trail Pack 30L</h1>`
	got := ExtractText(docFromHTML(t, html), nil)
	assert.Equal(t, "Trail Pack 30L", got.Title)
}

func TestExtractTextDescriptions(t *testing.T) {
	html := `
	<h1 class="product_title">Trail Pack 30L</h1>
	<div class="woocommerce-product-details__short-description">
		<p>Light.   Tough.</p>
	</div>
	<div id="tab-description"><p>A 30 liter pack for day hikes.</p></div>`

	got := ExtractText(docFromHTML(t, html), nil)
	assert.Equal(t, "Light. Tough.", got.ShortDescription)
	assert.Equal(t, "A 30 liter pack for day hikes.", got.LongDescription)
}

func TestExtractTextLongDescriptionFromStructuredData(t *testing.T) {
	html := `<h1>Trail Pack 30L</h1>`
	product := map[string]any{"description": "From the product schema."}

	got := ExtractText(docFromHTML(t, html), product)
	assert.Equal(t, "From the product schema.", got.LongDescription)
	// Short description falls back to the (short) long description.
	assert.Equal(t, "From the product schema.", got.ShortDescription)
}

func TestExtractTextShortDerivedFromLongIsTruncated(t *testing.T) {
	long := strings.Repeat("word ", 100) // 500 chars once collapsed
	html := `<h1>Pack</h1><div id="description">` + long + `</div>`

	got := ExtractText(docFromHTML(t, html), nil)
	assert.Len(t, []rune(got.ShortDescription), 300)
	assert.True(t, strings.HasPrefix(got.LongDescription, got.ShortDescription))
}

func TestExtractSKU(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "SKU span",
			html: `<span class="sku">TP-30L-BLK</span>`,
			want: "TP-30L-BLK",
		},
		{
			name: "Itemprop",
			html: `<span itemprop="sku"> 12345 </span>`,
			want: "12345",
		},
		{
			name: "Missing",
			html: `<div>no sku here</div>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSKU(docFromHTML(t, tt.html)))
		})
	}
}
