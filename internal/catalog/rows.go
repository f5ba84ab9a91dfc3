package catalog

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/gonature/product-scraper/internal/models"
)

// attributeSlots is the number of attribute column groups the import
// schema reserves. Keys beyond the cap are dropped from the output and
// reported back to the caller.
const attributeSlots = 3

// Columns is the fixed import-file schema, in column order.
var Columns = []string{
	"ID", "Type", "SKU", "Name", "Published", "Visibility in catalog", "Short description", "Description",
	"Tax status", "In stock?", "Stock", "Backorders allowed?", "Sold individually?", "Allow customer reviews?",
	"Regular price", "Sale price", "Categories", "Tags", "Images",
	"Attribute 1 name", "Attribute 1 value(s)", "Attribute 1 visible", "Attribute 1 global", "Attribute 1 default",
	"Attribute 2 name", "Attribute 2 value(s)", "Attribute 2 visible", "Attribute 2 global", "Attribute 2 default",
	"Attribute 3 name", "Attribute 3 value(s)", "Attribute 3 visible", "Attribute 3 global", "Attribute 3 default",
	"Parent",
}

// Row maps column name to cell value; absent columns serialize as "".
type Row map[string]string

// BuildInput carries everything the row builder needs. It is a pure
// function of this input.
type BuildInput struct {
	Name             string
	SKU              string
	ShortDescription string
	LongDescription  string
	GalleryFilenames []string
	Categories       string
	Tags             string
	Attributes       *models.AttributeSet
	Variations       []models.Variation
}

// BuildRows assembles one parent row plus one row per variation. The
// parent is "variable" when variations exist, otherwise "simple". The
// second return value lists attribute keys that did not fit the
// reserved slots.
func BuildRows(in BuildInput) ([]Row, []string) {
	rows := make([]Row, 0, 1+len(in.Variations))

	hasVariations := len(in.Variations) > 0
	parentType := "simple"
	if hasVariations {
		parentType = "variable"
	}

	parent := Row{
		"Type":                    parentType,
		"SKU":                     in.SKU,
		"Name":                    in.Name,
		"Published":               "1",
		"Visibility in catalog":   "visible",
		"Short description":       in.ShortDescription,
		"Description":             in.LongDescription,
		"Tax status":              "taxable",
		"In stock?":               "1",
		"Backorders allowed?":     "0",
		"Sold individually?":      "0",
		"Allow customer reviews?": "1",
		"Categories":              in.Categories,
		"Tags":                    in.Tags,
		"Images":                  strings.Join(in.GalleryFilenames, ", "),
	}

	var dropped []string

	if hasVariations && in.Attributes != nil {
		keys := in.Attributes.Keys()
		for i, key := range keys {
			if i >= attributeSlots {
				dropped = append(dropped, key)
				continue
			}
			slot := slotColumns(i + 1)
			parent[slot.name] = cleanAttributeName(key)
			parent[slot.values] = strings.Join(sortedCopy(in.Attributes.Values(key)), "|")
			parent[slot.visible] = "1"
			parent[slot.global] = "0"
			parent[slot.def] = ""
		}
	}
	rows = append(rows, parent)

	for _, v := range in.Variations {
		row := Row{
			"Type":                    "variation",
			"Parent":                  in.SKU,
			"Published":               "1",
			"In stock?":               "1",
			"Visibility in catalog":   "visible",
			"Allow customer reviews?": "1",
			"SKU":                     v.SKU,
			"Regular price":           v.Price,
			"Images":                  baseFilename(v.Image),
		}

		for i, pair := range v.Attributes {
			if i >= attributeSlots {
				dropped = appendMissing(dropped, pair.Key)
				continue
			}
			slot := slotColumns(i + 1)
			row[slot.name] = cleanAttributeName(pair.Key)
			row[slot.values] = pair.Value
			row[slot.visible] = "1"
			row[slot.global] = "0"
		}

		rows = append(rows, row)
	}

	return rows, dropped
}

type slotCols struct {
	name, values, visible, global, def string
}

func slotColumns(n int) slotCols {
	prefix := "Attribute " + strconv.Itoa(n) + " "
	return slotCols{
		name:    prefix + "name",
		values:  prefix + "value(s)",
		visible: prefix + "visible",
		global:  prefix + "global",
		def:     prefix + "default",
	}
}

// cleanAttributeName turns an attribute key like "attribute_pa_color"
// into a display label like "Color".
func cleanAttributeName(key string) string {
	key = strings.TrimPrefix(key, "attribute_pa_")
	key = strings.TrimPrefix(key, "attribute_")
	key = strings.ReplaceAll(key, "_", " ")
	return titleCase(key)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

// baseFilename keeps only the base name; the image archive is flat.
func baseFilename(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

func appendMissing(list []string, key string) []string {
	for _, k := range list {
		if k == key {
			return list
		}
	}
	return append(list, key)
}
