package catalog

import (
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultName is used when every name field in the payload is empty.
const DefaultName = "Unknown Product"

var namePaths = []string{
	"product.product_name",
	"product.product_name_en",
	"product.generic_name",
	"product.brands",
}

var picturePaths = []string{
	"product.image_front_url",
	"product.image_url",
	"product.image_front_small_url",
}

// normalize maps the raw catalog payload onto a Candidate using ordered
// preference lists for each field.
func normalize(barcode string, body []byte) *Candidate {
	return &Candidate{
		Barcode:     barcode,
		Name:        firstNonEmpty(body, namePaths, DefaultName),
		Ingredients: normalizeIngredients(body),
		PictureURL:  firstNonEmpty(body, picturePaths, ""),
	}
}

func firstNonEmpty(body []byte, paths []string, def string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(gjson.GetBytes(body, path).String()); v != "" {
			return v
		}
	}
	return def
}

// normalizeIngredients prefers the structured ingredient array, then falls
// back to splitting the free-text field. Either way the result is an ordered
// sequence, possibly empty.
func normalizeIngredients(body []byte) []string {
	if arr := gjson.GetBytes(body, "product.ingredients"); arr.IsArray() {
		var out []string
		arr.ForEach(func(_, item gjson.Result) bool {
			if text := strings.TrimSpace(item.Get("text").String()); text != "" {
				out = append(out, text)
			}
			return true
		})
		if len(out) > 0 {
			return out
		}
	}
	if text := gjson.GetBytes(body, "product.ingredients_text").String(); text != "" {
		return SplitIngredientsText(text)
	}
	return []string{}
}

// SplitIngredientsText turns a comma/semicolon separated ingredient blob into
// a trimmed sequence.
func SplitIngredientsText(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
