package ai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/tidwall/gjson"

	"go-gluten-scan/internal/catalog"
)

// ProductInfo is what the extractor derives from community images. Fields may
// be empty; the sourcing flow substitutes defaults rather than blocking on AI
// uncertainty.
type ProductInfo struct {
	Name        string
	Ingredients []string
}

// Extractor derives product name and ingredients from user-submitted photos
// of the packaging.
type Extractor interface {
	ExtractProductInfo(ctx context.Context, images [][]byte, barcode string) (*ProductInfo, error)
}

type extractor struct {
	*client
}

// NewExtractor builds an Extractor against the configured AI endpoint.
func NewExtractor(cfg Config) Extractor {
	return &extractor{newClient(cfg)}
}

const extractorSystemPrompt = `You read photos of a food product's packaging.
Extract the product name and the full ingredient list printed on the label.
Answer with a single JSON object: {"name": "<product name>", "ingredients": ["<ingredient>", ...]}.
Leave fields empty when they are not readable in any photo.`

func (e *extractor) ExtractProductInfo(ctx context.Context, images [][]byte, barcode string) (*ProductInfo, error) {
	content := []interface{}{
		map[string]interface{}{
			"type": "text",
			"text": fmt.Sprintf("These photos show the product with barcode %s.", barcode),
		},
	}
	for _, img := range images {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}

	answer, err := e.chat(ctx, []message{
		{Role: "system", Content: extractorSystemPrompt},
		{Role: "user", Content: content},
	})
	if err != nil {
		return nil, err
	}

	parsed := gjson.Parse(stripFences(answer))
	info := &ProductInfo{Name: parsed.Get("name").String()}
	if arr := parsed.Get("ingredients"); arr.IsArray() {
		for _, item := range arr.Array() {
			if s := item.String(); s != "" {
				info.Ingredients = append(info.Ingredients, s)
			}
		}
	} else if text := parsed.Get("ingredients").String(); text != "" {
		// Some models answer with a single comma separated string.
		info.Ingredients = catalog.SplitIngredientsText(text)
	}
	return info, nil
}
