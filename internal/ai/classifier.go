package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"go-gluten-scan/internal/model"
)

// Verdict is the classifier's judgement on a product.
type Verdict struct {
	Label       model.StatusLabel
	Explanation string
}

// Classifier judges the gluten status of a product from its name and
// ingredients.
type Classifier interface {
	CheckStatus(ctx context.Context, name string, ingredients []string, current model.StatusLabel) (*Verdict, error)
}

type classifier struct {
	*client
}

// NewClassifier builds a Classifier against the configured AI endpoint.
func NewClassifier(cfg Config) Classifier {
	return &classifier{newClient(cfg)}
}

const classifierSystemPrompt = `You are a food safety assistant for people with celiac disease.
Given a product name and its ingredient list, decide whether the product contains gluten.
Answer with a single JSON object: {"label": "GLUTEN_FREE" | "CONTAINS_GLUTEN" | "UNKNOWN", "explanation": "<one short sentence>"}.
Use UNKNOWN when the ingredients are missing or inconclusive.`

func (c *classifier) CheckStatus(ctx context.Context, name string, ingredients []string, current model.StatusLabel) (*Verdict, error) {
	user := fmt.Sprintf("Product: %s\nIngredients: %s\nCurrent classification: %s",
		name, strings.Join(ingredients, ", "), current)

	content, err := c.chat(ctx, []message{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: user},
	})
	if err != nil {
		return nil, err
	}

	parsed := gjson.Parse(stripFences(content))
	label := parsed.Get("label").String()
	if label == "" {
		return nil, fmt.Errorf("classifier returned malformed response: %s", truncate([]byte(content), 200))
	}
	return &Verdict{
		Label:       model.ParseStatusLabel(label),
		Explanation: parsed.Get("explanation").String(),
	}, nil
}
