package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/smallnest/agentcases/internal/prompt"
	"github.com/smallnest/agentcases/internal/structured"
	"github.com/smallnest/agentcases/tool"
)

// ExplainRecommendation asks the model why a product suits a customer.
var ExplainRecommendation = prompt.New("explain_recommendation", 0.7, `
You are a helpful e-commerce shopping assistant. Your task is to explain why the following product
would be a good match for the customer based on their preferences and needs.

Customer query: {{.customer_query}}

Product details:
{{.product_details}}

Write a personalized explanation of why this product is a good recommendation for the customer.
Keep your explanation conversational, helpful, and highlight the product features that match their needs.
Do not invent product features that aren't mentioned in the product details.

Explanation:`, "customer_query", "product_details")

// Recommendation is a scored product with a written explanation.
type Recommendation struct {
	Scored
	Explanation string `json:"explanation"`
}

// Assistant answers shopping requests from a catalog.
type Assistant struct {
	Catalog *Catalog
	Model   llms.Model
}

// Explain asks the model why product id fits query.
func (a *Assistant) Explain(ctx context.Context, id int, query string) (string, error) {
	p, err := a.Catalog.Get(id)
	if err != nil {
		return "", err
	}
	return ExplainRecommendation.Run(ctx, a.Model, map[string]any{
		"customer_query":  query,
		"product_details": structured.Indent(p),
	})
}

// Recommend returns Catalog.Recommend with an explanation for every product.
func (a *Assistant) Recommend(ctx context.Context, preferences string) ([]Recommendation, error) {
	var out []Recommendation
	for _, s := range a.Catalog.Recommend(preferences) {
		explanation, err := a.Explain(ctx, s.Product.ID, preferences)
		if err != nil {
			return nil, err
		}
		out = append(out, Recommendation{Scored: s, Explanation: explanation})
	}
	return out, nil
}

const noMatches = "No products found matching your criteria."

// SearchTool answers product_search.
func (a *Assistant) SearchTool(input string) string {
	hits := a.Catalog.Search(ParseQuery(input))
	if len(hits) == 0 {
		return noMatches
	}
	return structured.Indent(hits)
}

// RecommendTool answers product_recommend.
func (a *Assistant) RecommendTool(ctx context.Context, input string) (string, error) {
	recs, err := a.Recommend(ctx, input)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return noMatches, nil
	}
	return structured.Indent(recs), nil
}

// CompareTool answers product_compare; input is a comma separated ID list.
func (a *Assistant) CompareTool(input string) string {
	var ids []int
	for _, field := range strings.Split(input, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.Atoi(field)
		if err != nil {
			return "Product IDs must be numbers, separated by commas."
		}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return "Please provide at least 2 product IDs to compare"
	}

	cmp := a.Catalog.Compare(ids)
	switch len(cmp.Products) {
	case 0:
		return "No products found with the provided IDs."
	case 1:
		return "Please provide at least 2 product IDs to compare"
	}
	return structured.Indent(cmp)
}

// ExplainTool answers product_explain; input is "id|query".
func (a *Assistant) ExplainTool(ctx context.Context, input string) (string, error) {
	idText, query, ok := strings.Cut(input, "|")
	if !ok {
		return "Please provide both product ID and user query, separated by '|'", nil
	}
	id, err := strconv.Atoi(strings.TrimSpace(idText))
	if err != nil {
		return "Product ID must be a number.", nil
	}
	if _, err := a.Catalog.Get(id); err != nil {
		return fmt.Sprintf("No product found with ID %d.", id), nil
	}
	return a.Explain(ctx, id, strings.TrimSpace(query))
}

// Tools returns product_search, product_recommend, product_compare and product_explain.
func (a *Assistant) Tools() []tools.Tool {
	return []tools.Tool{
		tool.Pure("product_search",
			"Search for products in the catalog. You can include filters in the format [category:X], [brand:Y], "+
				"[min_price:N], [max_price:M], and [min_rating:R]. Example: 'wireless headphones [category:Electronics] [min_price:50] [max_price:200]'",
			a.SearchTool),
		tool.NewFunc("product_recommend",
			"Recommend products based on user preferences and needs. Input should be a detailed description of what the user "+
				"is looking for, including preferences for category, price range, features, etc.",
			a.RecommendTool),
		tool.Pure("product_compare",
			"Compare multiple products side by side. Input should be a comma-separated list of product IDs. Example: '1001,1005,1010'",
			a.CompareTool),
		tool.NewFunc("product_explain",
			"Generate a personalized explanation for why a specific product is recommended for the user. "+
				"Input format: 'product_id|user query'. Example: '1005|I need a durable laptop for gaming'",
			a.ExplainTool),
	}
}
