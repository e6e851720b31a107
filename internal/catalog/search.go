package catalog

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// MaxSearchResults caps the result of Search.
const MaxSearchResults = 5

// Filter narrows a search. Zero values do not filter.
type Filter struct {
	Category  string
	Brand     string
	MinPrice  float64
	MaxPrice  float64
	MinRating float64
	// Text must occur in the name, description, category, brand or an attribute
	Text string
}

var (
	bracketFilter = regexp.MustCompile(`\[(category|brand|min_price|max_price|min_rating):([^\]]+)\]`)
	bareFilter    = regexp.MustCompile(`\b(category|brand|min_price|max_price|min_rating):(\S+)`)
)

// ParseQuery extracts filter tokens such as "[category:Electronics]" or
// "max_price:200" from query. The remaining words become Filter.Text.
func ParseQuery(query string) Filter {
	var f Filter
	apply := func(key, value string) {
		value = strings.TrimSpace(value)
		switch key {
		case "category":
			f.Category = value
		case "brand":
			f.Brand = value
		case "min_price":
			f.MinPrice, _ = strconv.ParseFloat(value, 64)
		case "max_price":
			f.MaxPrice, _ = strconv.ParseFloat(value, 64)
		case "min_rating":
			f.MinRating, _ = strconv.ParseFloat(value, 64)
		}
	}

	for _, re := range []*regexp.Regexp{bracketFilter, bareFilter} {
		for _, m := range re.FindAllStringSubmatch(query, -1) {
			apply(m[1], m[2])
		}
		query = re.ReplaceAllString(query, " ")
	}
	f.Text = strings.Join(strings.Fields(query), " ")
	return f
}

func (f Filter) match(p Product) bool {
	switch {
	case f.Category != "" && !containsFold(p.Category, f.Category):
		return false
	case f.Brand != "" && !containsFold(p.Brand, f.Brand):
		return false
	case f.MinPrice > 0 && p.Price < f.MinPrice:
		return false
	case f.MaxPrice > 0 && p.Price > f.MaxPrice:
		return false
	case f.MinRating > 0 && p.Rating < f.MinRating:
		return false
	}
	if f.Text == "" {
		return true
	}
	text := strings.ToLower(f.Text)
	return strings.Contains(p.text(), text) || strings.Contains(strings.ToLower(p.Description), text)
}

// Search returns up to MaxSearchResults matching products, best rated first.
func (c *Catalog) Search(f Filter) []Product {
	var hits []Product
	for _, p := range c.products {
		if f.match(p) {
			hits = append(hits, p)
		}
	}
	slices.SortStableFunc(hits, func(a, b Product) int {
		return cmp.Compare(b.Rating, a.Rating)
	})
	if len(hits) > MaxSearchResults {
		hits = hits[:MaxSearchResults]
	}
	return hits
}

var (
	categoryKeywords  = []string{"electronics", "clothing", "home", "kitchen", "books", "sports", "outdoors"}
	attributeKeywords = []string{"wireless", "bluetooth", "waterproof", "lightweight", "portable", "durable",
		"professional", "beginner", "advanced", "premium", "budget"}
	budgetWords  = []string{"cheap", "affordable", "budget"}
	premiumWords = []string{"premium", "high-end", "luxury"}
)

// MinRecommendScore is the score a product must exceed to be recommended.
const MinRecommendScore = 5

// MaxRecommendations caps the result of Recommend.
const MaxRecommendations = 3

// Scored is a product with its recommendation score.
type Scored struct {
	Product Product `json:"product"`
	Score   int     `json:"match_score"`
}

// Score rates how well an in-stock product fits the preferences.
func Score(p Product, preferences string) int {
	prefs := strings.ToLower(preferences)
	text := p.text()
	score := 0

	for _, kw := range categoryKeywords {
		if strings.Contains(prefs, kw) && strings.Contains(text, kw) {
			score += 5
		}
	}
	for _, kw := range attributeKeywords {
		if strings.Contains(prefs, kw) && strings.Contains(text, kw) {
			score += 3
		}
	}

	switch {
	case containsAny(prefs, budgetWords):
		if p.Price < 50 {
			score += 4
		} else if p.Price < 100 {
			score += 2
		}
	case containsAny(prefs, premiumWords):
		if p.Price > 200 {
			score += 4
		} else if p.Price > 100 {
			score += 2
		}
	}

	if p.Rating >= 4.5 {
		score += 3
	} else if p.Rating >= 4.0 {
		score += 1
	}
	return score
}

// Recommend scores every in-stock product against the preferences and
// returns the best MaxRecommendations scoring above MinRecommendScore.
func (c *Catalog) Recommend(preferences string) []Scored {
	var scored []Scored
	for _, p := range c.products {
		if !p.InStock() {
			continue
		}
		if s := Score(p, preferences); s > MinRecommendScore {
			scored = append(scored, Scored{Product: p, Score: s})
		}
	}
	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(scored) > MaxRecommendations {
		scored = scored[:MaxRecommendations]
	}
	return scored
}

// Comparison lists products side by side with the points they can be compared on.
type Comparison struct {
	Products         []Product `json:"products"`
	ComparisonPoints []string  `json:"comparison_points"`
}

// Compare looks up ids and collects the attributes all of them share.
// Unknown IDs are skipped.
func (c *Catalog) Compare(ids []int) Comparison {
	out := Comparison{ComparisonPoints: []string{"name", "price", "rating", "reviews", "stock"}}
	for _, id := range ids {
		if p, err := c.Get(id); err == nil {
			out.Products = append(out.Products, p)
		}
	}
	if len(out.Products) == 0 {
		return out
	}
	for _, key := range sortedKeys(out.Products[0].Attributes) {
		shared := true
		for _, p := range out.Products[1:] {
			if _, ok := p.Attributes[key]; !ok {
				shared = false
				break
			}
		}
		if shared {
			out.ComparisonPoints = append(out.ComparisonPoints, "attributes."+key)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func containsAny(s string, words []string) bool {
	return slices.ContainsFunc(words, func(w string) bool { return strings.Contains(s, w) })
}
