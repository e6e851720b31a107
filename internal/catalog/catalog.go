// Package catalog is a generated product catalog with search, keyword
// recommendations and comparisons for the shopping assistant.
package catalog

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/smallnest/agentcases/tool"
)

// FirstID is the ID of the first generated product.
const FirstID = 1000

// ErrProductNotFound is returned for an unknown product ID.
var ErrProductNotFound = errors.New("product not found")

// Categories lists the catalog categories in generation order.
var Categories = []string{"Electronics", "Clothing", "Home & Kitchen", "Books", "Sports & Outdoors"}

var brands = map[string][]string{
	"Electronics":       {"TechGiant", "SoundMaster", "VisualPro", "SmartLife", "PowerTech"},
	"Clothing":          {"UrbanStyle", "ComfortFit", "LuxuryThreads", "ActiveWear", "ClassicApparel"},
	"Home & Kitchen":    {"HomeCraft", "KitchenWiz", "CozyLiving", "ModernHome", "ChefChoice"},
	"Books":             {"KnowledgePress", "StoryWeaver", "AcademicMinds", "FictionHouse", "WisdomBooks"},
	"Sports & Outdoors": {"AthleteChoice", "OutdoorAdventure", "FitnessPro", "SportElite", "NatureGear"},
}

// Product is one catalog entry.
type Product struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Brand       string            `json:"brand"`
	Price       float64           `json:"price"`
	Rating      float64           `json:"rating"`
	Reviews     int               `json:"reviews"`
	Stock       int               `json:"stock"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
}

// InStock reports whether the product can be bought.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// text is the lower-cased searchable text of the product.
func (p Product) text() string {
	parts := []string{p.Name, p.Category, p.Brand}
	for _, k := range sortedKeys(p.Attributes) {
		parts = append(parts, p.Attributes[k])
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	products []Product
	byID     map[int]int
}

// New indexes products.
func New(products []Product) *Catalog {
	c := &Catalog{products: slices.Clone(products), byID: make(map[int]int, len(products))}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// Products returns a copy of every product in ID order.
func (c *Catalog) Products() []Product {
	return slices.Clone(c.products)
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// Get returns the product with id.
func (c *Catalog) Get(id int) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	return c.products[i], nil
}

// Generate builds a catalog of 15 to 25 products per category. The same
// seed always yields the same catalog.
func Generate(seed uint64) *Catalog {
	r := tool.NewRand(seed)
	var products []Product
	id := FirstID

	for _, category := range Categories {
		n := r.Between(15, 25)
		for range n {
			brand := r.Pick(brands[category])
			name, attrs := generateItem(r, category, brand)
			p := Product{
				ID:         id,
				Name:       name,
				Category:   category,
				Brand:      brand,
				Price:      round(r.Float(9.99, 999.99), 2),
				Rating:     round(r.Float(3.0, 5.0), 1),
				Reviews:    r.Between(5, 1000),
				Stock:      max(0, r.Between(-10, 100)),
				Attributes: attrs,
			}
			p.Description = describe(p)
			products = append(products, p)
			id++
		}
	}
	return New(products)
}

func generateItem(r *tool.Rand, category, brand string) (string, map[string]string) {
	switch category {
	case "Electronics":
		return brand + " " + r.Pick([]string{"Smartphone", "Laptop", "Headphones", "Tablet", "Smartwatch", "Speaker", "Camera"}),
			map[string]string{
				"screen_size":  r.Pick([]string{"5.5", "6.1", "6.7", "13.3", "15.6", "27"}) + `"`,
				"storage":      r.Pick([]string{"64", "128", "256", "512", "1024"}) + " GB",
				"battery_life": fmt.Sprintf("%d hours", r.Between(4, 24)),
				"color":        r.Pick([]string{"Black", "Silver", "White", "Blue", "Red"}),
				"wireless":     r.Pick([]string{"wireless", "wired"}),
			}
	case "Clothing":
		return brand + " " + r.Pick([]string{"T-Shirt", "Jeans", "Dress", "Jacket", "Sweater", "Shoes", "Hat"}),
			map[string]string{
				"size":     r.Pick([]string{"XS", "S", "M", "L", "XL", "XXL"}),
				"color":    r.Pick([]string{"Black", "White", "Blue", "Red", "Green", "Yellow", "Purple"}),
				"material": r.Pick([]string{"Cotton", "Polyester", "Wool", "Leather", "Denim"}),
				"gender":   r.Pick([]string{"Men", "Women", "Unisex"}),
				"season":   r.Pick([]string{"Summer", "Winter", "Spring", "Fall", "All Season"}),
			}
	case "Home & Kitchen":
		return brand + " " + r.Pick([]string{"Blender", "Coffee Maker", "Toaster", "Cookware Set", "Knife Set", "Bedding Set", "Table Lamp"}),
			map[string]string{
				"color":           r.Pick([]string{"Black", "White", "Silver", "Red", "Blue"}),
				"material":        r.Pick([]string{"Plastic", "Metal", "Glass", "Ceramic", "Wood"}),
				"dishwasher_safe": r.Pick([]string{"yes", "no"}),
				"warranty":        r.Pick([]string{"1", "2", "5", "10"}) + " years",
				"weight":          fmt.Sprintf("%.1f lbs", r.Float(0.5, 15)),
			}
	case "Books":
		genre := r.Pick([]string{"Fiction", "Non-fiction", "Science Fiction", "Mystery", "Romance", "Biography", "Self-help", "History"})
		title := strings.Join(strings.Fields(strings.Join([]string{
			r.Pick([]string{"The", "A", ""}),
			r.Pick([]string{"Great", "Hidden", "Lost", "Secret", "Ultimate", "Complete", "Essential"}),
			r.Pick([]string{"Guide to", "Story of", "History of", "Journey through", "Exploration of", "Handbook of", ""}),
			genre,
		}, " ")), " ")
		return title, map[string]string{
			"author": r.Pick([]string{"John", "Jane", "David", "Sarah", "Michael", "Emily", "Robert", "Lisa"}) + " " +
				r.Pick([]string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller", "Davis"}),
			"pages":            fmt.Sprint(r.Between(100, 800)),
			"language":         "English",
			"format":           r.Pick([]string{"Hardcover", "Paperback", "E-book", "Audiobook"}),
			"publication_year": fmt.Sprint(r.Between(1990, 2023)),
			"genre":            genre,
		}
	default:
		return brand + " " + r.Pick([]string{"Tennis Racket", "Running Shoes", "Yoga Mat", "Camping Tent", "Bicycle", "Basketball", "Fishing Rod"}),
			map[string]string{
				"color":       r.Pick([]string{"Black", "White", "Blue", "Red", "Green", "Yellow", "Orange"}),
				"size":        r.Pick([]string{"XS", "S", "M", "L", "XL", "One Size"}),
				"weight":      fmt.Sprintf("%.1f lbs", r.Float(0.2, 20)),
				"material":    r.Pick([]string{"Nylon", "Polyester", "Rubber", "Metal", "Carbon Fiber"}),
				"skill_level": r.Pick([]string{"Beginner", "Intermediate", "Advanced", "Professional", "All Levels"}),
				"durability":  r.Pick([]string{"durable", "lightweight", "portable", "waterproof"}),
			}
	}
}

func describe(p Product) string {
	var features []string
	for _, k := range sortedKeys(p.Attributes) {
		features = append(features, strings.ReplaceAll(k, "_", " ")+" "+p.Attributes[k])
	}
	return fmt.Sprintf("%s from %s in %s. Features: %s.", p.Name, p.Brand, p.Category, strings.Join(features, ", "))
}

// Save writes the catalog as indented JSON, creating parent directories.
func (c *Catalog) Save(path string) error {
	data, err := sonic.ConfigStd.MarshalIndent(c.products, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a catalog written by Save.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := sonic.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return New(products), nil
}

// LoadOrGenerate loads path, or generates a catalog and saves it there when the file does not exist.
func LoadOrGenerate(path string, seed uint64) (*Catalog, error) {
	c, err := Load(path)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	c = Generate(seed)
	if err := c.Save(path); err != nil {
		return nil, fmt.Errorf("failed to save catalog: %w", err)
	}
	return c, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
