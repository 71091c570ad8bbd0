package config

import (
	"fmt"
	"net/url"
	"strings"
)

// QueryPlaceholder marks where the encoded query goes in a search URL.
const QueryPlaceholder = "{query}"

// SourceConfig describes one e-commerce site.
type SourceConfig struct {
	Name      string    `mapstructure:"name"`
	BaseURL   string    `mapstructure:"base_url"`
	SearchURL string    `mapstructure:"search_url"`
	Selectors Selectors `mapstructure:"selectors"`
}

// Selectors are the CSS selectors used by the primary locator.
// Title, price, size, image and link are evaluated inside a product block.
type Selectors struct {
	Products string `mapstructure:"products"`
	Title    string `mapstructure:"title"`
	Price    string `mapstructure:"price"`
	Size     string `mapstructure:"size"`
	Image    string `mapstructure:"image"`
	Link     string `mapstructure:"link"`
}

// DefaultSources returns the built-in site list.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:      "FragranceNet",
			BaseURL:   "https://www.fragrancenet.com",
			SearchURL: "https://www.fragrancenet.com/search?searchTerm={query}",
			Selectors: Selectors{
				Products: ".product-item",
				Title:    ".product-name",
				Price:    ".price",
				Image:    ".product-image img",
				Link:     "a",
			},
		},
		{
			Name:      "FragranceX",
			BaseURL:   "https://www.fragrancex.com",
			SearchURL: "https://www.fragrancex.com/search?q={query}",
			Selectors: Selectors{
				Products: ".product",
				Title:    ".product-title",
				Price:    ".price-current",
				Image:    ".product-image img",
				Link:     "a",
			},
		},
		{
			Name:      "FragranceShop",
			BaseURL:   "https://www.fragranceshop.com",
			SearchURL: "https://www.fragranceshop.com/search?q={query}",
			Selectors: Selectors{
				Products: ".product-item",
				Title:    ".product-name",
				Price:    ".price",
				Image:    ".product-image img",
				Link:     "a",
			},
		},
	}
}

// Validate checks that the source can be queried.
func (s *SourceConfig) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("%s: invalid base URL: %w", s.Name, err)
	}
	if base.Host == "" {
		return fmt.Errorf("%s: base URL must include a host", s.Name)
	}
	if strings.Count(s.SearchURL, QueryPlaceholder) != 1 {
		return fmt.Errorf("%s: search URL must contain %s exactly once", s.Name, QueryPlaceholder)
	}
	search, err := url.Parse(strings.Replace(s.SearchURL, QueryPlaceholder, "q", 1))
	if err != nil {
		return fmt.Errorf("%s: invalid search URL: %w", s.Name, err)
	}
	if search.Host == "" {
		return fmt.Errorf("%s: search URL must include a host", s.Name)
	}
	if strings.TrimSpace(s.Selectors.Products) == "" {
		return fmt.Errorf("%s: products selector cannot be empty", s.Name)
	}
	return nil
}

func (s SourceConfig) asMap() map[string]interface{} {
	return map[string]interface{}{
		"name":       s.Name,
		"base_url":   s.BaseURL,
		"search_url": s.SearchURL,
		"selectors": map[string]interface{}{
			"products": s.Selectors.Products,
			"title":    s.Selectors.Title,
			"price":    s.Selectors.Price,
			"size":     s.Selectors.Size,
			"image":    s.Selectors.Image,
			"link":     s.Selectors.Link,
		},
	}
}
