package scraper

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-price-compare/config"
	"github.com/aluiziolira/go-price-compare/models"
	"github.com/aluiziolira/go-price-compare/parser"
)

// Mode identifies which locator produced a set of offers.
type Mode int

const (
	ModePrimary Mode = iota
	ModeFallback
)

func (m Mode) String() string {
	switch m {
	case ModePrimary:
		return "primary"
	case ModeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Strategy extracts offers from one source's search page. The primary
// locator uses the site selectors; the fallback runs only when the
// primary finds no product blocks.
type Strategy struct {
	Source   config.SourceConfig
	Primary  Locator
	Fallback Locator

	limits config.ExtractConfig
	base   *url.URL
	logger *slog.Logger
}

// NewStrategy builds the primary/fallback pair for src.
func NewStrategy(src config.SourceConfig, limits config.ExtractConfig, logger *slog.Logger) (*Strategy, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategy{
		Source:   src,
		Primary:  NewSelectorLocator(src.Selectors, limits.PrimaryMax),
		Fallback: NewGenericLocator(limits.FallbackHints, limits.AncestorDepth),
		limits:   limits,
		base:     base,
		logger:   logger.With(slog.String("source", src.Name)),
	}, nil
}

// Name returns the source name.
func (s *Strategy) Name() string {
	return s.Source.Name
}

// SearchURL substitutes the URL-encoded query into the search template.
func (s *Strategy) SearchURL(query string) string {
	return strings.Replace(s.Source.SearchURL, config.QueryPlaceholder, url.QueryEscape(query), 1)
}

// Parse reads an HTML document.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Extract returns the offers found in doc, in document order, and the
// mode that produced them.
func (s *Strategy) Extract(doc *goquery.Document) ([]models.Offer, Mode) {
	if candidates := s.Primary.Locate(doc); len(candidates) > 0 {
		return s.collect(candidates, ModePrimary), ModePrimary
	}
	return s.collect(s.Fallback.Locate(doc), ModeFallback), ModeFallback
}

func (s *Strategy) collect(candidates []Candidate, mode Mode) []models.Offer {
	offers := make([]models.Offer, 0, len(candidates))

	for i := range candidates {
		if mode == ModeFallback && len(offers) >= s.limits.FallbackMax {
			break
		}
		offer, ok := s.safeOffer(&candidates[i], mode)
		if !ok {
			continue
		}
		offers = append(offers, offer)
	}
	return offers
}

func (s *Strategy) safeOffer(c *Candidate, mode Mode) (offer models.Offer, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("error processing product", slog.Any("panic", r))
			ok = false
		}
	}()
	return s.buildOffer(c, mode)
}

func (s *Strategy) buildOffer(c *Candidate, mode Mode) (models.Offer, bool) {
	priceText, _ := c.Field(RolePrice)
	price, hasPrice := parser.ExtractPrice(priceText)
	_, hasTitle := c.Field(RoleTitle)

	switch mode {
	case ModeFallback:
		if !hasPrice || float64(price) <= s.limits.FallbackMinPrice {
			return models.Offer{}, false
		}
	default:
		if !hasPrice && !hasTitle {
			return models.Offer{}, false
		}
	}

	offer := models.Offer{
		Site:        s.Source.Name,
		URL:         s.resolve(c.Link),
		StockStatus: s.limits.StockStatus,
		ImageURL:    models.String(s.resolve(c.Image)),
	}
	if hasPrice {
		offer.Price = models.Float(float64(price))
	}
	if size, ok := s.findSize(c); ok {
		offer.Size = models.String(size.String())
		if ppm, ok := parser.UnitPrice(price, size); ok {
			offer.PricePerML = models.Float(ppm)
		}
	}
	return offer, true
}

// findSize widens the search from the size field to the title and then
// to each scope in turn.
func (s *Strategy) findSize(c *Candidate) (parser.Size, bool) {
	texts := make([]string, 0, len(c.Scopes)+2)
	if text, ok := c.Field(RoleSize); ok {
		texts = append(texts, text)
	}
	if text, ok := c.Field(RoleTitle); ok {
		texts = append(texts, text)
	}
	texts = append(texts, c.Scopes...)

	for _, text := range texts {
		if size, ok := parser.ExtractSize(text); ok {
			return size, true
		}
	}
	return parser.Size{}, false
}

func (s *Strategy) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(u).String()
}
