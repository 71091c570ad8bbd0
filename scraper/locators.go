package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-price-compare/config"
	"github.com/aluiziolira/go-price-compare/parser"
)

// Role tags what a raw field is expected to contain.
type Role int

const (
	RoleTitle Role = iota
	RolePrice
	RoleSize
)

// RawField is an untyped text fragment located in a document.
type RawField struct {
	Role Role
	Text string
}

// Candidate is one product block located in a document.
// Scopes lists progressively wider texts searched for a size when no
// size or title field yields one.
type Candidate struct {
	Fields []RawField
	Scopes []string
	Link   string
	Image  string
}

// Field returns the first non-empty field with the given role.
func (c *Candidate) Field(role Role) (string, bool) {
	for _, f := range c.Fields {
		if f.Role == role && f.Text != "" {
			return f.Text, true
		}
	}
	return "", false
}

func (c *Candidate) add(role Role, text string) {
	if text == "" {
		return
	}
	c.Fields = append(c.Fields, RawField{Role: role, Text: text})
}

// Locator finds candidate product blocks in a document.
type Locator interface {
	Mode() Mode
	Locate(doc *goquery.Document) []Candidate
}

type selectorLocator struct {
	sel config.Selectors
	max int
}

// NewSelectorLocator returns the primary locator driven by site selectors.
func NewSelectorLocator(sel config.Selectors, max int) Locator {
	return &selectorLocator{sel: sel, max: max}
}

func (l *selectorLocator) Mode() Mode { return ModePrimary }

func (l *selectorLocator) Locate(doc *goquery.Document) []Candidate {
	blocks := doc.Find(l.sel.Products)
	if l.max > 0 && blocks.Length() > l.max {
		blocks = blocks.Slice(0, l.max)
	}

	out := make([]Candidate, 0, blocks.Length())
	blocks.Each(func(_ int, block *goquery.Selection) {
		var c Candidate
		c.add(RoleSize, childText(block, l.sel.Size))
		c.add(RoleTitle, childText(block, l.sel.Title))
		c.add(RolePrice, childText(block, l.sel.Price))
		c.Scopes = []string{parser.NormalizeText(block.Text())}
		c.Link = linkOf(block, l.sel.Link)
		c.Image = imageOf(block, l.sel.Image)
		out = append(out, c)
	})
	return out
}

type genericLocator struct {
	hints []string
	depth int
}

// NewGenericLocator returns the structure-agnostic fallback locator. It
// treats elements whose class or itemprop mentions one of hints as price
// fields and their parent element as the product block.
func NewGenericLocator(hints []string, ancestorDepth int) Locator {
	lowered := make([]string, 0, len(hints))
	for _, h := range hints {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			lowered = append(lowered, h)
		}
	}
	return &genericLocator{hints: lowered, depth: ancestorDepth}
}

func (l *genericLocator) Mode() Mode { return ModeFallback }

func (l *genericLocator) Locate(doc *goquery.Document) []Candidate {
	var out []Candidate
	doc.Find("body *").Each(func(_ int, el *goquery.Selection) {
		if !l.hinted(el) {
			return
		}
		// Only the innermost hinted element is used.
		if el.Find("*").FilterFunction(func(_ int, d *goquery.Selection) bool {
			return l.hinted(d)
		}).Length() > 0 {
			return
		}
		price := parser.NormalizeText(el.Text())
		if price == "" {
			return
		}

		block := el.Parent()
		var c Candidate
		c.add(RolePrice, price)
		c.Scopes = append(c.Scopes, parser.NormalizeText(block.Text()))

		containers := []*goquery.Selection{el, block}
		ancestor := block
		for i := 0; i < l.depth; i++ {
			ancestor = ancestor.Parent()
			if name := goquery.NodeName(ancestor); ancestor.Length() == 0 || name == "body" || name == "html" {
				break
			}
			c.Scopes = append(c.Scopes, parser.NormalizeText(ancestor.Text()))
			containers = append(containers, ancestor)
		}

		if a := el.Closest("a[href]"); a.Length() > 0 {
			c.Link, _ = a.Attr("href")
		}
		for _, container := range containers {
			if c.Link == "" {
				c.Link = linkOf(container, "a[href]")
			}
			if c.Image == "" {
				c.Image = imageOf(container, "img")
			}
		}
		out = append(out, c)
	})
	return out
}

func (l *genericLocator) hinted(s *goquery.Selection) bool {
	for _, attr := range []string{"class", "itemprop"} {
		value, ok := s.Attr(attr)
		if !ok || value == "" {
			continue
		}
		value = strings.ToLower(value)
		for _, hint := range l.hints {
			if strings.Contains(value, hint) {
				return true
			}
		}
	}
	return false
}

func childText(block *goquery.Selection, selector string) string {
	if strings.TrimSpace(selector) == "" {
		return ""
	}
	return parser.NormalizeText(block.Find(selector).First().Text())
}

func linkOf(block *goquery.Selection, selector string) string {
	if goquery.NodeName(block) == "a" {
		if href, ok := block.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href)
		}
	}
	if strings.TrimSpace(selector) == "" {
		selector = "a"
	}
	var href string
	block.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if value, ok := s.Attr("href"); ok && strings.TrimSpace(value) != "" {
			href = strings.TrimSpace(value)
			return false
		}
		return true
	})
	return href
}

func imageOf(block *goquery.Selection, selector string) string {
	if strings.TrimSpace(selector) == "" {
		return ""
	}
	img := block.Find(selector).First()
	if img.Length() == 0 {
		return ""
	}
	src := strings.TrimSpace(img.AttrOr("src", ""))
	lazy := strings.TrimSpace(img.AttrOr("data-src", ""))
	if lazy != "" && (src == "" || strings.HasPrefix(src, "data:")) {
		return lazy
	}
	return src
}
