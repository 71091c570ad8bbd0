package pipeline

import (
	"github.com/aluiziolira/go-price-compare/models"
	"github.com/aluiziolira/go-price-compare/parser"
	"github.com/aluiziolira/go-price-compare/scraper"
)

// PlaceholderNotice accompanies degraded results.
const PlaceholderNotice = "No live offers were found; results are illustrative sample data."

// PlaceholderStockStatus marks every illustrative offer.
const PlaceholderStockStatus = "Illustrative"

var samplePrices = []float64{89.99, 79.95, 94.50}

// PlaceholderOffers returns one illustrative 100ml offer per source.
func PlaceholderOffers(strategies []*scraper.Strategy) []models.Offer {
	size := parser.Size{Magnitude: 100, Unit: parser.Milliliter}
	offers := make([]models.Offer, 0, len(strategies))
	for i, s := range strategies {
		price := samplePrices[i%len(samplePrices)]
		offer := models.Offer{
			Site:        s.Name(),
			Price:       models.Float(price),
			Size:        models.String(size.String()),
			URL:         s.Source.BaseURL,
			StockStatus: PlaceholderStockStatus,
		}
		if ppm, ok := parser.UnitPrice(parser.Money(price), size); ok {
			offer.PricePerML = models.Float(ppm)
		}
		offers = append(offers, offer)
	}
	return offers
}
