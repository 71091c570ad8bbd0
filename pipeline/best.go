package pipeline

import "github.com/aluiziolira/go-price-compare/models"

// SelectBest returns the offer with the lowest price per milliliter. When
// no offer has one it falls back to the lowest price. Ties go to the
// earliest offer. The returned pointer refers into offers.
func SelectBest(offers []models.Offer) *models.Offer {
	best := lowest(offers, func(o *models.Offer) *float64 { return o.PricePerML })
	if best < 0 {
		best = lowest(offers, func(o *models.Offer) *float64 { return o.Price })
	}
	if best < 0 {
		return nil
	}
	return &offers[best]
}

func lowest(offers []models.Offer, key func(*models.Offer) *float64) int {
	best := -1
	var bestValue float64
	for i := range offers {
		v := key(&offers[i])
		if v == nil {
			continue
		}
		if best < 0 || *v < bestValue {
			best = i
			bestValue = *v
		}
	}
	return best
}
