package pipeline

import (
	"testing"

	"github.com/aluiziolira/go-price-compare/models"
)

func TestSelectBest(t *testing.T) {
	tests := []struct {
		name   string
		offers []models.Offer
		want   int
	}{
		{
			name:   "empty",
			offers: nil,
			want:   -1,
		},
		{
			name: "lowest price per ml",
			offers: []models.Offer{
				{Site: "A", Price: models.Float(89.99), PricePerML: models.Float(0.90)},
				{Site: "B", Price: models.Float(79.95), PricePerML: models.Float(0.80)},
			},
			want: 1,
		},
		{
			name: "unit price beats lower sticker price",
			offers: []models.Offer{
				{Site: "A", Price: models.Float(40), PricePerML: models.Float(1.33)},
				{Site: "B", Price: models.Float(79.95), PricePerML: models.Float(0.80)},
			},
			want: 1,
		},
		{
			name: "offers without unit price are skipped",
			offers: []models.Offer{
				{Site: "A", Price: models.Float(5)},
				{Site: "B", Price: models.Float(79.95), PricePerML: models.Float(0.80)},
			},
			want: 1,
		},
		{
			name: "falls back to lowest price",
			offers: []models.Offer{
				{Site: "A", Price: models.Float(50)},
				{Site: "B"},
				{Site: "C", Price: models.Float(45)},
			},
			want: 2,
		},
		{
			name: "ties keep first",
			offers: []models.Offer{
				{Site: "A", PricePerML: models.Float(0.80)},
				{Site: "B", PricePerML: models.Float(0.80)},
			},
			want: 0,
		},
		{
			name: "nothing comparable",
			offers: []models.Offer{
				{Site: "A"},
				{Site: "B"},
			},
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectBest(tt.offers)
			if tt.want < 0 {
				if got != nil {
					t.Fatalf("SelectBest = %+v, want nil", got)
				}
				return
			}
			if got != &tt.offers[tt.want] {
				t.Fatalf("SelectBest = %+v, want offer %d (%s)", got, tt.want, tt.offers[tt.want].Site)
			}
		})
	}
}

func TestPlaceholderOffersComputeUnitPrice(t *testing.T) {
	offers := PlaceholderOffers(testStrategies(t))
	if len(offers) != len(testSourceNames) {
		t.Fatalf("offers=%d, want %d", len(offers), len(testSourceNames))
	}
	for _, o := range offers {
		if o.Price == nil || o.PricePerML == nil || o.Size == nil {
			t.Fatalf("placeholder offer incomplete: %+v", o)
		}
		if *o.Size != "100ml" {
			t.Fatalf("size = %q, want 100ml", *o.Size)
		}
	}
	if *offers[0].PricePerML != 0.9 {
		t.Fatalf("ppm = %v, want 0.9", *offers[0].PricePerML)
	}
}
