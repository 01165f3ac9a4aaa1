package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"savdesk/database"
)

func TestPriceIntervention(t *testing.T) {
	parts := []database.PieceRechange{
		{ID: 1, Price: decimal.RequireFromString("10.00")},
		{ID: 2, Price: decimal.RequireFromString("15.00")},
	}

	tests := []struct {
		name          string
		underWarranty bool
		parts         []database.PieceRechange
		partsPrice    string
		laborFee      string
		billed        string
	}{
		{"warranty ignores parts", true, parts, "0", "0", "0"},
		{"parts plus labor", false, parts, "25", "50", "75"},
		{"labor only", false, nil, "0", "50", "50"},
		{"cents are kept", false, []database.PieceRechange{{ID: 3, Price: decimal.RequireFromString("19.99")}}, "19.99", "50", "69.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceIntervention(tt.underWarranty, tt.parts)
			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(decimal.RequireFromString(want)) {
					t.Errorf("%s: expected %s, got %s", field, want, got)
				}
			}
			check("parts_price", got.PartsPrice, tt.partsPrice)
			check("labor_fee", got.LaborFee, tt.laborFee)
			check("billed_amount", got.BilledAmount, tt.billed)
			if !got.BilledAmount.Equal(got.PartsPrice.Add(got.LaborFee)) {
				t.Errorf("billed amount is not parts + labor: %+v", got)
			}
		})
	}
}
