package services

import (
	"github.com/shopspring/decimal"

	"savdesk/database"
)

// LaborFee is the flat labor charge of an intervention outside warranty.
var LaborFee = decimal.NewFromInt(50)

// Pricing is the cost breakdown of an intervention.
type Pricing struct {
	PartsPrice   decimal.Decimal
	LaborFee     decimal.Decimal
	BilledAmount decimal.Decimal
}

// PriceIntervention bills nothing under warranty, otherwise the sum of the
// given parts plus the labor fee. Parts are expected to be distinct.
func PriceIntervention(underWarranty bool, parts []database.PieceRechange) Pricing {
	if underWarranty {
		return Pricing{
			PartsPrice:   decimal.Zero,
			LaborFee:     decimal.Zero,
			BilledAmount: decimal.Zero,
		}
	}

	partsPrice := decimal.Zero
	for _, p := range parts {
		partsPrice = partsPrice.Add(p.Price)
	}
	return Pricing{
		PartsPrice:   partsPrice,
		LaborFee:     LaborFee,
		BilledAmount: partsPrice.Add(LaborFee),
	}
}
