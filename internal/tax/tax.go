// Package tax apportions check turnover to tax groups and derives VAT.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// GroupTurnover is the net turnover of one tax group within one check.
// Turnover is an absolute amount; the check kind carries the sign. Net keeps
// the signed item net for records whose items carry their own direction.
type GroupTurnover struct {
	Code     string
	Label    string
	Turnover decimal.Decimal
	Net      decimal.Decimal
	Percent  decimal.Decimal
}

// NetByCode sums item amounts and subtracts discounts per tax code, in cents.
//
// Items without a code are left out. A discount on a code with no item still
// opens the bucket (whole-group discount).
func NetByCode(rec models.TransactionRecord) map[string]int64 {
	net := map[string]int64{}
	for _, it := range rec.LineItems {
		if it.TaxGroupCode == "" {
			continue
		}
		net[it.TaxGroupCode] += it.RawMinor
	}
	for _, d := range rec.Discounts {
		if d.TaxGroupCode == "" {
			continue
		}
		net[d.TaxGroupCode] -= d.Minor
	}
	return net
}

// Apportion returns the per-group turnover of a check in canonical group order.
// Codes outside the fixed table are dropped.
func Apportion(rec models.TransactionRecord) []GroupTurnover {
	net := NetByCode(rec)
	out := make([]GroupTurnover, 0, len(net))
	for _, g := range models.TaxGroups {
		cents, ok := net[g.Code]
		if !ok {
			continue
		}
		signed := cents
		if cents < 0 {
			cents = -cents
		}
		out = append(out, GroupTurnover{
			Code:     g.Code,
			Label:    g.Label,
			Turnover: models.MinorToUnits(cents),
			Net:      models.MinorToUnits(signed),
			Percent:  rec.GroupPercents[g.Code],
		})
	}
	return out
}

// VAT extracts the tax contained in a VAT-inclusive turnover:
// turnover * percent / (100 + percent), rounded to cents. Non-positive
// percents yield zero.
func VAT(turnover, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() {
		return decimal.Zero
	}
	return turnover.Mul(percent).Div(hundred.Add(percent)).Round(2)
}
