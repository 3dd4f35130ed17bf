package parser

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
)

// Register exports exist in several revisions that differ only in which
// attributes they carry. The revision is not declared anywhere, so it is
// probed per check element: a transaction-type flag `T` decides how the
// operation kind is derived, a header `TXPR` decides where percent rates come
// from. Each decision is a small strategy; a Variant pairs one of each.

const (
	attrTypeFlag   = "T"
	attrTaxCode    = "TX"
	attrTaxPercent = "TXPR"

	returnFlag = "1"
)

// kindRule derives the operation kind of a check and of each of its items.
type kindRule interface {
	name() string
	// amount is the signed check amount in cents given the header SM and the
	// sum of item SMs.
	amount(headerMinor, itemsMinor int64) int64
	checkKind(check, header Element, minor int64) models.Kind
	itemKind(check models.Kind, itemMinor int64) models.Kind
}

// percentRule yields the percent rate per tax group code for one check.
type percentRule interface {
	name() string
	percents(header Element) (map[string]decimal.Decimal, error)
}

// flagKind reads T="1" as a return; every item inherits the check kind.
type flagKind struct{}

func (flagKind) name() string { return "flag" }

func (flagKind) amount(headerMinor, _ int64) int64 { return headerMinor }

func (flagKind) checkKind(check, header Element, _ int64) models.Kind {
	v, ok := check.Attr(attrTypeFlag)
	if !ok {
		v, _ = header.Attr(attrTypeFlag)
	}
	if v == returnFlag {
		return models.KindReturn
	}
	return models.KindSale
}

func (flagKind) itemKind(check models.Kind, _ int64) models.Kind { return check }

// signKind serves exports without a type flag: the check kind follows the
// header amount sign and each item row follows its own amount sign.
type signKind struct{}

func (signKind) name() string { return "sign" }

// amount falls back to the item sum when the header carries no SM, so a
// header-less return still reads as negative.
func (signKind) amount(headerMinor, itemsMinor int64) int64 {
	if headerMinor == 0 {
		return itemsMinor
	}
	return headerMinor
}

func (signKind) checkKind(_, _ Element, minor int64) models.Kind {
	return models.KindFromSign(minor)
}

func (signKind) itemKind(_ models.Kind, itemMinor int64) models.Kind {
	return models.KindFromSign(itemMinor)
}

// declaredPercent applies the header TXPR rate to the header TX group only.
type declaredPercent struct{}

func (declaredPercent) name() string { return "declared" }

func (declaredPercent) percents(header Element) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	raw, _ := header.Attr(attrTaxPercent)
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", attrTaxPercent, raw, err)
	}
	if code, ok := header.Attr(attrTaxCode); ok && code != "" {
		out[code] = rate
	}
	return out, nil
}

// nominalPercent uses a fixed code -> rate table.
type nominalPercent struct {
	rates map[string]decimal.Decimal
}

func (nominalPercent) name() string { return "nominal" }

func (n nominalPercent) percents(Element) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(n.rates))
	for code, r := range n.rates {
		out[code] = r
	}
	return out, nil
}

// Variant is the capability set of one check element.
type Variant struct {
	kind    kindRule
	percent percentRule
}

// String names the variant, e.g. "flag+declared".
func (v Variant) String() string { return v.kind.name() + "+" + v.percent.name() }

// HasTypeFlag reports whether kinds come from the explicit type flag.
func (v Variant) HasTypeFlag() bool {
	_, ok := v.kind.(flagKind)
	return ok
}

// HasDeclaredPercent reports whether percents come from the header TXPR.
func (v Variant) HasDeclaredPercent() bool {
	_, ok := v.percent.(declaredPercent)
	return ok
}

// detectVariant probes a check element and its header for T and TXPR.
func detectVariant(check, header Element, nominal map[string]decimal.Decimal) Variant {
	var v Variant

	_, onCheck := check.Attr(attrTypeFlag)
	_, onHeader := header.Attr(attrTypeFlag)
	if onCheck || onHeader {
		v.kind = flagKind{}
	} else {
		v.kind = signKind{}
	}

	if _, ok := header.Attr(attrTaxPercent); ok {
		v.percent = declaredPercent{}
	} else {
		v.percent = nominalPercent{rates: nominal}
	}
	return v
}
