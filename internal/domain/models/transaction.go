package models

import "github.com/shopspring/decimal"

// UnknownDate is the day bucket used when a transaction timestamp is missing
// or is not a 14-digit YYYYMMDDHHMMSS value.
const UnknownDate = "unknown"

// DefaultItemName replaces an item name the register did not export.
const DefaultItemName = "Unnamed"

// Kind is the direction of a fiscal operation.
type Kind int

const (
	KindSale Kind = iota
	KindReturn
)

// String returns the label used in report rows ("Sale" / "Return").
func (k Kind) String() string {
	if k == KindReturn {
		return "Return"
	}
	return "Sale"
}

// KindFromSign maps a signed minor-unit amount to a Kind: negative values are returns.
func KindFromSign(minor int64) Kind {
	if minor < 0 {
		return KindReturn
	}
	return KindSale
}

// TransactionRecord represents one fiscal check recovered from a register export.
//
// Fields:
//   - Date: "YYYY-MM-DD" or UnknownDate.
//   - Time: "HH:MM:SS" or empty when Date is UnknownDate.
//   - CheckNumber: the register's check number, kept opaque.
//   - Kind: sale or return, derived by the format variant of the element.
//   - GrossAmount: |header SM| / 100, never negative. Exports without a type
//     flag fall back to the item sum when the header SM is missing or zero.
//   - SignedItems: item amounts carry their own direction (exports without a
//     type flag), so group turnover follows the signed item net.
//   - LineItems / Discounts: entries in document order.
//   - GroupPercents: percent rate applicable to each tax group code for this check.
//   - Source: name of the file the check was read from.
//
// A record is immutable once the parser returns it.
type TransactionRecord struct {
	Date          string
	Time          string
	CheckNumber   string
	Kind          Kind
	GrossAmount   decimal.Decimal
	SignedItems   bool
	LineItems     []LineItem
	Discounts     []Discount
	GroupPercents map[string]decimal.Decimal
	Source        string
}

// LineItem is one product entry of a check.
//
// RawMinor keeps the signed value exported by the register (cents); Amount is
// its absolute value in currency units. Kind is the operation kind shown in the
// item row, which legacy exports derive per item.
type LineItem struct {
	Name         string
	TaxGroupCode string
	RawMinor     int64
	Amount       decimal.Decimal
	Kind         Kind
}

// Discount reduces the turnover of one tax group by Minor cents.
type Discount struct {
	TaxGroupCode string
	Minor        int64
}

// MinorToUnits converts integer cents to a two-decimal currency amount.
func MinorToUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
