// Package parser turns extracted register containers into transaction records.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
	"github.com/guttosm/fiscalpulse/internal/extract"
	"github.com/guttosm/fiscalpulse/internal/tax"
)

// Element names of the register export.
const (
	tagCheck    = "C" // one fiscal check
	tagHeader   = "E" // check totals: TS, NO, SM, TX, TXPR
	tagItem     = "P" // sold/returned product: NM, SM, TX
	tagDiscount = "D" // discount: TX, SM

	attrTimestamp = "TS"
	attrNumber    = "NO"
	attrSum       = "SM"
	attrName      = "NM"

	timestampLen = 14
)

// ErrMalformedFragment marks a container whose synthesized document could not be parsed.
var ErrMalformedFragment = errors.New("malformed fragment")

// FragmentError reports a container that was skipped.
type FragmentError struct {
	File  string // source file name
	Index int    // zero-based container index in the file
	Err   error  // underlying cause
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("file %s: fragment %d: %v", e.File, e.Index, e.Err)
}

// Unwrap exposes both ErrMalformedFragment and the cause to errors.Is / errors.As.
func (e *FragmentError) Unwrap() []error { return []error{ErrMalformedFragment, e.Err} }

// Options configures a Parser.
type Options struct {
	// NominalRates is the percent table used by exports without TXPR.
	// Nil selects tax.DefaultNominalRates().
	NominalRates map[string]decimal.Decimal
}

// Parser converts containers to TransactionRecords. It holds no per-run state.
type Parser struct {
	nominal map[string]decimal.Decimal
}

// New builds a Parser.
func New(opts Options) *Parser {
	rates := opts.NominalRates
	if rates == nil {
		rates = tax.DefaultNominalRates()
	}
	return &Parser{nominal: rates}
}

// Parse reads every check of one container.
//
// Checks without a header element are skipped. A syntax error anywhere in
// the container, or a non-numeric amount/percent, rejects the whole container
// with a *FragmentError; no records of that container are returned.
func (p *Parser) Parse(file string, block extract.RawBlock) ([]models.TransactionRecord, error) {
	elems, err := Wrap(block.Text)
	if err != nil {
		return nil, &FragmentError{File: file, Index: block.Index, Err: err}
	}

	var out []models.TransactionRecord
	for _, el := range elems {
		checks := el.FindAll(tagCheck)
		if el.Name() == tagCheck {
			checks = append([]Element{el}, checks...)
		}
		for _, c := range checks {
			rec, ok, err := p.parseCheck(file, c)
			if err != nil {
				return nil, &FragmentError{File: file, Index: block.Index, Err: err}
			}
			if ok {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

// parseCheck builds one record; ok is false when the check has no header.
func (p *Parser) parseCheck(file string, c Element) (models.TransactionRecord, bool, error) {
	header, found := c.Find(tagHeader)
	if !found {
		return models.TransactionRecord{}, false, nil
	}

	variant := detectVariant(c, header, p.nominal)

	headerMinor, err := minorAttr(header, attrSum)
	if err != nil {
		return models.TransactionRecord{}, false, fmt.Errorf("check %q: %w", header.AttrOr(attrNumber, ""), err)
	}

	items := c.FindAll(tagItem)
	itemMinors := make([]int64, len(items))
	var itemsMinor int64
	for i, it := range items {
		minor, err := minorAttr(it, attrSum)
		if err != nil {
			return models.TransactionRecord{}, false, fmt.Errorf("check %q item: %w", header.AttrOr(attrNumber, ""), err)
		}
		itemMinors[i] = minor
		itemsMinor += minor
	}
	checkMinor := variant.kind.amount(headerMinor, itemsMinor)

	rec := models.TransactionRecord{
		CheckNumber: header.AttrOr(attrNumber, ""),
		Kind:        variant.kind.checkKind(c, header, checkMinor),
		GrossAmount: models.MinorToUnits(abs(checkMinor)),
		SignedItems: !variant.HasTypeFlag(),
		Source:      file,
	}
	rec.Date, rec.Time = splitTimestamp(header.AttrOr(attrTimestamp, ""))

	rec.GroupPercents, err = variant.percent.percents(header)
	if err != nil {
		return models.TransactionRecord{}, false, fmt.Errorf("check %q: %w", rec.CheckNumber, err)
	}

	for i, it := range items {
		minor := itemMinors[i]
		rec.LineItems = append(rec.LineItems, models.LineItem{
			Name:         it.AttrOr(attrName, models.DefaultItemName),
			TaxGroupCode: it.AttrOr(attrTaxCode, ""),
			RawMinor:     minor,
			Amount:       models.MinorToUnits(abs(minor)),
			Kind:         variant.kind.itemKind(rec.Kind, minor),
		})
	}

	for _, d := range c.FindAll(tagDiscount) {
		minor, err := minorAttr(d, attrSum)
		if err != nil {
			return models.TransactionRecord{}, false, fmt.Errorf("check %q discount: %w", rec.CheckNumber, err)
		}
		rec.Discounts = append(rec.Discounts, models.Discount{
			TaxGroupCode: d.AttrOr(attrTaxCode, ""),
			Minor:        minor,
		})
	}

	return rec, true, nil
}

// VariantOf reports the format variant a check element resolves to.
func (p *Parser) VariantOf(c Element) Variant {
	header, _ := c.Find(tagHeader)
	return detectVariant(c, header, p.nominal)
}

// splitTimestamp converts YYYYMMDDHHMMSS into ("YYYY-MM-DD", "HH:MM:SS").
func splitTimestamp(ts string) (string, string) {
	ts = strings.TrimSpace(ts)
	if len(ts) != timestampLen || !allDigits(ts) {
		return models.UnknownDate, ""
	}
	return ts[:4] + "-" + ts[4:6] + "-" + ts[6:8], ts[8:10] + ":" + ts[10:12] + ":" + ts[12:]
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// minorAttr parses an integer minor-unit attribute; absent or empty means 0.
func minorAttr(e Element, name string) (int64, error) {
	s := strings.TrimSpace(e.AttrOr(name, ""))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q on <%s>", name, s, e.Name())
	}
	return v, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
