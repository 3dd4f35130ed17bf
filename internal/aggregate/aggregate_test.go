package aggregate

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
	"github.com/guttosm/fiscalpulse/internal/tax"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func check(date string, kind models.Kind, gross string, code string, minor int64, percent string) (models.TransactionRecord, []tax.GroupTurnover) {
	rec := models.TransactionRecord{
		Date:          date,
		Kind:          kind,
		GrossAmount:   d(gross),
		LineItems:     []models.LineItem{{TaxGroupCode: code, RawMinor: minor}},
		GroupPercents: map[string]decimal.Decimal{},
	}
	if percent != "" {
		rec.GroupPercents[code] = d(percent)
	}
	return rec, tax.Apportion(rec)
}

func mustAbsorb(t *testing.T, a *Aggregator, rec models.TransactionRecord, g []tax.GroupTurnover) {
	t.Helper()
	if err := a.Absorb(rec, g); err != nil {
		t.Fatalf("absorb: %v", err)
	}
}

// absorbCheck builds a single-item check and absorbs it.
func absorbCheck(t *testing.T, a *Aggregator, date string, kind models.Kind, gross string, code string, minor int64, percent string) {
	t.Helper()
	rec, g := check(date, kind, gross, code, minor, percent)
	mustAbsorb(t, a, rec, g)
}

func TestAbsorb_SaleAndReturnNetToZero(t *testing.T) {
	a := New()
	absorbCheck(t, a, "2024-01-15", models.KindSale, "10.50", "2", 1050, "7")
	absorbCheck(t, a, "2024-01-15", models.KindReturn, "10.50", "2", 1050, "7")

	st, err := a.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	day, ok := st.Day("2024-01-15")
	if !ok {
		t.Fatalf("day missing")
	}
	if day.Sales.StringFixed(2) != "10.50" || day.Returns.StringFixed(2) != "10.50" || !day.Balance().IsZero() {
		t.Fatalf("unexpected day totals %+v", day.Totals)
	}
	if !day.TaxGroups["Б"].Turnover.IsZero() {
		t.Fatalf("group Б should net to zero, got %s", day.TaxGroups["Б"].Turnover)
	}
}

func TestAbsorb_SignedTurnoverPerDay(t *testing.T) {
	a := New()
	absorbCheck(t, a, "2024-01-15", models.KindSale, "20.00", "1", 2000, "")
	absorbCheck(t, a, "2024-01-15", models.KindReturn, "5.00", "1", 500, "")
	absorbCheck(t, a, "2024-01-16", models.KindReturn, "3.00", "1", 300, "")

	st, _ := a.Finalize()
	d15, _ := st.Day("2024-01-15")
	d16, _ := st.Day("2024-01-16")
	if d15.TaxGroups["А"].Turnover.StringFixed(2) != "15.00" {
		t.Fatalf("15th turnover %s", d15.TaxGroups["А"].Turnover)
	}
	if d16.TaxGroups["А"].Turnover.StringFixed(2) != "-3.00" {
		t.Fatalf("16th turnover %s", d16.TaxGroups["А"].Turnover)
	}
	if st.Period.TaxGroups["А"].Turnover.StringFixed(2) != "12.00" {
		t.Fatalf("period turnover %s", st.Period.TaxGroups["А"].Turnover)
	}
	if st.Period.Sales.StringFixed(2) != "20.00" || st.Period.Returns.StringFixed(2) != "8.00" || st.Period.Balance().StringFixed(2) != "12.00" {
		t.Fatalf("period totals %+v", st.Period.Totals)
	}
}

func TestAbsorb_SignedItemsFollowGroupNet(t *testing.T) {
	a := New()
	rec := models.TransactionRecord{
		Date:        "2024-01-15",
		Kind:        models.KindSale,
		GrossAmount: d("3.00"),
		SignedItems: true,
		LineItems: []models.LineItem{
			{TaxGroupCode: "1", RawMinor: 500},
			{TaxGroupCode: "2", RawMinor: -200},
		},
	}
	mustAbsorb(t, a, rec, tax.Apportion(rec))

	legacyReturn := models.TransactionRecord{
		Date:        "2024-01-15",
		Kind:        models.KindReturn,
		GrossAmount: d("10.50"),
		SignedItems: true,
		LineItems:   []models.LineItem{{TaxGroupCode: "2", RawMinor: -1050}},
	}
	mustAbsorb(t, a, legacyReturn, tax.Apportion(legacyReturn))

	st, _ := a.Finalize()
	day, _ := st.Day("2024-01-15")
	if got := day.TaxGroups["А"].Turnover.StringFixed(2); got != "5.00" {
		t.Fatalf("group А: %s", got)
	}
	if got := day.TaxGroups["Б"].Turnover.StringFixed(2); got != "-12.50" {
		t.Fatalf("group Б: %s", got)
	}
	if day.Sales.StringFixed(2) != "3.00" || day.Returns.StringFixed(2) != "10.50" {
		t.Fatalf("totals %+v", day.Totals)
	}
}

func TestTaxGroupTotals_StoresOnlyTurnoverAndPercent(t *testing.T) {
	typ := reflect.TypeOf(TaxGroupTotals{})
	if typ.NumField() != 2 {
		t.Fatalf("TaxGroupTotals must not accumulate VAT, fields=%d", typ.NumField())
	}
	for _, name := range []string{"Turnover", "Percent"} {
		if _, ok := typ.FieldByName(name); !ok {
			t.Fatalf("missing field %s", name)
		}
	}
}

func TestVAT_DerivedFromSummedTurnover(t *testing.T) {
	a := New()
	perCheck := decimal.Zero
	for i := 0; i < 3; i++ {
		rec, g := check("2024-01-15", models.KindSale, "0.10", "2", 10, "7")
		perCheck = perCheck.Add(tax.VAT(g[0].Turnover, g[0].Percent))
		mustAbsorb(t, a, rec, g)
	}
	st, _ := a.Finalize()
	day, _ := st.Day("2024-01-15")

	if perCheck.StringFixed(2) != "0.03" {
		t.Fatalf("sanity: per-check VAT sum %s", perCheck)
	}
	if got := day.TaxGroups["Б"].VAT().StringFixed(2); got != "0.02" {
		t.Fatalf("VAT must be derived from summed turnover 0.30, got %s", got)
	}
}

func TestPercent_LastNonZeroWins(t *testing.T) {
	a := New()
	absorbCheck(t, a, "2024-01-15", models.KindSale, "1.00", "2", 100, "7")
	absorbCheck(t, a, "2024-01-15", models.KindSale, "1.00", "2", 100, "")
	absorbCheck(t, a, "2024-01-16", models.KindSale, "1.00", "2", 100, "0")
	absorbCheck(t, a, "2024-01-17", models.KindSale, "1.00", "2", 100, "14")

	st, _ := a.Finalize()
	d15, _ := st.Day("2024-01-15")
	if !d15.TaxGroups["Б"].Percent.Equal(d("7")) {
		t.Fatalf("zero percent must not override, got %s", d15.TaxGroups["Б"].Percent)
	}
	d16, _ := st.Day("2024-01-16")
	if !d16.TaxGroups["Б"].Percent.IsZero() {
		t.Fatalf("day without percent, got %s", d16.TaxGroups["Б"].Percent)
	}
	if !st.Period.TaxGroups["Б"].Percent.Equal(d("14")) {
		t.Fatalf("period percent should be the latest non-zero, got %s", st.Period.TaxGroups["Б"].Percent)
	}
}

func TestFinalize_Lifecycle(t *testing.T) {
	a := New()
	if _, err := a.State(); !errors.Is(err, ErrNotFinalized) {
		t.Fatalf("expected ErrNotFinalized, got %v", err)
	}
	if _, err := a.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if _, err := a.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Fatalf("second finalize: %v", err)
	}
	rec, g := check("2024-01-15", models.KindSale, "1.00", "1", 100, "")
	if err := a.Absorb(rec, g); !errors.Is(err, ErrFinalized) {
		t.Fatalf("absorb after finalize: %v", err)
	}
	if _, err := a.State(); err != nil {
		t.Fatalf("state: %v", err)
	}
}

func TestFinalize_DayOrder(t *testing.T) {
	a := New()
	for _, date := range []string{models.UnknownDate, "2024-02-01", "2024-01-31"} {
		rec, g := check(date, models.KindSale, "1.00", "1", 100, "")
		mustAbsorb(t, a, rec, g)
	}
	st, _ := a.Finalize()
	want := []string{"2024-01-31", "2024-02-01", models.UnknownDate}
	for i, day := range st.Days {
		if day.Date != want[i] {
			t.Fatalf("position %d: want %s got %s", i, want[i], day.Date)
		}
	}
	if a.Absorbed() != 3 {
		t.Fatalf("absorbed %d", a.Absorbed())
	}
}

func TestDateLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"2024-01-15", "2024-01-16", true},
		{"2024-01-16", "2024-01-15", false},
		{"2024-12-31", models.UnknownDate, true},
		{models.UnknownDate, "2024-01-01", false},
		{models.UnknownDate, models.UnknownDate, false},
	}
	for _, tc := range cases {
		if got := DateLess(tc.a, tc.b); got != tc.want {
			t.Fatalf("DateLess(%q, %q)=%v want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestTotals_GroupsCanonicalOrder(t *testing.T) {
	tot := newTotals()
	tot.TaxGroups["В"] = TaxGroupTotals{Turnover: d("1")}
	tot.TaxGroups["А"] = TaxGroupTotals{Turnover: d("2")}
	lines := tot.Groups()
	if len(lines) != 2 || lines[0].Label != "А" || lines[1].Label != "В" {
		t.Fatalf("unexpected order %+v", lines)
	}
}
