package parser

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
	"github.com/guttosm/fiscalpulse/internal/extract"
)

func block(text string) extract.RawBlock { return extract.RawBlock{Index: 0, Text: text} }

func TestWrap_SiblingsWithoutRoot(t *testing.T) {
	elems, err := Wrap(`<DAT><C/></DAT><DAT><C/></DAT>`)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(elems) != 2 || elems[0].Name() != "DAT" {
		t.Fatalf("unexpected elements: %+v", elems)
	}
}

func TestWrap_Malformed(t *testing.T) {
	for _, s := range []string{`<DAT><C></DAT>`, `<DAT><P NM="a></DAT>`, `<DAT>&nbsp;</DAT>`} {
		if _, err := Wrap(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestElement_FindAllDocumentOrder(t *testing.T) {
	elems, err := Wrap(`<DAT><C><P NM="1"/><X><P NM="2"/></X><P NM="3"/></C></DAT>`)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	ps := elems[0].FindAll("P")
	if len(ps) != 3 {
		t.Fatalf("want 3 items got %d", len(ps))
	}
	for i, want := range []string{"1", "2", "3"} {
		if ps[i].AttrOr("NM", "") != want {
			t.Fatalf("item %d: want %s got %s", i, want, ps[i].AttrOr("NM", ""))
		}
	}
}

func TestParse_CurrentFormat(t *testing.T) {
	p := New(Options{})
	recs, err := p.Parse("a.xml", block(`<DAT><C T="0"><P NM="Bread" SM="1050" TX="2"/><E TS="20240115093000" NO="17" SM="1050" TX="2" TXPR="7.00"/></C></DAT>`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 record got %d", len(recs))
	}
	r := recs[0]
	if r.Date != "2024-01-15" || r.Time != "09:30:00" || r.CheckNumber != "17" {
		t.Fatalf("header mismatch: %+v", r)
	}
	if r.Kind != models.KindSale || r.GrossAmount.StringFixed(2) != "10.50" {
		t.Fatalf("kind/gross mismatch: %v %s", r.Kind, r.GrossAmount)
	}
	if len(r.LineItems) != 1 || r.LineItems[0].Name != "Bread" || r.LineItems[0].Amount.StringFixed(2) != "10.50" {
		t.Fatalf("items mismatch: %+v", r.LineItems)
	}
	if !r.GroupPercents["2"].Equal(decimal.NewFromInt(7)) || len(r.GroupPercents) != 1 {
		t.Fatalf("percents mismatch: %v", r.GroupPercents)
	}
	if r.Source != "a.xml" {
		t.Fatalf("source %q", r.Source)
	}
}

func TestParse_ReturnFlag(t *testing.T) {
	p := New(Options{})
	recs, err := p.Parse("a.xml", block(`<DAT><C T="1"><P NM="Bread" SM="1050" TX="2"/><E TS="20240115100000" NO="18" SM="-1050"/></C></DAT>`))
	if err != nil || len(recs) != 1 {
		t.Fatalf("err=%v recs=%d", err, len(recs))
	}
	r := recs[0]
	if r.Kind != models.KindReturn || r.LineItems[0].Kind != models.KindReturn {
		t.Fatalf("expected return, got %v / %v", r.Kind, r.LineItems[0].Kind)
	}
	if r.GrossAmount.StringFixed(2) != "10.50" {
		t.Fatalf("gross must be absolute, got %s", r.GrossAmount)
	}
	// no TXPR: nominal table applies
	if !r.GroupPercents["1"].Equal(decimal.NewFromInt(20)) || !r.GroupPercents["2"].Equal(decimal.NewFromInt(7)) {
		t.Fatalf("nominal percents expected, got %v", r.GroupPercents)
	}
}

func TestParse_LegacyPerItemSign(t *testing.T) {
	p := New(Options{})
	recs, err := p.Parse("old.xml", block(`<DAT><C><P NM="A" SM="500"/><P NM="B" SM="-200"/><E TS="20240115100000" NO="1" SM="300"/></C></DAT>`))
	if err != nil || len(recs) != 1 {
		t.Fatalf("err=%v recs=%d", err, len(recs))
	}
	r := recs[0]
	if r.Kind != models.KindSale {
		t.Fatalf("check kind from header sign: got %v", r.Kind)
	}
	if r.LineItems[0].Kind != models.KindSale || r.LineItems[1].Kind != models.KindReturn {
		t.Fatalf("item kinds: %v %v", r.LineItems[0].Kind, r.LineItems[1].Kind)
	}
	if r.LineItems[1].Amount.StringFixed(2) != "2.00" || r.LineItems[1].RawMinor != -200 {
		t.Fatalf("item amount normalisation: %+v", r.LineItems[1])
	}
}

func TestParse_LegacyReturnWithoutHeaderSum(t *testing.T) {
	p := New(Options{})
	recs, err := p.Parse("old.xml", block(`<C><E TS="20240115093000" NO="5"/><P NM="Bread" SM="-1050" TX="2"/></C>`))
	if err != nil || len(recs) != 1 {
		t.Fatalf("err=%v recs=%d", err, len(recs))
	}
	r := recs[0]
	if r.Kind != models.KindReturn || r.LineItems[0].Kind != models.KindReturn {
		t.Fatalf("item sum must decide the kind: check %v item %v", r.Kind, r.LineItems[0].Kind)
	}
	if r.GrossAmount.StringFixed(2) != "10.50" || !r.SignedItems {
		t.Fatalf("gross=%s signed=%v", r.GrossAmount, r.SignedItems)
	}
}

func TestParse_FlagVariantKeepsHeaderAmount(t *testing.T) {
	p := New(Options{})
	recs, err := p.Parse("a.xml", block(`<C T="0"><E TS="20240115093000" NO="6"/><P NM="Bread" SM="1050" TX="2"/></C>`))
	if err != nil || len(recs) != 1 {
		t.Fatalf("err=%v recs=%d", err, len(recs))
	}
	if r := recs[0]; !r.GrossAmount.IsZero() || r.SignedItems {
		t.Fatalf("flag variant reads the header only: gross=%s signed=%v", r.GrossAmount, r.SignedItems)
	}
}

func TestParse_SkipsCheckWithoutHeader(t *testing.T) {
	p := New(Options{})
	recs, err := p.Parse("a.xml", block(`<DAT><C><P NM="A" SM="500"/></C><C><E NO="2" SM="100" TS="20240101000000"/></C></DAT>`))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(recs) != 1 || recs[0].CheckNumber != "2" {
		t.Fatalf("expected only check 2, got %+v", recs)
	}
}

func TestParse_Defaults(t *testing.T) {
	p := New(Options{})
	recs, err := p.Parse("a.xml", block(`<DAT><C><P/><D TX="1" SM="10"/><E/></C></DAT>`))
	if err != nil || len(recs) != 1 {
		t.Fatalf("err=%v recs=%d", err, len(recs))
	}
	r := recs[0]
	if r.Date != models.UnknownDate || r.Time != "" {
		t.Fatalf("missing timestamp should give unknown date, got %q %q", r.Date, r.Time)
	}
	if r.LineItems[0].Name != models.DefaultItemName || !r.LineItems[0].Amount.IsZero() {
		t.Fatalf("item defaults: %+v", r.LineItems[0])
	}
	if len(r.Discounts) != 1 || r.Discounts[0].Minor != 10 {
		t.Fatalf("discounts: %+v", r.Discounts)
	}
}

func TestParse_MalformedFragment(t *testing.T) {
	p := New(Options{})
	_, err := p.Parse("bad.xml", extract.RawBlock{Index: 3, Text: `<DAT><C><E SM="1"></C></DAT>`})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrMalformedFragment) {
		t.Fatalf("error should wrap ErrMalformedFragment: %v", err)
	}
	var fe *FragmentError
	if !errors.As(err, &fe) || fe.File != "bad.xml" || fe.Index != 3 {
		t.Fatalf("unexpected fragment error: %#v", err)
	}
}

func TestParse_InvalidNumbersRejectFragment(t *testing.T) {
	p := New(Options{})
	cases := []string{
		`<DAT><C><E SM="abc"/></C></DAT>`,
		`<DAT><C><P SM="1.5"/><E SM="1"/></C></DAT>`,
		`<DAT><C><D SM="x"/><E SM="1"/></C></DAT>`,
		`<DAT><C><E SM="1" TX="2" TXPR="seven"/></C></DAT>`,
	}
	for _, c := range cases {
		if _, err := p.Parse("f.xml", block(c)); !errors.Is(err, ErrMalformedFragment) {
			t.Fatalf("%s: expected malformed fragment, got %v", c, err)
		}
	}
}

func TestSplitTimestamp(t *testing.T) {
	cases := []struct{ in, date, tm string }{
		{"20240115093000", "2024-01-15", "09:30:00"},
		{"2024011509300", models.UnknownDate, ""},
		{"202401150930000", models.UnknownDate, ""},
		{"2024011509300X", models.UnknownDate, ""},
		{"", models.UnknownDate, ""},
	}
	for _, c := range cases {
		d, tm := splitTimestamp(c.in)
		if d != c.date || tm != c.tm {
			t.Fatalf("splitTimestamp(%q)=(%q,%q)", c.in, d, tm)
		}
	}
}

func TestVariantDetection(t *testing.T) {
	p := New(Options{})
	cases := []struct {
		xml      string
		name     string
		flag     bool
		declared bool
	}{
		{`<C T="0"><E TXPR="7"/></C>`, "flag+declared", true, true},
		{`<C T="1"><E/></C>`, "flag+nominal", true, false},
		{`<C><E T="1"/></C>`, "flag+nominal", true, false},
		{`<C><E TXPR="7"/></C>`, "sign+declared", false, true},
		{`<C><E/></C>`, "sign+nominal", false, false},
	}
	for _, c := range cases {
		elems, err := Wrap(c.xml)
		if err != nil {
			t.Fatalf("wrap: %v", err)
		}
		v := p.VariantOf(elems[0])
		if v.String() != c.name || v.HasTypeFlag() != c.flag || v.HasDeclaredPercent() != c.declared {
			t.Fatalf("%s: got %s", c.xml, v)
		}
	}
}

func TestParse_CustomNominalRates(t *testing.T) {
	p := New(Options{NominalRates: map[string]decimal.Decimal{"3": decimal.NewFromInt(14)}})
	recs, err := p.Parse("a.xml", block(`<DAT><C T="0"><P SM="100" TX="3"/><E SM="100"/></C></DAT>`))
	if err != nil || len(recs) != 1 {
		t.Fatalf("err=%v", err)
	}
	if !recs[0].GroupPercents["3"].Equal(decimal.NewFromInt(14)) || len(recs[0].GroupPercents) != 1 {
		t.Fatalf("unexpected percents %v", recs[0].GroupPercents)
	}
}
