package tax

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
)

func item(code string, minor int64) models.LineItem {
	return models.LineItem{Name: "x", TaxGroupCode: code, RawMinor: minor}
}

func TestApportion_TableDriven(t *testing.T) {
	seven := decimal.NewFromInt(7)
	cases := []struct {
		name  string
		rec   models.TransactionRecord
		want  map[string]string // label -> turnover
		order []string
	}{
		{
			name:  "single item",
			rec:   models.TransactionRecord{LineItems: []models.LineItem{item("2", 1050)}, GroupPercents: map[string]decimal.Decimal{"2": seven}},
			want:  map[string]string{"Б": "10.50"},
			order: []string{"Б"},
		},
		{
			name: "item minus discount",
			rec: models.TransactionRecord{
				LineItems: []models.LineItem{item("1", 2000)},
				Discounts: []models.Discount{{TaxGroupCode: "1", Minor: 500}},
			},
			want:  map[string]string{"А": "15.00"},
			order: []string{"А"},
		},
		{
			name: "discount without item opens the group",
			rec: models.TransactionRecord{
				LineItems: []models.LineItem{item("1", 1000)},
				Discounts: []models.Discount{{TaxGroupCode: "3", Minor: 250}},
			},
			want:  map[string]string{"А": "10.00", "В": "2.50"},
			order: []string{"А", "В"},
		},
		{
			name:  "unknown code excluded",
			rec:   models.TransactionRecord{LineItems: []models.LineItem{item("9", 700), item("2", 100)}},
			want:  map[string]string{"Б": "1.00"},
			order: []string{"Б"},
		},
		{
			name:  "item without code skipped",
			rec:   models.TransactionRecord{LineItems: []models.LineItem{item("", 700)}},
			want:  map[string]string{},
			order: nil,
		},
		{
			name:  "negative items reported as absolute value",
			rec:   models.TransactionRecord{LineItems: []models.LineItem{item("2", -1050), item("2", -50)}},
			want:  map[string]string{"Б": "11.00"},
			order: []string{"Б"},
		},
		{
			name:  "canonical order regardless of document order",
			rec:   models.TransactionRecord{LineItems: []models.LineItem{item("3", 1), item("1", 1), item("2", 1)}},
			want:  map[string]string{"А": "0.01", "Б": "0.01", "В": "0.01"},
			order: []string{"А", "Б", "В"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Apportion(tc.rec)
			if len(got) != len(tc.want) {
				t.Fatalf("groups: want %d got %d (%+v)", len(tc.want), len(got), got)
			}
			for i, g := range got {
				if g.Label != tc.order[i] {
					t.Fatalf("position %d: want %s got %s", i, tc.order[i], g.Label)
				}
				if g.Turnover.StringFixed(2) != tc.want[g.Label] {
					t.Fatalf("group %s: want %s got %s", g.Label, tc.want[g.Label], g.Turnover.StringFixed(2))
				}
			}
		})
	}
}

func TestApportion_CarriesPercent(t *testing.T) {
	rec := models.TransactionRecord{
		LineItems:     []models.LineItem{item("2", 1050), item("1", 100)},
		GroupPercents: map[string]decimal.Decimal{"2": decimal.NewFromInt(7)},
	}
	got := Apportion(rec)
	if len(got) != 2 {
		t.Fatalf("want 2 groups got %d", len(got))
	}
	if !got[0].Percent.IsZero() {
		t.Fatalf("group А should have no percent, got %s", got[0].Percent)
	}
	if !got[1].Percent.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("group Б percent %s", got[1].Percent)
	}
}

func TestApportion_NetKeepsSign(t *testing.T) {
	rec := models.TransactionRecord{LineItems: []models.LineItem{item("1", 500), item("2", -200)}}
	got := Apportion(rec)
	if len(got) != 2 {
		t.Fatalf("want 2 groups got %d", len(got))
	}
	if got[0].Net.StringFixed(2) != "5.00" || got[1].Net.StringFixed(2) != "-2.00" {
		t.Fatalf("net: %s %s", got[0].Net, got[1].Net)
	}
	if got[1].Turnover.StringFixed(2) != "2.00" {
		t.Fatalf("turnover stays absolute, got %s", got[1].Turnover)
	}
}

func TestNetByCode_KeepsUnknownCodes(t *testing.T) {
	net := NetByCode(models.TransactionRecord{LineItems: []models.LineItem{item("9", 700)}})
	if net["9"] != 700 {
		t.Fatalf("unexpected net %v", net)
	}
}

func TestVAT(t *testing.T) {
	cases := []struct {
		turnover, percent, want string
	}{
		{"10.50", "7", "0.69"},
		{"120.00", "20", "20.00"},
		{"10.00", "0", "0.00"},
		{"10.00", "-5", "0.00"},
		{"-10.50", "7", "-0.69"},
		{"0.00", "20", "0.00"},
	}
	for _, c := range cases {
		got := VAT(decimal.RequireFromString(c.turnover), decimal.RequireFromString(c.percent))
		if got.StringFixed(2) != c.want {
			t.Fatalf("VAT(%s,%s)=%s want %s", c.turnover, c.percent, got.StringFixed(2), c.want)
		}
	}
}

func TestVAT_Pure(t *testing.T) {
	tv, r := decimal.RequireFromString("33.33"), decimal.RequireFromString("7")
	if !VAT(tv, r).Equal(VAT(tv, r)) {
		t.Fatalf("VAT is not deterministic")
	}
}

func TestParseNominalRates(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{name: "numbers", yaml: "rates:\n  \"1\": 20\n  \"2\": 7\n"},
		{name: "strings", yaml: "rates:\n  \"1\": \"20.00\"\n"},
		{name: "unknown code", yaml: "rates:\n  \"9\": 20\n", wantErr: true},
		{name: "negative", yaml: "rates:\n  \"1\": -1\n", wantErr: true},
		{name: "empty", yaml: "rates: {}\n", wantErr: true},
		{name: "broken yaml", yaml: "rates: [", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseNominalRates([]byte(tc.yaml))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if !got["1"].Equal(decimal.NewFromInt(20)) {
				t.Fatalf("rate for 1 = %s", got["1"])
			}
		})
	}
}

func TestLoadNominalRates(t *testing.T) {
	def, err := LoadNominalRates("")
	if err != nil || len(def) != 2 {
		t.Fatalf("defaults: %v %v", def, err)
	}

	p := filepath.Join(t.TempDir(), "rates.yaml")
	if err := os.WriteFile(p, []byte("rates:\n  \"3\": 14\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadNominalRates(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got["3"].Equal(decimal.NewFromInt(14)) {
		t.Fatalf("unexpected %v", got)
	}

	if _, err := LoadNominalRates(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
