package tax

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
)

// DefaultNominalRates is the rate table for exports that do not declare TXPR:
// group А at 20% and group Б at 7%.
func DefaultNominalRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"1": decimal.NewFromInt(20),
		"2": decimal.NewFromInt(7),
	}
}

// ratesFile is the YAML layout accepted by LoadNominalRates:
//
//	rates:
//	  "1": 20
//	  "2": 7
type ratesFile struct {
	Rates map[string]decimal.Decimal `yaml:"rates"`
}

// LoadNominalRates reads a nominal rate table. An empty path returns the defaults.
func LoadNominalRates(path string) (map[string]decimal.Decimal, error) {
	if path == "" {
		return DefaultNominalRates(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates file: %w", err)
	}
	return ParseNominalRates(data)
}

// ParseNominalRates decodes and validates a YAML rate table.
func ParseNominalRates(data []byte) (map[string]decimal.Decimal, error) {
	var f ratesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rates file: %w", err)
	}
	if len(f.Rates) == 0 {
		return nil, fmt.Errorf("rates file defines no rates")
	}
	for code, r := range f.Rates {
		if _, ok := models.LabelFor(code); !ok {
			return nil, fmt.Errorf("unknown tax code %q in rates file", code)
		}
		if r.IsNegative() {
			return nil, fmt.Errorf("negative rate %s for tax code %q", r, code)
		}
	}
	return f.Rates, nil
}
