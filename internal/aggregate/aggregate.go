// Package aggregate accumulates daily and period totals over one run.
//
// An Aggregator has a two-phase lifecycle: Absorb is called once per parsed
// check, then Finalize is called exactly once and returns a read-only State.
// Absorbing after Finalize fails with ErrFinalized. An aborted run simply
// drops its Aggregator; there is no undo.
package aggregate

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/domain/models"
	"github.com/guttosm/fiscalpulse/internal/tax"
)

var (
	ErrFinalized    = errors.New("aggregator already finalized")
	ErrNotFinalized = errors.New("aggregator not finalized")
)

// TaxGroupTotals is the running state of one tax group. Only turnover and the
// last non-zero percent are stored; VAT is always derived from them.
type TaxGroupTotals struct {
	Turnover decimal.Decimal
	Percent  decimal.Decimal
}

// VAT derives the tax contained in the accumulated turnover.
func (t TaxGroupTotals) VAT() decimal.Decimal { return tax.VAT(t.Turnover, t.Percent) }

// Add returns t with turnover added and percent recorded when non-zero.
func (t TaxGroupTotals) Add(turnover, percent decimal.Decimal) TaxGroupTotals {
	t.Turnover = t.Turnover.Add(turnover)
	if !percent.IsZero() {
		t.Percent = percent
	}
	return t
}

// GroupLine is one tax group of a Totals in canonical order.
type GroupLine struct {
	Label string
	TaxGroupTotals
}

// Totals is shared by day and period aggregates.
type Totals struct {
	Sales     decimal.Decimal
	Returns   decimal.Decimal
	TaxGroups map[string]TaxGroupTotals // keyed by label
}

func newTotals() Totals {
	return Totals{TaxGroups: map[string]TaxGroupTotals{}}
}

// Balance is sales minus returns.
func (t Totals) Balance() decimal.Decimal { return t.Sales.Sub(t.Returns) }

// Groups lists tax groups in canonical А..З order.
func (t Totals) Groups() []GroupLine {
	out := make([]GroupLine, 0, len(t.TaxGroups))
	for _, g := range models.TaxGroups {
		if tg, ok := t.TaxGroups[g.Label]; ok {
			out = append(out, GroupLine{Label: g.Label, TaxGroupTotals: tg})
		}
	}
	return out
}

// DayAggregate holds the totals of one calendar date or of models.UnknownDate.
type DayAggregate struct {
	Date string
	Totals
}

// PeriodAggregate holds the totals of the whole run.
type PeriodAggregate struct {
	Totals
}

// State is the finalized, read-only result of an Aggregator.
type State struct {
	Days   []*DayAggregate // ascending by date, unknown date last
	Period PeriodAggregate
}

// Day returns the aggregate for date.
func (s *State) Day(date string) (*DayAggregate, bool) {
	for _, d := range s.Days {
		if d.Date == date {
			return d, true
		}
	}
	return nil, false
}

// Aggregator accumulates checks. It is not safe for concurrent use; a run owns
// exactly one.
type Aggregator struct {
	days      map[string]*DayAggregate
	state     *State
	absorbed  int
	finalized bool
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{days: map[string]*DayAggregate{}}
}

// Absorb adds one check: its gross amount to the day's sales or returns, and
// each group turnover added for sales, subtracted for returns. Records with
// signed items add the signed group net instead.
func (a *Aggregator) Absorb(rec models.TransactionRecord, groups []tax.GroupTurnover) error {
	if a.finalized {
		return ErrFinalized
	}

	day, ok := a.days[rec.Date]
	if !ok {
		day = &DayAggregate{Date: rec.Date, Totals: newTotals()}
		a.days[rec.Date] = day
	}

	if rec.Kind == models.KindReturn {
		day.Returns = day.Returns.Add(rec.GrossAmount)
	} else {
		day.Sales = day.Sales.Add(rec.GrossAmount)
	}

	for _, g := range groups {
		turnover := g.Turnover
		switch {
		case rec.SignedItems:
			turnover = g.Net
		case rec.Kind == models.KindReturn:
			turnover = turnover.Neg()
		}
		day.TaxGroups[g.Label] = day.TaxGroups[g.Label].Add(turnover, g.Percent)
	}

	a.absorbed++
	return nil
}

// Absorbed returns the number of checks absorbed so far.
func (a *Aggregator) Absorbed() int { return a.absorbed }

// Finalize sums all days into the period aggregate and freezes the Aggregator.
func (a *Aggregator) Finalize() (*State, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true

	st := &State{Period: PeriodAggregate{Totals: newTotals()}}
	for _, d := range a.days {
		st.Days = append(st.Days, d)
	}
	sort.Slice(st.Days, func(i, j int) bool { return DateLess(st.Days[i].Date, st.Days[j].Date) })

	for _, d := range st.Days {
		p := &st.Period
		p.Sales = p.Sales.Add(d.Sales)
		p.Returns = p.Returns.Add(d.Returns)
		for label, tg := range d.TaxGroups {
			p.TaxGroups[label] = p.TaxGroups[label].Add(tg.Turnover, tg.Percent)
		}
	}

	a.state = st
	return st, nil
}

// State returns the finalized state.
func (a *Aggregator) State() (*State, error) {
	if !a.finalized {
		return nil, ErrNotFinalized
	}
	return a.state, nil
}

// DateLess orders ISO dates ascending and puts the unknown bucket last.
func DateLess(a, b string) bool {
	if a == models.UnknownDate {
		return false
	}
	if b == models.UnknownDate {
		return true
	}
	return a < b
}
