// Package report lays out item rows and aggregates as ordered, tagged rows.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/aggregate"
	"github.com/guttosm/fiscalpulse/internal/domain/models"
)

// Tag tells a renderer what kind of row it is drawing. Tags never feed back
// into computation.
type Tag int

const (
	TagItem Tag = iota
	TagDaySummary
	TagPeriodSummary
	TagBlank
)

func (t Tag) String() string {
	switch t {
	case TagDaySummary:
		return "day_summary"
	case TagPeriodSummary:
		return "period_summary"
	case TagBlank:
		return "blank"
	default:
		return "item"
	}
}

// Columns is the header of every rendered report.
var Columns = []string{"Date", "Time", "Check No", "Name", "Amount", "Operation"}

// Row is one output line: six text fields plus a presentation tag.
type Row struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Check  string `json:"check"`
	Label  string `json:"label"`
	Amount string `json:"amount"`
	Kind   string `json:"kind"`
	Tag    Tag    `json:"-"`
}

// Fields returns the row in column order.
func (r Row) Fields() []string {
	return []string{r.Date, r.Time, r.Check, r.Label, r.Amount, r.Kind}
}

// IsReturn reports whether the row is a returned item.
func (r Row) IsReturn() bool {
	return r.Tag == TagItem && r.Kind == models.KindReturn.String()
}

// ItemRow is one entry of the flat item list.
type ItemRow struct {
	Date        string
	Time        string
	CheckNumber string
	Name        string
	Amount      decimal.Decimal
	Kind        models.Kind
}

// ItemsOf flattens the line items of a check into item rows.
func ItemsOf(rec models.TransactionRecord) []ItemRow {
	out := make([]ItemRow, 0, len(rec.LineItems))
	for _, it := range rec.LineItems {
		out = append(out, ItemRow{
			Date:        rec.Date,
			Time:        rec.Time,
			CheckNumber: rec.CheckNumber,
			Name:        it.Name,
			Amount:      it.Amount,
			Kind:        it.Kind,
		})
	}
	return out
}

// Build produces the report rows: for each date the sorted item rows, the
// day summary block and a blank separator; then the period summary block.
//
// Items are stable-sorted by (date, time). Dates that only appear in the
// aggregates (checks without items) still get a summary block.
func Build(items []ItemRow, st *aggregate.State) []Row {
	sorted := make([]ItemRow, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return aggregate.DateLess(sorted[i].Date, sorted[j].Date)
		}
		return sorted[i].Time < sorted[j].Time
	})

	byDate := map[string][]ItemRow{}
	var dates []string
	for _, it := range sorted {
		if _, ok := byDate[it.Date]; !ok {
			dates = append(dates, it.Date)
		}
		byDate[it.Date] = append(byDate[it.Date], it)
	}
	for _, day := range st.Days {
		if _, ok := byDate[day.Date]; !ok {
			byDate[day.Date] = nil
			dates = append(dates, day.Date)
		}
	}
	sort.SliceStable(dates, func(i, j int) bool { return aggregate.DateLess(dates[i], dates[j]) })

	var rows []Row
	for _, date := range dates {
		for _, it := range byDate[date] {
			rows = append(rows, Row{
				Date:   it.Date,
				Time:   it.Time,
				Check:  it.CheckNumber,
				Label:  it.Name,
				Amount: it.Amount.StringFixed(2),
				Kind:   it.Kind.String(),
				Tag:    TagItem,
			})
		}

		day, ok := st.Day(date)
		if !ok {
			day = &aggregate.DayAggregate{Date: date}
		}
		rows = append(rows, daySummary(day)...)
		rows = append(rows, Row{Tag: TagBlank})
	}

	return append(rows, periodSummary(st.Period)...)
}

func daySummary(day *aggregate.DayAggregate) []Row {
	rows := []Row{
		{Date: day.Date, Label: "--- Day totals ---", Tag: TagDaySummary},
		summary(TagDaySummary, "Gross sales", day.Sales),
	}
	rows = append(rows, groupRows(TagDaySummary, "Turnover group %s (%s%%)", "VAT group %s (%s%%)", day.Groups())...)
	return append(rows,
		summary(TagDaySummary, "Returns", day.Returns),
		summary(TagDaySummary, "Net balance", day.Balance()),
	)
}

func periodSummary(p aggregate.PeriodAggregate) []Row {
	rows := []Row{
		{Label: "============================", Tag: TagPeriodSummary},
		{Label: "PERIOD SUMMARY", Tag: TagPeriodSummary},
		{Label: "============================", Tag: TagPeriodSummary},
		summary(TagPeriodSummary, "Total sales", p.Sales),
	}
	rows = append(rows, groupRows(TagPeriodSummary, "Total turnover group %s (%s%%)", "Total VAT group %s (%s%%)", p.Groups())...)
	return append(rows,
		summary(TagPeriodSummary, "Total returns", p.Returns),
		summary(TagPeriodSummary, "Final net balance", p.Balance()),
	)
}

// groupRows emits turnover and VAT per group, skipping zero amounts.
func groupRows(tag Tag, turnoverFmt, vatFmt string, groups []aggregate.GroupLine) []Row {
	var rows []Row
	for _, g := range groups {
		pct := g.Percent.String()
		if !g.Turnover.IsZero() {
			rows = append(rows, summary(tag, fmt.Sprintf(turnoverFmt, g.Label, pct), g.Turnover))
		}
		if vat := g.VAT(); !vat.IsZero() {
			rows = append(rows, summary(tag, fmt.Sprintf(vatFmt, g.Label, pct), vat))
		}
	}
	return rows
}

func summary(tag Tag, label string, amount decimal.Decimal) Row {
	return Row{Label: label, Amount: amount.StringFixed(2), Tag: tag}
}
