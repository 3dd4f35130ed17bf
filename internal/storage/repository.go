package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pq "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/guttosm/fiscalpulse/internal/aggregate"
	"github.com/guttosm/fiscalpulse/internal/domain/models"
)

const dayLayout = "2006-01-02"

// RunRecord is a finalized run as it is persisted.
type RunRecord struct {
	ID           string
	Archive      string
	Checksum     string
	Status       string
	Files        int
	Transactions int
	Malformed    int
	State        *aggregate.State
}

// ReportsRepository defines contract for DB operations.
type ReportsRepository interface {
	SaveRun(ctx context.Context, run RunRecord) error
	ReplaceRun(ctx context.Context, run RunRecord) error
	HasRun(ctx context.Context, checksum string) (bool, error)
	GetPeriodSummary(ctx context.Context, from, to *time.Time) (*aggregate.PeriodAggregate, error)
}

type reportsRepository struct {
	db *sql.DB
}

func NewReportsRepository(db *sql.DB) ReportsRepository {
	return &reportsRepository{db: db}
}

// SaveRun writes the run header, its day totals and its day tax groups in one transaction.
func (r *reportsRepository) SaveRun(ctx context.Context, run RunRecord) error {
	return r.writeRun(ctx, run, false)
}

// ReplaceRun deletes any stored run with the same checksum and writes run in
// its place. Both happen in one transaction, so a failed write keeps the old run.
func (r *reportsRepository) ReplaceRun(ctx context.Context, run RunRecord) error {
	return r.writeRun(ctx, run, true)
}

func (r *reportsRepository) writeRun(ctx context.Context, run RunRecord, replace bool) error {
	if run.State == nil {
		return fmt.Errorf("save run %s: %w", run.ID, aggregate.ErrNotFinalized)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if replace {
		// day rows go with the run (ON DELETE CASCADE)
		if _, err := tx.ExecContext(ctx, `DELETE FROM report_runs WHERE checksum = $1`, run.Checksum); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO report_runs (id, archive, checksum, status, files, transactions, malformed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Archive, run.Checksum, run.Status, run.Files, run.Transactions, run.Malformed); err != nil {
		_ = tx.Rollback()
		return err
	}

	var totals, groups [][]any
	for _, d := range run.State.Days {
		day := toNullDay(d.Date)
		totals = append(totals, []any{run.ID, day, d.Sales, d.Returns})
		for _, g := range d.Groups() {
			groups = append(groups, []any{run.ID, day, g.Label, g.Turnover, g.Percent})
		}
	}

	if err := copyRows(ctx, tx, pq.CopyIn("day_totals", "run_id", "day", "total_sales", "total_returns"), totals); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := copyRows(ctx, tx, pq.CopyIn("day_tax_groups", "run_id", "day", "label", "turnover", "percent"), groups); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func copyRows(ctx context.Context, tx *sql.Tx, query string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

// toNullDay maps the unknown-date bucket to NULL.
func toNullDay(date string) any {
	if date == models.UnknownDate {
		return nil
	}
	d, err := time.Parse(dayLayout, date)
	if err != nil {
		return nil
	}
	return d
}

// HasRun checks if an archive with this checksum was already stored.
func (r *reportsRepository) HasRun(ctx context.Context, checksum string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM report_runs WHERE checksum = $1)`, checksum).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetPeriodSummary recomputes period totals from the stored day rows in
// [from, to]. VAT is not stored; callers derive it from the summed turnover.
// Returns nil, nil when no day rows match. Rows of unknown date are only
// included when no bound is given.
func (r *reportsRepository) GetPeriodSummary(ctx context.Context, from, to *time.Time) (*aggregate.PeriodAggregate, error) {
	conditions, args := dayRange("day", from, to)

	var sales, returns decimal.Decimal
	var days int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COALESCE(SUM(total_sales), 0), COALESCE(SUM(total_returns), 0), COUNT(*)
		FROM day_totals
		WHERE %s
	`, conditions), args...).Scan(&sales, &returns, &days)
	if err != nil {
		return nil, err
	}
	if days == 0 {
		return nil, nil
	}

	groupConditions, _ := dayRange("g.day", from, to)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT g.label, g.turnover, g.percent
		FROM day_tax_groups g
		JOIN report_runs r ON r.id = g.run_id
		WHERE %s
		ORDER BY g.day NULLS LAST, r.created_at
	`, groupConditions), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := &aggregate.PeriodAggregate{Totals: aggregate.Totals{
		Sales:     sales,
		Returns:   returns,
		TaxGroups: map[string]aggregate.TaxGroupTotals{},
	}}
	for rows.Next() {
		var label string
		var turnover, percent decimal.Decimal
		if err := rows.Scan(&label, &turnover, &percent); err != nil {
			return nil, err
		}
		out.TaxGroups[label] = out.TaxGroups[label].Add(turnover, percent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// dayRange builds the WHERE clause for optional bounds on column.
func dayRange(column string, from, to *time.Time) (string, []any) {
	conditions := "TRUE"
	var args []any
	if from != nil {
		args = append(args, *from)
		conditions += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	}
	if to != nil {
		args = append(args, *to)
		conditions += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	}
	return conditions, args
}
