package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/fiscalpulse/internal/aggregate"
	"github.com/guttosm/fiscalpulse/internal/archive"
	"github.com/guttosm/fiscalpulse/internal/ingestion"
	"github.com/guttosm/fiscalpulse/internal/render"
	"github.com/guttosm/fiscalpulse/internal/storage"
)

// ErrPersistenceDisabled is returned by operations that need the repository
// when the service was built without one.
var ErrPersistenceDisabled = errors.New("persistence disabled")

// Report is a rendered run.
type Report struct {
	Result   *ingestion.Result
	Format   render.Format
	Document []byte
}

// ReportService defines business logic for building and storing reports.
type ReportService interface {
	Generate(ctx context.Context, name string, data []byte, format render.Format) (*Report, error)
	Store(ctx context.Context, res *ingestion.Result, force bool) (stored bool, err error)
	GetSummary(ctx context.Context, from, to *time.Time) (*aggregate.PeriodAggregate, error)
}

// Settings are the pipeline and rendering knobs shared by every call.
type Settings struct {
	Archive archive.Options
	Run     ingestion.Options
	Render  render.Options
}

type reportService struct {
	repo     storage.ReportsRepository // nil when persistence is disabled
	settings Settings
}

// NewReportService builds the service; repo may be nil.
func NewReportService(repo storage.ReportsRepository, settings Settings) ReportService {
	return &reportService{repo: repo, settings: settings}
}

// Generate runs the pipeline over an archive held in memory and renders the
// result. Unreadable archives wrap archive.ErrUnreadable.
func (s *reportService) Generate(ctx context.Context, name string, data []byte, format render.Format) (*Report, error) {
	res, err := ingestion.RunBytes(ctx, name, data, s.settings.Archive, s.settings.Run)
	if err != nil {
		return nil, err
	}
	doc, err := render.Render(format, MetaOf(res), res.Rows(), s.settings.Render)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return &Report{Result: res, Format: format, Document: doc}, nil
}

// Store persists a finalized result. An archive already stored is left alone
// unless force, which replaces it.
func (s *reportService) Store(ctx context.Context, res *ingestion.Result, force bool) (bool, error) {
	if s.repo == nil {
		return false, ErrPersistenceDisabled
	}
	exists, err := s.repo.HasRun(ctx, res.Checksum)
	if err != nil {
		return false, err
	}
	if exists && !force {
		return false, nil
	}
	rec := ingestion.RecordOf(res)
	if exists {
		err = s.repo.ReplaceRun(ctx, rec)
	} else {
		err = s.repo.SaveRun(ctx, rec)
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *reportService) GetSummary(ctx context.Context, from, to *time.Time) (*aggregate.PeriodAggregate, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.GetPeriodSummary(ctx, from, to)
}

// MetaOf describes a result for renderers.
func MetaOf(res *ingestion.Result) render.Meta {
	return render.Meta{
		RunID:              res.RunID,
		Archive:            res.Archive,
		Status:             string(res.Status),
		Files:              res.Files,
		Transactions:       res.Transactions,
		MalformedFragments: res.MalformedFragments,
	}
}
