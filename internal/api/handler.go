package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fiscalpulse/internal/aggregate"
	"github.com/guttosm/fiscalpulse/internal/archive"
	"github.com/guttosm/fiscalpulse/internal/domain/dto"
	"github.com/guttosm/fiscalpulse/internal/ingestion"
	"github.com/guttosm/fiscalpulse/internal/middleware"
	"github.com/guttosm/fiscalpulse/internal/render"
	"github.com/guttosm/fiscalpulse/internal/service"
)

const (
	uploadField = "archive"
	dateLayout  = "2006-01-02"
)

// Handler provides the report endpoints.
type Handler struct {
	svc       service.ReportService
	maxUpload int64 // bytes
}

// NewHandler builds a Handler. maxUploadMB bounds the multipart body.
func NewHandler(svc service.ReportService, maxUploadMB int) *Handler {
	return &Handler{svc: svc, maxUpload: int64(maxUploadMB) << 20}
}

// PostReport godoc
// @Summary      Build a report from an archive
// @Description  Runs the pipeline over the uploaded zip archive and returns the rendered report. Nothing is stored. An archive without transactions yields a JSON body with status "empty".
// @Tags         reports
// @Accept       multipart/form-data
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      application/pdf
// @Param        archive  formData  file    true   "Zip archive of register exports"
// @Param        format   query     string  false  "xlsx | json | pdf" default(xlsx)
// @Success      200      {object}  dto.ReportResponse  "JSON report or document bytes"
// @Failure      400      {object}  dto.ErrorResponse   "Missing or oversized upload, bad format"
// @Failure      422      {object}  dto.ErrorResponse   "Archive unreadable"
// @Failure      500      {object}  dto.ErrorResponse   "Internal Error"
// @Failure      501      {object}  dto.ErrorResponse   "PDF font not configured"
// @Router       /api/v1/reports [post]
func (h *Handler) PostReport(c *gin.Context) {
	format, err := render.ParseFormat(c.Query("format"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid format, expected xlsx, json or pdf", err)
		return
	}

	name, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	rep, err := h.svc.Generate(c.Request.Context(), name, data, format)
	switch {
	case err == nil:
	case errors.Is(err, archive.ErrUnreadable):
		middleware.AbortWithError(c, http.StatusUnprocessableEntity, "archive unreadable", err)
		return
	case errors.Is(err, render.ErrFontRequired):
		middleware.AbortWithError(c, http.StatusNotImplemented, "pdf export is not configured", err)
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		_ = c.Error(err)
		return
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to build report", err)
		return
	}

	res := rep.Result
	c.Header("X-Run-ID", res.RunID)
	c.Header("X-Report-Status", string(res.Status))

	if res.Status == ingestion.StatusEmpty && format != render.FormatJSON {
		c.JSON(http.StatusOK, render.Response(service.MetaOf(res), nil))
		return
	}
	if format != render.FormatJSON {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reportName(name, format)))
	}
	c.Data(http.StatusOK, format.ContentType(), rep.Document)
}

// readUpload returns the uploaded archive; on failure the response is already written.
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.AbortWithError(c, http.StatusBadRequest, "archive too large", err)
		} else {
			middleware.AbortWithError(c, http.StatusBadRequest, "archive file is required", err)
		}
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "archive file is unreadable", err)
		return "", nil, false
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "archive file is unreadable", err)
		return "", nil, false
	}
	return filepath.Base(fh.Filename), data, true
}

func reportName(archiveName string, format render.Format) string {
	return strings.TrimSuffix(archiveName, filepath.Ext(archiveName)) + format.Ext()
}

// GetSummary godoc
// @Summary      Stored period summary
// @Description  Recomputes period totals from stored day rows. VAT is derived from the summed turnover of each group.
// @Tags         reports
// @Produce      json
// @Param        from  query     string  false  "First day, YYYY-MM-DD" example(2024-01-01)
// @Param        to    query     string  false  "Last day, YYYY-MM-DD" example(2024-01-31)
// @Success      200   {object}  dto.SummaryResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse    "Bad Request"
// @Failure      404   {object}  dto.ErrorResponse    "Not Found"
// @Failure      503   {object}  dto.ErrorResponse    "Persistence disabled"
// @Router       /api/v1/summary [get]
func (h *Handler) GetSummary(c *gin.Context) {
	from, err := optionalDate(c.Query("from"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid from, expected YYYY-MM-DD", err)
		return
	}
	to, err := optionalDate(c.Query("to"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid to, expected YYYY-MM-DD", err)
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		middleware.AbortWithError(c, http.StatusBadRequest, "to must not be before from", nil)
		return
	}

	p, err := h.svc.GetSummary(c.Request.Context(), from, to)
	if errors.Is(err, service.ErrPersistenceDisabled) {
		middleware.AbortWithError(c, http.StatusServiceUnavailable, "persistence disabled", err)
		return
	}
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to fetch summary", err)
		return
	}
	if p == nil {
		middleware.AbortWithError(c, http.StatusNotFound, "no data found", nil)
		return
	}

	c.JSON(http.StatusOK, summaryResponse(c.Query("from"), c.Query("to"), p))
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func summaryResponse(from, to string, p *aggregate.PeriodAggregate) dto.SummaryResponse {
	resp := dto.SummaryResponse{
		From:      from,
		To:        to,
		Sales:     p.Sales.StringFixed(2),
		Returns:   p.Returns.StringFixed(2),
		Balance:   p.Balance().StringFixed(2),
		TaxGroups: []dto.GroupSummary{},
	}
	for _, g := range p.Groups() {
		resp.TaxGroups = append(resp.TaxGroups, dto.GroupSummary{
			Label:    g.Label,
			Percent:  g.Percent.String(),
			Turnover: g.Turnover.StringFixed(2),
			VAT:      g.VAT().StringFixed(2),
		})
	}
	return resp
}
