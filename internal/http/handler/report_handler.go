package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/freelance-crm/relation-bot/internal/report"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *service.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Monthly godoc
// @Summary Monthly report
// @Description Statistics for one calendar month. A missing or out-of-range year or month selects the previous month.
// @Tags Reports
// @Produce json
// @Produce text/markdown
// @Param year query int false "Year (2000-2100)"
// @Param month query int false "Month (1-12)"
// @Param format query string false "Response format" Enums(json, markdown) default(json)
// @Success 200 {object} report.Report
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/monthly [get]
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "markdown" {
		respondWithError(w, http.StatusBadRequest, "Invalid format: must be json or markdown")
		return
	}

	rep, err := h.reportService.Generate(r.Context(), optionalIntQuery(r, "year"), optionalIntQuery(r, "month"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	if format == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, rep.Text)
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

// Archive godoc
// @Summary Archive a monthly report
// @Description Renders the month and stores the markdown in report storage, replacing an earlier archive
// @Tags Reports
// @Produce json
// @Param year query int false "Year (2000-2100)"
// @Param month query int false "Month (1-12)"
// @Success 201 {object} domain.ReportArchiveDTO
// @Failure 503 {object} domain.APIError "No archive storage configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/archives [post]
func (h *ReportHandler) Archive(w http.ResponseWriter, r *http.Request) {
	archive, err := h.reportService.Archive(r.Context(), optionalIntQuery(r, "year"), optionalIntQuery(r, "month"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, archive)
}

// ListArchives godoc
// @Summary List archived reports
// @Tags Reports
// @Produce json
// @Success 200 {array} domain.ReportArchiveDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/archives [get]
func (h *ReportHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	archives, err := h.reportService.ListArchives(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, archives)
}

// DownloadArchive godoc
// @Summary Download an archived report
// @Tags Reports
// @Produce text/markdown
// @Param year path int true "Year"
// @Param month path int true "Month"
// @Success 200 {string} string "Markdown report"
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /reports/archives/{year}/{month} [get]
func (h *ReportHandler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(chi.URLParam(r, "year"))
	month, merr := strconv.Atoi(chi.URLParam(r, "month"))
	if yerr != nil || merr != nil || !report.ValidPeriod(year, month) {
		respondWithError(w, http.StatusBadRequest, "Invalid period: year must be 2000-2100 and month 1-12")
		return
	}

	body, err := h.reportService.OpenArchive(r.Context(), year, month)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="monthly-report-%04d-%02d.md"`, year, month))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("failed to stream report archive", zap.Error(err), zap.Int("year", year), zap.Int("month", month))
	}
}
