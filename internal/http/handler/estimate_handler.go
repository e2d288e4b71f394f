package handler

import (
	"fmt"
	"net/http"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"go.uber.org/zap"
)

type EstimateHandler struct {
	estimateService *service.EstimateService
	logger          *zap.Logger
}

func NewEstimateHandler(estimateService *service.EstimateService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		logger:          logger,
	}
}

// Get godoc
// @Summary Get project estimate
// @Description All estimate lines of a project with the recomputed total
// @Tags Estimates
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/estimate [get]
func (h *EstimateHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	estimate, err := h.estimateService.GetEstimate(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// AddItem godoc
// @Summary Add estimate line
// @Description Adds a line and stores the new estimate total on the project. Quantity defaults to 1.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.AddEstimateItemRequest true "Line item"
// @Success 201 {object} domain.EstimateMutationDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/estimate/items [post]
func (h *EstimateHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	var req domain.AddEstimateItemRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	item, total, err := h.estimateService.AddLineItem(r.Context(), projectID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/projects/%d/estimate", projectID))
	respondJSON(w, http.StatusCreated, domain.EstimateMutationDTO{Item: item, Found: true, NewTotal: total})
}

// DeleteItem godoc
// @Summary Delete estimate line
// @Description Deletes a line and recomputes the owning project's total
// @Tags Estimates
// @Produce json
// @Param itemId path int true "Estimate line ID"
// @Success 200 {object} domain.EstimateMutationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimate-items/{itemId} [delete]
func (h *EstimateHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := idParam(w, r, "itemId", "estimate item")
	if !ok {
		return
	}

	found, total, err := h.estimateService.DeleteLineItem(r.Context(), itemID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if !found {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("estimate item %d not found", itemID))
		return
	}
	respondJSON(w, http.StatusOK, domain.EstimateMutationDTO{Found: true, NewTotal: total})
}
