package handler

import (
	"net/http"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"go.uber.org/zap"
)

type RedmineHandler struct {
	syncService *service.SyncService
	logger      *zap.Logger
}

func NewRedmineHandler(syncService *service.SyncService, logger *zap.Logger) *RedmineHandler {
	return &RedmineHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// SetupConfig godoc
// @Summary Link a project to Redmine
// @Description Verifies the Redmine project identifier with the given key, then stores or replaces the link
// @Tags Redmine
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.SetupRedmineRequest true "Redmine connection"
// @Success 200 {object} domain.RedmineConfigDTO
// @Failure 400 {object} domain.APIError "Invalid input or unknown Redmine project"
// @Failure 404 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Redmine unreachable or rejected the request"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/redmine [put]
func (h *RedmineHandler) SetupConfig(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	var req domain.SetupRedmineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	cfg, err := h.syncService.SetupConfig(r.Context(), projectID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// GetConfig godoc
// @Summary Get a project's Redmine link
// @Tags Redmine
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} domain.RedmineConfigDTO
// @Failure 404 {object} domain.APIError
// @Failure 412 {object} domain.APIError "Project not linked"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/redmine [get]
func (h *RedmineHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	cfg, err := h.syncService.GetConfig(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// BulkSync godoc
// @Summary Create Redmine issues for unsynced tasks
// @Description Tasks are synced one by one. A failing task is reported and does not stop the others.
// @Tags Redmine
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} domain.BulkSyncResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 412 {object} domain.APIError "Project not linked or nothing to sync"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/redmine/sync [post]
func (h *RedmineHandler) BulkSync(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	result, err := h.syncService.BulkSync(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SyncTask godoc
// @Summary Sync one task to Redmine
// @Description Creates the issue on first sync and updates it afterwards
// @Tags Redmine
// @Produce json
// @Param taskId path int true "Task ID"
// @Success 200 {object} domain.TaskSyncResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 412 {object} domain.APIError "Project not linked"
// @Failure 502 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{taskId}/redmine/sync [post]
func (h *RedmineHandler) SyncTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := idParam(w, r, "taskId", "task")
	if !ok {
		return
	}

	result, err := h.syncService.SyncTask(r.Context(), taskID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RemoteIssue godoc
// @Summary Get the Redmine issue of a task
// @Tags Redmine
// @Produce json
// @Param taskId path int true "Task ID"
// @Success 200 {object} redmine.Issue
// @Failure 404 {object} domain.APIError "Task missing or never synced"
// @Failure 502 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{taskId}/redmine [get]
func (h *RedmineHandler) RemoteIssue(w http.ResponseWriter, r *http.Request) {
	taskID, ok := idParam(w, r, "taskId", "task")
	if !ok {
		return
	}

	issue, err := h.syncService.GetRemoteIssue(r.Context(), taskID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, issue)
}
