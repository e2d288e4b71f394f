package handler

import (
	"fmt"
	"net/http"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"go.uber.org/zap"
)

// ScheduleHandler serves milestones, tasks and time entries
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	logger          *zap.Logger
}

func NewScheduleHandler(scheduleService *service.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		logger:          logger,
	}
}

// GetSchedule godoc
// @Summary Get project schedule
// @Description Milestones by due date and tasks by creation, with the project's logged hours
// @Tags Schedule
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} domain.ScheduleDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/schedule [get]
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	schedule, err := h.scheduleService.GetSchedule(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

// ListMilestones godoc
// @Summary List milestones
// @Tags Schedule
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} domain.MilestoneDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/milestones [get]
func (h *ScheduleHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	milestones, err := h.scheduleService.ListMilestones(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, milestones)
}

// AddMilestone godoc
// @Summary Add milestone
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.CreateMilestoneRequest true "Milestone"
// @Success 201 {object} domain.MilestoneDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/milestones [post]
func (h *ScheduleHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	var req domain.CreateMilestoneRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	milestone, err := h.scheduleService.AddMilestone(r.Context(), projectID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, milestone)
}

// UpdateMilestoneStatus godoc
// @Summary Update milestone status
// @Description Completing a milestone stamps today's date, any other status clears it
// @Tags Schedule
// @Accept json
// @Produce json
// @Param milestoneId path int true "Milestone ID"
// @Param request body domain.UpdateMilestoneStatusRequest true "New status"
// @Success 200 {object} domain.MilestoneDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /milestones/{milestoneId}/status [put]
func (h *ScheduleHandler) UpdateMilestoneStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "milestoneId", "milestone")
	if !ok {
		return
	}

	var req domain.UpdateMilestoneStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	milestone, err := h.scheduleService.UpdateMilestoneStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, milestone)
}

// ListTasks godoc
// @Summary List tasks
// @Tags Schedule
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} domain.TaskDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/tasks [get]
func (h *ScheduleHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	tasks, err := h.scheduleService.ListTasks(r.Context(), projectID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// AddTask godoc
// @Summary Add task
// @Description The optional milestone must belong to the same project
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body domain.CreateTaskRequest true "Task"
// @Success 201 {object} domain.TaskDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /projects/{id}/tasks [post]
func (h *ScheduleHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(w, r, "id", "project")
	if !ok {
		return
	}

	var req domain.CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.scheduleService.AddTask(r.Context(), projectID, &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/tasks/%d", task.ID))
	respondJSON(w, http.StatusCreated, task)
}

// GetTask godoc
// @Summary Get task by ID
// @Tags Schedule
// @Produce json
// @Param taskId path int true "Task ID"
// @Success 200 {object} domain.TaskDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{taskId} [get]
func (h *ScheduleHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "taskId", "task")
	if !ok {
		return
	}

	task, err := h.scheduleService.GetTask(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateTaskStatus godoc
// @Summary Update task status
// @Description Moving a task to done stamps today's date, any other status clears it
// @Tags Schedule
// @Accept json
// @Produce json
// @Param taskId path int true "Task ID"
// @Param request body domain.UpdateTaskStatusRequest true "New status"
// @Success 200 {object} domain.TaskDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{taskId}/status [put]
func (h *ScheduleHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "taskId", "task")
	if !ok {
		return
	}

	var req domain.UpdateTaskStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.scheduleService.UpdateTaskStatus(r.Context(), id, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete task
// @Description Deletes the task together with its time entries
// @Tags Schedule
// @Param taskId path int true "Task ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{taskId} [delete]
func (h *ScheduleHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "taskId", "task")
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteTask(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTimeEntries godoc
// @Summary List time entries of a task
// @Tags Schedule
// @Produce json
// @Param taskId path int true "Task ID"
// @Success 200 {array} domain.TimeEntryDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{taskId}/time-entries [get]
func (h *ScheduleHandler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "taskId", "task")
	if !ok {
		return
	}

	entries, err := h.scheduleService.ListTimeEntries(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// LogTime godoc
// @Summary Log hours against a task
// @Description Records an entry dated today and returns the task's recomputed actual hours
// @Tags Schedule
// @Accept json
// @Produce json
// @Param taskId path int true "Task ID"
// @Param request body domain.LogTimeRequest true "Hours"
// @Success 201 {object} domain.TimeLogDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /tasks/{taskId}/time-entries [post]
func (h *ScheduleHandler) LogTime(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "taskId", "task")
	if !ok {
		return
	}

	var req domain.LogTimeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, total, err := h.scheduleService.LogTime(r.Context(), id, req.Hours, req.Description)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, domain.TimeLogDTO{Entry: *entry, NewActualHours: total})
}
