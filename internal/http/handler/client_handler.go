package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	clientService  *service.ClientService
	projectService *service.ProjectService
	logger         *zap.Logger
}

func NewClientHandler(clientService *service.ClientService, projectService *service.ProjectService, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		clientService:  clientService,
		projectService: projectService,
		logger:         logger,
	}
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Success 200 {array} domain.ClientDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// Search godoc
// @Summary Search clients by name
// @Tags Clients
// @Produce json
// @Param q query string true "Name fragment"
// @Param limit query int false "Maximum results" default(20)
// @Success 200 {array} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/search [get]
func (h *ClientHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	clients, err := h.clientService.Search(r.Context(), q, limit)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, clients)
}

// GetByID godoc
// @Summary Get client by ID
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {object} domain.ClientDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "client")
	if !ok {
		return
	}

	client, err := h.clientService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, client)
}

// Create godoc
// @Summary Create client
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body domain.CreateClientRequest true "Client data"
// @Success 201 {object} domain.ClientDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "A client with that name exists"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateClientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	client, err := h.clientService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/clients/%d", client.ID))
	respondJSON(w, http.StatusCreated, client)
}

// Projects godoc
// @Summary List a client's projects
// @Tags Clients
// @Produce json
// @Param id path int true "Client ID"
// @Success 200 {array} domain.ProjectDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id}/projects [get]
func (h *ClientHandler) Projects(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id", "client")
	if !ok {
		return
	}

	if _, err := h.clientService.GetByID(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	projects, err := h.projectService.ListByClient(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}
