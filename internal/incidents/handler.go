package incidents

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrEquipmentNotFound, Status: http.StatusUnprocessableEntity},
	{Error: ErrInvalidAssignee, Status: http.StatusUnprocessableEntity},
	{Error: ErrOutOfOrder, Status: http.StatusConflict},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrCommentRequired, Status: http.StatusBadRequest},
	{Error: ErrEmptyTitle, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers incident routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)
		r.Get("/{id}", h.GetIncident)
		r.Put("/{id}", h.UpdateIncident)
		r.Delete("/{id}", h.DeleteIncident)
		r.Post("/{id}/history", h.AppendStatus)
	})
}

// MaterialRequest describes a spare part in a request body.
type MaterialRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	PartNumber string `json:"part_number"`
	Quantity   int    `json:"quantity" validate:"min=1"`
}

// CreateIncidentRequest is the request body for opening an incident.
type CreateIncidentRequest struct {
	EquipmentID   string            `json:"equipment_id" validate:"required"`
	Title         string            `json:"title" validate:"required,max=200"`
	Description   string            `json:"description"`
	Status        string            `json:"status"`
	Comment       string            `json:"comment"`
	AssignedTo    *string           `json:"assigned_to"`
	MaterialsUsed []MaterialRequest `json:"materials_used" validate:"dive"`
}

// UpdateIncidentRequest is the request body for editing an incident.
type UpdateIncidentRequest struct {
	Title         string            `json:"title" validate:"required,max=200"`
	Description   string            `json:"description"`
	AssignedTo    *string           `json:"assigned_to"`
	MaterialsUsed []MaterialRequest `json:"materials_used" validate:"dive"`
}

// AppendStatusRequest is the request body for adding a history entry.
type AppendStatusRequest struct {
	Status    string     `json:"status" validate:"required"`
	Comment   string     `json:"comment" validate:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

func toMaterials(req []MaterialRequest) []domain.Material {
	out := make([]domain.Material, 0, len(req))
	for _, m := range req {
		out = append(out, domain.Material{
			ID:         m.ID,
			Name:       m.Name,
			PartNumber: m.PartNumber,
			Quantity:   m.Quantity,
		})
	}
	return out
}

// assignee treats an empty string as unassigned.
func assignee(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		EquipmentID: q.Get("equipment_id"),
		AssignedTo:  q.Get("assigned_to"),
		OpenOnly:    q.Get("open") == "true",
	}
	for _, s := range httputil.QueryValues(r, "status") {
		filter.Statuses = append(filter.Statuses, domain.IncidentStatus(s))
	}

	list, err := h.service.ListIncidents(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, list)
}

// CreateIncident handles POST /incidents.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.CreateIncident(r.Context(), CreateIncidentInput{
		EquipmentID:   req.EquipmentID,
		Title:         req.Title,
		Description:   req.Description,
		Status:        domain.IncidentStatus(req.Status),
		Comment:       req.Comment,
		AssignedTo:    assignee(req.AssignedTo),
		MaterialsUsed: toMaterials(req.MaterialsUsed),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// GetIncident handles GET /incidents/{id}.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.GetIncident(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// UpdateIncident handles PUT /incidents/{id}.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.UpdateIncident(r.Context(), chi.URLParam(r, "id"), UpdateIncidentInput{
		Title:         req.Title,
		Description:   req.Description,
		AssignedTo:    assignee(req.AssignedTo),
		MaterialsUsed: toMaterials(req.MaterialsUsed),
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// AppendStatus handles POST /incidents/{id}/history.
func (h *Handler) AppendStatus(w http.ResponseWriter, r *http.Request) {
	var req AppendStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.AppendStatus(r.Context(), chi.URLParam(r, "id"), AppendStatusInput{
		Status:    domain.IncidentStatus(req.Status),
		Comment:   req.Comment,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// DeleteIncident handles DELETE /incidents/{id}.
func (h *Handler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteIncident(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
