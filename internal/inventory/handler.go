package inventory

import (
	"encoding/json"
	"net/http"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrEquipmentNotFound, Status: http.StatusNotFound},
	{Error: ErrSerialNumberTaken, Status: http.StatusConflict},
	{Error: ErrEquipmentInUse, Status: http.StatusConflict, Message: "equipment has incidents and cannot be deleted"},
	{Error: ErrEmptySerialNumber, Status: http.StatusBadRequest},
	{Error: ErrInvalidType, Status: http.StatusBadRequest},
	{Error: ErrInvalidGroup, Status: http.StatusBadRequest},
	{Error: ErrInvalidPurchaseDate, Status: http.StatusBadRequest},
	{Error: ErrInvalidResponseTime, Status: http.StatusBadRequest},
	{Error: ErrInvalidResolutionTime, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for the inventory module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new inventory handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers equipment routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/equipment", func(r chi.Router) {
		r.Get("/", h.ListEquipment)
		r.Post("/", h.CreateEquipment)
		r.Get("/{id}", h.GetEquipment)
		r.Put("/{id}", h.UpdateEquipment)
		r.Delete("/{id}", h.DeleteEquipment)
	})
}

// DetailsRequest holds the descriptive equipment fields.
type DetailsRequest struct {
	SerialNumber string `json:"serial_number" validate:"required,min=1,max=128"`
	Model        string `json:"model" validate:"max=255"`
	Manufacturer string `json:"manufacturer" validate:"max=255"`
	Type         string `json:"type" validate:"required,oneof=Portátil Sobremesa Monitor Impresora Software Otro"`
	PurchaseDate string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	Group        string `json:"group" validate:"required,oneof=Software Hardware"`
}

// ToInput converts the request to service input.
func (r *DetailsRequest) ToInput() DetailsInput {
	return DetailsInput{
		SerialNumber: r.SerialNumber,
		Model:        r.Model,
		Manufacturer: r.Manufacturer,
		Type:         domain.EquipmentType(r.Type),
		PurchaseDate: r.PurchaseDate,
		Group:        domain.Group(r.Group),
	}
}

// CreateEquipmentRequest represents the request body for registering equipment.
type CreateEquipmentRequest struct {
	DetailsRequest
	ResponseTime   string `json:"response_time" validate:"required,oneof=1hora 2horas 4horas 8horas NBD"`
	ResolutionTime string `json:"resolution_time" validate:"required,oneof=2horas 4horas 8horas NBD"`
}

// UpdateEquipmentRequest represents the request body for updating equipment.
// SLA categories are not part of it.
type UpdateEquipmentRequest struct {
	DetailsRequest
}

// ListEquipment handles GET /equipment.
func (h *Handler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	var filter Filter
	if v := r.URL.Query().Get("group"); v != "" {
		group := domain.Group(v)
		filter.Group = &group
	}
	if v := r.URL.Query().Get("type"); v != "" {
		typ := domain.EquipmentType(v)
		filter.Type = &typ
	}

	equipment, err := h.service.ListEquipment(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, equipment)
}

// CreateEquipment handles POST /equipment.
func (h *Handler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
	var req CreateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	equipment, err := h.service.CreateEquipment(r.Context(), CreateEquipmentInput{
		DetailsInput:   req.ToInput(),
		ResponseTime:   req.ResponseTime,
		ResolutionTime: req.ResolutionTime,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, equipment)
}

// GetEquipment handles GET /equipment/{id}.
func (h *Handler) GetEquipment(w http.ResponseWriter, r *http.Request) {
	equipment, err := h.service.GetEquipment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, equipment)
}

// UpdateEquipment handles PUT /equipment/{id}.
func (h *Handler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	var req UpdateEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	equipment, err := h.service.UpdateEquipment(r.Context(), chi.URLParam(r, "id"), req.ToInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, equipment)
}

// DeleteEquipment handles DELETE /equipment/{id}.
func (h *Handler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEquipment(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
