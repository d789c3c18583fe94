package compliance

import (
	"net/http"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/pkg/httputil"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/bissquit/asset-desk/internal/source"
	"github.com/go-chi/chi/v5"
)

const maxRecurrenceLimit = 1000

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrEquipmentNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidVerdict, Status: http.StatusBadRequest},
	{Error: ErrInvalidGroup, Status: http.StatusBadRequest},
	{Error: ErrInvalidSort, Status: http.StatusBadRequest},
	{Error: sla.ErrEmptyTimeline, Status: http.StatusUnprocessableEntity},
	{Error: source.ErrNotReady, Status: http.StatusServiceUnavailable, Message: "incident data is still loading"},
}

// Handler handles HTTP requests for SLA compliance views.
type Handler struct {
	service *Service
}

// NewHandler creates a new compliance handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers compliance routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sla", h.Report)
	r.Get("/sla/{incidentID}", h.IncidentResult)
	r.Get("/analysis/recurrence", h.Recurrence)
	r.Get("/groups/{group}/queue", h.GroupQueue)
}

// Report handles GET /sla.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	query := ReportQuery{Sort: r.URL.Query().Get("sort")}
	for _, v := range httputil.QueryValues(r, "verdict") {
		query.Verdicts = append(query.Verdicts, sla.Verdict(v))
	}
	if v := r.URL.Query().Get("group"); v != "" {
		group := domain.Group(v)
		query.Group = &group
	}

	report, err := h.service.Report(r.Context(), query)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, report)
}

// IncidentResult handles GET /sla/{incidentID}.
func (h *Handler) IncidentResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.IncidentResult(r.Context(), chi.URLParam(r, "incidentID"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, result)
}

// Recurrence handles GET /analysis/recurrence.
func (h *Handler) Recurrence(w http.ResponseWriter, r *http.Request) {
	limit := httputil.QueryInt(r, "limit", 0, maxRecurrenceLimit)

	entries, err := h.service.Recurrence(r.Context(), limit)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, entries)
}

// GroupQueue handles GET /groups/{group}/queue.
func (h *Handler) GroupQueue(w http.ResponseWriter, r *http.Request) {
	group := domain.Group(chi.URLParam(r, "group"))
	openOnly := r.URL.Query().Get("open") == "true"

	items, err := h.service.GroupQueue(r.Context(), group, openOnly)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, items)
}
