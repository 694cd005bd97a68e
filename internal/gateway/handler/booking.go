package handler

import (
	"encoding/json"
	"net/http"

	"quadras/internal/auth"
	"quadras/internal/gateway/service"
	apperrors "quadras/pkg/errors"
	httputil "quadras/pkg/http"
	"quadras/pkg/logger"
	"quadras/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// identity pulls the authenticated caller from the request context. The
// auth middleware guarantees it is there for every /actions route; a miss
// means the handler was wired outside the middleware and must not proceed.
func (h *BookingHandler) identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		h.log.Error("Request reached handler without identity", "path", r.URL.Path)
		h.writeError(w, "identity", apperrors.Unauthenticated("authentication required"))
		return auth.Identity{}, false
	}
	return id, true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, operation string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "operation", operation, "error", writeErr)
	}
}

func (h *BookingHandler) writeSuccess(w http.ResponseWriter, operation string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "operation", operation, "error", err)
	}
}

func (h *BookingHandler) ListCalendars(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ListCalendars(r.Context(), id)
	if err != nil {
		h.writeError(w, "ListCalendars", err)
		return
	}
	h.writeSuccess(w, "ListCalendars", resp)
}

func (h *BookingHandler) FindEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	alias := query.Get("calendar_id")
	if alias == "" {
		h.writeError(w, "FindEvents", apperrors.InvalidInput("calendar_id query parameter is required"))
		return
	}

	resp, err := h.service.FindEvents(r.Context(), id, alias,
		query.Get("time_min_str"),
		query.Get("time_max_str"),
		query.Get("page_token"),
	)
	if err != nil {
		h.writeError(w, "FindEvents", err)
		return
	}
	h.writeSuccess(w, "FindEvents", resp)
}

type createEventBody struct {
	CalendarID string                   `json:"calendar_id"`
	EventData  model.EventCreateRequest `json:"event_data"`
}

func (h *BookingHandler) CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var body createEventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "CreateEvent", apperrors.InvalidInput("invalid request body"))
		return
	}
	if body.CalendarID == "" {
		h.writeError(w, "CreateEvent", apperrors.InvalidInput("calendar_id is required"))
		return
	}

	resp, err := h.service.CreateEvent(r.Context(), id, body.CalendarID, &body.EventData)
	if err != nil {
		h.writeError(w, "CreateEvent", err)
		return
	}
	if err := httputil.WriteCreated(w, resp); err != nil {
		h.log.Error("failed to write created response", "operation", "CreateEvent", "error", err)
	}
}

func (h *BookingHandler) UpdateEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	alias := r.URL.Query().Get("calendar_id")
	if alias == "" {
		h.writeError(w, "UpdateEvent", apperrors.InvalidInput("calendar_id query parameter is required"))
		return
	}

	var req model.EventUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "UpdateEvent", apperrors.InvalidInput("invalid request body"))
		return
	}

	resp, err := h.service.UpdateEvent(r.Context(), id, alias, ps.ByName("event_id"), &req)
	if err != nil {
		h.writeError(w, "UpdateEvent", err)
		return
	}
	h.writeSuccess(w, "UpdateEvent", resp)
}

func (h *BookingHandler) DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	alias := r.URL.Query().Get("calendar_id")
	if alias == "" {
		h.writeError(w, "DeleteEvent", apperrors.InvalidInput("calendar_id query parameter is required"))
		return
	}

	resp, err := h.service.DeleteEvent(r.Context(), id, alias, ps.ByName("event_id"))
	if err != nil {
		h.writeError(w, "DeleteEvent", err)
		return
	}
	h.writeSuccess(w, "DeleteEvent", resp)
}

func (h *BookingHandler) DeleteRecurringEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	alias := query.Get("calendar_id")
	if alias == "" {
		h.writeError(w, "DeleteRecurringEvent", apperrors.InvalidInput("calendar_id query parameter is required"))
		return
	}

	resp, err := h.service.DeleteRecurringEvent(r.Context(), id, alias, ps.ByName("event_id"), query.Get("delete_scope"))
	if err != nil {
		h.writeError(w, "DeleteRecurringEvent", err)
		return
	}
	h.writeSuccess(w, "DeleteRecurringEvent", resp)
}

func (h *BookingHandler) FindAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	alias := query.Get("calendar_id")
	if alias == "" {
		h.writeError(w, "FindAvailability", apperrors.InvalidInput("calendar_id query parameter is required"))
		return
	}
	dateStr := query.Get("date_str")
	if dateStr == "" {
		h.writeError(w, "FindAvailability", apperrors.InvalidInput("date_str query parameter is required"))
		return
	}

	resp, err := h.service.FindAvailability(r.Context(), id, alias, dateStr)
	if err != nil {
		h.writeError(w, "FindAvailability", err)
		return
	}
	h.writeSuccess(w, "FindAvailability", resp)
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/actions/list_calendars", h.ListCalendars)
	router.GET("/actions/find_events", h.FindEvents)
	router.POST("/actions/create_event", h.CreateEvent)
	router.PATCH("/actions/update_event/:event_id", h.UpdateEvent)
	router.DELETE("/actions/delete_event/:event_id", h.DeleteEvent)
	router.DELETE("/actions/delete_recurring_event/:event_id", h.DeleteRecurringEvent)
	router.GET("/actions/find_availability", h.FindAvailability)
}
