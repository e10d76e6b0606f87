// Package api exposes the booking coordinator over HTTP. Handlers only
// decode requests and map errors; every admission decision lives in the
// service layer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sarc/internal/booking"
	"sarc/internal/models"
	"sarc/internal/service"
)

// HTTPServer serves the booking endpoints.
type HTTPServer struct {
	coordinator *service.Coordinator
	logger      *zerolog.Logger
}

// NewHTTPServer creates the server over a coordinator.
func NewHTTPServer(coordinator *service.Coordinator, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{coordinator: coordinator, logger: logger}
}

// Handler returns the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/reservations", s.handleBook)
	mux.HandleFunc("GET /api/reservations/class/{classID}", s.handleListByClass)
	mux.HandleFunc("GET /api/reservations/class/{classID}/slot", s.handleListByClassAtSlot)
	return mux
}

// BookRequest is the request body for POST /api/reservations.
type BookRequest struct {
	ClassID    string `json:"class_id"`
	ResourceID string `json:"resource_id"`
	Quantity   int    `json:"quantity"`
	Date       string `json:"date"`   // Format: YYYY-MM-DD
	Period     string `json:"period"` // Period code: A, B, C, ...
}

// ReservationResponse mirrors a persisted reservation.
type ReservationResponse struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	ClassID    string    `json:"class_id"`
	Quantity   int       `json:"quantity"`
	StartsAt   time.Time `json:"starts_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID.String(),
		ResourceID: r.ResourceID.String(),
		ClassID:    r.ClassID.String(),
		Quantity:   r.Quantity,
		StartsAt:   r.StartsAt,
		CreatedAt:  r.CreatedAt,
	}
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	classID, err := uuid.Parse(req.ClassID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid class_id")
		return
	}
	resourceID, err := uuid.Parse(req.ResourceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid resource_id")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	period, err := models.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period code")
		return
	}

	reservation, err := s.coordinator.Book(r.Context(), classID, resourceID, req.Quantity, date, period)
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(reservation))
}

func (s *HTTPServer) handleListByClass(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(r.PathValue("classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid class id")
		return
	}

	reservations, err := s.coordinator.ReservationsForClass(r.Context(), classID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(reservations))
}

func (s *HTTPServer) handleListByClassAtSlot(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(r.PathValue("classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid class id")
		return
	}
	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date; expected YYYY-MM-DD")
		return
	}
	period, err := models.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period code")
		return
	}

	reservations, err := s.coordinator.ReservationsForClassAtSlot(r.Context(), classID, date, period)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponses(reservations))
}

func toResponses(reservations []models.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(reservations))
	for i := range reservations {
		out[i] = toResponse(&reservations[i])
	}
	return out
}

// writeBookingError maps the refusal taxonomy onto status codes. Anything
// outside the taxonomy is an infrastructure failure and stays a 500 so
// clients never mistake an outage for a rejection.
func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error) {
	var capErr *booking.InsufficientCapacityError
	switch {
	case errors.Is(err, booking.ErrClassNotFound), errors.Is(err, booking.ErrResourceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &capErr):
		writeError(w, http.StatusConflict, err.Error())
	case booking.Reason(err) != "":
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.internalError(w, err)
	}
}

func (s *HTTPServer) internalError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("booking api internal error")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
