package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/safety-check-service/internal/chat"
	"github.com/couchcryptid/safety-check-service/internal/domain"
	"github.com/couchcryptid/safety-check-service/internal/session"
)

const maxBodyBytes = 64 << 10

type checkSafetyRequest struct {
	Location string `json:"location"`
	// Zipcode is the legacy request key, used when Location is empty.
	Zipcode string `json:"zipcode"`
}

type coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type checkSafetyResponse struct {
	Location    string                    `json:"location"`
	Input       string                    `json:"input"`
	Coordinates coordinates               `json:"coordinates"`
	City        string                    `json:"city"`
	State       string                    `json:"state"`
	Alerts      []domain.WeatherAlert     `json:"alerts"`
	Weather     *domain.WeatherConditions `json:"weather"`
	Crime       domain.CrimeAssessment    `json:"crime"`
	AlertCount  int                       `json:"alert_count"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

type enableNotificationsRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type enableNotificationsResponse struct {
	Status string `json:"status"`
	Email  bool   `json:"email"`
	SMS    bool   `json:"sms"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCheckSafety(w http.ResponseWriter, r *http.Request) {
	var req checkSafetyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}
	input := strings.TrimSpace(req.Location)
	if input == "" {
		input = strings.TrimSpace(req.Zipcode)
	}

	report, err := s.deps.Reports.BuildReport(r.Context(), input)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Please enter a location (ZIP code, city, or address)")
		return
	case err != nil:
		writeError(w, http.StatusNotFound, "Location not found. Please check the spelling or try a ZIP code.")
		return
	}

	sess := sessionFrom(r.Context())
	sess.update(func(st *session.State) {
		st.MonitoredLocation = report.Location.Label()
		st.MonitoredInput = input
	})

	writeJSON(w, http.StatusOK, checkSafetyResponse{
		Location:    report.Location.Label(),
		Input:       input,
		Coordinates: coordinates{Lat: report.Location.Lat, Lon: report.Location.Lon},
		City:        report.Location.City,
		State:       report.Location.State,
		Alerts:      report.Alerts,
		Weather:     report.Weather,
		Crime:       report.Crime,
		AlertCount:  report.AlertCount,
		GeneratedAt: report.GeneratedAt,
	})
}

func (s *Server) handleEnableNotifications(w http.ResponseWriter, r *http.Request) {
	var req enableNotificationsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)

	// Only keys present in this request overwrite the saved contact points.
	sess := sessionFrom(r.Context())
	sess.update(func(st *session.State) {
		if email != "" {
			st.NotificationEmail = email
		}
		if phone != "" {
			st.NotificationPhone = phone
		}
	})

	writeJSON(w, http.StatusOK, enableNotificationsResponse{
		Status: "enabled",
		Email:  email != "",
		SMS:    phone != "",
	})
}

func (s *Server) handleTestAlert(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context()).snapshot()
	res := s.deps.Notifier.SendTest(r.Context(), st.Preference(), st.MonitoredLocation)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}

	reply, err := s.deps.Chat.Route(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No message provided")
		return
	}

	if reply.Intent == chat.IntentLocation && reply.Report != nil {
		sessionFrom(r.Context()).update(func(st *session.State) {
			st.MonitoredLocation = reply.Report.Location.Label()
			st.MonitoredInput = reply.Query
		})
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Text})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
