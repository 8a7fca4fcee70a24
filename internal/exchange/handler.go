package exchange

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Handler struct {
	service      Service
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string)
}

func NewHandler(
	service Service,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *Handler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &Handler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *Handler) HandleGetCurrentRate(w http.ResponseWriter, _ *http.Request) {
	rate, err := h.service.Current()
	if err != nil {
		if errors.Is(err, ErrNoRate) {
			h.respondError(w, http.StatusNotFound, "No exchange rate registered yet")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve current exchange rate")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"rate":   rate,
	})
}

func (h *Handler) HandleSetManualRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rate, err := h.service.SetManual(req.Value)
	if err != nil {
		if errors.Is(err, ErrInvalidRate) {
			h.respondError(w, http.StatusBadRequest, ErrInvalidRate.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to register exchange rate")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Exchange rate registered successfully.",
		"rate":    rate,
	})
}

func (h *Handler) HandleGetRateHistory(w http.ResponseWriter, r *http.Request) {
	end := time.Now()
	start := end.AddDate(0, -1, 0)

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid 'start' date, expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid 'end' date, expected YYYY-MM-DD")
			return
		}
		end = parsed.AddDate(0, 0, 1)
	}

	rates, err := h.service.History(start, end)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve exchange rate history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"rates":  rates,
	})
}
