package license

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
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

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case posErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrLicenseNotFound):
		h.respondError(w, http.StatusNotFound, ErrLicenseNotFound.Error())
	case errors.Is(err, ErrNoLicense):
		h.respondError(w, http.StatusNotFound, ErrNoLicense.Error())
	case errors.Is(err, ErrLicenseExpired):
		h.respondError(w, http.StatusPaymentRequired, ErrLicenseExpired.Error())
	case errors.Is(err, ErrLicenseInactive):
		h.respondError(w, http.StatusForbidden, ErrLicenseInactive.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (h *Handler) HandleIssueLicense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BusinessName string `json:"business_name"`
		BusinessRIF  string `json:"business_rif"`
		Plan         string `json:"plan"`
		DurationDays int    `json:"duration_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	license, err := h.service.Issue(req.BusinessName, req.BusinessRIF, Plan(req.Plan),
		time.Duration(req.DurationDays)*24*time.Hour)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "License issued successfully.",
		"license": license,
	})
}

func (h *Handler) HandleActivateLicense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	license, err := h.service.Activate(req.Key)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "License activated successfully.",
		"license": license,
	})
}

func (h *Handler) HandleLicenseStatus(w http.ResponseWriter, _ *http.Request) {
	license, err := h.service.Status()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"license": license,
	})
}

func (h *Handler) HandleRenewLicense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key          string `json:"key"`
		DurationDays int    `json:"duration_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	license, err := h.service.Renew(req.Key, time.Duration(req.DurationDays)*24*time.Hour)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "License renewed successfully.",
		"license": license,
	})
}
