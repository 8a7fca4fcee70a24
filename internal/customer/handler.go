package customer

import (
	"encoding/json"
	"errors"
	"net/http"

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
	case errors.Is(err, ErrCustomerNotFound):
		h.respondError(w, http.StatusNotFound, ErrCustomerNotFound.Error())
	case errors.Is(err, ErrDocumentTaken):
		h.respondError(w, http.StatusConflict, ErrDocumentTaken.Error())
	case errors.Is(err, ErrWalkInProtected):
		h.respondError(w, http.StatusForbidden, ErrWalkInProtected.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (h *Handler) HandleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var customer Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Create(&customer); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":   "success",
		"message":  "Customer created successfully.",
		"customer": customer,
	})
}

func (h *Handler) HandleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var customer Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	customer.ID = r.PathValue("customerID")

	if err := h.service.Update(&customer); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  "Customer updated successfully.",
		"customer": customer,
	})
}

func (h *Handler) HandleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.PathValue("customerID")); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Customer deleted successfully.",
	})
}

func (h *Handler) HandleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.GetByID(r.PathValue("customerID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"customer": customer,
	})
}

func (h *Handler) HandleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.Search(r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve customers")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"customers": customers,
	})
}
