package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

type PaymentMethodServiceInterface interface {
	Create(method *domain.PaymentMethod) error
	Update(method *domain.PaymentMethod) error
	Delete(id string) error
	GetByID(id string) (*domain.PaymentMethod, error)
	List() ([]domain.PaymentMethod, error)
	ChangeCapableMethods() ([]domain.PaymentMethod, error)
}

type PaymentMethodHandler struct {
	service      PaymentMethodServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewPaymentMethodHandler(
	service PaymentMethodServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *PaymentMethodHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &PaymentMethodHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type paymentMethodRequest struct {
	Name                  string `json:"name"`
	Currency              string `json:"currency"`
	Kind                  string `json:"kind"`
	GivesChange           bool   `json:"gives_change"`
	ManagesOpeningBalance bool   `json:"manages_opening_balance"`
}

func (h *PaymentMethodHandler) CreateMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	method := &domain.PaymentMethod{
		Name:                  req.Name,
		Currency:              domain.Currency(req.Currency),
		Kind:                  domain.MethodKind(req.Kind),
		GivesChange:           req.GivesChange,
		ManagesOpeningBalance: req.ManagesOpeningBalance,
	}
	if err := h.service.Create(method); err != nil {
		h.handleError(w, err, "Failed to create payment method")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Payment method successfully created.",
		"data":    method,
	})
}

func (h *PaymentMethodHandler) UpdateMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	method := &domain.PaymentMethod{
		ID:                    r.PathValue("methodID"),
		Name:                  req.Name,
		Currency:              domain.Currency(req.Currency),
		Kind:                  domain.MethodKind(req.Kind),
		GivesChange:           req.GivesChange,
		ManagesOpeningBalance: req.ManagesOpeningBalance,
	}
	if err := h.service.Update(method); err != nil {
		h.handleError(w, err, "Failed to update payment method")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Payment method successfully updated.",
		"data":    method,
	})
}

func (h *PaymentMethodHandler) DeleteMethod(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.PathValue("methodID")); err != nil {
		h.handleError(w, err, "Failed to delete payment method")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Payment method successfully deleted.",
	})
}

func (h *PaymentMethodHandler) GetMethod(w http.ResponseWriter, r *http.Request) {
	method, err := h.service.GetByID(r.PathValue("methodID"))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve payment method")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   method,
	})
}

// GetMethods lists the catalog; ?change_capable=true narrows it to methods
// that may disburse change.
func (h *PaymentMethodHandler) GetMethods(w http.ResponseWriter, r *http.Request) {
	var methods []domain.PaymentMethod
	var err error

	if r.URL.Query().Get("change_capable") == "true" {
		methods, err = h.service.ChangeCapableMethods()
	} else {
		methods, err = h.service.List()
	}
	if err != nil {
		h.handleError(w, err, "Failed to retrieve payment methods")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   methods,
	})
}

func (h *PaymentMethodHandler) handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrMethodNotFound):
		h.respondError(w, http.StatusNotFound, "Payment method not found")
	case errors.Is(err, domain.ErrMethodInUse):
		h.respondError(w, http.StatusConflict, "Payment method is referenced by recorded sales and cannot be changed")
	case posErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Payment method error: %v", err)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}
