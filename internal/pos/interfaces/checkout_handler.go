package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/dfigueredo/PosAdmin/internal/catalog"
	"github.com/dfigueredo/PosAdmin/internal/customer"
	"github.com/dfigueredo/PosAdmin/internal/pos/application"
	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

type CheckoutServiceInterface interface {
	StartSession(cashierID string) (*application.SessionView, error)
	GetSession(sessionID string) (*application.SessionView, error)
	AddProduct(sessionID, productID string, quantity int) (*application.SessionView, error)
	SetLineQuantity(sessionID, productID string, quantity int) (*application.SessionView, error)
	SelectCustomer(sessionID, customerID string) (*application.SessionView, error)
	AddPayment(sessionID, methodID string, amount domain.Cents) (*application.SessionView, error)
	RemovePayment(sessionID string, index int) (*application.SessionView, error)
	AddChangePayment(sessionID, methodID string, amount domain.Cents) (*application.SessionView, error)
	RemoveChangePayment(sessionID string, index int) (*application.SessionView, error)
	Advance(sessionID string) (*application.SessionView, error)
	Back(sessionID string) (*application.SessionView, error)
	Complete(sessionID string) (*domain.Sale, error)
	Cancel(sessionID string) error
}

type CheckoutHandler struct {
	service      CheckoutServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewCheckoutHandler(
	service CheckoutServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *CheckoutHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &CheckoutHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *CheckoutHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	cashierID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	view, err := h.service.StartSession(cashierID)
	if err != nil {
		h.handleError(w, err, "Failed to start checkout session")
		return
	}
	h.respondSession(w, http.StatusCreated, view)
}

func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetSession(r.PathValue("sessionID"))
	if err != nil {
		h.handleError(w, err, "Failed to retrieve checkout session")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.service.AddProduct(r.PathValue("sessionID"), req.ProductID, req.Quantity)
	if err != nil {
		h.handleError(w, err, "Failed to add product to cart")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) SetLineQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.SetLineQuantity(r.PathValue("sessionID"), r.PathValue("productID"), req.Quantity)
	if err != nil {
		h.handleError(w, err, "Failed to update cart line")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) SelectCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.SelectCustomer(r.PathValue("sessionID"), req.CustomerID)
	if err != nil {
		h.handleError(w, err, "Failed to select customer")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	methodID, amount, ok := h.decodePayment(w, r)
	if !ok {
		return
	}

	view, err := h.service.AddPayment(r.PathValue("sessionID"), methodID, amount)
	if err != nil {
		h.handleError(w, err, "Failed to add payment")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) RemovePayment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid payment index")
		return
	}

	view, err := h.service.RemovePayment(r.PathValue("sessionID"), index)
	if err != nil {
		h.handleError(w, err, "Failed to remove payment")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) AddChangePayment(w http.ResponseWriter, r *http.Request) {
	methodID, amount, ok := h.decodePayment(w, r)
	if !ok {
		return
	}

	view, err := h.service.AddChangePayment(r.PathValue("sessionID"), methodID, amount)
	if err != nil {
		h.handleError(w, err, "Failed to add change payment")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) RemoveChangePayment(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid change payment index")
		return
	}

	view, err := h.service.RemoveChangePayment(r.PathValue("sessionID"), index)
	if err != nil {
		h.handleError(w, err, "Failed to remove change payment")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) Advance(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Advance(r.PathValue("sessionID"))
	if err != nil {
		h.handleError(w, err, "Failed to advance checkout stage")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Back(r.PathValue("sessionID"))
	if err != nil {
		h.handleError(w, err, "Failed to go back a checkout stage")
		return
	}
	h.respondSession(w, http.StatusOK, view)
}

func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sale, err := h.service.Complete(r.PathValue("sessionID"))
	if err != nil {
		h.handleError(w, err, "Failed to complete sale")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Sale completed successfully.",
		"data":    sale,
	})
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.PathValue("sessionID")); err != nil {
		h.handleError(w, err, "Failed to cancel checkout session")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Checkout session cancelled.",
	})
}

func (h *CheckoutHandler) decodePayment(w http.ResponseWriter, r *http.Request) (string, domain.Cents, bool) {
	var req struct {
		MethodID string `json:"method_id"`
		Amount   string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return "", 0, false
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid amount: "+req.Amount)
		return "", 0, false
	}
	return req.MethodID, amount, true
}

func (h *CheckoutHandler) respondSession(w http.ResponseWriter, status int, view *application.SessionView) {
	h.respondJSON(w, status, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

func (h *CheckoutHandler) handleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, customer.ErrCustomerNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrWrongStage),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrNoCustomer),
		errors.Is(err, domain.ErrNotPayable),
		errors.Is(err, domain.ErrSessionCompleted):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, catalog.ErrProductDeactivated),
		posErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("Checkout error: %v", err)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}
