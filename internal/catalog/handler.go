package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
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

type productRequest struct {
	Name     string `json:"name"`
	Barcode  string `json:"barcode"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Stock    int    `json:"stock"`
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (*Product, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	price, err := domain.ParseAmount(req.Price)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Price must be a positive amount with at most two decimals")
		return nil, false
	}

	return &Product{
		Name:     req.Name,
		Barcode:  req.Barcode,
		Category: req.Category,
		Price:    price,
		Stock:    req.Stock,
	}, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case posErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProductNotFound):
		h.respondError(w, http.StatusNotFound, ErrProductNotFound.Error())
	case errors.Is(err, ErrBarcodeTaken):
		h.respondError(w, http.StatusConflict, ErrBarcodeTaken.Error())
	case errors.Is(err, ErrInsufficientStock):
		h.respondError(w, http.StatusConflict, ErrInsufficientStock.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	if err := h.service.Create(product); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Product created successfully.",
		"product": product,
	})
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = r.PathValue("productID")

	if err := h.service.Update(product); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Product updated successfully.",
		"product": product,
	})
}

func (h *Handler) HandleDeactivateProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.PathValue("productID")); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Product deactivated successfully.",
	})
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetByID(r.PathValue("productID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"product": product,
	})
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var products []Product
	var err error
	if query != "" {
		products, err = h.service.Search(query)
	} else {
		products, err = h.service.List(r.URL.Query().Get("all") != "true")
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"products": products,
	})
}

func (h *Handler) HandleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.service.AdjustStock(r.PathValue("productID"), req.Delta)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Stock adjusted successfully.",
		"product": product,
	})
}
