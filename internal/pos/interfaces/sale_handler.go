package interfaces

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dfigueredo/PosAdmin/internal/pos/application"
	"github.com/dfigueredo/PosAdmin/internal/pos/domain"
	posErrors "github.com/dfigueredo/PosAdmin/internal/pos/errors"
)

type SaleServiceInterface interface {
	GetByID(id string) (*domain.Sale, error)
	Recent(limit int) ([]domain.Sale, error)
	InRange(from, to time.Time) ([]domain.Sale, error)
	DailySummary(day time.Time) (*application.DailySummary, error)
}

type SaleHandler struct {
	service      SaleServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewSaleHandler(
	service SaleServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *SaleHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &SaleHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.service.GetByID(r.PathValue("saleID"))
	if err != nil {
		if errors.Is(err, domain.ErrSaleNotFound) {
			h.respondError(w, http.StatusNotFound, "Sale not found")
			return
		}
		log.Printf("Error retrieving sale: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve sale")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   sale,
	})
}

// GetSales lists sales, most recent first. With both start_date and end_date
// query parameters it lists the range instead.
func (h *SaleHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	startDate := r.URL.Query().Get("start_date")
	endDate := r.URL.Query().Get("end_date")

	var sales []domain.Sale
	var err error

	if startDate != "" || endDate != "" {
		var from, to time.Time
		from, err = time.Parse("2006-01-02", startDate)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD")
			return
		}
		to, err = time.Parse("2006-01-02", endDate)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		sales, err = h.service.InRange(from, to.Add(24*time.Hour))
	} else {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				h.respondError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
		}
		sales, err = h.service.Recent(limit)
	}

	if err != nil {
		if posErrors.IsValidationError(err) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error retrieving sales: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve sales")
		return
	}

	if sales == nil {
		sales = []domain.Sale{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   sales,
	})
}

// GetDailySummary reports the day's totals. Defaults to today.
func (h *SaleHandler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	summary, err := h.service.DailySummary(day)
	if err != nil {
		log.Printf("Error computing daily summary: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to compute daily summary")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}
