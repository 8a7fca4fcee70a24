package drawer

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

type balanceRequest struct {
	MethodID string `json:"method_id"`
	Amount   string `json:"amount"`
}

func (h *Handler) parseBalances(w http.ResponseWriter, raw []balanceRequest) ([]MethodBalance, bool) {
	balances := make([]MethodBalance, 0, len(raw))
	for _, b := range raw {
		amount, err := domain.ParseAmount(b.Amount)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Amounts must be positive numbers with at most two decimals")
			return nil, false
		}
		balances = append(balances, MethodBalance{MethodID: b.MethodID, Amount: amount})
	}
	return balances, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case posErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoOpenSession):
		h.respondError(w, http.StatusNotFound, ErrNoOpenSession.Error())
	case errors.Is(err, ErrSessionNotFound):
		h.respondError(w, http.StatusNotFound, ErrSessionNotFound.Error())
	case errors.Is(err, ErrSessionAlreadyOpen):
		h.respondError(w, http.StatusConflict, ErrSessionAlreadyOpen.Error())
	case errors.Is(err, ErrSessionClosed):
		h.respondError(w, http.StatusConflict, ErrSessionClosed.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func (h *Handler) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Openings []balanceRequest `json:"openings"`
		Notes    string           `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	openings, ok := h.parseBalances(w, req.Openings)
	if !ok {
		return
	}

	session, err := h.service.Open(userID, openings, req.Notes)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Drawer session opened successfully.",
		"session": session,
	})
}

func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Declared []balanceRequest `json:"declared"`
		Notes    string           `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	declared, ok := h.parseBalances(w, req.Declared)
	if !ok {
		return
	}

	session, err := h.service.Close(declared, req.Notes)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Drawer session closed successfully.",
		"session": session,
	})
}

func (h *Handler) HandleGetOpenSession(w http.ResponseWriter, _ *http.Request) {
	session, err := h.service.OpenSession()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"session": session,
	})
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, _ *http.Request) {
	sessions, err := h.service.RecentSessions(20)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve drawer sessions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"sessions": sessions,
	})
}

func (h *Handler) HandleGetMovements(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	if _, err := h.service.GetSession(sessionID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	movements, err := h.service.Movements(sessionID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve drawer movements")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"movements": movements,
	})
}

func (h *Handler) HandleManualMovement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind        string `json:"kind"`
		MethodID    string `json:"method_id"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Amount must be a positive number with at most two decimals")
		return
	}

	movement, err := h.service.ManualMovement(MovementKind(req.Kind), req.MethodID, amount, req.Description)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":   "success",
		"message":  "Movement registered successfully.",
		"movement": movement,
	})
}
