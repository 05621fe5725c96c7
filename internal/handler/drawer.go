package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kusina-pos/api/internal/auth"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/middleware"
	"github.com/kusina-pos/api/internal/service"
	"github.com/kusina-pos/api/internal/ws"
)

// DrawerServicer defines the cash drawer session methods. Satisfied by
// *service.DrawerService.
type DrawerServicer interface {
	Open(ctx context.Context, branchID, openedBy uuid.UUID, openingFloat string) (*database.DrawerSession, error)
	Close(ctx context.Context, branchID, closedBy uuid.UUID, req service.CloseRequest) (*service.CloseResult, error)
	AddMovement(ctx context.Context, branchID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error)
	Current(ctx context.Context, branchID uuid.UUID) (*service.CloseResult, error)
	Session(ctx context.Context, branchID, sessionID uuid.UUID) (*service.CloseResult, error)
}

// DrawerHandler handles cash drawer session endpoints.
type DrawerHandler struct {
	service DrawerServicer
	hub     Broadcaster
}

func NewDrawerHandler(service DrawerServicer, hub Broadcaster) *DrawerHandler {
	return &DrawerHandler{service: service, hub: hub}
}

// RegisterRoutes registers drawer endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/drawer
func (h *DrawerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/open", h.Open)
	r.Post("/close", h.Close)
	r.Post("/movements", h.AddMovement)
	r.Get("/current", h.Current)
	r.Get("/sessions/{id}", h.Session)
}

// --- Request / Response types ---

type openDrawerRequest struct {
	OpeningFloat string `json:"opening_float"`
}

type closeDrawerRequest struct {
	CountedAmount  string           `json:"counted_amount"`
	ExpectedAmount string           `json:"expected_amount"`
	Denominations  map[string]int32 `json:"denominations"`
}

type movementRequest struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

type drawerSessionResponse struct {
	ID             uuid.UUID       `json:"id"`
	BranchID       uuid.UUID       `json:"branch_id"`
	OpenedBy       uuid.UUID       `json:"opened_by"`
	OpeningFloat   string          `json:"opening_float"`
	OpenedAt       time.Time       `json:"opened_at"`
	ClosedAt       *time.Time      `json:"closed_at"`
	ExpectedAmount *string         `json:"expected_amount"`
	CountedAmount  *string         `json:"counted_amount"`
	Difference     *string         `json:"difference"`
	Denominations  json.RawMessage `json:"denominations,omitempty"`
}

type movementResponse struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Kind      string    `json:"kind"`
	Amount    string    `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type drawerDetailResponse struct {
	drawerSessionResponse
	Movements []movementResponse `json:"movements"`
	OrderIDs  []uuid.UUID        `json:"order_ids"`
}

// --- Handlers ---

// Open handles POST /branches/{bid}/drawer/open.
func (h *DrawerHandler) Open(w http.ResponseWriter, r *http.Request) {
	branchID, claims, ok := h.parseBranchAndClaims(w, r)
	if !ok {
		return
	}

	var req openDrawerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.OpeningFloat == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "opening_float is required"})
		return
	}

	session, err := h.service.Open(r.Context(), branchID, claims.EmployeeID, req.OpeningFloat)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFloat):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrSessionAlreadyOpen):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: open drawer session: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcast(branchID, ws.EventDrawerOpened, map[string]any{
		"session_id":    session.ID,
		"opened_by":     session.OpenedBy,
		"opening_float": numericToString(session.OpeningFloat),
	})

	writeJSON(w, http.StatusCreated, toDrawerSessionResponse(*session))
}

// Close handles POST /branches/{bid}/drawer/close.
func (h *DrawerHandler) Close(w http.ResponseWriter, r *http.Request) {
	branchID, claims, ok := h.parseBranchAndClaims(w, r)
	if !ok {
		return
	}

	var req closeDrawerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.CountedAmount == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "counted_amount is required"})
		return
	}

	result, err := h.service.Close(r.Context(), branchID, claims.EmployeeID, service.CloseRequest{
		CountedAmount:  req.CountedAmount,
		ExpectedAmount: req.ExpectedAmount,
		Denominations:  req.Denominations,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCounted), errors.Is(err, service.ErrInvalidExpected):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrNoOpenSession):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: close drawer session: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcast(branchID, ws.EventDrawerClosed, map[string]any{
		"session_id": result.Session.ID,
		"difference": numericToString(result.Session.Difference),
	})

	writeJSON(w, http.StatusOK, toDrawerDetailResponse(result))
}

// AddMovement handles POST /branches/{bid}/drawer/movements.
func (h *DrawerHandler) AddMovement(w http.ResponseWriter, r *http.Request) {
	branchID, claims, ok := h.parseBranchAndClaims(w, r)
	if !ok {
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Kind == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind is required"})
		return
	}

	movement, err := h.service.AddMovement(r.Context(), branchID, claims.EmployeeID, req.Kind, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMovement),
			errors.Is(err, service.ErrInvalidKind),
			errors.Is(err, service.ErrMovementReason):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrNoOpenSession):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: add cash movement: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMovementResponse(*movement))
}

// Current handles GET /branches/{bid}/drawer/current.
func (h *DrawerHandler) Current(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	result, err := h.service.Current(r.Context(), branchID)
	if err != nil {
		if errors.Is(err, service.ErrNoOpenSession) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: get current drawer session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDrawerDetailResponse(result))
}

// Session handles GET /branches/{bid}/drawer/sessions/{id}.
func (h *DrawerHandler) Session(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	result, err := h.service.Session(r.Context(), branchID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: get drawer session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toDrawerDetailResponse(result))
}

// --- Helpers ---

func (h *DrawerHandler) parseBranchAndClaims(w http.ResponseWriter, r *http.Request) (uuid.UUID, *auth.Claims, bool) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return uuid.Nil, nil, false
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return uuid.Nil, nil, false
	}
	return branchID, claims, true
}

func (h *DrawerHandler) broadcast(branchID uuid.UUID, eventType string, payload map[string]any) {
	if h.hub == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.hub.BroadcastToBranch(branchID, ws.Event{Type: eventType, Payload: body})
}

func toDrawerSessionResponse(s database.DrawerSession) drawerSessionResponse {
	resp := drawerSessionResponse{
		ID:             s.ID,
		BranchID:       s.BranchID,
		OpenedBy:       s.OpenedBy,
		OpeningFloat:   numericToString(s.OpeningFloat),
		OpenedAt:       s.OpenedAt,
		ClosedAt:       timestamptzPtr(s.ClosedAt),
		ExpectedAmount: numericPtr(s.ExpectedAmount),
		CountedAmount:  numericPtr(s.CountedAmount),
		Difference:     numericPtr(s.Difference),
	}
	if len(s.Denominations) > 0 {
		resp.Denominations = json.RawMessage(s.Denominations)
	}
	return resp
}

func toMovementResponse(m database.CashMovement) movementResponse {
	return movementResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Kind:      m.Kind,
		Amount:    numericToString(m.Amount),
		Reason:    m.Reason,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

func toDrawerDetailResponse(result *service.CloseResult) drawerDetailResponse {
	resp := drawerDetailResponse{
		drawerSessionResponse: toDrawerSessionResponse(result.Session),
		Movements:             []movementResponse{},
		OrderIDs:              []uuid.UUID{},
	}
	for _, m := range result.Movements {
		resp.Movements = append(resp.Movements, toMovementResponse(m))
	}
	resp.OrderIDs = append(resp.OrderIDs, result.OrderIDs...)
	return resp
}
