package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/middleware"
	"github.com/kusina-pos/api/internal/service"
	"github.com/kusina-pos/api/internal/ws"
)

// SettlementServicer defines the service methods needed to settle a cart.
// Satisfied by *service.SettlementService; narrow interface for testability.
type SettlementServicer interface {
	Settle(ctx context.Context, req service.SettleRequest) (*service.SettleResult, error)
}

// LifecycleServicer defines the post-settlement transition methods.
// Satisfied by *service.LifecycleService.
type LifecycleServicer interface {
	UpdateStatus(ctx context.Context, branchID, orderID uuid.UUID, status string) (*database.Order, error)
	UpdateNotes(ctx context.Context, branchID, orderID uuid.UUID, req service.UpdateNotesRequest) (*database.Order, error)
	Void(ctx context.Context, branchID, orderID, actorID uuid.UUID, reason string) (*database.Order, error)
	Refund(ctx context.Context, branchID, orderID, actorID uuid.UUID, req service.RefundRequest) (*database.Refund, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	ListOrderLineModifiersByLine(ctx context.Context, orderLineID uuid.UUID) ([]database.OrderLineModifier, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	ListRefundsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Refund, error)
}

// Broadcaster pushes events to terminals watching a branch. Satisfied by
// *ws.Hub; nil disables broadcasting.
type Broadcaster interface {
	BroadcastToBranch(branchID uuid.UUID, event ws.Event)
}

// EventPublisher relays settlement events to the message broker. Satisfied
// by *mq.Client; nil disables publishing.
type EventPublisher interface {
	PublishEvent(ctx context.Context, branchID, key string, payload any) error
}

// OrderHandler handles settlement and order endpoints.
type OrderHandler struct {
	settle    SettlementServicer
	lifecycle LifecycleServicer
	store     OrderStore
	hub       Broadcaster
	publisher EventPublisher
}

func NewOrderHandler(settle SettlementServicer, lifecycle LifecycleServicer, store OrderStore, hub Broadcaster, publisher EventPublisher) *OrderHandler {
	return &OrderHandler{
		settle:    settle,
		lifecycle: lifecycle,
		store:     store,
		hub:       hub,
		publisher: publisher,
	}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Settle)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/notes", h.UpdateNotes)
}

// RegisterManagerRoutes registers the endpoints that require MANAGER or
// OWNER role. Mounted under the same /orders prefix behind RequireRole.
func (h *OrderHandler) RegisterManagerRoutes(r chi.Router) {
	r.Post("/{id}/void", h.Void)
	r.Post("/{id}/refunds", h.Refund)
}

// --- Request / Response types ---

type settleRequest struct {
	OrderType        string              `json:"order_type"`
	DiscountKind     string              `json:"discount_kind"`
	DiscountIDNumber string              `json:"discount_id_number"`
	VerifiedBy       string              `json:"verified_by"`
	CustomerID       string              `json:"customer_id"`
	ServerID         string              `json:"server_id"`
	TableID          string              `json:"table_id"`
	Tip              string              `json:"tip"`
	PointsRequested  int32               `json:"points_requested"`
	Notes            string              `json:"notes"`
	DeliveryContact  string              `json:"delivery_contact"`
	DeliveryAddress  string              `json:"delivery_address"`
	Lines            []settleLineRequest `json:"lines"`
	Payments         []paymentRequest    `json:"payments"`
}

type settleLineRequest struct {
	ProductID    string            `json:"product_id"`
	VariantID    string            `json:"variant_id"`
	Description  string            `json:"description"`
	UnitPrice    string            `json:"unit_price"`
	Quantity     int32             `json:"quantity"`
	LineDiscount string            `json:"line_discount"`
	Instructions string            `json:"instructions"`
	Modifiers    []modifierRequest `json:"modifiers"`
}

type modifierRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

type paymentRequest struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
}

type orderResponse struct {
	ID               uuid.UUID           `json:"id"`
	BranchID         uuid.UUID           `json:"branch_id"`
	InvoiceNumber    int64               `json:"invoice_number"`
	OrderType        string              `json:"order_type"`
	Status           string              `json:"status"`
	DiscountKind     *string             `json:"discount_kind"`
	DiscountIDNumber *string             `json:"discount_id_number"`
	CustomerID       *string             `json:"customer_id"`
	ServerID         *string             `json:"server_id"`
	TableID          *string             `json:"table_id"`
	SettledBy        uuid.UUID           `json:"settled_by"`
	DrawerSessionID  *string             `json:"drawer_session_id"`
	Subtotal         string              `json:"subtotal"`
	DiscountAmount   string              `json:"discount_amount"`
	TaxAmount        string              `json:"tax_amount"`
	ServiceCharge    string              `json:"service_charge"`
	TipAmount        string              `json:"tip_amount"`
	LoyaltyDiscount  string              `json:"loyalty_discount"`
	TotalAmount      string              `json:"total_amount"`
	PointsEarned     int32               `json:"points_earned"`
	PointsRedeemed   int32               `json:"points_redeemed"`
	DeliveryContact  *string             `json:"delivery_contact"`
	DeliveryAddress  *string             `json:"delivery_address"`
	Notes            *string             `json:"notes"`
	KitchenNotes     *string             `json:"kitchen_notes"`
	Priority         string              `json:"priority"`
	EstPrepMinutes   *int32              `json:"est_prep_minutes"`
	VoidReason       *string             `json:"void_reason"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Lines            []orderLineResponse `json:"lines,omitempty"`
}

type orderLineResponse struct {
	ID           uuid.UUID          `json:"id"`
	ProductID    *string            `json:"product_id"`
	VariantID    *string            `json:"variant_id"`
	Description  string             `json:"description"`
	UnitPrice    string             `json:"unit_price"`
	Quantity     int32              `json:"quantity"`
	LineDiscount string             `json:"line_discount"`
	Instructions *string            `json:"instructions"`
	Modifiers    []modifierResponse `json:"modifiers"`
}

type modifierResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
}

type paymentResponse struct {
	ID        uuid.UUID `json:"id"`
	Method    string    `json:"method"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type refundResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	Amount      string    `json:"amount"`
	Method      string    `json:"method"`
	Reason      string    `json:"reason"`
	ProcessedBy uuid.UUID `json:"processed_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// orderDetailResponse extends orderResponse with payments and refunds.
type orderDetailResponse struct {
	orderResponse
	Payments []paymentResponse `json:"payments"`
	Refunds  []refundResponse  `json:"refunds"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateNotesRequest struct {
	Notes          *string `json:"notes"`
	KitchenNotes   *string `json:"kitchen_notes"`
	Priority       *string `json:"priority"`
	EstPrepMinutes *int32  `json:"est_prep_minutes"`
}

type voidRequest struct {
	Reason string `json:"reason"`
}

type refundRequest struct {
	Amount         string           `json:"amount"`
	Method         string           `json:"method"`
	Reason         string           `json:"reason"`
	LineQuantities map[string]int32 `json:"line_quantities"`
}

// --- Handlers ---

// Settle handles POST /branches/{bid}/orders. The cart comes in, a
// sequence-numbered ledger entry comes out.
func (h *OrderHandler) Settle(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_type is required"})
		return
	}
	if len(req.Lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lines are required"})
		return
	}
	if len(req.Payments) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payments are required"})
		return
	}

	svcLines := make([]service.SettleLine, len(req.Lines))
	for i, line := range req.Lines {
		mods := make([]service.SettleModifier, len(line.Modifiers))
		for j, mod := range line.Modifiers {
			mods[j] = service.SettleModifier{Name: mod.Name, Price: mod.Price}
		}
		svcLines[i] = service.SettleLine{
			ProductID:    line.ProductID,
			VariantID:    line.VariantID,
			Description:  line.Description,
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
			LineDiscount: line.LineDiscount,
			Instructions: line.Instructions,
			Modifiers:    mods,
		}
	}
	svcPayments := make([]service.SettlePayment, len(req.Payments))
	for i, p := range req.Payments {
		svcPayments[i] = service.SettlePayment{Method: p.Method, Amount: p.Amount}
	}

	result, err := h.settle.Settle(r.Context(), service.SettleRequest{
		BranchID:         branchID,
		SettledBy:        claims.EmployeeID,
		OrderType:        req.OrderType,
		DiscountKind:     req.DiscountKind,
		DiscountIDNumber: req.DiscountIDNumber,
		VerifiedBy:       req.VerifiedBy,
		CustomerID:       req.CustomerID,
		ServerID:         req.ServerID,
		TableID:          req.TableID,
		Tip:              req.Tip,
		PointsRequested:  req.PointsRequested,
		Notes:            req.Notes,
		DeliveryContact:  req.DeliveryContact,
		DeliveryAddress:  req.DeliveryAddress,
		Lines:            svcLines,
		Payments:         svcPayments,
	})
	if err != nil {
		if isSettleValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: settle order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.notify(branchID, ws.EventOrderSettled, "settled", map[string]any{
		"order_id":       result.Order.ID,
		"invoice_number": result.Order.InvoiceNumber,
		"total_amount":   numericToString(result.Order.TotalAmount),
		"status":         result.Order.Status,
	})

	writeJSON(w, http.StatusCreated, toSettleResponse(result))
}

// List handles GET /branches/{bid}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	params := database.ListOrdersParams{
		BranchID: branchID,
		Limit:    50,
		Offset:   0,
	}

	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		params.Status = pgtype.Text{String: status, Valid: true}
	}
	if orderType := q.Get("order_type"); orderType != "" {
		params.OrderType = pgtype.Text{String: orderType, Valid: true}
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 200 {
			params.Limit = int32(limit)
		}
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			params.Offset = int32(offset)
		}
	}
	if startStr := q.Get("start_date"); startStr != "" {
		start, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date format, use YYYY-MM-DD"})
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: start, Valid: true}
	}
	if endStr := q.Get("end_date"); endStr != "" {
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date format, use YYYY-MM-DD"})
			return
		}
		params.EndDate = pgtype.Timestamptz{Time: end, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  int(params.Limit),
		Offset: int(params.Offset),
	})
}

// Get handles GET /branches/{bid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	branchID, orderID, ok := h.parseOrderPath(w, r)
	if !ok {
		return
	}

	order, err := h.store.GetOrder(r.Context(), database.GetOrderParams{ID: orderID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := orderDetailResponse{orderResponse: toOrderResponse(order)}

	lines, err := h.store.ListOrderLinesByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order lines: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, line := range lines {
		mods, err := h.store.ListOrderLineModifiersByLine(r.Context(), line.ID)
		if err != nil {
			log.Printf("ERROR: list order line modifiers: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp.Lines = append(resp.Lines, toOrderLineResponse(line, mods))
	}

	payments, err := h.store.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list payments: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:        p.ID,
			Method:    p.Method,
			Amount:    numericToString(p.Amount),
			CreatedAt: p.CreatedAt,
		})
	}

	refunds, err := h.store.ListRefundsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list refunds: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, rf := range refunds {
		resp.Refunds = append(resp.Refunds, toRefundResponse(rf))
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PATCH /branches/{bid}/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	branchID, orderID, ok := h.parseOrderPath(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.lifecycle.UpdateStatus(r.Context(), branchID, orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		case errors.Is(err, service.ErrInvalidTransition):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notify(branchID, ws.EventOrderStatus, "", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// UpdateNotes handles PATCH /branches/{bid}/orders/{id}/notes.
func (h *OrderHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	branchID, orderID, ok := h.parseOrderPath(w, r)
	if !ok {
		return
	}

	var req updateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.lifecycle.UpdateNotes(r.Context(), branchID, orderID, service.UpdateNotesRequest{
		Notes:          req.Notes,
		KitchenNotes:   req.KitchenNotes,
		Priority:       req.Priority,
		EstPrepMinutes: req.EstPrepMinutes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrNothingToUpdate), errors.Is(err, service.ErrInvalidPriority):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order notes: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Void handles POST /branches/{bid}/orders/{id}/void. Mounted behind
// RequireRole(MANAGER, OWNER).
func (h *OrderHandler) Void(w http.ResponseWriter, r *http.Request) {
	branchID, orderID, ok := h.parseOrderPath(w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req voidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.lifecycle.Void(r.Context(), branchID, orderID, claims.EmployeeID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrVoidReason):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrOrderTerminal):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: void order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notify(branchID, ws.EventOrderVoided, "voided", map[string]any{
		"order_id":       order.ID,
		"invoice_number": order.InvoiceNumber,
		"reason":         req.Reason,
	})

	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

// Refund handles POST /branches/{bid}/orders/{id}/refunds. Mounted behind
// RequireRole(MANAGER, OWNER).
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	branchID, orderID, ok := h.parseOrderPath(w, r)
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	refund, err := h.lifecycle.Refund(r.Context(), branchID, orderID, claims.EmployeeID, service.RefundRequest{
		Amount:         req.Amount,
		Method:         req.Method,
		Reason:         req.Reason,
		LineQuantities: req.LineQuantities,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrRefundReason),
			errors.Is(err, service.ErrRefundNoLines),
			errors.Is(err, service.ErrRefundQuantity),
			errors.Is(err, service.ErrRefundAmount),
			errors.Is(err, service.ErrInvalidRefundMethod):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrRefundState),
			errors.Is(err, service.ErrRefundExceedsTotal):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: refund order: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.notify(branchID, ws.EventOrderRefunded, "refunded", map[string]any{
		"order_id":  refund.OrderID,
		"refund_id": refund.ID,
		"amount":    numericToString(refund.Amount),
	})

	writeJSON(w, http.StatusCreated, toRefundResponse(*refund))
}

// --- Helpers ---

func (h *OrderHandler) parseOrderPath(w http.ResponseWriter, r *http.Request) (branchID, orderID uuid.UUID, ok bool) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err = uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, uuid.Nil, false
	}
	return branchID, orderID, true
}

// notify fans the event out to terminals and, when the broker is wired, to
// the message bus. Both are post-commit and best-effort: the ledger entry is
// already durable.
func (h *OrderHandler) notify(branchID uuid.UUID, wsType, mqKey string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.hub != nil {
		h.hub.BroadcastToBranch(branchID, ws.Event{Type: wsType, Payload: body})
	}
	if h.publisher != nil && mqKey != "" {
		if err := h.publisher.PublishEvent(context.Background(), branchID.String(), mqKey, payload); err != nil {
			log.Printf("ERROR: publish %s event: %v", mqKey, err)
		}
	}
}

func isSettleValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyLines) ||
		errors.Is(err, service.ErrInvalidOrderType) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrMissingDescription) ||
		errors.Is(err, service.ErrInvalidUnitPrice) ||
		errors.Is(err, service.ErrInvalidLineDiscount) ||
		errors.Is(err, service.ErrInvalidModifierPrice) ||
		errors.Is(err, service.ErrInvalidProductID) ||
		errors.Is(err, service.ErrInvalidVariantID) ||
		errors.Is(err, service.ErrProductNotFound) ||
		errors.Is(err, service.ErrVariantNotFound) ||
		errors.Is(err, service.ErrVariantMismatch) ||
		errors.Is(err, service.ErrInvalidDiscountKind) ||
		errors.Is(err, service.ErrMissingDiscountProof) ||
		errors.Is(err, service.ErrInvalidVerifierID) ||
		errors.Is(err, service.ErrInvalidCustomerID) ||
		errors.Is(err, service.ErrCustomerNotFound) ||
		errors.Is(err, service.ErrInvalidServerID) ||
		errors.Is(err, service.ErrInvalidTableID) ||
		errors.Is(err, service.ErrTableNotFound) ||
		errors.Is(err, service.ErrMissingDeliveryContact) ||
		errors.Is(err, service.ErrInvalidTip) ||
		errors.Is(err, service.ErrInvalidPoints) ||
		errors.Is(err, service.ErrNoPayments) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInvalidPaymentAmount) ||
		errors.Is(err, service.ErrPaymentMismatch)
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:               o.ID,
		BranchID:         o.BranchID,
		InvoiceNumber:    o.InvoiceNumber,
		OrderType:        o.OrderType,
		Status:           o.Status,
		DiscountKind:     textPtr(o.DiscountKind),
		DiscountIDNumber: textPtr(o.DiscountIDNumber),
		CustomerID:       uuidPtr(o.CustomerID),
		ServerID:         uuidPtr(o.ServerID),
		TableID:          uuidPtr(o.TableID),
		SettledBy:        o.SettledBy,
		DrawerSessionID:  uuidPtr(o.DrawerSessionID),
		Subtotal:         numericToString(o.Subtotal),
		DiscountAmount:   numericToString(o.DiscountAmount),
		TaxAmount:        numericToString(o.TaxAmount),
		ServiceCharge:    numericToString(o.ServiceCharge),
		TipAmount:        numericToString(o.TipAmount),
		LoyaltyDiscount:  numericToString(o.LoyaltyDiscount),
		TotalAmount:      numericToString(o.TotalAmount),
		PointsEarned:     o.PointsEarned,
		PointsRedeemed:   o.PointsRedeemed,
		DeliveryContact:  textPtr(o.DeliveryContact),
		DeliveryAddress:  textPtr(o.DeliveryAddress),
		Notes:            textPtr(o.Notes),
		KitchenNotes:     textPtr(o.KitchenNotes),
		Priority:         o.Priority,
		EstPrepMinutes:   int4Ptr(o.EstPrepMinutes),
		VoidReason:       textPtr(o.VoidReason),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOrderLineResponse(line database.OrderLine, mods []database.OrderLineModifier) orderLineResponse {
	resp := orderLineResponse{
		ID:           line.ID,
		ProductID:    uuidPtr(line.ProductID),
		VariantID:    uuidPtr(line.VariantID),
		Description:  line.Description,
		UnitPrice:    numericToString(line.UnitPrice),
		Quantity:     line.Quantity,
		LineDiscount: numericToString(line.LineDiscount),
		Instructions: textPtr(line.Instructions),
	}
	for _, mod := range mods {
		resp.Modifiers = append(resp.Modifiers, modifierResponse{
			ID:    mod.ID,
			Name:  mod.Name,
			Price: numericToString(mod.Price),
		})
	}
	return resp
}

func toRefundResponse(rf database.Refund) refundResponse {
	return refundResponse{
		ID:          rf.ID,
		OrderID:     rf.OrderID,
		Amount:      numericToString(rf.Amount),
		Method:      rf.Method,
		Reason:      rf.Reason,
		ProcessedBy: rf.ProcessedBy,
		CreatedAt:   rf.CreatedAt,
	}
}

func toSettleResponse(result *service.SettleResult) orderDetailResponse {
	resp := orderDetailResponse{orderResponse: toOrderResponse(result.Order)}
	for _, sl := range result.Lines {
		resp.Lines = append(resp.Lines, toOrderLineResponse(sl.Line, sl.Modifiers))
	}
	for _, p := range result.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			ID:        p.ID,
			Method:    p.Method,
			Amount:    numericToString(p.Amount),
			CreatedAt: p.CreatedAt,
		})
	}
	return resp
}
