package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the lifecycle service.
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderTerminal       = errors.New("order is in a terminal state")
	ErrVoidReason          = errors.New("void requires a reason")
	ErrRefundReason        = errors.New("refund requires a reason")
	ErrRefundState         = errors.New("only completed orders can be refunded")
	ErrRefundNoLines       = errors.New("refund requires at least one line with positive quantity")
	ErrRefundQuantity      = errors.New("refund line quantity cannot be negative")
	ErrRefundAmount        = errors.New("refund amount must be positive")
	ErrRefundExceedsTotal  = errors.New("refund exceeds the refundable balance")
	ErrInvalidRefundMethod = errors.New("invalid refund method")
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrNothingToUpdate     = errors.New("nothing to update")
)

// allowedTransitions maps each status to the statuses it may move to.
// Forward skips are allowed (a counter order can go straight from PENDING
// to SERVED); COMPLETED and VOIDED are terminal.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:   {enum.OrderStatusPreparing, enum.OrderStatusReady, enum.OrderStatusServed, enum.OrderStatusCompleted},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusServed, enum.OrderStatusCompleted},
	enum.OrderStatusReady:     {enum.OrderStatusServed, enum.OrderStatusCompleted},
	enum.OrderStatusServed:    {enum.OrderStatusCompleted},
	enum.OrderStatusCompleted: {},
	enum.OrderStatusVoided:    {},
}

func transitionAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LifecycleStore defines the DB methods lifecycle transitions need.
type LifecycleStore interface {
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderNotes(ctx context.Context, arg database.UpdateOrderNotesParams) (database.Order, error)
	VoidOrder(ctx context.Context, arg database.VoidOrderParams) (database.Order, error)
	ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
	GetVariantForSale(ctx context.Context, id uuid.UUID) (database.ProductVariant, error)
	AdjustProductStock(ctx context.Context, arg database.AdjustStockParams) error
	AdjustVariantStock(ctx context.Context, arg database.AdjustStockParams) error
	DeductCustomerLoyalty(ctx context.Context, arg database.DeductCustomerLoyaltyParams) error
	DeductEmployeeSales(ctx context.Context, arg database.AdjustEmployeeAmountParams) error
	SetTableStatus(ctx context.Context, arg database.SetTableStatusParams) (database.DiningTable, error)
	CreateRefund(ctx context.Context, arg database.CreateRefundParams) (database.Refund, error)
	SumRefundsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error)
	AdjustGrandTotal(ctx context.Context, arg database.AdjustGrandTotalParams) error
	CreateAuditEntry(ctx context.Context, arg database.CreateAuditEntryParams) (database.AuditEntry, error)
}

// NewLifecycleStore creates a LifecycleStore from a DBTX (pool or tx).
type NewLifecycleStore func(db database.DBTX) LifecycleStore

// LifecycleService drives the post-settlement order state machine and its
// compensating effects (voids and refunds).
type LifecycleService struct {
	pool     TxBeginner
	newStore NewLifecycleStore
}

func NewLifecycleService(pool TxBeginner, newStore NewLifecycleStore) *LifecycleService {
	return &LifecycleService{pool: pool, newStore: newStore}
}

// UpdateStatus moves an order along the kitchen flow. Completing a dine-in
// order releases its table for cleaning.
func (s *LifecycleService) UpdateStatus(ctx context.Context, branchID, orderID uuid.UUID, status string) (*database.Order, error) {
	switch status {
	case enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusServed, enum.OrderStatusCompleted:
	default:
		// PENDING and VOIDED are not reachable through this endpoint.
		return nil, ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{ID: orderID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !transitionAllowed(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:         orderID,
		BranchID:   branchID,
		Status:     status,
		PrevStatus: order.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Row lock makes this unreachable in practice, but a zero-row
			// CAS still maps to a conflict, not a crash.
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	if status == enum.OrderStatusCompleted && updated.TableID.Valid {
		if err := releaseTable(ctx, store, updated.TableID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

// UpdateNotesRequest carries the mutable non-financial fields. Nil means
// leave unchanged.
type UpdateNotesRequest struct {
	Notes          *string
	KitchenNotes   *string
	Priority       *string
	EstPrepMinutes *int32
}

// UpdateNotes edits the operational annotations of a settled order. The
// financial columns stay immutable.
func (s *LifecycleService) UpdateNotes(ctx context.Context, branchID, orderID uuid.UUID, req UpdateNotesRequest) (*database.Order, error) {
	if req.Notes == nil && req.KitchenNotes == nil && req.Priority == nil && req.EstPrepMinutes == nil {
		return nil, ErrNothingToUpdate
	}
	if req.Priority != nil {
		switch *req.Priority {
		case enum.OrderPriorityNormal, enum.OrderPriorityRush:
		default:
			return nil, ErrInvalidPriority
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	params := database.UpdateOrderNotesParams{ID: orderID, BranchID: branchID}
	if req.Notes != nil {
		params.Notes = pgtype.Text{String: *req.Notes, Valid: true}
	}
	if req.KitchenNotes != nil {
		params.KitchenNotes = pgtype.Text{String: *req.KitchenNotes, Valid: true}
	}
	if req.Priority != nil {
		params.Priority = pgtype.Text{String: *req.Priority, Valid: true}
	}
	if req.EstPrepMinutes != nil {
		params.EstPrepMinutes = pgtype.Int4{Int32: *req.EstPrepMinutes, Valid: true}
	}

	order, err := store.UpdateOrderNotes(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order notes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &order, nil
}

// Void cancels an order that has not reached a terminal state. A PENDING
// void reverses stock, loyalty accrual and the cashier's sales credit; once
// the kitchen has started (PREPARING or later) the food is made, so only the
// table and the order flip. The fiscal counter is never rewound: the voided
// invoice number stays consumed and the order stays on the ledger with its
// reason.
func (s *LifecycleService) Void(ctx context.Context, branchID, orderID, actorID uuid.UUID, reason string) (*database.Order, error) {
	if reason == "" {
		return nil, ErrVoidReason
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{ID: orderID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusVoided || order.Status == enum.OrderStatusCompleted {
		return nil, ErrOrderTerminal
	}

	wasPending := order.Status == enum.OrderStatusPending

	voided, err := store.VoidOrder(ctx, database.VoidOrderParams{
		ID:       orderID,
		BranchID: branchID,
		Reason:   reason,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderTerminal
		}
		return nil, fmt.Errorf("void order: %w", err)
	}

	if wasPending {
		if err := s.compensatePending(ctx, store, order); err != nil {
			return nil, err
		}
	}

	if voided.TableID.Valid {
		if err := releaseTable(ctx, store, voided.TableID); err != nil {
			return nil, err
		}
	}

	detail, _ := json.Marshal(map[string]any{
		"invoice_number": order.InvoiceNumber,
		"prior_status":   order.Status,
		"reason":         reason,
	})
	if _, err := store.CreateAuditEntry(ctx, database.CreateAuditEntryParams{
		BranchID: branchID,
		ActorID:  actorID,
		Action:   enum.AuditActionVoid,
		OrderID:  pgtype.UUID{Bytes: orderID, Valid: true},
		Amount:   order.TotalAmount,
		Detail:   detail,
	}); err != nil {
		return nil, fmt.Errorf("create audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &voided, nil
}

// compensatePending reverses the settlement side effects of an order the
// kitchen never started.
func (s *LifecycleService) compensatePending(ctx context.Context, store LifecycleStore, order database.Order) error {
	lines, err := store.ListOrderLinesByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list order lines: %w", err)
	}
	for _, line := range lines {
		if err := restoreStock(ctx, store, line); err != nil {
			return err
		}
	}

	if order.CustomerID.Valid && order.PointsEarned > 0 {
		if err := store.DeductCustomerLoyalty(ctx, database.DeductCustomerLoyaltyParams{
			ID:     uuid.UUID(order.CustomerID.Bytes),
			Points: order.PointsEarned,
		}); err != nil {
			return fmt.Errorf("deduct customer loyalty: %w", err)
		}
	}

	if err := store.DeductEmployeeSales(ctx, database.AdjustEmployeeAmountParams{
		ID:     order.SettledBy,
		Amount: order.TotalAmount,
	}); err != nil {
		return fmt.Errorf("deduct employee sales: %w", err)
	}
	return nil
}

// restoreStock puts a line's quantity back, mirroring depletion: a
// stock-tracked variant gets its own count back, otherwise the product does.
func restoreStock(ctx context.Context, store LifecycleStore, line database.OrderLine) error {
	if line.VariantID.Valid {
		variant, err := store.GetVariantForSale(ctx, uuid.UUID(line.VariantID.Bytes))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("get variant: %w", err)
		}
		if err == nil && variant.TrackStock {
			if err := store.AdjustVariantStock(ctx, database.AdjustStockParams{
				ID:    variant.ID,
				Delta: line.Quantity,
			}); err != nil {
				return fmt.Errorf("restore variant stock: %w", err)
			}
			return nil
		}
	}
	if line.ProductID.Valid {
		if err := store.AdjustProductStock(ctx, database.AdjustStockParams{
			ID:    uuid.UUID(line.ProductID.Bytes),
			Delta: line.Quantity,
		}); err != nil {
			return fmt.Errorf("restore product stock: %w", err)
		}
	}
	return nil
}

func releaseTable(ctx context.Context, store LifecycleStore, tableID pgtype.UUID) error {
	if _, err := store.SetTableStatus(ctx, database.SetTableStatusParams{
		ID:     uuid.UUID(tableID.Bytes),
		Status: enum.TableStatusNeedsCleaning,
	}); err != nil {
		return fmt.Errorf("release table: %w", err)
	}
	return nil
}

// RefundRequest identifies which lines come back and how much money goes out.
type RefundRequest struct {
	Amount         string
	Method         string
	Reason         string
	LineQuantities map[string]int32 // order_line_id -> quantity
}

// Refund pays money back against a completed order. Refunds never restore
// stock (the food left the kitchen) and never rewind the counter; they post
// as negative entries against the grand total, capped at what remains
// refundable.
func (s *LifecycleService) Refund(ctx context.Context, branchID, orderID, actorID uuid.UUID, req RefundRequest) (*database.Refund, error) {
	if req.Reason == "" {
		return nil, ErrRefundReason
	}
	if len(req.LineQuantities) == 0 {
		return nil, ErrRefundNoLines
	}
	// Zero-quantity entries are ignored; only one line has to come back.
	positive := false
	for _, qty := range req.LineQuantities {
		if qty < 0 {
			return nil, ErrRefundQuantity
		}
		if qty > 0 {
			positive = true
		}
	}
	if !positive {
		return nil, ErrRefundNoLines
	}
	if !isValidPaymentMethod(req.Method) {
		return nil, ErrInvalidRefundMethod
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, ErrRefundAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderParams{ID: orderID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != enum.OrderStatusCompleted {
		return nil, ErrRefundState
	}

	refunded, err := store.SumRefundsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("sum refunds: %w", err)
	}
	remaining := numericToDecimal(order.TotalAmount).Sub(numericToDecimal(refunded))
	if amount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: %s remaining", ErrRefundExceedsTotal, remaining.StringFixed(2))
	}

	lineQuantities, _ := json.Marshal(req.LineQuantities)
	refund, err := store.CreateRefund(ctx, database.CreateRefundParams{
		OrderID:        orderID,
		BranchID:       branchID,
		Amount:         decimalToNumeric(amount),
		Method:         req.Method,
		Reason:         req.Reason,
		LineQuantities: lineQuantities,
		ProcessedBy:    actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}

	if err := store.AdjustGrandTotal(ctx, database.AdjustGrandTotalParams{
		BranchID: branchID,
		Delta:    decimalToNumeric(amount.Neg()),
	}); err != nil {
		return nil, fmt.Errorf("adjust grand total: %w", err)
	}

	detail, _ := json.Marshal(map[string]any{
		"invoice_number": order.InvoiceNumber,
		"method":         req.Method,
		"reason":         req.Reason,
		"lines":          req.LineQuantities,
	})
	if _, err := store.CreateAuditEntry(ctx, database.CreateAuditEntryParams{
		BranchID: branchID,
		ActorID:  actorID,
		Action:   enum.AuditActionRefund,
		OrderID:  pgtype.UUID{Bytes: orderID, Valid: true},
		Amount:   decimalToNumeric(amount),
		Detail:   detail,
	}); err != nil {
		return nil, fmt.Errorf("create audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &refund, nil
}
