package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `
id, branch_id, invoice_number, order_type, status,
discount_kind, discount_id_number, verified_by,
customer_id, server_id, table_id, settled_by, drawer_session_id,
subtotal, discount_amount, tax_amount, service_charge, tip_amount,
loyalty_discount, total_amount, points_earned, points_redeemed,
delivery_contact, delivery_address, notes, kitchen_notes, priority,
est_prep_minutes, void_reason, created_at, updated_at
`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.BranchID, &o.InvoiceNumber, &o.OrderType, &o.Status,
		&o.DiscountKind, &o.DiscountIDNumber, &o.VerifiedBy,
		&o.CustomerID, &o.ServerID, &o.TableID, &o.SettledBy, &o.DrawerSessionID,
		&o.Subtotal, &o.DiscountAmount, &o.TaxAmount, &o.ServiceCharge, &o.TipAmount,
		&o.LoyaltyDiscount, &o.TotalAmount, &o.PointsEarned, &o.PointsRedeemed,
		&o.DeliveryContact, &o.DeliveryAddress, &o.Notes, &o.KitchenNotes, &o.Priority,
		&o.EstPrepMinutes, &o.VoidReason, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

const createOrder = `
INSERT INTO orders (
    branch_id, invoice_number, order_type,
    discount_kind, discount_id_number, verified_by,
    customer_id, server_id, table_id, settled_by, drawer_session_id,
    subtotal, discount_amount, tax_amount, service_charge, tip_amount,
    loyalty_discount, total_amount, points_earned, points_redeemed,
    delivery_contact, delivery_address, notes
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
    $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	BranchID         uuid.UUID
	InvoiceNumber    int64
	OrderType        string
	DiscountKind     pgtype.Text
	DiscountIDNumber pgtype.Text
	VerifiedBy       pgtype.UUID
	CustomerID       pgtype.UUID
	ServerID         pgtype.UUID
	TableID          pgtype.UUID
	SettledBy        uuid.UUID
	DrawerSessionID  pgtype.UUID
	Subtotal         pgtype.Numeric
	DiscountAmount   pgtype.Numeric
	TaxAmount        pgtype.Numeric
	ServiceCharge    pgtype.Numeric
	TipAmount        pgtype.Numeric
	LoyaltyDiscount  pgtype.Numeric
	TotalAmount      pgtype.Numeric
	PointsEarned     int32
	PointsRedeemed   int32
	DeliveryContact  pgtype.Text
	DeliveryAddress  pgtype.Text
	Notes            pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.BranchID, arg.InvoiceNumber, arg.OrderType,
		arg.DiscountKind, arg.DiscountIDNumber, arg.VerifiedBy,
		arg.CustomerID, arg.ServerID, arg.TableID, arg.SettledBy, arg.DrawerSessionID,
		arg.Subtotal, arg.DiscountAmount, arg.TaxAmount, arg.ServiceCharge, arg.TipAmount,
		arg.LoyaltyDiscount, arg.TotalAmount, arg.PointsEarned, arg.PointsRedeemed,
		arg.DeliveryContact, arg.DeliveryAddress, arg.Notes,
	)
	return scanOrder(row)
}

const createOrderLine = `
INSERT INTO order_lines (
    order_id, product_id, variant_id, description,
    unit_price, quantity, line_discount, instructions
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, product_id, variant_id, description,
          unit_price, quantity, line_discount, instructions
`

type CreateOrderLineParams struct {
	OrderID      uuid.UUID
	ProductID    pgtype.UUID
	VariantID    pgtype.UUID
	Description  string
	UnitPrice    pgtype.Numeric
	Quantity     int32
	LineDiscount pgtype.Numeric
	Instructions pgtype.Text
}

func (q *Queries) CreateOrderLine(ctx context.Context, arg CreateOrderLineParams) (OrderLine, error) {
	var l OrderLine
	err := q.db.QueryRow(ctx, createOrderLine,
		arg.OrderID, arg.ProductID, arg.VariantID, arg.Description,
		arg.UnitPrice, arg.Quantity, arg.LineDiscount, arg.Instructions,
	).Scan(&l.ID, &l.OrderID, &l.ProductID, &l.VariantID, &l.Description,
		&l.UnitPrice, &l.Quantity, &l.LineDiscount, &l.Instructions)
	return l, err
}

const createOrderLineModifier = `
INSERT INTO order_line_modifiers (order_line_id, name, price)
VALUES ($1, $2, $3)
RETURNING id, order_line_id, name, price
`

type CreateOrderLineModifierParams struct {
	OrderLineID uuid.UUID
	Name        string
	Price       pgtype.Numeric
}

func (q *Queries) CreateOrderLineModifier(ctx context.Context, arg CreateOrderLineModifierParams) (OrderLineModifier, error) {
	var m OrderLineModifier
	err := q.db.QueryRow(ctx, createOrderLineModifier, arg.OrderLineID, arg.Name, arg.Price).
		Scan(&m.ID, &m.OrderLineID, &m.Name, &m.Price)
	return m, err
}

const createPayment = `
INSERT INTO payments (order_id, method, amount)
VALUES ($1, $2, $3)
RETURNING id, order_id, method, amount, created_at
`

type CreatePaymentParams struct {
	OrderID uuid.UUID
	Method  string
	Amount  pgtype.Numeric
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	var p Payment
	err := q.db.QueryRow(ctx, createPayment, arg.OrderID, arg.Method, arg.Amount).
		Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.CreatedAt)
	return p, err
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND branch_id = $2`

type GetOrderParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, arg.ID, arg.BranchID))
}

// GetOrderForUpdate locks the order row so lifecycle transitions and their
// compensations serialize with concurrent transitions.
const getOrderForUpdate = getOrder + ` FOR NO KEY UPDATE`

func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, arg.ID, arg.BranchID))
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE branch_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::text IS NULL OR order_type = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at < $5 + INTERVAL '1 day')
ORDER BY created_at DESC
LIMIT $6 OFFSET $7
`

type ListOrdersParams struct {
	BranchID  uuid.UUID
	Status    pgtype.Text
	OrderType pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.BranchID, arg.Status, arg.OrderType, arg.StartDate, arg.EndDate,
		arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderLinesByOrder = `
SELECT id, order_id, product_id, variant_id, description,
       unit_price, quantity, line_discount, instructions
FROM order_lines
WHERE order_id = $1
`

func (q *Queries) ListOrderLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error) {
	rows, err := q.db.Query(ctx, listOrderLinesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.VariantID, &l.Description,
			&l.UnitPrice, &l.Quantity, &l.LineDiscount, &l.Instructions); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const listOrderLineModifiersByLine = `
SELECT id, order_line_id, name, price
FROM order_line_modifiers
WHERE order_line_id = $1
`

func (q *Queries) ListOrderLineModifiersByLine(ctx context.Context, orderLineID uuid.UUID) ([]OrderLineModifier, error) {
	rows, err := q.db.Query(ctx, listOrderLineModifiersByLine, orderLineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mods []OrderLineModifier
	for rows.Next() {
		var m OrderLineModifier
		if err := rows.Scan(&m.ID, &m.OrderLineID, &m.Name, &m.Price); err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

const listPaymentsByOrder = `
SELECT id, order_id, method, amount, created_at
FROM payments
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// The WHERE status = $4 guard makes the transition compare-and-swap: a
// concurrent transition between read and write yields zero rows.
const updateOrderStatus = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND branch_id = $2 AND status = $4
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	BranchID   uuid.UUID
	Status     string
	PrevStatus string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus,
		arg.ID, arg.BranchID, arg.Status, arg.PrevStatus))
}

const voidOrder = `
UPDATE orders
SET status = 'VOIDED', void_reason = $3, updated_at = now()
WHERE id = $1 AND branch_id = $2
  AND status NOT IN ('VOIDED', 'COMPLETED')
RETURNING ` + orderColumns

type VoidOrderParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
	Reason   string
}

func (q *Queries) VoidOrder(ctx context.Context, arg VoidOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, voidOrder, arg.ID, arg.BranchID, arg.Reason))
}

// Notes, kitchen notes, priority and prep estimate stay mutable after
// settlement; everything financial does not.
const updateOrderNotes = `
UPDATE orders
SET notes = COALESCE($3, notes),
    kitchen_notes = COALESCE($4, kitchen_notes),
    priority = COALESCE($5, priority),
    est_prep_minutes = COALESCE($6, est_prep_minutes),
    updated_at = now()
WHERE id = $1 AND branch_id = $2
RETURNING ` + orderColumns

type UpdateOrderNotesParams struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	Notes          pgtype.Text
	KitchenNotes   pgtype.Text
	Priority       pgtype.Text
	EstPrepMinutes pgtype.Int4
}

func (q *Queries) UpdateOrderNotes(ctx context.Context, arg UpdateOrderNotesParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderNotes,
		arg.ID, arg.BranchID, arg.Notes, arg.KitchenNotes, arg.Priority, arg.EstPrepMinutes))
}

const createRefund = `
INSERT INTO refunds (order_id, branch_id, amount, method, reason, line_quantities, processed_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, branch_id, amount, method, reason, line_quantities, processed_by, created_at
`

type CreateRefundParams struct {
	OrderID        uuid.UUID
	BranchID       uuid.UUID
	Amount         pgtype.Numeric
	Method         string
	Reason         string
	LineQuantities []byte
	ProcessedBy    uuid.UUID
}

func (q *Queries) CreateRefund(ctx context.Context, arg CreateRefundParams) (Refund, error) {
	var rf Refund
	err := q.db.QueryRow(ctx, createRefund,
		arg.OrderID, arg.BranchID, arg.Amount, arg.Method, arg.Reason,
		arg.LineQuantities, arg.ProcessedBy,
	).Scan(&rf.ID, &rf.OrderID, &rf.BranchID, &rf.Amount, &rf.Method, &rf.Reason,
		&rf.LineQuantities, &rf.ProcessedBy, &rf.CreatedAt)
	return rf, err
}

const listRefundsByOrder = `
SELECT id, order_id, branch_id, amount, method, reason, line_quantities, processed_by, created_at
FROM refunds
WHERE order_id = $1
ORDER BY created_at
`

func (q *Queries) ListRefundsByOrder(ctx context.Context, orderID uuid.UUID) ([]Refund, error) {
	rows, err := q.db.Query(ctx, listRefundsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []Refund
	for rows.Next() {
		var rf Refund
		if err := rows.Scan(&rf.ID, &rf.OrderID, &rf.BranchID, &rf.Amount, &rf.Method,
			&rf.Reason, &rf.LineQuantities, &rf.ProcessedBy, &rf.CreatedAt); err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}

const sumRefundsByOrder = `
SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE order_id = $1
`

func (q *Queries) SumRefundsByOrder(ctx context.Context, orderID uuid.UUID) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	err := q.db.QueryRow(ctx, sumRefundsByOrder, orderID).Scan(&n)
	return n, err
}
