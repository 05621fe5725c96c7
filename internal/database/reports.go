package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Z-Reading aggregates settled (non-voided) orders for one business day.
// Reports read the ledger; they never mutate it.
const getZReading = `
SELECT
    COUNT(*) AS order_count,
    COALESCE(MIN(invoice_number), 0) AS first_invoice,
    COALESCE(MAX(invoice_number), 0) AS last_invoice,
    COALESCE(SUM(subtotal), 0) AS gross_sales,
    COALESCE(SUM(discount_amount), 0) AS total_discount,
    COALESCE(SUM(tax_amount), 0) AS total_vat,
    COALESCE(SUM(service_charge), 0) AS total_service_charge,
    COALESCE(SUM(tip_amount), 0) AS total_tips,
    COALESCE(SUM(loyalty_discount), 0) AS total_loyalty_discount,
    COALESCE(SUM(total_amount), 0) AS net_sales
FROM orders
WHERE branch_id = $1
  AND status <> 'VOIDED'
  AND created_at >= $2::date
  AND created_at < $2::date + INTERVAL '1 day'
`

type GetZReadingParams struct {
	BranchID uuid.UUID
	Day      pgtype.Date
}

type GetZReadingRow struct {
	OrderCount           int64
	FirstInvoice         int64
	LastInvoice          int64
	GrossSales           pgtype.Numeric
	TotalDiscount        pgtype.Numeric
	TotalVAT             pgtype.Numeric
	TotalServiceCharge   pgtype.Numeric
	TotalTips            pgtype.Numeric
	TotalLoyaltyDiscount pgtype.Numeric
	NetSales             pgtype.Numeric
}

func (q *Queries) GetZReading(ctx context.Context, arg GetZReadingParams) (GetZReadingRow, error) {
	var r GetZReadingRow
	err := q.db.QueryRow(ctx, getZReading, arg.BranchID, arg.Day).
		Scan(&r.OrderCount, &r.FirstInvoice, &r.LastInvoice, &r.GrossSales,
			&r.TotalDiscount, &r.TotalVAT, &r.TotalServiceCharge, &r.TotalTips,
			&r.TotalLoyaltyDiscount, &r.NetSales)
	return r, err
}

const getRefundTotalForDay = `
SELECT COUNT(*), COALESCE(SUM(amount), 0)
FROM refunds
WHERE branch_id = $1
  AND created_at >= $2::date
  AND created_at < $2::date + INTERVAL '1 day'
`

type GetRefundTotalForDayRow struct {
	RefundCount int64
	TotalRefund pgtype.Numeric
}

func (q *Queries) GetRefundTotalForDay(ctx context.Context, arg GetZReadingParams) (GetRefundTotalForDayRow, error) {
	var r GetRefundTotalForDayRow
	err := q.db.QueryRow(ctx, getRefundTotalForDay, arg.BranchID, arg.Day).
		Scan(&r.RefundCount, &r.TotalRefund)
	return r, err
}

const getPaymentSummary = `
SELECT p.method, COUNT(*), COALESCE(SUM(p.amount), 0)
FROM payments p
JOIN orders o ON o.id = p.order_id
WHERE o.branch_id = $1
  AND o.status <> 'VOIDED'
  AND ($2::timestamptz IS NULL OR p.created_at >= $2)
  AND ($3::timestamptz IS NULL OR p.created_at < $3 + INTERVAL '1 day')
GROUP BY p.method
ORDER BY p.method
`

type GetPaymentSummaryParams struct {
	BranchID  uuid.UUID
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetPaymentSummaryRow struct {
	Method           string
	TransactionCount int64
	TotalAmount      pgtype.Numeric
}

func (q *Queries) GetPaymentSummary(ctx context.Context, arg GetPaymentSummaryParams) ([]GetPaymentSummaryRow, error) {
	rows, err := q.db.Query(ctx, getPaymentSummary, arg.BranchID, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GetPaymentSummaryRow
	for rows.Next() {
		var r GetPaymentSummaryRow
		if err := rows.Scan(&r.Method, &r.TransactionCount, &r.TotalAmount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
