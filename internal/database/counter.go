package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Read-increment-write as one statement. The row lock taken by UPDATE
// serializes concurrent settlements on the branch counter, and a transaction
// rollback reverts both the issued number and the grand total.
const incrementFiscalCounter = `
UPDATE fiscal_counter
SET last_invoice_number = last_invoice_number + 1,
    grand_total = grand_total + $2
WHERE branch_id = $1
RETURNING last_invoice_number
`

type IncrementFiscalCounterParams struct {
	BranchID uuid.UUID
	Amount   pgtype.Numeric
}

func (q *Queries) IncrementFiscalCounter(ctx context.Context, arg IncrementFiscalCounterParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, incrementFiscalCounter, arg.BranchID, arg.Amount).Scan(&n)
	return n, err
}

// AdjustGrandTotal applies a signed delta to the running grand total without
// issuing a number. Used by refunds, which are negative ledger entries.
const adjustGrandTotal = `
UPDATE fiscal_counter
SET grand_total = grand_total + $2
WHERE branch_id = $1
`

type AdjustGrandTotalParams struct {
	BranchID uuid.UUID
	Delta    pgtype.Numeric
}

func (q *Queries) AdjustGrandTotal(ctx context.Context, arg AdjustGrandTotalParams) error {
	_, err := q.db.Exec(ctx, adjustGrandTotal, arg.BranchID, arg.Delta)
	return err
}

const getFiscalCounter = `
SELECT branch_id, last_invoice_number, grand_total
FROM fiscal_counter
WHERE branch_id = $1
`

func (q *Queries) GetFiscalCounter(ctx context.Context, branchID uuid.UUID) (FiscalCounter, error) {
	var c FiscalCounter
	err := q.db.QueryRow(ctx, getFiscalCounter, branchID).
		Scan(&c.BranchID, &c.LastInvoiceNumber, &c.GrandTotal)
	return c, err
}
