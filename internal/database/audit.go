package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createAuditEntry = `
INSERT INTO audit_log (branch_id, actor_id, action, order_id, amount, detail)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, branch_id, actor_id, action, order_id, amount, detail, created_at
`

type CreateAuditEntryParams struct {
	BranchID uuid.UUID
	ActorID  uuid.UUID
	Action   string
	OrderID  pgtype.UUID
	Amount   pgtype.Numeric
	Detail   []byte
}

func (q *Queries) CreateAuditEntry(ctx context.Context, arg CreateAuditEntryParams) (AuditEntry, error) {
	var e AuditEntry
	err := q.db.QueryRow(ctx, createAuditEntry,
		arg.BranchID, arg.ActorID, arg.Action, arg.OrderID, arg.Amount, arg.Detail,
	).Scan(&e.ID, &e.BranchID, &e.ActorID, &e.Action, &e.OrderID, &e.Amount, &e.Detail, &e.CreatedAt)
	return e, err
}

const createExportPayload = `
INSERT INTO export_queue (order_id, branch_id, payload)
VALUES ($1, $2, $3)
RETURNING id, order_id, branch_id, status, payload, attempts, last_error, created_at, updated_at
`

type CreateExportPayloadParams struct {
	OrderID  uuid.UUID
	BranchID uuid.UUID
	Payload  []byte
}

func (q *Queries) CreateExportPayload(ctx context.Context, arg CreateExportPayloadParams) (ExportPayload, error) {
	var p ExportPayload
	err := q.db.QueryRow(ctx, createExportPayload, arg.OrderID, arg.BranchID, arg.Payload).
		Scan(&p.ID, &p.OrderID, &p.BranchID, &p.Status, &p.Payload,
			&p.Attempts, &p.LastError, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const listPendingExports = `
SELECT id, order_id, branch_id, status, payload, attempts, last_error, created_at, updated_at
FROM export_queue
WHERE branch_id = $1 AND status = 'PENDING'
ORDER BY created_at
LIMIT $2
`

type ListPendingExportsParams struct {
	BranchID uuid.UUID
	Limit    int32
}

const markExportSent = `
UPDATE export_queue
SET status = 'SENT', attempts = attempts + 1, last_error = NULL, updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkExportSent(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, markExportSent, id)
	return err
}

// A failed delivery stays PENDING until it burns through its attempt budget,
// then flips to FAILED and leaves the relay's working set.
const markExportFailed = `
UPDATE export_queue
SET attempts = attempts + 1,
    last_error = $2,
    status = CASE WHEN attempts + 1 >= $3 THEN 'FAILED' ELSE 'PENDING' END,
    updated_at = now()
WHERE id = $1
`

type MarkExportFailedParams struct {
	ID          uuid.UUID
	LastError   string
	MaxAttempts int32
}

func (q *Queries) MarkExportFailed(ctx context.Context, arg MarkExportFailedParams) error {
	_, err := q.db.Exec(ctx, markExportFailed, arg.ID, arg.LastError, arg.MaxAttempts)
	return err
}

func (q *Queries) ListPendingExports(ctx context.Context, arg ListPendingExportsParams) ([]ExportPayload, error) {
	rows, err := q.db.Query(ctx, listPendingExports, arg.BranchID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payloads []ExportPayload
	for rows.Next() {
		var p ExportPayload
		if err := rows.Scan(&p.ID, &p.OrderID, &p.BranchID, &p.Status, &p.Payload,
			&p.Attempts, &p.LastError, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}
	return payloads, rows.Err()
}
