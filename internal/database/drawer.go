package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const drawerColumns = `
id, branch_id, opened_by, opening_float, opened_at, closed_at,
expected_amount, counted_amount, difference, denominations
`

func scanDrawerSession(row interface{ Scan(...any) error }) (DrawerSession, error) {
	var s DrawerSession
	err := row.Scan(&s.ID, &s.BranchID, &s.OpenedBy, &s.OpeningFloat, &s.OpenedAt,
		&s.ClosedAt, &s.ExpectedAmount, &s.CountedAmount, &s.Difference, &s.Denominations)
	return s, err
}

const createDrawerSession = `
INSERT INTO drawer_sessions (branch_id, opened_by, opening_float)
VALUES ($1, $2, $3)
RETURNING ` + drawerColumns

type CreateDrawerSessionParams struct {
	BranchID     uuid.UUID
	OpenedBy     uuid.UUID
	OpeningFloat pgtype.Numeric
}

func (q *Queries) CreateDrawerSession(ctx context.Context, arg CreateDrawerSessionParams) (DrawerSession, error) {
	return scanDrawerSession(q.db.QueryRow(ctx, createDrawerSession,
		arg.BranchID, arg.OpenedBy, arg.OpeningFloat))
}

const getDrawerSession = `
SELECT ` + drawerColumns + ` FROM drawer_sessions WHERE id = $1 AND branch_id = $2
`

type GetDrawerSessionParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetDrawerSession(ctx context.Context, arg GetDrawerSessionParams) (DrawerSession, error) {
	return scanDrawerSession(q.db.QueryRow(ctx, getDrawerSession, arg.ID, arg.BranchID))
}

const getOpenDrawerSession = `
SELECT ` + drawerColumns + ` FROM drawer_sessions WHERE branch_id = $1 AND closed_at IS NULL
`

func (q *Queries) GetOpenDrawerSession(ctx context.Context, branchID uuid.UUID) (DrawerSession, error) {
	return scanDrawerSession(q.db.QueryRow(ctx, getOpenDrawerSession, branchID))
}

// GetOpenDrawerSessionForUpdate locks the open session row so closing and
// attaching movements serialize.
const getOpenDrawerSessionForUpdate = getOpenDrawerSession + ` FOR NO KEY UPDATE`

func (q *Queries) GetOpenDrawerSessionForUpdate(ctx context.Context, branchID uuid.UUID) (DrawerSession, error) {
	return scanDrawerSession(q.db.QueryRow(ctx, getOpenDrawerSessionForUpdate, branchID))
}

// The closed_at IS NULL guard makes close idempotent-safe: a second close
// attempt matches zero rows.
const closeDrawerSession = `
UPDATE drawer_sessions
SET closed_at = now(),
    expected_amount = $2,
    counted_amount = $3,
    difference = $4,
    denominations = $5
WHERE id = $1 AND closed_at IS NULL
RETURNING ` + drawerColumns

type CloseDrawerSessionParams struct {
	ID             uuid.UUID
	ExpectedAmount pgtype.Numeric
	CountedAmount  pgtype.Numeric
	Difference     pgtype.Numeric
	Denominations  []byte
}

func (q *Queries) CloseDrawerSession(ctx context.Context, arg CloseDrawerSessionParams) (DrawerSession, error) {
	return scanDrawerSession(q.db.QueryRow(ctx, closeDrawerSession,
		arg.ID, arg.ExpectedAmount, arg.CountedAmount, arg.Difference, arg.Denominations))
}

const createCashMovement = `
INSERT INTO cash_movements (session_id, kind, amount, reason, created_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, session_id, kind, amount, reason, created_by, created_at
`

type CreateCashMovementParams struct {
	SessionID uuid.UUID
	Kind      string
	Amount    pgtype.Numeric
	Reason    string
	CreatedBy uuid.UUID
}

func (q *Queries) CreateCashMovement(ctx context.Context, arg CreateCashMovementParams) (CashMovement, error) {
	var m CashMovement
	err := q.db.QueryRow(ctx, createCashMovement,
		arg.SessionID, arg.Kind, arg.Amount, arg.Reason, arg.CreatedBy,
	).Scan(&m.ID, &m.SessionID, &m.Kind, &m.Amount, &m.Reason, &m.CreatedBy, &m.CreatedAt)
	return m, err
}

const listCashMovementsBySession = `
SELECT id, session_id, kind, amount, reason, created_by, created_at
FROM cash_movements
WHERE session_id = $1
ORDER BY created_at
`

func (q *Queries) ListCashMovementsBySession(ctx context.Context, sessionID uuid.UUID) ([]CashMovement, error) {
	rows, err := q.db.Query(ctx, listCashMovementsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []CashMovement
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Kind, &m.Amount,
			&m.Reason, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

const listOrderIDsBySession = `
SELECT id FROM orders WHERE drawer_session_id = $1 ORDER BY created_at
`

func (q *Queries) ListOrderIDsBySession(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listOrderIDsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
