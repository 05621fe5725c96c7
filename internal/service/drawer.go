package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the drawer service.
var (
	ErrSessionAlreadyOpen = errors.New("a drawer session is already open for this branch")
	ErrNoOpenSession      = errors.New("no open drawer session for this branch")
	ErrSessionNotFound    = errors.New("drawer session not found")
	ErrInvalidFloat       = errors.New("invalid opening float")
	ErrInvalidCounted     = errors.New("invalid counted amount")
	ErrInvalidExpected    = errors.New("invalid expected amount")
	ErrInvalidMovement    = errors.New("movement amount must be positive")
	ErrInvalidKind        = errors.New("movement kind must be DROP, PICKUP, or NOTE")
	ErrMovementReason     = errors.New("movement requires a reason")
)

// DrawerStore defines the DB methods drawer sessions need.
type DrawerStore interface {
	CreateDrawerSession(ctx context.Context, arg database.CreateDrawerSessionParams) (database.DrawerSession, error)
	GetDrawerSession(ctx context.Context, arg database.GetDrawerSessionParams) (database.DrawerSession, error)
	GetOpenDrawerSession(ctx context.Context, branchID uuid.UUID) (database.DrawerSession, error)
	GetOpenDrawerSessionForUpdate(ctx context.Context, branchID uuid.UUID) (database.DrawerSession, error)
	CloseDrawerSession(ctx context.Context, arg database.CloseDrawerSessionParams) (database.DrawerSession, error)
	CreateCashMovement(ctx context.Context, arg database.CreateCashMovementParams) (database.CashMovement, error)
	ListCashMovementsBySession(ctx context.Context, sessionID uuid.UUID) ([]database.CashMovement, error)
	ListOrderIDsBySession(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
}

// NewDrawerStore creates a DrawerStore from a DBTX (pool or tx).
type NewDrawerStore func(db database.DBTX) DrawerStore

// DrawerService manages cash drawer shifts: one open session per branch,
// mid-shift movements, and the closing count.
type DrawerService struct {
	pool     TxBeginner
	newStore NewDrawerStore
}

func NewDrawerService(pool TxBeginner, newStore NewDrawerStore) *DrawerService {
	return &DrawerService{pool: pool, newStore: newStore}
}

// Open starts a shift with a counted opening float. The partial unique index
// on (branch_id) WHERE closed_at IS NULL backstops the in-transaction check
// against a concurrent open.
func (s *DrawerService) Open(ctx context.Context, branchID, openedBy uuid.UUID, openingFloat string) (*database.DrawerSession, error) {
	float, err := decimal.NewFromString(openingFloat)
	if err != nil || float.IsNegative() {
		return nil, ErrInvalidFloat
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOpenDrawerSession(ctx, branchID); err == nil {
		return nil, ErrSessionAlreadyOpen
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get open drawer session: %w", err)
	}

	session, err := store.CreateDrawerSession(ctx, database.CreateDrawerSessionParams{
		BranchID:     branchID,
		OpenedBy:     openedBy,
		OpeningFloat: decimalToNumeric(float),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSessionAlreadyOpen
		}
		return nil, fmt.Errorf("create drawer session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &session, nil
}

// CloseRequest carries the closing count. ExpectedAmount is optional; when
// absent the opening float stands in as the baseline.
type CloseRequest struct {
	CountedAmount  string
	ExpectedAmount string
	Denominations  map[string]int32 // denomination label -> count
}

// CloseResult is the closed session with its cash movement history and the
// orders settled against it.
type CloseResult struct {
	Session   database.DrawerSession
	Movements []database.CashMovement
	OrderIDs  []uuid.UUID
}

// Close ends the open shift: records the counted cash against the expected
// amount and freezes the session. The difference is counted minus expected,
// so shortages come out negative.
func (s *DrawerService) Close(ctx context.Context, branchID, closedBy uuid.UUID, req CloseRequest) (*CloseResult, error) {
	counted, err := decimal.NewFromString(req.CountedAmount)
	if err != nil || counted.IsNegative() {
		return nil, ErrInvalidCounted
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	session, err := store.GetOpenDrawerSessionForUpdate(ctx, branchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("get open drawer session: %w", err)
	}

	expected := numericToDecimal(session.OpeningFloat)
	if req.ExpectedAmount != "" {
		expected, err = decimal.NewFromString(req.ExpectedAmount)
		if err != nil || expected.IsNegative() {
			return nil, ErrInvalidExpected
		}
	}

	var denominations []byte
	if req.Denominations != nil {
		denominations, _ = json.Marshal(req.Denominations)
	}

	closed, err := store.CloseDrawerSession(ctx, database.CloseDrawerSessionParams{
		ID:             session.ID,
		ExpectedAmount: decimalToNumeric(expected),
		CountedAmount:  decimalToNumeric(counted),
		Difference:     decimalToNumeric(counted.Sub(expected)),
		Denominations:  denominations,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("close drawer session: %w", err)
	}

	movements, err := store.ListCashMovementsBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	orderIDs, err := store.ListOrderIDsBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list session orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &CloseResult{Session: closed, Movements: movements, OrderIDs: orderIDs}, nil
}

// AddMovement records a mid-shift cash event against the open session.
// Drops and pickups move money and must be positive; notes are free-form
// annotations with a zero amount.
func (s *DrawerService) AddMovement(ctx context.Context, branchID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error) {
	switch kind {
	case enum.CashMovementDrop, enum.CashMovementPickup, enum.CashMovementNote:
	default:
		return nil, ErrInvalidKind
	}
	if reason == "" {
		return nil, ErrMovementReason
	}

	value := decimal.Zero
	if kind != enum.CashMovementNote {
		var err error
		value, err = decimal.NewFromString(amount)
		if err != nil || !value.IsPositive() {
			return nil, ErrInvalidMovement
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	session, err := store.GetOpenDrawerSessionForUpdate(ctx, branchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("get open drawer session: %w", err)
	}

	movement, err := store.CreateCashMovement(ctx, database.CreateCashMovementParams{
		SessionID: session.ID,
		Kind:      kind,
		Amount:    decimalToNumeric(value),
		Reason:    reason,
		CreatedBy: createdBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create cash movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &movement, nil
}

// Session returns a specific shift, open or closed, with its movements and
// linked orders. Closed shifts back the variance review after end of day.
func (s *DrawerService) Session(ctx context.Context, branchID, sessionID uuid.UUID) (*CloseResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	session, err := store.GetDrawerSession(ctx, database.GetDrawerSessionParams{ID: sessionID, BranchID: branchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get drawer session: %w", err)
	}
	movements, err := store.ListCashMovementsBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	orderIDs, err := store.ListOrderIDsBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list session orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &CloseResult{Session: session, Movements: movements, OrderIDs: orderIDs}, nil
}

// Current returns the open session with its movements, for the drawer status
// panel.
func (s *DrawerService) Current(ctx context.Context, branchID uuid.UUID) (*CloseResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	session, err := store.GetOpenDrawerSession(ctx, branchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenSession
		}
		return nil, fmt.Errorf("get open drawer session: %w", err)
	}
	movements, err := store.ListCashMovementsBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	orderIDs, err := store.ListOrderIDsBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list session orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &CloseResult{Session: session, Movements: movements, OrderIDs: orderIDs}, nil
}
