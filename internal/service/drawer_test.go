package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/enum"
)

// mockDrawerStore implements DrawerStore with configurable behavior.
type mockDrawerStore struct {
	createDrawerSessionFn         func(ctx context.Context, arg database.CreateDrawerSessionParams) (database.DrawerSession, error)
	getDrawerSessionFn            func(ctx context.Context, arg database.GetDrawerSessionParams) (database.DrawerSession, error)
	getOpenDrawerSessionFn        func(ctx context.Context, branchID uuid.UUID) (database.DrawerSession, error)
	getOpenDrawerSessionForUpdFn  func(ctx context.Context, branchID uuid.UUID) (database.DrawerSession, error)
	closeDrawerSessionFn          func(ctx context.Context, arg database.CloseDrawerSessionParams) (database.DrawerSession, error)
	createCashMovementFn          func(ctx context.Context, arg database.CreateCashMovementParams) (database.CashMovement, error)
	listCashMovementsBySessionFn  func(ctx context.Context, sessionID uuid.UUID) ([]database.CashMovement, error)
	listOrderIDsBySessionFn       func(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockDrawerStore) CreateDrawerSession(ctx context.Context, arg database.CreateDrawerSessionParams) (database.DrawerSession, error) {
	return m.createDrawerSessionFn(ctx, arg)
}
func (m *mockDrawerStore) GetDrawerSession(ctx context.Context, arg database.GetDrawerSessionParams) (database.DrawerSession, error) {
	return m.getDrawerSessionFn(ctx, arg)
}
func (m *mockDrawerStore) GetOpenDrawerSession(ctx context.Context, branchID uuid.UUID) (database.DrawerSession, error) {
	return m.getOpenDrawerSessionFn(ctx, branchID)
}
func (m *mockDrawerStore) GetOpenDrawerSessionForUpdate(ctx context.Context, branchID uuid.UUID) (database.DrawerSession, error) {
	return m.getOpenDrawerSessionForUpdFn(ctx, branchID)
}
func (m *mockDrawerStore) CloseDrawerSession(ctx context.Context, arg database.CloseDrawerSessionParams) (database.DrawerSession, error) {
	return m.closeDrawerSessionFn(ctx, arg)
}
func (m *mockDrawerStore) CreateCashMovement(ctx context.Context, arg database.CreateCashMovementParams) (database.CashMovement, error) {
	return m.createCashMovementFn(ctx, arg)
}
func (m *mockDrawerStore) ListCashMovementsBySession(ctx context.Context, sessionID uuid.UUID) ([]database.CashMovement, error) {
	return m.listCashMovementsBySessionFn(ctx, sessionID)
}
func (m *mockDrawerStore) ListOrderIDsBySession(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	return m.listOrderIDsBySessionFn(ctx, sessionID)
}

func newDrawerTestService(store *mockDrawerStore) (*DrawerService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	newStore := func(db database.DBTX) DrawerStore { return store }
	return NewDrawerService(pool, newStore), tx
}

// defaultDrawerStore has no open session and accepts everything.
func defaultDrawerStore(branchID uuid.UUID) *mockDrawerStore {
	return &mockDrawerStore{
		createDrawerSessionFn: func(ctx context.Context, arg database.CreateDrawerSessionParams) (database.DrawerSession, error) {
			return database.DrawerSession{
				ID:           uuid.New(),
				BranchID:     arg.BranchID,
				OpenedBy:     arg.OpenedBy,
				OpeningFloat: arg.OpeningFloat,
			}, nil
		},
		getDrawerSessionFn: func(ctx context.Context, arg database.GetDrawerSessionParams) (database.DrawerSession, error) {
			return database.DrawerSession{}, pgx.ErrNoRows
		},
		getOpenDrawerSessionFn: func(ctx context.Context, bid uuid.UUID) (database.DrawerSession, error) {
			return database.DrawerSession{}, pgx.ErrNoRows
		},
		getOpenDrawerSessionForUpdFn: func(ctx context.Context, bid uuid.UUID) (database.DrawerSession, error) {
			return database.DrawerSession{}, pgx.ErrNoRows
		},
		closeDrawerSessionFn: func(ctx context.Context, arg database.CloseDrawerSessionParams) (database.DrawerSession, error) {
			return database.DrawerSession{
				ID:             arg.ID,
				ExpectedAmount: arg.ExpectedAmount,
				CountedAmount:  arg.CountedAmount,
				Difference:     arg.Difference,
			}, nil
		},
		createCashMovementFn: func(ctx context.Context, arg database.CreateCashMovementParams) (database.CashMovement, error) {
			return database.CashMovement{
				ID:        uuid.New(),
				SessionID: arg.SessionID,
				Kind:      arg.Kind,
				Amount:    arg.Amount,
				Reason:    arg.Reason,
			}, nil
		},
		listCashMovementsBySessionFn: func(ctx context.Context, sessionID uuid.UUID) ([]database.CashMovement, error) {
			return nil, nil
		},
		listOrderIDsBySessionFn: func(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
			return nil, nil
		},
	}
}

// withOpenSession rewires the store so the branch has an open session.
func (m *mockDrawerStore) withOpenSession(session database.DrawerSession) *mockDrawerStore {
	open := func(ctx context.Context, bid uuid.UUID) (database.DrawerSession, error) {
		if bid == session.BranchID {
			return session, nil
		}
		return database.DrawerSession{}, pgx.ErrNoRows
	}
	m.getOpenDrawerSessionFn = open
	m.getOpenDrawerSessionForUpdFn = open
	return m
}

func TestDrawerOpen_HappyPath(t *testing.T) {
	branchID, openedBy := uuid.New(), uuid.New()
	store := defaultDrawerStore(branchID)
	svc, tx := newDrawerTestService(store)

	session, err := svc.Open(context.Background(), branchID, openedBy, "5000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(session.OpeningFloat, "5000") {
		t.Errorf("opening float = %v, want 5000", numericToDecimal(session.OpeningFloat))
	}
	if !tx.committed {
		t.Error("transaction not committed")
	}
}

func TestDrawerOpen_NegativeFloat(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID)
	svc, _ := newDrawerTestService(store)

	if _, err := svc.Open(context.Background(), branchID, uuid.New(), "-100"); !errors.Is(err, ErrInvalidFloat) {
		t.Fatalf("expected ErrInvalidFloat, got: %v", err)
	}
	if _, err := svc.Open(context.Background(), branchID, uuid.New(), "abc"); !errors.Is(err, ErrInvalidFloat) {
		t.Fatalf("expected ErrInvalidFloat, got: %v", err)
	}
}

func TestDrawerOpen_AlreadyOpen(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:       uuid.New(),
		BranchID: branchID,
	})
	svc, _ := newDrawerTestService(store)

	_, err := svc.Open(context.Background(), branchID, uuid.New(), "5000")
	if !errors.Is(err, ErrSessionAlreadyOpen) {
		t.Fatalf("expected ErrSessionAlreadyOpen, got: %v", err)
	}
}

func TestDrawerOpen_UniqueIndexRace(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID)
	store.createDrawerSessionFn = func(ctx context.Context, arg database.CreateDrawerSessionParams) (database.DrawerSession, error) {
		return database.DrawerSession{}, &pgconn.PgError{Code: "23505", ConstraintName: "drawer_sessions_one_open_key"}
	}
	svc, _ := newDrawerTestService(store)

	_, err := svc.Open(context.Background(), branchID, uuid.New(), "5000")
	if !errors.Is(err, ErrSessionAlreadyOpen) {
		t.Fatalf("expected ErrSessionAlreadyOpen, got: %v", err)
	}
}

func TestDrawerClose_DefaultsExpectedToOpeningFloat(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:           uuid.New(),
		BranchID:     branchID,
		OpeningFloat: makeNumeric("5000.00"),
	})
	svc, _ := newDrawerTestService(store)

	result, err := svc.Close(context.Background(), branchID, uuid.New(), CloseRequest{
		CountedAmount: "4800",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(result.Session.ExpectedAmount, "5000") {
		t.Errorf("expected = %v, want 5000", numericToDecimal(result.Session.ExpectedAmount))
	}
	if !numericEquals(result.Session.Difference, "-200") {
		t.Errorf("difference = %v, want -200", numericToDecimal(result.Session.Difference))
	}
}

func TestDrawerClose_ExplicitExpected(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:           uuid.New(),
		BranchID:     branchID,
		OpeningFloat: makeNumeric("5000.00"),
	})
	svc, _ := newDrawerTestService(store)

	result, err := svc.Close(context.Background(), branchID, uuid.New(), CloseRequest{
		CountedAmount:  "12400",
		ExpectedAmount: "12350",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(result.Session.Difference, "50") {
		t.Errorf("difference = %v, want 50", numericToDecimal(result.Session.Difference))
	}
}

func TestDrawerClose_NoOpenSession(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID)
	svc, _ := newDrawerTestService(store)

	_, err := svc.Close(context.Background(), branchID, uuid.New(), CloseRequest{CountedAmount: "1000"})
	if !errors.Is(err, ErrNoOpenSession) {
		t.Fatalf("expected ErrNoOpenSession, got: %v", err)
	}
}

func TestAddMovement_DropAndPickup(t *testing.T) {
	branchID := uuid.New()
	sessionID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:       sessionID,
		BranchID: branchID,
	})
	svc, _ := newDrawerTestService(store)

	for _, kind := range []string{enum.CashMovementDrop, enum.CashMovementPickup} {
		movement, err := svc.AddMovement(context.Background(), branchID, uuid.New(), kind, "2000", "bank run")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", kind, err)
		}
		if movement.SessionID != sessionID || movement.Kind != kind {
			t.Errorf("%s: movement = %+v", kind, movement)
		}
	}
}

func TestAddMovement_RejectsNonPositive(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:       uuid.New(),
		BranchID: branchID,
	})
	svc, _ := newDrawerTestService(store)

	for _, amount := range []string{"0", "-50", "x"} {
		_, err := svc.AddMovement(context.Background(), branchID, uuid.New(), enum.CashMovementDrop, amount, "oops")
		if !errors.Is(err, ErrInvalidMovement) {
			t.Fatalf("amount %q: expected ErrInvalidMovement, got: %v", amount, err)
		}
	}
}

func TestAddMovement_RejectsUnknownKind(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:       uuid.New(),
		BranchID: branchID,
	})
	inserted := false
	store.createCashMovementFn = func(ctx context.Context, arg database.CreateCashMovementParams) (database.CashMovement, error) {
		inserted = true
		return database.CashMovement{}, nil
	}
	svc, _ := newDrawerTestService(store)

	for _, kind := range []string{"WITHDRAWAL", "drop", ""} {
		_, err := svc.AddMovement(context.Background(), branchID, uuid.New(), kind, "50.00", "test run")
		if !errors.Is(err, ErrInvalidKind) {
			t.Fatalf("kind %q: expected ErrInvalidKind, got: %v", kind, err)
		}
	}
	if inserted {
		t.Error("unknown kind reached the insert")
	}
}

func TestAddMovement_NoteSkipsAmount(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:       uuid.New(),
		BranchID: branchID,
	})
	svc, _ := newDrawerTestService(store)

	movement, err := svc.AddMovement(context.Background(), branchID, uuid.New(), enum.CashMovementNote, "", "till sticky, needs servicing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !numericEquals(movement.Amount, "0") {
		t.Errorf("note amount = %v, want 0", numericToDecimal(movement.Amount))
	}
}

func TestAddMovement_RequiresReason(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID)
	svc, _ := newDrawerTestService(store)

	_, err := svc.AddMovement(context.Background(), branchID, uuid.New(), enum.CashMovementDrop, "100", "")
	if !errors.Is(err, ErrMovementReason) {
		t.Fatalf("expected ErrMovementReason, got: %v", err)
	}
}

func TestCurrent_ReturnsSessionWithMovements(t *testing.T) {
	branchID := uuid.New()
	sessionID := uuid.New()
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:       sessionID,
		BranchID: branchID,
	})
	store.listCashMovementsBySessionFn = func(ctx context.Context, sid uuid.UUID) ([]database.CashMovement, error) {
		return []database.CashMovement{
			{ID: uuid.New(), SessionID: sid, Kind: enum.CashMovementDrop, Amount: makeNumeric("2000")},
		}, nil
	}
	svc, _ := newDrawerTestService(store)

	result, err := svc.Current(context.Background(), branchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Session.ID != sessionID || len(result.Movements) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestSession_ReturnsClosedShift(t *testing.T) {
	branchID := uuid.New()
	sessionID := uuid.New()
	store := defaultDrawerStore(branchID)
	store.getDrawerSessionFn = func(ctx context.Context, arg database.GetDrawerSessionParams) (database.DrawerSession, error) {
		if arg.ID == sessionID && arg.BranchID == branchID {
			return database.DrawerSession{ID: sessionID, BranchID: branchID}, nil
		}
		return database.DrawerSession{}, pgx.ErrNoRows
	}
	store.listCashMovementsBySessionFn = func(ctx context.Context, sid uuid.UUID) ([]database.CashMovement, error) {
		return []database.CashMovement{{ID: uuid.New(), SessionID: sid, Kind: enum.CashMovementPickup, Amount: makeNumeric("3000")}}, nil
	}
	svc, _ := newDrawerTestService(store)

	result, err := svc.Session(context.Background(), branchID, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Session.ID != sessionID || len(result.Movements) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestSession_NotFound(t *testing.T) {
	branchID := uuid.New()
	store := defaultDrawerStore(branchID)
	svc, _ := newDrawerTestService(store)

	_, err := svc.Session(context.Background(), branchID, uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got: %v", err)
	}
}

func TestCurrent_IncludesLinkedOrderIDs(t *testing.T) {
	branchID := uuid.New()
	sessionID := uuid.New()
	orderIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:       sessionID,
		BranchID: branchID,
	})
	store.listOrderIDsBySessionFn = func(ctx context.Context, sid uuid.UUID) ([]uuid.UUID, error) {
		if sid != sessionID {
			t.Errorf("session ID = %v, want %v", sid, sessionID)
		}
		return orderIDs, nil
	}
	svc, _ := newDrawerTestService(store)

	result, err := svc.Current(context.Background(), branchID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.OrderIDs) != 3 || result.OrderIDs[0] != orderIDs[0] {
		t.Errorf("order IDs = %v, want %v", result.OrderIDs, orderIDs)
	}
}

func TestDrawerClose_IncludesLinkedOrderIDs(t *testing.T) {
	branchID := uuid.New()
	sessionID := uuid.New()
	orderIDs := []uuid.UUID{uuid.New()}
	store := defaultDrawerStore(branchID).withOpenSession(database.DrawerSession{
		ID:           sessionID,
		BranchID:     branchID,
		OpeningFloat: makeNumeric("5000.00"),
	})
	store.listOrderIDsBySessionFn = func(ctx context.Context, sid uuid.UUID) ([]uuid.UUID, error) {
		return orderIDs, nil
	}
	svc, _ := newDrawerTestService(store)

	result, err := svc.Close(context.Background(), branchID, uuid.New(), CloseRequest{CountedAmount: "5000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.OrderIDs) != 1 || result.OrderIDs[0] != orderIDs[0] {
		t.Errorf("order IDs = %v, want %v", result.OrderIDs, orderIDs)
	}
}
