package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/handler"
	"github.com/kusina-pos/api/internal/middleware"
	"github.com/kusina-pos/api/internal/service"
	"github.com/kusina-pos/api/internal/ws"
)

// --- Mock DrawerServicer ---

type mockDrawerService struct {
	openFn        func(ctx context.Context, branchID, openedBy uuid.UUID, openingFloat string) (*database.DrawerSession, error)
	closeFn       func(ctx context.Context, branchID, closedBy uuid.UUID, req service.CloseRequest) (*service.CloseResult, error)
	addMovementFn func(ctx context.Context, branchID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error)
	currentFn     func(ctx context.Context, branchID uuid.UUID) (*service.CloseResult, error)
	sessionFn     func(ctx context.Context, branchID, sessionID uuid.UUID) (*service.CloseResult, error)
}

func (m *mockDrawerService) Open(ctx context.Context, branchID, openedBy uuid.UUID, openingFloat string) (*database.DrawerSession, error) {
	return m.openFn(ctx, branchID, openedBy, openingFloat)
}

func (m *mockDrawerService) Close(ctx context.Context, branchID, closedBy uuid.UUID, req service.CloseRequest) (*service.CloseResult, error) {
	return m.closeFn(ctx, branchID, closedBy, req)
}

func (m *mockDrawerService) AddMovement(ctx context.Context, branchID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error) {
	return m.addMovementFn(ctx, branchID, createdBy, kind, amount, reason)
}

func (m *mockDrawerService) Current(ctx context.Context, branchID uuid.UUID) (*service.CloseResult, error) {
	return m.currentFn(ctx, branchID)
}

func (m *mockDrawerService) Session(ctx context.Context, branchID, sessionID uuid.UUID) (*service.CloseResult, error) {
	return m.sessionFn(ctx, branchID, sessionID)
}

func setupDrawerRouter(svc *mockDrawerService, hub *mockHub) *chi.Mux {
	var b handler.Broadcaster
	if hub != nil {
		b = hub
	}
	h := handler.NewDrawerHandler(svc, b)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/branches/{bid}/drawer", h.RegisterRoutes)
	return r
}

func testDrawerSession(branchID uuid.UUID) database.DrawerSession {
	return database.DrawerSession{
		ID:           uuid.New(),
		BranchID:     branchID,
		OpenedBy:     uuid.New(),
		OpeningFloat: testNumeric("5000.00"),
		OpenedAt:     time.Now(),
	}
}

// --- Open ---

func TestDrawerOpen_HappyPath(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)
	hub := &mockHub{}
	session := testDrawerSession(branchID)

	svc := &mockDrawerService{
		openFn: func(ctx context.Context, bID, openedBy uuid.UUID, openingFloat string) (*database.DrawerSession, error) {
			if bID != branchID {
				t.Errorf("branch_id: got %v, want %v", bID, branchID)
			}
			if openedBy != claims.EmployeeID {
				t.Errorf("opened_by: got %v, want %v", openedBy, claims.EmployeeID)
			}
			if openingFloat != "5000.00" {
				t.Errorf("opening_float: got %v, want 5000.00", openingFloat)
			}
			return &session, nil
		},
	}

	router := setupDrawerRouter(svc, hub)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/open",
		map[string]interface{}{"opening_float": "5000.00"}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["opening_float"] != "5000.00" {
		t.Errorf("opening_float: got %v, want 5000.00", resp["opening_float"])
	}
	if resp["closed_at"] != nil {
		t.Errorf("closed_at: got %v, want nil", resp["closed_at"])
	}

	events := hub.events()
	if len(events) != 1 || events[0].event.Type != ws.EventDrawerOpened {
		t.Fatalf("expected one %s broadcast, got %v", ws.EventDrawerOpened, events)
	}
}

func TestDrawerOpen_MissingFloat(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	router := setupDrawerRouter(&mockDrawerService{}, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/open",
		map[string]interface{}{}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestDrawerOpen_AlreadyOpen(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)
	hub := &mockHub{}

	svc := &mockDrawerService{
		openFn: func(ctx context.Context, bID, openedBy uuid.UUID, openingFloat string) (*database.DrawerSession, error) {
			return nil, service.ErrSessionAlreadyOpen
		},
	}

	router := setupDrawerRouter(svc, hub)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/open",
		map[string]interface{}{"opening_float": "5000.00"}, claims)

	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
	if len(hub.events()) != 0 {
		t.Error("no broadcast expected on failed open")
	}
}

func TestDrawerOpen_NegativeFloat(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	svc := &mockDrawerService{
		openFn: func(ctx context.Context, bID, openedBy uuid.UUID, openingFloat string) (*database.DrawerSession, error) {
			return nil, service.ErrInvalidFloat
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/open",
		map[string]interface{}{"opening_float": "-100.00"}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestDrawerOpen_NoAuth(t *testing.T) {
	router := setupDrawerRouter(&mockDrawerService{}, nil)

	branchID := uuid.New()
	req := httptest.NewRequest("POST", "/branches/"+branchID.String()+"/drawer/open", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

// --- Close ---

func TestDrawerClose_HappyPath(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)
	hub := &mockHub{}

	session := testDrawerSession(branchID)
	session.ClosedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	session.ExpectedAmount = testNumeric("5000.00")
	session.CountedAmount = testNumeric("4800.00")
	session.Difference = testNumeric("-200.00")
	orderID := uuid.New()

	svc := &mockDrawerService{
		closeFn: func(ctx context.Context, bID, closedBy uuid.UUID, req service.CloseRequest) (*service.CloseResult, error) {
			if req.CountedAmount != "4800.00" {
				t.Errorf("counted_amount: got %v, want 4800.00", req.CountedAmount)
			}
			if req.Denominations["1000"] != 4 {
				t.Errorf("denominations: got %v", req.Denominations)
			}
			return &service.CloseResult{
				Session: session,
				Movements: []database.CashMovement{
					{ID: uuid.New(), SessionID: session.ID, Kind: "DROP", Amount: testNumeric("2000.00"), Reason: "bank drop", CreatedBy: closedBy},
				},
				OrderIDs: []uuid.UUID{orderID},
			}, nil
		},
	}

	router := setupDrawerRouter(svc, hub)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/close",
		map[string]interface{}{
			"counted_amount": "4800.00",
			"denominations":  map[string]int32{"1000": 4, "500": 1, "100": 3},
		}, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["difference"] != "-200.00" {
		t.Errorf("difference: got %v, want -200.00", resp["difference"])
	}
	if resp["closed_at"] == nil {
		t.Error("closed_at should be set")
	}
	movements := resp["movements"].([]interface{})
	if len(movements) != 1 {
		t.Fatalf("movements count: got %d, want 1", len(movements))
	}
	orderIDs := resp["order_ids"].([]interface{})
	if len(orderIDs) != 1 || orderIDs[0] != orderID.String() {
		t.Errorf("order_ids: got %v, want [%v]", orderIDs, orderID)
	}

	events := hub.events()
	if len(events) != 1 || events[0].event.Type != ws.EventDrawerClosed {
		t.Fatalf("expected one %s broadcast, got %v", ws.EventDrawerClosed, events)
	}
}

func TestDrawerClose_NoOpenSession(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	svc := &mockDrawerService{
		closeFn: func(ctx context.Context, bID, closedBy uuid.UUID, req service.CloseRequest) (*service.CloseResult, error) {
			return nil, service.ErrNoOpenSession
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/close",
		map[string]interface{}{"counted_amount": "4800.00"}, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}
}

func TestDrawerClose_MissingCounted(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	router := setupDrawerRouter(&mockDrawerService{}, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/close",
		map[string]interface{}{}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

// --- AddMovement ---

func TestDrawerMovement_HappyPath(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)
	sessionID := uuid.New()

	svc := &mockDrawerService{
		addMovementFn: func(ctx context.Context, bID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error) {
			if kind != "DROP" {
				t.Errorf("kind: got %v, want DROP", kind)
			}
			if amount != "2000.00" {
				t.Errorf("amount: got %v, want 2000.00", amount)
			}
			if reason != "bank drop" {
				t.Errorf("reason: got %v, want 'bank drop'", reason)
			}
			return &database.CashMovement{
				ID:        uuid.New(),
				SessionID: sessionID,
				Kind:      kind,
				Amount:    testNumeric(amount),
				Reason:    reason,
				CreatedBy: createdBy,
				CreatedAt: time.Now(),
			}, nil
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/movements",
		map[string]interface{}{"kind": "DROP", "amount": "2000.00", "reason": "bank drop"}, claims)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["kind"] != "DROP" {
		t.Errorf("kind: got %v, want DROP", resp["kind"])
	}
	if resp["amount"] != "2000.00" {
		t.Errorf("amount: got %v, want 2000.00", resp["amount"])
	}
}

func TestDrawerMovement_MissingKind(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	router := setupDrawerRouter(&mockDrawerService{}, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/movements",
		map[string]interface{}{"amount": "2000.00", "reason": "bank drop"}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestDrawerMovement_InvalidAmount(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	svc := &mockDrawerService{
		addMovementFn: func(ctx context.Context, bID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error) {
			return nil, service.ErrInvalidMovement
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/movements",
		map[string]interface{}{"kind": "DROP", "amount": "-50.00", "reason": "bad"}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestDrawerMovement_UnknownKind(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	svc := &mockDrawerService{
		addMovementFn: func(ctx context.Context, bID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error) {
			return nil, service.ErrInvalidKind
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/movements",
		map[string]interface{}{"kind": "WITHDRAWAL", "amount": "50.00", "reason": "petty cash"}, claims)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestDrawerMovement_NoOpenSession(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	svc := &mockDrawerService{
		addMovementFn: func(ctx context.Context, bID, createdBy uuid.UUID, kind, amount, reason string) (*database.CashMovement, error) {
			return nil, service.ErrNoOpenSession
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "POST", "/branches/"+branchID.String()+"/drawer/movements",
		map[string]interface{}{"kind": "PICKUP", "amount": "500.00", "reason": "change run"}, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}
}

// --- Current ---

func TestDrawerCurrent_HappyPath(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)
	session := testDrawerSession(branchID)
	orderIDs := []uuid.UUID{uuid.New(), uuid.New()}

	svc := &mockDrawerService{
		currentFn: func(ctx context.Context, bID uuid.UUID) (*service.CloseResult, error) {
			return &service.CloseResult{
				Session: session,
				Movements: []database.CashMovement{
					{ID: uuid.New(), SessionID: session.ID, Kind: "NOTE", Amount: testNumeric("0.00"), Reason: "drawer sticking again", CreatedBy: uuid.New()},
				},
				OrderIDs: orderIDs,
			}, nil
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/drawer/current", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["id"] != session.ID.String() {
		t.Errorf("id: got %v, want %v", resp["id"], session.ID)
	}
	movements := resp["movements"].([]interface{})
	if len(movements) != 1 {
		t.Fatalf("movements count: got %d, want 1", len(movements))
	}
	if movements[0].(map[string]interface{})["kind"] != "NOTE" {
		t.Errorf("movement kind: got %v, want NOTE", movements[0].(map[string]interface{})["kind"])
	}
	ids := resp["order_ids"].([]interface{})
	if len(ids) != 2 || ids[0] != orderIDs[0].String() || ids[1] != orderIDs[1].String() {
		t.Errorf("order_ids: got %v, want %v", ids, orderIDs)
	}
}

// --- Session ---

func TestDrawerSession_HappyPath(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)
	session := testDrawerSession(branchID)
	session.ClosedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	session.Difference = testNumeric("-50.00")

	svc := &mockDrawerService{
		sessionFn: func(ctx context.Context, bID, sID uuid.UUID) (*service.CloseResult, error) {
			if sID != session.ID {
				t.Errorf("session ID: got %v, want %v", sID, session.ID)
			}
			return &service.CloseResult{
				Session:   session,
				Movements: []database.CashMovement{},
				OrderIDs:  []uuid.UUID{uuid.New()},
			}, nil
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/drawer/sessions/"+session.ID.String(), nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["id"] != session.ID.String() {
		t.Errorf("id: got %v, want %v", resp["id"], session.ID)
	}
	if resp["difference"] != "-50.00" {
		t.Errorf("difference: got %v, want -50.00", resp["difference"])
	}
	if len(resp["order_ids"].([]interface{})) != 1 {
		t.Errorf("order_ids: got %v, want one entry", resp["order_ids"])
	}
}

func TestDrawerSession_NotFound(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	svc := &mockDrawerService{
		sessionFn: func(ctx context.Context, bID, sID uuid.UUID) (*service.CloseResult, error) {
			return nil, service.ErrSessionNotFound
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/drawer/sessions/"+uuid.New().String(), nil, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}
}

func TestDrawerCurrent_NoSession(t *testing.T) {
	branchID := uuid.New()
	claims := testClaims(branchID)

	svc := &mockDrawerService{
		currentFn: func(ctx context.Context, bID uuid.UUID) (*service.CloseResult, error) {
			return nil, service.ErrNoOpenSession
		},
	}

	router := setupDrawerRouter(svc, nil)
	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/drawer/current", nil, claims)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusNotFound, rr.Body.String())
	}
}
