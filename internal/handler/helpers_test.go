package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kusina-pos/api/internal/auth"
	"github.com/kusina-pos/api/internal/ws"
)

const testJWTSecret = "test-secret-for-handlers"

func testNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		panic("testNumeric: " + err.Error())
	}
	return n
}

func testClaims(branchID uuid.UUID) *auth.Claims {
	return &auth.Claims{
		EmployeeID: uuid.New(),
		BranchID:   branchID,
		Role:       "CASHIER",
	}
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, claims.EmployeeID, claims.BranchID, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Mock Broadcaster / EventPublisher ---

type broadcastCall struct {
	branchID uuid.UUID
	event    ws.Event
}

type mockHub struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (m *mockHub) BroadcastToBranch(branchID uuid.UUID, event ws.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, broadcastCall{branchID: branchID, event: event})
}

func (m *mockHub) events() []broadcastCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcastCall(nil), m.calls...)
}

type publishCall struct {
	branchID string
	key      string
}

type mockPublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (m *mockPublisher) PublishEvent(ctx context.Context, branchID, key string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, publishCall{branchID: branchID, key: key})
	return m.err
}

func (m *mockPublisher) published() []publishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishCall(nil), m.calls...)
}
