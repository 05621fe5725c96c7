package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/kusina-pos/api/internal/auth"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	employeeID := uuid.New()
	branchID := uuid.New()
	role := "CASHIER"

	token, err := auth.GenerateToken(secret, employeeID, branchID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.EmployeeID != employeeID {
		t.Errorf("employee ID: got %v, want %v", claims.EmployeeID, employeeID)
	}
	if claims.BranchID != branchID {
		t.Errorf("branch ID: got %v, want %v", claims.BranchID, branchID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	employeeID := uuid.New()
	branchID := uuid.New()

	token, err := auth.GenerateToken("secret-a", employeeID, branchID, "CASHIER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestGenerateAndValidateRefreshToken(t *testing.T) {
	secret := "test-secret"
	employeeID := uuid.New()

	token, err := auth.GenerateRefreshToken(secret, employeeID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	got, err := auth.ValidateRefreshToken(secret, token)
	if err != nil {
		t.Fatalf("validate refresh token: %v", err)
	}
	if got != employeeID {
		t.Errorf("employee ID: got %v, want %v", got, employeeID)
	}
}

func TestValidateRefreshTokenRejectsAccessToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, uuid.New(), uuid.New(), "CASHIER")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateRefreshToken(secret, token)
	if err == nil {
		t.Fatal("expected error validating access token as refresh token")
	}
}
