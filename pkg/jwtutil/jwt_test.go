package jwtutil

import (
	"testing"

	"github.com/mdyrsy/kalbar-cm/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "unit-test-key", ExpirationHours: 1})

	token, err := GenerateToken("am@example.com", "user-123", "account_manager", "PRQ")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Email != "am@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.UserID != "user-123" {
		t.Errorf("user_id = %q", claims.UserID)
	}
	if claims.Role != "account_manager" {
		t.Errorf("role = %q", claims.Role)
	}
	if claims.Segment != "PRQ" {
		t.Errorf("segment = %q", claims.Segment)
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("am@example.com", "user-123", "", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail with a different signing key")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "unit-test-key", ExpirationHours: -1})
	token, err := GenerateToken("am@example.com", "user-123", "", "")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail for an expired token")
	}
}

func TestUninitializedConfig(t *testing.T) {
	old := jwtConfig
	jwtConfig = nil
	defer func() { jwtConfig = old }()

	if _, err := GenerateToken("am@example.com", "user-123", "", ""); err == nil {
		t.Error("expected GenerateToken to fail without configuration")
	}
	if _, err := ValidateToken("whatever"); err == nil {
		t.Error("expected ValidateToken to fail without configuration")
	}
}
