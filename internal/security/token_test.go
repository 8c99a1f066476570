package security

import (
	"testing"
	"time"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name   string
		userID uint
		role   string
	}{
		{
			name:   "Regular user",
			userID: 1,
			role:   RoleUser,
		},
		{
			name:   "Admin user",
			userID: 2,
			role:   RoleAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateJWT(tt.userID, tt.role, "test_secret_key_minimum_32_chars")
			if err != nil {
				t.Fatalf("GenerateJWT() error = %v", err)
			}

			if token == "" {
				t.Error("GenerateJWT() returned empty token")
			}

			claims, err := ValidateJWT(token, "test_secret_key_minimum_32_chars")
			if err != nil {
				t.Fatalf("ValidateJWT() error = %v", err)
			}

			if claims.UserID != tt.userID {
				t.Errorf("UserID = %d, want %d", claims.UserID, tt.userID)
			}

			if claims.Role != tt.role {
				t.Errorf("Role = %q, want %q", claims.Role, tt.role)
			}
		})
	}
}

func TestValidateToken_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "Empty token",
			token: "",
		},
		{
			name:  "Invalid format",
			token: "invalid.token.here",
		},
		{
			name:  "Random string",
			token: "randomstring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJWT(tt.token, "test_secret_key_minimum_32_chars")
			if err == nil {
				t.Error("ValidateJWT() expected error for invalid token, got nil")
			}
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateJWT(1, RoleUser, "test_secret_key_minimum_32_chars")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	_, err = ValidateJWT(token, "a_completely_different_secret_key")
	if err == nil {
		t.Error("ValidateJWT() expected error for wrong secret, got nil")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	userID := uint(42)

	token, err := GenerateJWT(userID, RoleAdmin, "test_secret_key_minimum_32_chars")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ValidateJWT(token, "test_secret_key_minimum_32_chars")
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("UserID = %d, want %d", claims.UserID, userID)
	}

	if claims.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", claims.Role, RoleAdmin)
	}

	// Verify expiration is in the future
	if claims.ExpiresAt.Time.Before(time.Now()) {
		t.Error("Token already expired")
	}

	// Verify expiration is within 24 hours
	expectedExpiry := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt.Time.After(expectedExpiry.Add(time.Minute)) {
		t.Error("Token expiration is too far in the future")
	}
}
