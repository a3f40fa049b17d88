package utils

import "testing"

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ng&Secure!pw", false},
		{"too short", "Sh0rt&pw!", true},
		{"no uppercase", "str0ng&secure!pw", true},
		{"no lowercase", "STR0NG&SECURE!PW", true},
		{"no digit", "Strong&Secure!pw", true},
		{"no special", "Str0ngAndSecurepw", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("GenerateSessionToken failed: %v", err)
		}
		if len(token) != 64 {
			t.Fatalf("Expected 64 hex chars, got %d", len(token))
		}
		if seen[token] {
			t.Fatal("Duplicate token generated")
		}
		seen[token] = true
	}
}
