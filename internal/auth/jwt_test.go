package auth

import (
	"testing"
	"time"
)

func TestMintAndParseTokens(t *testing.T) {
	const secret = "test-secret"
	pair, err := MintTokens(7, "user@example.com", secret, time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens() error = %v", err)
	}

	tests := []struct {
		name      string
		token     string
		tokenType string
		secret    string
		wantErr   bool
	}{
		{"access as access", pair.AccessToken, TokenTypeAccess, secret, false},
		{"refresh as refresh", pair.RefreshToken, TokenTypeRefresh, secret, false},
		{"refresh as access", pair.RefreshToken, TokenTypeAccess, secret, true},
		{"access as refresh", pair.AccessToken, TokenTypeRefresh, secret, true},
		{"wrong secret", pair.AccessToken, TokenTypeAccess, "other", true},
		{"garbage", "not-a-token", TokenTypeAccess, secret, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseTyped(tt.token, tt.secret, tt.tokenType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTyped() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (c.UserID != 7 || c.Email != "user@example.com") {
				t.Errorf("claims = %+v", c)
			}
		})
	}
}

func TestParseClaims_Expired(t *testing.T) {
	pair, err := MintTokens(1, "a@b.co", "s", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("MintTokens() error = %v", err)
	}
	if _, err := ParseClaims(pair.AccessToken, "s"); err == nil {
		t.Error("expected expired token to fail")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "battery staple") {
		t.Error("CheckPassword() accepted the wrong password")
	}
}
