package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/sgamb/yatut/config"
)

func setupTestConfig() {
	config.SetForTesting(config.AppConfig{
		JWTSecret:          "jwt-test-secret",
		AccessTokenMinutes: 15,
		RefreshTokenDays:   7,
		LogLevel:           "silent",
	})
}

func TestTokenRoundTrip(t *testing.T) {
	setupTestConfig()

	token, err := GenerateToken(42, "leo", TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "leo" || claims.TokenType != TokenTypeAccess {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestTokenTypeEnforced(t *testing.T) {
	setupTestConfig()

	refresh, err := GenerateToken(42, "leo", TokenTypeRefresh, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseTokenOfType(refresh, TokenTypeAccess); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := ParseTokenOfType(refresh, TokenTypeRefresh); err != nil {
		t.Fatalf("refresh token rejected as refresh: %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	setupTestConfig()

	token, err := GenerateToken(42, "leo", TokenTypeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	setupTestConfig()

	token, err := GenerateToken(42, "leo", TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	config.SetForTesting(config.AppConfig{JWTSecret: "another-secret", LogLevel: "silent"})
	if _, err := ParseToken(token); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestGenerateTokenPair(t *testing.T) {
	setupTestConfig()

	access, refresh, err := GenerateTokenPair(7, "anna")
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	if _, err := ParseTokenOfType(access, TokenTypeAccess); err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if _, err := ParseTokenOfType(refresh, TokenTypeRefresh); err != nil {
		t.Fatalf("refresh token invalid: %v", err)
	}
}

func TestTokenBlacklist(t *testing.T) {
	setupTestConfig()

	token := "some.jwt.token"
	if IsTokenBlacklisted(token) {
		t.Fatal("fresh token already blacklisted")
	}
	BlacklistToken(token, time.Now().Add(time.Minute))
	if !IsTokenBlacklisted(token) {
		t.Fatal("revoked token not blacklisted")
	}

	expired := "expired.jwt.token"
	BlacklistToken(expired, time.Now().Add(-time.Minute))
	if IsTokenBlacklisted(expired) {
		t.Fatal("naturally expired entry should not count as revoked")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Fatal("wrong password accepted")
	}
}

func TestSanitizeStripsScript(t *testing.T) {
	in := `привет <script>alert(1)</script><b>мир</b>`
	out := Sanitize(in)
	if out == in {
		t.Fatal("script tag survived sanitization")
	}
	if want := "<b>мир</b>"; !strings.Contains(out, want) {
		t.Fatalf("benign markup stripped: %q", out)
	}
}
