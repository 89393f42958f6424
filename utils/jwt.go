package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sgamb/yatut/config"
)

// Token types carried in the claims so a refresh token can never be used as
// an access token and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateToken issues a JWT of the given type for the specified user identity.
func GenerateToken(userID uint, username, tokenType string, duration time.Duration) (string, error) {
	cfg := config.Get()

	claims := Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// GenerateTokenPair issues an access/refresh pair with lifetimes from config.
func GenerateTokenPair(userID uint, username string) (access, refresh string, err error) {
	cfg := config.Get()
	access, err = GenerateToken(userID, username, TokenTypeAccess, cfg.AccessTokenTTL())
	if err != nil {
		return "", "", err
	}
	refresh, err = GenerateToken(userID, username, TokenTypeRefresh, cfg.RefreshTokenTTL())
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ParseTokenOfType validates a JWT and additionally checks its token type.
func ParseTokenOfType(tokenStr, tokenType string) (*Claims, error) {
	claims, err := ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	// Tokens minted before token types existed carry an empty type and count
	// as access tokens.
	got := claims.TokenType
	if got == "" {
		got = TokenTypeAccess
	}
	if got != tokenType {
		return nil, errors.New("wrong token type")
	}
	return claims, nil
}
