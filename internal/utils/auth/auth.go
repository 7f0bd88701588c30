package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AnitBishwas/swiss-event-handler/internal/serviceerrs"
)

const TokenExpire = 3 * time.Hour

// Claims is the app session token payload. Dest carries the shop the
// token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	Dest string `json:"dest"`
}

// NewSessionToken signs a session token for a shop, used by tooling
// and tests.
func NewSessionToken(shop string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpire)),
			},
			Dest: shop,
		},
	)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("JWT signing: %w", err)
	}
	return tokenString, nil
}

func CheckToken(tokenString string, secret []byte) (Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token %w", err)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return Claims{}, serviceerrs.ErrTokenExpired
	}

	return *claims, nil
}
