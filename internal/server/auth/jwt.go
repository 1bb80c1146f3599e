// Package auth issues and verifies the HS256 access tokens of the board
// server.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the standard claims only: Subject is the user id and ID
// (jti) names the server-side session.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// Token is a signed access token together with the values the server keeps
// about it.
type Token struct {
	Value     string
	ID        string
	UserID    string
	ExpiresAt time.Time
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (Token, error) {
	now := time.Now()
	t := Token{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(validityDuration),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        t.ID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
		},
	})

	signed, err := token.SignedString(secretKey)
	if err != nil {
		return Token{}, err
	}
	t.Value = signed
	return t, nil
}

// ParseToken verifies the signature and the expiry of tokenString. leeway
// extends the expiry; the refresh endpoint passes its grace window here.
//
// An expired token yields common.ErrTokenExpired, every other failure
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, leeway time.Duration) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(leeway), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
