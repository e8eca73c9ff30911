// Package auth issues and reads the access tokens that carry a request's
// account between CLI invocations.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sasset/core/internal/account"
	"github.com/sasset/core/internal/common"
)

// Claims are the standard claims plus the account identity.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"aid"`
	Username  string `json:"usr"`
}

func GenerateToken(data account.Data, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   data.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AccountID: data.ID,
		Username:  data.Username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// AccountFromToken validates tokenString and returns the account it carries.
// Every failure unwraps to common.ErrInvalidToken.
func AccountFromToken(tokenString string, secretKey []byte) (account.Data, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return account.Data{}, errors.Join(common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.AccountID == "" || claims.Username == "" {
		return account.Data{}, common.ErrInvalidToken
	}

	return account.Data{ID: claims.AccountID, Username: claims.Username}, nil
}
