package gatewaystub

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tradeconsole/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims: стандартные утверждения плюс идентификатор пользователя.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}

func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// federatedIdentity reads the email and name claims of a provider ID token.
// The stub does not verify the provider signature.
func federatedIdentity(credential string) (email, name string, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return "", "", common.ErrInvalidToken
	}
	email, _ = claims["email"].(string)
	name, _ = claims["name"].(string)
	if email == "" {
		return "", "", common.ErrInvalidToken
	}
	return email, name, nil
}
