package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/teamdesk/teamdesk/internal/model"
)

const _tokenTTL = 24 * time.Hour

type tokenClaims struct {
	UserID model.ID `json:"userId"`
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	jwt.RegisteredClaims
}

func newToken(secret string, user model.User) (string, error) {
	claims := tokenClaims{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(_tokenTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseToken(secret, token string) (model.User, error) {
	claims := &tokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.User{}, err
	}
	if !parsed.Valid {
		return model.User{}, fmt.Errorf("invalid token")
	}

	return model.User{
		ID:   claims.UserID,
		Name: claims.Name,
		Role: claims.Role,
	}, nil
}
