package auth

import (
	"errors"
	"time"

	"edm-backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GenerateJWT issues a signed token carrying the user's id, name and role.
func GenerateJWT(userID uuid.UUID, username, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID.String(),
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(config.AppConfig.TokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func VerifyJWT(tokenString string) (*jwt.Token, error) {
	// parse token
	jwtToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !jwtToken.Valid {
		return nil, errors.New("token invalid")
	}

	return jwtToken, nil
}

// GetDataFromToken extracts the identity claims from a verified token.
func GetDataFromToken(token *jwt.Token) (uuid.UUID, string, string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", "", errors.New("invalid token claims")
	}

	rawID, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, "", "", errors.New("user_id claim missing")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", "", err
	}

	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	return userID, username, role, nil
}
