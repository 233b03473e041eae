package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials forwarded to the grade service.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates an account on the grade service.
type RegisterRequest struct {
	Username string   `json:"username" validate:"required,min=3,max=64"`
	Password string   `json:"password" validate:"required,min=6"`
	Role     UserRole `json:"role" validate:"required,oneof=student teacher"`
	Year     *int     `json:"year,omitempty" validate:"omitempty,min=1,max=6"`
}

// LoginResponse returns the gateway token and the signed in user.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        User   `json:"user"`
}

// JWTClaims represents the JWT payload for gateway access tokens.
type JWTClaims struct {
	SessionID string   `json:"sid"`
	UserID    int64    `json:"user_id"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	jwt.RegisteredClaims
}
