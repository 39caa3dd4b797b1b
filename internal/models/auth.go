package models

import "github.com/golang-jwt/jwt/v5"

// TokenRequest is the payload posted to /jwt by an authenticated frontend.
type TokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

// TokenResponse carries the issued access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// JWTClaims represents the JWT payload for access tokens. The role claim is
// resolved from the user store at issue time, never taken from the client.
type JWTClaims struct {
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
	jwt.RegisteredClaims
}
