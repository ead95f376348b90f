package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims for an interview owner
type UserClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// GuestRequest is the optional body for guest sign-in
type GuestRequest struct {
	DisplayName string `json:"displayName"`
}

// GuestResponse is returned after a guest token is issued
type GuestResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
