package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KioskLoginRequest authenticates a kiosk device by id and PIN.
type KioskLoginRequest struct {
	DeviceID string `json:"device_id" validate:"required"`
	PIN      string `json:"pin" validate:"required,min=4"`
}

// KioskLoginResponse carries the issued device token.
type KioskLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Kiosk       KioskInfo `json:"kiosk"`
}

// KioskInfo is the public subset of a kiosk returned after login.
type KioskInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CampusID string `json:"campus_id"`
}

// KioskClaims is the JWT payload carried by kiosk device tokens.
type KioskClaims struct {
	KioskID  string `json:"kiosk_id"`
	CampusID string `json:"campus_id"`
	jwt.RegisteredClaims
}
