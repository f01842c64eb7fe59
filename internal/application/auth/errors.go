package auth

import "errors"

var (
	ErrMissingEmail        = errors.New("Missing email")
	ErrMissingFields       = errors.New("Missing required fields")
	ErrInvalidEmail        = errors.New("Invalid email format")
	ErrInvalidOTP          = errors.New("Invalid OTP")
	ErrOTPCooldown         = errors.New("Please wait before requesting another OTP")
	ErrTooManyAttempts     = errors.New("Too many attempts, request a new OTP")
	ErrOTPDelivery         = errors.New("Error sending OTP")
	ErrInvalidGoogleToken  = errors.New("Invalid Google token")
	ErrGoogleNotConfigured = errors.New("Google sign-in is not configured")
	ErrIDTokenRequired     = errors.New("Google ID token is required")
	ErrInvalidRefreshToken = errors.New("Invalid refresh token")
)
