package auth

import "fmt"

var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidEmail       = fmt.Errorf("invalid email")
	ErrInvalidName        = fmt.Errorf("invalid display name")
	ErrInvalidPhone       = fmt.Errorf("invalid phone number")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrEmailInUse         = fmt.Errorf("email already in use")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrPhoneRequired      = fmt.Errorf("phone number required to enable 2FA")
	ErrConcurrentUpdate   = fmt.Errorf("profile was modified concurrently")
)
