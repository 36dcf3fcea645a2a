// Package mfa contiene los DTOs del step-up por OTP.
package mfa

type SendOTPResponse struct {
	Sent      bool  `json:"sent"`
	ExpiresIn int64 `json:"expires_in"`
}

type VerifyOTPRequest struct {
	Code string `json:"code"`
}
