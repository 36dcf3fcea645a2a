// Package auth contiene los DTOs de registro, login y perfil.
package auth

import "time"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileResponse es la vista pública de una identidad.
type ProfileResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	IsVerified   bool      `json:"isVerified"`
	Is2FAEnabled bool      `json:"is2FAEnabled"`
	HasPassword  bool      `json:"hasPassword"`
	Providers    []string  `json:"providers"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UpdateProfileRequest: los campos nil no se tocan.
type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	PhoneNumber  *string `json:"phoneNumber,omitempty"`
	Password     *string `json:"password,omitempty"`
	Is2FAEnabled *bool   `json:"is2FAEnabled,omitempty"`
}

func (r UpdateProfileRequest) Empty() bool {
	return r.Name == nil && r.PhoneNumber == nil && r.Password == nil && r.Is2FAEnabled == nil
}

type LoginHistoryItem struct {
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

type LoginHistoryResponse struct {
	Items []LoginHistoryItem `json:"items"`
}

type IsVerifiedResponse struct {
	IsVerified bool `json:"isVerified"`
}
