// Package session contiene los DTOs de credenciales de sesión.
package session

// TokenResponse es la credencial de sesión entregada al cliente.
type TokenResponse struct {
	AccessToken    string `json:"access_token"`
	TokenType      string `json:"token_type"`
	ExpiresIn      int64  `json:"expires_in"`
	StepUpRequired bool   `json:"step_up_required"`
}

type ExchangeCodeRequest struct {
	Code string `json:"code"`
}

type IsAuthenticatedResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
	StepUpPending bool   `json:"stepUpPending,omitempty"`
}
