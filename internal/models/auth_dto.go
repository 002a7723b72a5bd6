package models

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPairResponse struct {
	AccessToken            string    `json:"accessToken"`
	RefreshToken           string    `json:"refreshToken"`
	AccessTokenExpireTime  time.Time `json:"accessTokenExpireTime"`
	RefreshTokenExpireTime time.Time `json:"refreshTokenExpireTime"`
}

type TokenRefreshRequest struct {
	Token string `json:"token"`
}

type GoogleTokenRequest struct {
	Token string `json:"token"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type SubmitPasswordResetRequest struct {
	ConfirmationCode string `json:"confirmationCode"`
	NewPassword      string `json:"newPassword"`
}

type EndSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type SendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
