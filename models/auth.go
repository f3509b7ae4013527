package models

import "time"

// AuthRequest representa uma requisição de autenticação do painel admin
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshTokenRequest representa uma requisição de renovação de token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthUser representa um usuário autenticado
type AuthUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"` // "admin" ou "editor"
	IsActive bool   `json:"is_active"`
}

// AuthResponse representa a resposta de autenticação
type AuthResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         AuthUser  `json:"user"`
}
