package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"sahaya-donation-api/models"
	"sahaya-donation-api/services/auth"
	"sahaya-donation-api/utils"
)

type AuthHandler struct {
	jwtService *auth.JWTService
}

// NewAuthHandler cria um novo handler de autenticação do painel admin
func NewAuthHandler(jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
	}
}

// Login autentica um usuário do painel e retorna tokens JWT
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding login request: %v", err)
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	log.Printf("Login attempt for user: %s", req.Username)

	authResponse, err := h.jwtService.Authenticate(req.Username, req.Password)
	if err != nil {
		log.Printf("Authentication failed for user %s: %v", req.Username, err)

		var message string
		var statusCode int

		switch err {
		case auth.ErrInvalidCredentials:
			message = "Invalid username or password"
			statusCode = http.StatusUnauthorized
		case auth.ErrUserInactive:
			message = "Account is inactive"
			statusCode = http.StatusForbidden
		default:
			message = "Authentication failed"
			statusCode = http.StatusInternalServerError
		}

		utils.SendErrorResponse(w, statusCode, message)
		return
	}

	log.Printf("Login successful for user: %s (role: %s)", req.Username, authResponse.User.Role)

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Authentication successful",
		Data:    authResponse,
	})
}

// RefreshToken renova um access token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding refresh token request: %v", err)
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	authResponse, err := h.jwtService.RefreshToken(req.RefreshToken)
	if err != nil {
		log.Printf("Token refresh failed: %v", err)
		utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Token refreshed",
		Data:    authResponse,
	})
}
