package auth

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sahaya-donation-api/database"
	"sahaya-donation-api/models"
)

const (
	AccessTokenDuration  = 15 * time.Minute
	RefreshTokenDuration = 7 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account inactive")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidToken       = errors.New("invalid token")
)

type JWTService struct {
	secretKey []byte
	issuer    string
	db        *database.Connection
}

type Claims struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

func NewJWTService(secretKey, issuer string, db *database.Connection) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		db:        db,
	}
}

// Authenticate valida as credenciais do usuário admin e emite o par de tokens
func (j *JWTService) Authenticate(username, password string) (*models.AuthResponse, error) {
	hasher := sha256.New()
	hasher.Write([]byte(password))
	hashedPassword := hex.EncodeToString(hasher.Sum(nil))

	var email, role string
	var isActive int

	query := `
        SELECT email, role, is_active
        FROM admin_users
        WHERE username = ? AND passphrase = ?
    `

	err := j.db.GetDB().QueryRow(query, username, hashedPassword).Scan(&email, &role, &isActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %v", err)
	}

	if isActive != 1 {
		return nil, ErrUserInactive
	}

	user := models.AuthUser{
		Username: username,
		Email:    email,
		Role:     role,
		IsActive: true,
	}

	return j.issueTokenPair(user)
}

// RefreshToken valida um refresh token e emite um novo par de tokens
func (j *JWTService) RefreshToken(refreshToken string) (*models.AuthResponse, error) {
	claims, err := j.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	user := models.AuthUser{
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
		IsActive: true,
	}

	return j.issueTokenPair(user)
}

// ValidateToken valida um access token e retorna o usuário autenticado
func (j *JWTService) ValidateToken(token string) (*models.AuthUser, error) {
	claims, err := j.parseToken(token)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}

	return &models.AuthUser{
		Username: claims.Username,
		Email:    claims.Email,
		Role:     claims.Role,
		IsActive: true,
	}, nil
}

// GenerateToken gera um token JWT assinado
func (j *JWTService) GenerateToken(user models.AuthUser, tokenType string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *JWTService) issueTokenPair(user models.AuthUser) (*models.AuthResponse, error) {
	accessToken, err := j.GenerateToken(user, "access", AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %v", err)
	}

	refreshToken, err := j.GenerateToken(user, "refresh", RefreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %v", err)
	}

	return &models.AuthResponse{
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(AccessTokenDuration),
		User:         user,
	}, nil
}

func (j *JWTService) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return j.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
