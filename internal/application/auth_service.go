package application

import (
	"crypto/subtle"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vostok-promo/service-voucher/internal/auth"
	"github.com/vostok-promo/service-voucher/internal/domain"
)

// LoginRequest holds admin credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed admin token.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Username    string `json:"username"`
}

// AuthService authenticates the configured admin and issues JWTs.
type AuthService struct {
	username     string
	passwordHash string
	jwtManager   *auth.JWTManager
	logger       *zap.Logger
}

// NewAuthService creates an AuthService with the configured admin credentials.
func NewAuthService(username, passwordHash string, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		username:     username,
		passwordHash: passwordHash,
		jwtManager:   jwtManager,
		logger:       logger,
	}
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(req LoginRequest) (*LoginResponse, error) {
	invalid := domain.New(domain.ReasonUnauthorized, "invalid credentials")

	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) != 1 {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		return nil, invalid
	}

	token, err := s.jwtManager.Generate(s.username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin logged in", zap.String("username", s.username))
	return &LoginResponse{AccessToken: token, Username: s.username}, nil
}
