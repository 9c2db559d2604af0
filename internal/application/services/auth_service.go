package services

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/magnetiq/magnetiq-go/internal/domain"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/observability/logging"
	"github.com/magnetiq/magnetiq-go/internal/infrastructure/security"
	"github.com/magnetiq/magnetiq-go/pkg/config"
)

const adminTokenTTL = 12 * time.Hour

// AuthService handles the single-operator admin login.
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates an auth service.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// Login checks the password against the configured bcrypt hash and returns
// an admin JWT. Login failures are logged without the attempted password.
func (s *AuthService) Login(password string) (string, error) {
	if config.AdminPasswordHash == "" {
		s.logger.Auth().Error("Admin login attempted but no password hash configured")
		return "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(config.AdminPasswordHash), []byte(password)); err != nil {
		s.logger.Auth().Warn("Admin login failed")
		return "", domain.ErrInvalidCredentials
	}

	token, err := security.GenerateAdminToken(config.JWTSecret, adminTokenTTL)
	if err != nil {
		return "", err
	}

	s.logger.Auth().Info("Admin login succeeded")
	return token, nil
}
