// Package service implements admin authentication. The deployment has a
// single operator account configured through the environment, so there is
// no user table: login compares against the configured bcrypt hash and
// issues a short-lived access token.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/raftaar7864/rental-management-backend/platform/apperr"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
)

const invalidCredentialsMessage = "invalid email or password"

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Service handles admin login.
type Service struct {
	cfg config.AuthServiceConfig
	log *logger.Logger
}

func New(cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{cfg: cfg, log: log}
}

// Login verifies the admin credentials and issues an access token.
func (s *Service) Login(_ context.Context, email, password string) (Token, error) {
	if !strings.EqualFold(strings.TrimSpace(email), s.cfg.GetAdminEmail()) {
		return Token{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	hash := s.cfg.GetAdminPasswordHash()
	if hash == "" {
		return Token{}, apperr.Unavailable("admin login is not configured")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.log.Warn("admin login rejected", "email", email)
		return Token{}, apperr.Unauthorized(invalidCredentialsMessage)
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.GetAccessTokenTTL())

	claims := jwt.MapClaims{
		"sub":  s.cfg.GetAdminEmail(),
		"type": "access",
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return Token{}, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}

	return Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
