package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	organizerSubject = "organizer"
	RoleOrganizer    = "organizer"
	tokenTTL         = 24 * time.Hour
)

type LoginInput struct {
	Password string `json:"password"`
}

type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService guards the mutating operations behind a single organizer password.
type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*TokenResult, error)
}

type authService struct {
	passwordHash []byte
	jwtSecret    []byte
	now          func() time.Time
}

func NewAuthService(passwordHash, jwtSecret string) AuthService {
	return &authService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		now:          time.Now,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*TokenResult, error) {
	if input.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidationFailed)
	}
	if len(s.passwordHash) == 0 {
		return nil, ErrAuthInvalidCredentials
	}

	err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub":  organizerSubject,
		"role": RoleOrganizer,
		"exp":  expiresAt.Unix(),
		"iat":  issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResult{Token: tokenString, ExpiresAt: expiresAt}, nil
}
