package usecase

import (
	"errors"

	authdto "github.com/Yukaii/vibers-goal/internal/auth/dto"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

// AuthUsecase guards the API with a single passphrase.
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	// ValidateToken returns the token subject
	ValidateToken(token string) (string, error)
}
