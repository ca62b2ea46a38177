package usecase

import (
	"fmt"
	"time"

	authdto "github.com/Yukaii/vibers-goal/internal/auth/dto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	subject = "owner"
	issuer  = "vibers"
)

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	passwordHash string
	secret       []byte
	expiry       time.Duration
	now          func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(passwordHash, secret string, expiry time.Duration) AuthUsecase {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &authUsecase{
		passwordHash: passwordHash,
		secret:       []byte(secret),
		expiry:       expiry,
		now:          time.Now,
	}
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	if !CheckPasswordHash(req.Password, u.passwordHash) {
		return nil, ErrInvalidPassword
	}
	return u.generateAccessToken()
}

func (u *authUsecase) generateAccessToken() (*authdto.TokenResponse, error) {
	now := u.now()
	expiresAt := now.Add(u.expiry)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(u.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &authdto.TokenResponse{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func (u *authUsecase) ValidateToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return u.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
