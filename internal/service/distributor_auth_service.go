package service

import (
	"strings"
	"time"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DistributorAuthService authenticates portal users.
type DistributorAuthService struct {
	cfg             *config.Config
	distributorRepo repository.DistributorRepository
}

// NewDistributorAuthService creates the portal auth service.
func NewDistributorAuthService(cfg *config.Config, distributorRepo repository.DistributorRepository) *DistributorAuthService {
	return &DistributorAuthService{
		cfg:             cfg,
		distributorRepo: distributorRepo,
	}
}

// DistributorClaims is the portal token payload.
type DistributorClaims struct {
	DistributorID uint   `json:"distributor_id"`
	Code          string `json:"code"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a portal token.
func (s *DistributorAuthService) GenerateJWT(d *models.Distributor) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)
	claims := DistributorClaims{
		DistributorID: d.ID,
		Code:          d.Code,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseJWT verifies a portal token.
func (s *DistributorAuthService) ParseJWT(tokenString string) (*DistributorClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &DistributorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*DistributorClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidCredentials
}

// Login checks portal credentials and issues a token.
func (s *DistributorAuthService) Login(email, password string) (*models.Distributor, string, time.Time, error) {
	d, err := s.distributorRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if d == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if d.Status != constants.DistributorStatusActive {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	token, expiresAt, err := s.GenerateJWT(d)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	if err := s.distributorRepo.UpdateFields(d.ID, map[string]interface{}{"last_login_at": now}); err != nil {
		return nil, "", time.Time{}, err
	}
	return d, token, expiresAt, nil
}
