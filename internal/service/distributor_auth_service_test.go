package service

import (
	"errors"
	"testing"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func authTestConfig() *config.Config {
	return &config.Config{
		JWT:      config.JWTConfig{SecretKey: "portal-test-secret-portal-test-secret", ExpireHours: 24},
		AdminJWT: config.JWTConfig{SecretKey: "admin-test-secret-admin-test-secret-1", ExpireHours: 8},
	}
}

func TestDistributorLoginIssuesParseableToken(t *testing.T) {
	f := setupEngineTest(t)
	auth := NewDistributorAuthService(authTestConfig(), f.distributorRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass-1"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	d := createTestDistributor(t, f.db, "D1", nil, "")
	updateDistributor(t, f.db, d.ID, map[string]interface{}{"password_hash": string(hash)})

	got, token, _, err := auth.Login("D1@example.com", "secret-pass-1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if got.ID != d.ID || token == "" {
		t.Fatalf("unexpected login result: id=%d token=%q", got.ID, token)
	}
	claims, err := auth.ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT error: %v", err)
	}
	if claims.DistributorID != d.ID || claims.Code != d.Code {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if reloadDistributor(t, f.db, d.ID).LastLoginAt == nil {
		t.Fatalf("expected login time recorded")
	}
}

func TestDistributorLoginWrongPassword(t *testing.T) {
	f := setupEngineTest(t)
	auth := NewDistributorAuthService(authTestConfig(), f.distributorRepo)
	createTestDistributor(t, f.db, "D1", nil, "")

	if _, _, _, err := auth.Login("d1@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
	if _, _, _, err := auth.Login("nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got: %v", err)
	}
}

func TestDistributorLoginDisabledAccount(t *testing.T) {
	f := setupEngineTest(t)
	auth := NewDistributorAuthService(authTestConfig(), f.distributorRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass-1"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	d := createTestDistributor(t, f.db, "D1", nil, "")
	updateDistributor(t, f.db, d.ID, map[string]interface{}{
		"password_hash": string(hash),
		"status":        constants.DistributorStatusDisabled,
	})

	if _, _, _, err := auth.Login("d1@example.com", "secret-pass-1"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got: %v", err)
	}
}

func TestPortalTokenRejectedByAdminParser(t *testing.T) {
	f := setupEngineTest(t)
	cfg := authTestConfig()
	portalAuth := NewDistributorAuthService(cfg, f.distributorRepo)
	adminAuth := NewAuthService(cfg, repository.NewAdminRepository(f.db))

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass-1"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	d := createTestDistributor(t, f.db, "D1", nil, "")
	updateDistributor(t, f.db, d.ID, map[string]interface{}{"password_hash": string(hash)})

	_, token, _, err := portalAuth.Login("d1@example.com", "secret-pass-1")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if _, err := adminAuth.ParseJWT(token); err == nil {
		t.Fatalf("portal token must not verify against the admin secret")
	}
}
