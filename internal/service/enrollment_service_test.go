package service

import (
	"errors"
	"testing"

	"github.com/neonclub/neon-api/internal/constants"
	"github.com/neonclub/neon-api/internal/models"
)

func createTestPackage(t *testing.T, f *engineFixture, name string, pv int, priceCents models.Cents) *models.EnrollmentPackage {
	t.Helper()
	pkg := &models.EnrollmentPackage{Name: name, PriceCents: priceCents, PV: pv, IsActive: true}
	if err := f.db.Create(pkg).Error; err != nil {
		t.Fatalf("create package failed: %v", err)
	}
	return pkg
}

func TestEnrollPlacesAndAppliesFirstOrder(t *testing.T) {
	f := setupEngineTest(t)
	sponsor := createTestDistributor(t, f.db, "SP", nil, "")
	pkg := createTestPackage(t, f, "Builder", 250, 29900)

	recruit, err := f.enrollment.Enroll(EnrollInput{
		SponsorCode:       sponsor.Code,
		Email:             "new@example.com",
		Password:          "secret-pass-1",
		Username:          "new",
		PackageID:         pkg.ID,
		PreferredPosition: constants.PositionRight,
		AutoshipEnabled:   true,
	})
	if err != nil {
		t.Fatalf("Enroll error: %v", err)
	}
	if recruit.ParentID == nil || *recruit.ParentID != sponsor.ID || recruit.Position != constants.PositionRight {
		t.Fatalf("unexpected placement: %+v", recruit)
	}
	if recruit.SponsorID == nil || *recruit.SponsorID != sponsor.ID {
		t.Fatalf("sponsor link missing: %+v", recruit)
	}

	// The package purchase rolled up synchronously with the queue off.
	after := reloadDistributor(t, f.db, recruit.ID)
	if after.PersonalVolume != 250 {
		t.Fatalf("expected package PV applied, got %d", after.PersonalVolume)
	}
	if !after.IsActive {
		t.Fatalf("autoship recruit meeting the PV floor must be active")
	}
	sponsorAfter := reloadDistributor(t, f.db, sponsor.ID)
	if sponsorAfter.TeamVolume != 250 {
		t.Fatalf("expected sponsor team volume 250, got %d", sponsorAfter.TeamVolume)
	}

	// Autoship enrollment credits the sponsor a reward point.
	count, err := f.rewardRepo.CountPoints(sponsor.ID, CurrentPeriodKey())
	if err != nil {
		t.Fatalf("CountPoints error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 sponsor point, got %d", count)
	}
}

func TestEnrollWithoutAutoshipSkipsPoint(t *testing.T) {
	f := setupEngineTest(t)
	sponsor := createTestDistributor(t, f.db, "SP", nil, "")
	pkg := createTestPackage(t, f, "Starter", 75, 9900)

	if _, err := f.enrollment.Enroll(EnrollInput{
		SponsorCode: sponsor.Code,
		Email:       "new@example.com",
		Password:    "secret-pass-1",
		PackageID:   pkg.ID,
	}); err != nil {
		t.Fatalf("Enroll error: %v", err)
	}
	count, err := f.rewardRepo.CountPoints(sponsor.ID, CurrentPeriodKey())
	if err != nil {
		t.Fatalf("CountPoints error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no points without autoship, got %d", count)
	}
}

func TestEnrollValidations(t *testing.T) {
	f := setupEngineTest(t)
	sponsor := createTestDistributor(t, f.db, "SP", nil, "")
	pkg := createTestPackage(t, f, "Starter", 75, 9900)

	base := EnrollInput{
		SponsorCode: sponsor.Code,
		Email:       "new@example.com",
		Password:    "secret-pass-1",
		PackageID:   pkg.ID,
	}

	bad := base
	bad.Email = "not-an-email"
	if _, err := f.enrollment.Enroll(bad); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad email, got: %v", err)
	}

	bad = base
	bad.Password = "short"
	if _, err := f.enrollment.Enroll(bad); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for short password, got: %v", err)
	}

	bad = base
	bad.SponsorCode = "NOPE"
	if _, err := f.enrollment.Enroll(bad); !errors.Is(err, ErrInvalidSponsor) {
		t.Fatalf("expected ErrInvalidSponsor, got: %v", err)
	}

	bad = base
	bad.PackageID = 999
	if _, err := f.enrollment.Enroll(bad); !errors.Is(err, ErrInvalidPackage) {
		t.Fatalf("expected ErrInvalidPackage, got: %v", err)
	}

	if _, err := f.enrollment.Enroll(base); err != nil {
		t.Fatalf("Enroll error: %v", err)
	}
	if _, err := f.enrollment.Enroll(base); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}
}

func TestEnrollRejectsDisabledSponsor(t *testing.T) {
	f := setupEngineTest(t)
	sponsor := createTestDistributor(t, f.db, "SP", nil, "")
	updateDistributor(t, f.db, sponsor.ID, map[string]interface{}{"status": constants.DistributorStatusDisabled})
	pkg := createTestPackage(t, f, "Starter", 75, 9900)

	if _, err := f.enrollment.Enroll(EnrollInput{
		SponsorCode: sponsor.Code,
		Email:       "new@example.com",
		Password:    "secret-pass-1",
		PackageID:   pkg.ID,
	}); !errors.Is(err, ErrInvalidSponsor) {
		t.Fatalf("expected ErrInvalidSponsor, got: %v", err)
	}
}
