package service

import (
	"context"
	"errors"
	"testing"

	"github.com/neonclub/neon-api/internal/constants"
)

func TestGetTreeRendersPositions(t *testing.T) {
	f := setupEngineTest(t)
	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	left := createTestDistributor(t, f.db, "L1", &root.ID, constants.PositionLeft)
	createTestDistributor(t, f.db, "R1", &root.ID, constants.PositionRight)
	createTestDistributor(t, f.db, "LL", &left.ID, constants.PositionLeft)

	tree, err := f.genealogy.GetTree(context.Background(), root.ID, 2)
	if err != nil {
		t.Fatalf("GetTree error: %v", err)
	}
	if tree.Code != "ROOT" || tree.Left == nil || tree.Right == nil {
		t.Fatalf("unexpected tree root: %+v", tree)
	}
	if tree.Left.Code != "L1" || tree.Right.Code != "R1" {
		t.Fatalf("children misplaced: left=%s right=%s", tree.Left.Code, tree.Right.Code)
	}
	if tree.Left.Left == nil || tree.Left.Left.Code != "LL" {
		t.Fatalf("grandchild missing: %+v", tree.Left)
	}
}

func TestGetTreeDepthLimit(t *testing.T) {
	f := setupEngineTest(t)
	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	left := createTestDistributor(t, f.db, "L1", &root.ID, constants.PositionLeft)
	createTestDistributor(t, f.db, "LL", &left.ID, constants.PositionLeft)

	tree, err := f.genealogy.GetTree(context.Background(), root.ID, 1)
	if err != nil {
		t.Fatalf("GetTree error: %v", err)
	}
	if tree.Left == nil {
		t.Fatalf("expected first level rendered")
	}
	if tree.Left.Left != nil {
		t.Fatalf("depth 1 must not render grandchildren")
	}
}

func TestGetTreeFreshAfterVolumeRollup(t *testing.T) {
	f := setupEngineTest(t)
	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	left := createTestDistributor(t, f.db, "L1", &root.ID, constants.PositionLeft)
	createTestProduct(t, f.db, "NRG-60", 60, 7200)

	before, err := f.genealogy.GetTree(context.Background(), root.ID, 1)
	if err != nil {
		t.Fatalf("GetTree error: %v", err)
	}
	if before.TeamVolume != 0 || before.Left.TeamVolume != 0 {
		t.Fatalf("unexpected volumes before the order: %+v", before)
	}

	// The rollup drops every touched ancestor's cached fragment, so a
	// render right after it shows the new volumes.
	if _, err := f.volume.RecordOrder(RecordOrderInput{
		DistributorID: left.ID,
		Items:         []RecordOrderItem{{SKU: "NRG-60", Quantity: 1}},
	}); err != nil {
		t.Fatalf("RecordOrder error: %v", err)
	}
	after, err := f.genealogy.GetTree(context.Background(), root.ID, 1)
	if err != nil {
		t.Fatalf("GetTree error: %v", err)
	}
	if after.TeamVolume != 60 || after.Left.TeamVolume != 60 || after.Left.PersonalVolume != 60 {
		t.Fatalf("stale tree after rollup: %+v", after)
	}
}

func TestGetTreeUnknownRoot(t *testing.T) {
	f := setupEngineTest(t)
	if _, err := f.genealogy.GetTree(context.Background(), 999, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestCheckIntegrityCleanTree(t *testing.T) {
	f := setupEngineTest(t)
	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	left := createTestDistributor(t, f.db, "L1", &root.ID, constants.PositionLeft)
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"personal_volume": 30, "team_volume": 30})
	updateDistributor(t, f.db, root.ID, map[string]interface{}{"team_volume": 30})

	issues, err := f.genealogy.CheckIntegrity()
	if err != nil {
		t.Fatalf("CheckIntegrity error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected clean tree, got: %+v", issues)
	}
}

func TestCheckIntegrityFlagsVolumeMismatch(t *testing.T) {
	f := setupEngineTest(t)
	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	left := createTestDistributor(t, f.db, "L1", &root.ID, constants.PositionLeft)
	updateDistributor(t, f.db, left.ID, map[string]interface{}{"personal_volume": 30, "team_volume": 30})
	// Root missed the roll-up.
	updateDistributor(t, f.db, root.ID, map[string]interface{}{"team_volume": 0})

	issues, err := f.genealogy.CheckIntegrity()
	if err != nil {
		t.Fatalf("CheckIntegrity error: %v", err)
	}
	if len(issues) != 1 || issues[0].Kind != "team_volume_mismatch" || issues[0].DistributorID != root.ID {
		t.Fatalf("expected root volume mismatch, got: %+v", issues)
	}
}

func TestCheckIntegrityFlagsOrphanedParent(t *testing.T) {
	f := setupEngineTest(t)
	missing := uint(999)
	orphan := createTestDistributor(t, f.db, "ORPH", &missing, constants.PositionLeft)

	issues, err := f.genealogy.CheckIntegrity()
	if err != nil {
		t.Fatalf("CheckIntegrity error: %v", err)
	}
	found := false
	for _, issue := range issues {
		if issue.Kind == "orphaned_parent" && issue.DistributorID == orphan.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected orphaned parent flagged, got: %+v", issues)
	}
}
