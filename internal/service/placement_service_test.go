package service

import (
	"errors"
	"testing"

	"github.com/neonclub/neon-api/internal/constants"
)

func TestFindOpenSlotPreferredPosition(t *testing.T) {
	f := setupEngineTest(t)
	sponsor := createTestDistributor(t, f.db, "ROOT", nil, "")

	slot, err := f.placement.FindOpenSlot(nil, sponsor.ID, constants.PositionRight)
	if err != nil {
		t.Fatalf("FindOpenSlot error: %v", err)
	}
	if slot.ParentID != sponsor.ID || slot.Position != constants.PositionRight {
		t.Fatalf("unexpected slot: %+v", slot)
	}
}

func TestFindOpenSlotPreferredOccupiedFallsBack(t *testing.T) {
	f := setupEngineTest(t)
	sponsor := createTestDistributor(t, f.db, "ROOT", nil, "")
	createTestDistributor(t, f.db, "L1", &sponsor.ID, constants.PositionLeft)

	slot, err := f.placement.FindOpenSlot(nil, sponsor.ID, constants.PositionLeft)
	if err != nil {
		t.Fatalf("FindOpenSlot error: %v", err)
	}
	if slot.ParentID != sponsor.ID || slot.Position != constants.PositionRight {
		t.Fatalf("expected sponsor right slot, got: %+v", slot)
	}
}

func TestFindOpenSlotBreadthFirstLeftmost(t *testing.T) {
	f := setupEngineTest(t)
	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	left := createTestDistributor(t, f.db, "L1", &root.ID, constants.PositionLeft)
	createTestDistributor(t, f.db, "R1", &root.ID, constants.PositionRight)
	createTestDistributor(t, f.db, "LL", &left.ID, constants.PositionLeft)

	slot, err := f.placement.FindOpenSlot(nil, root.ID, "")
	if err != nil {
		t.Fatalf("FindOpenSlot error: %v", err)
	}
	if slot.ParentID != left.ID || slot.Position != constants.PositionRight {
		t.Fatalf("expected left child's right slot, got: %+v", slot)
	}
}

func TestFindOpenSlotInvalidPosition(t *testing.T) {
	f := setupEngineTest(t)
	sponsor := createTestDistributor(t, f.db, "ROOT", nil, "")

	if _, err := f.placement.FindOpenSlot(nil, sponsor.ID, "middle"); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got: %v", err)
	}
}

func TestFindOpenSlotUnknownSponsor(t *testing.T) {
	f := setupEngineTest(t)
	if _, err := f.placement.FindOpenSlot(nil, 999, ""); !errors.Is(err, ErrInvalidSponsor) {
		t.Fatalf("expected ErrInvalidSponsor, got: %v", err)
	}
}

func TestFindOpenSlotSearchLimit(t *testing.T) {
	f := setupEngineTest(t)
	limited := NewPlacementService(f.distributorRepo, 2)

	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	left := createTestDistributor(t, f.db, "L1", &root.ID, constants.PositionLeft)
	right := createTestDistributor(t, f.db, "R1", &root.ID, constants.PositionRight)
	createTestDistributor(t, f.db, "LL", &left.ID, constants.PositionLeft)
	createTestDistributor(t, f.db, "LR", &left.ID, constants.PositionRight)
	createTestDistributor(t, f.db, "RL", &right.ID, constants.PositionLeft)
	createTestDistributor(t, f.db, "RR", &right.ID, constants.PositionRight)

	if _, err := limited.FindOpenSlot(nil, root.ID, ""); !errors.Is(err, ErrTreeFull) {
		t.Fatalf("expected ErrTreeFull, got: %v", err)
	}
}

func TestAncestorChainOrder(t *testing.T) {
	f := setupEngineTest(t)
	root := createTestDistributor(t, f.db, "ROOT", nil, "")
	mid := createTestDistributor(t, f.db, "MID", &root.ID, constants.PositionLeft)
	leaf := createTestDistributor(t, f.db, "LEAF", &mid.ID, constants.PositionLeft)

	chain, err := f.placement.AncestorChain(nil, leaf)
	if err != nil {
		t.Fatalf("AncestorChain error: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("expected 2 ancestors, got %d", len(chain))
	}
	if chain[0].ID != mid.ID || chain[1].ID != root.ID {
		t.Fatalf("expected parent then root, got: %d, %d", chain[0].ID, chain[1].ID)
	}
}
