package plan

import (
	"testing"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/constants"
)

func TestLadderOrderedAscending(t *testing.T) {
	ladder := Ladder()
	if len(ladder) != 8 {
		t.Fatalf("expected 8 ranks, got %d", len(ladder))
	}
	for i := 1; i < len(ladder); i++ {
		prev, curr := ladder[i-1], ladder[i]
		if curr.PersonalPV < prev.PersonalPV || curr.TeamPV < prev.TeamPV {
			t.Fatalf("ladder not ascending at %s -> %s", prev.Rank, curr.Rank)
		}
		if constants.RankOrder[curr.Rank] != constants.RankOrder[prev.Rank]+1 {
			t.Fatalf("rank order mismatch at %s", curr.Rank)
		}
	}
}

func TestRequirementForSilver(t *testing.T) {
	req := RequirementFor(constants.RankSilver)
	if req == nil {
		t.Fatalf("expected silver requirement")
	}
	if req.PersonalPV != 150 || req.TeamPV != 2000 || req.ActiveLegs != 2 {
		t.Fatalf("unexpected silver thresholds: %+v", req)
	}
}

func TestNextRank(t *testing.T) {
	if got := NextRank(constants.RankGold); got != constants.RankPlatinum {
		t.Fatalf("next rank after gold = %s", got)
	}
	if got := NextRank(constants.RankAmbassador); got != "" {
		t.Fatalf("expected no rank above ambassador, got %s", got)
	}
}

func TestRankAtLeast(t *testing.T) {
	if !RankAtLeast(constants.RankDiamond, constants.RankGold) {
		t.Fatalf("diamond should satisfy gold gate")
	}
	if RankAtLeast(constants.RankSilver, constants.RankGold) {
		t.Fatalf("silver should not satisfy gold gate")
	}
	if RankAtLeast("unknown", constants.RankGold) {
		t.Fatalf("unknown rank should not satisfy any gate")
	}
}

func TestFromConfigRejectsBadRate(t *testing.T) {
	_, err := FromConfig(config.PlanConfig{
		Version:           "t",
		RetailRatePercent: 120,
		MatchingMinRank:   constants.RankGold,
	})
	if err == nil {
		t.Fatalf("expected validation error for rate > 100")
	}
}

func TestFromConfigNormalizesDefaults(t *testing.T) {
	p, err := FromConfig(config.PlanConfig{MatchingMinRank: constants.RankGold})
	if err != nil {
		t.Fatalf("from config failed: %v", err)
	}
	if p.Version != "unversioned" {
		t.Fatalf("unexpected version: %s", p.Version)
	}
	if p.FastStartWindowDays != 30 || p.RewardPointsForFree != 3 {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if p.VolumePointValueCents != 100 {
		t.Fatalf("unexpected point value: %d", p.VolumePointValueCents)
	}
}
