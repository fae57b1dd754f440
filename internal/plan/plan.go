package plan

import (
	"fmt"
	"strings"

	"github.com/neonclub/neon-api/internal/config"
	"github.com/neonclub/neon-api/internal/constants"

	"github.com/shopspring/decimal"
)

// RankRequirement is one row of the rank ladder: the period thresholds a
// distributor must meet to hold the rank.
type RankRequirement struct {
	Rank       string `json:"rank"`
	PersonalPV int    `json:"personal_pv"`
	TeamPV     int    `json:"team_pv"`
	ActiveLegs int    `json:"active_legs"`
}

// Ladder returns the rank ladder ordered lowest to highest.
func Ladder() []RankRequirement {
	return []RankRequirement{
		{Rank: constants.RankStarter, PersonalPV: 0, TeamPV: 0, ActiveLegs: 0},
		{Rank: constants.RankBronze, PersonalPV: 100, TeamPV: 500, ActiveLegs: 1},
		{Rank: constants.RankSilver, PersonalPV: 150, TeamPV: 2000, ActiveLegs: 2},
		{Rank: constants.RankGold, PersonalPV: 200, TeamPV: 5000, ActiveLegs: 2},
		{Rank: constants.RankPlatinum, PersonalPV: 250, TeamPV: 15000, ActiveLegs: 2},
		{Rank: constants.RankDiamond, PersonalPV: 300, TeamPV: 50000, ActiveLegs: 2},
		{Rank: constants.RankCrown, PersonalPV: 400, TeamPV: 150000, ActiveLegs: 2},
		{Rank: constants.RankAmbassador, PersonalPV: 500, TeamPV: 500000, ActiveLegs: 2},
	}
}

// Plan is the full compensation plan for one version. All percentage rates
// are whole percents (20 means 20%).
type Plan struct {
	Version               string
	MonthlyPVRequirement  int
	RetailRatePercent     decimal.Decimal
	FastStartRatePercent  decimal.Decimal
	FastStartWindowDays   int
	BinaryRatePercent     decimal.Decimal
	BinaryCapVolume       int
	MaxCarryVolume        int
	VolumePointValueCents int64
	MatchingMinRank       string
	MatchingRatesPercent  []decimal.Decimal
	MinimumPayoutCents    int64
	PayoutFeePercent      decimal.Decimal
	RewardPointsForFree   int
	GenealogyMaxDepth     int
	PlacementSearchMax    int
}

// FromConfig builds a normalized plan from the configured parameters.
func FromConfig(cfg config.PlanConfig) (*Plan, error) {
	p := &Plan{
		Version:               strings.TrimSpace(cfg.Version),
		MonthlyPVRequirement:  cfg.MonthlyPVRequirement,
		RetailRatePercent:     decimal.NewFromFloat(cfg.RetailRatePercent),
		FastStartRatePercent:  decimal.NewFromFloat(cfg.FastStartRatePercent),
		FastStartWindowDays:   cfg.FastStartWindowDays,
		BinaryRatePercent:     decimal.NewFromFloat(cfg.BinaryRatePercent),
		BinaryCapVolume:       cfg.BinaryCapVolume,
		MaxCarryVolume:        cfg.MaxCarryVolume,
		VolumePointValueCents: cfg.VolumePointValueCents,
		MatchingMinRank:       strings.ToLower(strings.TrimSpace(cfg.MatchingMinRank)),
		MinimumPayoutCents:    cfg.MinimumPayoutCents,
		PayoutFeePercent:      decimal.NewFromFloat(cfg.PayoutFeePercent),
		RewardPointsForFree:   cfg.RewardPointsForFree,
		GenealogyMaxDepth:     cfg.GenealogyMaxDepth,
		PlacementSearchMax:    cfg.PlacementSearchMaxSize,
	}
	for _, rate := range cfg.MatchingRatesPercent {
		p.MatchingRatesPercent = append(p.MatchingRatesPercent, decimal.NewFromFloat(rate))
	}
	normalize(p)
	if err := validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Default returns the plan built from config defaults; used by tests.
func Default() *Plan {
	p, err := FromConfig(config.PlanConfig{
		Version:                "2026-01",
		MonthlyPVRequirement:   48,
		RetailRatePercent:      20,
		FastStartRatePercent:   20,
		FastStartWindowDays:    30,
		BinaryRatePercent:      10,
		BinaryCapVolume:        10000,
		MaxCarryVolume:         50000,
		VolumePointValueCents:  100,
		MatchingMinRank:        constants.RankGold,
		MatchingRatesPercent:   []float64{10, 5, 5},
		MinimumPayoutCents:     1000,
		PayoutFeePercent:       2.5,
		RewardPointsForFree:    3,
		GenealogyMaxDepth:      10,
		PlacementSearchMaxSize: 100000,
	})
	if err != nil {
		panic(err)
	}
	return p
}

// RequirementFor returns the ladder row for a rank, nil if unknown.
func RequirementFor(rank string) *RankRequirement {
	for _, req := range Ladder() {
		if req.Rank == rank {
			r := req
			return &r
		}
	}
	return nil
}

// NextRank returns the rank above the given one, empty at the top.
func NextRank(rank string) string {
	ladder := Ladder()
	for i, req := range ladder {
		if req.Rank == rank && i+1 < len(ladder) {
			return ladder[i+1].Rank
		}
	}
	return ""
}

// RankAtLeast reports whether rank "have" sits at or above rank "want".
func RankAtLeast(have, want string) bool {
	haveOrder, ok := constants.RankOrder[have]
	if !ok {
		return false
	}
	wantOrder, ok := constants.RankOrder[want]
	if !ok {
		return false
	}
	return haveOrder >= wantOrder
}

func normalize(p *Plan) {
	if p.Version == "" {
		p.Version = "unversioned"
	}
	if p.MonthlyPVRequirement < 0 {
		p.MonthlyPVRequirement = 0
	}
	if p.FastStartWindowDays <= 0 {
		p.FastStartWindowDays = 30
	}
	if p.BinaryCapVolume < 0 {
		p.BinaryCapVolume = 0
	}
	if p.MaxCarryVolume < 0 {
		p.MaxCarryVolume = 0
	}
	if p.VolumePointValueCents <= 0 {
		p.VolumePointValueCents = 100
	}
	if p.MatchingMinRank == "" {
		p.MatchingMinRank = constants.RankGold
	}
	if p.MinimumPayoutCents < 0 {
		p.MinimumPayoutCents = 0
	}
	if p.RewardPointsForFree <= 0 {
		p.RewardPointsForFree = 3
	}
	if p.GenealogyMaxDepth <= 0 {
		p.GenealogyMaxDepth = 10
	}
	if p.PlacementSearchMax <= 0 {
		p.PlacementSearchMax = 100000
	}
}

func validate(p *Plan) error {
	hundred := decimal.NewFromInt(100)
	for name, rate := range map[string]decimal.Decimal{
		"retail_rate_percent":     p.RetailRatePercent,
		"fast_start_rate_percent": p.FastStartRatePercent,
		"binary_rate_percent":     p.BinaryRatePercent,
		"payout_fee_percent":      p.PayoutFeePercent,
	} {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return fmt.Errorf("plan %s must be between 0 and 100", name)
		}
	}
	for i, rate := range p.MatchingRatesPercent {
		if rate.IsNegative() || rate.GreaterThan(hundred) {
			return fmt.Errorf("plan matching_rates_percent[%d] must be between 0 and 100", i)
		}
	}
	if _, ok := constants.RankOrder[p.MatchingMinRank]; !ok {
		return fmt.Errorf("plan matching_min_rank %q is not a known rank", p.MatchingMinRank)
	}
	return nil
}
