package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyPercentExactFixtures(t *testing.T) {
	// 20% of 14400 cents is exactly 2880 cents.
	if got := ApplyPercent(14400, decimal.NewFromInt(20)); got != 2880 {
		t.Fatalf("20%% of 14400 = %d, want 2880", got)
	}
	// 2.5% fee on 10000 cents is 250 cents, net 9750.
	fee := ApplyPercent(10000, decimal.NewFromFloat(2.5))
	if fee != 250 {
		t.Fatalf("2.5%% of 10000 = %d, want 250", fee)
	}
	if net := Cents(10000) - fee; net != 9750 {
		t.Fatalf("net = %d, want 9750", net)
	}
}

func TestApplyPercentRoundsHalfUp(t *testing.T) {
	// 2.5% of 101 cents = 2.525 cents, rounds up to 3.
	if got := ApplyPercent(101, decimal.NewFromFloat(2.5)); got != 3 {
		t.Fatalf("half-up rounding broken: got %d, want 3", got)
	}
	// 2.5% of 100 cents = 2.5 cents, half rounds up to 3.
	if got := ApplyPercent(100, decimal.NewFromFloat(2.5)); got != 3 {
		t.Fatalf("half-up rounding broken: got %d, want 3", got)
	}
	// 10% of 14 cents = 1.4 cents, rounds down to 1.
	if got := ApplyPercent(14, decimal.NewFromInt(10)); got != 1 {
		t.Fatalf("rounding broken: got %d, want 1", got)
	}
}

func TestVolumeCents(t *testing.T) {
	// 120 volume points at 100 cents/point, 10% rate -> 1200 cents.
	if got := VolumeCents(120, 100, decimal.NewFromInt(10)); got != 1200 {
		t.Fatalf("volume cents = %d, want 1200", got)
	}
}

func TestCentsString(t *testing.T) {
	if got := Cents(9750).String(); got != "97.50" {
		t.Fatalf("unexpected format: %s", got)
	}
}
