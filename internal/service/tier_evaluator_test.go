package service

import (
	"testing"

	"github.com/magabit/ambassador/internal/constants"
)

func TestTierForConversionsLadder(t *testing.T) {
	thresholds := TierThresholds{Silver: 10, Gold: 25}

	cases := []struct {
		conversions int
		expected    string
	}{
		{0, constants.TierBronze},
		{9, constants.TierBronze},
		{10, constants.TierSilver},
		{24, constants.TierSilver},
		{25, constants.TierGold},
		{100, constants.TierGold},
	}
	for _, tc := range cases {
		got := TierForConversions(tc.conversions, thresholds)
		if got != tc.expected {
			t.Fatalf("conversions=%d expected %s, got %s", tc.conversions, tc.expected, got)
		}
	}
}

func TestTierForConversionsNegativeTreatedAsZero(t *testing.T) {
	got := TierForConversions(-3, TierThresholds{Silver: 1, Gold: 2})
	if got != constants.TierBronze {
		t.Fatalf("expected bronze for negative conversions, got %s", got)
	}
}

func TestBuildTierProgressBronze(t *testing.T) {
	progress := BuildTierProgress(4, TierThresholds{Silver: 10, Gold: 25})
	if progress.CurrentTier != constants.TierBronze {
		t.Fatalf("expected bronze, got %s", progress.CurrentTier)
	}
	if progress.NextTier != constants.TierSilver {
		t.Fatalf("expected next tier silver, got %s", progress.NextTier)
	}
	if progress.ConversionsToNext != 6 {
		t.Fatalf("expected 6 conversions to next, got %d", progress.ConversionsToNext)
	}
	if progress.NextTierThreshold != 10 {
		t.Fatalf("expected next threshold 10, got %d", progress.NextTierThreshold)
	}
	// 4/10 = 40%
	if progress.ProgressPercent != 40 {
		t.Fatalf("expected progress 40, got %d", progress.ProgressPercent)
	}
}

func TestBuildTierProgressGoldHasNoNext(t *testing.T) {
	progress := BuildTierProgress(30, TierThresholds{Silver: 10, Gold: 25})
	if progress.CurrentTier != constants.TierGold {
		t.Fatalf("expected gold, got %s", progress.CurrentTier)
	}
	if progress.NextTier != "" {
		t.Fatalf("expected no next tier, got %s", progress.NextTier)
	}
	if progress.ConversionsToNext != 0 {
		t.Fatalf("expected 0 conversions to next, got %d", progress.ConversionsToNext)
	}
	if progress.ProgressPercent != 100 {
		t.Fatalf("expected progress 100 at top tier, got %d", progress.ProgressPercent)
	}
}
