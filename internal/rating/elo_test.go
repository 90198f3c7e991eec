package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScoreEqualRatings(t *testing.T) {
	for _, r := range []int{100, 800, 1200, 1500, 2400} {
		assert.Equal(t, 0.5, ExpectedScore(r, r), "equal ratings must give exactly 0.5")
	}
}

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]int{{1500, 1200}, {2000, 1999}, {2400, 100}, {1300, 900}}
	for _, p := range pairs {
		sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
		assert.InDelta(t, 1.0, sum, 1e-12)
		assert.Greater(t, ExpectedScore(p[0], p[1]), 0.5, "higher rating should be favored")
	}
}

func TestKFactorSteps(t *testing.T) {
	// New players always get the volatile K, regardless of rating.
	assert.Equal(t, 40, KFactor(100, 0))
	assert.Equal(t, 40, KFactor(2500, 29))

	assert.Equal(t, 16, KFactor(2000, 30))
	assert.Equal(t, 16, KFactor(2350, 100))
	assert.Equal(t, 24, KFactor(1500, 30))
	assert.Equal(t, 24, KFactor(1999, 30))
	assert.Equal(t, 32, KFactor(1499, 30))
	assert.Equal(t, 32, KFactor(100, 30))

	// Step property: the new-player K dominates the established K everywhere.
	for _, r := range []int{100, 1400, 1500, 2000, 3000} {
		assert.GreaterOrEqual(t, KFactor(r, 10), KFactor(r, 50))
	}
}

func TestRatingFloor(t *testing.T) {
	// Total loss against a much stronger opponent from the floor.
	d := Update(Snapshot{Rating: 100, GamesPlayed: 5}, Snapshot{Rating: 2400, GamesPlayed: 500},
		OutcomeLoss, Result{Score: 0, OpponentScore: 1000, TotalAnswers: 10}, false)
	assert.GreaterOrEqual(t, d.NewRating, 100)

	d = Update(Snapshot{Rating: 110, GamesPlayed: 0}, Snapshot{Rating: 110, GamesPlayed: 0},
		OutcomeLoss, Result{Score: 100, OpponentScore: 900, TotalAnswers: 10}, false)
	assert.GreaterOrEqual(t, d.NewRating, 100)
}

func TestNewRatingLossCap(t *testing.T) {
	assert.Equal(t, 1450, NewRating(1500, -80, 0))
	assert.Equal(t, 1450, NewRating(1500, -45, -10))
}

func TestPerformanceBonusWinner(t *testing.T) {
	// Blowout + fast + accurate stacks all three categories.
	r := Result{Score: 900, OpponentScore: 300, CorrectAnswers: 9, TotalAnswers: 10, AverageResponseMs: 2500}
	assert.Equal(t, 5+2+3, PerformanceBonus(r, true))

	// Differential tiers are mutually exclusive.
	r = Result{Score: 700, OpponentScore: 300, CorrectAnswers: 7, TotalAnswers: 10, AverageResponseMs: 5000}
	assert.Equal(t, 3, PerformanceBonus(r, true))

	// Accuracy 0.80 lands the lower accuracy tier only.
	r = Result{Score: 800, OpponentScore: 600, CorrectAnswers: 8, TotalAnswers: 10, AverageResponseMs: 4000}
	assert.Equal(t, 1, PerformanceBonus(r, true))

	// A zero average (no round was ever open) still counts as fast.
	r = Result{Score: 700, OpponentScore: 100, CorrectAnswers: 8, TotalAnswers: 10}
	assert.Equal(t, 5+2+1, PerformanceBonus(r, true))
}

func TestPerformanceBonusLoser(t *testing.T) {
	r := Result{Score: 600, OpponentScore: 800, CorrectAnswers: 8, TotalAnswers: 10, AverageResponseMs: 2000}
	assert.Equal(t, 1, PerformanceBonus(r, false), "loser consolation is accuracy only")

	r.CorrectAnswers = 7
	assert.Equal(t, 0, PerformanceBonus(r, false))
}

func TestMatchmakingRange(t *testing.T) {
	min, max := MatchmakingRange(1500, 10000)
	assert.Equal(t, 1350, min)
	assert.Equal(t, 1650, max)

	// Longer waits widen the window.
	min2, max2 := MatchmakingRange(1500, 120000)
	assert.Less(t, min2, min)
	assert.Greater(t, max2, max)
	assert.Equal(t, 1150, min2)
	assert.Equal(t, 1850, max2)

	// Half-width caps at 500 no matter how long the wait.
	min3, max3 := MatchmakingRange(1500, 1<<40)
	assert.Equal(t, 1000, min3)
	assert.Equal(t, 2000, max3)

	// The lower bound never drops below the floor.
	lo, _ := MatchmakingRange(150, 0)
	assert.Equal(t, 100, lo)
}

func TestRankBoundaries(t *testing.T) {
	assert.Equal(t, "Green Thumb", RankFromRating(1200))
	assert.Equal(t, "Sprout", RankFromRating(1199))
	assert.Equal(t, "New Gardener", RankFromRating(799))
	assert.Equal(t, "New Gardener", RankFromRating(100))
	assert.Equal(t, "Botanical Master", RankFromRating(2400))
	assert.Equal(t, "Botanical Master", RankFromRating(9000))
	assert.Equal(t, "Master Gardener", RankFromRating(2199))
}

func TestApplyMatchNearZeroSum(t *testing.T) {
	// 1200 (25 games) beats 1180 (30 games) 800-600, 80% accuracy,
	// 4000ms average response.
	winner := Snapshot{Rating: 1200, GamesPlayed: 25}
	loser := Snapshot{Rating: 1180, GamesPlayed: 30}
	wRes := Result{Score: 800, OpponentScore: 600, CorrectAnswers: 8, TotalAnswers: 10, AverageResponseMs: 4000}
	lRes := Result{Score: 600, OpponentScore: 800, CorrectAnswers: 6, TotalAnswers: 10, AverageResponseMs: 4500}

	wd, ld := ApplyMatch(winner, loser, wRes, lRes)

	assert.Greater(t, wd.NewRating, winner.Rating, "winner rating should increase")
	assert.Less(t, ld.NewRating, loser.Rating, "loser rating should decrease")

	// Base deltas are near zero-sum; only bonuses break the symmetry.
	residual := math.Abs(float64(wd.Base + ld.Base))
	assert.LessOrEqual(t, residual, 8.0, "base deltas should roughly cancel (K 40 vs 32)")
}

func TestUpdateTierCrossing(t *testing.T) {
	d := Update(Snapshot{Rating: 1195, GamesPlayed: 10}, Snapshot{Rating: 1195, GamesPlayed: 10},
		OutcomeWin, Result{Score: 800, OpponentScore: 200, CorrectAnswers: 8, TotalAnswers: 10, AverageResponseMs: 2000}, true)
	assert.True(t, d.TierChanged)
	assert.Equal(t, "Green Thumb", d.NewTier)
}
