// internal/rating/elo.go
package rating

import "math"

// Outcome values fed into Delta. A draw never occurs in a finished duel
// (the tie-break is total), but the engine supports it.
const (
	OutcomeLoss = 0.0
	OutcomeDraw = 0.5
	OutcomeWin  = 1.0
)

// RatingFloor is the lowest rating a player can hold.
const RatingFloor = 100

// maxLossAdjustment caps the magnitude of any negative rating adjustment.
const maxLossAdjustment = 50

// Snapshot is the slice of a player's record the engine needs. It is
// captured at session start so mid-session mutations of the stored rating
// cannot skew the final computation.
type Snapshot struct {
	Rating      int
	GamesPlayed int
}

// Result summarizes one player's performance in a finished session.
type Result struct {
	Score             int
	OpponentScore     int
	CorrectAnswers    int
	TotalAnswers      int
	AverageResponseMs float64
}

// Accuracy returns correct/total, or 0 for an empty result.
func (r Result) Accuracy() float64 {
	if r.TotalAnswers == 0 {
		return 0
	}
	return float64(r.CorrectAnswers) / float64(r.TotalAnswers)
}

// Delta is the ephemeral output of a rating update for one player.
type Delta struct {
	Base        int    `json:"base"`
	Bonus       int    `json:"bonus"`
	NewRating   int    `json:"new_rating"`
	NewTier     string `json:"new_tier"`
	TierChanged bool   `json:"tier_changed"`
}

// Change returns the total signed rating movement.
func (d Delta) Change() int {
	return d.Base + d.Bonus
}

// KFactor returns the maximum rating points at stake for a player.
// New players (<30 games) move fast regardless of rating; established
// players slow down as their rating climbs. Tiers are disjoint and
// checked in priority order.
func KFactor(rating, gamesPlayed int) int {
	switch {
	case gamesPlayed < 30:
		return 40
	case rating >= 2000:
		return 16
	case rating >= 1500:
		return 24
	default:
		return 32
	}
}

// ExpectedScore returns the logistic-model win probability of a vs b.
func ExpectedScore(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// BaseDelta computes the classic ELO movement for one side:
// round(K * (outcome - expected)).
func BaseDelta(playerRating, opponentRating int, outcome float64, gamesPlayed int) int {
	k := float64(KFactor(playerRating, gamesPlayed))
	expected := ExpectedScore(playerRating, opponentRating)
	return int(math.Round(k * (outcome - expected)))
}

// PerformanceBonus awards extra points for strong play. Winners earn for
// score differential, speed and accuracy; losers only get a small accuracy
// consolation. Differential and accuracy tiers are mutually exclusive,
// highest tier wins.
func PerformanceBonus(result Result, isWinner bool) int {
	bonus := 0
	if isWinner {
		diff := result.Score - result.OpponentScore
		switch {
		case diff >= 500:
			bonus += 5
		case diff >= 300:
			bonus += 3
		}
		if result.AverageResponseMs <= 3000 {
			bonus += 2
		}
		switch acc := result.Accuracy(); {
		case acc >= 0.90:
			bonus += 3
		case acc >= 0.80:
			bonus += 1
		}
		return bonus
	}
	if result.Accuracy() >= 0.80 {
		bonus += 1
	}
	return bonus
}

// NewRating applies a delta and bonus to the current rating, clamped at the
// floor. The total negative adjustment is additionally capped at
// maxLossAdjustment.
func NewRating(current, delta, bonus int) int {
	change := delta + bonus
	if change < -maxLossAdjustment {
		change = -maxLossAdjustment
	}
	next := current + change
	if next < RatingFloor {
		next = RatingFloor
	}
	return next
}

// Update computes the full Delta for one side of a finished duel.
func Update(player, opponent Snapshot, outcome float64, result Result, isWinner bool) Delta {
	base := BaseDelta(player.Rating, opponent.Rating, outcome, player.GamesPlayed)
	bonus := PerformanceBonus(result, isWinner)
	next := NewRating(player.Rating, base, bonus)
	oldTier := RankFromRating(player.Rating)
	newTier := RankFromRating(next)
	return Delta{
		Base:        base,
		Bonus:       bonus,
		NewRating:   next,
		NewTier:     newTier,
		TierChanged: oldTier != newTier,
	}
}

// ApplyMatch computes both sides' deltas for a decided duel in one call.
func ApplyMatch(winner, loser Snapshot, winnerResult, loserResult Result) (Delta, Delta) {
	w := Update(winner, loser, OutcomeWin, winnerResult, true)
	l := Update(loser, winner, OutcomeLoss, loserResult, false)
	return w, l
}
