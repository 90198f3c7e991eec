// internal/rating/rank.go
package rating

// rankBand is a closed-open rating band, except the top band which is
// unbounded above.
type rankBand struct {
	min  int
	name string
}

// Ten fixed tiers, lowest first. Boundaries are contiguous and
// non-overlapping; a tier is always derived from rating, never stored.
var rankBands = []rankBand{
	{0, "New Gardener"},
	{800, "Seedling"},
	{1000, "Sprout"},
	{1200, "Green Thumb"},
	{1400, "Plant Enthusiast"},
	{1600, "Botanist"},
	{1800, "Plant Expert"},
	{2000, "Master Gardener"},
	{2200, "Flora Sage"},
	{2400, "Botanical Master"},
}

// RankFromRating maps a rating to its tier name.
func RankFromRating(rating int) string {
	name := rankBands[0].name
	for _, band := range rankBands {
		if rating >= band.min {
			name = band.name
		}
	}
	return name
}

// MatchmakingRange returns the inclusive rating window a player at the given
// rating will accept after waiting waitMs milliseconds. The window starts at
// half-width 150 and widens by 50 for every full 30s waited, capped at 500.
// The lower bound never drops below the rating floor.
func MatchmakingRange(rating int, waitMs int64) (int, int) {
	halfWidth := 150 + int(waitMs/30000)*50
	if halfWidth > 500 {
		halfWidth = 500
	}
	min := rating - halfWidth
	if min < RatingFloor {
		min = RatingFloor
	}
	return min, rating + halfWidth
}
