package ai

import (
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
)

// Profile tunes MoveAI for a difficulty tier. Candidates are bounded to cells
// within SearchRadius (Chebyshev) of a stone. RandomMoveRate is the chance to
// play a random candidate instead of the best one; winning moves are never
// skipped, and BlocksFives also keeps the random pick away while the opponent
// threatens five.
type Profile struct {
	SearchRadius   int
	DefenseWeight  float64
	RandomMoveRate float64
	BlocksFives    bool
	Lookahead      bool
	LookaheadWidth int
	ReplyWeight    float64
	OpeningRadius  int
	WeighedChoice  bool
}

var profiles = [...]Profile{
	domain.Beginner: {
		SearchRadius:   1,
		DefenseWeight:  0.6,
		RandomMoveRate: 0.35,
		OpeningRadius:  3,
	},
	domain.Intermediate: {
		SearchRadius:   2,
		DefenseWeight:  0.85,
		RandomMoveRate: 0.12,
		BlocksFives:    true,
		OpeningRadius:  2,
	},
	domain.Expert: {
		SearchRadius:   2,
		DefenseWeight:  1.0,
		RandomMoveRate: 0.03,
		BlocksFives:    true,
		OpeningRadius:  2,
		WeighedChoice:  true,
	},
	domain.Master: {
		SearchRadius:   3,
		DefenseWeight:  1.1,
		BlocksFives:    true,
		Lookahead:      true,
		LookaheadWidth: 8,
		ReplyWeight:    0.6,
		OpeningRadius:  1,
		WeighedChoice:  true,
	},
}

func ProfileFor(d domain.Difficulty) Profile {
	if !d.Valid() {
		return profiles[domain.Intermediate]
	}
	return profiles[d]
}
