/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package scoring

import (
	"fmt"
	"strings"
)

// RoundEntry is everything one entrant did in a round.
type RoundEntry struct {
	Games []Score
	// SatOut is set when the entrant was present but agreed not to play
	SatOut bool
	// PriorSitOuts counts earlier rounds the entrant sat out
	PriorSitOuts int
}

type RoundResult struct {
	Score       Score
	GameDropped []bool
}

// RoundSystem combines an entrant's game scores within one round.
type RoundSystem interface {
	Name() string
	Combine(e RoundEntry) RoundResult
}

type bestGame struct {
	sitterBonus float64
	once        bool
}

// BestGame counts the entrant's best game of the round and drops the rest. A
// non-zero sitterBonus is credited to entrants who sat out, only for their
// first sit-out when once is set.
func BestGame(sitterBonus float64, once bool) RoundSystem {
	return &bestGame{sitterBonus: sitterBonus, once: once}
}

func (s *bestGame) Name() string {
	if s.sitterBonus == 0 {
		return "Best game counts"
	}
	name := fmt.Sprintf("Best game counts. Sitters get %v", s.sitterBonus)
	if s.once {
		name += " once"
	}
	return name
}

func (s *bestGame) Combine(e RoundEntry) RoundResult {
	if len(e.Games) == 0 {
		bonus := 0.0
		if e.SatOut && !(s.once && e.PriorSitOuts > 0) {
			bonus = s.sitterBonus
		}
		return RoundResult{Score: Score{Value: bonus, Final: true}}
	}

	best := 0
	for i, g := range e.Games {
		if g.Value > e.Games[best].Value {
			best = i
		}
	}
	ret := RoundResult{
		// another game still in play could overtake the best one
		Score:       Score{Value: e.Games[best].Value, Final: allFinal(e.Games)},
		GameDropped: make([]bool, len(e.Games)),
	}
	for i := range e.Games {
		ret.GameDropped[i] = i != best
	}
	return ret
}

type sumAll struct{}

// SumAllGames adds every game the entrant played in the round.
func SumAllGames() RoundSystem {
	return sumAll{}
}

func (sumAll) Name() string {
	return "Add all game scores"
}

func (sumAll) Combine(e RoundEntry) RoundResult {
	ret := RoundResult{
		Score:       Score{Final: allFinal(e.Games)},
		GameDropped: make([]bool, len(e.Games)),
	}
	for _, g := range e.Games {
		ret.Score.Value += g.Value
	}
	return ret
}

var roundSystems = []RoundSystem{
	BestGame(0, false),
	BestGame(4005, false),
	BestGame(4005, true),
	SumAllGames(),
}

func RoundSystems() []RoundSystem {
	return append([]RoundSystem(nil), roundSystems...)
}

func RoundSystemNamed(name string) (RoundSystem, error) {
	for _, s := range roundSystems {
		if strings.EqualFold(s.Name(), name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("scoring: round system %q: %w", name, ErrUnknownSystem)
}
