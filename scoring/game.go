/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
)

// PowerScore is one power's result in a scored game.
type PowerScore struct {
	Power   diplomacy.Power `json:"power"`
	Centres int             `json:"centres"`
	Score   float64         `json:"score"`
}

// GameScores is ordered by score, then final centre count, both descending,
// then the variant's power order.
type GameScores []PowerScore

// Of returns the score of p.
func (gs GameScores) Of(p diplomacy.Power) float64 {
	for _, s := range gs {
		if s.Power == p {
			return s.Score
		}
	}
	return 0
}

// GameSystem scores a single game. Implementations are pure: the same state
// always gives the same scores.
type GameSystem interface {
	Name() string
	Description() string
	// DeadScoreCanChange reports whether an eliminated power's score may
	// still change while the game continues.
	DeadScoreCanChange() bool
	Scores(g *diplomacy.GameState) (GameScores, error)
}

type gameSystem struct {
	name          string
	description   string
	deadCanChange bool
	points        func(g *diplomacy.GameState) map[diplomacy.Power]float64
}

func (s *gameSystem) Name() string {
	return s.name
}

func (s *gameSystem) Description() string {
	return s.description
}

func (s *gameSystem) DeadScoreCanChange() bool {
	return s.deadCanChange
}

func (s *gameSystem) Scores(g *diplomacy.GameState) (GameScores, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("scoring.%v: %w", s.name, err)
	}

	return sortScores(g, s.points(g)), nil
}

func sortScores(g *diplomacy.GameState, pts map[diplomacy.Power]float64) GameScores {
	ret := make(GameScores, 0, len(g.Powers()))
	for _, p := range g.Powers() {
		ret = append(ret, PowerScore{Power: p, Centres: g.DotCount(p), Score: pts[p]})
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].Score != ret[j].Score {
			return ret[i].Score > ret[j].Score
		}
		return ret[i].Centres > ret[j].Centres
	})

	return ret
}

// PowerResults scores g and flags each power's score final when the game is
// over, or when the power is eliminated and the system never revises the
// score of eliminated powers.
func PowerResults(sys GameSystem, g *diplomacy.GameState) (map[diplomacy.Power]Score, error) {
	scores, err := sys.Scores(g)
	if err != nil {
		return nil, err
	}

	return withFinality(sys, g, scores), nil
}

func withFinality(sys GameSystem, g *diplomacy.GameState,
	scores GameScores) map[diplomacy.Power]Score {

	finished := g.Finished()
	ret := make(map[diplomacy.Power]Score, len(scores))
	for _, ps := range scores {
		final := finished
		if !final && !sys.DeadScoreCanChange() {
			_, final = g.YearEliminated(ps.Power)
		}
		ret[ps.Power] = Score{Value: ps.Score, Final: final}
	}

	return ret
}

var gameSystems = []GameSystem{
	Bangkok(),
	Base3(),
	Carnage("Carnage with dead equal", false, true, 0),
	Carnage("Carnage with elimination order", false, false, 0),
	Carnage("Center-count Carnage", true, false, 0),
	Carnage("Carnage 2023", false, false, 300),
	CDiplo("CDiplo 100", 100, 1, 38, 14, 7, 0),
	CDiplo("CDiplo 80", 80, 0, 25, 14, 7, 0),
	CDiploNamur(),
	Detour09(),
	DrawSize(),
	Haight(),
	ManorCon("ManorCon", 75, true),
	ManorCon("Original ManorCon", 100, true),
	ManorCon("ManorCon v2", 100, false),
	Maxonian("Maxonian", 13),
	Maxonian("7Eleven", 11),
	OMG(),
	OpenTribute(),
	RankedClassic(),
	SoloOrBust(),
	SouthernSun(),
	SumOfSquares(),
	Tribute(),
	Whipping("Whipping", 468),
	WorldClassic("World Classic", false),
	WorldClassic("Summer Classic", true),
}

// GameSystems lists every supported game scoring system.
func GameSystems() []GameSystem {
	return append([]GameSystem(nil), gameSystems...)
}

// GameSystemNamed finds a game scoring system by case-insensitive name.
func GameSystemNamed(name string) (GameSystem, error) {
	for _, s := range gameSystems {
		if strings.EqualFold(s.Name(), name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("scoring: game system %q: %w", name, ErrUnknownSystem)
}
