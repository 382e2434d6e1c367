/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// RoundRecord is an entrant's combined result for one round together with
// the game scores it was built from.
type RoundRecord struct {
	Round  int
	Result RoundResult
	Games  []Score
}

type TournamentEntry struct {
	Rounds []RoundRecord
	// RoundsRemaining counts rounds not yet started
	RoundsRemaining int
	Finished        bool
	Handicap        float64
}

type TournamentResult struct {
	Score        Score
	RoundDropped []bool
	GameDropped  [][]bool
}

// TournamentSystem combines an entrant's rounds (or games) into a tournament
// score.
type TournamentSystem interface {
	Name() string
	Combine(e TournamentEntry) TournamentResult
}

// final reports whether nothing can still move the score: the tournament is
// over, or no rounds remain and every round and game is final. A handicap is
// only applied at the end so it keeps the score open until then.
func (e TournamentEntry) final() bool {
	if e.Finished {
		return true
	}
	if e.Handicap != 0 || e.RoundsRemaining > 0 {
		return false
	}
	for _, r := range e.Rounds {
		if !r.Result.Score.Final || !allFinal(r.Games) {
			return false
		}
	}
	return true
}

func (e TournamentEntry) handicap() float64 {
	if e.Finished {
		return e.Handicap
	}
	return 0
}

type sumRounds struct {
	name string
	k    int
}

// SumBestRounds adds the best k round scores and drops the rest.
func SumBestRounds(name string, k int) TournamentSystem {
	return &sumRounds{name: name, k: k}
}

func (s *sumRounds) Name() string {
	return s.name
}

func (s *sumRounds) Combine(e TournamentEntry) TournamentResult {
	ret := TournamentResult{
		RoundDropped: make([]bool, len(e.Rounds)),
		GameDropped:  make([][]bool, len(e.Rounds)),
	}
	order := make([]int, len(e.Rounds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return e.Rounds[order[i]].Result.Score.Value > e.Rounds[order[j]].Result.Score.Value
	})
	for n, i := range order {
		r := e.Rounds[i]
		ret.GameDropped[i] = make([]bool, len(r.Games))
		if n < s.k {
			ret.Score.Value += r.Result.Score.Value
			copy(ret.GameDropped[i], r.Result.GameDropped)
			continue
		}
		ret.RoundDropped[i] = true
		for g := range ret.GameDropped[i] {
			ret.GameDropped[i][g] = true
		}
	}
	ret.Score.Value += e.handicap()
	ret.Score.Final = e.final()

	return ret
}

type sumGames struct {
	name     string
	k        int
	residual float64
}

// SumBestGames adds the best k game scores from any rounds. With a non-zero
// residual multiplier the remaining games add residual times their average
// instead of being dropped.
func SumBestGames(name string, k int, residual float64) TournamentSystem {
	return &sumGames{name: name, k: k, residual: residual}
}

func (s *sumGames) Name() string {
	return s.name
}

func (s *sumGames) Combine(e TournamentEntry) TournamentResult {
	type ref struct{ round, game int }
	ret := TournamentResult{
		RoundDropped: make([]bool, len(e.Rounds)),
		GameDropped:  make([][]bool, len(e.Rounds)),
	}
	var refs []ref
	for r, rr := range e.Rounds {
		ret.GameDropped[r] = make([]bool, len(rr.Games))
		for g := range rr.Games {
			refs = append(refs, ref{round: r, game: g})
		}
	}
	value := func(x ref) float64 {
		return e.Rounds[x.round].Games[x.game].Value
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return value(refs[i]) > value(refs[j])
	})

	counted := refs
	var rest []ref
	if len(refs) > s.k {
		counted, rest = refs[:s.k], refs[s.k:]
	}
	for _, x := range counted {
		ret.Score.Value += value(x)
	}
	for _, x := range rest {
		if s.residual != 0 {
			ret.Score.Value += value(x) * s.residual / float64(len(rest))
		} else {
			ret.GameDropped[x.round][x.game] = true
		}
	}
	for r, rr := range e.Rounds {
		dropped := true
		for g := range rr.Games {
			if !ret.GameDropped[r][g] {
				dropped = false
			}
		}
		ret.RoundDropped[r] = dropped
	}
	ret.Score.Value += e.handicap()
	ret.Score.Final = e.final()

	return ret
}

var tournamentSystems = []TournamentSystem{
	SumBestRounds("Sum best 2 rounds", 2),
	SumBestRounds("Sum best 3 rounds", 3),
	SumBestRounds("Sum best 4 rounds", 4),
	SumBestGames("Sum best 3 games in any rounds", 3, 0),
	SumBestGames("Sum best 4 games in any rounds", 4, 0),
	SumBestGames("Best single game result", 1, 0),
	SumBestGames("Sum best 2 games plus half the average of the rest", 2, 0.5),
}

func TournamentSystems() []TournamentSystem {
	return append([]TournamentSystem(nil), tournamentSystems...)
}

func TournamentSystemNamed(name string) (TournamentSystem, error) {
	for _, s := range tournamentSystems {
		if strings.EqualFold(s.Name(), name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("scoring: tournament system %q: %w", name, ErrUnknownSystem)
}
