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

// Competitor is one entrant's tournament result ready to be ranked.
type Competitor struct {
	ID       string
	Name     string
	Unranked bool
	Score    Score
	// BestGame breaks ties within a place
	BestGame float64
}

// Standing places a competitor. Place is 0 for unranked entrants.
type Standing struct {
	Competitor
	Place int
}

// Rank orders competitors by score and assigns competition places: tied
// scores share a place and the next place skips accordingly (1, 1, 3).
// Unranked competitors follow everyone else without a place.
func Rank(comps []Competitor) []Standing {
	ret := make([]Standing, 0, len(comps))
	for _, c := range comps {
		ret = append(ret, Standing{Competitor: c})
	}
	sort.SliceStable(ret, func(i, j int) bool {
		a, b := ret[i], ret[j]
		if a.Unranked != b.Unranked {
			return !a.Unranked
		}
		if a.Score.Value != b.Score.Value {
			return a.Score.Value > b.Score.Value
		}
		if a.BestGame != b.BestGame {
			return a.BestGame > b.BestGame
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	ranked := 0
	for i := range ret {
		if ret[i].Unranked {
			continue
		}
		ranked++
		if i > 0 && !ret[i-1].Unranked &&
			ret[i-1].Score.Value == ret[i].Score.Value {
			ret[i].Place = ret[i-1].Place
		} else {
			ret[i].Place = ranked
		}
	}

	return ret
}

// ExportGame is one game an entrant played, as published in a results file.
type ExportGame struct {
	Round   int     `json:"round"`
	Board   int     `json:"board"`
	Power   string  `json:"power"`
	Centres int     `json:"centres"`
	Score   float64 `json:"score"`
	Dropped bool    `json:"dropped,omitempty"`
}

// ExportRow is one entrant's line in a results file.
type ExportRow struct {
	Place    int          `json:"place,omitempty"`
	Name     string       `json:"name"`
	Unranked bool         `json:"unranked,omitempty"`
	Score    float64      `json:"score"`
	Games    []ExportGame `json:"games"`
}

// CheckFinal returns ErrScoresNotFinal if any standing is still provisional.
func CheckFinal(standings []Standing) error {
	for _, s := range standings {
		if !s.Score.Final {
			return fmt.Errorf("scoring.CheckFinal: %v: %w", s.Name,
				ErrScoresNotFinal)
		}
	}
	return nil
}
