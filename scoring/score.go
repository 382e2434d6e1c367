/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package scoring turns game results into game, round and tournament scores.
//
// Every score is a value, a finality flag and a dropped flag. A score that is
// not final is a projection: what the entrant would get if every game in
// progress ended now. A final score never changes again.
package scoring

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSystem  = errors.New("unknown scoring system")
	ErrScoresNotFinal = errors.New("scores not final")
)

type Score struct {
	Value   float64 `json:"value"`
	Final   bool    `json:"final"`
	Dropped bool    `json:"dropped,omitempty"`
}

func (s Score) String() string {
	ret := fmt.Sprintf("%.2f", s.Value)
	if !s.Final {
		ret += "*"
	}
	if s.Dropped {
		ret = "(" + ret + ")"
	}
	return ret
}

func allFinal(scores []Score) bool {
	for _, s := range scores {
		if !s.Final {
			return false
		}
	}
	return true
}
