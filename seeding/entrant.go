/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package seeding decides who plays at which board in a round: it reconciles
// attendance with the board size, partitions the players so that they meet
// as few previous opponents as possible, and assigns great powers at each
// board.
package seeding

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrInfeasibleAttendance      = errors.New("infeasible attendance")
	ErrInvalidSelection          = errors.New("invalid attendance selection")
	ErrNoFeasiblePartition       = errors.New("no feasible partition")
	ErrStaleSeedingAttempt       = errors.New("stale seeding attempt")
	ErrInvalidSeating            = errors.New("invalid seating")
	ErrInvalidPreferences        = errors.New("invalid preference list")
	ErrUnderspecifiedPreferences = errors.New("underspecified preferences")
	ErrInvalidBias               = errors.New("invalid bias")
)

type EntrantID string

// Entrant is one registered player of a tournament.
type Entrant struct {
	ID              EntrantID `json:"id"`
	Name            string    `json:"name"`
	Unranked        bool      `json:"unranked,omitempty"`
	Standby         bool      `json:"standby,omitempty"`
	DoublesEligible bool      `json:"doublesEligible,omitempty"`
	// Arrival orders entrants by check-in; lower arrived earlier
	Arrival     int       `json:"arrival"`
	CheckedIn   time.Time `json:"checkedIn,omitempty"`
	Preferences string    `json:"preferences,omitempty"`
	Handicap    float64   `json:"handicap,omitempty"`
}

// DisplayName falls back to the id for entrants registered without a name.
func (e Entrant) DisplayName() string {
	if e.Name == "" {
		return string(e.ID)
	}
	return e.Name
}

// SortByArrival orders entrants by check-in, then id.
func SortByArrival(entrants []Entrant) {
	sort.SliceStable(entrants, func(i, j int) bool {
		if entrants[i].Arrival != entrants[j].Arrival {
			return entrants[i].Arrival < entrants[j].Arrival
		}
		return entrants[i].ID < entrants[j].ID
	})
}
