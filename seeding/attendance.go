/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package seeding

import (
	"fmt"
	"sort"
)

// AttendanceOption is one way of turning the players present into full
// boards: some players sit the round out, some play two boards at once, and
// some standbys are called up.
type AttendanceOption struct {
	Sitters      int `json:"sitters"`
	Doubles      int `json:"doubles"`
	StandbysUsed int `json:"standbysUsed"`
	Boards       int `json:"boards"`
}

func (o AttendanceOption) String() string {
	return fmt.Sprintf("%v boards: %v sitting out, %v playing two boards, %v standbys used",
		o.Boards, o.Sitters, o.Doubles, o.StandbysUsed)
}

// Reconcile lists the attendance options that fill whole boards given present
// players, how many of them may play two boards, and available standbys.
// Only minimal options are listed: any other feasible combination adds whole
// boards' worth of sitters or doubles, or sits one player out while doubling
// another. Options are ordered with the fewest sitters first, then fewest
// doubles, then most standbys used.
func Reconcile(present, eligible, standbys, boardSize int) ([]AttendanceOption, error) {
	if boardSize < 1 {
		return nil, fmt.Errorf("seeding.reconcile: board size %v: %w", boardSize,
			ErrInfeasibleAttendance)
	}
	if present < 0 || standbys < 0 || present+standbys < 1 {
		return nil, fmt.Errorf("seeding.reconcile: %v present, %v standbys: %w",
			present, standbys, ErrInfeasibleAttendance)
	}
	if eligible < 0 || eligible > present {
		return nil, fmt.Errorf("seeding.reconcile: %v of %v present may double: %w",
			eligible, present, ErrInfeasibleAttendance)
	}

	seen := make(map[AttendanceOption]bool)
	opts := make([]AttendanceOption, 0)
	add := func(o AttendanceOption) {
		if !seen[o] {
			seen[o] = true
			opts = append(opts, o)
		}
	}
	for used := 0; used <= standbys; used++ {
		n := present + used
		rem := n % boardSize
		if rem == 0 {
			if n > 0 {
				add(AttendanceOption{StandbysUsed: used, Boards: n / boardSize})
			}
			continue
		}
		// sit the remainder out
		if rem <= present && n-rem > 0 {
			add(AttendanceOption{Sitters: rem, StandbysUsed: used,
				Boards: (n - rem) / boardSize})
		}
		// or fill the last board with players playing twice; a doubled
		// player's boards must differ so that needs at least two boards
		dbl := boardSize - rem
		if dbl <= eligible && n+dbl >= 2*boardSize {
			add(AttendanceOption{Doubles: dbl, StandbysUsed: used,
				Boards: (n + dbl) / boardSize})
		}
	}
	if len(opts) == 0 {
		return nil, fmt.Errorf("seeding.reconcile: no way to seat %v players and %v standbys at boards of %v: %w",
			present, standbys, boardSize, ErrInfeasibleAttendance)
	}

	sort.Slice(opts, func(i, j int) bool {
		if opts[i].Sitters != opts[j].Sitters {
			return opts[i].Sitters < opts[j].Sitters
		}
		if opts[i].Doubles != opts[j].Doubles {
			return opts[i].Doubles < opts[j].Doubles
		}
		return opts[i].StandbysUsed > opts[j].StandbysUsed
	})

	return opts, nil
}

// Selection names the entrants the tournament director chose to fill an
// attendance option.
type Selection struct {
	Sitters  []EntrantID
	Doublers []EntrantID
	Standbys []EntrantID
}

// Attendance is a resolved option: the multiset of playing slots (doubled
// entrants appear twice) plus who is sitting out.
type Attendance struct {
	Option   AttendanceOption
	Playing  []EntrantID
	Sitting  []EntrantID
	Doubling []EntrantID
	Unused   []EntrantID
}

// SuggestDoublers picks doubles-eligible entrants who are not sitting out,
// preferring those with the fewest games played, then earliest arrival.
func SuggestDoublers(opt AttendanceOption, present []Entrant, sitters []EntrantID,
	hist *PairingHistory) ([]EntrantID, error) {

	sitting := make(map[EntrantID]bool)
	for _, id := range sitters {
		sitting[id] = true
	}
	candidates := make([]Entrant, 0)
	for _, e := range present {
		if e.DoublesEligible && !sitting[e.ID] {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) < opt.Doubles {
		return nil, fmt.Errorf("seeding.suggestDoublers: need %v, only %v eligible: %w",
			opt.Doubles, len(candidates), ErrInfeasibleAttendance)
	}
	SortByArrival(candidates)
	sort.SliceStable(candidates, func(i, j int) bool {
		return hist.GamesPlayed(candidates[i].ID) < hist.GamesPlayed(candidates[j].ID)
	})

	ret := make([]EntrantID, 0, opt.Doubles)
	for _, e := range candidates[:opt.Doubles] {
		ret = append(ret, e.ID)
	}

	return ret, nil
}

// SuggestStandbys calls standbys up in arrival order.
func SuggestStandbys(opt AttendanceOption, standbys []Entrant) []EntrantID {
	sorted := append([]Entrant(nil), standbys...)
	SortByArrival(sorted)
	ret := make([]EntrantID, 0, opt.StandbysUsed)
	for i := 0; i < opt.StandbysUsed && i < len(sorted); i++ {
		ret = append(ret, sorted[i].ID)
	}

	return ret
}

// Resolve checks the director's selection against opt and builds the slot
// list handed to the seeder. Nobody is sat out or doubled without being named
// in sel.
func Resolve(opt AttendanceOption, sel Selection, present []Entrant,
	standbys []Entrant) (Attendance, error) {

	if len(sel.Sitters) != opt.Sitters || len(sel.Doublers) != opt.Doubles ||
		len(sel.Standbys) != opt.StandbysUsed {
		return Attendance{}, fmt.Errorf("seeding.resolve: selected %v sitters, %v doublers, %v standbys for %v: %w",
			len(sel.Sitters), len(sel.Doublers), len(sel.Standbys), opt,
			ErrInvalidSelection)
	}

	byID := make(map[EntrantID]Entrant)
	for _, e := range present {
		byID[e.ID] = e
	}
	isStandby := make(map[EntrantID]bool)
	for _, e := range standbys {
		isStandby[e.ID] = true
	}

	sitting := make(map[EntrantID]bool)
	for _, id := range sel.Sitters {
		if _, ok := byID[id]; !ok {
			return Attendance{}, fmt.Errorf("seeding.resolve: sitter %v is not present: %w",
				id, ErrInvalidSelection)
		}
		if sitting[id] {
			return Attendance{}, fmt.Errorf("seeding.resolve: sitter %v named twice: %w",
				id, ErrInvalidSelection)
		}
		sitting[id] = true
	}
	doubling := make(map[EntrantID]bool)
	for _, id := range sel.Doublers {
		e, ok := byID[id]
		if !ok {
			return Attendance{}, fmt.Errorf("seeding.resolve: doubler %v is not present: %w",
				id, ErrInvalidSelection)
		}
		if !e.DoublesEligible {
			return Attendance{}, fmt.Errorf("seeding.resolve: %v cannot play two boards: %w",
				id, ErrInvalidSelection)
		}
		if sitting[id] || doubling[id] {
			return Attendance{}, fmt.Errorf("seeding.resolve: doubler %v already selected: %w",
				id, ErrInvalidSelection)
		}
		doubling[id] = true
	}
	called := make(map[EntrantID]bool)
	for _, id := range sel.Standbys {
		if !isStandby[id] || called[id] {
			return Attendance{}, fmt.Errorf("seeding.resolve: %v is not an available standby: %w",
				id, ErrInvalidSelection)
		}
		called[id] = true
	}

	att := Attendance{
		Option:   opt,
		Sitting:  append([]EntrantID(nil), sel.Sitters...),
		Doubling: append([]EntrantID(nil), sel.Doublers...),
	}
	for _, e := range present {
		if sitting[e.ID] {
			continue
		}
		att.Playing = append(att.Playing, e.ID)
		if doubling[e.ID] {
			att.Playing = append(att.Playing, e.ID)
		}
	}
	for _, e := range standbys {
		if called[e.ID] {
			att.Playing = append(att.Playing, e.ID)
		} else {
			att.Unused = append(att.Unused, e.ID)
		}
	}

	return att, nil
}
