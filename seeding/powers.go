/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package seeding

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
)

// Preferences is an entrant's ranking of the great powers. Powers in the same
// tier are ranked equally; powers left out share a final tier.
type Preferences struct {
	tiers    [][]diplomacy.Power
	rank     map[diplomacy.Power]int
	declared map[diplomacy.Power]int
}

// ParsePreferences reads a preference list such as "FGIRT" (strict order) or
// "F,GI,RT" (comma separated tiers of equal rank). Case is ignored.
func ParsePreferences(s string, v diplomacy.Variant) (Preferences, error) {
	p := Preferences{
		rank:     make(map[diplomacy.Power]int),
		declared: make(map[diplomacy.Power]int),
	}
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if s == "" {
		return p, nil
	}

	var chunks []string
	if strings.Contains(s, ",") {
		chunks = strings.Split(s, ",")
	} else {
		for _, c := range s {
			chunks = append(chunks, string(c))
		}
	}
	for _, chunk := range chunks {
		if chunk == "" {
			return Preferences{}, fmt.Errorf("seeding.parsePreferences: empty tier in %q: %w",
				s, ErrInvalidPreferences)
		}
		tier := make([]diplomacy.Power, 0, len(chunk))
		for _, c := range chunk {
			pw, ok := v.ParsePower(string(c))
			if !ok {
				return Preferences{}, fmt.Errorf("seeding.parsePreferences: unknown power %q in %q: %w",
					c, s, ErrInvalidPreferences)
			}
			if _, dup := p.rank[pw]; dup {
				return Preferences{}, fmt.Errorf("seeding.parsePreferences: %v listed twice in %q: %w",
					pw, s, ErrInvalidPreferences)
			}
			p.rank[pw] = len(p.tiers)
			p.declared[pw] = len(p.declared)
			tier = append(tier, pw)
		}
		p.tiers = append(p.tiers, tier)
	}

	return p, nil
}

// Empty reports whether no usable ranking was given.
func (p Preferences) Empty() bool {
	return len(p.tiers) == 0
}

// Rank is the 0-based tier of pw.
func (p Preferences) Rank(pw diplomacy.Power) int {
	if r, ok := p.rank[pw]; ok {
		return r
	}
	return len(p.tiers)
}

func (p Preferences) String() string {
	parts := make([]string, 0, len(p.tiers))
	strict := true
	for _, t := range p.tiers {
		var sb strings.Builder
		for _, pw := range t {
			sb.WriteString(string(pw))
		}
		if len(t) > 1 {
			strict = false
		}
		parts = append(parts, sb.String())
	}
	if strict {
		return strings.Join(parts, "")
	}
	return strings.Join(parts, ",")
}

type AssignMode string

const (
	AssignRandom      AssignMode = "random"
	AssignBalanced    AssignMode = "balanced"
	AssignPreferences AssignMode = "preferences"
)

func ParseAssignMode(s string) (AssignMode, error) {
	switch m := AssignMode(strings.ToLower(s)); m {
	case AssignRandom, AssignBalanced, AssignPreferences:
		return m, nil
	case "":
		return AssignRandom, nil
	}
	return "", fmt.Errorf("seeding.parseAssignMode: unknown power assignment method %q", s)
}

// PowerAssigner gives each seat of a seating proposal a great power.
//
// In preference mode seats are considered in arrival order; the assignment
// with the lowest total tier rank wins and, among equal totals, the one that
// gives earlier seats their earlier declared choices.
type PowerAssigner struct {
	Variant        diplomacy.Variant
	Mode           AssignMode
	RandomFallback bool
}

// Assign fills in the powers of every board of p.
func (a *PowerAssigner) Assign(p *Proposal, entrants map[EntrantID]Entrant,
	hist *PairingHistory, seed int64) error {

	n := a.Variant.BoardSize()
	if p.BoardSize != n {
		return fmt.Errorf("seeding.assign: boards of %v but %v has %v powers: %w",
			p.BoardSize, a.Variant.Name, n, ErrInvalidSeating)
	}
	rng := rand.New(rand.NewSource(seed))

	for b := range p.Boards {
		board := &p.Boards[b]
		var err error
		switch a.Mode {
		case AssignRandom, "":
			perm := rng.Perm(n)
			for i := range board.Seats {
				board.Seats[i].Power = a.Variant.Powers[perm[i]]
			}
		case AssignBalanced:
			err = a.assignBalanced(board, hist, rng)
		case AssignPreferences:
			err = a.assignPreferences(board, entrants, rng)
		default:
			err = fmt.Errorf("seeding.assign: unknown mode %q", a.Mode)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// assignBalanced minimises how often each seat has already played its power.
func (a *PowerAssigner) assignBalanced(board *Board, hist *PairingHistory,
	rng *rand.Rand) error {

	n := len(board.Seats)
	cost := make([][]int, n)
	order := make([][]int, n)
	for i, s := range board.Seats {
		cost[i] = make([]int, n)
		for k, pw := range a.Variant.Powers {
			cost[i][k] = hist.PowerCount(s.Entrant, pw)
		}
		order[i] = rng.Perm(n)
		c := cost[i]
		sort.SliceStable(order[i], func(x, y int) bool {
			return c[order[i][x]] < c[order[i][y]]
		})
	}
	seats := make([]int, n)
	for i := range seats {
		seats[i] = i
	}
	rng.Shuffle(n, func(x, y int) { seats[x], seats[y] = seats[y], seats[x] })

	a.apply(board, seats, cost, order)
	return nil
}

func (a *PowerAssigner) assignPreferences(board *Board,
	entrants map[EntrantID]Entrant, rng *rand.Rand) error {

	n := len(board.Seats)
	seats := make([]int, n)
	for i := range seats {
		seats[i] = i
	}
	sort.SliceStable(seats, func(x, y int) bool {
		ex := entrants[board.Seats[seats[x]].Entrant]
		ey := entrants[board.Seats[seats[y]].Entrant]
		if ex.Arrival != ey.Arrival {
			return ex.Arrival < ey.Arrival
		}
		return ex.ID < ey.ID
	})

	cost := make([][]int, n)
	order := make([][]int, n)
	for i, s := range board.Seats {
		e, ok := entrants[s.Entrant]
		if !ok {
			return fmt.Errorf("seeding.assign: unknown entrant %v: %w", s.Entrant,
				ErrInvalidSeating)
		}
		prefs, err := ParsePreferences(e.Preferences, a.Variant)
		if err != nil {
			return fmt.Errorf("seeding.assign: %v: %w", e.DisplayName(), err)
		}
		cost[i] = make([]int, n)
		order[i] = make([]int, n)
		if prefs.Empty() {
			if !a.RandomFallback {
				return fmt.Errorf("seeding.assign: %v has no preference list: %w",
					e.DisplayName(), ErrUnderspecifiedPreferences)
			}
			copy(order[i], rng.Perm(n))
			continue
		}
		for k, pw := range a.Variant.Powers {
			cost[i][k] = prefs.Rank(pw)
			order[i][k] = k
		}
		declared := func(k int) int {
			if d, ok := prefs.declared[a.Variant.Powers[k]]; ok {
				return d
			}
			return n + k
		}
		c := cost[i]
		sort.SliceStable(order[i], func(x, y int) bool {
			kx, ky := order[i][x], order[i][y]
			if c[kx] != c[ky] {
				return c[kx] < c[ky]
			}
			return declared(kx) < declared(ky)
		})
	}

	a.apply(board, seats, cost, order)
	return nil
}

// apply runs the matcher with seats taken in priority order and writes the
// result back to board.
func (a *PowerAssigner) apply(board *Board, seats []int, cost [][]int,
	order [][]int) {

	pc := make([][]int, len(seats))
	po := make([][]int, len(seats))
	for x, i := range seats {
		pc[x] = cost[i]
		po[x] = order[i]
	}
	match := minCostMatching(pc, po)
	for x, i := range seats {
		board.Seats[i].Power = a.Variant.Powers[match[x]]
	}
}

// minCostMatching finds the assignment of one distinct column per row with the
// lowest total cost by branch and bound. order[r] is the sequence in which
// row r tries columns; the first minimal assignment found is kept.
func minCostMatching(cost [][]int, order [][]int) []int {
	n := len(cost)
	minRest := make([]int, n+1)
	for r := n - 1; r >= 0; r-- {
		lo := math.MaxInt
		for _, c := range cost[r] {
			if c < lo {
				lo = c
			}
		}
		minRest[r] = minRest[r+1] + lo
	}

	best := math.MaxInt
	bestMatch := make([]int, n)
	cur := make([]int, n)
	used := make([]bool, n)
	var search func(r, total int)
	search = func(r, total int) {
		if total+minRest[r] >= best {
			return
		}
		if r == n {
			best = total
			copy(bestMatch, cur)
			return
		}
		for _, col := range order[r] {
			if used[col] {
				continue
			}
			used[col] = true
			cur[r] = col
			search(r+1, total+cost[r][col])
			used[col] = false
		}
	}
	search(0, 0)

	return bestMatch
}
