/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package seeding

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
)

const (
	// DoublerWeight is added between two entrants who both play two boards
	// this round, so that they do not meet at both.
	DoublerWeight     = 10
	DefaultStarts     = 8
	DefaultIterations = 2000
	DefaultExponent   = 2

	constructionAttempts = 20
)

// Seat is one entrant's place at a board. Power is empty until assigned.
type Seat struct {
	Entrant EntrantID       `json:"entrant"`
	Power   diplomacy.Power `json:"power,omitempty"`
}

type Board struct {
	Number int    `json:"number"`
	Seats  []Seat `json:"seats"`
}

// Has reports whether id is seated at b.
func (b Board) Has(id EntrantID) bool {
	for _, s := range b.Seats {
		if s.Entrant == id {
			return true
		}
	}
	return false
}

// Proposal is the output of one seeding run. It is only a proposal: the
// pairing history is unchanged until it is committed.
type Proposal struct {
	ID          uuid.UUID `json:"id"`
	Round       int       `json:"round"`
	BaseVersion int       `json:"baseVersion"`
	BoardSize   int       `json:"boardSize"`
	Seed        int64     `json:"seed"`
	Boards      []Board   `json:"boards"`
	Cost        int64     `json:"cost"`
	// Repeats counts same-board pairs that have met before
	Repeats int `json:"repeats"`
}

// Validate checks the shape of the boards: full boards of distinct entrants
// and, once assigned, distinct powers.
func (p *Proposal) Validate() error {
	if len(p.Boards) == 0 {
		return fmt.Errorf("seeding.validate: no boards: %w", ErrInvalidSeating)
	}
	for _, b := range p.Boards {
		if len(b.Seats) != p.BoardSize {
			return fmt.Errorf("seeding.validate: board %v has %v seats, want %v: %w",
				b.Number, len(b.Seats), p.BoardSize, ErrInvalidSeating)
		}
		entrants := make(map[EntrantID]bool)
		powers := make(map[diplomacy.Power]bool)
		assigned := 0
		for _, s := range b.Seats {
			if entrants[s.Entrant] {
				return fmt.Errorf("seeding.validate: %v seated twice at board %v: %w",
					s.Entrant, b.Number, ErrInvalidSeating)
			}
			entrants[s.Entrant] = true
			if s.Power == "" {
				continue
			}
			if powers[s.Power] {
				return fmt.Errorf("seeding.validate: %v assigned twice at board %v: %w",
					s.Power, b.Number, ErrInvalidSeating)
			}
			powers[s.Power] = true
			assigned++
		}
		if assigned != 0 && assigned != len(b.Seats) {
			return fmt.Errorf("seeding.validate: board %v only partly assigned powers: %w",
				b.Number, ErrInvalidSeating)
		}
	}

	return nil
}

// Pin fixes an entrant to a board number (1-based).
type Pin struct {
	Entrant EntrantID `json:"entrant"`
	Board   int       `json:"board"`
}

type Request struct {
	Round int
	// Playing lists one slot per seat; doubled entrants appear twice
	Playing []EntrantID
	Pins    []Pin
	Seed    int64
}

// Seeder partitions players into boards minimising the weighted number of
// repeat meetings. Runs are reproducible for a given seed as long as Budget
// is zero.
type Seeder struct {
	BoardSize  int
	Starts     int
	Iterations int
	Exponent   int
	Budget     time.Duration
}

func NewSeeder(boardSize int) *Seeder {
	return &Seeder{
		BoardSize:  boardSize,
		Starts:     DefaultStarts,
		Iterations: DefaultIterations,
		Exponent:   DefaultExponent,
	}
}

type partition struct {
	boards [][]int
	pinned [][]bool
}

type seedingRun struct {
	s         *Seeder
	rng       *rand.Rand
	ids       []EntrantID
	slots     map[int]int
	pins      [][]int
	penalty   [][]int64
	numBoards int
}

func penalty(w int, exp int) int64 {
	abs := int64(w)
	if abs < 0 {
		abs = -abs
	}
	ret := int64(1)
	for i := 0; i < exp; i++ {
		ret *= abs
	}
	if w < 0 {
		return -ret
	}
	return ret
}

// Seed computes a seating proposal for req. hist and bias are read only.
func (s *Seeder) Seed(ctx context.Context, req Request, hist *PairingHistory,
	bias *BiasTable) (*Proposal, error) {

	if s.BoardSize < 1 {
		return nil, fmt.Errorf("seeding.seed: board size %v: %w", s.BoardSize,
			ErrNoFeasiblePartition)
	}
	if len(req.Playing) == 0 || len(req.Playing)%s.BoardSize != 0 {
		return nil, fmt.Errorf("seeding.seed: %v slots do not fill boards of %v: %w",
			len(req.Playing), s.BoardSize, ErrNoFeasiblePartition)
	}
	run := &seedingRun{
		s:         s,
		rng:       rand.New(rand.NewSource(req.Seed)),
		slots:     make(map[int]int),
		numBoards: len(req.Playing) / s.BoardSize,
	}
	idx := make(map[EntrantID]int)
	for _, id := range req.Playing {
		i, ok := idx[id]
		if !ok {
			i = len(run.ids)
			idx[id] = i
			run.ids = append(run.ids, id)
		}
		run.slots[i]++
	}
	for id, n := range run.slots {
		if n > run.numBoards || n > 2 {
			return nil, fmt.Errorf("seeding.seed: %v needs %v seats at %v boards: %w",
				run.ids[id], n, run.numBoards, ErrNoFeasiblePartition)
		}
	}

	run.pins = make([][]int, run.numBoards)
	pinnedSlots := make(map[int]int)
	for _, pin := range req.Pins {
		i, ok := idx[pin.Entrant]
		if !ok {
			return nil, fmt.Errorf("seeding.seed: pinned entrant %v is not playing: %w",
				pin.Entrant, ErrNoFeasiblePartition)
		}
		if pin.Board < 1 || pin.Board > run.numBoards {
			return nil, fmt.Errorf("seeding.seed: %v pinned to board %v of %v: %w",
				pin.Entrant, pin.Board, run.numBoards, ErrNoFeasiblePartition)
		}
		b := pin.Board - 1
		for _, other := range run.pins[b] {
			if other == i {
				return nil, fmt.Errorf("seeding.seed: %v pinned twice to board %v: %w",
					pin.Entrant, pin.Board, ErrNoFeasiblePartition)
			}
		}
		if len(run.pins[b]) >= s.BoardSize {
			return nil, fmt.Errorf("seeding.seed: more than %v entrants pinned to board %v: %w",
				s.BoardSize, pin.Board, ErrNoFeasiblePartition)
		}
		pinnedSlots[i]++
		if pinnedSlots[i] > run.slots[i] {
			return nil, fmt.Errorf("seeding.seed: %v pinned more often than playing: %w",
				pin.Entrant, ErrNoFeasiblePartition)
		}
		run.pins[b] = append(run.pins[b], i)
	}

	doubling := make(map[int]bool)
	for i, n := range run.slots {
		if n > 1 {
			doubling[i] = true
		}
	}
	n := len(run.ids)
	run.penalty = make([][]int64, n)
	for i := range run.penalty {
		run.penalty[i] = make([]int64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := hist.Count(run.ids[i], run.ids[j]) + bias.Weight(run.ids[i], run.ids[j])
			if doubling[i] && doubling[j] {
				w += DoublerWeight
			}
			run.penalty[i][j] = penalty(w, s.exponent())
			run.penalty[j][i] = run.penalty[i][j]
		}
	}

	var deadline time.Time
	if s.Budget > 0 {
		deadline = time.Now().Add(s.Budget)
	}
	var best *partition
	var bestCost int64
	starts := s.Starts
	if starts < 1 {
		starts = 1
	}
	completed := 0
	for start := 0; start < starts; start++ {
		if best != nil && (ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline))) {
			break
		}
		p, err := run.construct()
		if err != nil {
			return nil, err
		}
		cost := run.improve(ctx, p, deadline)
		completed++
		if best == nil || cost < bestCost {
			best, bestCost = p, cost
		}
	}
	log.Printf("seeding.seed: round %v best cost %v after %v of %v starts",
		req.Round, bestCost, completed, starts)

	return run.proposal(req, hist, best, bestCost)
}

func (s *Seeder) exponent() int {
	if s.Exponent < 1 {
		return DefaultExponent
	}
	return s.Exponent
}

// construct builds a random feasible partition honouring the pins.
func (r *seedingRun) construct() (*partition, error) {
	for attempt := 0; attempt < constructionAttempts; attempt++ {
		if p, ok := r.tryConstruct(); ok {
			return p, nil
		}
	}

	return nil, fmt.Errorf("seeding.seed: could not place %v entrants at %v boards: %w",
		len(r.ids), r.numBoards, ErrNoFeasiblePartition)
}

func (r *seedingRun) tryConstruct() (*partition, bool) {
	size := r.s.BoardSize
	p := &partition{
		boards: make([][]int, r.numBoards),
		pinned: make([][]bool, r.numBoards),
	}
	remaining := make(map[int]int)
	for i, n := range r.slots {
		remaining[i] = n
	}
	for b, pins := range r.pins {
		for _, i := range pins {
			p.boards[b] = append(p.boards[b], i)
			p.pinned[b] = append(p.pinned[b], true)
			remaining[i]--
		}
	}

	// entrants with two slots go first so they can still find two boards
	var multi, single []int
	for i := range r.ids {
		for k := 0; k < remaining[i]; k++ {
			if r.slots[i] > 1 {
				multi = append(multi, i)
			} else {
				single = append(single, i)
			}
		}
	}
	r.rng.Shuffle(len(multi), func(a, b int) { multi[a], multi[b] = multi[b], multi[a] })
	r.rng.Shuffle(len(single), func(a, b int) { single[a], single[b] = single[b], single[a] })

	place := func(i int) bool {
		most := 0
		var candidates []int
		for b := range p.boards {
			free := size - len(p.boards[b])
			if free == 0 || contains(p.boards[b], i) {
				continue
			}
			if free > most {
				most = free
				candidates = candidates[:0]
			}
			if free == most {
				candidates = append(candidates, b)
			}
		}
		if len(candidates) == 0 {
			return false
		}
		b := candidates[r.rng.Intn(len(candidates))]
		p.boards[b] = append(p.boards[b], i)
		p.pinned[b] = append(p.pinned[b], false)
		return true
	}
	for _, i := range append(multi, single...) {
		if !place(i) {
			return nil, false
		}
	}

	return p, true
}

func contains(board []int, i int) bool {
	for _, j := range board {
		if j == i {
			return true
		}
	}
	return false
}

func (r *seedingRun) boardCost(board []int) int64 {
	var cost int64
	for x := 0; x < len(board); x++ {
		for y := x + 1; y < len(board); y++ {
			cost += r.penalty[board[x]][board[y]]
		}
	}
	return cost
}

func (r *seedingRun) cost(p *partition) int64 {
	var cost int64
	for _, b := range p.boards {
		cost += r.boardCost(b)
	}
	return cost
}

// swapDelta is the change in cost from exchanging seat s1 of board b1 with
// seat s2 of board b2.
func (r *seedingRun) swapDelta(p *partition, b1, s1, b2, s2 int) int64 {
	e1 := p.boards[b1][s1]
	e2 := p.boards[b2][s2]
	var delta int64
	for s, m := range p.boards[b1] {
		if s != s1 {
			delta += r.penalty[e2][m] - r.penalty[e1][m]
		}
	}
	for s, m := range p.boards[b2] {
		if s != s2 {
			delta += r.penalty[e1][m] - r.penalty[e2][m]
		}
	}
	return delta
}

// improve applies random strictly improving swaps of unpinned seats.
func (r *seedingRun) improve(ctx context.Context, p *partition,
	deadline time.Time) int64 {

	cost := r.cost(p)
	if r.numBoards < 2 {
		return cost
	}
	size := r.s.BoardSize
	for it := 0; it < r.s.Iterations; it++ {
		if it%256 == 255 {
			if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
				break
			}
		}
		b1 := r.rng.Intn(r.numBoards)
		b2 := r.rng.Intn(r.numBoards - 1)
		if b2 >= b1 {
			b2++
		}
		s1 := r.rng.Intn(size)
		s2 := r.rng.Intn(size)
		if p.pinned[b1][s1] || p.pinned[b2][s2] {
			continue
		}
		e1 := p.boards[b1][s1]
		e2 := p.boards[b2][s2]
		if e1 == e2 || contains(p.boards[b2], e1) || contains(p.boards[b1], e2) {
			continue
		}
		if delta := r.swapDelta(p, b1, s1, b2, s2); delta < 0 {
			p.boards[b1][s1], p.boards[b2][s2] = e2, e1
			cost += delta
		}
	}

	return cost
}

func (r *seedingRun) proposal(req Request, hist *PairingHistory, best *partition,
	cost int64) (*Proposal, error) {

	id, err := uuid.NewRandomFromReader(r.rng)
	if err != nil {
		return nil, fmt.Errorf("seeding.seed: failed to generate proposal id: %w", err)
	}
	prop := &Proposal{
		ID:          id,
		Round:       req.Round,
		BaseVersion: hist.Version(),
		BoardSize:   r.s.BoardSize,
		Seed:        req.Seed,
		Cost:        cost,
	}
	for b, board := range best.boards {
		seats := make([]Seat, 0, len(board))
		for _, i := range board {
			seats = append(seats, Seat{Entrant: r.ids[i]})
		}
		sort.Slice(seats, func(x, y int) bool {
			return seats[x].Entrant < seats[y].Entrant
		})
		for x := range seats {
			for y := x + 1; y < len(seats); y++ {
				if hist.Count(seats[x].Entrant, seats[y].Entrant) > 0 {
					prop.Repeats++
				}
			}
		}
		prop.Boards = append(prop.Boards, Board{Number: b + 1, Seats: seats})
	}

	return prop, nil
}

// BoardsOf lists the board numbers id is seated at.
func (p *Proposal) BoardsOf(id EntrantID) []int {
	var ret []int
	for _, b := range p.Boards {
		if b.Has(id) {
			ret = append(ret, b.Number)
		}
	}
	return ret
}
