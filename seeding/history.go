/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package seeding

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
)

// DefaultBiasWeight is the weight of a "keep apart" request: the pair is
// treated as if they had already met this many times.
const DefaultBiasWeight = 25

type pair struct {
	a, b EntrantID
}

func makePair(a, b EntrantID) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a: a, b: b}
}

// PairingHistory counts how often each pair of entrants has shared a board in
// committed rounds. It is append-only; Commit is its only mutation and each
// commit advances Version.
type PairingHistory struct {
	counts  map[pair]int
	games   map[EntrantID]int
	powers  map[EntrantID]map[diplomacy.Power]int
	version int
}

func NewPairingHistory() *PairingHistory {
	return &PairingHistory{
		counts: make(map[pair]int),
		games:  make(map[EntrantID]int),
		powers: make(map[EntrantID]map[diplomacy.Power]int),
	}
}

func (h *PairingHistory) Version() int {
	return h.version
}

// Count returns the number of committed games a and b played together.
func (h *PairingHistory) Count(a, b EntrantID) int {
	return h.counts[makePair(a, b)]
}

// GamesPlayed returns the number of committed boards id was seated at.
func (h *PairingHistory) GamesPlayed(id EntrantID) int {
	return h.games[id]
}

// PowerCount returns how many times id has been assigned p.
func (h *PairingHistory) PowerCount(id EntrantID, p diplomacy.Power) int {
	return h.powers[id][p]
}

// Commit folds a seating proposal into the history. It fails with
// ErrStaleSeedingAttempt when the proposal was computed against an older
// version of the history.
func (h *PairingHistory) Commit(p *Proposal) error {
	if p.BaseVersion != h.version {
		return fmt.Errorf("seeding.commit: proposal %v seeded against version %v, history is at %v: %w",
			p.ID, p.BaseVersion, h.version, ErrStaleSeedingAttempt)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	for _, b := range p.Boards {
		for i := range b.Seats {
			id := b.Seats[i].Entrant
			h.games[id]++
			if pw := b.Seats[i].Power; pw != "" {
				if h.powers[id] == nil {
					h.powers[id] = make(map[diplomacy.Power]int)
				}
				h.powers[id][pw]++
			}
			for j := i + 1; j < len(b.Seats); j++ {
				h.counts[makePair(id, b.Seats[j].Entrant)]++
			}
		}
	}
	h.version++

	return nil
}

type pairCount struct {
	A     EntrantID `json:"a"`
	B     EntrantID `json:"b"`
	Count int       `json:"count"`
}

func sortedPairs(m map[pair]int) []pairCount {
	ret := make([]pairCount, 0, len(m))
	for k, v := range m {
		ret = append(ret, pairCount{A: k.a, B: k.b, Count: v})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].A != ret[j].A {
			return ret[i].A < ret[j].A
		}
		return ret[i].B < ret[j].B
	})

	return ret
}

type historyJSON struct {
	Version int                                   `json:"version"`
	Pairs   []pairCount                           `json:"pairs"`
	Games   map[EntrantID]int                     `json:"games"`
	Powers  map[EntrantID]map[diplomacy.Power]int `json:"powers"`
}

func (h *PairingHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyJSON{
		Version: h.version,
		Pairs:   sortedPairs(h.counts),
		Games:   h.games,
		Powers:  h.powers,
	})
}

func (h *PairingHistory) UnmarshalJSON(data []byte) error {
	var hj historyJSON
	if err := json.Unmarshal(data, &hj); err != nil {
		return err
	}
	*h = *NewPairingHistory()
	h.version = hj.Version
	for _, pc := range hj.Pairs {
		h.counts[makePair(pc.A, pc.B)] = pc.Count
	}
	for k, v := range hj.Games {
		h.games[k] = v
	}
	for k, v := range hj.Powers {
		h.powers[k] = v
	}

	return nil
}

// BiasTable holds tournament director adjustments that make the seeder treat
// a pair as if they had met more (or fewer) times than they have.
type BiasTable struct {
	weights map[pair]int
}

func NewBiasTable() *BiasTable {
	return &BiasTable{weights: make(map[pair]int)}
}

// Add adjusts the weight between a and b.
func (t *BiasTable) Add(a, b EntrantID, weight int) error {
	if a == b {
		return fmt.Errorf("seeding.bias: %v paired with itself: %w", a, ErrInvalidBias)
	}
	if weight == 0 {
		return fmt.Errorf("seeding.bias: zero weight for %v/%v: %w", a, b,
			ErrInvalidBias)
	}
	k := makePair(a, b)
	t.weights[k] += weight
	if t.weights[k] == 0 {
		delete(t.weights, k)
	}

	return nil
}

// KeepApart asks the seeder to avoid putting a and b at the same board.
func (t *BiasTable) KeepApart(a, b EntrantID) error {
	return t.Add(a, b, DefaultBiasWeight)
}

func (t *BiasTable) Weight(a, b EntrantID) int {
	if t == nil {
		return 0
	}
	return t.weights[makePair(a, b)]
}

func (t *BiasTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(sortedPairs(t.weights))
}

func (t *BiasTable) UnmarshalJSON(data []byte) error {
	var pcs []pairCount
	if err := json.Unmarshal(data, &pcs); err != nil {
		return err
	}
	t.weights = make(map[pair]int)
	for _, pc := range pcs {
		t.weights[makePair(pc.A, pc.B)] = pc.Count
	}

	return nil
}
