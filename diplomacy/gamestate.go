/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package diplomacy

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGameState = errors.New("invalid game state")
	ErrGameSealed       = errors.New("game already finished")
	ErrDotCountUnknown  = errors.New("dot count unknown")
)

type Season string

const (
	Spring Season = "S"
	Fall   Season = "F"
)

func (s Season) order() int {
	if s == Spring {
		return 0
	}
	return 1
}

// Snapshot is the supply centre count of every power after a season.
type Snapshot struct {
	Year    int           `json:"year"`
	Season  Season        `json:"season"`
	Centres map[Power]int `json:"centres"`
}

// DrawProposal records a draw vote taken at the board. A passed proposal
// naming a single power is a concession to that power.
type DrawProposal struct {
	Year         int     `json:"year"`
	Season       Season  `json:"season"`
	Proposer     Power   `json:"proposer,omitempty"`
	Powers       []Power `json:"powers"`
	VotesFor     int     `json:"votesFor"`
	VotesAgainst int     `json:"votesAgainst"`
	Passed       bool    `json:"passed"`
}

type OutcomeKind string

const (
	InProgress OutcomeKind = ""
	Solo       OutcomeKind = "solo"
	Concession OutcomeKind = "concession"
	Draw       OutcomeKind = "draw"
	Called     OutcomeKind = "called"
)

type Outcome struct {
	Kind   OutcomeKind
	Powers []Power
	Year   int
}

// GameState is everything known about one game that scoring needs. It only
// grows: once the game has finished it is sealed against further updates.
type GameState struct {
	Variant      Variant        `json:"variant"`
	Snapshots    []Snapshot     `json:"snapshots,omitempty"`
	Eliminations map[Power]int  `json:"eliminations,omitempty"`
	Proposals    []DrawProposal `json:"proposals,omitempty"`
	Ended        bool           `json:"ended,omitempty"`
}

func NewGameState(v Variant) *GameState {
	return &GameState{Variant: v}
}

// AddSnapshot appends a centre count. The state is left unchanged when the
// result would not validate.
func (g *GameState) AddSnapshot(s Snapshot) error {
	if g.Finished() {
		return fmt.Errorf("diplomacy.addSnapshot: %v %v: %w", s.Season, s.Year,
			ErrGameSealed)
	}
	g.Snapshots = append(g.Snapshots, s)
	if err := g.Validate(); err != nil {
		g.Snapshots = g.Snapshots[:len(g.Snapshots)-1]
		return err
	}

	return nil
}

// AddProposal records a draw vote.
func (g *GameState) AddProposal(d DrawProposal) error {
	if g.Finished() {
		return fmt.Errorf("diplomacy.addProposal: %w", ErrGameSealed)
	}
	g.Proposals = append(g.Proposals, d)
	if err := g.Validate(); err != nil {
		g.Proposals = g.Proposals[:len(g.Proposals)-1]
		return err
	}

	return nil
}

// SetEliminated records the year a power was eliminated.
func (g *GameState) SetEliminated(p Power, year int) error {
	if g.Finished() {
		return fmt.Errorf("diplomacy.setEliminated: %w", ErrGameSealed)
	}
	prev, had := g.Eliminations[p]
	if g.Eliminations == nil {
		g.Eliminations = make(map[Power]int)
	}
	g.Eliminations[p] = year
	if err := g.Validate(); err != nil {
		if had {
			g.Eliminations[p] = prev
		} else {
			delete(g.Eliminations, p)
		}
		return err
	}

	return nil
}

// End marks a game called by the tournament director without a solo or a
// passed draw vote; it is then scored as a draw between the survivors.
func (g *GameState) End() error {
	if g.Finished() {
		return fmt.Errorf("diplomacy.end: %w", ErrGameSealed)
	}
	g.Ended = true

	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %v", ErrInvalidGameState, fmt.Sprintf(format, args...))
}

// Validate checks internal consistency against the variant's constants.
func (g *GameState) Validate() error {
	v := g.Variant
	if len(v.Powers) == 0 {
		return invalidf("variant %q has no powers", v.Name)
	}

	for i, s := range g.Snapshots {
		if s.Season != Spring && s.Season != Fall {
			return invalidf("unknown season %q", s.Season)
		}
		if s.Year < v.FirstYear {
			return invalidf("year %v precedes %v", s.Year, v.FirstYear)
		}
		if i > 0 {
			prev := g.Snapshots[i-1]
			if s.Year < prev.Year ||
				(s.Year == prev.Year && s.Season.order() < prev.Season.order()) {
				return invalidf("%v %v recorded after %v %v", s.Season, s.Year,
					prev.Season, prev.Year)
			}
		}
		total := 0
		winners := 0
		for p, c := range s.Centres {
			if v.Index(p) < 0 {
				return invalidf("unknown power %q", p)
			}
			if c < 0 {
				return invalidf("%v has %v centres", p, c)
			}
			if c >= v.WinningCentres {
				winners++
			}
			total += c
		}
		for _, p := range v.Powers {
			if _, ok := s.Centres[p]; !ok {
				return invalidf("no centre count for %v in %v %v", p, s.Season, s.Year)
			}
		}
		if total > v.TotalCentres {
			return invalidf("%v centres owned in %v %v, only %v exist", total,
				s.Season, s.Year, v.TotalCentres)
		}
		if winners > 1 {
			return invalidf("%v powers at or above %v centres", winners,
				v.WinningCentres)
		}
	}

	last := g.latest()
	for p, year := range g.Eliminations {
		if v.Index(p) < 0 {
			return invalidf("unknown power %q eliminated", p)
		}
		if year < v.FirstYear || year > last.Year {
			return invalidf("%v eliminated in %v outside %v-%v", p, year,
				v.FirstYear, last.Year)
		}
		for _, s := range g.Snapshots {
			if s.Year > year && s.Centres[p] > 0 {
				return invalidf("%v eliminated in %v but owns %v centres in %v",
					p, year, s.Centres[p], s.Year)
			}
		}
	}

	passed := 0
	for _, d := range g.Proposals {
		if d.Proposer != "" && v.Index(d.Proposer) < 0 {
			return invalidf("unknown proposer %q", d.Proposer)
		}
		if len(d.Powers) == 0 {
			return invalidf("draw proposal in %v names no powers", d.Year)
		}
		if d.VotesFor < 0 || d.VotesAgainst < 0 {
			return invalidf("negative vote count in %v", d.Year)
		}
		seen := make(map[Power]bool)
		for _, p := range d.Powers {
			if v.Index(p) < 0 {
				return invalidf("unknown power %q in draw proposal", p)
			}
			if seen[p] {
				return invalidf("%v included twice in draw proposal", p)
			}
			seen[p] = true
			if d.Passed && last.Centres[p] == 0 {
				return invalidf("eliminated power %v included in passed draw", p)
			}
		}
		if d.Passed {
			passed++
		}
	}
	if passed > 1 {
		return invalidf("%v draw proposals passed", passed)
	}

	return nil
}

// latest returns the most recent snapshot, or the starting position if no
// counts have been recorded yet.
func (g *GameState) latest() Snapshot {
	if len(g.Snapshots) == 0 {
		return Snapshot{
			Year:    g.Variant.FirstYear - 1,
			Season:  Fall,
			Centres: g.Variant.HomeCentres,
		}
	}

	return g.Snapshots[len(g.Snapshots)-1]
}

func (g *GameState) Powers() []Power {
	return g.Variant.Powers
}

// DotCount returns the latest centre count of p.
func (g *GameState) DotCount(p Power) int {
	return g.latest().Centres[p]
}

// DotCountIn returns the centre count of p at the end of year. Years before
// the first game year give the starting position.
func (g *GameState) DotCountIn(p Power, year int) (int, error) {
	if year < g.Variant.FirstYear {
		return g.Variant.HomeCentres[p], nil
	}
	for i := len(g.Snapshots) - 1; i >= 0; i-- {
		if g.Snapshots[i].Year == year {
			return g.Snapshots[i].Centres[p], nil
		}
		if g.Snapshots[i].Year < year {
			break
		}
	}

	return 0, fmt.Errorf("diplomacy.dotCountIn: %v in %v: %w", p, year,
		ErrDotCountUnknown)
}

// LastFullYear is the year the latest centre counts belong to.
func (g *GameState) LastFullYear() int {
	return g.latest().Year
}

func (g *GameState) passedProposal() (DrawProposal, bool) {
	for _, d := range g.Proposals {
		if d.Passed {
			return d, true
		}
	}

	return DrawProposal{}, false
}

// Soloer returns the power that soloed or was conceded to.
func (g *GameState) Soloer() (Power, bool) {
	last := g.latest()
	for _, p := range g.Variant.Powers {
		if last.Centres[p] >= g.Variant.WinningCentres {
			return p, true
		}
	}
	if d, ok := g.passedProposal(); ok && len(d.Powers) == 1 {
		return d.Powers[0], true
	}

	return "", false
}

// SoloYear returns the year of a solo or concession, or 0.
func (g *GameState) SoloYear() int {
	p, ok := g.Soloer()
	if !ok {
		return 0
	}
	for _, s := range g.Snapshots {
		if s.Centres[p] >= g.Variant.WinningCentres {
			return s.Year
		}
	}
	if d, ok := g.passedProposal(); ok {
		return d.Year
	}

	return g.LastFullYear()
}

// Survivors lists the powers still owning centres, in variant order.
func (g *GameState) Survivors() []Power {
	last := g.latest()
	ret := make([]Power, 0, len(g.Variant.Powers))
	for _, p := range g.Variant.Powers {
		if last.Centres[p] > 0 {
			ret = append(ret, p)
		}
	}

	return ret
}

// PowersInDraw lists the powers sharing the result: the passed draw, the
// conceded-to power, or every survivor when no vote passed.
func (g *GameState) PowersInDraw() []Power {
	if d, ok := g.passedProposal(); ok {
		ret := make([]Power, 0, len(d.Powers))
		for _, p := range g.Variant.Powers {
			for _, dp := range d.Powers {
				if dp == p {
					ret = append(ret, p)
				}
			}
		}
		return ret
	}

	return g.Survivors()
}

// NumPowersWith counts the powers owning exactly centres centres.
func (g *GameState) NumPowersWith(centres int) int {
	last := g.latest()
	n := 0
	for _, p := range g.Variant.Powers {
		if last.Centres[p] == centres {
			n++
		}
	}

	return n
}

func (g *GameState) HighestDotCount() int {
	last := g.latest()
	high := 0
	for _, p := range g.Variant.Powers {
		if last.Centres[p] > high {
			high = last.Centres[p]
		}
	}

	return high
}

// YearEliminated returns the year p lost its last centre.
func (g *GameState) YearEliminated(p Power) (int, bool) {
	if g.DotCount(p) > 0 {
		return 0, false
	}
	if year, ok := g.Eliminations[p]; ok {
		return year, true
	}
	for _, s := range g.Snapshots {
		if s.Centres[p] == 0 {
			return s.Year, true
		}
	}

	return 0, false
}

// Finished reports whether the game has a final result.
func (g *GameState) Finished() bool {
	return g.Outcome().Kind != InProgress
}

func (g *GameState) Outcome() Outcome {
	last := g.latest()
	for _, p := range g.Variant.Powers {
		if last.Centres[p] >= g.Variant.WinningCentres {
			return Outcome{Kind: Solo, Powers: []Power{p}, Year: g.SoloYear()}
		}
	}
	if d, ok := g.passedProposal(); ok {
		if len(d.Powers) == 1 {
			return Outcome{Kind: Concession, Powers: d.Powers, Year: d.Year}
		}
		return Outcome{Kind: Draw, Powers: g.PowersInDraw(), Year: d.Year}
	}
	if g.Ended {
		return Outcome{Kind: Called, Powers: g.Survivors(), Year: last.Year}
	}

	return Outcome{Kind: InProgress}
}
