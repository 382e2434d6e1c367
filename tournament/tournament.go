/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package tournament holds the state of one Diplomacy tournament: who is
// registered, who turned up each round, the committed seatings and the game
// results they produced.
package tournament

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
	"github.com/mikeb26/diplomacy-tdbot/scoring"
	"github.com/mikeb26/diplomacy-tdbot/seeding"
)

var (
	ErrInvalidSettings    = errors.New("invalid tournament settings")
	ErrInvalidEntrant     = errors.New("invalid entrant")
	ErrDuplicateEntrant   = errors.New("duplicate entrant")
	ErrUnknownEntrant     = errors.New("unknown entrant")
	ErrUnknownRound       = errors.New("unknown round")
	ErrUnknownGame        = errors.New("unknown game")
	ErrGamesInProgress    = errors.New("games still in progress")
	ErrTournamentFinished = errors.New("tournament finished")
)

// Game is one board of a seeded round.
type Game struct {
	Round int                  `json:"round"`
	Board int                  `json:"board"`
	Seats []seeding.Seat       `json:"seats"`
	State *diplomacy.GameState `json:"state,omitempty"`
}

// PowerOf returns the power id plays at this board.
func (g *Game) PowerOf(id seeding.EntrantID) (diplomacy.Power, bool) {
	for _, s := range g.Seats {
		if s.Entrant == id {
			return s.Power, true
		}
	}
	return "", false
}

type Round struct {
	Number int `json:"number"`
	// Present is the roll call, standbys included
	Present    []seeding.EntrantID `json:"present"`
	Seating    *seeding.Proposal   `json:"seating,omitempty"`
	SittingOut []seeding.EntrantID `json:"sittingOut,omitempty"`
	Games      []*Game             `json:"games,omitempty"`
}

func (r *Round) Seeded() bool {
	return r.Seating != nil
}

// Tournament is the aggregate every director operation goes through. It is
// not safe for concurrent use; concurrent sessions are serialised through
// the version check of the store they load from.
type Tournament struct {
	Settings Settings                `json:"settings"`
	Entrants []seeding.Entrant       `json:"entrants"`
	History  *seeding.PairingHistory `json:"history"`
	Biases   *seeding.BiasTable      `json:"biases"`
	Rounds   []*Round                `json:"rounds,omitempty"`
	Finished bool                    `json:"finished,omitempty"`

	sys  *systems
	memo *scoring.Memo
}

func New(settings Settings) (*Tournament, error) {
	t := &Tournament{Settings: settings}
	if _, err := t.systems(); err != nil {
		return nil, err
	}

	return t, nil
}

// SetMemo shares a score cache between tournaments or processes.
func (t *Tournament) SetMemo(m *scoring.Memo) {
	t.memo = m
}

// systems resolves the configured variant and scoring systems, filling in
// anything a decoded tournament is missing.
func (t *Tournament) systems() (*systems, error) {
	if t.sys != nil {
		return t.sys, nil
	}
	sys, err := t.Settings.resolve()
	if err != nil {
		return nil, fmt.Errorf("tournament: %w", err)
	}
	if t.History == nil {
		t.History = seeding.NewPairingHistory()
	}
	if t.Biases == nil {
		t.Biases = seeding.NewBiasTable()
	}
	if t.memo == nil {
		t.memo = scoring.NewMemo(nil)
	}
	t.sys = &sys

	return t.sys, nil
}

// Variant is the configured variant. It fails when the settings do not
// resolve, as for a stored tournament edited by hand.
func (t *Tournament) Variant() (diplomacy.Variant, error) {
	sys, err := t.systems()
	if err != nil {
		return diplomacy.Variant{}, err
	}
	return sys.variant, nil
}

func (t *Tournament) Entrant(id seeding.EntrantID) (seeding.Entrant, bool) {
	for _, e := range t.Entrants {
		if e.ID == id {
			return e, true
		}
	}
	return seeding.Entrant{}, false
}

func (t *Tournament) entrantMap() map[seeding.EntrantID]seeding.Entrant {
	ret := make(map[seeding.EntrantID]seeding.Entrant, len(t.Entrants))
	for _, e := range t.Entrants {
		ret[e.ID] = e
	}
	return ret
}

func (t *Tournament) checkEntrant(e seeding.Entrant) error {
	if e.ID == "" {
		return fmt.Errorf("tournament.addEntrant: %q has no id: %w", e.Name,
			ErrInvalidEntrant)
	}
	v, err := t.Variant()
	if err != nil {
		return err
	}
	if e.Preferences != "" {
		if _, err := seeding.ParsePreferences(e.Preferences, v); err != nil {
			return fmt.Errorf("tournament.addEntrant: %v: %w", e.ID, err)
		}
	}
	return nil
}

// AddEntrant registers e. Entrants without an arrival order are ordered by
// registration.
func (t *Tournament) AddEntrant(e seeding.Entrant) error {
	if err := t.checkEntrant(e); err != nil {
		return err
	}
	if _, ok := t.Entrant(e.ID); ok {
		return fmt.Errorf("tournament.addEntrant: %v: %w", e.ID, ErrDuplicateEntrant)
	}
	if e.Arrival == 0 {
		e.Arrival = len(t.Entrants) + 1
	}
	t.Entrants = append(t.Entrants, e)

	return nil
}

// UpdateEntrant replaces the registration of an existing entrant.
func (t *Tournament) UpdateEntrant(e seeding.Entrant) error {
	if err := t.checkEntrant(e); err != nil {
		return err
	}
	for i := range t.Entrants {
		if t.Entrants[i].ID == e.ID {
			if e.Arrival == 0 {
				e.Arrival = t.Entrants[i].Arrival
			}
			t.Entrants[i] = e
			return nil
		}
	}
	return fmt.Errorf("tournament.updateEntrant: %v: %w", e.ID, ErrUnknownEntrant)
}

// MergeEntrants adds new entrants and updates known ones, as when a
// registration list is imported again. It returns how many were added.
func (t *Tournament) MergeEntrants(entrants []seeding.Entrant) (int, error) {
	added := 0
	for _, e := range entrants {
		if _, ok := t.Entrant(e.ID); ok {
			if err := t.UpdateEntrant(e); err != nil {
				return added, err
			}
			continue
		}
		if err := t.AddEntrant(e); err != nil {
			return added, err
		}
		added++
	}

	return added, nil
}

// SetBias records a director weight between two entrants.
func (t *Tournament) SetBias(a, b seeding.EntrantID, weight int) error {
	if _, err := t.systems(); err != nil {
		return err
	}
	for _, id := range []seeding.EntrantID{a, b} {
		if _, ok := t.Entrant(id); !ok {
			return fmt.Errorf("tournament.setBias: %v: %w", id, ErrUnknownEntrant)
		}
	}
	return t.Biases.Add(a, b, weight)
}

func (t *Tournament) round(n int) (*Round, error) {
	if n < 1 || n > len(t.Rounds) {
		return nil, fmt.Errorf("tournament: round %v: %w", n, ErrUnknownRound)
	}
	return t.Rounds[n-1], nil
}

func (t *Tournament) Round(n int) (*Round, error) {
	return t.round(n)
}

// CurrentRound is the latest round with a roll call, or 0.
func (t *Tournament) CurrentRound() int {
	return len(t.Rounds)
}

// RollCall records who is present for round n. It may be repeated until the
// round is seeded. Round n must follow the last round with a roll call.
func (t *Tournament) RollCall(n int, present []seeding.EntrantID) error {
	if _, err := t.systems(); err != nil {
		return err
	}
	if t.Finished {
		return fmt.Errorf("tournament.rollCall: %w", ErrTournamentFinished)
	}
	if n < 1 || n > t.Settings.Rounds || n > len(t.Rounds)+1 {
		return fmt.Errorf("tournament.rollCall: round %v of %v: %w", n,
			t.Settings.Rounds, ErrUnknownRound)
	}
	if n == len(t.Rounds)+1 && n > 1 && !t.Rounds[n-2].Seeded() {
		return fmt.Errorf("tournament.rollCall: round %v not yet seeded: %w", n-1,
			ErrUnknownRound)
	}

	seen := make(map[seeding.EntrantID]bool)
	ids := make([]seeding.EntrantID, 0, len(present))
	for _, id := range present {
		if _, ok := t.Entrant(id); !ok {
			return fmt.Errorf("tournament.rollCall: %v: %w", id, ErrUnknownEntrant)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if n <= len(t.Rounds) {
		r := t.Rounds[n-1]
		if r.Seeded() {
			return fmt.Errorf("tournament.rollCall: round %v already seeded: %w", n,
				seeding.ErrStaleSeedingAttempt)
		}
		r.Present = ids
		return nil
	}
	t.Rounds = append(t.Rounds, &Round{Number: n, Present: ids})

	return nil
}

// attendees splits the roll call of r into players and standbys.
func (t *Tournament) attendees(r *Round) (present, standbys []seeding.Entrant) {
	for _, id := range r.Present {
		e, _ := t.Entrant(id)
		if e.Standby {
			standbys = append(standbys, e)
		} else {
			present = append(present, e)
		}
	}
	seeding.SortByArrival(present)
	seeding.SortByArrival(standbys)

	return present, standbys
}

func (t *Tournament) AttendanceOptions(n int) ([]seeding.AttendanceOption, error) {
	sys, err := t.systems()
	if err != nil {
		return nil, err
	}
	r, err := t.round(n)
	if err != nil {
		return nil, err
	}
	present, standbys := t.attendees(r)
	eligible := 0
	for _, e := range present {
		if e.DoublesEligible {
			eligible++
		}
	}

	return seeding.Reconcile(len(present), eligible, len(standbys),
		sys.variant.BoardSize())
}

// SuggestSelection proposes who fills opt: the latest arrivals sit out,
// the doubles-eligible entrants with fewest games double and standbys are
// called in arrival order.
func (t *Tournament) SuggestSelection(n int,
	opt seeding.AttendanceOption) (seeding.Selection, error) {

	r, err := t.round(n)
	if err != nil {
		return seeding.Selection{}, err
	}
	present, standbys := t.attendees(r)
	if opt.Sitters > len(present) {
		return seeding.Selection{}, fmt.Errorf("tournament.suggestSelection: %v sitters from %v present: %w",
			opt.Sitters, len(present), seeding.ErrInfeasibleAttendance)
	}

	var sel seeding.Selection
	for _, e := range present[len(present)-opt.Sitters:] {
		sel.Sitters = append(sel.Sitters, e.ID)
	}
	if sel.Doublers, err = seeding.SuggestDoublers(opt, present, sel.Sitters,
		t.History); err != nil {
		return seeding.Selection{}, err
	}
	sel.Standbys = seeding.SuggestStandbys(opt, standbys)

	return sel, nil
}

// ProposeSeeding seats round n for the given attendance selection and assigns
// powers. Nothing is recorded until the proposal is committed.
func (t *Tournament) ProposeSeeding(ctx context.Context, n int,
	opt seeding.AttendanceOption, sel seeding.Selection, pins []seeding.Pin,
	seed int64) (*seeding.Proposal, error) {

	sys, err := t.systems()
	if err != nil {
		return nil, err
	}
	r, err := t.round(n)
	if err != nil {
		return nil, err
	}
	if r.Seeded() {
		return nil, fmt.Errorf("tournament.proposeSeeding: round %v already seeded: %w",
			n, seeding.ErrStaleSeedingAttempt)
	}
	present, standbys := t.attendees(r)
	att, err := seeding.Resolve(opt, sel, present, standbys)
	if err != nil {
		return nil, err
	}

	req := seeding.Request{
		Round:   n,
		Playing: att.Playing,
		Pins:    pins,
		Seed:    seed,
	}
	p, err := t.Settings.seeder(*sys).Seed(ctx, req, t.History, t.Biases)
	if err != nil {
		return nil, err
	}
	assigner := &seeding.PowerAssigner{
		Variant:        sys.variant,
		Mode:           sys.assign,
		RandomFallback: t.Settings.RandomFallback,
	}
	if err := assigner.Assign(p, t.entrantMap(), t.History, seed); err != nil {
		return nil, err
	}
	log.Printf("tournament.proposeSeeding: round %v proposal %v: %v boards, %v repeat meetings",
		n, p.ID, len(p.Boards), p.Repeats)

	return p, nil
}

// CommitSeeding records p as the seating of its round and starts its games.
// Only one seating is ever committed per round; a second commit, or one
// computed against an older pairing history, fails with
// seeding.ErrStaleSeedingAttempt.
func (t *Tournament) CommitSeeding(p *seeding.Proposal) error {
	sys, err := t.systems()
	if err != nil {
		return err
	}
	r, err := t.round(p.Round)
	if err != nil {
		return err
	}
	if r.Seeded() {
		return fmt.Errorf("tournament.commitSeeding: round %v already seeded by %v: %w",
			p.Round, r.Seating.ID, seeding.ErrStaleSeedingAttempt)
	}
	here := make(map[seeding.EntrantID]bool)
	for _, id := range r.Present {
		here[id] = true
	}
	seated := make(map[seeding.EntrantID]bool)
	for _, b := range p.Boards {
		for _, s := range b.Seats {
			if !here[s.Entrant] {
				return fmt.Errorf("tournament.commitSeeding: %v not in round %v roll call: %w",
					s.Entrant, p.Round, ErrUnknownEntrant)
			}
			if s.Power == "" {
				return fmt.Errorf("tournament.commitSeeding: %v has no power at board %v: %w",
					s.Entrant, b.Number, seeding.ErrInvalidSeating)
			}
			seated[s.Entrant] = true
		}
	}
	if err := t.History.Commit(p); err != nil {
		return err
	}

	r.Seating = p
	r.Games = make([]*Game, 0, len(p.Boards))
	for _, b := range p.Boards {
		r.Games = append(r.Games, &Game{
			Round: p.Round,
			Board: b.Number,
			Seats: append([]seeding.Seat(nil), b.Seats...),
			State: diplomacy.NewGameState(sys.variant),
		})
	}
	r.SittingOut = nil
	present, _ := t.attendees(r)
	for _, e := range present {
		if !seated[e.ID] {
			r.SittingOut = append(r.SittingOut, e.ID)
		}
	}
	log.Printf("tournament.commitSeeding: round %v committed %v at history version %v",
		p.Round, p.ID, t.History.Version())

	return nil
}

// Game returns the game at board of round.
func (t *Tournament) Game(round, board int) (*Game, error) {
	r, err := t.round(round)
	if err != nil {
		return nil, err
	}
	for _, g := range r.Games {
		if g.Board == board {
			return g, nil
		}
	}
	return nil, fmt.Errorf("tournament: round %v board %v: %w", round, board,
		ErrUnknownGame)
}

func (t *Tournament) Games() []*Game {
	var ret []*Game
	for _, r := range t.Rounds {
		ret = append(ret, r.Games...)
	}
	return ret
}

// RecordCentres appends a centre count to a game.
func (t *Tournament) RecordCentres(round, board int, snap diplomacy.Snapshot) error {
	g, err := t.Game(round, board)
	if err != nil {
		return err
	}
	if err := g.State.AddSnapshot(snap); err != nil {
		return fmt.Errorf("tournament.recordCentres: round %v board %v: %w", round,
			board, err)
	}
	return nil
}

// RecordDrawVote records a draw or concession vote.
func (t *Tournament) RecordDrawVote(round, board int, d diplomacy.DrawProposal) error {
	g, err := t.Game(round, board)
	if err != nil {
		return err
	}
	if err := g.State.AddProposal(d); err != nil {
		return fmt.Errorf("tournament.recordDrawVote: round %v board %v: %w", round,
			board, err)
	}
	return nil
}

func (t *Tournament) RecordElimination(round, board int, p diplomacy.Power,
	year int) error {

	g, err := t.Game(round, board)
	if err != nil {
		return err
	}
	if err := g.State.SetEliminated(p, year); err != nil {
		return fmt.Errorf("tournament.recordElimination: round %v board %v: %w",
			round, board, err)
	}
	return nil
}

// EndGame calls a game that ended without a solo or a passed draw.
func (t *Tournament) EndGame(round, board int) error {
	g, err := t.Game(round, board)
	if err != nil {
		return err
	}
	if err := g.State.End(); err != nil {
		return fmt.Errorf("tournament.endGame: round %v board %v: %w", round, board,
			err)
	}
	return nil
}

// Finish closes the tournament once every game has a result. Handicaps only
// count from then on.
func (t *Tournament) Finish() error {
	for _, g := range t.Games() {
		if !g.State.Finished() {
			return fmt.Errorf("tournament.finish: round %v board %v: %w", g.Round,
				g.Board, ErrGamesInProgress)
		}
	}
	t.Finished = true

	return nil
}

// GameScores scores one game with the configured game system.
func (t *Tournament) GameScores(g *Game) (scoring.GameScores, error) {
	sys, err := t.systems()
	if err != nil {
		return nil, err
	}
	return t.memo.Scores(sys.game, g.State)
}

// GameResult is one game as it counts towards an entrant's score.
type GameResult struct {
	Round   int
	Board   int
	Power   diplomacy.Power
	Centres int
	Score   scoring.Score
}

// EntrantResult is everything that went into one entrant's tournament score.
type EntrantResult struct {
	Entrant seeding.Entrant
	// Games is indexed by position in Rounds
	Games    [][]GameResult
	Rounds   []scoring.RoundRecord
	Result   scoring.TournamentResult
	BestGame float64
}

// Results scores every entrant who has played or sat out a round, in
// registration order.
func (t *Tournament) Results() ([]EntrantResult, error) {
	sys, err := t.systems()
	if err != nil {
		return nil, err
	}

	scores := make(map[*Game]map[diplomacy.Power]scoring.Score)
	seeded := 0
	for _, r := range t.Rounds {
		if !r.Seeded() {
			continue
		}
		seeded++
		for _, g := range r.Games {
			s, err := t.memo.PowerResults(sys.game, g.State)
			if err != nil {
				return nil, fmt.Errorf("tournament.results: round %v board %v: %w",
					g.Round, g.Board, err)
			}
			scores[g] = s
		}
	}
	remaining := t.Settings.Rounds - seeded
	if remaining < 0 {
		remaining = 0
	}

	var ret []EntrantResult
	for _, e := range t.Entrants {
		res := EntrantResult{Entrant: e}
		took := false
		priorSitOuts := 0
		for _, r := range t.Rounds {
			if !r.Seeded() {
				continue
			}
			var games []GameResult
			var gameScores []scoring.Score
			for _, g := range r.Games {
				p, ok := g.PowerOf(e.ID)
				if !ok {
					continue
				}
				s := scores[g][p]
				games = append(games, GameResult{Round: r.Number, Board: g.Board,
					Power: p, Centres: g.State.DotCount(p), Score: s})
				gameScores = append(gameScores, s)
				if !took || s.Value > res.BestGame {
					res.BestGame = s.Value
				}
				took = true
			}
			satOut := contains(r.SittingOut, e.ID)
			entry := scoring.RoundEntry{Games: gameScores, SatOut: satOut,
				PriorSitOuts: priorSitOuts}
			if satOut {
				priorSitOuts++
			}
			res.Games = append(res.Games, games)
			res.Rounds = append(res.Rounds, scoring.RoundRecord{
				Round:  r.Number,
				Result: sys.round.Combine(entry),
				Games:  gameScores,
			})
		}
		if !took && priorSitOuts == 0 {
			continue
		}

		res.Result = sys.tournament.Combine(scoring.TournamentEntry{
			Rounds:          res.Rounds,
			RoundsRemaining: remaining,
			Finished:        t.Finished,
			Handicap:        e.Handicap,
		})
		for i := range res.Games {
			for j := range res.Games[i] {
				res.Games[i][j].Score.Dropped = res.Result.GameDropped[i][j]
			}
			res.Rounds[i].Result.Score.Dropped = res.Result.RoundDropped[i]
		}
		ret = append(ret, res)
	}

	return ret, nil
}

func contains(ids []seeding.EntrantID, id seeding.EntrantID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Standings ranks every scored entrant.
func (t *Tournament) Standings() ([]scoring.Standing, error) {
	results, err := t.Results()
	if err != nil {
		return nil, err
	}
	return rank(results), nil
}

func rank(results []EntrantResult) []scoring.Standing {
	comps := make([]scoring.Competitor, 0, len(results))
	for _, r := range results {
		comps = append(comps, scoring.Competitor{
			ID:       string(r.Entrant.ID),
			Name:     r.Entrant.DisplayName(),
			Unranked: r.Entrant.Unranked,
			Score:    r.Result.Score,
			BestGame: r.BestGame,
		})
	}
	return scoring.Rank(comps)
}

// Export builds the published results. It fails with
// scoring.ErrScoresNotFinal until every score is final.
func (t *Tournament) Export() ([]scoring.ExportRow, error) {
	results, err := t.Results()
	if err != nil {
		return nil, err
	}
	standings := rank(results)
	if err := scoring.CheckFinal(standings); err != nil {
		return nil, fmt.Errorf("tournament.export: %w", err)
	}
	byID := make(map[string]EntrantResult, len(results))
	for _, r := range results {
		byID[string(r.Entrant.ID)] = r
	}

	ret := make([]scoring.ExportRow, 0, len(standings))
	for _, s := range standings {
		row := scoring.ExportRow{
			Place:    s.Place,
			Name:     s.Name,
			Unranked: s.Unranked,
			Score:    s.Score.Value,
			Games:    []scoring.ExportGame{},
		}
		for _, games := range byID[s.ID].Games {
			for _, g := range games {
				row.Games = append(row.Games, scoring.ExportGame{
					Round:   g.Round,
					Board:   g.Board,
					Power:   string(g.Power),
					Centres: g.Centres,
					Score:   g.Score.Value,
					Dropped: g.Score.Dropped,
				})
			}
		}
		ret = append(ret, row)
	}

	return ret, nil
}
