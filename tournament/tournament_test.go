/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package tournament

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
	"github.com/mikeb26/diplomacy-tdbot/scoring"
	"github.com/mikeb26/diplomacy-tdbot/seeding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func centres(a, e, f, g, i, r, t int) map[diplomacy.Power]int {
	return map[diplomacy.Power]int{
		diplomacy.Austria: a, diplomacy.England: e, diplomacy.France: f,
		diplomacy.Germany: g, diplomacy.Italy: i, diplomacy.Russia: r,
		diplomacy.Turkey: t,
	}
}

func testSettings() Settings {
	s := DefaultSettings()
	s.Name = "Test Open"
	s.Rounds = 2
	s.Seeder.Starts = 2
	s.Seeder.Iterations = 300
	return s
}

func newTournament(t *testing.T, s Settings, n int) (*Tournament, []seeding.EntrantID) {
	t.Helper()
	tour, err := New(s)
	require.NoError(t, err)
	var ids []seeding.EntrantID
	for i := 1; i <= n; i++ {
		id := seeding.EntrantID(fmt.Sprintf("e%02d", i))
		require.NoError(t, tour.AddEntrant(seeding.Entrant{ID: id,
			Name: fmt.Sprintf("Player %02d", i), DoublesEligible: true}))
		ids = append(ids, id)
	}
	return tour, ids
}

// seedRound runs the roll call and commits the first listed option with the
// suggested selection.
func seedRound(t *testing.T, tour *Tournament, n int, present []seeding.EntrantID,
	seed int64) *seeding.Proposal {

	t.Helper()
	require.NoError(t, tour.RollCall(n, present))
	opts, err := tour.AttendanceOptions(n)
	require.NoError(t, err)
	sel, err := tour.SuggestSelection(n, opts[0])
	require.NoError(t, err)
	p, err := tour.ProposeSeeding(context.Background(), n, opts[0], sel, nil, seed)
	require.NoError(t, err)
	require.NoError(t, tour.CommitSeeding(p))
	return p
}

func entrantWith(t *testing.T, g *Game, p diplomacy.Power) seeding.EntrantID {
	t.Helper()
	for _, s := range g.Seats {
		if s.Power == p {
			return s.Entrant
		}
	}
	t.Fatalf("nobody plays %v at board %v", p, g.Board)
	return ""
}

func TestTournamentFlow(t *testing.T) {
	tour, ids := newTournament(t, testSettings(), 14)

	p := seedRound(t, tour, 1, ids, 42)
	require.Len(t, p.Boards, 2)
	for _, b := range p.Boards {
		powers := make(map[diplomacy.Power]bool)
		for _, s := range b.Seats {
			powers[s.Power] = true
		}
		assert.Len(t, powers, 7, "board %v", b.Number)
	}
	assert.Equal(t, 1, tour.History.Version())
	assert.ErrorIs(t, tour.CommitSeeding(p), seeding.ErrStaleSeedingAttempt)

	// board 1 ends in a French solo, board 2 is still going
	g1, err := tour.Game(1, 1)
	require.NoError(t, err)
	soloer := entrantWith(t, g1, diplomacy.France)
	require.NoError(t, tour.RecordCentres(1, 1, diplomacy.Snapshot{Year: 1907,
		Season: diplomacy.Fall, Centres: centres(2, 3, 18, 3, 2, 4, 2)}))
	require.NoError(t, tour.RecordCentres(1, 2, diplomacy.Snapshot{Year: 1905,
		Season: diplomacy.Fall, Centres: centres(0, 4, 10, 6, 4, 6, 4)}))
	assert.ErrorIs(t, tour.RecordCentres(1, 1, diplomacy.Snapshot{Year: 1908,
		Season: diplomacy.Fall, Centres: centres(2, 3, 18, 3, 2, 4, 2)}),
		diplomacy.ErrGameSealed)
	_, err = tour.Game(1, 3)
	assert.ErrorIs(t, err, ErrUnknownGame)

	standings, err := tour.Standings()
	require.NoError(t, err)
	require.Len(t, standings, 14)
	assert.Equal(t, string(soloer), standings[0].ID)
	assert.Equal(t, 1, standings[0].Place)
	assert.Equal(t, 100.0, standings[0].Score.Value)
	assert.False(t, standings[0].Score.Final, "a round remains")

	_, err = tour.Export()
	assert.ErrorIs(t, err, scoring.ErrScoresNotFinal)
	assert.ErrorIs(t, tour.Finish(), ErrGamesInProgress)

	require.NoError(t, tour.EndGame(1, 2))
	seedRound(t, tour, 2, ids, 7)
	for _, g := range tour.Rounds[1].Games {
		require.NoError(t, tour.RecordCentres(2, g.Board, diplomacy.Snapshot{
			Year: 1904, Season: diplomacy.Fall, Centres: centres(4, 5, 5, 5, 5, 5, 5)}))
		require.NoError(t, tour.EndGame(2, g.Board))
	}
	require.NoError(t, tour.Finish())
	assert.ErrorIs(t, tour.RollCall(2, ids), ErrTournamentFinished)

	rows, err := tour.Export()
	require.NoError(t, err)
	require.Len(t, rows, 14)
	assert.Equal(t, 1, rows[0].Place)
	assert.Equal(t, "Player "+strings.TrimPrefix(string(soloer), "e"), rows[0].Name)
	second := 25.0
	for _, g := range tour.Rounds[1].Games {
		if p, ok := g.PowerOf(soloer); ok && p == diplomacy.Austria {
			second = 16
		}
	}
	assert.InDelta(t, 100+100*second/166, rows[0].Score, 1e-9)
	assert.Len(t, rows[0].Games, 2)
	for _, r := range rows {
		assert.NotZero(t, r.Place)
	}
}

func TestRollCallOrder(t *testing.T) {
	tour, ids := newTournament(t, testSettings(), 7)

	assert.ErrorIs(t, tour.RollCall(2, ids), ErrUnknownRound)
	assert.ErrorIs(t, tour.RollCall(1, []seeding.EntrantID{"nobody"}), ErrUnknownEntrant)
	require.NoError(t, tour.RollCall(1, ids[:3]))
	require.NoError(t, tour.RollCall(1, append(ids, ids[0])))
	r, err := tour.Round(1)
	require.NoError(t, err)
	assert.Len(t, r.Present, 7)
	assert.ErrorIs(t, tour.RollCall(2, ids), ErrUnknownRound, "round 1 not seeded")
	assert.ErrorIs(t, tour.RollCall(3, ids), ErrUnknownRound)
}

func TestStaleProposal(t *testing.T) {
	tour, ids := newTournament(t, testSettings(), 7)
	require.NoError(t, tour.RollCall(1, ids))
	opts, err := tour.AttendanceOptions(1)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := tour.ProposeSeeding(ctx, 1, opts[0], seeding.Selection{}, nil, 1)
	require.NoError(t, err)
	second, err := tour.ProposeSeeding(ctx, 1, opts[0], seeding.Selection{}, nil, 2)
	require.NoError(t, err)

	require.NoError(t, tour.CommitSeeding(second))
	assert.ErrorIs(t, tour.CommitSeeding(first), seeding.ErrStaleSeedingAttempt)
	assert.Equal(t, second.ID, tour.Rounds[0].Seating.ID)
	_, err = tour.ProposeSeeding(ctx, 1, opts[0], seeding.Selection{}, nil, 3)
	assert.ErrorIs(t, err, seeding.ErrStaleSeedingAttempt)
}

func TestSittersGetBonus(t *testing.T) {
	s := testSettings()
	s.RoundSystem = "Best game counts. Sitters get 4005"
	tour, ids := newTournament(t, s, 12)
	require.NoError(t, tour.UpdateEntrant(seeding.Entrant{ID: ids[10], Standby: true}))
	require.NoError(t, tour.UpdateEntrant(seeding.Entrant{ID: ids[11], Standby: true}))
	require.NoError(t, tour.RollCall(1, ids))

	opts, err := tour.AttendanceOptions(1)
	require.NoError(t, err)
	var opt seeding.AttendanceOption
	found := false
	for _, o := range opts {
		if o.Sitters == 3 && o.Doubles == 0 && o.StandbysUsed == 0 {
			opt, found = o, true
		}
	}
	require.True(t, found, "options %v", opts)

	sel, err := tour.SuggestSelection(1, opt)
	require.NoError(t, err)
	assert.Equal(t, []seeding.EntrantID{"e08", "e09", "e10"}, sel.Sitters)
	p, err := tour.ProposeSeeding(context.Background(), 1, opt, sel, nil, 5)
	require.NoError(t, err)
	require.NoError(t, tour.CommitSeeding(p))
	assert.Equal(t, sel.Sitters, tour.Rounds[0].SittingOut)

	results, err := tour.Results()
	require.NoError(t, err)
	assert.Len(t, results, 10, "unused standbys are not scored")
	for _, r := range results {
		if contains(sel.Sitters, r.Entrant.ID) {
			assert.Equal(t, 4005.0, r.Rounds[0].Result.Score.Value)
			assert.True(t, r.Rounds[0].Result.Score.Final)
		}
	}
}

func TestAddEntrantValidation(t *testing.T) {
	tour, _ := newTournament(t, testSettings(), 1)

	assert.ErrorIs(t, tour.AddEntrant(seeding.Entrant{ID: "e01"}), ErrDuplicateEntrant)
	assert.ErrorIs(t, tour.AddEntrant(seeding.Entrant{Name: "no id"}), ErrInvalidEntrant)
	assert.ErrorIs(t, tour.AddEntrant(seeding.Entrant{ID: "x", Preferences: "FFX"}),
		seeding.ErrInvalidPreferences)
	assert.ErrorIs(t, tour.SetBias("e01", "x", 5), ErrUnknownEntrant)

	added, err := tour.MergeEntrants([]seeding.Entrant{
		{ID: "e01", Name: "Renamed"},
		{ID: "e02", Name: "New"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	e, _ := tour.Entrant("e01")
	assert.Equal(t, "Renamed", e.Name)
	assert.Equal(t, 1, e.Arrival)
	e, _ = tour.Entrant("e02")
	assert.Equal(t, 2, e.Arrival)
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"game system", func(s *Settings) { s.GameSystem = "Calhamer points" }},
		{"round system", func(s *Settings) { s.RoundSystem = "nope" }},
		{"tournament system", func(s *Settings) { s.TournamentSystem = "nope" }},
		{"variant", func(s *Settings) { s.Variant = "Ancient Med" }},
		{"assignment", func(s *Settings) { s.PowerAssignment = "auction" }},
		{"budget", func(s *Settings) { s.Seeder.Budget = "soon" }},
		{"rounds", func(s *Settings) { s.Rounds = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(&s)
			_, err := New(s)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tour, ids := newTournament(t, testSettings(), 7)
	seedRound(t, tour, 1, ids, 3)
	require.NoError(t, tour.RecordCentres(1, 1, diplomacy.Snapshot{Year: 1901,
		Season: diplomacy.Fall, Centres: centres(4, 4, 5, 5, 4, 5, 4)}))

	data, err := json.Marshal(tour)
	require.NoError(t, err)
	var back Tournament
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, tour.History.Version(), back.History.Version())
	g, err := back.Game(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, g.State.DotCount(diplomacy.France))

	want, err := tour.Standings()
	require.NoError(t, err)
	got, err := back.Standings()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOutputs(t *testing.T) {
	tour, ids := newTournament(t, testSettings(), 7)
	assert.Contains(t, BuildStandingsOutput(tour), "before the first round")

	p := seedRound(t, tour, 1, ids, 3)
	out := BuildSeatingOutput(tour, p)
	assert.Contains(t, out, "Board 1")
	assert.Contains(t, out, "Austria-Hungary")
	assert.Contains(t, out, "Player 07")

	g, err := tour.Game(1, 1)
	require.NoError(t, err)
	assert.Contains(t, BuildGameOutput(tour, g), "in progress")

	out = BuildStandingsOutput(tour)
	assert.Contains(t, out, "Standings after round 1")
	assert.Contains(t, out, "R1")

	opts, err := seeding.Reconcile(10, 10, 2, 7)
	require.NoError(t, err)
	out = BuildOptionsOutput(1, opts)
	assert.Contains(t, out, "Sitting out")
	assert.Equal(t, len(opts)+3, strings.Count(out, "\n"))
}

func TestAttendanceOptionsNeedEligibleDoublers(t *testing.T) {
	tour, ids := newTournament(t, testSettings(), 12)
	for i, id := range ids[1:] {
		require.NoError(t, tour.UpdateEntrant(seeding.Entrant{ID: id,
			Name: fmt.Sprintf("Player %02d", i+2)}))
	}
	require.NoError(t, tour.RollCall(1, ids))

	opts, err := tour.AttendanceOptions(1)
	require.NoError(t, err)
	assert.Contains(t, opts, seeding.AttendanceOption{Sitters: 5, Boards: 1})
	for _, o := range opts {
		if o.Doubles > 1 {
			t.Errorf("got %v with one entrant able to double", o)
		}
	}

	require.NoError(t, tour.UpdateEntrant(seeding.Entrant{ID: ids[1],
		Name: "Player 02", DoublesEligible: true}))
	opts, err = tour.AttendanceOptions(1)
	require.NoError(t, err)
	assert.Contains(t, opts, seeding.AttendanceOption{Doubles: 2, Boards: 2})
}

func TestUnresolvableVariant(t *testing.T) {
	s := testSettings()
	s.Variant = "Ancient Med"
	tour := &Tournament{Settings: s}

	_, err := tour.Variant()
	assert.ErrorIs(t, err, ErrInvalidSettings)
	err = tour.AddEntrant(seeding.Entrant{ID: "x", Name: "X", Preferences: "FGIRT"})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Empty(t, tour.Entrants)
	err = tour.UpdateEntrant(seeding.Entrant{ID: "x", Name: "X"})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}
