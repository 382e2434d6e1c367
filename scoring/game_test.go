/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
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

func gameAt(t *testing.T, year int, c map[diplomacy.Power]int) *diplomacy.GameState {
	t.Helper()
	g := diplomacy.NewGameState(diplomacy.Standard)
	require.NoError(t, g.AddSnapshot(diplomacy.Snapshot{Year: year,
		Season: diplomacy.Fall, Centres: c}))
	return g
}

// stateWith builds a single snapshot state with known elimination years.
func stateWith(t *testing.T, year int, c map[diplomacy.Power]int,
	eliminated map[diplomacy.Power]int) *diplomacy.GameState {

	t.Helper()
	g := diplomacy.NewGameState(diplomacy.Standard)
	g.Snapshots = []diplomacy.Snapshot{{Year: year, Season: diplomacy.Fall,
		Centres: c}}
	g.Eliminations = eliminated
	require.NoError(t, g.Validate())
	return g
}

// France leads, Germany and Russia tie for second, Austria is out.
func midGame(t *testing.T) *diplomacy.GameState {
	return gameAt(t, 1905, centres(0, 4, 10, 6, 4, 6, 4))
}

func mustSystem(t *testing.T, name string) GameSystem {
	t.Helper()
	sys, err := GameSystemNamed(name)
	require.NoError(t, err)
	return sys
}

func TestSoloScoresOnlySoloer(t *testing.T) {
	g := gameAt(t, 1907, centres(2, 3, 18, 3, 2, 4, 2))
	results, err := PowerResults(Detour09(), g)
	require.NoError(t, err)

	assert.Equal(t, Score{Value: 110, Final: true}, results[diplomacy.France])
	for _, p := range g.Powers() {
		if p == diplomacy.France {
			continue
		}
		assert.Equal(t, Score{Value: 0, Final: true}, results[p], "power %v", p)
	}
}

func TestGameSystems(t *testing.T) {
	tests := []struct {
		system string
		want   map[diplomacy.Power]float64
	}{
		{
			system: "Sum of Squares",
			want: map[diplomacy.Power]float64{
				diplomacy.Austria: 0,
				diplomacy.France:  100 * 100.0 / 220,
				diplomacy.Germany: 100 * 36.0 / 220,
				diplomacy.England: 100 * 16.0 / 220,
			},
		},
		{
			system: "Carnage with dead equal",
			want: map[diplomacy.Power]float64{
				diplomacy.France:  7010,
				diplomacy.Germany: 5506,
				diplomacy.Russia:  5506,
				diplomacy.England: 3004,
				diplomacy.Turkey:  3004,
				diplomacy.Austria: 1000,
			},
		},
		{
			system: "CDiplo 100",
			want: map[diplomacy.Power]float64{
				diplomacy.France:  49,
				diplomacy.Germany: 17.5,
				diplomacy.England: 5,
				diplomacy.Austria: 1,
			},
		},
		{
			system: "World Classic",
			want: map[diplomacy.Power]float64{
				diplomacy.France:  178,
				diplomacy.Germany: 90,
				diplomacy.Austria: 4,
			},
		},
		{
			system: "Tribute",
			want: map[diplomacy.Power]float64{
				diplomacy.France:  41,
				diplomacy.Germany: 13,
				diplomacy.England: 11,
				diplomacy.Austria: 0,
			},
		},
		{
			system: "Solo or bust",
			want: map[diplomacy.Power]float64{
				diplomacy.France: 0,
			},
		},
		{
			system: "Base 3",
			want: map[diplomacy.Power]float64{
				diplomacy.Austria: 0,
				diplomacy.England: 7,
				diplomacy.France:  22,
				diplomacy.Germany: 9,
			},
		},
		{
			system: "OpenTribute",
			want: map[diplomacy.Power]float64{
				diplomacy.Austria: 0,
				diplomacy.England: 40,
				diplomacy.France:  100,
				diplomacy.Germany: 48,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.system, func(t *testing.T) {
			scores, err := mustSystem(t, tc.system).Scores(midGame(t))
			require.NoError(t, err)
			require.Len(t, scores, 7)
			for p, want := range tc.want {
				assert.InDelta(t, want, scores.Of(p), 1e-9, "power %v", p)
			}
		})
	}
}

func TestScoresOrdering(t *testing.T) {
	scores, err := mustSystem(t, "Carnage with dead equal").Scores(midGame(t))
	require.NoError(t, err)

	var got []diplomacy.Power
	for _, s := range scores {
		got = append(got, s.Power)
	}
	want := []diplomacy.Power{diplomacy.France, diplomacy.Germany, diplomacy.Russia,
		diplomacy.England, diplomacy.Italy, diplomacy.Turkey, diplomacy.Austria}
	assert.Equal(t, want, got)
}

func TestDrawSizeSharesPassedDraw(t *testing.T) {
	g := midGame(t)
	require.NoError(t, g.AddProposal(diplomacy.DrawProposal{Year: 1905,
		Season: diplomacy.Fall, Powers: []diplomacy.Power{diplomacy.France,
			diplomacy.Germany, diplomacy.Russia}, VotesFor: 6, Passed: true}))

	results, err := PowerResults(DrawSize(), g)
	require.NoError(t, err)
	assert.InDelta(t, 100.0/3, results[diplomacy.Russia].Value, 1e-9)
	assert.True(t, results[diplomacy.Russia].Final)
	assert.Zero(t, results[diplomacy.England].Value)
}

func TestPowerResultsFinality(t *testing.T) {
	g := midGame(t)

	results, err := PowerResults(SoloOrBust(), g)
	require.NoError(t, err)
	assert.True(t, results[diplomacy.Austria].Final, "eliminated power")
	assert.False(t, results[diplomacy.France].Final, "surviving power")

	// eliminated scores still move under Carnage
	results, err = PowerResults(mustSystem(t, "Carnage with elimination order"), g)
	require.NoError(t, err)
	assert.False(t, results[diplomacy.Austria].Final)

	require.NoError(t, g.End())
	results, err = PowerResults(SoloOrBust(), g)
	require.NoError(t, err)
	assert.True(t, results[diplomacy.France].Final)
}

func TestScoresRejectInvalidState(t *testing.T) {
	g := diplomacy.NewGameState(diplomacy.Standard)
	g.Snapshots = append(g.Snapshots, diplomacy.Snapshot{Year: 1901,
		Season: diplomacy.Fall, Centres: centres(9, 9, 9, 9, 9, 9, 9)})

	for _, sys := range GameSystems() {
		_, err := sys.Scores(g)
		if !errors.Is(err, diplomacy.ErrInvalidGameState) {
			t.Errorf("%v: got %v want %v", sys.Name(), err,
				diplomacy.ErrInvalidGameState)
		}
	}
}

func TestEverySystemScoresEveryPower(t *testing.T) {
	solo := gameAt(t, 1910, centres(0, 2, 18, 5, 3, 4, 2))
	for _, sys := range GameSystems() {
		t.Run(sys.Name(), func(t *testing.T) {
			assert.NotEmpty(t, sys.Description())
			for _, g := range []*diplomacy.GameState{midGame(t), solo} {
				scores, err := sys.Scores(g)
				require.NoError(t, err)
				assert.Len(t, scores, 7)
				for _, s := range scores {
					assert.GreaterOrEqual(t, s.Score, 0.0, "power %v", s.Power)
				}
			}
			scores, err := sys.Scores(solo)
			require.NoError(t, err)
			assert.Equal(t, diplomacy.France, scores[0].Power)
		})
	}
}

func TestGameSystemNamed(t *testing.T) {
	sys, err := GameSystemNamed("sum of squares")
	require.NoError(t, err)
	assert.Equal(t, "Sum of Squares", sys.Name())

	_, err = GameSystemNamed("Calhamer points")
	assert.ErrorIs(t, err, ErrUnknownSystem)
}

func wantScores(a, e, f, g, i, r, t float64) map[diplomacy.Power]float64 {
	return map[diplomacy.Power]float64{
		diplomacy.Austria: a, diplomacy.England: e, diplomacy.France: f,
		diplomacy.Germany: g, diplomacy.Italy: i, diplomacy.Russia: r,
		diplomacy.Turkey: t,
	}
}

func TestGameSystemExamples(t *testing.T) {
	type elim = map[diplomacy.Power]int
	const (
		A = diplomacy.Austria
		F = diplomacy.France
		I = diplomacy.Italy
		R = diplomacy.Russia
		T = diplomacy.Turkey
	)
	tests := []struct {
		name       string
		system     string
		year       int
		centres    map[diplomacy.Power]int
		eliminated elim
		want       map[diplomacy.Power]float64
	}{
		{"three way top", "Base 3", 1902, centres(4, 4, 4, 6, 4, 6, 6), nil,
			wantScores(7, 7, 7, 10, 7, 10, 10)},
		{"shared top", "OpenTribute", 1904, centres(0, 4, 4, 8, 4, 6, 8),
			elim{A: 1904}, wantScores(0, 42, 42, 63, 42, 50, 63)},
		{"solo", "OpenTribute", 1907, centres(0, 4, 0, 18, 0, 5, 7),
			elim{A: 1904, F: 1906, I: 1906}, wantScores(0, 0, 0, 340, 0, 0, 0)},

		{"tied top", "C-Diplo Namur", 1904, centres(0, 5, 4, 8, 4, 5, 8),
			elim{A: 1904}, wantScores(1, 20.5, 15, 47, 15, 20.5, 47)},
		{"sole top", "C-Diplo Namur", 1905, centres(0, 5, 3, 13, 3, 4, 6),
			elim{A: 1904}, wantScores(1, 24, 13, 64, 13, 15, 33)},
		{"three eliminated", "C-Diplo Namur", 1906, centres(0, 5, 0, 17, 0, 5, 7),
			elim{A: 1904, F: 1906, I: 1906}, wantScores(1, 20.5, 1, 68, 1, 20.5, 34)},
		{"three way top", "C-Diplo Namur", 1902, centres(4, 4, 4, 6, 4, 6, 6), nil,
			wantScores(15, 15, 15, 1+18+59.0/3, 15, 1+18+59.0/3, 1+18+59.0/3)},
		{"solo", "C-Diplo Namur", 1907, centres(0, 4, 0, 18, 0, 5, 7),
			elim{A: 1904, F: 1906, I: 1906}, wantScores(0, 0, 0, 85, 0, 0, 0)},

		{"no solo 1", "Haight v1.0", 1908, centres(0, 10, 9, 8, 5, 0, 2),
			elim{A: 1904, R: 1908}, wantScores(4, 171, 145, 124, 83, 8+11, 42)},
		{"no solo 2", "Haight v1.0", 1908, centres(0, 17, 0, 10, 4, 0, 3),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(4, 271, 8+11, 155, 84, 8+11, 63)},
		{"no solo 3", "Haight v1.0", 1908, centres(0, 11, 0, 11, 11, 0, 1),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(4, 154, 8+11, 154, 154, 8+11, 43)},
		{"no solo 4", "Haight v1.0", 1908, centres(0, 12, 0, 11, 11, 0, 0),
			elim{A: 1904, F: 1908, R: 1907, T: 1907},
			wantScores(4, 191, 8+33, 154, 154, 7+11, 7+11)},
		{"no solo 5", "Haight v1.0", 1908, centres(0, 12, 0, 10, 10, 0, 2),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(4, 196, 8+11, 144, 144, 8+11, 53)},
		{"solo", "Haight v1.0", 1911, centres(0, 18, 0, 10, 4, 0, 2),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(4, 451, 8, 50, 20, 8, 11)},

		{"no solo", "OMG", 1901, centres(5, 4, 5, 5, 4, 5, 4), nil,
			wantScores(7.5+9+2.25, 6+9, 7.5+9+2.25, 7.5+9+2.25, 6+9, 7.5+9+2.25, 6+9)},
		{"tied top", "OMG", 1904, centres(0, 5, 4, 8, 4, 5, 8), elim{A: 1904},
			wantScores(0, 7.5+9+0.75, 6+9, 12+9+3.75, 6+9, 7.5+9+0.75, 12+9+3.75)},
		{"sole top", "OMG", 1905, centres(0, 5, 3, 13, 3, 4, 6), elim{A: 1904},
			wantScores(0, 7.5+9+1.5-7, 13.5/2, 19.5+9+4.5+21+13.5, 13.5/2, 6+9-7,
				9+9+3-7)},
		{"capped tribute", "OMG", 1906, centres(0, 5, 0, 17, 0, 5, 7),
			elim{A: 1904, F: 1906, I: 1906},
			wantScores(0, 17.25/2, 0, 25.5+9+4.5+10+17.25, 0, 17.25/2, 10.5+9+3-10)},
		{"solo", "OMG", 1907, centres(0, 4, 0, 18, 0, 5, 7),
			elim{A: 1904, F: 1906, I: 1906}, wantScores(0, 0, 0, 100, 0, 0, 0)},

		{"no solo 1", "Ranked Classic", 1908, centres(0, 10, 9, 8, 5, 0, 2),
			elim{A: 1904, R: 1908}, wantScores(3, 330, 210, 170, 120, 7, 80)},
		{"no solo 2", "Ranked Classic", 1908, centres(0, 17, 0, 10, 4, 0, 3),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(3, 400, 7, 220, 130, 7, 100)},
		{"three way tie", "Ranked Classic", 1908, centres(0, 11, 0, 11, 11, 0, 1),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(3, 200, 7, 200, 200, 7, 80)},
		{"two way tie", "Ranked Classic", 1908, centres(0, 12, 0, 11, 11, 0, 0),
			elim{A: 1904, F: 1908, R: 1907, T: 1907}, wantScores(3, 350, 7, 210, 210, 6, 6)},
		{"two way tie behind", "Ranked Classic", 1908, centres(0, 12, 0, 10, 10, 0, 2),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(3, 350, 7, 200, 200, 7, 90)},
		{"solo", "Ranked Classic", 1911, centres(0, 18, 0, 10, 4, 0, 2),
			elim{A: 1904, F: 1908, R: 1908}, wantScores(3, 550, 7, 10, 10, 7, 10)},

		{"no solo 1", "Southern Sun", 1909, centres(15, 14, 4, 1, 0, 0, 0),
			elim{I: 1902, R: 1904, T: 1907}, wantScores(310, 250, 120, 70, 6, 12, 21)},
		{"no solo 2", "Southern Sun", 1909, centres(12, 11, 5, 5, 1, 0, 0),
			elim{R: 1903, T: 1906}, wantScores(280, 220, 120, 120, 60, 9, 18)},
		{"no solo 3", "Southern Sun", 1909, centres(11, 10, 7, 3, 2, 1, 0),
			elim{T: 1904}, wantScores(270, 210, 150, 90, 70, 50, 12)},
		{"no solo 4", "Southern Sun", 1909, centres(10, 9, 5, 5, 4, 1, 0),
			elim{T: 1907}, wantScores(260, 200, 120, 120, 90, 50, 21)},
		{"no solo 5", "Southern Sun", 1909, centres(8, 7, 6, 6, 3, 3, 1), nil,
			wantScores(240, 180, 130, 130, 75, 75, 50)},
		{"three way top", "Southern Sun", 1909, centres(11, 11, 11, 1, 0, 0, 0),
			elim{I: 1904, R: 1909, T: 1903}, wantScores(227, 227, 227, 70, 12, 27, 9)},
		{"two survivors", "Southern Sun", 1909, centres(17, 17, 0, 0, 0, 0, 0),
			elim{F: 1903, diplomacy.Germany: 1906, I: 1904, R: 1909, T: 1903},
			wantScores(305, 305, 9, 18, 12, 27, 9)},
		{"solo", "Southern Sun", 1910, centres(0, 4, 0, 18, 0, 5, 7),
			elim{A: 1904, F: 1909, I: 1909}, wantScores(0, 0, 0, 500, 0, 0, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.system+"/"+tc.name, func(t *testing.T) {
			g := stateWith(t, tc.year, tc.centres, tc.eliminated)
			scores, err := mustSystem(t, tc.system).Scores(g)
			require.NoError(t, err)
			require.Len(t, scores, 7)
			for p, want := range tc.want {
				got := scores.Of(p)
				if math.Abs(got-want) > 1e-9 {
					t.Errorf("%v: got %v want %v", p, got, want)
				}
			}
		})
	}
}

func TestFinalScoresNeverChange(t *testing.T) {
	fall := func(year int, c map[diplomacy.Power]int) diplomacy.Snapshot {
		return diplomacy.Snapshot{Year: year, Season: diplomacy.Fall, Centres: c}
	}
	sequences := map[string][]diplomacy.Snapshot{
		"down to two": {
			fall(1905, centres(0, 0, 17, 16, 0, 0, 1)),
			fall(1906, centres(0, 0, 17, 17, 0, 0, 0)),
		},
		"solo": {
			fall(1905, centres(0, 4, 10, 6, 4, 6, 4)),
			fall(1906, centres(0, 0, 12, 7, 5, 6, 4)),
			fall(1907, centres(0, 0, 18, 7, 3, 6, 0)),
		},
	}

	for _, sys := range GameSystems() {
		for name, snaps := range sequences {
			t.Run(sys.Name()+"/"+name, func(t *testing.T) {
				g := diplomacy.NewGameState(diplomacy.Standard)
				var prev map[diplomacy.Power]Score
				for _, s := range snaps {
					require.NoError(t, g.AddSnapshot(s))
					results, err := PowerResults(sys, g)
					require.NoError(t, err)
					for p, was := range prev {
						if !was.Final {
							continue
						}
						now := results[p]
						if !now.Final || math.Abs(now.Value-was.Value) > 1e-9 {
							t.Errorf("%v in %v: final at %v, later %+v", p, s.Year,
								was.Value, now)
						}
					}
					prev = results
				}
			})
		}
	}
}
