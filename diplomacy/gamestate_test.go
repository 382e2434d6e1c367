/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package diplomacy

import (
	"errors"
	"testing"
)

func centres(a, e, f, g, i, r, t int) map[Power]int {
	return map[Power]int{
		Austria: a, England: e, France: f, Germany: g, Italy: i, Russia: r,
		Turkey: t,
	}
}

func TestAddSnapshotValidation(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want error
	}{
		{
			name: "valid",
			snap: Snapshot{Year: 1901, Season: Fall, Centres: centres(5, 4, 5, 5, 4, 6, 4)},
		},
		{
			name: "too many centres",
			snap: Snapshot{Year: 1901, Season: Fall, Centres: centres(5, 5, 5, 5, 5, 5, 5)},
			want: ErrInvalidGameState,
		},
		{
			name: "missing power",
			snap: Snapshot{Year: 1901, Season: Fall, Centres: map[Power]int{Austria: 3}},
			want: ErrInvalidGameState,
		},
		{
			name: "unknown power",
			snap: Snapshot{Year: 1901, Season: Fall,
				Centres: map[Power]int{Austria: 3, England: 3, France: 3, Germany: 3,
					Italy: 3, Russia: 4, Turkey: 3, "X": 1}},
			want: ErrInvalidGameState,
		},
		{
			name: "before first year",
			snap: Snapshot{Year: 1900, Season: Fall, Centres: centres(3, 3, 3, 3, 3, 4, 3)},
			want: ErrInvalidGameState,
		},
		{
			name: "negative count",
			snap: Snapshot{Year: 1901, Season: Fall, Centres: centres(-1, 3, 3, 3, 3, 4, 3)},
			want: ErrInvalidGameState,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGameState(Standard)
			err := g.AddSnapshot(tc.snap)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v want %v", err, tc.want)
			}
			if tc.want != nil && len(g.Snapshots) != 0 {
				t.Errorf("invalid snapshot was kept")
			}
		})
	}
}

func TestSnapshotsOutOfOrder(t *testing.T) {
	g := NewGameState(Standard)
	if err := g.AddSnapshot(Snapshot{Year: 1902, Season: Fall, Centres: centres(4, 4, 5, 5, 4, 6, 4)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := g.AddSnapshot(Snapshot{Year: 1901, Season: Fall, Centres: centres(4, 4, 5, 5, 4, 6, 4)})
	if !errors.Is(err, ErrInvalidGameState) {
		t.Fatalf("got %v want %v", err, ErrInvalidGameState)
	}
}

func TestSoloSealsGame(t *testing.T) {
	g := NewGameState(Standard)
	if err := g.AddSnapshot(Snapshot{Year: 1907, Season: Fall, Centres: centres(0, 4, 18, 5, 0, 4, 3)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := g.Soloer()
	if !ok || p != France {
		t.Fatalf("got soloer %v want %v", p, France)
	}
	if g.SoloYear() != 1907 {
		t.Errorf("got solo year %v want 1907", g.SoloYear())
	}
	if !g.Finished() {
		t.Errorf("soloed game not finished")
	}
	err := g.AddSnapshot(Snapshot{Year: 1908, Season: Fall, Centres: centres(0, 4, 18, 5, 0, 4, 3)})
	if !errors.Is(err, ErrGameSealed) {
		t.Errorf("got %v want %v", err, ErrGameSealed)
	}
}

func TestConcessionAndDraw(t *testing.T) {
	g := NewGameState(Standard)
	_ = g.AddSnapshot(Snapshot{Year: 1905, Season: Fall, Centres: centres(0, 6, 10, 6, 0, 8, 4)})
	err := g.AddProposal(DrawProposal{Year: 1906, Season: Spring, Proposer: England,
		Powers: []Power{France, Russia}, VotesFor: 3, VotesAgainst: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Finished() {
		t.Fatalf("failed vote finished the game")
	}
	err = g.AddProposal(DrawProposal{Year: 1906, Season: Fall, Proposer: England,
		Powers: []Power{Russia, France}, VotesFor: 5, Passed: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := g.Outcome()
	if out.Kind != Draw {
		t.Fatalf("got %v want %v", out.Kind, Draw)
	}
	in := g.PowersInDraw()
	if len(in) != 2 || in[0] != France || in[1] != Russia {
		t.Errorf("got %v want [F R]", in)
	}

	g2 := NewGameState(Standard)
	_ = g2.AddSnapshot(Snapshot{Year: 1905, Season: Fall, Centres: centres(0, 6, 10, 6, 0, 8, 4)})
	err = g2.AddProposal(DrawProposal{Year: 1905, Season: Fall, Powers: []Power{Austria},
		Passed: true})
	if !errors.Is(err, ErrInvalidGameState) {
		t.Errorf("concession to an eliminated power: got %v want %v", err,
			ErrInvalidGameState)
	}
	if err := g2.AddProposal(DrawProposal{Year: 1905, Season: Fall,
		Powers: []Power{France}, Passed: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p, ok := g2.Soloer(); !ok || p != France {
		t.Errorf("got %v want concession to %v", p, France)
	}
}

func TestEliminationYears(t *testing.T) {
	g := NewGameState(Standard)
	_ = g.AddSnapshot(Snapshot{Year: 1903, Season: Fall, Centres: centres(0, 5, 7, 6, 3, 7, 6)})
	_ = g.AddSnapshot(Snapshot{Year: 1904, Season: Fall, Centres: centres(0, 5, 8, 6, 0, 8, 7)})

	year, ok := g.YearEliminated(Austria)
	if !ok || year != 1903 {
		t.Errorf("got %v,%v want 1903", year, ok)
	}
	if err := g.SetEliminated(Italy, 1902); !errors.Is(err, ErrInvalidGameState) {
		t.Errorf("got %v want %v", err, ErrInvalidGameState)
	}
	if err := g.SetEliminated(Italy, 1904); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := g.YearEliminated(France); ok {
		t.Errorf("live power reported eliminated")
	}
	c, err := g.DotCountIn(Russia, 1903)
	if err != nil || c != 7 {
		t.Errorf("got %v,%v want 7", c, err)
	}
	c, err = g.DotCountIn(Russia, 1900)
	if err != nil || c != 4 {
		t.Errorf("got %v,%v want 4", c, err)
	}
	if _, err = g.DotCountIn(Russia, 1902); !errors.Is(err, ErrDotCountUnknown) {
		t.Errorf("got %v want %v", err, ErrDotCountUnknown)
	}
	if g.NumPowersWith(0) != 2 || g.HighestDotCount() != 8 {
		t.Errorf("unexpected counts")
	}
}

func TestVariantNamed(t *testing.T) {
	v, err := VariantNamed("standard")
	if err != nil || v.BoardSize() != 7 {
		t.Errorf("got %v,%v", v.Name, err)
	}
	if _, err := VariantNamed("colonial"); err == nil {
		t.Errorf("expected error for unknown variant")
	}
	if p, ok := Standard.ParsePower("t"); !ok || p != Turkey {
		t.Errorf("got %v want %v", p, Turkey)
	}
}

func TestEmptyGameIsStartingPosition(t *testing.T) {
	g := NewGameState(Standard)
	if err := g.Validate(); err != nil {
		t.Fatalf("got %v want nil", err)
	}
	if got := g.DotCount(Russia); got != 4 {
		t.Errorf("got %v want 4", got)
	}
	if got := g.LastFullYear(); got != Standard.FirstYear-1 {
		t.Errorf("got %v want %v", got, Standard.FirstYear-1)
	}
	if got := len(g.Survivors()); got != 7 {
		t.Errorf("got %v survivors want 7", got)
	}
}
