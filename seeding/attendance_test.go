/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package seeding

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileExactBoards(t *testing.T) {
	opts, err := Reconcile(14, 14, 0, 7)
	require.NoError(t, err)
	require.Len(t, opts, 1)
	assert.Equal(t, AttendanceOption{Boards: 2}, opts[0])
}

func TestReconcileWithStandbys(t *testing.T) {
	opts, err := Reconcile(10, 10, 2, 7)
	require.NoError(t, err)

	assert.Contains(t, opts, AttendanceOption{StandbysUsed: 2, Doubles: 2, Boards: 2})
	assert.Contains(t, opts, AttendanceOption{Sitters: 3, Boards: 1})
	assert.Equal(t, 0, opts[0].Sitters)
	assert.Equal(t, 2, opts[0].StandbysUsed)
}

func TestReconcileInfeasible(t *testing.T) {
	tests := []struct {
		present, standbys int
	}{
		{0, 0},
		{3, 0},
		{-1, 4},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%v+%v", tc.present, tc.standbys), func(t *testing.T) {
			_, err := Reconcile(tc.present, 0, tc.standbys, 7)
			if !errors.Is(err, ErrInfeasibleAttendance) {
				t.Errorf("got %v want %v", err, ErrInfeasibleAttendance)
			}
		})
	}
}

func TestReconcileInvariants(t *testing.T) {
	const b = 7
	for p := 0; p <= 40; p++ {
		for s := 0; s <= 8; s++ {
			if p+s == 0 {
				continue
			}
			for _, e := range []int{0, p / 3, p} {
				opts, err := Reconcile(p, e, s, b)
				if p+s >= b {
					require.NoError(t, err, "%v present %v eligible %v standbys", p, e, s)
				}
				for _, o := range opts {
					total := p + o.StandbysUsed - o.Sitters + o.Doubles
					assert.Equal(t, 0, total%b, "%v", o)
					assert.Greater(t, total, 0)
					assert.Equal(t, total/b, o.Boards)
					assert.LessOrEqual(t, o.Sitters, p)
					assert.LessOrEqual(t, o.StandbysUsed, s)
					assert.LessOrEqual(t, o.Doubles, e, "%v", o)
					if o.Doubles > 0 {
						assert.GreaterOrEqual(t, o.Boards, 2)
					}
				}
			}
		}
	}
}

func TestReconcileLimitsDoublesToEligible(t *testing.T) {
	tests := []struct {
		eligible    int
		wantDoubles bool
	}{
		{0, false},
		{1, false},
		{2, true},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%v eligible", tc.eligible), func(t *testing.T) {
			opts, err := Reconcile(10, tc.eligible, 2, 7)
			require.NoError(t, err)
			assert.Contains(t, opts, AttendanceOption{Sitters: 3, Boards: 1})
			got := slices.Contains(opts,
				AttendanceOption{StandbysUsed: 2, Doubles: 2, Boards: 2})
			if got != tc.wantDoubles {
				t.Errorf("got %v want %v in %v", got, tc.wantDoubles, opts)
			}
			for _, o := range opts {
				assert.LessOrEqual(t, o.Doubles, tc.eligible, "%v", o)
			}
		})
	}

	_, err := Reconcile(10, 11, 2, 7)
	assert.ErrorIs(t, err, ErrInfeasibleAttendance)
}

func entrants(ids ...string) []Entrant {
	ret := make([]Entrant, 0, len(ids))
	for i, id := range ids {
		ret = append(ret, Entrant{ID: EntrantID(id), Name: id, Arrival: i})
	}
	return ret
}

func TestSuggestDoublers(t *testing.T) {
	present := entrants("a", "b", "c", "d", "e")
	present[0].DoublesEligible = true
	present[2].DoublesEligible = true
	present[3].DoublesEligible = true
	present[4].DoublesEligible = true

	hist := NewPairingHistory()
	prop := &Proposal{BoardSize: 2, Boards: []Board{
		{Number: 1, Seats: []Seat{{Entrant: "a"}, {Entrant: "b"}}},
	}}
	require.NoError(t, hist.Commit(prop))

	got, err := SuggestDoublers(AttendanceOption{Doubles: 2}, present,
		[]EntrantID{"c"}, hist)
	require.NoError(t, err)
	assert.Equal(t, []EntrantID{"d", "e"}, got)

	_, err = SuggestDoublers(AttendanceOption{Doubles: 4}, present, nil, hist)
	assert.ErrorIs(t, err, ErrInfeasibleAttendance)
}

func TestResolve(t *testing.T) {
	present := entrants("a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	for i := range present {
		present[i].DoublesEligible = true
	}
	standbys := entrants("s1", "s2")
	opt := AttendanceOption{StandbysUsed: 2, Doubles: 2, Boards: 2}

	att, err := Resolve(opt, Selection{
		Doublers: []EntrantID{"a", "b"},
		Standbys: SuggestStandbys(opt, standbys),
	}, present, standbys)
	require.NoError(t, err)
	assert.Len(t, att.Playing, 14)
	assert.Empty(t, att.Unused)

	_, err = Resolve(opt, Selection{Doublers: []EntrantID{"a"}}, present, standbys)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	opt = AttendanceOption{Sitters: 3, Boards: 1}
	att, err = Resolve(opt, Selection{Sitters: []EntrantID{"h", "i", "j"}},
		present, standbys)
	require.NoError(t, err)
	assert.Len(t, att.Playing, 7)
	assert.Equal(t, []EntrantID{"s1", "s2"}, att.Unused)

	_, err = Resolve(opt, Selection{Sitters: []EntrantID{"h", "h", "j"}},
		present, standbys)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}
