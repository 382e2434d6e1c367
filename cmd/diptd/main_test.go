/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"reflect"
	"testing"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
	"github.com/mikeb26/diplomacy-tdbot/seeding"
)

func TestParsePins(t *testing.T) {
	tests := []struct {
		in      string
		want    []seeding.Pin
		wantErr bool
	}{
		{"", nil, false},
		{"a1=2", []seeding.Pin{{Entrant: "a1", Board: 2}}, false},
		{"a1=2, b2=1", []seeding.Pin{{Entrant: "a1", Board: 2},
			{Entrant: "b2", Board: 1}}, false},
		{"a1", nil, true},
		{"a1=two", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parsePins(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parsePins(%q) err %v wantErr %v", tc.in, err, tc.wantErr)
			}
			if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestParseSeason(t *testing.T) {
	for in, want := range map[string]diplomacy.Season{
		"s": diplomacy.Spring, "Spring": diplomacy.Spring,
		"F": diplomacy.Fall, "autumn": diplomacy.Fall,
	} {
		got, err := parseSeason(in)
		if err != nil || got != want {
			t.Errorf("parseSeason(%q) got %v, %v want %v", in, got, err, want)
		}
	}
	if _, err := parseSeason("winter"); err == nil {
		t.Errorf("parseSeason(winter) succeeded")
	}
}

func TestParsePowers(t *testing.T) {
	got, err := parsePowers(diplomacy.Standard, "f, g,")
	if err != nil {
		t.Fatalf("parsePowers: %v", err)
	}
	want := []diplomacy.Power{diplomacy.France, diplomacy.Germany}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v want %v", got, want)
	}
	if _, err := parsePowers(diplomacy.Standard, "F,X"); err == nil {
		t.Errorf("parsePowers accepted an unknown power")
	}
}

func TestIdList(t *testing.T) {
	got := idList(" a1,,b2 ")
	want := []seeding.EntrantID{"a1", "b2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v want %v", got, want)
	}
}
