/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package diplomacy describes the game being played at each board: the
// variant's constants, its great powers and the supply centre record of a
// single game as it progresses.
package diplomacy

import (
	"fmt"
	"strings"
)

// Power is the single letter code of a great power, e.g. "F" for France.
type Power string

const (
	Austria Power = "A"
	England Power = "E"
	France  Power = "F"
	Germany Power = "G"
	Italy   Power = "I"
	Russia  Power = "R"
	Turkey  Power = "T"
)

// Variant holds the constants of a map. Nothing in the scoring or seeding code
// assumes the standard board; everything is derived from the variant.
type Variant struct {
	Name           string           `json:"name"`
	Powers         []Power          `json:"powers"`
	PowerNames     map[Power]string `json:"powerNames,omitempty"`
	HomeCentres    map[Power]int    `json:"homeCentres,omitempty"`
	TotalCentres   int              `json:"totalCentres"`
	WinningCentres int              `json:"winningCentres"`
	FirstYear      int              `json:"firstYear"`
}

// Standard is the classic seven player map.
var Standard = Variant{
	Name:   "Standard",
	Powers: []Power{Austria, England, France, Germany, Italy, Russia, Turkey},
	PowerNames: map[Power]string{
		Austria: "Austria-Hungary",
		England: "England",
		France:  "France",
		Germany: "Germany",
		Italy:   "Italy",
		Russia:  "Russia",
		Turkey:  "Turkey",
	},
	HomeCentres: map[Power]int{
		Austria: 3,
		England: 3,
		France:  3,
		Germany: 3,
		Italy:   3,
		Russia:  4,
		Turkey:  3,
	},
	TotalCentres:   34,
	WinningCentres: 18,
	FirstYear:      1901,
}

var variants = map[string]Variant{
	strings.ToLower(Standard.Name): Standard,
}

// VariantNamed looks up a known variant by case-insensitive name. An empty
// name selects the standard map.
func VariantNamed(name string) (Variant, error) {
	if name == "" {
		return Standard, nil
	}
	v, ok := variants[strings.ToLower(name)]
	if !ok {
		return Variant{}, fmt.Errorf("diplomacy.variant: unknown variant %q", name)
	}

	return v, nil
}

// BoardSize is the number of seats at one board.
func (v Variant) BoardSize() int {
	return len(v.Powers)
}

// Index returns the position of p in the variant's fixed power order or -1.
func (v Variant) Index(p Power) int {
	for i, vp := range v.Powers {
		if vp == p {
			return i
		}
	}

	return -1
}

// ParsePower resolves a (case-insensitive) power code.
func (v Variant) ParsePower(s string) (Power, bool) {
	p := Power(strings.ToUpper(strings.TrimSpace(s)))
	if v.Index(p) < 0 {
		return "", false
	}

	return p, true
}

// PowerName returns the display name of p, falling back to its code.
func (v Variant) PowerName(p Power) string {
	if n, ok := v.PowerNames[p]; ok {
		return n
	}

	return string(p)
}
