/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
)

type powerPoints = map[diplomacy.Power]float64

type centreCount struct {
	power   diplomacy.Power
	centres int
}

// byCentres lists every power by latest centre count, highest first, ties in
// variant order.
func byCentres(g *diplomacy.GameState) []centreCount {
	ret := make([]centreCount, 0, len(g.Powers()))
	for _, p := range g.Powers() {
		ret = append(ret, centreCount{power: p, centres: g.DotCount(p)})
	}
	sort.SliceStable(ret, func(i, j int) bool {
		return ret[i].centres > ret[j].centres
	})
	return ret
}

// adjustRankScore hands out position points to counts ordered highest first.
// Tied counts share the points of the positions they occupy; positions
// beyond the end of rankPts are worth nothing.
func adjustRankScore(counts []int, rankPts []float64) []float64 {
	ret := make([]float64, len(counts))
	for i := 0; i < len(counts); {
		j := i
		var sum float64
		for j < len(counts) && counts[j] == counts[i] {
			if j < len(rankPts) {
				sum += rankPts[j]
			}
			j++
		}
		for k := i; k < j; k++ {
			ret[k] = sum / float64(j-i)
		}
		i = j
	}
	return ret
}

// adjustRankScoreLower hands out position points to keys ordered highest
// first. Tied keys all get the points of the lowest position they occupy.
// With twoWay set, exactly two tied keys get twoWay at their first position
// instead.
func adjustRankScoreLower[K int | float64](keys []K, rankPts []float64,
	twoWay []float64) []float64 {

	at := func(pts []float64, i int) float64 {
		if i < len(pts) {
			return pts[i]
		}
		return 0
	}
	ret := make([]float64, len(keys))
	for i := 0; i < len(keys); {
		j := i
		for j < len(keys) && keys[j] == keys[i] {
			j++
		}
		pts := at(rankPts, j-1)
		if twoWay != nil && j-i == 2 {
			pts = at(twoWay, i)
		}
		for k := i; k < j; k++ {
			ret[k] = pts
		}
		i = j
	}
	return ret
}

func centreCounts(dots []centreCount) []int {
	ret := make([]int, len(dots))
	for i, d := range dots {
		ret[i] = d.centres
	}
	return ret
}

func normalise(pts powerPoints, total float64) {
	var sum float64
	for _, v := range pts {
		sum += v
	}
	if sum == 0 {
		return
	}
	for p := range pts {
		pts[p] = pts[p] * total / sum
	}
}

func yearsSurvived(g *diplomacy.GameState, year int) float64 {
	return float64(year - g.Variant.FirstYear)
}

// eliminationYear is the elimination year of a dead power, or the last
// recorded year when none is known.
func eliminationYear(g *diplomacy.GameState, p diplomacy.Power) int {
	if year, ok := g.YearEliminated(p); ok {
		return year
	}
	return g.LastFullYear()
}

func SoloOrBust() GameSystem {
	return &gameSystem{
		name:        "Solo or bust",
		description: "A solo scores 100. Every other result scores 0.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 100
			}
			return ret
		},
	}
}

func DrawSize() GameSystem {
	return &gameSystem{
		name: "Draw size",
		description: "A solo scores 100. Otherwise the powers in the draw, or all " +
			"survivors if no draw passed, share 100 equally.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 100
				return ret
			}
			in := g.PowersInDraw()
			for _, p := range in {
				ret[p] = 100 / float64(len(in))
			}
			return ret
		},
	}
}

func SumOfSquares() GameSystem {
	return &gameSystem{
		name: "Sum of Squares",
		description: "A solo scores 100. Otherwise each power's final centre count " +
			"is squared and the squares are normalised to sum to 100.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 100
				return ret
			}
			for _, p := range g.Powers() {
				c := float64(g.DotCount(p))
				ret[p] = c * c
			}
			normalise(ret, 100)
			return ret
		},
	}
}

// Detour09 scores a solo 110 and every other power 0. Without a solo the
// raw points are normalised to 100 and eliminated powers then add 0.25 per
// year survived, up to 2.
func Detour09() GameSystem {
	return &gameSystem{
		name: "Detour09",
		description: "A solo scores 110, everyone else 0. Otherwise 1 per centre, " +
			"2 for surviving, the leader's gap to second place and 4/3/2/1 position " +
			"points (ties take the lower), normalised to 100. Eliminated powers add " +
			"0.25 per year survived, up to 2.",
		deadCanChange: true,
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 110
				return ret
			}

			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				ret[p] = float64(dots)
				if dots > 0 {
					ret[p] += 2
				}
			}
			top := append([]diplomacy.Power(nil), g.Powers()...)
			sort.SliceStable(top, func(i, j int) bool {
				return ret[top[i]] > ret[top[j]]
			})
			leader := g.HighestDotCount()
			gap := float64(leader - g.DotCount(top[1]))
			for _, p := range g.Powers() {
				if g.DotCount(p) == leader {
					ret[p] += gap
				}
			}
			bonus := 4
			for i := 0; bonus > 0 && i < 4 && i < len(top); {
				tied := g.NumPowersWith(g.DotCount(top[i]))
				if tied > 4 || i+tied > len(top) {
					break
				}
				bonus -= tied - 1
				if bonus > 0 {
					for k := 0; k < tied; k++ {
						ret[top[i+k]] += float64(bonus)
					}
				}
				i += tied
				bonus--
			}
			normalise(ret, 100)

			for _, p := range g.Powers() {
				if g.DotCount(p) > 0 {
					continue
				}
				years := yearsSurvived(g, eliminationYear(g, p))
				if years > 8 {
					years = 8
				}
				ret[p] += 0.25 * years
			}
			return ret
		},
	}
}

// Carnage awards position points (ties split them) plus points per centre.
// Eliminated powers either all share the remaining position points or are
// ranked by when they were eliminated.
func Carnage(name string, centreBased bool, deadEqual bool, leadPts float64) GameSystem {
	desc := "A solo takes every point. Otherwise powers score per centre owned " +
		"plus points for their final position, with ties splitting them."
	if deadEqual {
		desc += " Eliminated powers all split position points."
	} else {
		desc += " Eliminated powers get position points by elimination order."
	}
	if leadPts != 0 {
		desc += fmt.Sprintf(" The leader gets %v more per centre ahead of second place.",
			leadPts)
	}

	return &gameSystem{
		name:          name,
		description:   desc,
		deadCanChange: true,
		points: func(g *diplomacy.GameState) powerPoints {
			n := len(g.Powers())
			perDot := 1.0
			step := 1000.0
			if centreBased {
				perDot = 500
				step = 1001
			}
			position := make([]float64, n)
			var sumPos float64
			for i := range position {
				position[i] = float64(n-i) * step
				sumPos += position[i]
			}
			soloPts := sumPos + float64(g.Variant.TotalCentres)
			lossPts := 0.0
			if centreBased {
				soloPts = 39028
				lossPts = 1000
			}

			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				for _, p := range g.Powers() {
					ret[p] = lossPts
				}
				ret[soloer] = soloPts
				return ret
			}

			dots := byCentres(g)
			if deadEqual {
				counts := make([]int, len(dots))
				for i, d := range dots {
					counts[i] = d.centres
				}
				rank := adjustRankScore(counts, position)
				for i, d := range dots {
					ret[d.power] = perDot*float64(d.centres) + rank[i]
				}
				return ret
			}

			var live, dead []centreCount
			for _, d := range dots {
				if d.centres > 0 {
					live = append(live, d)
				} else {
					dead = append(dead, centreCount{power: d.power,
						centres: eliminationYear(g, d.power)})
				}
			}
			counts := make([]int, len(live))
			for i, d := range live {
				counts[i] = d.centres
			}
			rank := adjustRankScore(counts, position[:len(live)])
			for i, d := range live {
				ret[d.power] = perDot*float64(d.centres) + rank[i]
			}
			if len(live) > 1 {
				if lead := live[0].centres - live[1].centres; lead > 0 {
					ret[live[0].power] += float64(lead) * leadPts
				}
			}

			// later eliminations rank higher
			sort.SliceStable(dead, func(i, j int) bool {
				return dead[i].centres > dead[j].centres
			})
			years := make([]int, len(dead))
			for i, d := range dead {
				years[i] = d.centres
			}
			rank = adjustRankScore(years, position[len(live):])
			for i, d := range dead {
				ret[d.power] = rank[i]
			}
			return ret
		},
	}
}

// CDiplo scores participation, centres and the top three positions.
func CDiplo(name string, soloPts, playedPts, first, second, third,
	lossPts float64) GameSystem {

	return &gameSystem{
		name: name,
		description: fmt.Sprintf("A solo scores %v, losers to a solo %v. Otherwise %v "+
			"for playing, 1 per centre, and %v/%v/%v for the three largest powers, "+
			"ties splitting them.", soloPts, lossPts, playedPts, first, second, third),
		// eliminated powers tie for the lower positions when fewer than
		// three survive, so their share moves as other powers die
		deadCanChange: lossPts != playedPts || second != 0 || third != 0,
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				for _, p := range g.Powers() {
					ret[p] = lossPts
				}
				ret[soloer] = soloPts
				return ret
			}
			dots := byCentres(g)
			counts := make([]int, len(dots))
			for i, d := range dots {
				counts[i] = d.centres
			}
			rank := adjustRankScore(counts, []float64{first, second, third})
			for i, d := range dots {
				ret[d.power] = playedPts + float64(d.centres) + rank[i]
			}
			return ret
		},
	}
}

// WorldClassic: 10 per centre, 30 for surviving and a 48 point pool for the
// board top. With noThreeWays the pool is void when three or more top.
func WorldClassic(name string, noThreeWays bool) GameSystem {
	topping := "48 point pool for board topping, split between all toppers."
	if noThreeWays {
		topping = "48 extra points for a sole board topper, 24 each if two top."
	}
	return &gameSystem{
		name: name,
		description: "A solo scores 420. Otherwise 10 per centre and 30 for " +
			"surviving. " + topping + " Eliminated powers and losers to a solo " +
			"score 1 per year survived.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			leader := g.HighestDotCount()
			leaders := g.NumPowersWith(leader)
			soloer, soloed := g.Soloer()
			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				switch {
				case dots == 0:
					ret[p] = yearsSurvived(g, eliminationYear(g, p))
				case soloed && p == soloer:
					ret[p] = 420
				case soloed:
					ret[p] = yearsSurvived(g, g.SoloYear())
				default:
					ret[p] = 10*float64(dots) + 30
					if dots == leader && (!noThreeWays || leaders < 3) {
						ret[p] += 48 / float64(leaders)
					}
				}
			}
			return ret
		},
	}
}

// Tribute: survivors share 66 and pay the leader 1 per centre over 6.
func Tribute() GameSystem {
	return &gameSystem{
		name: "Tribute",
		description: "A solo scores 100, everyone else 0. Otherwise 1 per centre " +
			"and survivors split 66 equally. Each survivor pays the board leader(s) " +
			"1 point per centre the leader has over 6, capped at the survival points.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 100
				return ret
			}
			survivors := len(g.Survivors())
			if survivors == 0 {
				return ret
			}
			survival := 66 / float64(survivors)
			leader := g.HighestDotCount()
			leaders := g.NumPowersWith(leader)
			tribute := 0.0
			if leader > 6 {
				tribute = float64(leader - 6)
				if tribute > survival {
					tribute = survival
				}
			}
			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				if dots == 0 {
					continue
				}
				ret[p] = float64(dots) + survival
				if dots == leader {
					ret[p] += tribute * float64(survivors-leaders) / float64(leaders)
				} else {
					ret[p] -= tribute
				}
			}
			return ret
		},
	}
}

// ManorCon computes N = S^2 + 4S + 16 per surviving power and shares 100 in
// proportion to N. Eliminated powers score 0.1 per year survived.
func ManorCon(name string, soloPts float64, deadGet16 bool) GameSystem {
	desc := fmt.Sprintf("A solo scores %v; other powers 0.1 per year survived. "+
		"Otherwise N = S^2 + 4S + 16 for each power, where S is its centre count", soloPts)
	if deadGet16 {
		desc += " (N = 16 for eliminated powers)"
	}
	desc += ". Survivors score 100 * N / sum of N; eliminated powers 0.1 per year survived."

	return &gameSystem{
		name:        name,
		description: desc,
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			soloer, soloed := g.Soloer()
			var sumN float64
			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				switch {
				case soloed && p == soloer:
					ret[p] = soloPts
				case soloed && dots > 0:
					ret[p] = 0.1 * yearsSurvived(g, g.SoloYear())
				case dots == 0:
					ret[p] = 0.1 * yearsSurvived(g, eliminationYear(g, p))
					if deadGet16 {
						sumN += 16
					}
				default:
					n := float64(dots*dots + 4*dots + 16)
					ret[p] = n
					sumN += n
				}
			}
			if !soloed {
				for _, p := range g.Powers() {
					if g.DotCount(p) > 0 {
						ret[p] *= 100 / sumN
					}
				}
			}
			return ret
		},
	}
}

// Bangkok shares 12 domination points between powers at or near the top.
func Bangkok() GameSystem {
	return &gameSystem{
		name: "Bangkok",
		description: "A solo scores 41, everyone else 0.5 per centre. Otherwise 1 " +
			"per centre, 3 for surviving or 0.3 per year survived if eliminated, and " +
			"12 points shared 3:2:1 between powers topping, 1 behind and 2 behind the top.",
		deadCanChange: true,
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				for _, p := range g.Powers() {
					ret[p] = 0.5 * float64(g.DotCount(p))
				}
				ret[soloer] = 41
				return ret
			}
			leader := g.HighestDotCount()
			shares := make(map[diplomacy.Power]float64)
			var total float64
			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				ret[p] = float64(dots)
				switch dots {
				case leader:
					shares[p] = 3
				case leader - 1:
					shares[p] = 2
				case leader - 2:
					shares[p] = 1
				}
				total += shares[p]
				if dots == 0 {
					ret[p] += 0.3 * yearsSurvived(g, eliminationYear(g, p))
				} else {
					ret[p] += 3
				}
			}
			for _, p := range g.Powers() {
				ret[p] += 12 * shares[p] / total
			}
			return ret
		},
	}
}

// Whipping: ten per centre, survivors share 60, a sole leader doubles their
// centres as a bonus.
func Whipping(name string, soloPts float64) GameSystem {
	return &gameSystem{
		name: name,
		description: fmt.Sprintf("A solo scores %v; survivors who lose to it score as "+
			"if eliminated that year. Otherwise eliminated powers get 1 per year "+
			"played, everyone else 10 per centre plus an equal share of 60, and a "+
			"sole board topper twice their centre count.", soloPts),
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			played := func(year int) float64 {
				return float64(year - (g.Variant.FirstYear - 1))
			}
			soloer, soloed := g.Soloer()
			leader := g.HighestDotCount()
			survivors := float64(len(g.Survivors()))
			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				switch {
				case soloed && p == soloer:
					ret[p] = soloPts
				case dots == 0:
					ret[p] = played(eliminationYear(g, p))
				case soloed:
					ret[p] = played(g.SoloYear())
				default:
					ret[p] = 10*float64(dots) + 60/survivors
					if dots == leader && g.NumPowersWith(leader) == 1 {
						ret[p] += 2 * float64(dots)
					}
				}
			}
			return ret
		},
	}
}

// Maxonian ranks powers by centres, breaking ties by who was most recently
// ahead, and adds a bonus per centre above threshold.
func Maxonian(name string, threshold int) GameSystem {
	return &gameSystem{
		name: name,
		description: fmt.Sprintf("Powers are ranked by centre count and score 7 down "+
			"to 1. Ties go to whoever was most recently ahead; powers level every "+
			"year share the points. Any power above %v centres scores 1 more per "+
			"centre over it, capped at a solo, and only the soloer does so in a "+
			"soloed game.", threshold),
		points: func(g *diplomacy.GameState) powerPoints {
			n := len(g.Powers())
			position := make([]float64, n)
			for i := range position {
				position[i] = float64(n - i)
			}
			ret := maxonianPositions(g, g.LastFullYear(), g.Powers(), position)

			soloer, soloed := g.Soloer()
			for _, p := range g.Powers() {
				d := g.DotCount(p)
				if d <= threshold || (soloed && p != soloer) {
					continue
				}
				if d > g.Variant.WinningCentres {
					d = g.Variant.WinningCentres
				}
				ret[p] += float64(d - threshold)
			}
			return ret
		},
	}
}

func maxonianPositions(g *diplomacy.GameState, year int, powers []diplomacy.Power,
	points []float64) powerPoints {

	ret := make(powerPoints)
	if year < g.Variant.FirstYear {
		var sum float64
		for _, pt := range points {
			sum += pt
		}
		for _, p := range powers {
			ret[p] = sum / float64(len(powers))
		}
		return ret
	}

	counts := make([]centreCount, 0, len(powers))
	for _, p := range powers {
		c, err := g.DotCountIn(p, year)
		if errors.Is(err, diplomacy.ErrDotCountUnknown) {
			return maxonianPositions(g, year-1, powers, points)
		}
		counts = append(counts, centreCount{power: p, centres: c})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].centres > counts[j].centres
	})
	for i := 0; i < len(counts); {
		j := i
		for j < len(counts) && counts[j].centres == counts[i].centres {
			j++
		}
		if j-i == 1 {
			ret[counts[i].power] = points[i]
		} else {
			tied := make([]diplomacy.Power, 0, j-i)
			for _, c := range counts[i:j] {
				tied = append(tied, c.power)
			}
			for p, pt := range maxonianPositions(g, year-1, tied, points[i:j]) {
				ret[p] = pt
			}
		}
		i = j
	}
	return ret
}

// Base3 gives survivors 3 plus 1 per centre and board toppers a 9 point
// bonus divided by 3 for each extra topper.
func Base3() GameSystem {
	return &gameSystem{
		name: "Base 3",
		description: "A solo scores 46, everyone else 0. Otherwise survivors score " +
			"3 plus 1 per centre, and board toppers get 9 points divided by 3 for " +
			"each additional topper. Eliminated powers score 0.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 46
				return ret
			}
			leader := g.HighestDotCount()
			bonus := 9 / math.Pow(3, float64(g.NumPowersWith(leader)-1))
			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				if dots == 0 {
					continue
				}
				ret[p] = 3 + float64(dots)
				if dots == leader {
					ret[p] += bonus
				}
			}
			return ret
		},
	}
}

var namurCentrePoints = []float64{0, 5, 9, 12, 14, 16, 18}

func namurPoints(centres int) float64 {
	if centres < len(namurCentrePoints) {
		return namurCentrePoints[centres]
	}
	last := len(namurCentrePoints) - 1
	return namurCentrePoints[last] + float64(centres-last)
}

// CDiploNamur is CDiplo with a tapering value per centre.
func CDiploNamur() GameSystem {
	return &gameSystem{
		name: "C-Diplo Namur",
		description: "A solo scores 85, everyone else 0. Otherwise 1 for playing, " +
			"5/9/12/14/16/18 points for owning 1 to 6 centres and 1 more per " +
			"further centre, and 38/14/7 for the three largest powers, ties " +
			"splitting them.",
		deadCanChange: true,
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 85
				return ret
			}
			dots := byCentres(g)
			rank := adjustRankScore(centreCounts(dots), []float64{38, 14, 7})
			for i, d := range dots {
				ret[d.power] = 1 + namurPoints(d.centres) + rank[i]
			}
			return ret
		},
	}
}

// Haight ranks survivors by centres and eliminated powers by elimination
// year. Tied powers take the lower position.
func Haight() GameSystem {
	return &gameSystem{
		name: "Haight v1.0",
		description: "A solo scores 451; survivors score the greater of 5 per centre " +
			"and 1 per year played, eliminated powers 1 per year played. Otherwise " +
			"10 per centre, or 1 per year played if eliminated, plus 66/55/44/33/22/11 " +
			"by final position with eliminated powers ranked by elimination year " +
			"and ties taking the lower position. A sole board topper gets 5 per " +
			"centre ahead of second place.",
		deadCanChange: true,
		points: func(g *diplomacy.GameState) powerPoints {
			played := func(year int) float64 {
				return float64(1 + year - g.Variant.FirstYear)
			}
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				for _, p := range g.Powers() {
					dots := g.DotCount(p)
					switch {
					case p == soloer:
						ret[p] = 451
					case dots > 0:
						ret[p] = math.Max(5*float64(dots), played(g.SoloYear()))
					default:
						ret[p] = played(eliminationYear(g, p))
					}
				}
				return ret
			}

			type ranked struct {
				power diplomacy.Power
				key   float64
			}
			order := make([]ranked, 0, len(g.Powers()))
			for _, d := range byCentres(g) {
				key := float64(d.centres)
				if d.centres == 0 {
					key = yearsSurvived(g, eliminationYear(g, d.power)) / 100
				}
				order = append(order, ranked{power: d.power, key: key})
			}
			sort.SliceStable(order, func(i, j int) bool {
				return order[i].key > order[j].key
			})
			keys := make([]float64, len(order))
			for i, o := range order {
				keys[i] = o.key
			}
			rank := adjustRankScoreLower(keys, []float64{66, 55, 44, 33, 22, 11}, nil)
			for i, o := range order {
				if o.key < 1 {
					ret[o.power] = played(eliminationYear(g, o.power)) + rank[i]
				} else {
					ret[o.power] = 10*o.key + rank[i]
				}
			}
			if len(order) > 1 && order[0].key != order[1].key {
				ret[order[0].power] += 5 * (order[0].key - order[1].key)
			}
			return ret
		},
	}
}

// OMG: a sole board topper takes tribute from every power of the gap to
// second place, capped at half the payer's score.
func OMG() GameSystem {
	return &gameSystem{
		name: "OMG",
		description: "A solo scores 100, everyone else 0. Otherwise 1.5 per centre, " +
			"9 for surviving and 4.5/3/1.5 for the three largest powers, ties " +
			"splitting them. A sole board topper then collects from every power " +
			"the gap to second place, capped at half that power's score.",
		// eliminated powers share third place when fewer than three survive
		deadCanChange: true,
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 100
				return ret
			}
			dots := byCentres(g)
			rank := adjustRankScore(centreCounts(dots), []float64{4.5, 3, 1.5})
			for i, d := range dots {
				ret[d.power] = 1.5*float64(d.centres) + rank[i]
				if d.centres > 0 {
					ret[d.power] += 9
				}
			}
			if g.NumPowersWith(dots[0].centres) != 1 {
				return ret
			}
			gap := float64(dots[0].centres - dots[1].centres)
			var tribute float64
			for _, d := range dots {
				x := math.Min(gap, ret[d.power]/2)
				ret[d.power] -= x
				tribute += x
			}
			ret[dots[0].power] += tribute
			return ret
		},
	}
}

// RankedClassic ranks survivors by centres with a separate table for two
// way ties. Three or more tied powers take the lower position.
func RankedClassic() GameSystem {
	return &gameSystem{
		name: "Ranked Classic",
		description: "A solo scores 550, everyone else 1 per year survived. " +
			"Otherwise eliminated powers score 1 per year survived, survivors 30 " +
			"plus 10 per centre plus 200/90/60/40/30/20/10 by position. Two tied " +
			"powers get 135/70/50/35/25/15 instead; three or more take the lower " +
			"position.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			soloer, soloed := g.Soloer()
			dots := byCentres(g)
			rank := adjustRankScoreLower(centreCounts(dots),
				[]float64{200, 90, 60, 40, 30, 20, 10},
				[]float64{135, 70, 50, 35, 25, 15})
			for i, d := range dots {
				switch {
				case d.centres == 0:
					ret[d.power] = yearsSurvived(g, eliminationYear(g, d.power))
				case soloed && d.power == soloer:
					ret[d.power] = 550
				case soloed:
					ret[d.power] = yearsSurvived(g, g.SoloYear())
				default:
					ret[d.power] = 30 + 10*float64(d.centres) + rank[i]
				}
			}
			return ret
		},
	}
}

// SouthernSun hands survivors Fibonacci position points, with tied powers
// sharing them rounded to the nearest whole point.
func SouthernSun() GameSystem {
	return &gameSystem{
		name: "Southern Sun",
		description: "A solo scores 500, everyone else 0. Otherwise survivors score " +
			"30 plus 10 per centre plus 130/80/50/30/20/10/10 by position, tied " +
			"powers sharing the average rounded to a whole point. Eliminated " +
			"powers score 3 per year played.",
		deadCanChange: true,
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 500
				return ret
			}
			position := []float64{130, 80, 50, 30, 20, 10, 10}
			dots := byCentres(g)
			rank := adjustRankScore(centreCounts(dots),
				position[:min(len(position), len(g.Survivors()))])
			for i, d := range dots {
				if d.centres == 0 {
					ret[d.power] = 3 * (1 + yearsSurvived(g, eliminationYear(g, d.power)))
					continue
				}
				ret[d.power] = 30 + 10*float64(d.centres) + math.RoundToEven(rank[i])
			}
			return ret
		},
	}
}

// OpenTribute: every power pays the leaders 1 per centre it is behind, an
// eliminated power the leader's full count.
func OpenTribute() GameSystem {
	return &gameSystem{
		name: "OpenTribute",
		description: "A solo scores 340, everyone else 0. Otherwise survivors score " +
			"34 plus 3 per centre and pay the board leader 1 per centre behind; " +
			"eliminated powers score 0 and pay the leader's centre count. N " +
			"leaders each take the tribute divided by N squared, rounded down.",
		points: func(g *diplomacy.GameState) powerPoints {
			ret := make(powerPoints)
			if soloer, ok := g.Soloer(); ok {
				ret[soloer] = 340
				return ret
			}
			leader := g.HighestDotCount()
			leaders := g.NumPowersWith(leader)
			tribute := 0
			for _, p := range g.Powers() {
				dots := g.DotCount(p)
				tribute += leader - dots
				if dots == 0 {
					continue
				}
				ret[p] = 34 + 3*float64(dots) - float64(leader-dots)
			}
			share := float64(tribute / (leaders * leaders))
			for _, p := range g.Powers() {
				if g.DotCount(p) == leader {
					ret[p] += share
				}
			}
			return ret
		},
	}
}
