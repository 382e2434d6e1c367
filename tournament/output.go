/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package tournament

import (
	"fmt"
	"strings"

	"github.com/mikeb26/diplomacy-tdbot/scoring"
	"github.com/mikeb26/diplomacy-tdbot/seeding"
)

// writeTable writes rows as left aligned columns separated by two spaces.
func writeTable(sb *strings.Builder, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if l := len(c); l > widths[i] {
				widths[i] = l
			}
		}
	}

	writeRow := func(cells []string) {
		for i, c := range cells {
			if i == len(cells)-1 {
				sb.WriteString(c)
				break
			}
			sb.WriteString(fmt.Sprintf("%-*s  ", widths[i], c))
		}
		sb.WriteString("\n")
	}
	writeRow(header)
	for _, r := range rows {
		writeRow(r)
	}
}

// BuildOptionsOutput lists the ways a round's attendance can fill boards.
func BuildOptionsOutput(round int, opts []seeding.AttendanceOption) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Round %v attendance options:\n\n", round))

	var rows [][]string
	for i, o := range opts {
		rows = append(rows, []string{
			fmt.Sprintf("%v.", i+1),
			fmt.Sprintf("%v", o.Boards),
			fmt.Sprintf("%v", o.Sitters),
			fmt.Sprintf("%v", o.Doubles),
			fmt.Sprintf("%v", o.StandbysUsed),
		})
	}
	writeTable(&sb, []string{"Option", "Boards", "Sitting out", "Doubling",
		"Standbys"}, rows)

	return sb.String()
}

// BuildSeatingOutput formats a seating proposal board by board.
func BuildSeatingOutput(t *Tournament, p *seeding.Proposal) string {
	v, err := t.Variant()
	if err != nil {
		return fmt.Sprintf("Cannot show round %v seating: %v", p.Round, err)
	}
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Round %v seating (%v repeat meetings):\n\n",
		p.Round, p.Repeats))
	for _, b := range p.Boards {
		sb.WriteString(fmt.Sprintf("Board %v\n", b.Number))
		var rows [][]string
		for _, s := range b.Seats {
			name := string(s.Entrant)
			if e, ok := t.Entrant(s.Entrant); ok {
				name = e.DisplayName()
			}
			met := 0
			for _, o := range b.Seats {
				if o.Entrant != s.Entrant {
					met += t.History.Count(s.Entrant, o.Entrant)
				}
			}
			rows = append(rows, []string{v.PowerName(s.Power), name,
				fmt.Sprintf("%v", met)})
		}
		writeTable(&sb, []string{"Power", "Name", "Met before"}, rows)
		sb.WriteString("\n")
	}

	if r, err := t.Round(p.Round); err == nil && r.Seating == p &&
		len(r.SittingOut) > 0 {

		names := make([]string, 0, len(r.SittingOut))
		for _, id := range r.SittingOut {
			e, _ := t.Entrant(id)
			names = append(names, e.DisplayName())
		}
		sb.WriteString(fmt.Sprintf("Sitting out: %v\n", strings.Join(names, ", ")))
	}

	return sb.String()
}

// BuildGameOutput shows the current scores of one game.
func BuildGameOutput(t *Tournament, g *Game) string {
	scores, err := t.GameScores(g)
	if err != nil {
		return fmt.Sprintf("Cannot score round %v board %v: %v", g.Round, g.Board, err)
	}
	v, err := t.Variant()
	if err != nil {
		return fmt.Sprintf("Cannot score round %v board %v: %v", g.Round, g.Board, err)
	}
	var sb strings.Builder

	status := "in progress, scores if it ended now"
	if g.State.Finished() {
		out := g.State.Outcome()
		status = fmt.Sprintf("%v in %v", out.Kind, out.Year)
	}
	sb.WriteString(fmt.Sprintf("Round %v board %v (%v):\n\n", g.Round, g.Board, status))

	var rows [][]string
	for _, s := range scores {
		name := ""
		for _, seat := range g.Seats {
			if seat.Power == s.Power {
				e, _ := t.Entrant(seat.Entrant)
				name = e.DisplayName()
			}
		}
		rows = append(rows, []string{v.PowerName(s.Power), name,
			fmt.Sprintf("%v", s.Centres), fmt.Sprintf("%.2f", s.Score)})
	}
	writeTable(&sb, []string{"Power", "Name", "Centres", "Score"}, rows)

	return sb.String()
}

// BuildStandingsOutput formats the standings with a column per round.
// Projected scores carry a "*" and dropped scores are parenthesised.
func BuildStandingsOutput(t *Tournament) string {
	results, err := t.Results()
	if err != nil {
		return fmt.Sprintf("Cannot determine standings: %v", err)
	}
	if len(results) == 0 {
		return "Cannot determine standings before the first round is seeded"
	}
	byID := make(map[string]EntrantResult, len(results))
	for _, r := range results {
		byID[string(r.Entrant.ID)] = r
	}
	standings := rank(results)

	var sb strings.Builder
	if t.Finished {
		sb.WriteString("Final standings:\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Standings after round %v:\n\n", t.CurrentRound()))
	}

	header := []string{"Place", "Name", "Score"}
	for _, rr := range results[0].Rounds {
		header = append(header, fmt.Sprintf("R%v", rr.Round))
	}
	var rows [][]string
	priorPlace := 0
	for _, s := range standings {
		place := ""
		if s.Place != 0 && s.Place != priorPlace {
			place = fmt.Sprintf("%v.", s.Place)
		}
		priorPlace = s.Place
		row := []string{place, s.Name, s.Score.String()}
		for _, rr := range byID[s.ID].Rounds {
			row = append(row, rr.Result.Score.String())
		}
		rows = append(rows, row)
	}
	writeTable(&sb, header, rows)

	return sb.String()
}

// BuildExportOutput formats export rows as tab separated values.
func BuildExportOutput(rows []scoring.ExportRow) string {
	var sb strings.Builder
	sb.WriteString("place\tname\tscore\tround\tboard\tpower\tcentres\tgame score\tdropped\n")
	for _, r := range rows {
		place := ""
		if r.Place != 0 {
			place = fmt.Sprintf("%v", r.Place)
		}
		for _, g := range r.Games {
			sb.WriteString(fmt.Sprintf("%v\t%v\t%.2f\t%v\t%v\t%v\t%v\t%.2f\t%v\n",
				place, r.Name, r.Score, g.Round, g.Board, g.Power, g.Centres,
				g.Score, g.Dropped))
		}
		if len(r.Games) == 0 {
			sb.WriteString(fmt.Sprintf("%v\t%v\t%.2f\t\t\t\t\t\t\n", place, r.Name,
				r.Score))
		}
	}
	return sb.String()
}
