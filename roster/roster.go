/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package roster reads tournament registrations and roll calls from the
// entries table published by a registration site.
package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mikeb26/diplomacy-tdbot/internal"
	"github.com/mikeb26/diplomacy-tdbot/seeding"
)

var ErrNoEntries = errors.New("no entries table")

type column int

const (
	colID column = iota
	colName
	colStandby
	colUnranked
	colDoubles
	colPreferences
	colCheckedIn
	colHandicap
	colPresent
)

// headers maps lower case header text to the column it names.
var headers = map[string]column{
	"id":          colID,
	"member id":   colID,
	"name":        colName,
	"player":      colName,
	"standby":     colStandby,
	"unranked":    colUnranked,
	"doubles":     colDoubles,
	"two boards":  colDoubles,
	"preferences": colPreferences,
	"prefs":       colPreferences,
	"checked in":  colCheckedIn,
	"check-in":    colCheckedIn,
	"arrived":     colCheckedIn,
	"handicap":    colHandicap,
	"present":     colPresent,
}

// Entry is one row of an entries table.
type Entry struct {
	seeding.Entrant
	// Present is set when the table has a present column marking this row
	Present bool
}

// Fetch downloads and parses the entries table at url.
func Fetch(ctx context.Context, client *http.Client, url string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("roster.fetch: %w", err)
	}
	req.Header.Set("User-Agent", internal.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roster.fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster.fetch: status %d fetching %s", resp.StatusCode, url)
	}

	return ParseEntries(resp.Body)
}

// ParseEntries reads the entries table (table#entries, else the first table
// with a name column). Arrival order follows the check-in time where one is
// given and table order otherwise.
func ParseEntries(r io.Reader) ([]Entry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("roster.parseEntries: %w", err)
	}

	table := doc.Find("table#entries").First()
	if table.Length() == 0 {
		doc.Find("table").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if _, ok := headerIndex(s)[colName]; ok {
				table = s
				return false
			}
			return true
		})
	}
	cols := headerIndex(table)
	if _, ok := cols[colName]; !ok {
		return nil, fmt.Errorf("roster.parseEntries: %w", ErrNoEntries)
	}

	var ret []Entry
	var parseErr error
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if i == 0 || cells.Length() == 0 || parseErr != nil {
			return
		}
		cell := func(c column) string {
			idx, ok := cols[c]
			if !ok || idx >= cells.Length() {
				return ""
			}
			return normalizeText(cells.Eq(idx).Text())
		}

		name := cell(colName)
		if name == "" {
			return
		}
		e := Entry{Entrant: seeding.Entrant{
			ID:              seeding.EntrantID(cell(colID)),
			Name:            name,
			Standby:         truthy(cell(colStandby)),
			Unranked:        truthy(cell(colUnranked)),
			DoublesEligible: truthy(cell(colDoubles)),
			Preferences:     cell(colPreferences),
		}}
		if e.ID == "" {
			e.ID = idFromName(name)
		}
		if e.CheckedIn, err = internal.ParseDateOrZero(cell(colCheckedIn)); err != nil {
			parseErr = fmt.Errorf("roster.parseEntries: %v check-in: %w", name, err)
			return
		}
		if h := cell(colHandicap); h != "" {
			if e.Handicap, err = strconv.ParseFloat(h, 64); err != nil {
				parseErr = fmt.Errorf("roster.parseEntries: %v handicap: %w", name, err)
				return
			}
		}
		_, hasPresent := cols[colPresent]
		e.Present = !hasPresent || truthy(cell(colPresent))
		ret = append(ret, e)
	})
	if parseErr != nil {
		return nil, parseErr
	}

	setArrival(ret)

	return ret, nil
}

func headerIndex(table *goquery.Selection) map[column]int {
	ret := make(map[column]int)
	table.Find("tr").First().Find("th, td").Each(func(i int, s *goquery.Selection) {
		if c, ok := headers[strings.ToLower(normalizeText(s.Text()))]; ok {
			if _, dup := ret[c]; !dup {
				ret[c] = i
			}
		}
	})
	return ret
}

// setArrival numbers entries from 1: checked in entries first by check-in
// time, then the rest in table order.
func setArrival(entries []Entry) {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := entries[order[i]].CheckedIn, entries[order[j]].CheckedIn
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.Before(b)
	})
	for n, i := range order {
		entries[i].Arrival = n + 1
	}
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "x", "true", "1", "✓":
		return true
	}
	return false
}

func idFromName(name string) seeding.EntrantID {
	return seeding.EntrantID(strings.ToLower(strings.ReplaceAll(name, " ", "-")))
}

// Present lists the ids of entries marked present.
func Present(entries []Entry) []seeding.EntrantID {
	var ret []seeding.EntrantID
	for _, e := range entries {
		if e.Present {
			ret = append(ret, e.ID)
		}
	}
	return ret
}

// Entrants strips roll call information from entries.
func Entrants(entries []Entry) []seeding.Entrant {
	ret := make([]seeding.Entrant, 0, len(entries))
	for _, e := range entries {
		ret = append(ret, e.Entrant)
	}
	return ret
}

// CheckedInBy lists entries checked in no later than deadline.
func CheckedInBy(entries []Entry, deadline time.Time) []seeding.EntrantID {
	var ret []seeding.EntrantID
	for _, e := range entries {
		if !e.CheckedIn.IsZero() && !e.CheckedIn.After(deadline) {
			ret = append(ret, e.ID)
		}
	}
	return ret
}
