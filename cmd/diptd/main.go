/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
	"github.com/mikeb26/diplomacy-tdbot/internal"
	"github.com/mikeb26/diplomacy-tdbot/roster"
	"github.com/mikeb26/diplomacy-tdbot/scoring"
	"github.com/mikeb26/diplomacy-tdbot/seeding"
	"github.com/mikeb26/diplomacy-tdbot/tournament"
)

//go:embed help.txt
var helpText string

// cmdHandler defines the signature for command handler functions.
type cmdHandler func(ctx context.Context, args []string)

// commands maps command names to their respective handler functions.
var commands = map[string]cmdHandler{
	"help":      handleHelp,
	"init":      handleInit,
	"import":    handleImport,
	"entrant":   handleEntrant,
	"bias":      handleBias,
	"rollcall":  handleRollCall,
	"options":   handleOptions,
	"seed":      handleSeed,
	"game":      handleGame,
	"centres":   handleCentres,
	"draw":      handleDraw,
	"eliminate": handleEliminate,
	"end":       handleEnd,
	"finish":    handleFinish,
	"standings": handleStandings,
	"export":    handleExport,
	"systems":   handleSystems,
}

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if handler, ok := commands[cmd]; ok {
		handler(ctx, os.Args[2:])
	} else {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Printf("%v", helpText)
}

func handleHelp(ctx context.Context, args []string) {
	usage()
}

func handleInit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := configFlag(fs)
	write := fs.Bool("write-config", false,
		"Write the effective settings back to the settings file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	settings := loadSettings(*configPath)
	tour, err := tournament.New(settings)
	if err != nil {
		log.Fatalf("Error creating tournament: %v", err)
	}
	st := openStore(ctx, settings)
	if _, err := st.Save(ctx, tour, ""); err != nil {
		log.Fatalf("Error saving new tournament: %v", err)
	}
	if *write {
		if err := internal.SaveConfig(*configPath, settings); err != nil {
			log.Fatalf("Error writing %v: %v", *configPath, err)
		}
	}

	fmt.Printf("Created %q: %v rounds of %v, scored by %v / %v / %v\n",
		settings.Name, settings.Rounds, settings.Variant, settings.GameSystem,
		settings.RoundSystem, settings.TournamentSystem)
}

func handleImport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := configFlag(fs)
	url := fs.String("url", "", "Registration page holding the entries table")
	file := fs.String("file", "", "Saved HTML file holding the entries table")
	round := fs.Int("rollcall", 0, "Also record the roll call for this round")
	deadline := fs.String("deadline", "",
		"With --rollcall, only count entrants checked in by this time")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if (*url == "") == (*file == "") {
		fmt.Fprintln(os.Stderr, "Please provide exactly one of --url or --file.")
		fs.Usage()
		os.Exit(1)
	}

	var entries []roster.Entry
	var err error
	if *url != "" {
		client := internal.NewCachedHttpClient(nil, time.Minute)
		entries, err = roster.Fetch(ctx, client, *url)
	} else {
		var f *os.File
		if f, err = os.Open(*file); err == nil {
			entries, err = roster.ParseEntries(f)
			f.Close()
		}
	}
	if err != nil {
		log.Fatalf("Error reading entries: %v", err)
	}

	s := openSession(ctx, *configPath)
	added, err := s.tour.MergeEntrants(roster.Entrants(entries))
	if err != nil {
		log.Fatalf("Error merging entrants: %v", err)
	}
	fmt.Printf("Imported %v entries (%v new)\n", len(entries), added)

	if *round > 0 {
		present := roster.Present(entries)
		if *deadline != "" {
			when, err := internal.ParseDateOrZero(*deadline)
			if err != nil || when.IsZero() {
				log.Fatalf("Error parsing --deadline %q: %v", *deadline, err)
			}
			present = roster.CheckedInBy(entries, when)
		}
		if err := s.tour.RollCall(*round, present); err != nil {
			log.Fatalf("Error recording roll call: %v", err)
		}
		fmt.Printf("Round %v roll call: %v present\n", *round, len(present))
	}
	s.save(ctx)
}

func handleEntrant(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("entrant", flag.ExitOnError)
	configPath := configFlag(fs)
	id := fs.String("id", "", "Entrant id")
	name := fs.String("name", "", "Entrant name")
	standby := fs.Bool("standby", false, "Entrant only plays to fill a board")
	unranked := fs.Bool("unranked", false, "Entrant plays but is not ranked")
	doubles := fs.Bool("doubles", false, "Entrant may play two boards in a round")
	prefs := fs.String("prefs", "", "Power preferences, e.g. \"F,GI\"")
	handicap := fs.Float64("handicap", 0, "Added to the final tournament score")
	update := fs.Bool("update", false, "Replace an existing entrant")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *id == "" {
		fmt.Fprintln(os.Stderr, "Please provide a valid --id.")
		fs.Usage()
		os.Exit(1)
	}

	s := openSession(ctx, *configPath)
	e := seeding.Entrant{
		ID:              seeding.EntrantID(*id),
		Name:            *name,
		Standby:         *standby,
		Unranked:        *unranked,
		DoublesEligible: *doubles,
		Preferences:     *prefs,
		Handicap:        *handicap,
	}
	var err error
	if *update {
		old, _ := s.tour.Entrant(e.ID)
		e.Arrival = old.Arrival
		e.CheckedIn = old.CheckedIn
		err = s.tour.UpdateEntrant(e)
	} else {
		err = s.tour.AddEntrant(e)
	}
	if err != nil {
		log.Fatalf("Error saving entrant %v: %v", *id, err)
	}
	s.save(ctx)
}

func handleBias(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("bias", flag.ExitOnError)
	configPath := configFlag(fs)
	weight := fs.Int("weight", 1, "Extra meetings to count between the pair")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Please provide exactly two entrant ids.")
		fs.Usage()
		os.Exit(1)
	}

	s := openSession(ctx, *configPath)
	if err := s.tour.SetBias(seeding.EntrantID(fs.Arg(0)),
		seeding.EntrantID(fs.Arg(1)), *weight); err != nil {
		log.Fatalf("Error setting bias: %v", err)
	}
	s.save(ctx)
}

func handleRollCall(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rollcall", flag.ExitOnError)
	configPath := configFlag(fs)
	round := fs.Int("round", 0, "Round number")
	all := fs.Bool("all", false, "Mark every registered entrant present")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)

	s := openSession(ctx, *configPath)
	var present []seeding.EntrantID
	if *all {
		for _, e := range s.tour.Entrants {
			present = append(present, e.ID)
		}
	}
	for _, id := range fs.Args() {
		present = append(present, seeding.EntrantID(id))
	}
	if err := s.tour.RollCall(*round, present); err != nil {
		log.Fatalf("Error recording roll call: %v", err)
	}
	s.save(ctx)

	r, _ := s.tour.Round(*round)
	fmt.Printf("Round %v roll call: %v present\n", *round, len(r.Present))
}

func handleOptions(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("options", flag.ExitOnError)
	configPath := configFlag(fs)
	round := fs.Int("round", 0, "Round number")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)

	s := openSession(ctx, *configPath)
	opts, err := s.tour.AttendanceOptions(*round)
	if err != nil {
		log.Fatalf("Error reconciling attendance: %v", err)
	}
	fmt.Print(tournament.BuildOptionsOutput(*round, opts))
}

func idList(s string) []seeding.EntrantID {
	var ret []seeding.EntrantID
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			ret = append(ret, seeding.EntrantID(f))
		}
	}
	return ret
}

// parsePins reads "id=board" pairs.
func parsePins(s string) ([]seeding.Pin, error) {
	var ret []seeding.Pin
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f == "" {
			continue
		}
		id, board, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("pin %q is not id=board", f)
		}
		n, err := strconv.Atoi(board)
		if err != nil {
			return nil, fmt.Errorf("pin %q: %w", f, err)
		}
		ret = append(ret, seeding.Pin{Entrant: seeding.EntrantID(id), Board: n})
	}
	return ret, nil
}

func handleSeed(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := configFlag(fs)
	round := fs.Int("round", 0, "Round number")
	option := fs.Int("option", 1, "Attendance option from 'diptd options'")
	sit := fs.String("sit", "", "Comma separated entrants sitting out")
	double := fs.String("double", "", "Comma separated entrants playing two boards")
	standby := fs.String("standby", "", "Comma separated standbys called up")
	pins := fs.String("pin", "", "Comma separated id=board pins")
	seed := fs.Int64("seed", 1, "Random seed; the same seed gives the same seating")
	commit := fs.Bool("commit", false, "Record the seating and start the games")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)

	s := openSession(ctx, *configPath)
	opts, err := s.tour.AttendanceOptions(*round)
	if err != nil {
		log.Fatalf("Error reconciling attendance: %v", err)
	}
	if *option < 1 || *option > len(opts) {
		log.Fatalf("Option %v not in 1..%v", *option, len(opts))
	}
	opt := opts[*option-1]

	sel, err := s.tour.SuggestSelection(*round, opt)
	if err != nil {
		log.Fatalf("Error suggesting attendance: %v", err)
	}
	if *sit != "" {
		sel.Sitters = idList(*sit)
	}
	if *double != "" {
		sel.Doublers = idList(*double)
	}
	if *standby != "" {
		sel.Standbys = idList(*standby)
	}
	pinList, err := parsePins(*pins)
	if err != nil {
		log.Fatalf("Error parsing --pin: %v", err)
	}

	p, err := s.tour.ProposeSeeding(ctx, *round, opt, sel, pinList, *seed)
	if err != nil {
		log.Fatalf("Error seeding round %v: %v", *round, err)
	}
	if *commit {
		if err := s.tour.CommitSeeding(p); err != nil {
			log.Fatalf("Error committing round %v: %v", *round, err)
		}
		s.save(ctx)
	}
	fmt.Print(tournament.BuildSeatingOutput(s.tour, p))
	if !*commit {
		fmt.Printf("\nRun '%s seed --round %v --option %v --seed %v --commit' with the same selection to record this seating\n",
			os.Args[0], *round, *option, *seed)
	}
}

func gameFlags(fs *flag.FlagSet) (round, board *int) {
	return fs.Int("round", 0, "Round number"), fs.Int("board", 0, "Board number")
}

func parseSeason(s string) (diplomacy.Season, error) {
	switch strings.ToUpper(s) {
	case "S", "SPRING":
		return diplomacy.Spring, nil
	case "F", "FALL", "AUTUMN":
		return diplomacy.Fall, nil
	}
	return "", fmt.Errorf("unknown season %q", s)
}

func parsePowers(v diplomacy.Variant, s string) ([]diplomacy.Power, error) {
	var ret []diplomacy.Power
	for _, f := range strings.Split(s, ",") {
		if strings.TrimSpace(f) == "" {
			continue
		}
		p, ok := v.ParsePower(f)
		if !ok {
			return nil, fmt.Errorf("unknown power %q", f)
		}
		ret = append(ret, p)
	}
	return ret, nil
}

func handleGame(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("game", flag.ExitOnError)
	configPath := configFlag(fs)
	round, board := gameFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)

	s := openSession(ctx, *configPath)
	r, err := s.tour.Round(*round)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	for _, g := range r.Games {
		if *board == 0 || g.Board == *board {
			fmt.Println(tournament.BuildGameOutput(s.tour, g))
		}
	}
}

func handleCentres(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("centres", flag.ExitOnError)
	configPath := configFlag(fs)
	round, board := gameFlags(fs)
	year := fs.Int("year", 0, "Game year, e.g. 1904")
	season := fs.String("season", "F", "Season: S or F")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)
	mustInt(fs, "board", *board)
	mustInt(fs, "year", *year)

	s := openSession(ctx, *configPath)
	snap := diplomacy.Snapshot{Year: *year, Centres: make(map[diplomacy.Power]int)}
	var err error
	if snap.Season, err = parseSeason(*season); err != nil {
		log.Fatalf("Error: %v", err)
	}
	// counts are given as POWER=N
	for _, arg := range fs.Args() {
		code, count, ok := strings.Cut(arg, "=")
		p, known := s.variant().ParsePower(code)
		n, convErr := strconv.Atoi(count)
		if !ok || !known || convErr != nil {
			log.Fatalf("Error: %q is not POWER=COUNT", arg)
		}
		snap.Centres[p] = n
	}
	if err := s.tour.RecordCentres(*round, *board, snap); err != nil {
		log.Fatalf("Error recording centres: %v", err)
	}
	s.save(ctx)

	g, _ := s.tour.Game(*round, *board)
	fmt.Print(tournament.BuildGameOutput(s.tour, g))
}

func handleDraw(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	configPath := configFlag(fs)
	round, board := gameFlags(fs)
	year := fs.Int("year", 0, "Game year of the vote")
	season := fs.String("season", "S", "Season of the vote: S or F")
	proposer := fs.String("proposer", "", "Proposing power")
	powers := fs.String("powers", "", "Comma separated powers included in the draw")
	votesFor := fs.Int("for", 0, "Votes for")
	votesAgainst := fs.Int("against", 0, "Votes against")
	passed := fs.Bool("passed", false, "The proposal passed")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)
	mustInt(fs, "board", *board)
	mustInt(fs, "year", *year)

	s := openSession(ctx, *configPath)
	v := s.variant()
	d := diplomacy.DrawProposal{
		Year:         *year,
		VotesFor:     *votesFor,
		VotesAgainst: *votesAgainst,
		Passed:       *passed,
	}
	var err error
	if d.Season, err = parseSeason(*season); err != nil {
		log.Fatalf("Error: %v", err)
	}
	if *proposer != "" {
		p, ok := v.ParsePower(*proposer)
		if !ok {
			log.Fatalf("Error: unknown power %q", *proposer)
		}
		d.Proposer = p
	}
	if d.Powers, err = parsePowers(v, *powers); err != nil {
		log.Fatalf("Error: %v", err)
	}
	if err := s.tour.RecordDrawVote(*round, *board, d); err != nil {
		log.Fatalf("Error recording draw vote: %v", err)
	}
	s.save(ctx)

	g, _ := s.tour.Game(*round, *board)
	fmt.Print(tournament.BuildGameOutput(s.tour, g))
}

func handleEliminate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("eliminate", flag.ExitOnError)
	configPath := configFlag(fs)
	round, board := gameFlags(fs)
	year := fs.Int("year", 0, "Year the power was eliminated")
	power := fs.String("power", "", "Eliminated power")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)
	mustInt(fs, "board", *board)
	mustInt(fs, "year", *year)

	s := openSession(ctx, *configPath)
	p, ok := s.variant().ParsePower(*power)
	if !ok {
		log.Fatalf("Error: unknown power %q", *power)
	}
	if err := s.tour.RecordElimination(*round, *board, p, *year); err != nil {
		log.Fatalf("Error recording elimination: %v", err)
	}
	s.save(ctx)
}

func handleEnd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("end", flag.ExitOnError)
	configPath := configFlag(fs)
	round, board := gameFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	mustInt(fs, "round", *round)
	mustInt(fs, "board", *board)

	s := openSession(ctx, *configPath)
	if err := s.tour.EndGame(*round, *board); err != nil {
		log.Fatalf("Error ending game: %v", err)
	}
	s.save(ctx)

	g, _ := s.tour.Game(*round, *board)
	fmt.Print(tournament.BuildGameOutput(s.tour, g))
}

func handleFinish(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("finish", flag.ExitOnError)
	configPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := openSession(ctx, *configPath)
	if err := s.tour.Finish(); err != nil {
		log.Fatalf("Error finishing tournament: %v", err)
	}
	s.save(ctx)
	fmt.Print(tournament.BuildStandingsOutput(s.tour))
}

func handleStandings(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("standings", flag.ExitOnError)
	configPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := openSession(ctx, *configPath)
	fmt.Print(tournament.BuildStandingsOutput(s.tour))
}

func handleExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := configFlag(fs)
	asJSON := fs.Bool("json", false, "Write JSON instead of tab separated values")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := openSession(ctx, *configPath)
	rows, err := s.tour.Export()
	if err != nil {
		log.Fatalf("Error exporting results: %v", err)
	}
	if !*asJSON {
		fmt.Print(tournament.BuildExportOutput(rows))
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		log.Fatalf("Error encoding results: %v", err)
	}
}

func handleSystems(ctx context.Context, args []string) {
	fmt.Println("Game scoring systems:")
	for _, sys := range scoring.GameSystems() {
		fmt.Printf("  - %s: %s\n", sys.Name(), sys.Description())
	}
	fmt.Println("\nRound scoring systems:")
	for _, sys := range scoring.RoundSystems() {
		fmt.Printf("  - %s\n", sys.Name())
	}
	fmt.Println("\nTournament scoring systems:")
	for _, sys := range scoring.TournamentSystems() {
		fmt.Printf("  - %s\n", sys.Name())
	}
}
