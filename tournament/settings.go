/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package tournament

import (
	"fmt"
	"time"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
	"github.com/mikeb26/diplomacy-tdbot/internal"
	"github.com/mikeb26/diplomacy-tdbot/scoring"
	"github.com/mikeb26/diplomacy-tdbot/seeding"
)

type SeederSettings struct {
	Starts     int `toml:"starts" env:"STARTS" json:"starts"`
	Iterations int `toml:"iterations" env:"ITERATIONS" json:"iterations"`
	Exponent   int `toml:"exponent" env:"EXPONENT" json:"exponent"`
	// Budget caps the wall clock time of one seeding run, e.g. "5s". Empty
	// means no cap, which keeps runs reproducible.
	Budget string `toml:"budget" env:"BUDGET" json:"budget,omitempty"`
}

type StoreSettings struct {
	Dir    string `toml:"dir" env:"DIR" json:"dir,omitempty"`
	Bucket string `toml:"bucket" env:"BUCKET" json:"bucket,omitempty"`
	Prefix string `toml:"prefix" env:"PREFIX" json:"prefix,omitempty"`
	// ScoreCache names an S3 bucket shared by every scoring process
	ScoreCache string `toml:"score_cache" env:"SCORE_CACHE" json:"scoreCache,omitempty"`
}

// Settings configures a tournament. They are read from a TOML file and
// DIPTD_* environment variables.
type Settings struct {
	Name             string         `toml:"name" env:"NAME" json:"name"`
	Variant          string         `toml:"variant" env:"VARIANT" json:"variant"`
	Rounds           int            `toml:"rounds" env:"ROUNDS" json:"rounds"`
	GameSystem       string         `toml:"game_system" env:"GAME_SYSTEM" json:"gameSystem"`
	RoundSystem      string         `toml:"round_system" env:"ROUND_SYSTEM" json:"roundSystem"`
	TournamentSystem string         `toml:"tournament_system" env:"TOURNAMENT_SYSTEM" json:"tournamentSystem"`
	PowerAssignment  string         `toml:"power_assignment" env:"POWER_ASSIGNMENT" json:"powerAssignment"`
	RandomFallback   bool           `toml:"random_fallback" env:"RANDOM_FALLBACK" json:"randomFallback"`
	Seeder           SeederSettings `toml:"seeder" envPrefix:"SEEDER_" json:"seeder"`
	Store            StoreSettings  `toml:"store" envPrefix:"STORE_" json:"store"`
}

func DefaultSettings() Settings {
	return Settings{
		Variant:          diplomacy.Standard.Name,
		Rounds:           3,
		GameSystem:       "Sum of Squares",
		RoundSystem:      "Best game counts",
		TournamentSystem: "Sum best 2 rounds",
		PowerAssignment:  string(seeding.AssignRandom),
		Seeder: SeederSettings{
			Starts:     seeding.DefaultStarts,
			Iterations: seeding.DefaultIterations,
			Exponent:   seeding.DefaultExponent,
		},
		Store: StoreSettings{Dir: "."},
	}
}

// LoadSettings returns the defaults overridden by the TOML file at path and
// then by the environment.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if err := internal.LoadConfig(path, &s); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}

type systems struct {
	variant    diplomacy.Variant
	game       scoring.GameSystem
	round      scoring.RoundSystem
	tournament scoring.TournamentSystem
	assign     seeding.AssignMode
	budget     time.Duration
}

func (s Settings) resolve() (systems, error) {
	var ret systems
	var err error
	if ret.variant, err = diplomacy.VariantNamed(s.Variant); err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if ret.game, err = scoring.GameSystemNamed(s.GameSystem); err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if ret.round, err = scoring.RoundSystemNamed(s.RoundSystem); err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if ret.tournament, err = scoring.TournamentSystemNamed(s.TournamentSystem); err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if ret.assign, err = seeding.ParseAssignMode(s.PowerAssignment); err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	if s.Seeder.Budget != "" {
		if ret.budget, err = time.ParseDuration(s.Seeder.Budget); err != nil {
			return ret, fmt.Errorf("%w: seeder budget: %w", ErrInvalidSettings, err)
		}
	}
	if s.Rounds < 1 {
		return ret, fmt.Errorf("%w: %v rounds", ErrInvalidSettings, s.Rounds)
	}

	return ret, nil
}

// Validate checks that every named system and variant exists.
func (s Settings) Validate() error {
	_, err := s.resolve()
	return err
}

func (s Settings) seeder(sys systems) *seeding.Seeder {
	ret := seeding.NewSeeder(sys.variant.BoardSize())
	if s.Seeder.Starts > 0 {
		ret.Starts = s.Seeder.Starts
	}
	if s.Seeder.Iterations > 0 {
		ret.Iterations = s.Seeder.Iterations
	}
	if s.Seeder.Exponent > 0 {
		ret.Exponent = s.Seeder.Exponent
	}
	ret.Budget = sys.budget

	return ret
}
