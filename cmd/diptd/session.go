/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
	"github.com/mikeb26/diplomacy-tdbot/internal"
	"github.com/mikeb26/diplomacy-tdbot/scoring"
	"github.com/mikeb26/diplomacy-tdbot/store"
	"github.com/mikeb26/diplomacy-tdbot/tournament"
)

// session is one load-modify-save cycle against the configured store.
type session struct {
	settings tournament.Settings
	store    store.Store
	tour     *tournament.Tournament
	version  string
}

func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", internal.DefaultSettings, "Tournament settings file")
}

func loadSettings(path string) tournament.Settings {
	settings, err := tournament.LoadSettings(path)
	if err != nil {
		log.Fatalf("Error loading settings from %v: %v", path, err)
	}
	return settings
}

func openStore(ctx context.Context, settings tournament.Settings) store.Store {
	if settings.Store.Bucket == "" {
		return store.NewFileStore(settings.Store.Dir)
	}

	s3Store := store.NewS3Store(settings.Store.Bucket, settings.Store.Prefix)
	if err := s3Store.Init(ctx); err != nil {
		log.Fatalf("Error opening tournament bucket %v: %v", settings.Store.Bucket,
			err)
	}
	return s3Store
}

// scoreMemo shares computed scores through S3 when a score cache bucket is
// configured and falls back to memory otherwise.
func scoreMemo(ctx context.Context, settings tournament.Settings) *scoring.Memo {
	if settings.Store.ScoreCache == "" {
		return scoring.NewMemo(nil)
	}
	cache := store.NewS3Cache(ctx, settings.Store.ScoreCache, settings.Store.Prefix,
		true, true)
	if err := cache.Init(); err != nil {
		log.Printf("diptd: score cache unavailable, using memory: %v", err)
		return scoring.NewMemo(nil)
	}
	return scoring.NewMemo(cache)
}

func openSession(ctx context.Context, configPath string) *session {
	settings := loadSettings(configPath)
	s := &session{settings: settings, store: openStore(ctx, settings)}

	var err error
	s.tour, s.version, err = s.store.Load(ctx)
	if err != nil {
		log.Fatalf("Error loading tournament (run 'diptd init' first?): %v", err)
	}
	s.tour.SetMemo(scoreMemo(ctx, settings))

	return s
}

func (s *session) variant() diplomacy.Variant {
	v, err := s.tour.Variant()
	if err != nil {
		log.Fatalf("Error resolving variant: %v", err)
	}
	return v
}

func (s *session) save(ctx context.Context) {
	version, err := s.store.Save(ctx, s.tour, s.version)
	if err != nil {
		log.Fatalf("Error saving tournament: %v", err)
	}
	s.version = version
}

func mustInt(fs *flag.FlagSet, name string, val int) {
	if val <= 0 {
		fmt.Printf("Please provide a valid --%v.\n", name)
		fs.Usage()
		log.Fatalf("missing --%v", name)
	}
}
