/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */

// Package store persists tournaments. Every load returns an opaque version
// and every save must present the version it started from; a save against a
// version that has since moved on fails with seeding.ErrStaleSeedingAttempt
// so that two director sessions can never both commit a round.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/mikeb26/diplomacy-tdbot/seeding"
	"github.com/mikeb26/diplomacy-tdbot/tournament"
)

var (
	ErrNotFound = errors.New("tournament not found")
	ErrLocked   = errors.New("tournament locked by another save")
)

// Store loads and saves a single tournament. An empty version passed to Save
// creates the tournament and fails if one already exists.
type Store interface {
	Load(ctx context.Context) (*tournament.Tournament, string, error)
	Save(ctx context.Context, t *tournament.Tournament, version string) (string, error)
}

func stale(op string, want, got string) error {
	return fmt.Errorf("store.%v: saving over version %q but found %q: %w", op, want,
		got, seeding.ErrStaleSeedingAttempt)
}

// FileStore keeps a tournament as one JSON document on local disk. Its
// version is the content hash. Saves hold an exclusive lock file next to the
// document from the version check until the rename.
type FileStore struct {
	Path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Path: filepath.Join(dir, "tournament.json")}
}

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *FileStore) read() ([]byte, string, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("store.load: %v: %w", s.Path, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("store.load: %w", err)
	}
	return data, contentVersion(data), nil
}

func (s *FileStore) Load(_ context.Context) (*tournament.Tournament, string, error) {
	data, version, err := s.read()
	if err != nil {
		return nil, "", err
	}
	var t tournament.Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, "", fmt.Errorf("store.load: %v: %w", s.Path, err)
	}

	return &t, version, nil
}

func (s *FileStore) lockPath() string {
	return s.Path + ".lock"
}

func (s *FileStore) lock() (func(), error) {
	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("store.save: %v exists (remove it if no save is "+
			"running): %w", s.lockPath(), ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("store.save: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() {
		if err := os.Remove(s.lockPath()); err != nil {
			log.Printf("store.save: failed to remove %v: %v", s.lockPath(), err)
		}
	}, nil
}

func (s *FileStore) Save(_ context.Context, t *tournament.Tournament,
	version string) (string, error) {

	unlock, err := s.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	_, current, err := s.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if current != version {
		return "", stale("save", version, current)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("store.save: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".tournament-*.json")
	if err != nil {
		return "", fmt.Errorf("store.save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("store.save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("store.save: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return "", fmt.Errorf("store.save: %w", err)
	}

	return contentVersion(data), nil
}
