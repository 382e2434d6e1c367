/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gregjones/httpcache"
	"github.com/mikeb26/diplomacy-tdbot/diplomacy"
)

// Memo caches game scores keyed by scoring system and game state. Any
// httpcache.Cache works as backing store; the S3 cache in package store lets
// several processes share results.
type Memo struct {
	cache httpcache.Cache
}

// NewMemo returns a Memo over cache, or over an in-memory cache if cache is
// nil.
func NewMemo(cache httpcache.Cache) *Memo {
	if cache == nil {
		cache = httpcache.NewMemoryCache()
	}
	return &Memo{cache: cache}
}

func memoKey(sys GameSystem, g *diplomacy.GameState) (string, error) {
	state, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(sys.Name()))
	h.Write([]byte{0})
	h.Write(state)

	return "scores/" + hex.EncodeToString(h.Sum(nil)), nil
}

// Scores returns sys.Scores(g), from the cache when possible.
func (m *Memo) Scores(sys GameSystem, g *diplomacy.GameState) (GameScores, error) {
	key, err := memoKey(sys, g)
	if err != nil {
		return nil, fmt.Errorf("scoring.memo: failed to encode game state: %w", err)
	}
	if data, ok := m.cache.Get(key); ok {
		var ret GameScores
		if err := json.Unmarshal(data, &ret); err == nil {
			return ret, nil
		}
		log.Printf("scoring.memo: discarding corrupt entry %v", key)
		m.cache.Delete(key)
	}

	ret, err := sys.Scores(g)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(ret)
	if err == nil {
		m.cache.Set(key, data)
	}

	return ret, nil
}

// PowerResults is PowerResults backed by the memo.
func (m *Memo) PowerResults(sys GameSystem,
	g *diplomacy.GameState) (map[diplomacy.Power]Score, error) {

	scores, err := m.Scores(sys, g)
	if err != nil {
		return nil, err
	}

	return withFinality(sys, g, scores), nil
}
