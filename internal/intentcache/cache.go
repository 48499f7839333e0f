// Package intentcache memoizes the Command Engine's intent-classification
// LLM call for 30 seconds, keyed on the bot, the visible command set, and
// the user's utterance, so a repeated ask within the window skips the round
// trip entirely (SPEC_FULL.md §4.5). Grounded on the Redis client wiring in
// a sibling example repo's infrastructure/persistence/redis.Cache: same
// SETEX/GET shape, trimmed to the one operation this engine needs.
package intentcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

const TTL = 30 * time.Second

// Cache memoizes classify(botId, visibleNames, utterance) -> matched command
// name (or "" for no match). Both implementations share this interface so
// the Command Engine never branches on which backend is active.
type Cache interface {
	Get(ctx context.Context, botId string, visibleNames []string, utterance string) (result string, ok bool)
	Set(ctx context.Context, botId string, visibleNames []string, utterance, result string)
}

// Key builds the cache key spec.md's design note describes:
// sha256(botId + "|" + sortedVisibleNames + "|" + utterance).
func Key(botId string, visibleNames []string, utterance string) string {
	sorted := append([]string(nil), visibleNames...)
	sort.Strings(sorted)
	h := sha256.New()
	h.Write([]byte(botId))
	h.Write([]byte("|"))
	h.Write([]byte(strings.Join(sorted, ",")))
	h.Write([]byte("|"))
	h.Write([]byte(utterance))
	return hex.EncodeToString(h.Sum(nil))
}
