package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"go.uber.org/zap"
)

// AudioCache is a thread-safe in-memory cache for synthesized audio, keyed
// by sha256 of the text. Re-reading the same step list doesn't pay for a
// second synthesis round-trip.
type AudioCache struct {
	mu      sync.RWMutex
	entries map[string][]byte // hash -> WAV bytes
	log     *zap.Logger
	hits    int64
	misses  int64
}

// NewAudioCache creates an empty audio cache.
func NewAudioCache(log *zap.Logger) *AudioCache {
	return &AudioCache{
		entries: make(map[string][]byte),
		log:     log,
	}
}

// Get returns cached audio for the given text and true, or nil and false.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := hashKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.log.Debug("audio cache hit", zap.String("text", truncate(text, 40)), zap.Int("bytes", len(data)))
	return data, true
}

// Put stores synthesized audio for the given text.
func (c *AudioCache) Put(text string, data []byte) {
	key := hashKey(text)

	c.mu.Lock()
	c.entries[key] = data
	c.mu.Unlock()
}

// Stats returns cumulative hit/miss counts.
func (c *AudioCache) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func hashKey(text string) string {
	sum := sha256.Sum256([]byte(DefaultVoice + ":" + text))
	return hex.EncodeToString(sum[:])
}
