package generation

import (
	"strings"
	"sync"
)

// placeholderCredentials are values commonly left behind by example env
// files. They are filtered out at pool construction so a copy-pasted
// .env.example never burns a retry attempt.
var placeholderCredentials = map[string]struct{}{
	"YOUR_API_KEY":        {},
	"YOUR_GEMINI_API_KEY": {},
	"PLACEHOLDER":         {},
	"changeme":            {},
}

// KeyPool hands out API credentials round-robin so load spreads across
// keys even on first attempts, and a rate-limited key is not retried
// back-to-back.
//
// The cursor is shared mutable state across all in-flight generation
// calls and is serialized by a mutex. Strict fairness is not a
// correctness requirement, but serialization keeps rotation deterministic
// for a given call order.
type KeyPool struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewKeyPool creates a pool from the given credentials, dropping empty and
// placeholder values. An empty pool is legal: Next then returns an empty
// credential so the remote call fails fast with a normal auth error
// instead of the pool panicking locally.
func NewKeyPool(keys []string) *KeyPool {
	pool := &KeyPool{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := placeholderCredentials[k]; ok {
			continue
		}
		pool.keys = append(pool.keys, k)
	}
	return pool
}

// Next returns the next credential in round-robin order. The n-th call
// (1-indexed from construction) returns keys[(n-1) mod len(keys)].
// Returns an empty string when the pool is empty.
func (p *KeyPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		return ""
	}

	key := p.keys[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.keys)
	return key
}

// Size returns the number of usable credentials in the pool.
func (p *KeyPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}
