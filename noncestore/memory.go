package noncestore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vitalvas/oauth1/oauth1"
)

const defaultMemoryMaxEntries = 65536

// ErrStoreFull is returned by Memory.CheckAndRecord when every slot holds a
// record that is still inside the retention window.
var ErrStoreFull = errors.New("noncestore: memory store is full")

// Memory is an in-process nonce store. Records whose timestamp falls
// before now minus the retention window are pruned; the window must be at
// least the server's timestamp threshold.
type Memory struct {
	mu         sync.Mutex
	window     int64
	maxEntries int
	entries    map[string]int64

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewMemory creates a Memory store retaining nonces for window.
func NewMemory(window time.Duration) *Memory {
	return NewMemoryWithLimits(window, defaultMemoryMaxEntries)
}

// NewMemoryWithLimits creates a Memory store holding at most maxEntries
// records. Records are only dropped once they leave the window; a full
// store rejects new nonces with ErrStoreFull.
func NewMemoryWithLimits(window time.Duration, maxEntries int) *Memory {
	if window <= 0 {
		window = oauth1.DefaultTimestampThreshold
	}

	if maxEntries <= 0 {
		maxEntries = defaultMemoryMaxEntries
	}

	return &Memory{
		window:     wholeSeconds(window),
		maxEntries: maxEntries,
		entries:    map[string]int64{},
		Now:        time.Now,
	}
}

// CheckAndRecord implements oauth1.NonceStore.
func (m *Memory) CheckAndRecord(_ context.Context, consumer oauth1.Consumer, token *oauth1.Token, nonce string, timestamp int64) (bool, error) {
	key := recordKey(consumer, token, nonce, timestamp)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked(now)

	if _, ok := m.entries[key]; ok {
		return false, nil
	}

	if len(m.entries) >= m.maxEntries {
		return false, ErrStoreFull
	}

	m.entries[key] = timestamp

	return true, nil
}

// Prune removes records outside the retention window and returns how many
// were removed.
func (m *Memory) Prune(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pruneLocked(now), nil
}

// Len returns the number of records held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *Memory) now() int64 {
	if m.Now != nil {
		return m.Now().Unix()
	}

	return time.Now().Unix()
}

func (m *Memory) pruneLocked(now int64) int {
	cutoff := now - m.window
	pruned := 0

	for key, ts := range m.entries {
		if ts < cutoff {
			delete(m.entries, key)
			pruned++
		}
	}

	return pruned
}

// wholeSeconds rounds d up to a whole number of seconds.
func wholeSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

// recordKey joins the tuple with NUL separators.
func recordKey(consumer oauth1.Consumer, token *oauth1.Token, nonce string, timestamp int64) string {
	return strings.Join([]string{
		consumer.Key,
		tokenKey(token),
		nonce,
		strconv.FormatInt(timestamp, 10),
	}, "\x00")
}

func tokenKey(token *oauth1.Token) string {
	if token == nil {
		return ""
	}

	return token.Key
}

var _ oauth1.NonceStore = (*Memory)(nil)
