package tracking

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"airport522/internal/adsb"
	"airport522/internal/metadata"
)

// Defaults for table bounds and staleness
const (
	DefaultMaxAge        = 180 * time.Second
	DefaultCapacity      = 1000
	DefaultPruneFraction = 0.25
)

// Options configure a Table
type Options struct {
	// Capacity is the number of aircraft above which the oldest are pruned
	Capacity int
	// PruneFraction is the share of entries dropped when Capacity is exceeded
	PruneFraction float64
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// Table holds the currently tracked aircraft keyed by ICAO address.
// All methods are safe for concurrent use.
type Table struct {
	mu       sync.Mutex
	aircraft map[string]*entry
	lookup   metadata.Lookup
	opts     Options
	logger   *logrus.Logger
}

// NewTable creates a new aircraft table
func NewTable(lookup metadata.Lookup, opts Options, logger *logrus.Logger) *Table {
	if lookup == nil {
		lookup = metadata.Nop{}
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.PruneFraction <= 0 || opts.PruneFraction > 1 {
		opts.PruneFraction = DefaultPruneFraction
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Table{
		aircraft: make(map[string]*entry),
		lookup:   lookup,
		opts:     opts,
		logger:   logger,
	}
}

// Upsert merges fields into the aircraft with the given address, creating
// it if unseen. It reports whether a new aircraft was created.
func (t *Table) Upsert(icao string, fields adsb.Fields) (Aircraft, bool) {
	key := normalize(icao)
	now := t.opts.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.aircraft[key]; ok {
		e.fields.Merge(fields)
		e.lastUpdate = now
		return e.snapshot(), false
	}

	e := &entry{
		icao:       key,
		lastUpdate: now,
		fields:     fields.Clone(),
		info:       t.lookup.Lookup(key),
	}
	t.aircraft[key] = e

	t.logger.WithFields(logrus.Fields{
		"icao":     strings.ToUpper(key),
		"model":    e.info.Model,
		"operator": e.info.Operator,
	}).Debug("Tracking new aircraft")

	if len(t.aircraft) > t.opts.Capacity {
		t.pruneLocked(key)
	}
	return e.snapshot(), true
}

// UpsertMessage applies a valid decoded message; invalid messages are ignored
func (t *Table) UpsertMessage(msg *adsb.Message) (Aircraft, bool) {
	if !msg.Valid() {
		return Aircraft{}, false
	}
	return t.Upsert(msg.Key(), msg.Fields())
}

// pruneLocked drops the least recently updated fraction of the table,
// never the aircraft at keep
func (t *Table) pruneLocked(keep string) {
	entries := t.sortedLocked()
	n := int(math.Ceil(float64(len(entries)) * t.opts.PruneFraction))

	pruned := 0
	for i := len(entries) - 1; i >= 0 && pruned < n; i-- {
		if entries[i].icao == keep {
			continue
		}
		delete(t.aircraft, entries[i].icao)
		pruned++
	}

	t.logger.WithFields(logrus.Fields{
		"pruned":    pruned,
		"remaining": len(t.aircraft),
	}).Warn("Aircraft table over capacity, pruned oldest entries")
}

// EvictStale removes every aircraft not updated within maxAge of now and
// returns their addresses in sorted order
func (t *Table) EvictStale(now time.Time, maxAge time.Duration) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []string
	for key, e := range t.aircraft {
		if now.Sub(e.lastUpdate) > maxAge {
			delete(t.aircraft, key)
			evicted = append(evicted, key)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// Get returns the aircraft tracked under k
func (t *Table) Get(k Keyed) (Aircraft, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.aircraft[normalize(Key(k))]
	if !ok {
		return Aircraft{}, false
	}
	return e.snapshot(), true
}

// Len returns the number of tracked aircraft
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.aircraft)
}

// Snapshot returns copies of all aircraft, most recently updated first
func (t *Table) Snapshot() []Aircraft {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.sortedLocked()
	out := make([]Aircraft, len(entries))
	for i, e := range entries {
		out[i] = e.snapshot()
	}
	return out
}

// sortedLocked orders entries newest first, ties broken by address
func (t *Table) sortedLocked() []*entry {
	entries := make([]*entry, 0, len(t.aircraft))
	for _, e := range t.aircraft {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].lastUpdate.Equal(entries[j].lastUpdate) {
			return entries[i].lastUpdate.After(entries[j].lastUpdate)
		}
		return entries[i].icao < entries[j].icao
	})
	return entries
}

func normalize(icao string) string {
	return strings.ToLower(strings.TrimSpace(icao))
}
