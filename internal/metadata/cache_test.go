package metadata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingLookup struct {
	calls int
}

func (c *countingLookup) Lookup(icao string) Info {
	c.calls++
	return Info{Model: "model-" + icao, Operator: "op"}
}

func TestCachedLookup(t *testing.T) {
	backend := &countingLookup{}
	cached := NewCached(backend, time.Minute)

	assert.Equal(t, "model-4840d6", cached.Lookup("4840D6").Model)
	assert.Equal(t, "model-4840d6", cached.Lookup("4840d6").Model)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, 1, cached.Len())

	cached.Lookup("40621d")
	assert.Equal(t, 2, backend.calls)
}

func TestCachedLookupExpires(t *testing.T) {
	backend := &countingLookup{}
	cached := NewCached(backend, 10*time.Millisecond)

	cached.Lookup("4840d6")
	time.Sleep(30 * time.Millisecond)
	cached.Lookup("4840d6")
	assert.Equal(t, 2, backend.calls)
}
