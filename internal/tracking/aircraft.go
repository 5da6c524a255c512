package tracking

import (
	"time"

	"airport522/internal/adsb"
	"airport522/internal/metadata"
)

// Keyed is anything identified by an ICAO address
type Keyed interface {
	Key() string
}

// Key extracts the lowercase ICAO address of k, so aircraft, messages and
// plain addresses compare the same way
func Key(k Keyed) string {
	return k.Key()
}

// ICAO is a bare address usable wherever a Keyed value is expected
type ICAO string

func (i ICAO) Key() string { return normalize(string(i)) }

// Aircraft is a point-in-time copy of a tracked aircraft
type Aircraft struct {
	icao       string
	lastUpdate time.Time
	fields     adsb.Fields
	info       metadata.Info
}

// Key returns the lowercase ICAO address
func (a Aircraft) Key() string { return a.icao }

func (a Aircraft) LastUpdate() time.Time { return a.lastUpdate }

func (a Aircraft) Model() string { return a.info.Model }

func (a Aircraft) Operator() string { return a.info.Operator }

// Fields returns a copy of everything decoded for this aircraft so far
func (a Aircraft) Fields() adsb.Fields { return a.fields.Clone() }

// Field returns one accumulated value
func (a Aircraft) Field(name adsb.FieldName) (adsb.DataPoint, bool) {
	return a.fields.Get(name)
}

// entry is the mutable state held by the table
type entry struct {
	icao       string
	lastUpdate time.Time
	fields     adsb.Fields
	info       metadata.Info
}

func (e *entry) snapshot() Aircraft {
	return Aircraft{
		icao:       e.icao,
		lastUpdate: e.lastUpdate,
		fields:     e.fields.Clone(),
		info:       e.info,
	}
}
