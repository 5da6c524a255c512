package adsb

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FieldName identifies a decoded value. The set is closed: decoders only emit the names below.
type FieldName string

const (
	FieldEmitterType    FieldName = "type"
	FieldIdentification FieldName = "id"
	FieldHorzType       FieldName = "horz_type"
	FieldHorzVelocity   FieldName = "horz_vel"
	FieldHeading        FieldName = "heading"
	FieldVertType       FieldName = "vert_type"
	FieldVertVelocity   FieldName = "vert_vel"
	FieldLatitude       FieldName = "lat"
	FieldLongitude      FieldName = "lon"
	FieldAltitude       FieldName = "alt"
	FieldGNSSHeight     FieldName = "gnss_alt"
)

// fieldOrder fixes rendering order
var fieldOrder = []FieldName{
	FieldIdentification, FieldEmitterType,
	FieldLatitude, FieldLongitude, FieldAltitude, FieldGNSSHeight,
	FieldHorzType, FieldHorzVelocity, FieldHeading,
	FieldVertType, FieldVertVelocity,
}

// DataPoint is a labeled value with an optional unit
type DataPoint struct {
	label   string
	value   interface{}
	unit    string
	display string
}

// NewDataPoint builds a data point; floats display rounded to 4 decimal places
func NewDataPoint(label string, value interface{}, unit string) DataPoint {
	return DataPoint{
		label:   label,
		value:   value,
		unit:    unit,
		display: displayValue(value),
	}
}

func displayValue(value interface{}) string {
	switch v := value.(type) {
	case float64:
		s := strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
		if !strings.ContainsAny(s, ".NI") {
			s += ".0"
		}
		return s
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (d DataPoint) Label() string { return d.label }

func (d DataPoint) Value() interface{} { return d.value }

func (d DataPoint) Unit() string { return d.unit }

// Display is the precomputed display string of the value
func (d DataPoint) Display() string { return d.display }

// Float returns numeric values as float64
func (d DataPoint) Float() (float64, bool) {
	switch v := d.value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func (d DataPoint) String() string {
	if d.unit == "" {
		return fmt.Sprintf("%s: %s", d.label, d.display)
	}
	return fmt.Sprintf("%s: %s (%s)", d.label, d.display, d.unit)
}

// Fields maps field names to decoded values
type Fields map[FieldName]DataPoint

// Get returns the named value and whether it is present
func (f Fields) Get(name FieldName) (DataPoint, bool) {
	d, ok := f[name]
	return d, ok
}

// Clone returns an independent copy
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge overwrites same-named entries with those of other and keeps the rest
func (f Fields) Merge(other Fields) {
	for k, v := range other {
		f[k] = v
	}
}

// Ordered returns the data points in display order
func (f Fields) Ordered() []DataPoint {
	out := make([]DataPoint, 0, len(f))
	seen := make(map[FieldName]bool, len(f))
	for _, name := range fieldOrder {
		if d, ok := f[name]; ok {
			out = append(out, d)
			seen[name] = true
		}
	}
	var rest []string
	for name := range f {
		if !seen[name] {
			rest = append(rest, string(name))
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, f[FieldName(name)])
	}
	return out
}
