package adsb

// Category classifies an extended squitter by its type code
type Category int

const (
	Unknown Category = iota
	AircraftIdentification
	SurfacePosition
	AirbornePosition
	AirborneVelocity
	AircraftStatus
	TargetStateStatus
	OperationStatus
)

var categoryNames = map[Category]string{
	Unknown:                "Unknown",
	AircraftIdentification: "Aircraft Identification",
	SurfacePosition:        "Surface Position",
	AirbornePosition:       "Airborne Position",
	AirborneVelocity:       "Airborne Velocity",
	AircraftStatus:         "Aircraft Status",
	TargetStateStatus:      "Target State and Status",
	OperationStatus:        "Operation Status",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[Unknown]
}

// categoryRanges maps inclusive type code ranges to categories; first match wins
var categoryRanges = []struct {
	lo, hi   int
	category Category
}{
	{1, 4, AircraftIdentification},
	{5, 8, SurfacePosition},
	{9, 18, AirbornePosition},
	{19, 19, AirborneVelocity},
	{20, 22, AirbornePosition},
	{28, 28, AircraftStatus},
	{29, 29, TargetStateStatus},
	{31, 31, OperationStatus},
}

// CategoryFromTypeCode derives the message category of a 5-bit type code
func CategoryFromTypeCode(tc int) Category {
	for _, r := range categoryRanges {
		if tc >= r.lo && tc <= r.hi {
			return r.category
		}
	}
	return Unknown
}
