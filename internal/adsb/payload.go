package adsb

import (
	"math"
	"strings"
)

// Velocity subtypes
const (
	velocityGroundSpeed           = 1
	velocityGroundSpeedSupersonic = 2
	velocityAirspeed              = 3
	velocityAirspeedSupersonic    = 4
)

// DecodePayload interprets the 51-bit payload of an extended squitter.
// Type codes without a known layout, and payloads of the wrong length,
// produce an empty set of fields.
func DecodePayload(tc int, payload string, ref Reference) Fields {
	if len(payload) != PayloadBits || !isBinary(payload) {
		return Fields{}
	}

	switch CategoryFromTypeCode(tc) {
	case AircraftIdentification:
		return decodeIdentification(tc, payload)
	case AirborneVelocity:
		return decodeVelocity(payload)
	case AirbornePosition:
		return decodePosition(tc, payload, ref)
	}
	return Fields{}
}

// decodeIdentification extracts the emitter category and the callsign
func decodeIdentification(tc int, payload string) Fields {
	fields := Fields{}

	ec := field(payload, 0, 3)
	if tc >= 1 && tc <= len(emitterCategories) && ec < len(emitterCategories[tc-1]) {
		fields[FieldEmitterType] = NewDataPoint("Type", emitterCategories[tc-1][ec], "")
	}

	var id strings.Builder
	for i := 3; i+6 <= len(payload); i += 6 {
		id.WriteByte(IdentCharset[field(payload, i, i+6)])
	}
	fields[FieldIdentification] = NewDataPoint("ID", strings.TrimRight(id.String(), "_"), "")

	return fields
}

// signed applies a sign bit (1 = negative) to a biased magnitude field.
// A raw magnitude of zero means no information is available.
func signed(payload string, signPos, start, end int) (int, bool) {
	raw := field(payload, start, end)
	if raw == 0 {
		return 0, false
	}
	v := raw - 1
	if flag(payload, signPos) {
		v = -v
	}
	return v, true
}

// decodeVelocity extracts ground speed, heading and vertical rate
func decodeVelocity(payload string) Fields {
	subtype := field(payload, 0, 3)
	if subtype < velocityGroundSpeed || subtype > velocityAirspeedSupersonic {
		return Fields{}
	}

	fields := Fields{}
	if subtype <= velocityGroundSpeedSupersonic {
		fields[FieldHorzType] = NewDataPoint("Horz. Type", "GROUND", "")

		ew, okEW := signed(payload, 8, 9, 19)
		ns, okNS := signed(payload, 19, 20, 30)
		if okEW && okNS {
			if subtype == velocityGroundSpeedSupersonic {
				ew *= 4
				ns *= 4
			}
			speed := math.Hypot(float64(ew), float64(ns))
			heading := math.Mod(math.Atan2(float64(ew), float64(ns))*180/math.Pi+360, 360)
			fields[FieldHorzVelocity] = NewDataPoint("Horz. Velocity", speed, UnitKnots)
			fields[FieldHeading] = NewDataPoint("Heading", heading, UnitDegrees)
		}
	} else {
		fields[FieldHorzType] = NewDataPoint("Horz. Type", "AIR", "")
	}

	vertType := "GEO"
	if flag(payload, 30) {
		vertType = "BARO"
	}
	fields[FieldVertType] = NewDataPoint("Vert. Type", vertType, "")

	// sign 0 = up, 1 = down
	if vr, ok := signed(payload, 31, 32, 41); ok {
		fields[FieldVertVelocity] = NewDataPoint("Vert. Velocity", vr*64, UnitFeetPerM)
	}

	return fields
}

// decodePosition resolves the CPR position and the altitude. Type codes
// 20-22 carry GNSS height in metres instead of barometric altitude.
func decodePosition(tc int, payload string, ref Reference) Fields {
	frame := CPRFrame{
		Odd:    flag(payload, 16),
		LatCPR: uint32(field(payload, 17, 34)),
		LonCPR: uint32(field(payload, 34, 51)),
	}
	lat, lon := DecodeCPR(frame, ref)

	fields := Fields{
		FieldLatitude:  NewDataPoint("Latitude", lat, UnitDegrees),
		FieldLongitude: NewDataPoint("Longitude", lon, UnitDegrees),
	}
	ac12 := field(payload, 3, 15)
	if tc >= 20 {
		if ac12 != 0 {
			fields[FieldGNSSHeight] = NewDataPoint("GNSS Height", ac12, UnitMeters)
		}
		return fields
	}
	if alt, ok := decodeAC12(ac12); ok {
		fields[FieldAltitude] = NewDataPoint("Altitude", alt, UnitFeet)
	}
	return fields
}

// decodeAC12 decodes the 12-bit altitude field. With the Q bit set the
// remaining 11 bits count 25 ft steps from -1000 ft; otherwise the field is
// Gillham coded in 100 ft steps.
func decodeAC12(ac12 int) (int, bool) {
	if ac12 == 0 {
		return 0, false
	}

	if ac12&0x10 != 0 {
		n := ((ac12 & 0x0FE0) >> 1) | (ac12 & 0x000F)
		return n*25 - 1000, true
	}

	// Make a 13 bit Gillham coded altitude by inserting M=0 at bit 6
	n13 := ((ac12 & 0x0FC0) << 1) | (ac12 & 0x003F)
	hundreds, ok := modeAToModeC(decodeID13(n13))
	if !ok {
		return 0, false
	}
	return hundreds * 100, true
}

// decodeID13 reorders a 13-bit identity/altitude field into the
// A4A2A1 B4B2B1 C4C2C1 D4D2D1 hex nibble layout
func decodeID13(id13 int) int {
	var hex int
	bits := [...]struct{ from, to int }{
		{0x1000, 0x0010}, // C1
		{0x0800, 0x1000}, // A1
		{0x0400, 0x0020}, // C2
		{0x0200, 0x2000}, // A2
		{0x0100, 0x0040}, // C4
		{0x0080, 0x4000}, // A4
		{0x0020, 0x0100}, // B1
		{0x0010, 0x0001}, // D1
		{0x0008, 0x0200}, // B2
		{0x0004, 0x0002}, // D2
		{0x0002, 0x0400}, // B4
		{0x0001, 0x0004}, // D4
	}
	for _, b := range bits {
		if id13&b.from != 0 {
			hex |= b.to
		}
	}
	return hex
}

// modeAToModeC converts a Gillham code to an altitude in hundreds of feet
func modeAToModeC(modeA int) (int, bool) {
	// D1 set, stray bits, or no C pulse at all
	if modeA&^0x7776 != 0 || modeA&0x0070 == 0 {
		return 0, false
	}

	oneHundreds := 0
	if modeA&0x0010 != 0 {
		oneHundreds ^= 0x007 // C1
	}
	if modeA&0x0020 != 0 {
		oneHundreds ^= 0x003 // C2
	}
	if modeA&0x0040 != 0 {
		oneHundreds ^= 0x001 // C4
	}
	// swap 7 and 5
	if oneHundreds&5 == 5 {
		oneHundreds ^= 2
	}
	if oneHundreds > 5 {
		return 0, false
	}

	fiveHundreds := 0
	steps := [...]struct{ bit, mask int }{
		{0x0002, 0x0FF}, // D2
		{0x0004, 0x07F}, // D4
		{0x1000, 0x03F}, // A1
		{0x2000, 0x01F}, // A2
		{0x4000, 0x00F}, // A4
		{0x0100, 0x007}, // B1
		{0x0200, 0x003}, // B2
		{0x0400, 0x001}, // B4
	}
	for _, s := range steps {
		if modeA&s.bit != 0 {
			fiveHundreds ^= s.mask
		}
	}

	if fiveHundreds&1 != 0 {
		oneHundreds = 6 - oneHundreds
	}
	return fiveHundreds*5 + oneHundreds - 13, true
}
