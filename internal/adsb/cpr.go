package adsb

import "math"

// Reference is the receiver location CPR positions are resolved against.
// It must lie within half a latitude zone (about 300 km) of the aircraft.
type Reference struct {
	Lat float64
	Lon float64
}

// CPRFrame holds the raw fields of one airborne position report
type CPRFrame struct {
	Odd    bool
	LatCPR uint32
	LonCPR uint32
}

// cprMod performs always positive MOD operation
func cprMod(a, b float64) float64 {
	res := math.Mod(a, b)
	if res < 0 {
		res += b
	}
	return res
}

// NL returns the number of longitude zones at the given latitude
func NL(lat float64) int {
	lat = math.Abs(lat)
	switch {
	case lat == 0:
		return 59
	case lat == 87:
		return 2
	case lat > 87:
		return 1
	}

	cosLat := math.Cos(lat * math.Pi / 180)
	a := 1 - (1-math.Cos(math.Pi/(2*CPR_NZ)))/(cosLat*cosLat)
	return int(math.Floor(2 * math.Pi / math.Acos(a)))
}

// cprDlat returns the latitude zone size for an even or odd frame
func cprDlat(odd bool) float64 {
	if odd {
		return 360.0 / (4*CPR_NZ - 1)
	}
	return 360.0 / (4 * CPR_NZ)
}

// cprDlon returns the longitude zone size at lat. A divisor that drops to zero
// near the poles falls back to a single 360 degree zone.
func cprDlon(lat float64, odd bool) float64 {
	ni := NL(lat)
	if odd {
		ni--
	}
	if ni <= 0 {
		return 360
	}
	return 360 / float64(ni)
}

// cprResolve picks the zone closest to ref and places the normalized fraction in it
func cprResolve(ref, frac, zone float64) float64 {
	j := math.Floor(ref/zone) + math.Floor(cprMod(ref, zone)/zone-frac+0.5)
	return zone * (j + frac)
}

// DecodeCPR resolves a single frame against a reference position
func DecodeCPR(frame CPRFrame, ref Reference) (lat, lon float64) {
	latFrac := float64(frame.LatCPR) / CPR_MAX
	lonFrac := float64(frame.LonCPR) / CPR_MAX

	lat = cprResolve(ref.Lat, latFrac, cprDlat(frame.Odd))
	lon = cprResolve(ref.Lon, lonFrac, cprDlon(lat, frame.Odd))
	return lat, lon
}

// EncodeCPR produces the 17-bit CPR fields an aircraft at lat/lon would broadcast
func EncodeCPR(lat, lon float64, odd bool) CPRFrame {
	dlat := cprDlat(odd)
	yz := math.Floor(CPR_MAX*cprMod(lat, dlat)/dlat + 0.5)
	rlat := dlat * (yz/CPR_MAX + math.Floor(lat/dlat))

	dlon := cprDlon(rlat, odd)
	xz := math.Floor(CPR_MAX*cprMod(lon, dlon)/dlon + 0.5)

	return CPRFrame{
		Odd:    odd,
		LatCPR: uint32(cprMod(yz, CPR_MAX)),
		LonCPR: uint32(cprMod(xz, CPR_MAX)),
	}
}
