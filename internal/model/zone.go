package model

import "strings"

// ZoneID names an area that scopes broadcast visibility: one of the outdoor
// scenes, or a building interior derived from a building id.
type ZoneID string

// The closed set of outdoor scenes
const (
	ZoneBeach ZoneID = "beach"
	ZoneCity  ZoneID = "city"
	ZoneBar   ZoneID = "bar"
	ZoneHotel ZoneID = "hotel"
)

// OutdoorZones lists the outdoor scenes in spawn order
var OutdoorZones = []ZoneID{ZoneBeach, ZoneCity, ZoneBar, ZoneHotel}

const interiorPrefix = "building:"

// IsOutdoorZone reports whether id is one of the known outdoor scenes
func IsOutdoorZone(id ZoneID) bool {
	for _, z := range OutdoorZones {
		if z == id {
			return true
		}
	}
	return false
}

// InteriorZone derives the zone id for a building interior
func InteriorZone(buildingID string) ZoneID {
	return ZoneID(interiorPrefix + buildingID)
}

// IsInteriorZone reports whether id names a building interior
func IsInteriorZone(id ZoneID) bool {
	return strings.HasPrefix(string(id), interiorPrefix)
}

// ValidZone reports whether id is a zone a participant may occupy
func ValidZone(id ZoneID) bool {
	return IsOutdoorZone(id) || (IsInteriorZone(id) && len(id) > len(interiorPrefix))
}
