package models

import "strings"

// Usage zones recognised by the catalog and the application log.
const (
	ZoneGreen   = "green"
	ZoneTee     = "tee"
	ZoneFairway = "fairway"
)

// Zones lists the supported usage zones in display order.
var Zones = []string{ZoneGreen, ZoneTee, ZoneFairway}

// ValidZone reports whether value names a supported usage zone.
func ValidZone(value string) bool {
	switch value {
	case ZoneGreen, ZoneTee, ZoneFairway:
		return true
	default:
		return false
	}
}

// NormalizeZone maps arbitrary input onto a supported zone, defaulting to green.
func NormalizeZone(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if ValidZone(trimmed) {
		return trimmed
	}
	return ZoneGreen
}
