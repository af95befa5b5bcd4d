package models

import (
	"gorm.io/gorm"
)

// NPKTarget is one month's worth of planned N, P, and K in g/m².
type NPKTarget struct {
	N float64 `json:"n"`
	P float64 `json:"p"`
	K float64 `json:"k"`
}

// UserSettings carries per-tenant configuration: managed zone areas, the
// selected reference guideline, and an optional manual monthly plan that
// overrides the guideline per zone.
type UserSettings struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	GreenAreaM2   float64 `json:"green_area_m2"`
	TeeAreaM2     float64 `json:"tee_area_m2"`
	FairwayAreaM2 float64 `json:"fairway_area_m2"`

	GuidelineKey string `gorm:"type:varchar(64)" json:"guideline_key"`

	ManualPlan bool `gorm:"not null;default:false" json:"manual_plan"`

	// ManualTargets maps a zone to its 12-month plan, January first.
	ManualTargets map[string][]NPKTarget `gorm:"serializer:json" json:"manual_targets"`
}

// ZoneArea returns the configured area for the given usage zone.
func (s *UserSettings) ZoneArea(zone string) float64 {
	switch zone {
	case ZoneGreen:
		return s.GreenAreaM2
	case ZoneTee:
		return s.TeeAreaM2
	case ZoneFairway:
		return s.FairwayAreaM2
	default:
		return 0
	}
}

// ZoneTargets returns the manual 12-month plan for a zone, padding or
// truncating to exactly 12 entries so callers can index by month.
func (s *UserSettings) ZoneTargets(zone string) []NPKTarget {
	targets := make([]NPKTarget, 12)
	if s.ManualTargets == nil {
		return targets
	}
	copy(targets, s.ManualTargets[zone])
	return targets
}
