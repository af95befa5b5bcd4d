package models

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid"
	"gorm.io/gorm"
)

const entryIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewEntryID builds a collision-resistant entry identifier from the current
// unix-milli timestamp and a random suffix.
func NewEntryID() string {
	suffix, err := gonanoid.Generate(entryIDAlphabet, 8)
	if err != nil {
		suffix = fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

// LogEntry records one fertilizer application event. Entries are
// self-contained: the cost, mass, and nutrient figures are computed once at
// write time and stored, so historical rows stay valid even after the
// catalog entry they reference is edited or deleted.
type LogEntry struct {
	gorm.Model
	EntryID string `gorm:"uniqueIndex;not null" json:"entry_id"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`

	Date        string  `gorm:"type:varchar(10);not null;index" json:"date"` // YYYY-MM-DD
	ProductName string  `gorm:"not null" json:"product_name"`
	Zone        string  `gorm:"type:varchar(16)" json:"zone"`
	AreaM2      float64 `json:"area_m2"`
	Rate        float64 `json:"rate"`
	RateUnit    string  `gorm:"type:varchar(16)" json:"rate_unit"` // "ml/m2" for liquids, "g/m2" otherwise

	TotalCost float64 `json:"total_cost"`

	// MassApplied is the total product mass in grams (for liquids, volume
	// converted through density). Aggregations read this snapshot rather
	// than recomputing from area and rate.
	MassApplied float64 `json:"mass_applied"`

	// Nutrients holds absolute grams delivered per element for the treated
	// area, keyed by element symbol.
	Nutrients map[string]float64 `gorm:"serializer:json" json:"nutrients"`

	TopdressingMM float64 `json:"topdressing_mm"`
}

// Year returns the four-digit year component of the entry date, or "" when
// the date is malformed.
func (e *LogEntry) Year() string {
	if len(e.Date) < 4 {
		return ""
	}
	return e.Date[:4]
}

// Month returns the "YYYY-MM" component of the entry date, or "" when the
// date is malformed.
func (e *LogEntry) Month() string {
	if len(e.Date) < 7 {
		return ""
	}
	return e.Date[:7]
}
