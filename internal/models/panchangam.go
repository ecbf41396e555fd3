package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	FactTithi     = "tithi"
	FactNakshatra = "nakshatra"
	FactYoga      = "yoga"
	FactKarana    = "karana"
	FactMuhurat   = "muhurat"
	FactSun       = "sun"
)

// PanchangamEntry is one cached almanac fact for a day. A fetch may yield
// several entries (e.g. two tithis in a day), ordered by Seq.
type PanchangamEntry struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	FactType  string         `gorm:"column:fact_type;size:30;not null;uniqueIndex:uniq_panchangam_fact" json:"fact_type"`
	Date      string         `gorm:"column:date;size:10;not null;uniqueIndex:uniq_panchangam_fact" json:"date"`
	Seq       int            `gorm:"column:seq;not null;uniqueIndex:uniq_panchangam_fact" json:"seq"`
	Name      string         `gorm:"column:name;size:100" json:"name"`
	Number    int            `gorm:"column:number" json:"number"`
	Paksha    string         `gorm:"column:paksha;size:20" json:"paksha,omitempty"`
	StartsAt  string         `gorm:"column:starts_at;size:40" json:"starts_at,omitempty"`
	EndsAt    string         `gorm:"column:ends_at;size:40" json:"ends_at,omitempty"`
	Raw       datatypes.JSON `gorm:"column:raw" json:"raw"`
	CreatedAt time.Time      `gorm:"column:created;autoCreateTime" json:"created"`
}

func (PanchangamEntry) TableName() string {
	return "panchangam_entries"
}
