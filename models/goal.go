package models

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Goal cadences
const (
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
	CadenceYearly  = "yearly"
)

// Goal metric types
const (
	MetricBinary   = "binary"
	MetricNumeric  = "numeric"
	MetricDuration = "duration"
	MetricJournal  = "journal"
)

type Goal struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	GroupID     uint           `gorm:"not null;index" json:"group_id"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Cadence     string         `gorm:"type:enum('daily','weekly','monthly','yearly');not null" json:"cadence"`
	MetricType  string         `gorm:"type:enum('binary','numeric','duration','journal');default:'binary'" json:"metric_type"`
	TargetValue *float64       `gorm:"type:decimal(12,2)" json:"target_value,omitempty"`
	Unit        *string        `gorm:"size:30" json:"unit,omitempty"`
	ActiveDays  *string        `gorm:"size:30" json:"active_days,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Goal) TableName() string {
	return "goals"
}

// ActiveWeekdays parses the ActiveDays column ("0,1,2,..6", Monday=0) into a
// weekday set. Nil or empty means every day counts.
func (g *Goal) ActiveWeekdays() map[int]bool {
	if g.ActiveDays == nil || strings.TrimSpace(*g.ActiveDays) == "" {
		return nil
	}
	days := make(map[int]bool)
	for _, part := range strings.Split(*g.ActiveDays, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err == nil && d >= 0 && d <= 6 {
			days[d] = true
		}
	}
	if len(days) == 0 {
		return nil
	}
	return days
}

func ValidCadence(c string) bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceYearly:
		return true
	}
	return false
}

func ValidMetricType(m string) bool {
	switch m {
	case MetricBinary, MetricNumeric, MetricDuration, MetricJournal:
		return true
	}
	return false
}
