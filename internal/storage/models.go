package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to records stored without a category.
const DefaultCategory = "Other"

// Reserved config keys.
const (
	ConfigLastPeriod = "last_period"
	ConfigTheme      = "theme"
)

// Period is a named accounting interval holding an income figure and its records.
type Period struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"uniqueIndex;not null"`
	AmountIn  decimal.Decimal `gorm:"type:REAL;not null;default:0"`
	CreatedAt time.Time

	Records []Record `gorm:"constraint:OnDelete:CASCADE"`
}

// Record is a single income or expense line owned by one Period.
type Record struct {
	ID       uint            `gorm:"primaryKey"`
	PeriodID uint            `gorm:"index;not null"`
	Label    string          `gorm:"not null;default:''"`
	Amount   decimal.Decimal `gorm:"type:REAL;not null;default:0"`
	Category string          `gorm:"not null;default:Other"`
	Date     string          `gorm:"column:record_date"`
	IsCredit bool            `gorm:"not null;default:false"`
	Done     bool            `gorm:"not null;default:false"`
	Borrowed bool            `gorm:"not null;default:false"`
	Fixed    bool            `gorm:"not null;default:false"`
}

// ConfigEntry is a key/value pair with a lifecycle independent of periods.
type ConfigEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string `gorm:"not null"`
}

func (ConfigEntry) TableName() string { return "config" }
