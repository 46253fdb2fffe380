package domain

import (
	"strings"
	"time"
)

// Category identifies a device family used for valuation and market lookups.
type Category string

const (
	CategorySmartphone Category = "smartphone"
	CategoryLaptop     Category = "laptop"
	CategoryTablet     Category = "tablet"
	CategoryDesktop    Category = "desktop"
	CategorySmartwatch Category = "smartwatch"
	CategoryHeadphones Category = "headphones"
	CategoryOther      Category = "other"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategorySmartphone,
	CategoryLaptop,
	CategoryTablet,
	CategoryDesktop,
	CategorySmartwatch,
	CategoryHeadphones,
	CategoryOther,
}

// ParseCategory maps free-form input onto a known category, falling back to CategoryOther.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// Condition describes the physical state of a device.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// ParseCondition reports whether raw names one of the four known conditions.
func ParseCondition(raw string) (Condition, bool) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(raw))); c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return c, true
	default:
		return ConditionGood, false
	}
}

// UsagePattern buckets how recently a device was used.
type UsagePattern string

const (
	UsageHigh   UsagePattern = "high"
	UsageMedium UsagePattern = "medium"
	UsageLow    UsagePattern = "low"
	UsageNone   UsagePattern = "none"
)

// TransferRecord is one prior change of ownership for a device.
type TransferRecord struct {
	FromUserID    string    `json:"fromUserId,omitempty" yaml:"fromUserId,omitempty"`
	ToUserID      string    `json:"toUserId,omitempty" yaml:"toUserId,omitempty"`
	TransferType  string    `json:"transferType,omitempty" yaml:"transferType,omitempty"`
	TransferredAt time.Time `json:"transferredAt" yaml:"transferredAt"`
}

// DeviceRecord is the raw registry entry for a device as held by the device store.
// Category and Condition are kept as supplied; normalisation happens during analysis.
type DeviceRecord struct {
	ID                 string           `json:"id" yaml:"id" validate:"required"`
	Category           string           `json:"category" yaml:"category"`
	Brand              string           `json:"brand" yaml:"brand"`
	Model              string           `json:"model" yaml:"model"`
	SerialNumber       string           `json:"serialNumber" yaml:"serialNumber"`
	PurchaseDate       time.Time        `json:"purchaseDate" yaml:"purchaseDate"`
	Condition          string           `json:"condition" yaml:"condition"`
	LastUsedDate       *time.Time       `json:"lastUsedDate,omitempty" yaml:"lastUsedDate,omitempty"`
	MaintenanceHistory []string         `json:"maintenanceHistory,omitempty" yaml:"maintenanceHistory,omitempty"`
	TransferHistory    []TransferRecord `json:"transferHistory,omitempty" yaml:"transferHistory,omitempty"`
}

// DeviceAnalysis is the normalised view of a device used by the decision rules.
type DeviceAnalysis struct {
	DeviceID           string           `json:"deviceId"`
	Category           Category         `json:"category"`
	Brand              string           `json:"brand"`
	Model              string           `json:"model"`
	SerialNumber       string           `json:"serialNumber"`
	PurchaseDate       time.Time        `json:"purchaseDate"`
	Age                int              `json:"age"`
	Condition          Condition        `json:"condition"`
	MarketValue        float64          `json:"marketValue"`
	UsagePattern       UsagePattern     `json:"usagePattern"`
	MaintenanceHistory []string         `json:"maintenanceHistory"`
	TransferHistory    []TransferRecord `json:"transferHistory"`
}

// DisplayName renders "Brand Model", falling back to the category.
func (a DeviceAnalysis) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(a.Brand) + " " + strings.TrimSpace(a.Model))
	if name == "" {
		return string(a.Category)
	}
	return name
}
