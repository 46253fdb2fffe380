package domain

import "time"

// Donation records a device the user gave to a charity or person.
type Donation struct {
	ID        string    `json:"id" yaml:"id"`
	DeviceID  string    `json:"deviceId,omitempty" yaml:"deviceId,omitempty"`
	Recipient string    `json:"recipient,omitempty" yaml:"recipient,omitempty"`
	DonatedAt time.Time `json:"donatedAt" yaml:"donatedAt"`
}

// Listing records a marketplace listing created by the user.
type Listing struct {
	ID       string    `json:"id" yaml:"id"`
	DeviceID string    `json:"deviceId,omitempty" yaml:"deviceId,omitempty"`
	Price    float64   `json:"price" yaml:"price"`
	Status   string    `json:"status,omitempty" yaml:"status,omitempty"`
	ListedAt time.Time `json:"listedAt" yaml:"listedAt"`
}

// UserRecord is the per-user aggregate supplied by the profile store.
type UserRecord struct {
	ID                  string         `json:"id" yaml:"id"`
	Location            string         `json:"location,omitempty" yaml:"location,omitempty"`
	EnvironmentalFlag   bool           `json:"environmentalFlag" yaml:"environmentalFlag"`
	BudgetFlag          bool           `json:"budgetFlag" yaml:"budgetFlag"`
	Devices             []DeviceRecord `json:"devices" yaml:"devices"`
	Donations           []Donation     `json:"donations,omitempty" yaml:"donations,omitempty"`
	MarketplaceListings []Listing      `json:"marketplaceListings,omitempty" yaml:"marketplaceListings,omitempty"`
}

// UpgradeFrequency buckets the mean interval between a user's device purchases.
type UpgradeFrequency string

const (
	UpgradeAnnual      UpgradeFrequency = "annual"
	UpgradeBiannual    UpgradeFrequency = "biannual"
	UpgradeEvery3Years UpgradeFrequency = "every_3_years"
	UpgradeRarely      UpgradeFrequency = "rarely"
)

// UserBehavior summarises a user's history for the decision rules.
type UserBehavior struct {
	UserID                     string           `json:"userId,omitempty"`
	UpgradeFrequency           UpgradeFrequency `json:"upgradeFrequency"`
	DonationCount              int              `json:"donationCount"`
	MarketplaceActivity        int              `json:"marketplaceActivity"`
	DeviceCount                int              `json:"deviceCount"`
	CharitableGiving           bool             `json:"charitableGiving"`
	EnvironmentalConsciousness bool             `json:"environmentalConsciousness"`
	BudgetConsciousness        bool             `json:"budgetConsciousness"`
	Location                   string           `json:"location,omitempty"`
}
