package generator

import "time"

// Config drives the synthetic data generator.
type Config struct {
	NumUsers            int
	MaxDevicesPerUser   int
	MaxDeviceAgeYears   int
	DonationChance      float64
	ListingChance       float64
	EnvironmentalChance float64
	BudgetChance        float64
	Seed                int64
	// Now anchors purchase and usage dates. Zero means the wall clock.
	Now time.Time
}

// DefaultConfig returns baseline settings for a realistic registry.
func DefaultConfig() Config {
	return Config{
		NumUsers:            1000,
		MaxDevicesPerUser:   5,
		MaxDeviceAgeYears:   9,
		DonationChance:      0.3,
		ListingChance:       0.4,
		EnvironmentalChance: 0.35,
		BudgetChance:        0.4,
		Seed:                42,
	}
}
