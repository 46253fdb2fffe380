package transfer

import (
	"sort"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// ProfileUser summarises a user's device, donation and marketplace history.
func ProfileUser(rec domain.UserRecord) domain.UserBehavior {
	dates := make([]time.Time, 0, len(rec.Devices))
	for _, d := range rec.Devices {
		if !d.PurchaseDate.IsZero() {
			dates = append(dates, d.PurchaseDate)
		}
	}

	return domain.UserBehavior{
		UserID:                     rec.ID,
		UpgradeFrequency:           UpgradeFrequencyFor(dates),
		DonationCount:              len(rec.Donations),
		MarketplaceActivity:        len(rec.MarketplaceListings),
		DeviceCount:                len(rec.Devices),
		CharitableGiving:           len(rec.Donations) > 0,
		EnvironmentalConsciousness: rec.EnvironmentalFlag,
		BudgetConsciousness:        rec.BudgetFlag,
		Location:                   rec.Location,
	}
}

// UpgradeFrequencyFor buckets the mean gap in years between successive purchases.
func UpgradeFrequencyFor(purchaseDates []time.Time) domain.UpgradeFrequency {
	if len(purchaseDates) < 2 {
		return domain.UpgradeRarely
	}

	sorted := append([]time.Time(nil), purchaseDates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	var total float64
	for i := 1; i < len(sorted); i++ {
		total += elapsedDays(sorted[i], sorted[i-1]) / 365
	}
	mean := total / float64(len(sorted)-1)

	switch {
	case mean < 1.5:
		return domain.UpgradeAnnual
	case mean < 2.5:
		return domain.UpgradeBiannual
	case mean < 3.5:
		return domain.UpgradeEvery3Years
	default:
		return domain.UpgradeRarely
	}
}
