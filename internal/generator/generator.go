package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// Dataset contains the generated user records.
type Dataset struct {
	Users []domain.UserRecord `json:"users" yaml:"users"`
}

// Generator produces synthetic registry data with a reproducible seed.
type Generator struct {
	cfg     Config
	rand    *rand.Rand
	catalog catalog
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.MaxDevicesPerUser <= 0 {
		cfg.MaxDevicesPerUser = def.MaxDevicesPerUser
	}
	if cfg.MaxDeviceAgeYears <= 0 {
		cfg.MaxDeviceAgeYears = def.MaxDeviceAgeYears
	}
	if cfg.DonationChance <= 0 {
		cfg.DonationChance = def.DonationChance
	}
	if cfg.ListingChance <= 0 {
		cfg.ListingChance = def.ListingChance
	}
	if cfg.EnvironmentalChance <= 0 {
		cfg.EnvironmentalChance = def.EnvironmentalChance
	}
	if cfg.BudgetChance <= 0 {
		cfg.BudgetChance = def.BudgetChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	cfg.Now = cfg.Now.UTC().Truncate(time.Second)

	return &Generator{
		cfg:     cfg,
		rand:    rand.New(rand.NewSource(cfg.Seed)),
		catalog: defaultCatalog(),
	}
}

// Generate synthesises users with their devices, donations and listings. It
// respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	users := make([]domain.UserRecord, g.cfg.NumUsers)
	for i := range users {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		users[i] = g.user(fmt.Sprintf("USR-%06d", i+1))
	}
	return Dataset{Users: users}, nil
}

func (g *Generator) user(userID string) domain.UserRecord {
	u := domain.UserRecord{
		ID:                userID,
		Location:          g.pick(g.catalog.cities),
		EnvironmentalFlag: g.rand.Float64() < g.cfg.EnvironmentalChance,
		BudgetFlag:        g.rand.Float64() < g.cfg.BudgetChance,
	}

	count := 1 + g.rand.Intn(g.cfg.MaxDevicesPerUser)
	u.Devices = make([]domain.DeviceRecord, count)
	for i := range u.Devices {
		u.Devices[i] = g.device(fmt.Sprintf("%s-DEV-%02d", userID, i+1))
	}

	for i := 0; g.rand.Float64() < g.cfg.DonationChance && i < 3; i++ {
		u.Donations = append(u.Donations, domain.Donation{
			ID:        fmt.Sprintf("%s-DON-%02d", userID, i+1),
			Recipient: g.pick(g.catalog.charities),
			DonatedAt: g.pastTime(3 * 365),
		})
	}

	for i := 0; g.rand.Float64() < g.cfg.ListingChance && i < 4; i++ {
		u.MarketplaceListings = append(u.MarketplaceListings, domain.Listing{
			ID:       fmt.Sprintf("%s-LST-%02d", userID, i+1),
			Price:    float64(20 + g.rand.Intn(900)),
			Status:   g.pick(g.catalog.listingStatuses),
			ListedAt: g.pastTime(2 * 365),
		})
	}
	return u
}

func (g *Generator) device(deviceID string) domain.DeviceRecord {
	category := domain.Categories[g.rand.Intn(len(domain.Categories))]
	models := g.catalog.models[category]
	model := models[g.rand.Intn(len(models))]

	d := domain.DeviceRecord{
		ID:           deviceID,
		Category:     string(category),
		Brand:        model.brand,
		Model:        model.name,
		SerialNumber: fmt.Sprintf("SN%010d", g.rand.Int63n(1e10)),
		PurchaseDate: g.pastTime(g.cfg.MaxDeviceAgeYears * 365),
		Condition:    g.pick(g.catalog.conditions),
	}

	// A share of devices has never reported usage.
	if g.rand.Float64() < 0.85 {
		lastUsed := g.pastTime(180)
		if lastUsed.Before(d.PurchaseDate) {
			lastUsed = d.PurchaseDate
		}
		d.LastUsedDate = &lastUsed
	}

	if g.rand.Float64() < 0.3 {
		d.MaintenanceHistory = []string{g.pick(g.catalog.repairs)}
	}
	if g.rand.Float64() < 0.15 {
		d.TransferHistory = []domain.TransferRecord{{
			FromUserID:    fmt.Sprintf("USR-%06d", 1+g.rand.Intn(g.cfg.NumUsers)),
			TransferType:  g.pick(g.catalog.transferTypes),
			TransferredAt: d.PurchaseDate,
		}}
	}
	return d
}

func (g *Generator) pastTime(maxDays int) time.Time {
	return g.cfg.Now.Add(-time.Duration(g.rand.Intn(maxDays*24)+1) * time.Hour)
}

func (g *Generator) pick(options []string) string {
	return options[g.rand.Intn(len(options))]
}

type deviceModel struct {
	brand string
	name  string
}

type catalog struct {
	models          map[domain.Category][]deviceModel
	conditions      []string
	cities          []string
	charities       []string
	listingStatuses []string
	repairs         []string
	transferTypes   []string
}

func defaultCatalog() catalog {
	return catalog{
		models: map[domain.Category][]deviceModel{
			domain.CategorySmartphone: {{"Apple", "iPhone 12"}, {"Samsung", "Galaxy S21"}, {"Google", "Pixel 6"}, {"OnePlus", "9 Pro"}},
			domain.CategoryLaptop:     {{"Apple", "MacBook Air"}, {"Dell", "XPS 13"}, {"Lenovo", "ThinkPad X1"}, {"HP", "Spectre x360"}},
			domain.CategoryTablet:     {{"Apple", "iPad Air"}, {"Samsung", "Galaxy Tab S8"}, {"Microsoft", "Surface Go"}},
			domain.CategoryDesktop:    {{"Apple", "iMac"}, {"Dell", "OptiPlex 7090"}, {"HP", "Pavilion"}},
			domain.CategorySmartwatch: {{"Apple", "Watch Series 7"}, {"Garmin", "Venu 2"}, {"Samsung", "Galaxy Watch 4"}},
			domain.CategoryHeadphones: {{"Sony", "WH-1000XM4"}, {"Bose", "QuietComfort 45"}, {"Apple", "AirPods Max"}},
			domain.CategoryOther:      {{"Nintendo", "Switch"}, {"Amazon", "Kindle"}, {"GoPro", "Hero 10"}},
		},
		// Mostly canonical, with the odd malformed value a real registry accumulates.
		conditions:      []string{"excellent", "good", "good", "fair", "poor", "Good", "like new"},
		cities:          []string{"San Francisco", "New York", "Seattle", "Austin", "Chicago", "Miami", "Denver", "Boston", ""},
		charities:       []string{"Computers for Schools", "Local Library", "Community Centre", "Shelter Tech"},
		listingStatuses: []string{"active", "sold", "expired"},
		repairs:         []string{"battery replacement", "screen replacement", "keyboard repair", "port cleaning"},
		transferTypes:   []string{"sale", "gift", "trade_in"},
	}
}
