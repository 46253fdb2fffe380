package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/graph"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
)

// Repository is the graph-backed device registry and user-profile store.
//
// Graph model:
//
//	(:User)-[:OWNS]->(:Device)
//	(:User)-[:DONATED]->(:Donation)
//	(:User)-[:LISTED]->(:Listing)
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// UpsertUser writes a user with their devices, donations and listings. Child
// nodes are merged by id, so re-ingesting the same record is idempotent.
func (r *Repository) UpsertUser(ctx context.Context, user domain.UserRecord) error {
	if user.ID == "" {
		return errors.New("user id is required")
	}

	devices, err := deviceParams(user.Devices)
	if err != nil {
		return fmt.Errorf("encode devices for user %s: %w", user.ID, err)
	}

	params := map[string]any{
		"userId":    user.ID,
		"props":     userProperties(user),
		"devices":   devices,
		"donations": donationParams(user.Donations),
		"listings":  listingParams(user.MarketplaceListings),
	}

	if _, err := r.client.ExecuteWrite(ctx, upsertUserCypher, params); err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ID, err)
	}
	return nil
}

// FetchUserProfile loads the full aggregate for a user.
func (r *Repository) FetchUserProfile(ctx context.Context, userID string) (domain.UserRecord, error) {
	res, err := r.client.ExecuteRead(ctx, userProfileCypher, map[string]any{"userId": userID})
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("fetch profile for user %s: %w", userID, err)
	}
	record, ok := res.First()
	if !ok {
		return domain.UserRecord{}, fmt.Errorf("fetch profile for user %s: %w", userID, domain.ErrUserNotFound)
	}

	user := domain.UserRecord{
		ID:                toString(record["userId"]),
		Location:          toString(record["location"]),
		EnvironmentalFlag: toBool(record["environmentalFlag"]),
		BudgetFlag:        toBool(record["budgetFlag"]),
	}
	for _, raw := range toMaps(record["devices"]) {
		user.Devices = append(user.Devices, decodeDevice(ctx, raw))
	}
	for _, raw := range toMaps(record["donations"]) {
		user.Donations = append(user.Donations, decodeDonation(raw))
	}
	for _, raw := range toMaps(record["listings"]) {
		user.MarketplaceListings = append(user.MarketplaceListings, decodeListing(raw))
	}
	sortDevices(user.Devices)
	return user, nil
}

// FetchUserDevices returns the devices a user owns, oldest purchase first.
func (r *Repository) FetchUserDevices(ctx context.Context, userID string) ([]domain.DeviceRecord, error) {
	res, err := r.client.ExecuteRead(ctx, userDevicesCypher, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("fetch devices for user %s: %w", userID, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("fetch devices for user %s: %w", userID, domain.ErrUserNotFound)
	}

	devices := make([]domain.DeviceRecord, 0, len(res.Records))
	for _, record := range res.Records {
		raw, ok := record["device"].(map[string]any)
		if !ok {
			// user exists but owns nothing
			continue
		}
		devices = append(devices, decodeDevice(ctx, raw))
	}
	sortDevices(devices)
	return devices, nil
}

// FetchDevice returns one device owned by userID.
func (r *Repository) FetchDevice(ctx context.Context, userID, deviceID string) (domain.DeviceRecord, error) {
	res, err := r.client.ExecuteRead(ctx, userDeviceCypher, map[string]any{"userId": userID, "deviceId": deviceID})
	if err != nil {
		return domain.DeviceRecord{}, fmt.Errorf("fetch device %s: %w", deviceID, err)
	}
	record, ok := res.First()
	if !ok {
		return domain.DeviceRecord{}, fmt.Errorf("fetch device %s for user %s: %w", deviceID, userID, domain.ErrDeviceNotFound)
	}
	raw, ok := record["device"].(map[string]any)
	if !ok {
		return domain.DeviceRecord{}, fmt.Errorf("fetch device %s for user %s: %w", deviceID, userID, domain.ErrDeviceNotFound)
	}
	return decodeDevice(ctx, raw), nil
}

// ListUserIDs returns user ids in ascending order, paginated.
func (r *Repository) ListUserIDs(ctx context.Context, offset, limit int) ([]string, error) {
	offset, limit = clampPage(offset, limit)
	res, err := r.client.ExecuteRead(ctx, listUserIDsCypher, map[string]any{"skip": offset, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids := make([]string, 0, len(res.Records))
	for _, record := range res.Records {
		ids = append(ids, toString(record["userId"]))
	}
	return ids, nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func clampPage(offset, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func sortDevices(devices []domain.DeviceRecord) {
	sort.SliceStable(devices, func(i, j int) bool {
		if !devices[i].PurchaseDate.Equal(devices[j].PurchaseDate) {
			return devices[i].PurchaseDate.Before(devices[j].PurchaseDate)
		}
		return devices[i].ID < devices[j].ID
	})
}

func userProperties(u domain.UserRecord) map[string]any {
	return map[string]any{
		"location":          u.Location,
		"environmentalFlag": u.EnvironmentalFlag,
		"budgetFlag":        u.BudgetFlag,
		"updatedAt":         formatTime(time.Now()),
	}
}

func deviceParams(devices []domain.DeviceRecord) ([]map[string]any, error) {
	result := make([]map[string]any, 0, len(devices))
	for _, d := range devices {
		if d.ID == "" {
			return nil, errors.New("device id is required")
		}
		history, err := json.Marshal(d.TransferHistory)
		if err != nil {
			return nil, err
		}
		maintenance := d.MaintenanceHistory
		if maintenance == nil {
			maintenance = []string{}
		}
		result = append(result, map[string]any{
			"id": d.ID,
			"props": map[string]any{
				"category":            d.Category,
				"brand":               d.Brand,
				"model":               d.Model,
				"serialNumber":        d.SerialNumber,
				"purchaseDate":        formatTime(d.PurchaseDate),
				"condition":           d.Condition,
				"lastUsedDate":        formatTimePtr(d.LastUsedDate),
				"maintenanceHistory":  maintenance,
				"transferHistoryJson": string(history),
			},
		})
	}
	return result, nil
}

func donationParams(donations []domain.Donation) []map[string]any {
	result := make([]map[string]any, 0, len(donations))
	for _, d := range donations {
		result = append(result, map[string]any{
			"id": d.ID,
			"props": map[string]any{
				"deviceId":  d.DeviceID,
				"recipient": d.Recipient,
				"donatedAt": formatTime(d.DonatedAt),
			},
		})
	}
	return result
}

func listingParams(listings []domain.Listing) []map[string]any {
	result := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		result = append(result, map[string]any{
			"id": l.ID,
			"props": map[string]any{
				"deviceId": l.DeviceID,
				"price":    l.Price,
				"status":   l.Status,
				"listedAt": formatTime(l.ListedAt),
			},
		})
	}
	return result
}

func decodeDevice(ctx context.Context, raw map[string]any) domain.DeviceRecord {
	d := domain.DeviceRecord{
		ID:                 toString(raw["deviceId"]),
		Category:           toString(raw["category"]),
		Brand:              toString(raw["brand"]),
		Model:              toString(raw["model"]),
		SerialNumber:       toString(raw["serialNumber"]),
		Condition:          toString(raw["condition"]),
		LastUsedDate:       toTimePtr(raw["lastUsedDate"]),
		MaintenanceHistory: toStrings(raw["maintenanceHistory"]),
	}
	if purchased := toTimePtr(raw["purchaseDate"]); purchased != nil {
		d.PurchaseDate = *purchased
	}
	if encoded := toString(raw["transferHistoryJson"]); encoded != "" {
		var history []domain.TransferRecord
		if err := json.Unmarshal([]byte(encoded), &history); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("device_id", d.ID).Msg("discarding unreadable transfer history")
		} else {
			d.TransferHistory = history
		}
	}
	return d
}

func decodeDonation(raw map[string]any) domain.Donation {
	d := domain.Donation{
		ID:        toString(raw["donationId"]),
		DeviceID:  toString(raw["deviceId"]),
		Recipient: toString(raw["recipient"]),
	}
	if at := toTimePtr(raw["donatedAt"]); at != nil {
		d.DonatedAt = *at
	}
	return d
}

func decodeListing(raw map[string]any) domain.Listing {
	l := domain.Listing{
		ID:       toString(raw["listingId"]),
		DeviceID: toString(raw["deviceId"]),
		Price:    toFloat64(raw["price"]),
		Status:   toString(raw["status"]),
	}
	if at := toTimePtr(raw["listedAt"]); at != nil {
		l.ListedAt = *at
	}
	return l
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return formatTime(*t)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func toBool(val any) bool {
	b, _ := val.(bool)
	return b
}

func toStrings(val any) []string {
	switch v := val.(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// toMaps accepts the shapes collect() of map projections comes back as. Null
// entries from OPTIONAL MATCH are dropped.
func toMaps(val any) []map[string]any {
	switch v := val.(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok && toString(firstID(m)) != "" {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func firstID(m map[string]any) any {
	for _, key := range []string{"deviceId", "donationId", "listingId"} {
		if v, ok := m[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.DateOnly, v); err == nil {
			return &parsed
		}
	}
	return nil
}

const upsertUserCypher = `
MERGE (u:User {userId: $userId})
SET u += $props
WITH u
FOREACH (dev IN $devices |
	MERGE (d:Device {deviceId: dev.id})
	SET d += dev.props
	MERGE (u)-[:OWNS]->(d)
)
FOREACH (don IN $donations |
	MERGE (n:Donation {donationId: don.id})
	SET n += don.props
	MERGE (u)-[:DONATED]->(n)
)
FOREACH (lst IN $listings |
	MERGE (l:Listing {listingId: lst.id})
	SET l += lst.props
	MERGE (u)-[:LISTED]->(l)
)
RETURN u.userId AS userId
`

const deviceProjection = `{
	deviceId: d.deviceId,
	category: d.category,
	brand: d.brand,
	model: d.model,
	serialNumber: d.serialNumber,
	purchaseDate: d.purchaseDate,
	condition: d.condition,
	lastUsedDate: d.lastUsedDate,
	maintenanceHistory: d.maintenanceHistory,
	transferHistoryJson: d.transferHistoryJson
}`

const userProfileCypher = `
MATCH (u:User {userId: $userId})
OPTIONAL MATCH (u)-[:OWNS]->(d:Device)
WITH u, collect(` + deviceProjection + `) AS devices
OPTIONAL MATCH (u)-[:DONATED]->(n:Donation)
WITH u, devices, collect({donationId: n.donationId, deviceId: n.deviceId, recipient: n.recipient, donatedAt: n.donatedAt}) AS donations
OPTIONAL MATCH (u)-[:LISTED]->(l:Listing)
RETURN u.userId AS userId,
       u.location AS location,
       u.environmentalFlag AS environmentalFlag,
       u.budgetFlag AS budgetFlag,
       devices,
       donations,
       collect({listingId: l.listingId, deviceId: l.deviceId, price: l.price, status: l.status, listedAt: l.listedAt}) AS listings
`

const userDevicesCypher = `
MATCH (u:User {userId: $userId})
OPTIONAL MATCH (u)-[:OWNS]->(d:Device)
RETURN CASE WHEN d IS NULL THEN null ELSE ` + deviceProjection + ` END AS device
`

const userDeviceCypher = `
MATCH (:User {userId: $userId})-[:OWNS]->(d:Device {deviceId: $deviceId})
RETURN ` + deviceProjection + ` AS device
`

const listUserIDsCypher = `
MATCH (u:User)
RETURN u.userId AS userId
ORDER BY u.userId
SKIP $skip LIMIT $limit
`
