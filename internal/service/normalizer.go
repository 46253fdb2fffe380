package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeUserRecord canonicalises a record before it is written to the
// registry. Free text is whitespace-collapsed, category and condition are
// lower-cased but otherwise kept as supplied, and serial numbers are upper-cased.
// Devices sharing an id collapse onto the last occurrence.
func NormalizeUserRecord(rec domain.UserRecord) (domain.UserRecord, error) {
	rec.ID = sanitizeString(rec.ID)
	if rec.ID == "" {
		return domain.UserRecord{}, errors.New("user id is required")
	}
	rec.Location = sanitizeString(rec.Location)

	devices := make([]domain.DeviceRecord, 0, len(rec.Devices))
	position := make(map[string]int, len(rec.Devices))
	for i, d := range rec.Devices {
		d = normalizeDevice(d)
		if d.ID == "" {
			return domain.UserRecord{}, fmt.Errorf("user %s: device %d has no id", rec.ID, i)
		}
		if at, seen := position[d.ID]; seen {
			devices[at] = d
			continue
		}
		position[d.ID] = len(devices)
		devices = append(devices, d)
	}
	rec.Devices = devices
	return rec, nil
}

func normalizeDevice(d domain.DeviceRecord) domain.DeviceRecord {
	d.ID = sanitizeString(d.ID)
	d.Category = strings.ToLower(sanitizeString(d.Category))
	d.Condition = strings.ToLower(sanitizeString(d.Condition))
	d.Brand = sanitizeString(d.Brand)
	d.Model = sanitizeString(d.Model)
	d.SerialNumber = strings.ToUpper(sanitizeString(d.SerialNumber))

	var history []string
	for _, entry := range d.MaintenanceHistory {
		if entry = sanitizeString(entry); entry != "" {
			history = append(history, entry)
		}
	}
	d.MaintenanceHistory = history
	return d
}

// sanitizeString collapses whitespace and trims the result.
func sanitizeString(value string) string {
	value = whitespaceRegex.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}
