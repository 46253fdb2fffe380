package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// DatasetStore serves user records held in memory. It satisfies the same read
// contract as Repository and backs offline evaluation of dataset files.
type DatasetStore struct {
	users map[string]domain.UserRecord
	ids   []string
}

// NewDatasetStore indexes users by id. Later duplicates replace earlier ones.
func NewDatasetStore(users []domain.UserRecord) *DatasetStore {
	s := &DatasetStore{users: make(map[string]domain.UserRecord, len(users))}
	for _, u := range users {
		if _, seen := s.users[u.ID]; !seen {
			s.ids = append(s.ids, u.ID)
		}
		s.users[u.ID] = u
	}
	sort.Strings(s.ids)
	return s
}

func (s *DatasetStore) FetchUserProfile(ctx context.Context, userID string) (domain.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserRecord{}, err
	}
	u, ok := s.users[userID]
	if !ok {
		return domain.UserRecord{}, fmt.Errorf("fetch profile for user %s: %w", userID, domain.ErrUserNotFound)
	}
	u.Devices = append([]domain.DeviceRecord(nil), u.Devices...)
	sortDevices(u.Devices)
	return u, nil
}

func (s *DatasetStore) FetchUserDevices(ctx context.Context, userID string) ([]domain.DeviceRecord, error) {
	u, err := s.FetchUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Devices, nil
}

func (s *DatasetStore) FetchDevice(ctx context.Context, userID, deviceID string) (domain.DeviceRecord, error) {
	devices, err := s.FetchUserDevices(ctx, userID)
	if err != nil {
		return domain.DeviceRecord{}, err
	}
	for _, d := range devices {
		if d.ID == deviceID {
			return d, nil
		}
	}
	return domain.DeviceRecord{}, fmt.Errorf("fetch device %s for user %s: %w", deviceID, userID, domain.ErrDeviceNotFound)
}

// UserIDs lists every user id in ascending order.
func (s *DatasetStore) UserIDs() []string {
	return append([]string(nil), s.ids...)
}

// ListUserIDs pages through UserIDs with the same bounds as Repository.
func (s *DatasetStore) ListUserIDs(ctx context.Context, offset, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	offset, limit = clampPage(offset, limit)
	if offset >= len(s.ids) {
		return []string{}, nil
	}
	end := min(offset+limit, len(s.ids))
	return append([]string(nil), s.ids[offset:end]...), nil
}
