package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

type recordingWriter struct {
	mu      sync.Mutex
	users   []domain.UserRecord
	failFor map[string]error
}

func (w *recordingWriter) UpsertUser(ctx context.Context, user domain.UserRecord) error {
	if err := w.failFor[user.ID]; err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.users = append(w.users, user)
	return nil
}

func (w *recordingWriter) ids() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.users))
	for _, u := range w.users {
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestBulkIngestor_IngestUsers(t *testing.T) {
	writer := &recordingWriter{}
	ingestor := NewBulkIngestor(writer, 3)

	users := []domain.UserRecord{{ID: "USR-3"}, {ID: " USR-1 "}, {ID: "USR-2"}, {ID: "USR-4"}}
	if err := ingestor.IngestUsers(context.Background(), users); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"USR-1", "USR-2", "USR-3", "USR-4"}
	if diff := cmp.Diff(want, writer.ids()); diff != "" {
		t.Fatalf("ingested ids mismatch (-want +got):\n%s", diff)
	}
}

func TestBulkIngestor_CollectsFailures(t *testing.T) {
	boom := errors.New("constraint violation")
	writer := &recordingWriter{failFor: map[string]error{"USR-2": boom}}
	ingestor := NewBulkIngestor(writer, 2)

	users := []domain.UserRecord{{ID: "USR-1"}, {ID: "USR-2"}, {ID: ""}, {ID: "USR-4"}}
	err := ingestor.IngestUsers(context.Background(), users)

	var taskErr *TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected *TaskError, got %T (%v)", err, err)
	}
	if len(taskErr.Errors) != 2 {
		t.Fatalf("expected 2 failures, got %d: %v", len(taskErr.Errors), taskErr)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected writer error to be reachable through the task error")
	}
	if diff := cmp.Diff([]string{"USR-1", "USR-4"}, writer.ids()); diff != "" {
		t.Fatalf("ingested ids mismatch (-want +got):\n%s", diff)
	}
}

func TestBulkIngestor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ingestor := NewBulkIngestor(&recordingWriter{}, 2)
	err := ingestor.IngestUsers(ctx, []domain.UserRecord{{ID: "USR-1"}, {ID: "USR-2"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBulkIngestor_Empty(t *testing.T) {
	if err := NewBulkIngestor(&recordingWriter{}, 0).IngestUsers(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalizeUserRecord(t *testing.T) {
	in := domain.UserRecord{
		ID:       "  USR-1 ",
		Location: "San   Francisco ",
		Devices: []domain.DeviceRecord{
			{ID: "DEV-1", Category: " Laptop ", Condition: "GOOD", Brand: " Dell", Model: "XPS  13", SerialNumber: "sn-01", MaintenanceHistory: []string{" battery ", "  "}},
			{ID: "DEV-2", Category: "phone"},
			{ID: "DEV-1", Category: "laptop", Condition: "fair"},
		},
	}

	got, err := NormalizeUserRecord(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.UserRecord{
		ID:       "USR-1",
		Location: "San Francisco",
		Devices: []domain.DeviceRecord{
			{ID: "DEV-1", Category: "laptop", Condition: "fair"},
			{ID: "DEV-2", Category: "phone"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalised record mismatch (-want +got):\n%s", diff)
	}

	first, _ := NormalizeUserRecord(domain.UserRecord{ID: "USR-1", Devices: in.Devices[:1]})
	wantDevice := domain.DeviceRecord{
		ID: "DEV-1", Category: "laptop", Condition: "good", Brand: "Dell", Model: "XPS 13",
		SerialNumber: "SN-01", MaintenanceHistory: []string{"battery"},
	}
	if diff := cmp.Diff(wantDevice, first.Devices[0]); diff != "" {
		t.Fatalf("normalised device mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeUserRecordRejectsMissingIDs(t *testing.T) {
	if _, err := NormalizeUserRecord(domain.UserRecord{ID: "   "}); err == nil {
		t.Fatal("expected error for blank user id")
	}
	if _, err := NormalizeUserRecord(domain.UserRecord{ID: "USR-1", Devices: []domain.DeviceRecord{{ID: ""}}}); err == nil {
		t.Fatal("expected error for device without id")
	}
}
