package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/logging"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/metrics"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d records failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// RegistryWriter persists user aggregates into the device registry.
type RegistryWriter interface {
	UpsertUser(ctx context.Context, user domain.UserRecord) error
}

// BulkIngestor loads user records into the registry with a bounded worker pool.
type BulkIngestor struct {
	writer  RegistryWriter
	workers int
}

// NewBulkIngestor creates a new BulkIngestor instance with the provided concurrency.
func NewBulkIngestor(writer RegistryWriter, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{writer: writer, workers: workers}
}

// IngestUsers normalises and writes every record. Per-record failures are
// collected into a *TaskError; cancellation aborts the run and is returned as-is.
func (bi *BulkIngestor) IngestUsers(ctx context.Context, users []domain.UserRecord) error {
	return bi.run(ctx, len(users), func(idx int) error {
		rec, err := NormalizeUserRecord(users[idx])
		if err == nil {
			err = bi.writer.UpsertUser(ctx, rec)
		}
		if err != nil {
			metrics.IngestedRecords.WithLabelValues("error").Inc()
			logging.Ctx(ctx).Warn().Err(err).Int("index", idx).Msg("user record rejected")
			return fmt.Errorf("record %d: %w", idx, err)
		}
		metrics.IngestedRecords.WithLabelValues("success").Inc()
		return nil
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, process func(idx int) error) error {
	if total == 0 {
		return nil
	}
	jobs := make(chan int)
	failures := make(chan error, total)
	var wg sync.WaitGroup

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := process(idx); err != nil {
					failures <- err
				}
			}
		}()
	}

dispatch:
	for i := 0; i < total; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(failures)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range failures {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
