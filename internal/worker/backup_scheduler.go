package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"pet/internal/storage"
	"pet/internal/transfer"
)

// DefaultBackupSchedule runs once a day at midnight.
const DefaultBackupSchedule = "@daily"

// BackupScheduler writes PET_Backup_<date>.json files into a directory on a
// cron schedule. A second run on the same day overwrites that day's file.
type BackupScheduler struct {
	store    *storage.Store
	dir      string
	schedule string
	now      func() time.Time
}

type BackupOption func(*BackupScheduler)

// WithBackupClock overrides the clock used for file names and exportDate.
func WithBackupClock(now func() time.Time) BackupOption {
	return func(b *BackupScheduler) { b.now = now }
}

func NewBackupScheduler(store *storage.Store, dir, schedule string, opts ...BackupOption) (*BackupScheduler, error) {
	if dir == "" {
		return nil, errors.New("backup directory is required")
	}
	if schedule == "" {
		schedule = DefaultBackupSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse backup schedule %q: %w", schedule, err)
	}
	b := &BackupScheduler{store: store, dir: dir, schedule: schedule, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// RunBackup writes one backup file and returns its path.
func (b *BackupScheduler) RunBackup(ctx context.Context) (string, error) {
	records, err := b.store.LoadRecords(ctx)
	if err != nil {
		return "", fmt.Errorf("load records: %w", err)
	}
	budget, err := b.store.LoadBudget(ctx)
	if err != nil {
		return "", fmt.Errorf("load budget: %w", err)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	now := b.now()
	path := filepath.Join(b.dir, transfer.BackupFilename(now))
	tmp, err := os.CreateTemp(b.dir, ".backup-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := transfer.WriteBackup(tmp, transfer.NewBackup(records, budget, now)); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}
	slog.InfoContext(ctx, "Backup written", "path", path, "records", len(records))
	return path, nil
}

// Start runs the schedule until ctx is canceled, then waits for a running
// backup to finish.
func (b *BackupScheduler) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(b.schedule, func() {
		if _, err := b.RunBackup(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled backup failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule backup: %w", err)
	}
	c.Start()
	slog.InfoContext(ctx, "Backup scheduler started", "schedule", b.schedule, "dir", b.dir)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Backup scheduler stopped")
	return nil
}
