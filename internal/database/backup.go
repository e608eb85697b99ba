package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// BackupOptions control the periodic database snapshot.
type BackupOptions struct {
	Enabled       bool
	StoragePath   string
	Interval      time.Duration
	RetentionDays int
}

// BackupService snapshots the booking database on a fixed interval and
// prunes snapshots older than the retention window.
type BackupService struct {
	db     *DB
	opts   BackupOptions
	logger zerolog.Logger
}

func NewBackupService(db *DB, opts BackupOptions, logger zerolog.Logger) *BackupService {
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	return &BackupService{
		db:     db,
		opts:   opts,
		logger: logger.With().Str("component", "backup").Logger(),
	}
}

// Start runs the backup loop until the context is canceled. The first
// snapshot is taken immediately.
func (s *BackupService) Start(ctx context.Context) {
	if !s.opts.Enabled {
		s.logger.Info().Msg("backups disabled")
		return
	}

	s.logger.Info().
		Str("path", s.opts.StoragePath).
		Dur("interval", s.opts.Interval).
		Msg("backup service started")

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	if err := s.Snapshot(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial backup failed")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Snapshot(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduled backup failed")
			}
			s.pruneOld()
		}
	}
}

// Snapshot writes a consistent copy of the database. VACUUM INTO reads
// through the WAL, so concurrent bookings do not corrupt the copy.
func (s *BackupService) Snapshot(ctx context.Context) error {
	if err := os.MkdirAll(s.opts.StoragePath, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("frontdesk_%s.db", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.opts.StoragePath, name)

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}

	s.logger.Info().Str("path", path).Msg("backup completed")
	return nil
}

func (s *BackupService) pruneOld() {
	if s.opts.RetentionDays <= 0 {
		return
	}

	files, err := os.ReadDir(s.opts.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup directory")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.opts.RetentionDays)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			s.logger.Info().Str("file", file.Name()).Msg("deleting old backup")
			_ = os.Remove(filepath.Join(s.opts.StoragePath, file.Name()))
		}
	}
}
