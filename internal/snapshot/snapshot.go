// Package snapshot stores exported ResolvedProjects in SQLite so successive
// builds of a project can be listed and compared.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/pipedef/internal/builder"
	"github.com/specialistvlad/pipedef/internal/ctxlog"
	"github.com/specialistvlad/pipedef/internal/export"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored export. Identical content for the same project and
// format is stored once.
type Snapshot struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID string    `gorm:"size:128;not null;uniqueIndex:idx_snapshot_content" json:"projectId"`
	Version   string    `gorm:"size:32" json:"version,omitempty"`
	Format    string    `gorm:"size:8;not null;uniqueIndex:idx_snapshot_content" json:"format"`
	Digest    string    `gorm:"size:64;not null;uniqueIndex:idx_snapshot_content" json:"digest"`
	Content   string    `gorm:"type:text" json:"content,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// Store persists snapshots.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path. Use
// ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot database %s: %w", path, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an existing gorm connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("snapshot: db is required")
	}
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save exports rp in format and stores it. When identical content was
// already stored for the project, the existing snapshot is returned and
// created is false.
func (s *Store) Save(ctx context.Context, rp *builder.ResolvedProject, format export.Format) (snap *Snapshot, created bool, err error) {
	logger := ctxlog.FromContext(ctx)

	content, err := export.Marshal(rp, format)
	if err != nil {
		return nil, false, err
	}
	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	info := rp.Project()

	var existing Snapshot
	err = s.db.WithContext(ctx).
		Where("project_id = ? AND format = ? AND digest = ?", info.ID, string(format), digest).
		First(&existing).Error
	switch {
	case err == nil:
		logger.Debug("Snapshot unchanged, reusing existing record.", "project", info.ID, "id", existing.ID)
		return &existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fmt.Errorf("failed to look up snapshot: %w", err)
	}

	snap = &Snapshot{
		ProjectID: info.ID,
		Version:   info.Version,
		Format:    string(format),
		Digest:    digest,
		Content:   string(content),
	}
	if err := s.db.WithContext(ctx).Create(snap).Error; err != nil {
		return nil, false, fmt.Errorf("failed to store snapshot: %w", err)
	}
	logger.Info("Snapshot stored.", "project", info.ID, "id", snap.ID, "format", format, "digest", digest[:12])
	return snap, true, nil
}

// List returns the snapshots of projectID, newest first. An empty projectID
// lists every project.
func (s *Store) List(ctx context.Context, projectID string) ([]Snapshot, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	var out []Snapshot
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return out, nil
}

// Get returns the snapshot with the given id.
func (s *Store) Get(ctx context.Context, id uint) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.WithContext(ctx).First(&snap, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %d: %w", id, err)
	}
	return &snap, nil
}
