package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	json "github.com/goccy/go-json"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// sessionRow is the persisted shape of a session record. The full Context
// is stored as a JSON payload; the key columns and last-seen epoch exist
// only for lookup and expiry queries.
type sessionRow struct {
	ID              uint   `gorm:"primaryKey"`
	Channel         string `gorm:"uniqueIndex:idx_session_key;size:64;not null"`
	UserID          string `gorm:"uniqueIndex:idx_session_key;size:128;not null"`
	SessionID       string `gorm:"uniqueIndex:idx_session_key;size:128;not null"`
	Payload         []byte `gorm:"not null"`
	LastSeenAtEpoch int64  `gorm:"index;not null"`
}

func (sessionRow) TableName() string { return "sessions" }

// GormStore is the durable SQLite-backed Store. Expiry is enforced the
// same way as the in-memory store: lazily on Load and in bulk on Sweep.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewGormStore opens (or creates) the SQLite database at path and runs
// migrations.
func NewGormStore(path string, ttl time.Duration) (*GormStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=ON&_journal_mode=WAL"), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &GormStore{db: db, ttl: ttl}, nil
}

func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "001_sessions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&sessionRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("sessions")
			},
		},
	})
	return m.Migrate()
}

// Load fetches the row for key, evicting it when expired.
func (s *GormStore) Load(ctx context.Context, key Key) (*Context, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).
		Where("channel = ? AND user_id = ? AND session_id = ?", key.Channel, key.UserID, key.SessionID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if time.Since(time.UnixMilli(row.LastSeenAtEpoch)) > s.ttl {
		_ = s.db.WithContext(ctx).Delete(&sessionRow{}, row.ID).Error
		return nil, nil
	}

	var sess Context
	if err := json.Unmarshal(row.Payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Save upserts the record on its key columns.
func (s *GormStore) Save(ctx context.Context, sess *Context) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	row := sessionRow{
		Channel:         sess.Meta.Channel,
		UserID:          sess.Meta.UserID,
		SessionID:       sess.Meta.SessionID,
		Payload:         payload,
		LastSeenAtEpoch: sess.Meta.LastSeenAt.UnixMilli(),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel"}, {Name: "user_id"}, {Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "last_seen_at_epoch"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Sweep deletes every row older than the TTL.
func (s *GormStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.ttl).UnixMilli()
	res := s.db.WithContext(ctx).Where("last_seen_at_epoch < ?", cutoff).Delete(&sessionRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep sessions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// Close closes the underlying database handle.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
