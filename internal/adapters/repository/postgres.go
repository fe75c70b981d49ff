package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/reviewdesk/internal/domain/state"
)

// stateRow is one named state document.
type stateRow struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Version   string    `gorm:"size:16;not null"`
	Document  []byte    `gorm:"type:jsonb;not null"`
	SavedAt   time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (stateRow) TableName() string {
	return "review_state"
}

// PostgresStore keeps the document as a jsonb row.
type PostgresStore struct {
	db   *gorm.DB
	name string
}

// NewPostgresStore opens the database and migrates the state table.
func NewPostgresStore(ctx context.Context, dsn, name string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	s := NewPostgresStoreFromDB(db, name)
	if err := db.WithContext(ctx).AutoMigrate(&stateRow{}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate state table: %w", err)
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing connection.
func NewPostgresStoreFromDB(db *gorm.DB, name string) *PostgresStore {
	if name == "" {
		name = defaultSettings().documentName
	}
	return &PostgresStore{db: db, name: name}
}

func (s *PostgresStore) Name() string { return BackendPostgres }

func (s *PostgresStore) Load(ctx context.Context) (*state.Document, error) {
	var row stateRow
	err := s.db.WithContext(ctx).Where("id = ?", s.name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select state %s: %w", s.name, err)
	}
	doc, err := state.Decode(row.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return doc, nil
}

// Save upserts the row with INSERT ... ON CONFLICT (id) DO UPDATE.
func (s *PostgresStore) Save(ctx context.Context, doc *state.Document) error {
	data, err := state.Encode(doc)
	if err != nil {
		return err
	}
	row := stateRow{
		ID:       s.name,
		Version:  doc.Version,
		Document: data,
		SavedAt:  doc.SavedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "document", "saved_at", "updated_at"}),
	}).Create(&row).Error
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
