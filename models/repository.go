package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	SaveForm(ctx context.Context, form *IntakeForm) error
	GetFormByUserID(ctx context.Context, userID string) (*IntakeForm, error)
	Ping(ctx context.Context) error
	Close() error
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&IntakeForm{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// SaveForm вставляет или заменяет анкету по user_id. created_at при замене не меняется,
// в form возвращается строка из базы.
func (r *PostgresRepository) SaveForm(ctx context.Context, form *IntakeForm) error {
	if err := upsertForm(r.db.WithContext(ctx), form).Error; err != nil {
		return fmt.Errorf("failed to save form %s: %w", form.UserID, err)
	}
	return nil
}

func upsertForm(db *gorm.DB, form *IntakeForm) *gorm.DB {
	return db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"form_step", "email", "therapy_for_whom", "therapist_gender", "updated_at"}),
		},
		clause.Returning{},
	).Create(form)
}

func (r *PostgresRepository) GetFormByUserID(ctx context.Context, userID string) (*IntakeForm, error) {
	var form IntakeForm
	if err := r.db.WithContext(ctx).First(&form, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &form, nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgresRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
