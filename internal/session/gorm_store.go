package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nabhajit/bhujal/internal/models"
)

// GormStore keeps sessions in the application database.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

func (s *GormStore) Create(ctx context.Context, customerID uint) (string, error) {
	now := s.now()
	row := models.Session{
		Token:      newToken(),
		CustomerID: customerID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return row.Token, nil
}

func (s *GormStore) Lookup(ctx context.Context, token string) (uint, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	var row models.Session
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, s.now()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("session: lookup: %w", err)
	}
	return row.CustomerID, true, nil
}

func (s *GormStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("session: destroy: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *GormStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("session: purge: %w", res.Error)
	}
	return res.RowsAffected, nil
}
