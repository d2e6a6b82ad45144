package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nabhajit/bhujal/internal/models"
)

type BorewellRepository struct {
	db *gorm.DB
}

func NewBorewellRepository(db *gorm.DB) *BorewellRepository {
	return &BorewellRepository{db: db}
}

func (r *BorewellRepository) Create(ctx context.Context, borewell *models.Borewell) error {
	if err := r.db.WithContext(ctx).Omit("Customer").Create(borewell).Error; err != nil {
		return fmt.Errorf("repository: create borewell: %w", err)
	}
	return nil
}

// ListWithOwners returns every borewell in insertion order with its owner
// preloaded. Customer is nil for orphaned borewells.
func (r *BorewellRepository) ListWithOwners(ctx context.Context) ([]models.Borewell, error) {
	var borewells []models.Borewell
	if err := r.db.WithContext(ctx).Preload("Customer").Order("id").Find(&borewells).Error; err != nil {
		return nil, fmt.Errorf("repository: list borewells: %w", err)
	}
	return borewells, nil
}

// ListByCustomer returns the customer's borewells, newest first.
func (r *BorewellRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.Borewell, error) {
	var borewells []models.Borewell
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&borewells).Error
	if err != nil {
		return nil, fmt.Errorf("repository: list borewells of customer %d: %w", customerID, err)
	}
	return borewells, nil
}
