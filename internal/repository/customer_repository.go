package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nabhajit/bhujal/internal/models"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts the customer unless its email or phone number is taken.
// The lookups and the insert share a transaction; the unique indexes settle
// any race between two concurrent signups.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := exists(tx, "email = ?", customer.Email)
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Field: "email"}
		}

		taken, err = exists(tx, "phone_number = ?", customer.PhoneNumber)
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Field: "phone number"}
		}

		return tx.Create(customer).Error
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConflictError{}
	default:
		return fmt.Errorf("repository: create customer: %w", err)
	}
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: find customer %d: %w", id, err)
	}
	return &customer, nil
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: find customer by email: %w", err)
	}
	return &customer, nil
}

func exists(tx *gorm.DB, query string, arg any) (bool, error) {
	var count int64
	if err := tx.Model(&models.Customer{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
