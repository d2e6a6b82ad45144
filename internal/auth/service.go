package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nabhajit/bhujal/internal/models"
	"github.com/nabhajit/bhujal/internal/repository"
)

var (
	// ErrPasswordMismatch signals that password and confirmation differ.
	ErrPasswordMismatch = errors.New("auth: passwords do not match")
	// ErrUnknownEmail signals that no customer is registered under the email.
	ErrUnknownEmail = errors.New("auth: email not registered")
	// ErrInvalidCredentials signals a wrong password for a known email.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type SignupInput struct {
	Name            string
	Email           string
	Phone           string
	Address         string
	Password        string
	ConfirmPassword string
}

// Service owns the signup and login transitions. Sessions are the caller's concern.
type Service struct {
	customers CustomerRepository
	hasher    Hasher
	log       *zap.Logger
}

func NewService(customers CustomerRepository, hasher Hasher, log *zap.Logger) *Service {
	return &Service{customers: customers, hasher: hasher, log: log}
}

// Signup hashes the password and persists a new customer. A taken email or
// phone number comes back as repository.ErrConflict.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.Customer, error) {
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:         strings.TrimSpace(in.Name),
		Address:      strings.TrimSpace(in.Address),
		Email:        NormalizeEmail(in.Email),
		PhoneNumber:  strings.TrimSpace(in.Phone),
		PasswordHash: hash,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	s.log.Info("customer signed up", zap.Uint("customer_id", customer.ID))
	return customer, nil
}

// Login returns ErrUnknownEmail when the email has no account and
// ErrInvalidCredentials when the password is wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Customer, error) {
	customer, err := s.customers.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownEmail
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, customer.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("auth: verify customer %d: %w", customer.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return customer, nil
}

func (s *Service) Customer(ctx context.Context, id uint) (*models.Customer, error) {
	return s.customers.FindByID(ctx, id)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
