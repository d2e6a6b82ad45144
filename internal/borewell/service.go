package borewell

import (
	"context"

	"go.uber.org/zap"

	"github.com/nabhajit/bhujal/internal/models"
)

type CustomerFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
}

type Repository interface {
	Create(ctx context.Context, borewell *models.Borewell) error
	ListWithOwners(ctx context.Context) ([]models.Borewell, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]models.Borewell, error)
}

type Service struct {
	customers CustomerFinder
	borewells Repository
	log       *zap.Logger
}

func NewService(customers CustomerFinder, borewells Repository, log *zap.Logger) *Service {
	return &Service{customers: customers, borewells: borewells, log: log}
}

// Registration is a stored borewell together with the owner it was registered for.
type Registration struct {
	Borewell models.Borewell
	Customer models.Customer
}

type Confirmation struct {
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

func (r Registration) Confirmation() Confirmation {
	return Confirmation{
		Latitude:    r.Borewell.Latitude,
		Longitude:   r.Borewell.Longitude,
		Name:        r.Customer.Name,
		PhoneNumber: r.Customer.PhoneNumber,
	}
}

// Register stores a borewell for customerID. An unknown customer yields
// repository.ErrNotFound; bad form input yields a *ValidationError.
func (s *Service) Register(ctx context.Context, customerID uint, form RegistrationForm) (*Registration, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	b, err := Normalize(form)
	if err != nil {
		return nil, err
	}
	b.CustomerID = &customer.ID

	if err := s.borewells.Create(ctx, &b); err != nil {
		return nil, err
	}

	s.log.Info("borewell registered",
		zap.Uint("borewell_id", b.ID),
		zap.Uint("customer_id", customer.ID),
		zap.String("well_type", b.WellType),
	)
	return &Registration{Borewell: b, Customer: *customer}, nil
}

// Summary is a map marker. Customer fields are null for orphaned borewells.
type Summary struct {
	Latitude      string  `json:"latitude"`
	Longitude     string  `json:"longitude"`
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone_number"`
}

type OwnerContact struct {
	Name      *string `json:"name"`
	Address   *string `json:"address"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Latitude  string  `json:"latitude"`
	Longitude string  `json:"longitude"`
}

func (s *Service) ListBorewells(ctx context.Context) ([]Summary, error) {
	borewells, err := s.borewells.ListWithOwners(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(borewells))
	for _, b := range borewells {
		item := Summary{Latitude: b.Latitude, Longitude: b.Longitude}
		if owner := b.Customer; owner != nil {
			item.CustomerName = &owner.Name
			item.CustomerPhone = &owner.PhoneNumber
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) ListOwners(ctx context.Context) ([]OwnerContact, error) {
	borewells, err := s.borewells.ListWithOwners(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]OwnerContact, 0, len(borewells))
	for _, b := range borewells {
		item := OwnerContact{Latitude: b.Latitude, Longitude: b.Longitude}
		if owner := b.Customer; owner != nil {
			item.Name = &owner.Name
			item.Address = &owner.Address
			item.Phone = &owner.PhoneNumber
			item.Email = &owner.Email
		}
		out = append(out, item)
	}
	return out, nil
}

// ListForCustomer returns the borewells registered to customerID, newest first.
func (s *Service) ListForCustomer(ctx context.Context, customerID uint) ([]models.Borewell, error) {
	return s.borewells.ListByCustomer(ctx, customerID)
}
