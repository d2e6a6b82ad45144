package notifier

import (
	"context"
	"errors"

	"github.com/nabhajit/bhujal/internal/models"
)

// Notifier tells customers about events on their account.
type Notifier interface {
	CustomerRegistered(ctx context.Context, customer models.Customer) error
	BorewellRegistered(ctx context.Context, customer models.Customer, borewell models.Borewell) error
}

// Multi fans each event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) CustomerRegistered(ctx context.Context, customer models.Customer) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.CustomerRegistered(ctx, customer))
	}
	return errors.Join(errs...)
}

func (m Multi) BorewellRegistered(ctx context.Context, customer models.Customer, borewell models.Borewell) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.BorewellRegistered(ctx, customer, borewell))
	}
	return errors.Join(errs...)
}
