package borewell

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nabhajit/bhujal/internal/models"
	"github.com/nabhajit/bhujal/internal/utils"
)

const (
	maxFieldLen       = 100
	maxDescriptionLen = 500
)

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = errors.New("borewell: invalid input")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// RegistrationForm is the raw registration form as posted by the map page.
type RegistrationForm struct {
	CustomerID       string `form:"cid"`
	Latitude         string `form:"latitude"`
	Longitude        string `form:"longitude"`
	WellType         string `form:"well-type"`
	DugWell          string `form:"dug-well"`
	WallType         string `form:"wall-type"`
	DrilledWell      string `form:"drilled-well"`
	SupplySystem     string `form:"supply-system"`
	ExactDepth       string `form:"exact-depth"`
	MotorOperated    string `form:"motor-operated"`
	AuthoritiesAware string `form:"authorities-aware"`
	Description      string `form:"description"`
}

// Normalize turns the raw form into a Borewell without an owner. The well
// type decides which of depth/wall/supply fields are kept: dug wells keep the
// wall type, drilled wells keep the supply system, anything else keeps neither.
func Normalize(form RegistrationForm) (models.Borewell, error) {
	if err := form.validate(); err != nil {
		return models.Borewell{}, err
	}

	depth, err := utils.ParseOptionalInt(form.ExactDepth)
	if err != nil {
		return models.Borewell{}, &ValidationError{Field: "exact-depth", Reason: "must be a whole number"}
	}
	if depth < 0 {
		return models.Borewell{}, &ValidationError{Field: "exact-depth", Reason: "cannot be negative"}
	}

	b := models.Borewell{
		Latitude:         form.Latitude,
		Longitude:        form.Longitude,
		WellType:         form.WellType,
		ExactDepth:       depth,
		MotorOperated:    utils.Checked(form.MotorOperated),
		AuthoritiesAware: utils.Checked(form.AuthoritiesAware),
		Description:      form.Description,
	}

	switch form.WellType {
	case models.WellTypeDug:
		b.DepthType = form.DugWell
		b.WallType = form.WallType
	case models.WellTypeDrilled:
		b.DepthType = form.DrilledWell
		b.SupplySystem = form.SupplySystem
	}
	return b, nil
}

func (f RegistrationForm) validate() error {
	if strings.TrimSpace(f.Latitude) == "" {
		return &ValidationError{Field: "latitude", Reason: "is required"}
	}
	if strings.TrimSpace(f.Longitude) == "" {
		return &ValidationError{Field: "longitude", Reason: "is required"}
	}

	bounded := []struct {
		name, value string
	}{
		{"latitude", f.Latitude},
		{"longitude", f.Longitude},
		{"well-type", f.WellType},
		{"dug-well", f.DugWell},
		{"wall-type", f.WallType},
		{"drilled-well", f.DrilledWell},
		{"supply-system", f.SupplySystem},
	}
	for _, field := range bounded {
		if utf8.RuneCountInString(field.value) > maxFieldLen {
			return &ValidationError{Field: field.name, Reason: fmt.Sprintf("cannot exceed %d characters", maxFieldLen)}
		}
	}
	if utf8.RuneCountInString(f.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("cannot exceed %d characters", maxDescriptionLen)}
	}
	return nil
}
