package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator wraps struct validation for non-HTTP call sites (workers,
// services); gin binding covers handlers.
type Validator interface {
	Validate(interface{}) error
	Var(value interface{}, rules string) error
}

type playgroundValidator struct {
	v *validator.Validate
}

func New() Validator {
	return &playgroundValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (p *playgroundValidator) Validate(obj interface{}) error {
	if err := p.v.Struct(obj); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func (p *playgroundValidator) Var(value interface{}, rules string) error {
	if err := p.v.Var(value, rules); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
