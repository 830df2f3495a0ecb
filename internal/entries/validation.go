package entries

import (
	"github.com/google/uuid"
)

func (in CreateInput) validate() (float64, error) {
	if _, err := uuid.Parse(in.ID); err != nil {
		return 0, ErrInvalidID
	}
	if in.Date.IsZero() {
		return 0, ErrDateRequired
	}
	qty, err := in.Quantity.Float64()
	if err != nil || qty < 0 {
		return 0, ErrInvalidQuantity
	}
	return qty, nil
}

func (in UpdateInput) validate() (*float64, error) {
	if in.Quantity == nil {
		return nil, nil
	}
	qty, err := in.Quantity.Float64()
	if err != nil || qty < 0 {
		return nil, ErrInvalidQuantity
	}
	return &qty, nil
}
