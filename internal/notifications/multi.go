package notifications

import (
	"context"
	"errors"

	"tablebook/pkg/model"
)

// Multi delivers to every notifier even when an earlier one fails.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, kind Kind, reservation *model.Reservation) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, kind, reservation); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
