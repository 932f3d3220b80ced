package alerts

import (
	"context"
	"errors"
	"fmt"
)

// MultiSender sends notices to multiple destinations
type MultiSender struct {
	senders []Sender
}

// NewMultiSender creates a new multi-sender
func NewMultiSender(senders ...Sender) *MultiSender {
	return &MultiSender{
		senders: senders,
	}
}

// Send fans the notice out to all configured senders. One sender failing
// does not stop the others; every failure is reported.
func (s *MultiSender) Send(ctx context.Context, notice *Notice) error {
	var errs []error
	for i, sender := range s.senders {
		if err := sender.Send(ctx, notice); err != nil {
			errs = append(errs, fmt.Errorf("sender %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
