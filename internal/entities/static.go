package entities

import (
	"context"
	"sync/atomic"
)

// Static is a Recognizer that returns fixed results. Use it anywhere model
// inference must not run, such as pipeline tests and local tooling.
// It is safe for concurrent use as long as Bundle and Err are not modified.
type Static struct {
	Bundle Bundle
	Err    error
	// Calls counts Recognize invocations.
	Calls atomic.Int64
}

// Recognize returns the configured bundle or error, deduplicating each set.
func (s *Static) Recognize(ctx context.Context, text string) (Bundle, error) {
	s.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return Bundle{}, err
	}
	if s.Err != nil {
		return Bundle{}, s.Err
	}
	c := newCollector()
	for _, p := range s.Bundle.Persons {
		c.add(LabelPerson, p)
	}
	for _, d := range s.Bundle.Dates {
		c.add(LabelDate, d)
	}
	for _, m := range s.Bundle.Money {
		c.add(LabelMoney, m)
	}
	return c.bundle(), nil
}

var _ Recognizer = (*Static)(nil)
