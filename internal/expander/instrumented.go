package expander

import (
	"context"

	"github.com/italolelis/lineexpander/internal/telemetry"
)

// InstrumentedCompleter wraps a Completer with telemetry.
type InstrumentedCompleter struct {
	completer Completer
	telemetry *telemetry.Telemetry
	provider  string
}

// NewInstrumentedCompleter creates a new instrumented completer.
func NewInstrumentedCompleter(c Completer, tel *telemetry.Telemetry, provider string) *InstrumentedCompleter {
	return &InstrumentedCompleter{
		completer: c,
		telemetry: tel,
		provider:  provider,
	}
}

// Complete runs the completion with telemetry.
func (c *InstrumentedCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	var result string

	err := c.telemetry.InstrumentClientOperation(ctx, c.provider, "complete", func(ctx context.Context) error {
		var err error

		result, err = c.completer.Complete(ctx, p)

		return err
	})
	if err != nil {
		return "", err
	}

	return result, nil
}
