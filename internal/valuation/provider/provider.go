// Package provider implements the external price estimation provider: LLM
// text-generation backends behind interchangeable extraction strategies.
//
// Every failure mode of a backend call (transport error, malformed output,
// explicit no-data sentinel) is absorbed here and reported as
// ErrUnavailable; nothing from this package propagates as a fatal error.
package provider

import (
	"context"
	"errors"

	"valora_backend/platform/logger"
)

// ErrUnavailable indicates the provider could not produce a usable estimate.
var ErrUnavailable = errors.New("price estimate unavailable")

// Estimate is a usable price-per-m² value, optionally with a structured
// breakdown of the sources that produced it.
type Estimate struct {
	PriceM2 float64
	Detail  map[string]any
}

// Estimator produces a price-per-m² estimate for an address. The only
// expected failure is ErrUnavailable.
type Estimator interface {
	Estimate(ctx context.Context, address, postalCode string) (Estimate, error)
}

// TextGenerator is a single-prompt text-generation backend.
type TextGenerator interface {
	// Name identifies the backend model for logging.
	Name() string
	// Generate returns the model's text output for one prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// run executes the prompt sequence against the backend, parsing each
// response until one yields an estimate. The second prompt is the
// reformulated retry; after both fail the strategy reports ErrUnavailable.
func run(ctx context.Context, gen TextGenerator, log *logger.Logger, strategy string, prompts []string, parse func(string) (Estimate, error)) (Estimate, error) {
	var lastErr error
	for _, prompt := range prompts {
		raw, err := gen.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		est, err := parse(raw)
		if err != nil {
			lastErr = err
			continue
		}

		log.ProviderEvent(strategy, true, "")
		return est, nil
	}

	reason := "no usable estimate"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	log.ProviderEvent(strategy, false, reason)

	return Estimate{}, ErrUnavailable
}
