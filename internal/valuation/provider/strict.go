package provider

import (
	"context"
	"fmt"

	"valora_backend/platform/logger"
)

// StrictStrategy asks for a single integer field in a fixed JSON shape and
// accepts nothing else.
type StrictStrategy struct {
	gen TextGenerator
	log *logger.Logger
}

// NewStrict creates the strict-structured extraction strategy.
func NewStrict(gen TextGenerator, log *logger.Logger) *StrictStrategy {
	return &StrictStrategy{gen: gen, log: log}
}

// Estimate implements Estimator.
func (s *StrictStrategy) Estimate(ctx context.Context, address, postalCode string) (Estimate, error) {
	prompts := []string{
		strictPrompt(fmt.Sprintf("the address %q (postal code %s)", address, postalCode)),
		strictPrompt(fmt.Sprintf("postal code %s in Spain", postalCode)),
	}
	return run(ctx, s.gen, s.log, "strict", prompts, parseStrict)
}

func strictPrompt(subject string) string {
	return fmt.Sprintf(`Estimate the current residential sale price per square meter in euros for %s.

Reply with JSON only, exactly one of:
{"price_m2": <integer>}
{"na": true}

Use {"na": true} if you have no reliable data for this zone. No other text.`, subject)
}
