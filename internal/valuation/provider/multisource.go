package provider

import (
	"context"
	"fmt"

	"valora_backend/platform/logger"
)

// MultiSourceStrategy asks for up to three named-portal figures in one JSON
// shape and averages whichever are present.
type MultiSourceStrategy struct {
	gen TextGenerator
	log *logger.Logger
}

// NewMultiSource creates the multi-source-averaged extraction strategy.
func NewMultiSource(gen TextGenerator, log *logger.Logger) *MultiSourceStrategy {
	return &MultiSourceStrategy{gen: gen, log: log}
}

// Estimate implements Estimator.
func (s *MultiSourceStrategy) Estimate(ctx context.Context, address, postalCode string) (Estimate, error) {
	prompts := []string{
		multiSourcePrompt(fmt.Sprintf("the address %q (postal code %s)", address, postalCode)),
		multiSourcePrompt(fmt.Sprintf("postal code %s in Spain", postalCode)),
	}
	return run(ctx, s.gen, s.log, "multisource", prompts, parseMultiSource)
}

func multiSourcePrompt(subject string) string {
	return fmt.Sprintf(`Report the residential sale price per square meter in euros for %s as published by each portal.

Reply with JSON only, in exactly this shape, using null for any portal you have no figure for:
{"idealista": <number or null>, "fotocasa": <number or null>, "realadvisor": <number or null>}

No other text.`, subject)
}
