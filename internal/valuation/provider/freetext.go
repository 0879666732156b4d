package provider

import (
	"context"
	"fmt"

	"valora_backend/platform/logger"
)

// FreeTextStrategy asks for a short natural-language numeric answer and
// parses the first plausible number out of it.
type FreeTextStrategy struct {
	gen TextGenerator
	log *logger.Logger
}

// NewFreeText creates the free-text-parsed extraction strategy.
func NewFreeText(gen TextGenerator, log *logger.Logger) *FreeTextStrategy {
	return &FreeTextStrategy{gen: gen, log: log}
}

// Estimate implements Estimator.
func (s *FreeTextStrategy) Estimate(ctx context.Context, address, postalCode string) (Estimate, error) {
	prompts := []string{
		freeTextPrompt(fmt.Sprintf("the address %q (postal code %s)", address, postalCode)),
		freeTextPrompt(fmt.Sprintf("postal code %s in Spain", postalCode)),
	}
	return run(ctx, s.gen, s.log, "freetext", prompts, parseFreeText)
}

func freeTextPrompt(subject string) string {
	return fmt.Sprintf(`What is the current residential sale price per square meter in euros for %s?

Answer in one short sentence containing the number, or reply exactly "NA" if you have no reliable data.`, subject)
}
