package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// multiSourceNames are the portals the multi-source prompt asks about.
var multiSourceNames = []string{"idealista", "fotocasa", "realadvisor"}

var (
	// First numeric token: either a dot-grouped thousands number with an
	// optional comma fraction ("3.150,00"), or a plain 3-6 digit token with
	// an optional fraction ("6526", "3150.50").
	numberPattern = regexp.MustCompile(`(?:^|[^\d.,])(\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d{3,6}(?:[.,]\d+)?)(?:$|[^\d])`)

	// Dot-grouped integer without a decimal part ("2.950").
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)

	// Standalone no-data sentinel.
	naPattern = regexp.MustCompile(`(?i)^\W*n/?a\W*$`)
)

// stripCodeFences removes a surrounding markdown code fence, which LLM
// backends routinely wrap JSON answers in.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:] // drop the language tag line
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}

// parseStrict accepts only the fixed shape {"price_m2": <integer>}.
// A missing or null field, the {"na": true} sentinel, or a non-integer
// value all yield ErrUnavailable.
func parseStrict(raw string) (Estimate, error) {
	var payload struct {
		PriceM2 *json.Number `json:"price_m2"`
		NA      bool         `json:"na"`
	}

	dec := json.NewDecoder(strings.NewReader(stripCodeFences(raw)))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return Estimate{}, fmt.Errorf("strict payload: %w", err)
	}

	if payload.NA || payload.PriceM2 == nil {
		return Estimate{}, ErrUnavailable
	}

	value, err := payload.PriceM2.Int64()
	if err != nil || value <= 0 {
		return Estimate{}, ErrUnavailable
	}

	return Estimate{PriceM2: float64(value)}, nil
}

// parseMultiSource decodes the named-source JSON shape and averages
// whichever of the three sources are present and numeric. The full
// per-source payload is kept as the estimate detail.
func parseMultiSource(raw string) (Estimate, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &payload); err != nil {
		return Estimate{}, fmt.Errorf("multi-source payload: %w", err)
	}

	detail := make(map[string]any, len(multiSourceNames))
	var sum float64
	var count int
	for _, name := range multiSourceNames {
		value, ok := payload[name].(float64)
		if !ok || value <= 0 {
			detail[name] = nil
			continue
		}
		detail[name] = value
		sum += value
		count++
	}

	if count == 0 {
		return Estimate{}, ErrUnavailable
	}

	return Estimate{
		PriceM2: math.Round(sum / float64(count)),
		Detail:  detail,
	}, nil
}

// parseFreeText extracts the first plausible number from a natural-language
// answer, normalizing Spanish locale punctuation ("." thousands, ","
// decimal). The NA sentinel or absence of a number yields ErrUnavailable.
func parseFreeText(raw string) (Estimate, error) {
	text := strings.TrimSpace(stripCodeFences(raw))
	if naPattern.MatchString(text) {
		return Estimate{}, ErrUnavailable
	}

	match := numberPattern.FindStringSubmatch(text)
	if match == nil {
		return Estimate{}, ErrUnavailable
	}

	value, err := strconv.ParseFloat(normalizeLocaleNumber(match[1]), 64)
	if err != nil || value <= 0 {
		return Estimate{}, ErrUnavailable
	}

	return Estimate{PriceM2: value}, nil
}

// normalizeLocaleNumber converts a Spanish-formatted numeric token to Go
// float syntax: "3.150,00" becomes "3150.00", "2.950" becomes "2950".
func normalizeLocaleNumber(token string) string {
	if strings.Contains(token, ",") {
		token = strings.ReplaceAll(token, ".", "")
		return strings.Replace(token, ",", ".", 1)
	}
	if thousandsPattern.MatchString(token) {
		return strings.ReplaceAll(token, ".", "")
	}
	return token
}
