// Package service implements the valuation engine: cache-aside price
// lookup, provider fallback, confidence scoring, and persistence of the
// outcome onto the lead record.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"valora_backend/internal/valuation/cache"
	"valora_backend/internal/valuation/domain"
	"valora_backend/internal/valuation/postal"
	"valora_backend/internal/valuation/provider"
	"valora_backend/internal/valuation/repository"
	"valora_backend/platform/apperr"
	"valora_backend/platform/logger"
)

// PriceCache is the freshness cache consulted before the provider.
type PriceCache interface {
	Lookup(ctx context.Context, postalCode string) (cache.Entry, error)
	Put(ctx context.Context, postalCode string, priceM2 float64, source domain.Source, ttlDays int) error
}

// LeadStore persists valuation outcomes onto leads.
type LeadStore interface {
	UpdateValuation(ctx context.Context, leadID string, u repository.ValuationUpdate) error
}

// Request is one valuation request. Area is optional; postal code may be
// given explicitly or embedded in the address.
type Request struct {
	LeadID     string
	Address    string
	Area       *float64
	PostalCode string
}

// Service orchestrates one valuation pass per request.
type Service struct {
	cache    PriceCache
	provider provider.Estimator
	leads    LeadStore
	log      *logger.Logger
	now      func() time.Time
	ttlDays  int
}

// New creates the valuation service. A ttlDays of zero or less falls back
// to the cache default.
func New(priceCache PriceCache, estimator provider.Estimator, leads LeadStore, log *logger.Logger, ttlDays int) *Service {
	if ttlDays <= 0 {
		ttlDays = cache.DefaultTTLDays
	}
	return &Service{
		cache:    priceCache,
		provider: estimator,
		leads:    leads,
		log:      log,
		now:      time.Now,
		ttlDays:  ttlDays,
	}
}

// Evaluate runs one valuation: validate, resolve the postal code, consult
// the cache, fall back to the provider on a miss, score, and persist. The
// outcome is persisted even when no price could be determined.
func (s *Service) Evaluate(ctx context.Context, req Request) (domain.Result, error) {
	log := s.log.WithContext(ctx)

	if req.LeadID == "" {
		return domain.Result{}, apperr.Validation("lead_id is required")
	}
	if req.Area != nil && *req.Area <= 0 {
		return domain.Result{}, apperr.Validation("area must be greater than zero")
	}

	code, err := postal.Extract(req.PostalCode, req.Address)
	if err != nil {
		return domain.Result{}, apperr.Validation("no postal code found in request")
	}

	result := domain.Result{
		LeadID:     req.LeadID,
		Source:     domain.SourceUnavailable,
		ComputedAt: s.now(),
	}

	entry, err := s.cache.Lookup(ctx, code)
	switch {
	case err == nil:
		log.CacheEvent("hit", code)
		price := entry.PriceM2
		result.PriceM2 = &price
		result.Source = domain.SourceCached

	default:
		if !errors.Is(err, cache.ErrCacheMiss) {
			// Read failures degrade to a miss so a flaky cache never
			// blocks a valuation.
			log.DatabaseError("cache_lookup", err)
		}
		log.CacheEvent("miss", code)

		est, err := s.provider.Estimate(ctx, req.Address, code)
		if err != nil {
			// The provider reports every failure as unavailable; the
			// lead still gets an outcome written below.
			break
		}

		price := est.PriceM2
		result.PriceM2 = &price
		result.Source = domain.SourceExternalProvider
		result.Detail = est.Detail

		if err := s.cache.Put(ctx, code, price, domain.SourceExternalProvider, s.ttlDays); err != nil {
			// A failed cache write costs one extra provider call later,
			// never the valuation itself.
			log.DatabaseError("cache_put", err)
		} else {
			log.CacheEvent("put", code)
		}
	}

	if result.PriceM2 != nil && req.Area != nil {
		total := math.Round(*result.PriceM2 * *req.Area)
		result.TotalPrice = &total
	}
	result.Confidence = result.Source.Confidence()

	update := repository.ValuationUpdate{
		PriceM2:        result.PriceM2,
		ValuationPrice: result.TotalPrice,
		Source:         result.Source,
		Confidence:     result.Confidence,
		ValuationAt:    result.ComputedAt,
	}
	if err := s.leads.UpdateValuation(ctx, req.LeadID, update); err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return domain.Result{}, apperr.NotFound("lead not found")
		}
		log.DatabaseError("update_valuation", err)
		return domain.Result{}, apperr.Wrap(apperr.KindInternal, "failed to persist valuation", err)
	}

	return result, nil
}
