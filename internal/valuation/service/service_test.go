package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"valora_backend/internal/valuation/cache"
	"valora_backend/internal/valuation/domain"
	"valora_backend/internal/valuation/provider"
	"valora_backend/internal/valuation/repository"
	"valora_backend/platform/apperr"
	"valora_backend/platform/logger"
)

type fakeCache struct {
	entries   map[string]cache.Entry
	lookupErr error
	putErr    error
	lookups   int
	puts      int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]cache.Entry)}
}

func (f *fakeCache) Lookup(_ context.Context, postalCode string) (cache.Entry, error) {
	f.lookups++
	if f.lookupErr != nil {
		return cache.Entry{}, f.lookupErr
	}
	entry, ok := f.entries[postalCode]
	if !ok {
		return cache.Entry{}, cache.ErrCacheMiss
	}
	return entry, nil
}

func (f *fakeCache) Put(_ context.Context, postalCode string, priceM2 float64, source domain.Source, ttlDays int) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[postalCode] = cache.Entry{
		PostalCode: postalCode,
		PriceM2:    priceM2,
		Source:     source,
		FetchedAt:  time.Now(),
		TTLDays:    ttlDays,
	}
	return nil
}

type fakeEstimator struct {
	est   provider.Estimate
	err   error
	calls int
}

func (f *fakeEstimator) Estimate(_ context.Context, _, _ string) (provider.Estimate, error) {
	f.calls++
	if f.err != nil {
		return provider.Estimate{}, f.err
	}
	return f.est, nil
}

type fakeLeads struct {
	err     error
	updates []repository.ValuationUpdate
	leadIDs []string
}

func (f *fakeLeads) UpdateValuation(_ context.Context, leadID string, u repository.ValuationUpdate) error {
	f.leadIDs = append(f.leadIDs, leadID)
	f.updates = append(f.updates, u)
	return f.err
}

func newService(c *fakeCache, e *fakeEstimator, l *fakeLeads) *Service {
	return New(c, e, l, logger.New("test"), 90)
}

func areaPtr(v float64) *float64 { return &v }

func TestEvaluate_ProviderFallbackOnMiss(t *testing.T) {
	priceCache := newFakeCache()
	estimator := &fakeEstimator{est: provider.Estimate{PriceM2: 3000}}
	leads := &fakeLeads{}
	svc := newService(priceCache, estimator, leads)

	result, err := svc.Evaluate(context.Background(), Request{
		LeadID:  "L1",
		Address: "Calle Mayor 5, 28013 Madrid",
		Area:    areaPtr(80),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if estimator.calls != 1 {
		t.Fatalf("expected one provider call, got %d", estimator.calls)
	}
	if result.Source != domain.SourceExternalProvider {
		t.Fatalf("expected external_provider source, got %s", result.Source)
	}
	if result.PriceM2 == nil || *result.PriceM2 != 3000 {
		t.Fatalf("expected price 3000, got %v", result.PriceM2)
	}
	if result.TotalPrice == nil || *result.TotalPrice != 240000 {
		t.Fatalf("expected total 240000, got %v", result.TotalPrice)
	}
	if result.Confidence != 85 {
		t.Fatalf("expected confidence 85, got %d", result.Confidence)
	}
	if priceCache.puts != 1 {
		t.Fatalf("expected one cache write, got %d", priceCache.puts)
	}
	if len(leads.updates) != 1 || leads.leadIDs[0] != "L1" {
		t.Fatalf("expected one persisted update for L1, got %v", leads.leadIDs)
	}
}

func TestEvaluate_FreshHitSkipsProvider(t *testing.T) {
	priceCache := newFakeCache()
	priceCache.entries["28013"] = cache.Entry{
		PostalCode: "28013",
		PriceM2:    2800,
		Source:     domain.SourceExternalProvider,
		FetchedAt:  time.Now(),
		TTLDays:    90,
	}
	estimator := &fakeEstimator{est: provider.Estimate{PriceM2: 9999}}
	leads := &fakeLeads{}
	svc := newService(priceCache, estimator, leads)

	result, err := svc.Evaluate(context.Background(), Request{
		LeadID:     "L1",
		PostalCode: "28013",
		Area:       areaPtr(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if estimator.calls != 0 {
		t.Fatalf("expected no provider calls on a fresh hit, got %d", estimator.calls)
	}
	if result.Source != domain.SourceCached {
		t.Fatalf("expected cached source, got %s", result.Source)
	}
	if result.PriceM2 == nil || *result.PriceM2 != 2800 {
		t.Fatalf("expected cached price 2800, got %v", result.PriceM2)
	}
	if result.TotalPrice == nil || *result.TotalPrice != 280000 {
		t.Fatalf("expected total 280000, got %v", result.TotalPrice)
	}
}

func TestEvaluate_SecondCallServedFromCache(t *testing.T) {
	priceCache := newFakeCache()
	estimator := &fakeEstimator{est: provider.Estimate{PriceM2: 3000}}
	leads := &fakeLeads{}
	svc := newService(priceCache, estimator, leads)

	req := Request{LeadID: "L1", Address: "Calle Mayor 5, 28013 Madrid"}
	if _, err := svc.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	result, err := svc.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if estimator.calls != 1 {
		t.Fatalf("expected the provider hit only once across both calls, got %d", estimator.calls)
	}
	if result.Source != domain.SourceCached {
		t.Fatalf("expected second call served from cache, got %s", result.Source)
	}
}

func TestEvaluate_UnavailableStillPersisted(t *testing.T) {
	priceCache := newFakeCache()
	estimator := &fakeEstimator{err: provider.ErrUnavailable}
	leads := &fakeLeads{}
	svc := newService(priceCache, estimator, leads)

	result, err := svc.Evaluate(context.Background(), Request{
		LeadID:  "L1",
		Address: "Calle Mayor 5, 28013 Madrid",
		Area:    areaPtr(80),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Source != domain.SourceUnavailable {
		t.Fatalf("expected unavailable source, got %s", result.Source)
	}
	if result.PriceM2 != nil || result.TotalPrice != nil {
		t.Fatalf("expected nil prices, got %v / %v", result.PriceM2, result.TotalPrice)
	}
	if result.Confidence != 0 {
		t.Fatalf("expected confidence 0, got %d", result.Confidence)
	}
	if priceCache.puts != 0 {
		t.Fatalf("expected no cache write without an estimate, got %d", priceCache.puts)
	}
	if len(leads.updates) != 1 {
		t.Fatalf("expected the outcome persisted, got %d updates", len(leads.updates))
	}
	if leads.updates[0].Source != domain.SourceUnavailable {
		t.Fatalf("expected unavailable persisted, got %s", leads.updates[0].Source)
	}
}

func TestEvaluate_ValidationShortCircuits(t *testing.T) {
	cases := []struct {
		name string
		req  Request
	}{
		{"missing lead id", Request{Address: "Calle Mayor 5, 28013"}},
		{"non-positive area", Request{LeadID: "L1", Address: "Calle Mayor 5, 28013", Area: areaPtr(0)}},
		{"no postal code anywhere", Request{LeadID: "L1", Address: "Calle Mayor 5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			priceCache := newFakeCache()
			estimator := &fakeEstimator{}
			leads := &fakeLeads{}
			svc := newService(priceCache, estimator, leads)

			_, err := svc.Evaluate(context.Background(), tc.req)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if priceCache.lookups != 0 || estimator.calls != 0 || len(leads.updates) != 0 {
				t.Fatal("expected no collaborator calls on validation failure")
			}
		})
	}
}

func TestEvaluate_CacheWriteFailureIsSwallowed(t *testing.T) {
	priceCache := newFakeCache()
	priceCache.putErr = errors.New("redis down")
	estimator := &fakeEstimator{est: provider.Estimate{PriceM2: 3000}}
	leads := &fakeLeads{}
	svc := newService(priceCache, estimator, leads)

	result, err := svc.Evaluate(context.Background(), Request{
		LeadID:  "L1",
		Address: "Calle Mayor 5, 28013 Madrid",
	})
	if err != nil {
		t.Fatalf("cache write failure must not fail the valuation: %v", err)
	}
	if result.Source != domain.SourceExternalProvider {
		t.Fatalf("expected external_provider source, got %s", result.Source)
	}
	if len(leads.updates) != 1 {
		t.Fatalf("expected the outcome persisted, got %d updates", len(leads.updates))
	}
}

func TestEvaluate_CacheReadFailureDegradesToMiss(t *testing.T) {
	priceCache := newFakeCache()
	priceCache.lookupErr = errors.New("redis down")
	estimator := &fakeEstimator{est: provider.Estimate{PriceM2: 3000}}
	leads := &fakeLeads{}
	svc := newService(priceCache, estimator, leads)

	result, err := svc.Evaluate(context.Background(), Request{
		LeadID:  "L1",
		Address: "Calle Mayor 5, 28013 Madrid",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimator.calls != 1 {
		t.Fatalf("expected provider fallback, got %d calls", estimator.calls)
	}
	if result.Source != domain.SourceExternalProvider {
		t.Fatalf("expected external_provider source, got %s", result.Source)
	}
}

func TestEvaluate_LeadNotFound(t *testing.T) {
	priceCache := newFakeCache()
	estimator := &fakeEstimator{est: provider.Estimate{PriceM2: 3000}}
	leads := &fakeLeads{err: repository.ErrLeadNotFound}
	svc := newService(priceCache, estimator, leads)

	_, err := svc.Evaluate(context.Background(), Request{
		LeadID:  "missing",
		Address: "Calle Mayor 5, 28013 Madrid",
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestEvaluate_StoreFailureSurfaces(t *testing.T) {
	priceCache := newFakeCache()
	estimator := &fakeEstimator{est: provider.Estimate{PriceM2: 3000}}
	leads := &fakeLeads{err: errors.New("connection reset")}
	svc := newService(priceCache, estimator, leads)

	_, err := svc.Evaluate(context.Background(), Request{
		LeadID:  "L1",
		Address: "Calle Mayor 5, 28013 Madrid",
	})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestEvaluate_ExplicitPostalCodeWins(t *testing.T) {
	priceCache := newFakeCache()
	priceCache.entries["08018"] = cache.Entry{
		PostalCode: "08018",
		PriceM2:    3500,
		Source:     domain.SourceExternalProvider,
		FetchedAt:  time.Now(),
		TTLDays:    90,
	}
	estimator := &fakeEstimator{}
	leads := &fakeLeads{}
	svc := newService(priceCache, estimator, leads)

	result, err := svc.Evaluate(context.Background(), Request{
		LeadID:     "L1",
		Address:    "Calle Mayor 5, 28013 Madrid",
		PostalCode: "08018",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PriceM2 == nil || *result.PriceM2 != 3500 {
		t.Fatalf("expected the explicit postal code to drive the lookup, got %v", result.PriceM2)
	}
}
