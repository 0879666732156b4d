package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"valora_backend/internal/valuation/domain"
	"valora_backend/internal/valuation/service"
	"valora_backend/internal/valuation/transport"
	"valora_backend/platform/apperr"
	"valora_backend/platform/validator"
)

type fakeEvaluator struct {
	result domain.Result
	err    error
	calls  int
	last   service.Request
}

func (f *fakeEvaluator) Evaluate(_ context.Context, req service.Request) (domain.Result, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return domain.Result{}, f.err
	}
	return f.result, nil
}

func setupRouter(eval *fakeEvaluator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(eval, validator.New())
	r.POST("/valuation/v1/price-m2", h.PriceM2)
	return r
}

func post(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/valuation/v1/price-m2", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPriceM2_Success(t *testing.T) {
	price := 3000.0
	total := 240000.0
	eval := &fakeEvaluator{result: domain.Result{
		LeadID:     "L1",
		PriceM2:    &price,
		TotalPrice: &total,
		Source:     domain.SourceExternalProvider,
		Confidence: 85,
		ComputedAt: time.Now(),
	}}
	r := setupRouter(eval)

	w := post(t, r, `{"lead_id":"L1","address":"Calle Mayor 5, 28013 Madrid","area":80}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp transport.ValuationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.LeadID != "L1" || resp.Source != "external_provider" || resp.Confidence != 85 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.PriceM2 == nil || *resp.PriceM2 != 3000 {
		t.Fatalf("expected price 3000, got %v", resp.PriceM2)
	}
	if resp.ValuationPrice == nil || *resp.ValuationPrice != 240000 {
		t.Fatalf("expected total 240000, got %v", resp.ValuationPrice)
	}
	if eval.last.Area == nil || *eval.last.Area != 80 {
		t.Fatalf("expected area forwarded, got %v", eval.last.Area)
	}
}

func TestPriceM2_MissingLeadIDRejectedBeforeService(t *testing.T) {
	eval := &fakeEvaluator{}
	r := setupRouter(eval)

	w := post(t, r, `{"address":"Calle Mayor 5, 28013 Madrid"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if eval.calls != 0 {
		t.Fatalf("expected no service call, got %d", eval.calls)
	}
}

func TestPriceM2_NonPositiveAreaRejected(t *testing.T) {
	eval := &fakeEvaluator{}
	r := setupRouter(eval)

	w := post(t, r, `{"lead_id":"L1","address":"Calle Mayor 5, 28013","area":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if eval.calls != 0 {
		t.Fatalf("expected no service call, got %d", eval.calls)
	}
}

func TestPriceM2_MalformedBody(t *testing.T) {
	eval := &fakeEvaluator{}
	r := setupRouter(eval)

	w := post(t, r, `{"lead_id":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPriceM2_DomainErrorsMapped(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("no postal code found in request"), http.StatusBadRequest},
		{"not found", apperr.NotFound("lead not found"), http.StatusNotFound},
		{"internal", apperr.Internal("failed to persist valuation"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eval := &fakeEvaluator{err: tc.err}
			r := setupRouter(eval)

			w := post(t, r, `{"lead_id":"L1","address":"Calle Mayor 5, 28013"}`)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if tc.status == http.StatusInternalServerError && !strings.Contains(w.Body.String(), "internal_error") {
				t.Fatalf("internal errors must not leak detail: %s", w.Body.String())
			}
		})
	}
}
