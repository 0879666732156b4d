// Package valuation wires the valuation bounded context: cache, provider,
// repository, service, and HTTP handler.
package valuation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	apphttp "valora_backend/internal/http"
	"valora_backend/internal/valuation/cache"
	"valora_backend/internal/valuation/handler"
	"valora_backend/internal/valuation/provider"
	"valora_backend/internal/valuation/repository"
	"valora_backend/internal/valuation/service"
	"valora_backend/platform/config"
	"valora_backend/platform/logger"
	"valora_backend/platform/validator"
)

// ModuleConfig is the configuration surface the valuation module needs.
type ModuleConfig interface {
	config.ProviderConfig
	config.ValuationConfig
}

// Module bundles the valuation domain components.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the valuation module with all dependencies wired.
func NewModule(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client, val *validator.Validator, cfg ModuleConfig, log *logger.Logger) (*Module, error) {
	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	estimator, err := newEstimator(cfg.GetValuationStrategy(), gen, log)
	if err != nil {
		return nil, err
	}

	svc := service.New(
		cache.New(rdb),
		estimator,
		repository.New(pool),
		log,
		cfg.GetPriceCacheTTLDays(),
	)

	return &Module{handler: handler.New(svc, val)}, nil
}

func newGenerator(ctx context.Context, cfg ModuleConfig) (provider.TextGenerator, error) {
	switch cfg.GetProviderBackend() {
	case config.BackendGemini:
		return provider.NewGeminiGenerator(ctx, cfg.GetGeminiAPIKey(), cfg.GetProviderModel())
	case config.BackendMoonshot:
		return provider.NewMoonshotGenerator(provider.MoonshotConfig{
			APIKey: cfg.GetMoonshotAPIKey(),
			Model:  cfg.GetProviderModel(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider backend %q", cfg.GetProviderBackend())
	}
}

func newEstimator(strategy string, gen provider.TextGenerator, log *logger.Logger) (provider.Estimator, error) {
	switch strategy {
	case config.StrategyStrict:
		return provider.NewStrict(gen, log), nil
	case config.StrategyMultiSource:
		return provider.NewMultiSource(gen, log), nil
	case config.StrategyFreeText:
		return provider.NewFreeText(gen, log), nil
	default:
		return nil, fmt.Errorf("unknown valuation strategy %q", strategy)
	}
}

// Name implements http.Module.
func (m *Module) Name() string {
	return "valuation"
}

// RegisterRoutes implements http.Module.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Engine.Group("/valuation/v1")
	group.POST("/price-m2", m.handler.PriceM2)
}
