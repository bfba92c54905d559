package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	aws_pkg "github.com/drme990/manasik-v2-sub001/pkg/aws"
	"github.com/drme990/manasik-v2-sub001/providers"
	"github.com/drme990/manasik-v2-sub001/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CurrencyService serves rate tables and conversions.
type CurrencyService interface {
	// GetRates never fails because of the provider: when it is down the
	// last stored table, or an empty one, comes back marked degraded.
	GetRates(ctx context.Context, base string) (*models.RateResult, *ServiceError)
	Convert(ctx context.Context, amount float64, from, to string) (*models.ConvertResult, *ServiceError)
	// RefreshRates bypasses the cache and fails when the provider does.
	RefreshRates(ctx context.Context, actor, base string) (*models.RateResult, *ServiceError)
	SupportedCurrencies() []string
}

type currencyServiceImpl struct {
	provider   providers.RateProvider
	cache      repository.RateCache
	store      repository.ExchangeRateStore
	currencies models.CurrencySet
	cacheTTL   time.Duration
	activities ActivityService
	metrics    aws_pkg.MetricsRecorder
	logger     *zap.Logger
	opts       serviceOptions
}

func NewCurrencyService(
	provider providers.RateProvider,
	cache repository.RateCache,
	store repository.ExchangeRateStore,
	currencies models.CurrencySet,
	cacheTTL time.Duration,
	activities ActivityService,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
	opts ...Option,
) CurrencyService {
	return &currencyServiceImpl{
		provider:   provider,
		cache:      cache,
		store:      store,
		currencies: currencies,
		cacheTTL:   cacheTTL,
		activities: activities,
		metrics:    metrics,
		logger:     logger,
		opts:       applyOptions(opts),
	}
}

func (s *currencyServiceImpl) SupportedCurrencies() []string {
	codes := make([]string, 0, len(s.currencies))
	for c := range s.currencies {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (s *currencyServiceImpl) GetRates(ctx context.Context, base string) (*models.RateResult, *ServiceError) {
	base = models.NormalizeCurrency(base)
	if !s.currencies.Contains(base) {
		return nil, notFoundError("Unsupported currency: " + base)
	}

	if s.cache != nil {
		table, err := s.cache.Get(ctx, base)
		if err == nil {
			recordCount(s.metrics, aws_pkg.MetricRateCacheHits, map[string]string{"Base": base})
			return okResult(table, models.RateSourceCache), nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Rate cache unavailable", zap.String("base", base), zap.Error(err))
		}
		recordCount(s.metrics, aws_pkg.MetricRateCacheMisses, map[string]string{"Base": base})
	}

	table, err := s.fetch(ctx, base)
	if err == nil {
		return okResult(table, models.RateSourceProvider), nil
	}

	s.logger.Warn("Exchange rate provider failed, serving fallback", zap.String("base", base), zap.Error(err))
	recordCount(s.metrics, aws_pkg.MetricRatesDegraded, map[string]string{"Base": base})
	reason := err.Error()

	stored, serr := s.store.FindByBase(ctx, base)
	if serr == nil {
		checked := *stored
		checked.Rates = s.filterRates(base, stored.Rates)
		res := okResult(&checked, models.RateSourceStored)
		res.Status = models.RateStatusDegraded
		res.Reason = reason
		return res, nil
	}
	if !errors.Is(serr, repository.ErrNotFound) {
		s.logger.Warn("Stored rate lookup failed", zap.String("base", base), zap.Error(serr))
	}

	return &models.RateResult{
		Base:   base,
		Rates:  map[string]float64{},
		Status: models.RateStatusDegraded,
		Source: models.RateSourceNone,
		Reason: reason,
	}, nil
}

func (s *currencyServiceImpl) RefreshRates(ctx context.Context, actor, base string) (*models.RateResult, *ServiceError) {
	base = models.NormalizeCurrency(base)
	if !s.currencies.Contains(base) {
		return nil, notFoundError("Unsupported currency: " + base)
	}
	table, err := s.fetch(ctx, base)
	if err != nil {
		s.logger.Error("Rate refresh failed", zap.String("base", base), zap.Error(err))
		return nil, upstreamError("Exchange rate provider unavailable")
	}
	s.activities.Record(ctx, models.Activity{
		Actor:    actor,
		Action:   models.ActionRatesRefreshed,
		Entity:   "currency",
		EntityID: base,
		Details:  map[string]interface{}{"provider": table.Provider, "count": len(table.Rates)},
	})
	return okResult(table, models.RateSourceProvider), nil
}

// fetch pulls a fresh table and writes it through to the cache and the store.
func (s *currencyServiceImpl) fetch(ctx context.Context, base string) (*models.ExchangeRateTable, error) {
	raw, err := s.provider.FetchRates(ctx, base)
	if err != nil {
		return nil, err
	}
	table := &models.ExchangeRateTable{
		Base:      base,
		Rates:     s.filterRates(base, raw),
		Provider:  s.provider.Name(),
		FetchedAt: s.opts.now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, table, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache rates", zap.String("base", base), zap.Error(err))
		}
	}
	if err := s.store.Save(ctx, table); err != nil {
		s.logger.Warn("Failed to store rates", zap.String("base", base), zap.Error(err))
	}
	return table, nil
}

// filterRates keeps supported codes with positive finite multipliers and pins base to 1.
func (s *currencyServiceImpl) filterRates(base string, raw map[string]float64) map[string]float64 {
	rates := make(map[string]float64, len(s.currencies))
	for code, rate := range raw {
		code = models.NormalizeCurrency(code)
		if !s.currencies.Contains(code) || rate <= 0 || math.IsInf(rate, 0) || math.IsNaN(rate) {
			continue
		}
		rates[code] = rate
	}
	rates[base] = 1
	return rates
}

func okResult(table *models.ExchangeRateTable, source models.RateSource) *models.RateResult {
	fetchedAt := table.FetchedAt
	return &models.RateResult{
		Base:      table.Base,
		Rates:     table.Rates,
		Status:    models.RateStatusOK,
		Source:    source,
		FetchedAt: &fetchedAt,
	}
}

func (s *currencyServiceImpl) Convert(ctx context.Context, amount float64, from, to string) (*models.ConvertResult, *ServiceError) {
	from = models.NormalizeCurrency(from)
	to = models.NormalizeCurrency(to)
	if !s.currencies.Contains(from) {
		return nil, notFoundError("Unsupported currency: " + from)
	}
	if !s.currencies.Contains(to) {
		return nil, notFoundError("Unsupported currency: " + to)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, invalidInputError("Amount must be a finite number")
	}

	// Signed amounts convert as-is so refunds and adjustments round-trip.
	if from == to {
		return &models.ConvertResult{From: from, To: to, Amount: amount, Converted: amount, Rate: 1, Status: models.RateStatusOK}, nil
	}

	rates, svcErr := s.GetRates(ctx, from)
	if svcErr != nil {
		return nil, svcErr
	}
	rate, ok := rates.Rates[to]
	if !ok {
		return nil, upstreamError(fmt.Sprintf("Exchange rate %s to %s unavailable", from, to))
	}

	converted := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate))
	return &models.ConvertResult{
		From:      from,
		To:        to,
		Amount:    amount,
		Converted: converted.InexactFloat64(),
		Rate:      rate,
		Status:    rates.Status,
	}, nil
}
