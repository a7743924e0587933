package fees

import (
	"context"
	"fmt"
	"strings"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Estimator prices a transfer from per-chain transaction costs and per-provider fee rates.
//
// A chain with a live cost source falls back to the cache and then to its
// static cost when the live lookup fails. Either fallback marks the breakdown stale.
type Estimator struct {
	chains    map[models.Chain]models.ChainConfig
	providers map[models.Provider]providerSchedule
	assets    *common.AssetRegistry

	live   map[models.Chain]CostSource
	static *StaticCostSource
	prices *StaticPriceSource
	cache  Cache
}

type providerSchedule struct {
	feeRate      decimal.Decimal
	baseDuration int64
}

func NewEstimator(
	chains []models.ChainConfig,
	providers []models.ProviderConfig,
	assets *common.AssetRegistry,
	assetConfigs []models.AssetConfig,
	cache Cache,
) (*Estimator, error) {
	static, err := NewStaticCostSource(chains)
	if err != nil {
		return nil, err
	}
	prices, err := NewStaticPriceSource(chains, assetConfigs)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		cache = NewMemoryCache()
	}

	e := &Estimator{
		chains:    make(map[models.Chain]models.ChainConfig),
		providers: make(map[models.Provider]providerSchedule),
		assets:    assets,
		live:      make(map[models.Chain]CostSource),
		static:    static,
		prices:    prices,
		cache:     cache,
	}
	for _, c := range chains {
		e.chains[c.Name] = c
	}
	for _, p := range providers {
		rate, err := decimal.NewFromString(p.FeeRate)
		if err != nil {
			return nil, fmt.Errorf("fee rate for %s: %w", p.Name, err)
		}
		e.providers[p.Name] = providerSchedule{feeRate: rate, baseDuration: p.BaseDurationSecs}
	}
	return e, nil
}

// SetLiveSource installs a live cost source for chain.
func (e *Estimator) SetLiveSource(chain models.Chain, source CostSource) {
	e.live[chain] = source
}

func (e *Estimator) nativeCost(ctx context.Context, chain models.Chain) (decimal.Decimal, bool) {
	logger := log.WithField("chain", chain)

	if source, ok := e.live[chain]; ok {
		cost, err := source.NativeCost(ctx, chain)
		if err == nil {
			if err := e.cache.Set(chain, cost); err != nil {
				logger.WithError(err).Warn("[FEES] Error caching native cost")
			}
			return cost, false
		}
		logger.WithError(err).Warn("[FEES] Live cost lookup failed")

		cached, found, err := e.cache.Get(chain)
		if err != nil {
			logger.WithError(err).Warn("[FEES] Error reading cached native cost")
		}
		if found {
			logger.Debug("[FEES] Using cached native cost")
			return cached, true
		}

		cost, _ = e.static.NativeCost(ctx, chain)
		logger.Debug("[FEES] Using static native cost")
		return cost, true
	}

	cost, _ := e.static.NativeCost(ctx, chain)
	return cost, false
}

// legFee converts the native cost of one leg into the asset being moved.
func (e *Estimator) legFee(ctx context.Context, chain models.Chain, assetPrice decimal.Decimal, decimals int32) (decimal.Decimal, bool) {
	cost, stale := e.nativeCost(ctx, chain)
	nativePrice, _ := e.prices.NativePriceUSD(chain)
	return cost.Mul(nativePrice).Div(assetPrice).Round(decimals), stale
}

func (e *Estimator) Estimate(
	ctx context.Context,
	sourceChain models.Chain,
	targetChain models.Chain,
	asset string,
	amount decimal.Decimal,
	provider models.Provider,
) (models.FeeBreakdown, error) {
	source, ok := e.chains[sourceChain]
	if !ok {
		return models.FeeBreakdown{}, fmt.Errorf("%w: %s", common.ErrUnsupportedChain, sourceChain)
	}
	target, ok := e.chains[targetChain]
	if !ok {
		return models.FeeBreakdown{}, fmt.Errorf("%w: %s", common.ErrUnsupportedChain, targetChain)
	}
	schedule, ok := e.providers[provider]
	if !ok {
		return models.FeeBreakdown{}, fmt.Errorf("%w: %s", common.ErrUnsupportedProvider, provider)
	}
	assetConfig, ok := e.assets.Get(asset)
	if !ok {
		return models.FeeBreakdown{}, fmt.Errorf("%w: %s", common.ErrUnsupportedAsset, asset)
	}
	assetPrice, ok := e.prices.AssetPriceUSD(asset)
	if !ok || !assetPrice.IsPositive() {
		return models.FeeBreakdown{}, fmt.Errorf("%w: no price for %s", common.ErrUnsupportedAsset, asset)
	}

	sourceFee, sourceStale := e.legFee(ctx, sourceChain, assetPrice, assetConfig.Decimals)
	targetFee, targetStale := e.legFee(ctx, targetChain, assetPrice, assetConfig.Decimals)
	bridgeFee := amount.Mul(schedule.feeRate).Round(assetConfig.Decimals)
	total := sourceFee.Add(bridgeFee).Add(targetFee)

	return models.FeeBreakdown{
		SourceFee:                sourceFee.String(),
		BridgeFee:                bridgeFee.String(),
		TargetFee:                targetFee.String(),
		Total:                    total.String(),
		Currency:                 strings.ToUpper(asset),
		EstimatedDurationSeconds: schedule.baseDuration + source.FinalitySecs + target.FinalitySecs,
		Stale:                    sourceStale || targetStale,
	}, nil
}
