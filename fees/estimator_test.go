package fees

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetOutput(io.Discard)
}

type mockGasPricer struct {
	mock.Mock
}

func (m *mockGasPricer) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	price, _ := args.Get(0).(*big.Int)
	return price, args.Error(1)
}

func testChains() []models.ChainConfig {
	return []models.ChainConfig{
		{Name: models.ChainEthereum, NativeSymbol: "ETH", NativeDecimals: 18, NativePriceUSD: "3000", TxCost: "0.002", GasLimit: 65000, FinalitySecs: 780, Simulated: true},
		{Name: models.ChainSolana, NativeSymbol: "SOL", NativeDecimals: 9, NativePriceUSD: "150", TxCost: "0.000005", FinalitySecs: 13, Simulated: true},
	}
}

func testProviders() []models.ProviderConfig {
	return []models.ProviderConfig{
		{Name: models.ProviderWormhole, FeeRate: "0.001", BaseDurationSecs: 900, SimulatedStepSecs: 30},
	}
}

func newTestEstimator(t *testing.T, cache Cache) *Estimator {
	assets := common.DefaultAssets()
	e, err := NewEstimator(testChains(), testProviders(), common.NewAssetRegistry(assets), assets, cache)
	require.NoError(t, err)
	return e
}

func totalOf(t *testing.T, fees models.FeeBreakdown) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range []string{fees.SourceFee, fees.BridgeFee, fees.TargetFee} {
		d, err := decimal.NewFromString(v)
		require.NoError(t, err)
		sum = sum.Add(d)
	}
	return sum
}

func TestEstimateStatic(t *testing.T) {
	e := newTestEstimator(t, nil)

	fees, err := e.Estimate(context.Background(), models.ChainEthereum, models.ChainSolana, "USDC", decimal.NewFromInt(100), models.ProviderWormhole)

	require.NoError(t, err)
	assert.Equal(t, "6", fees.SourceFee)
	assert.Equal(t, "0.1", fees.BridgeFee)
	assert.Equal(t, "0.00075", fees.TargetFee)
	assert.Equal(t, "6.10075", fees.Total)
	assert.Equal(t, "USDC", fees.Currency)
	assert.Equal(t, int64(900+780+13), fees.EstimatedDurationSeconds)
	assert.False(t, fees.Stale)

	total, _ := decimal.NewFromString(fees.Total)
	assert.True(t, total.Equal(totalOf(t, fees)))
}

func TestEstimateDeterministic(t *testing.T) {
	e := newTestEstimator(t, nil)
	amount := decimal.RequireFromString("1234.567891")

	first, err := e.Estimate(context.Background(), models.ChainSolana, models.ChainEthereum, "usdc", amount, models.ProviderWormhole)
	require.NoError(t, err)
	second, err := e.Estimate(context.Background(), models.ChainSolana, models.ChainEthereum, "usdc", amount, models.ProviderWormhole)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "1.234568", first.BridgeFee)
}

func TestEstimateLiveSource(t *testing.T) {
	t.Run("Live Value", func(t *testing.T) {
		cache := NewMemoryCache()
		e := newTestEstimator(t, cache)
		pricer := &mockGasPricer{}
		pricer.On("SuggestGasPrice", mock.Anything).Return(big.NewInt(20_000_000_000), nil).Once()
		e.SetLiveSource(models.ChainEthereum, NewEthereumCostSource(pricer, 65000, 18))

		fees, err := e.Estimate(context.Background(), models.ChainEthereum, models.ChainSolana, "USDC", decimal.NewFromInt(100), models.ProviderWormhole)

		require.NoError(t, err)
		assert.Equal(t, "3.9", fees.SourceFee)
		assert.False(t, fees.Stale)
		cached, found, _ := cache.Get(models.ChainEthereum)
		assert.True(t, found)
		assert.Equal(t, "0.0013", cached.String())
		pricer.AssertExpectations(t)
	})

	t.Run("Falls Back To Cache", func(t *testing.T) {
		cache := NewMemoryCache()
		_ = cache.Set(models.ChainEthereum, decimal.RequireFromString("0.0013"))
		e := newTestEstimator(t, cache)
		pricer := &mockGasPricer{}
		pricer.On("SuggestGasPrice", mock.Anything).Return(nil, errors.New("rpc down"))
		e.SetLiveSource(models.ChainEthereum, NewEthereumCostSource(pricer, 65000, 18))

		fees, err := e.Estimate(context.Background(), models.ChainEthereum, models.ChainSolana, "USDC", decimal.NewFromInt(100), models.ProviderWormhole)

		require.NoError(t, err)
		assert.Equal(t, "3.9", fees.SourceFee)
		assert.True(t, fees.Stale)
	})

	t.Run("Falls Back To Static", func(t *testing.T) {
		e := newTestEstimator(t, NewMemoryCache())
		pricer := &mockGasPricer{}
		pricer.On("SuggestGasPrice", mock.Anything).Return(nil, errors.New("rpc down"))
		e.SetLiveSource(models.ChainEthereum, NewEthereumCostSource(pricer, 65000, 18))

		fees, err := e.Estimate(context.Background(), models.ChainEthereum, models.ChainSolana, "USDC", decimal.NewFromInt(100), models.ProviderWormhole)

		require.NoError(t, err)
		assert.Equal(t, "6", fees.SourceFee)
		assert.True(t, fees.Stale)
		assert.Equal(t, "6.10075", fees.Total)
	})
}

func TestEstimateUnsupported(t *testing.T) {
	e := newTestEstimator(t, nil)
	amount := decimal.NewFromInt(1)

	testCases := []struct {
		name     string
		source   models.Chain
		target   models.Chain
		asset    string
		provider models.Provider
		err      error
	}{
		{"Source Chain", models.ChainBSC, models.ChainSolana, "USDC", models.ProviderWormhole, common.ErrUnsupportedChain},
		{"Target Chain", models.ChainEthereum, "tron", "USDC", models.ProviderWormhole, common.ErrUnsupportedChain},
		{"Provider", models.ChainEthereum, models.ChainSolana, "USDC", models.ProviderCeler, common.ErrUnsupportedProvider},
		{"Asset", models.ChainEthereum, models.ChainSolana, "DOGE", models.ProviderWormhole, common.ErrUnsupportedAsset},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Estimate(context.Background(), tc.source, tc.target, tc.asset, amount, tc.provider)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestNewEstimatorInvalidConfig(t *testing.T) {
	chains := testChains()
	chains[0].TxCost = "free"
	_, err := NewEstimator(chains, testProviders(), common.NewAssetRegistry(nil), nil, nil)
	assert.Error(t, err)

	providers := testProviders()
	providers[0].FeeRate = "ten"
	_, err = NewEstimator(testChains(), providers, common.NewAssetRegistry(nil), nil, nil)
	assert.Error(t, err)
}
