package fees

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/shopspring/decimal"
)

// CostSource reports the native-currency cost of one transfer on a chain.
type CostSource interface {
	NativeCost(ctx context.Context, chain models.Chain) (decimal.Decimal, error)
}

type StaticCostSource struct {
	costs map[models.Chain]decimal.Decimal
}

func NewStaticCostSource(chains []models.ChainConfig) (*StaticCostSource, error) {
	s := &StaticCostSource{costs: make(map[models.Chain]decimal.Decimal)}
	for _, c := range chains {
		cost, err := decimal.NewFromString(c.TxCost)
		if err != nil {
			return nil, fmt.Errorf("tx cost for %s: %w", c.Name, err)
		}
		s.costs[c.Name] = cost
	}
	return s, nil
}

func (s *StaticCostSource) NativeCost(_ context.Context, chain models.Chain) (decimal.Decimal, error) {
	cost, ok := s.costs[chain]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", common.ErrUnsupportedChain, chain)
	}
	return cost, nil
}

// GasPricer is the part of *ethclient.Client the live cost source needs.
type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// EthereumCostSource prices a transfer as the suggested gas price times the chain's gas limit.
type EthereumCostSource struct {
	client   GasPricer
	gasLimit uint64
	decimals int32
}

func NewEthereumCostSource(client GasPricer, gasLimit uint64, nativeDecimals int32) *EthereumCostSource {
	if gasLimit == 0 {
		gasLimit = common.DefaultEVMTransferGas
	}
	return &EthereumCostSource{
		client:   client,
		gasLimit: gasLimit,
		decimals: nativeDecimals,
	}
}

func (s *EthereumCostSource) NativeCost(ctx context.Context, _ models.Chain) (decimal.Decimal, error) {
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	wei := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(s.gasLimit))
	return decimal.NewFromBigInt(wei, -s.decimals), nil
}

// StaticPriceSource holds configured USD prices for chain gas tokens and assets.
type StaticPriceSource struct {
	native map[models.Chain]decimal.Decimal
	assets map[string]decimal.Decimal
}

func NewStaticPriceSource(chains []models.ChainConfig, assets []models.AssetConfig) (*StaticPriceSource, error) {
	p := &StaticPriceSource{
		native: make(map[models.Chain]decimal.Decimal),
		assets: make(map[string]decimal.Decimal),
	}
	for _, c := range chains {
		price, err := decimal.NewFromString(c.NativePriceUSD)
		if err != nil {
			return nil, fmt.Errorf("native price for %s: %w", c.Name, err)
		}
		p.native[c.Name] = price
	}
	for _, a := range assets {
		price, err := decimal.NewFromString(a.PriceUSD)
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", a.Symbol, err)
		}
		p.assets[strings.ToUpper(a.Symbol)] = price
	}
	return p, nil
}

func (p *StaticPriceSource) NativePriceUSD(chain models.Chain) (decimal.Decimal, bool) {
	price, ok := p.native[chain]
	return price, ok
}

func (p *StaticPriceSource) AssetPriceUSD(symbol string) (decimal.Decimal, bool) {
	price, ok := p.assets[strings.ToUpper(symbol)]
	return price, ok
}
