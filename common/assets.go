package common

import (
	"strings"
	"sync"

	"github.com/dan13ram/xbridge-engine/models"
)

// AssetRegistry resolves a symbolic asset to its address on a given chain.
type AssetRegistry struct {
	mu     sync.RWMutex
	assets map[string]models.AssetConfig
}

func NewAssetRegistry(assets []models.AssetConfig) *AssetRegistry {
	r := &AssetRegistry{assets: make(map[string]models.AssetConfig)}
	for _, a := range assets {
		r.Register(a)
	}
	return r
}

func (r *AssetRegistry) Register(asset models.AssetConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[strings.ToUpper(asset.Symbol)] = asset
}

func (r *AssetRegistry) Get(symbol string) (models.AssetConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[strings.ToUpper(symbol)]
	return a, ok
}

// Resolve returns the asset's address on chain. Native gas tokens resolve to NativeAsset.
func (r *AssetRegistry) Resolve(symbol string, chain models.Chain) (string, bool) {
	a, ok := r.Get(symbol)
	if !ok {
		return "", false
	}
	address, ok := a.Mappings[chain]
	if !ok || address == "" {
		return "", false
	}
	return address, true
}

// DefaultAssets is used when the config file does not list any assets.
func DefaultAssets() []models.AssetConfig {
	return []models.AssetConfig{
		{
			Symbol:   "USDC",
			Decimals: 6,
			PriceUSD: "1",
			Mappings: map[models.Chain]string{
				models.ChainEthereum:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
				models.ChainPolygon:   "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
				models.ChainArbitrum:  "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
				models.ChainBSC:       "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
				models.ChainAvalanche: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
				models.ChainSolana:    "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			},
		},
		{
			Symbol:   "USDT",
			Decimals: 6,
			PriceUSD: "1",
			Mappings: map[models.Chain]string{
				models.ChainEthereum: "0xdAC17F958D2ee523a2206206994597C13D831ec7",
				models.ChainPolygon:  "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
				models.ChainArbitrum: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9",
				models.ChainBSC:      "0x55d398326f99059fF775485246999027B3197955",
				models.ChainSolana:   "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB",
			},
		},
		{
			Symbol:   "ETH",
			Decimals: 18,
			PriceUSD: "3000",
			Mappings: map[models.Chain]string{
				models.ChainEthereum: NativeAsset,
				models.ChainArbitrum: NativeAsset,
				models.ChainPolygon:  "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619",
			},
		},
	}
}
