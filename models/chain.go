package models

type Chain string

const (
	ChainEthereum  Chain = "ethereum"
	ChainPolygon   Chain = "polygon"
	ChainArbitrum  Chain = "arbitrum"
	ChainBSC       Chain = "bsc"
	ChainAvalanche Chain = "avalanche"
	ChainSolana    Chain = "solana"
)

var SupportedChains = []Chain{
	ChainEthereum,
	ChainPolygon,
	ChainArbitrum,
	ChainBSC,
	ChainAvalanche,
	ChainSolana,
}

func (c Chain) IsSupported() bool {
	for _, s := range SupportedChains {
		if s == c {
			return true
		}
	}
	return false
}

type Provider string

const (
	ProviderWormhole Provider = "wormhole"
	ProviderSynapse  Provider = "synapse"
	ProviderCeler    Provider = "celer"
)

var SupportedProviders = []Provider{
	ProviderWormhole,
	ProviderSynapse,
	ProviderCeler,
}

func (p Provider) IsSupported() bool {
	for _, s := range SupportedProviders {
		if s == p {
			return true
		}
	}
	return false
}
