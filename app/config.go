package app

import (
	"os"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var (
	Config models.Config
)

func InitConfig(configFile string, envFile string) {
	log.Debug("[CONFIG] Initializing config")
	readConfigFromConfigFile(configFile)
	applyDefaults()
	readConfigFromENV(envFile)
	readKeysFromGSM()
	validateConfig()
	log.Info("[CONFIG] Config initialized")
}

func readConfigFromConfigFile(configFile string) bool {
	if configFile == "" {
		log.Debug("[CONFIG] No config file provided")
		return false
	}

	log.Debugf("[CONFIG] Reading config file %s", configFile)
	var yamlFile, err = os.ReadFile(configFile)
	if err != nil {
		log.Fatalf("[CONFIG] Error reading config file %q: %s\n", configFile, err.Error())
	}

	err = yaml.Unmarshal(yamlFile, &Config)
	if err != nil {
		log.Fatalf("[CONFIG] Error unmarshalling config file %q: %s\n", configFile, err.Error())
	}
	log.Debugf("[CONFIG] Read config file %s", configFile)
	return true
}

func applyDefaults() {
	if Config.Store.Backend == "" {
		Config.Store.Backend = models.StoreBackendMemory
	}
	if Config.MongoDB.TimeoutMillis == 0 {
		Config.MongoDB.TimeoutMillis = 2000
	}
	if Config.Redis.TimeoutMillis == 0 {
		Config.Redis.TimeoutMillis = 2000
	}
	if Config.Redis.KeyPrefix == "" {
		Config.Redis.KeyPrefix = "xbridge"
	}
	if Config.Monitor.IntervalMillis == 0 {
		Config.Monitor.IntervalMillis = 5000
	}
	if Config.Monitor.QueryTimeoutMillis == 0 {
		Config.Monitor.QueryTimeoutMillis = 3000
	}
	if Config.Monitor.StoreTimeoutMillis == 0 {
		Config.Monitor.StoreTimeoutMillis = 3000
	}
	if Config.Monitor.FailureWarnThreshold == 0 {
		Config.Monitor.FailureWarnThreshold = 5
	}
	if Config.Bridge.DefaultProvider == "" {
		Config.Bridge.DefaultProvider = models.ProviderWormhole
	}
	if Config.Bridge.SubmitTimeoutMillis == 0 {
		Config.Bridge.SubmitTimeoutMillis = 10000
	}
	if len(Config.Bridge.Providers) == 0 {
		Config.Bridge.Providers = DefaultProviders()
	}
	if len(Config.Chains) == 0 {
		Config.Chains = DefaultChains()
	}
	if len(Config.Assets) == 0 {
		Config.Assets = common.DefaultAssets()
	}
	if Config.Notifications.HistorySize == 0 {
		Config.Notifications.HistorySize = common.DefaultHistorySize
	}
	if Config.Notifications.FailureLogSize == 0 {
		Config.Notifications.FailureLogSize = common.DefaultFailureLogSize
	}
	if Config.Notifications.QueueSize == 0 {
		Config.Notifications.QueueSize = 1024
	}
	if Config.Notifications.Workers == 0 {
		Config.Notifications.Workers = 4
	}
	if Config.Notifications.DeliveryTimeoutMillis == 0 {
		Config.Notifications.DeliveryTimeoutMillis = 5000
	}
	if Config.Stats.TopPaths == 0 {
		Config.Stats.TopPaths = common.DefaultTopPaths
	}
	if Config.HTTP.ListenAddr == "" {
		Config.HTTP.ListenAddr = ":8080"
	}
	if Config.Metrics.Namespace == "" {
		Config.Metrics.Namespace = "xbridge"
	}
}

func validateConfig() {
	log.Debug("[CONFIG] Validating config")

	if Config.Store.Backend != models.StoreBackendMemory && Config.Store.Backend != models.StoreBackendMongo {
		log.Fatal("[CONFIG] Store.Backend must be memory or mongo")
	}
	if Config.Store.Backend == models.StoreBackendMongo {
		if Config.MongoDB.URI == "" {
			log.Fatal("[CONFIG] MongoDB.URI is required")
		}
		if Config.MongoDB.Database == "" {
			log.Fatal("[CONFIG] MongoDB.Database is required")
		}
	}
	if Config.Redis.Enabled && Config.Redis.Host == "" {
		log.Fatal("[CONFIG] Redis.Host is required")
	}
	if Config.Monitor.IntervalMillis < 0 {
		log.Fatal("[CONFIG] Monitor.IntervalMillis is invalid")
	}

	providers := make(map[models.Provider]bool)
	for i, p := range Config.Bridge.Providers {
		if !p.Name.IsSupported() {
			log.Fatalf("[CONFIG] Bridge.Providers[%d].Name %q is not supported", i, p.Name)
		}
		rate, err := decimal.NewFromString(p.FeeRate)
		if err != nil || rate.IsNegative() {
			log.Fatalf("[CONFIG] Bridge.Providers[%d].FeeRate is invalid", i)
		}
		if p.RPCURL == "" && p.SimulatedStepSecs <= 0 {
			log.Fatalf("[CONFIG] Bridge.Providers[%d] needs RPCURL or SimulatedStepSecs", i)
		}
		providers[p.Name] = true
	}
	if !providers[Config.Bridge.DefaultProvider] {
		log.Fatalf("[CONFIG] Bridge.DefaultProvider %q is not configured", Config.Bridge.DefaultProvider)
	}

	for i, c := range Config.Chains {
		if !c.Name.IsSupported() {
			log.Fatalf("[CONFIG] Chains[%d].Name %q is not supported", i, c.Name)
		}
		if _, err := decimal.NewFromString(c.TxCost); err != nil {
			log.Fatalf("[CONFIG] Chains[%d].TxCost is invalid", i)
		}
		if _, err := decimal.NewFromString(c.NativePriceUSD); err != nil {
			log.Fatalf("[CONFIG] Chains[%d].NativePriceUSD is invalid", i)
		}
		if !c.Simulated && c.RPCURL == "" {
			log.Fatalf("[CONFIG] Chains[%d].RPCURL is required when not simulated", i)
		}
	}

	for i, a := range Config.Assets {
		if a.Symbol == "" {
			log.Fatalf("[CONFIG] Assets[%d].Symbol is required", i)
		}
		if _, err := decimal.NewFromString(a.PriceUSD); err != nil {
			log.Fatalf("[CONFIG] Assets[%d].PriceUSD is invalid", i)
		}
	}

	if Config.Notifications.Kafka.Enabled && len(Config.Notifications.Kafka.Brokers) == 0 {
		log.Fatal("[CONFIG] Notifications.Kafka.Brokers is required")
	}

	log.Debug("[CONFIG] Config validated")
}

func DefaultProviders() []models.ProviderConfig {
	return []models.ProviderConfig{
		{Name: models.ProviderWormhole, FeeRate: "0.001", BaseDurationSecs: 900, SimulatedStepSecs: 30},
		{Name: models.ProviderSynapse, FeeRate: "0.0005", BaseDurationSecs: 600, SimulatedStepSecs: 20},
		{Name: models.ProviderCeler, FeeRate: "0.0004", BaseDurationSecs: 1200, SimulatedStepSecs: 40},
	}
}

func DefaultChains() []models.ChainConfig {
	return []models.ChainConfig{
		{Name: models.ChainEthereum, NativeSymbol: "ETH", NativeDecimals: 18, NativePriceUSD: "3000", TxCost: "0.002", GasLimit: common.DefaultERC20TransferGas, FinalitySecs: 780, Simulated: true},
		{Name: models.ChainPolygon, NativeSymbol: "MATIC", NativeDecimals: 18, NativePriceUSD: "0.5", TxCost: "0.01", GasLimit: common.DefaultERC20TransferGas, FinalitySecs: 256, Simulated: true},
		{Name: models.ChainArbitrum, NativeSymbol: "ETH", NativeDecimals: 18, NativePriceUSD: "3000", TxCost: "0.0001", GasLimit: common.DefaultERC20TransferGas, FinalitySecs: 60, Simulated: true},
		{Name: models.ChainBSC, NativeSymbol: "BNB", NativeDecimals: 18, NativePriceUSD: "600", TxCost: "0.0005", GasLimit: common.DefaultERC20TransferGas, FinalitySecs: 45, Simulated: true},
		{Name: models.ChainAvalanche, NativeSymbol: "AVAX", NativeDecimals: 18, NativePriceUSD: "30", TxCost: "0.005", GasLimit: common.DefaultERC20TransferGas, FinalitySecs: 2, Simulated: true},
		{Name: models.ChainSolana, NativeSymbol: "SOL", NativeDecimals: 9, NativePriceUSD: "150", TxCost: "0.000005", FinalitySecs: 13, Simulated: true},
	}
}
