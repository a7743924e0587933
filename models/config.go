package models

type Config struct {
	GoogleSecretManager GoogleSecretManagerConfig `yaml:"google_secret_manager" json:"google_secret_manager"`
	Logger              LoggerConfig              `yaml:"logger" json:"logger"`
	MongoDB             MongoConfig               `yaml:"mongodb" json:"mongo_db"`
	Redis               RedisConfig               `yaml:"redis" json:"redis"`
	Store               StoreConfig               `yaml:"store" json:"store"`
	Monitor             MonitorConfig             `yaml:"monitor" json:"monitor"`
	Bridge              BridgeConfig              `yaml:"bridge" json:"bridge"`
	Chains              []ChainConfig             `yaml:"chains" json:"chains"`
	Assets              []AssetConfig             `yaml:"assets" json:"assets"`
	Notifications       NotificationsConfig       `yaml:"notifications" json:"notifications"`
	Stats               StatsConfig               `yaml:"stats" json:"stats"`
	HTTP                HTTPConfig                `yaml:"http" json:"http"`
	Metrics             MetricsConfig             `yaml:"metrics" json:"metrics"`
}

type GoogleSecretManagerConfig struct {
	Enabled   bool              `yaml:"enabled" json:"enabled"`
	ProjectId string            `yaml:"project_id" json:"project_id"`
	Secrets   map[string]string `yaml:"secrets" json:"secrets"` // provider name -> secret holding its relayer api key
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text or json
}

type MongoConfig struct {
	URI           string `yaml:"uri" json:"uri"`
	Database      string `yaml:"database" json:"database"`
	TimeoutMillis int64  `yaml:"timeout_ms" json:"timeout_ms"`
}

type RedisConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	Host          string `yaml:"host" json:"host"`
	Port          int    `yaml:"port" json:"port"`
	TimeoutMillis int64  `yaml:"timeout_ms" json:"timeout_ms"`
	KeyPrefix     string `yaml:"key_prefix" json:"key_prefix"`
}

const (
	StoreBackendMemory = "memory"
	StoreBackendMongo  = "mongo"
)

type StoreConfig struct {
	Backend string `yaml:"backend" json:"backend"`
}

type MonitorConfig struct {
	IntervalMillis       int64 `yaml:"interval_ms" json:"interval_ms"`
	QueryTimeoutMillis   int64 `yaml:"query_timeout_ms" json:"query_timeout_ms"`
	StoreTimeoutMillis   int64 `yaml:"store_timeout_ms" json:"store_timeout_ms"`
	FailureWarnThreshold int   `yaml:"failure_warn_threshold" json:"failure_warn_threshold"`
	ResumeOnStart        bool  `yaml:"resume_on_start" json:"resume_on_start"`
}

type BridgeConfig struct {
	DefaultProvider     Provider         `yaml:"default_provider" json:"default_provider"`
	SubmitTimeoutMillis int64            `yaml:"submit_timeout_ms" json:"submit_timeout_ms"`
	Providers           []ProviderConfig `yaml:"providers" json:"providers"`
}

type ProviderConfig struct {
	Name              Provider         `yaml:"name" json:"name"`
	FeeRate           string           `yaml:"fee_rate" json:"fee_rate"`
	BaseDurationSecs  int64            `yaml:"base_duration_secs" json:"base_duration_secs"`
	RPCURL            string           `yaml:"rpc_url" json:"rpc_url"`
	RPCTimeoutMillis  int64            `yaml:"rpc_timeout_ms" json:"rpc_timeout_ms"`
	APIKey            string           `yaml:"api_key" json:"-"`
	SimulatedStepSecs int64            `yaml:"simulated_step_secs" json:"simulated_step_secs"`
	Contracts         map[Chain]string `yaml:"contracts" json:"contracts"` // source-leg deposit address per chain
}

type ChainConfig struct {
	Name             Chain  `yaml:"name" json:"name"`
	NativeSymbol     string `yaml:"native_symbol" json:"native_symbol"`
	NativeDecimals   int32  `yaml:"native_decimals" json:"native_decimals"`
	NativePriceUSD   string `yaml:"native_price_usd" json:"native_price_usd"`
	TxCost           string `yaml:"tx_cost" json:"tx_cost"` // static native cost of one transfer
	GasLimit         uint64 `yaml:"gas_limit" json:"gas_limit"`
	FinalitySecs     int64  `yaml:"finality_secs" json:"finality_secs"`
	RPCURL           string `yaml:"rpc_url" json:"rpc_url"`
	RPCTimeoutMillis int64  `yaml:"rpc_timeout_ms" json:"rpc_timeout_ms"`
	ChainID          int64  `yaml:"chain_id" json:"chain_id"`
	Simulated        bool   `yaml:"simulated" json:"simulated"`
}

type AssetConfig struct {
	Symbol   string           `yaml:"symbol" json:"symbol"`
	Decimals int32            `yaml:"decimals" json:"decimals"`
	PriceUSD string           `yaml:"price_usd" json:"price_usd"`
	Mappings map[Chain]string `yaml:"mappings" json:"mappings"` // chain -> token address, "native" for the gas token
}

type NotificationsConfig struct {
	Enabled               bool        `yaml:"enabled" json:"enabled"`
	HistorySize           int         `yaml:"history_size" json:"history_size"`
	FailureLogSize        int         `yaml:"failure_log_size" json:"failure_log_size"`
	QueueSize             int         `yaml:"queue_size" json:"queue_size"`
	Workers               int         `yaml:"workers" json:"workers"`
	DeliveryTimeoutMillis int64       `yaml:"delivery_timeout_ms" json:"delivery_timeout_ms"`
	Kafka                 KafkaConfig `yaml:"kafka" json:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topic   string   `yaml:"topic" json:"topic"`
}

type StatsConfig struct {
	TopPaths int `yaml:"top_paths" json:"top_paths"`
}

type HTTPConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}
