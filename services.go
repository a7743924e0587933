package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dan13ram/xbridge-engine/api"
	"github.com/dan13ram/xbridge-engine/app"
	"github.com/dan13ram/xbridge-engine/bridge"
	"github.com/dan13ram/xbridge-engine/chain"
	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/events"
	"github.com/dan13ram/xbridge-engine/fees"
	"github.com/dan13ram/xbridge-engine/metrics"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/dan13ram/xbridge-engine/monitor"
	"github.com/dan13ram/xbridge-engine/notify"
	"github.com/dan13ram/xbridge-engine/relayer"
	"github.com/dan13ram/xbridge-engine/stats"
	"github.com/dan13ram/xbridge-engine/store"
	"github.com/ethereum/go-ethereum/ethclient"
	log "github.com/sirupsen/logrus"
)

// Engine holds every component of a running bridge engine.
type Engine struct {
	Store        store.TransactionStore
	Bus          *events.Bus
	Metrics      *metrics.Metrics
	Estimator    *fees.Estimator
	Submitters   *chain.Registry
	Queriers     *relayer.Registry
	Monitor      *monitor.TransactionMonitor
	Orchestrator *bridge.Orchestrator
	Stats        *stats.Aggregator
	Dispatcher   *notify.Dispatcher
	Push         *notify.PushHub

	closers []func() error
}

func NewEngine(config models.Config) (*Engine, error) {
	e := &Engine{Bus: events.NewBus()}

	if config.Metrics.Enabled {
		e.Metrics = metrics.New(config.Metrics.Namespace)
	}

	switch config.Store.Backend {
	case models.StoreBackendMongo:
		e.Store = store.NewMongoStore(app.DB)
	default:
		e.Store = store.NewMemoryStore()
	}

	var cache fees.Cache = fees.NewMemoryCache()
	if config.Redis.Enabled {
		redisCache := fees.NewRedisCache(config.Redis)
		e.closers = append(e.closers, redisCache.Close)
		cache = redisCache
	}

	assets := common.NewAssetRegistry(config.Assets)
	estimator, err := fees.NewEstimator(config.Chains, config.Bridge.Providers, assets, config.Assets, cache)
	if err != nil {
		return nil, fmt.Errorf("fee estimator: %w", err)
	}
	e.Estimator = estimator

	e.Submitters = chain.NewRegistry()
	for _, c := range config.Chains {
		if err := e.registerChain(c); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.Queriers = relayer.NewRegistry()
	for _, p := range config.Bridge.Providers {
		if p.RPCURL != "" {
			e.Queriers.Register(p.Name, relayer.NewRPCQuerier(p))
			log.WithField("provider", p.Name).Debug("[ENGINE] Using relayer rpc for phase queries")
			continue
		}
		e.Queriers.Register(p.Name, relayer.NewSimulatedQuerier(time.Duration(p.SimulatedStepSecs)*time.Second))
		log.WithField("provider", p.Name).Debug("[ENGINE] Using simulated phase queries")
	}

	monitorOpts := monitor.OptionsFromConfig(config.Monitor)
	monitorOpts.Metrics = e.Metrics
	e.Monitor = monitor.NewTransactionMonitor(e.Store, e.Queriers, e.Bus, monitorOpts)

	bridgeOpts := bridge.OptionsFromConfig(config.Bridge, config.Monitor)
	bridgeOpts.Metrics = e.Metrics
	e.Orchestrator = bridge.NewOrchestrator(e.Store, e.Estimator, e.Submitters, assets, e.Monitor, e.Bus, bridgeOpts)

	e.Stats = stats.NewAggregator(config.Stats.TopPaths, e.Metrics)
	e.Bus.Subscribe("stats", e.Stats)

	if config.Notifications.Enabled {
		if err := e.setupNotifications(config.Notifications); err != nil {
			e.Close()
			return nil, err
		}
	}

	return e, nil
}

func (e *Engine) registerChain(c models.ChainConfig) error {
	if c.Simulated {
		e.Submitters.Register(c.Name, chain.NewSimulatedSubmitter(c.Name))
		log.WithField("chain", c.Name).Debug("[ENGINE] Using simulated submitter")
		return nil
	}

	timeout := time.Duration(c.RPCTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, c.RPCURL)
	if err != nil {
		return fmt.Errorf("connecting to %s rpc: %w", c.Name, err)
	}
	e.closers = append(e.closers, func() error {
		client.Close()
		return nil
	})

	gasLimit := c.GasLimit
	if gasLimit == 0 {
		gasLimit = common.DefaultERC20TransferGas
	}
	e.Submitters.Register(c.Name, chain.NewEthereumSubmitter(string(c.Name), client, c.ChainID, gasLimit))
	e.Estimator.SetLiveSource(c.Name, fees.NewEthereumCostSource(client, gasLimit, c.NativeDecimals))
	log.WithField("chain", c.Name).Info("[ENGINE] Connected to chain rpc")
	return nil
}

func (e *Engine) setupNotifications(config models.NotificationsConfig) error {
	opts := notify.OptionsFromConfig(config)
	opts.Metrics = e.Metrics

	e.Push = notify.NewPushHub()
	e.Dispatcher = notify.NewDispatcher(opts).
		RegisterChannel(models.ChannelWebhook, notify.NewWebhookChannel(opts.DeliveryTimeout)).
		RegisterChannel(models.ChannelPush, e.Push)

	if config.Kafka.Enabled {
		kafka, err := notify.NewKafkaChannel(config.Kafka)
		if err != nil {
			return fmt.Errorf("kafka channel: %w", err)
		}
		e.Dispatcher.RegisterChannel(models.ChannelKafka, kafka)
		e.closers = append(e.closers, kafka.Close)
	}

	e.Bus.Subscribe("notify", e.Dispatcher)
	return nil
}

// Services returns the long running parts of the engine. Each one calls
// wg.Done exactly once after it is stopped.
func (e *Engine) Services(config models.Config, wg *sync.WaitGroup) []models.Service {
	services := []models.Service{e.Monitor.WithWaitGroup(wg)}

	if e.Dispatcher != nil {
		services = append(services, e.Dispatcher.WithWaitGroup(wg))
	} else {
		services = append(services, models.NewEmptyService(wg))
	}

	var healths func() []models.ServiceHealth
	if config.HTTP.Enabled {
		deps := api.Dependencies{
			Transfers: e.Orchestrator,
			Active:    e.Monitor,
			Stats:     e.Stats,
			Health:    func() []models.ServiceHealth { return healths() },
		}
		if e.Dispatcher != nil {
			deps.Notifications = e.Dispatcher
			deps.Push = e.Push.Handler()
		}
		if e.Metrics != nil {
			deps.Metrics = e.Metrics.Handler()
		}
		services = append(services, api.NewServer(config.HTTP.ListenAddr, api.NewRouter(deps), wg))
	}

	engineServices := append([]models.Service(nil), services...)
	healths = func() []models.ServiceHealth {
		out := make([]models.ServiceHealth, 0, len(engineServices))
		for _, s := range engineServices {
			out = append(out, s.Health())
		}
		return out
	}

	if config.Store.Backend == models.StoreBackendMongo {
		runner := app.NewHealthCheck(healths)
		interval := time.Duration(config.Monitor.IntervalMillis) * time.Millisecond
		services = append(services, app.NewRunnerService(app.HealthServiceName, runner, wg, interval))
	}

	return services
}

func (e *Engine) Close() {
	if e.Push != nil {
		e.Push.Close()
	}
	for _, closer := range e.closers {
		if err := closer(); err != nil {
			log.WithError(err).Warn("[ENGINE] Error closing component")
		}
	}
}
