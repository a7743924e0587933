package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dan13ram/xbridge-engine/app"
	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/metrics"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/dan13ram/xbridge-engine/relayer"
	"github.com/dan13ram/xbridge-engine/store"
	log "github.com/sirupsen/logrus"
)

const (
	MonitorName = "MONITOR"
)

// Publisher receives the events the monitor emits.
type Publisher interface {
	Publish(event models.Event)
}

type discardPublisher struct{}

func (discardPublisher) Publish(models.Event) {}

type Options struct {
	Interval             time.Duration
	QueryTimeout         time.Duration
	StoreTimeout         time.Duration
	FailureWarnThreshold int
	Metrics              *metrics.Metrics
	Now                  func() time.Time
}

func OptionsFromConfig(config models.MonitorConfig) Options {
	return Options{
		Interval:             time.Duration(config.IntervalMillis) * time.Millisecond,
		QueryTimeout:         time.Duration(config.QueryTimeoutMillis) * time.Millisecond,
		StoreTimeout:         time.Duration(config.StoreTimeoutMillis) * time.Millisecond,
		FailureWarnThreshold: config.FailureWarnThreshold,
	}
}

// TransactionMonitor polls every registered transaction on its own goroutine
// and applies the phase changes its bridge provider reports.
type TransactionMonitor struct {
	store     store.TransactionStore
	queriers  *relayer.Registry
	publisher Publisher
	metrics   *metrics.Metrics
	opts      Options

	mu             sync.Mutex
	registrations  map[string]*registration
	nextGeneration uint64
	stopped        bool

	polls sync.WaitGroup
	wg    *sync.WaitGroup
	stop  chan struct{}
	once  sync.Once
}

func NewTransactionMonitor(
	transactions store.TransactionStore,
	queriers *relayer.Registry,
	publisher Publisher,
	opts Options,
) *TransactionMonitor {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 3 * time.Second
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 3 * time.Second
	}
	if opts.FailureWarnThreshold <= 0 {
		opts.FailureWarnThreshold = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = discardPublisher{}
	}

	return &TransactionMonitor{
		store:         transactions,
		queriers:      queriers,
		publisher:     publisher,
		metrics:       opts.Metrics,
		opts:          opts,
		registrations: make(map[string]*registration),
		stop:          make(chan struct{}),
	}
}

// StartMonitoring begins polling id. It does nothing if id is already monitored.
// A non-positive interval uses the configured default.
func (m *TransactionMonitor) StartMonitoring(id string, interval time.Duration) {
	logger := log.WithField("transaction_id", id)
	if interval <= 0 {
		interval = m.opts.Interval
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		logger.Warn("[MONITOR] Monitor is stopped, not monitoring transaction")
		return
	}
	if _, ok := m.registrations[id]; ok {
		logger.Debug("[MONITOR] Transaction is already monitored")
		return
	}

	m.nextGeneration++
	reg := &registration{
		id:         id,
		generation: m.nextGeneration,
		monitor:    m,
	}
	name := fmt.Sprintf("%s %s", MonitorName, id)
	reg.service = app.NewRunnerService(name, reg, &m.polls, interval)
	m.registrations[id] = reg
	m.metrics.SetActiveMonitors(len(m.registrations))

	m.polls.Add(1)
	go reg.service.Start()

	logger.WithField("interval", interval).Info("[MONITOR] Started monitoring transaction")
}

// StopMonitoring cancels the poll for id. A tick already in flight is discarded.
func (m *TransactionMonitor) StopMonitoring(id string) {
	m.mu.Lock()
	reg, ok := m.registrations[id]
	if ok {
		delete(m.registrations, id)
		m.metrics.SetActiveMonitors(len(m.registrations))
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	reg.cancel()
	log.WithField("transaction_id", id).Info("[MONITOR] Stopped monitoring transaction")
}

// deregister removes reg unless it was already replaced by a newer registration.
func (m *TransactionMonitor) deregister(reg *registration) {
	m.mu.Lock()
	if current, ok := m.registrations[reg.id]; ok && current.generation == reg.generation {
		delete(m.registrations, reg.id)
		m.metrics.SetActiveMonitors(len(m.registrations))
	}
	m.mu.Unlock()

	reg.cancel()
}

func (m *TransactionMonitor) isCurrent(reg *registration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.registrations[reg.id]
	return ok && current.generation == reg.generation
}

func (m *TransactionMonitor) IsMonitoring(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.registrations[id]
	return ok
}

func (m *TransactionMonitor) activeIds() []string {
	m.mu.Lock()
	ids := make([]string, 0, len(m.registrations))
	for id := range m.registrations {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// GetActiveTransaction returns the stored record for a monitored id. An id that
// is not monitored yields ErrNotFound.
func (m *TransactionMonitor) GetActiveTransaction(ctx context.Context, id string) (*models.BridgeTransaction, error) {
	if !m.IsMonitoring(id) {
		return nil, fmt.Errorf("%w: %s is not monitored", common.ErrNotFound, id)
	}
	return m.store.Get(ctx, id)
}

// ListActive returns the stored records of every monitored id, sorted by id.
func (m *TransactionMonitor) ListActive(ctx context.Context) ([]*models.BridgeTransaction, error) {
	ids := m.activeIds()
	txs := make([]*models.BridgeTransaction, 0, len(ids))
	for _, id := range ids {
		tx, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Resume registers every non-terminal transaction found in the store.
func (m *TransactionMonitor) Resume(ctx context.Context) (int, error) {
	txs, err := m.store.List(ctx, store.NonTerminalPhases...)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, tx := range txs {
		if tx.SourceTxRef == "" {
			continue
		}
		if !m.IsMonitoring(tx.Id) {
			resumed++
		}
		m.StartMonitoring(tx.Id, m.opts.Interval)
	}
	log.WithField("count", resumed).Info("[MONITOR] Resumed monitoring")
	return resumed, nil
}

func (m *TransactionMonitor) Start() {
	log.Info("[MONITOR] Starting service")
	<-m.stop
	log.Info("[MONITOR] Stopped service")
	if m.wg != nil {
		m.wg.Done()
	}
}

// Stop cancels every poll, waits for in-flight ticks to finish and releases Start.
func (m *TransactionMonitor) Stop() {
	m.once.Do(func() {
		log.Debug("[MONITOR] Stopping service")

		m.mu.Lock()
		m.stopped = true
		regs := make([]*registration, 0, len(m.registrations))
		for id, reg := range m.registrations {
			regs = append(regs, reg)
			delete(m.registrations, id)
		}
		m.metrics.SetActiveMonitors(0)
		m.mu.Unlock()

		for _, reg := range regs {
			reg.cancel()
		}
		m.polls.Wait()
		close(m.stop)
	})
}

func (m *TransactionMonitor) Health() models.ServiceHealth {
	m.mu.Lock()
	regs := make([]*registration, 0, len(m.registrations))
	for _, reg := range m.registrations {
		regs = append(regs, reg)
	}
	stopped := m.stopped
	m.mu.Unlock()

	failures := 0
	lastSync := time.Time{}
	for _, reg := range regs {
		failures += reg.Status().ConsecutiveFailures
		if h := reg.service.Health(); h.LastSyncTime.After(lastSync) {
			lastSync = h.LastSyncTime
		}
	}

	return models.ServiceHealth{
		Name:                MonitorName,
		LastSyncTime:        lastSync,
		NextSyncTime:        lastSync.Add(m.opts.Interval),
		ConsecutiveFailures: failures,
		Pending:             len(regs),
		Healthy:             !stopped,
	}
}

// WithWaitGroup registers the monitor with the process wait group released when Start returns.
func (m *TransactionMonitor) WithWaitGroup(wg *sync.WaitGroup) *TransactionMonitor {
	m.wg = wg
	return m
}
