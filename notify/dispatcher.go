package notify

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/metrics"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DispatcherName = "NOTIFY"
)

type Options struct {
	HistorySize     int
	FailureLogSize  int
	QueueSize       int
	Workers         int
	DeliveryTimeout time.Duration
	Metrics         *metrics.Metrics
	Now             func() time.Time
}

func OptionsFromConfig(config models.NotificationsConfig) Options {
	return Options{
		HistorySize:     config.HistorySize,
		FailureLogSize:  config.FailureLogSize,
		QueueSize:       config.QueueSize,
		Workers:         config.Workers,
		DeliveryTimeout: time.Duration(config.DeliveryTimeoutMillis) * time.Millisecond,
	}
}

// Dispatcher matches events against subscriptions and delivers a notification
// through every channel of each matching subscription. Delivery errors are
// recorded and logged, never returned to the publisher.
type Dispatcher struct {
	opts     Options
	metrics  *metrics.Metrics
	channels map[models.ChannelType]Channel

	subMu         sync.RWMutex
	subscriptions map[string]models.Subscription

	historyMu sync.Mutex
	history   map[string][]models.Notification
	failures  []models.DeliveryFailure

	// events of one transaction always land on the same worker, so they
	// are delivered in order while a slow channel only stalls its own shard
	queues   []chan models.Event
	pending  atomic.Int64
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
	wg       *sync.WaitGroup

	healthMu    sync.RWMutex
	lastDeliver time.Time
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.HistorySize <= 0 {
		opts.HistorySize = common.DefaultHistorySize
	}
	if opts.FailureLogSize <= 0 {
		opts.FailureLogSize = common.DefaultFailureLogSize
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	queues := make([]chan models.Event, opts.Workers)
	for i := range queues {
		queues[i] = make(chan models.Event, opts.QueueSize)
	}

	return &Dispatcher{
		opts:          opts,
		metrics:       opts.Metrics,
		channels:      map[models.ChannelType]Channel{models.ChannelLog: LogChannel{}},
		subscriptions: make(map[string]models.Subscription),
		history:       make(map[string][]models.Notification),
		queues:        queues,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// RegisterChannel must be called before the dispatcher starts.
func (d *Dispatcher) RegisterChannel(channelType models.ChannelType, channel Channel) *Dispatcher {
	d.channels[channelType] = channel
	return d
}

func (d *Dispatcher) validate(sub models.Subscription) error {
	if strings.TrimSpace(sub.SubscriberId) == "" {
		return fmt.Errorf("%w: subscriber id is required", common.ErrInvalidSubscription)
	}
	if len(sub.Channels) == 0 {
		return fmt.Errorf("%w: at least one channel is required", common.ErrInvalidSubscription)
	}
	for _, c := range sub.Channels {
		if _, ok := d.channels[c.Type]; !ok {
			return fmt.Errorf("%w: channel %q is not available", common.ErrInvalidSubscription, c.Type)
		}
		if c.Type == models.ChannelWebhook && c.Target == "" {
			return fmt.Errorf("%w: webhook channel needs a target url", common.ErrInvalidSubscription)
		}
	}
	if sub.Filter.Chain != "" && !sub.Filter.Chain.IsSupported() {
		return fmt.Errorf("%w: %s", common.ErrUnsupportedChain, sub.Filter.Chain)
	}
	return nil
}

// Subscribe stores sub under a new id and returns it.
func (d *Dispatcher) Subscribe(sub models.Subscription) (string, error) {
	if err := d.validate(sub); err != nil {
		return "", err
	}

	sub.Id = uuid.NewString()
	sub.CreatedAt = d.opts.Now()
	sub.Channels = append([]models.ChannelConfig(nil), sub.Channels...)
	sub.Filter.EventTypes = append([]models.EventType(nil), sub.Filter.EventTypes...)

	d.subMu.Lock()
	d.subscriptions[sub.Id] = sub
	d.subMu.Unlock()

	log.WithField("subscription_id", sub.Id).WithField("subscriber_id", sub.SubscriberId).Info("[NOTIFY] Subscribed")
	return sub.Id, nil
}

func (d *Dispatcher) Unsubscribe(id string) error {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	if _, ok := d.subscriptions[id]; !ok {
		return fmt.Errorf("%w: %s", common.ErrNoSubscription, id)
	}
	delete(d.subscriptions, id)
	log.WithField("subscription_id", id).Info("[NOTIFY] Unsubscribed")
	return nil
}

// Subscriptions returns every active subscription ordered by creation time.
func (d *Dispatcher) Subscriptions() []models.Subscription {
	d.subMu.RLock()
	subs := make([]models.Subscription, 0, len(d.subscriptions))
	for _, s := range d.subscriptions {
		subs = append(subs, s)
	}
	d.subMu.RUnlock()

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].Id < subs[j].Id
		}
		return subs[i].CreatedAt.Before(subs[j].CreatedAt)
	})
	return subs
}

// Matches reports whether event passes filter. Empty filter fields match everything.
func Matches(filter models.SubscriptionFilter, event models.Event) bool {
	tx := event.Transaction()
	if tx == nil {
		return false
	}
	if filter.Chain != "" && filter.Chain != tx.SourceChain && filter.Chain != tx.TargetChain {
		return false
	}
	if filter.Asset != "" && !strings.EqualFold(filter.Asset, tx.Asset) {
		return false
	}
	if filter.Address != "" &&
		!strings.EqualFold(filter.Address, tx.FromAddress) &&
		!strings.EqualFold(filter.Address, tx.ToAddress) {
		return false
	}
	if len(filter.EventTypes) > 0 {
		for _, t := range filter.EventTypes {
			if t == event.Type() {
				return true
			}
		}
		return false
	}
	return true
}

func describe(event models.Event) (string, string) {
	tx := event.Transaction()
	path := fmt.Sprintf("%s %s from %s to %s", tx.Amount, tx.Asset, tx.SourceChain, tx.TargetChain)

	switch e := event.(type) {
	case models.PhaseChanged:
		return "Transfer update", fmt.Sprintf("%s moved from %s to %s", path, e.PreviousPhase, e.NewPhase)
	case models.Completed:
		return "Transfer completed", fmt.Sprintf("%s has completed", path)
	case models.Failed:
		return "Transfer failed", fmt.Sprintf("%s failed: %s", path, e.Reason)
	case models.Refunded:
		return "Transfer refunded", fmt.Sprintf("%s was refunded: %s", path, e.Reason)
	}
	return "Transfer update", path
}

// HandleEvent queues event for the delivery workers. It never blocks; when
// QueueSize events are already pending the event is dropped and logged.
func (d *Dispatcher) HandleEvent(event models.Event) {
	if event == nil || event.Transaction() == nil {
		return
	}
	select {
	case <-d.stop:
		log.WithField("event", event.Type()).Warn("[NOTIFY] Dispatcher stopped, dropping event")
		return
	default:
	}

	for {
		pending := d.pending.Load()
		if pending >= int64(d.opts.QueueSize) {
			log.WithField("transaction_id", event.Transaction().Id).
				WithField("event", event.Type()).
				Error("[NOTIFY] Notification queue is full, dropping event")
			return
		}
		if d.pending.CompareAndSwap(pending, pending+1) {
			break
		}
	}
	// each shard holds QueueSize events, so this send never blocks
	d.queues[d.shardFor(event.Transaction().Id)] <- event
}

func (d *Dispatcher) shardFor(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(d.queues)))
}

// Dispatch delivers event synchronously and returns the notifications that were attempted.
func (d *Dispatcher) Dispatch(event models.Event) []models.Notification {
	if event == nil || event.Transaction() == nil {
		return nil
	}

	var sent []models.Notification
	for _, sub := range d.Subscriptions() {
		if !Matches(sub.Filter, event) {
			continue
		}
		title, message := describe(event)
		n := models.Notification{
			Id:             uuid.NewString(),
			SubscriptionId: sub.Id,
			Recipient:      sub.SubscriberId,
			EventType:      event.Type(),
			Title:          title,
			Message:        message,
			Transaction:    *event.Transaction().Clone(),
			CreatedAt:      d.opts.Now(),
		}
		if d.deliver(sub, n) {
			d.remember(n)
		}
		sent = append(sent, n)
	}
	return sent
}

// deliver tries every channel of sub and reports whether any of them succeeded.
func (d *Dispatcher) deliver(sub models.Subscription, n models.Notification) bool {
	delivered := false
	for _, c := range sub.Channels {
		err := d.attempt(c, n)
		d.metrics.ObserveDelivery(c.Type, err == nil)
		if err != nil {
			d.recordFailure(sub, c, n, err)
			continue
		}
		delivered = true
	}
	if delivered {
		d.healthMu.Lock()
		d.lastDeliver = d.opts.Now()
		d.healthMu.Unlock()
	}
	return delivered
}

func (d *Dispatcher) attempt(config models.ChannelConfig, n models.Notification) (err error) {
	channel, ok := d.channels[config.Type]
	if !ok {
		return fmt.Errorf("%w: channel %q is not available", common.ErrDelivery, config.Type)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: channel panicked: %v", common.ErrDelivery, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.opts.DeliveryTimeout)
	defer cancel()
	return channel.Deliver(ctx, config.Target, n)
}

func (d *Dispatcher) recordFailure(sub models.Subscription, c models.ChannelConfig, n models.Notification, err error) {
	log.WithError(err).
		WithField("subscription_id", sub.Id).
		WithField("channel", c.Type).
		WithField("transaction_id", n.Transaction.Id).
		Warn("[NOTIFY] Delivery failed")

	d.historyMu.Lock()
	defer d.historyMu.Unlock()
	d.failures = append(d.failures, models.DeliveryFailure{
		NotificationId: n.Id,
		SubscriptionId: sub.Id,
		Channel:        c.Type,
		Error:          err.Error(),
		At:             d.opts.Now(),
	})
	if over := len(d.failures) - d.opts.FailureLogSize; over > 0 {
		d.failures = append([]models.DeliveryFailure(nil), d.failures[over:]...)
	}
}

func (d *Dispatcher) remember(n models.Notification) {
	key := recipientKey(n.Recipient)

	d.historyMu.Lock()
	defer d.historyMu.Unlock()
	h := append(d.history[key], n)
	if over := len(h) - d.opts.HistorySize; over > 0 {
		h = append([]models.Notification(nil), h[over:]...)
	}
	d.history[key] = h
}

// History returns the recipient's delivered notifications, oldest first.
func (d *Dispatcher) History(recipient string) []models.Notification {
	d.historyMu.Lock()
	defer d.historyMu.Unlock()
	h := d.history[recipientKey(recipient)]
	return append([]models.Notification{}, h...)
}

// Failures returns the recorded delivery failures, oldest first.
func (d *Dispatcher) Failures() []models.DeliveryFailure {
	d.historyMu.Lock()
	defer d.historyMu.Unlock()
	return append([]models.DeliveryFailure{}, d.failures...)
}

func (d *Dispatcher) WithWaitGroup(wg *sync.WaitGroup) *Dispatcher {
	d.wg = wg
	return d
}

// Start runs the delivery workers until Stop. Queued events are drained before it returns.
func (d *Dispatcher) Start() {
	log.Info("[NOTIFY] Starting service")
	defer func() {
		close(d.done)
		if d.wg != nil {
			d.wg.Done()
		}
		log.Info("[NOTIFY] Stopped service")
	}()

	d.healthMu.Lock()
	d.started = true
	d.healthMu.Unlock()

	var workers sync.WaitGroup
	for _, queue := range d.queues {
		workers.Add(1)
		go func(queue chan models.Event) {
			defer workers.Done()
			d.work(queue)
		}(queue)
	}
	workers.Wait()
}

// work delivers the events of one shard until Stop, then drains what is left.
func (d *Dispatcher) work(queue chan models.Event) {
	for {
		select {
		case event := <-queue:
			d.pending.Add(-1)
			d.Dispatch(event)
		case <-d.stop:
			for {
				select {
				case event := <-queue:
					d.pending.Add(-1)
					d.Dispatch(event)
				default:
					return
				}
			}
		}
	}
}

// Stop signals the workers and waits for them if the dispatcher was started.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		log.Debug("[NOTIFY] Stopping service")
		close(d.stop)
	})

	d.healthMu.RLock()
	started := d.started
	d.healthMu.RUnlock()
	if started {
		<-d.done
	}
}

func (d *Dispatcher) Health() models.ServiceHealth {
	d.healthMu.RLock()
	last := d.lastDeliver
	d.healthMu.RUnlock()

	stopped := false
	select {
	case <-d.stop:
		stopped = true
	default:
	}

	d.historyMu.Lock()
	failures := len(d.failures)
	d.historyMu.Unlock()

	return models.ServiceHealth{
		Name:                DispatcherName,
		LastSyncTime:        last,
		NextSyncTime:        last,
		ConsecutiveFailures: failures,
		Pending:             int(d.pending.Load()),
		Healthy:             !stopped,
	}
}
