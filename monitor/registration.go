package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dan13ram/xbridge-engine/app"
	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/dan13ram/xbridge-engine/relayer"
	log "github.com/sirupsen/logrus"
)

var errUnchanged = errors.New("phase unchanged")

// registration is the poll task for one transaction id. It implements app.Runner.
type registration struct {
	id         string
	generation uint64
	monitor    *TransactionMonitor
	service    *app.RunnerService

	mu        sync.Mutex
	cancelled bool
	lastPhase models.Phase
	failures  int
}

func (r *registration) cancel() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()

	r.service.Stop()
}

func (r *registration) Status() models.RunnerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.RunnerStatus{
		TransactionId:       r.id,
		Phase:               r.lastPhase,
		ConsecutiveFailures: r.failures,
	}
}

// active must be called with r.mu held.
func (r *registration) active() bool {
	return !r.cancelled && r.monitor.isCurrent(r)
}

func (r *registration) recordFailure(logger *log.Entry, err error) {
	r.mu.Lock()
	r.failures++
	failures := r.failures
	r.mu.Unlock()

	logger = logger.WithError(err).WithField("consecutive_failures", failures)
	if failures >= r.monitor.opts.FailureWarnThreshold {
		logger.Error("[MONITOR] Phase query keeps failing")
	} else {
		logger.Warn("[MONITOR] Phase query failed")
	}
}

func (r *registration) Run() {
	m := r.monitor
	logger := log.WithField("transaction_id", r.id).WithField("generation", r.generation)

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.StoreTimeout)
	tx, err := m.store.Get(ctx, r.id)
	cancel()
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Warn("[MONITOR] Transaction not found, stopping monitor")
			m.deregister(r)
			return
		}
		r.recordFailure(logger, err)
		return
	}
	if tx.Phase.IsTerminal() {
		logger.Debug("[MONITOR] Transaction already terminal")
		m.deregister(r)
		return
	}

	r.mu.Lock()
	r.lastPhase = tx.Phase
	r.mu.Unlock()

	querier, ok := m.queriers.Get(tx.BridgeProvider)
	if !ok {
		r.recordFailure(logger, fmt.Errorf("%w: no querier for %s", common.ErrQuery, tx.BridgeProvider))
		return
	}

	ctx, cancel = context.WithTimeout(context.Background(), m.opts.QueryTimeout)
	result, err := querier.QueryPhase(ctx, tx)
	cancel()
	if err != nil {
		m.metrics.ObservePollError(tx.BridgeProvider)
		r.recordFailure(logger, err)
		return
	}
	if result == nil || !result.Phase.IsValid() {
		m.metrics.ObservePollError(tx.BridgeProvider)
		r.recordFailure(logger, fmt.Errorf("%w: invalid phase in result", common.ErrQuery))
		return
	}

	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()

	if result.Phase == tx.Phase {
		return
	}
	if result.Phase.Rank() < tx.Phase.Rank() {
		logger.WithField("phase", tx.Phase).WithField("reported", result.Phase).Warn("[MONITOR] Ignoring backwards phase")
		return
	}

	r.apply(logger, result)
}

func (r *registration) apply(logger *log.Entry, result *relayer.PhaseResult) {
	m := r.monitor

	r.mu.Lock()
	if !r.active() {
		r.mu.Unlock()
		logger.Debug("[MONITOR] Discarding tick for cancelled registration")
		return
	}

	var previous models.Phase
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.StoreTimeout)
	updated, err := m.store.Update(ctx, r.id, func(tx *models.BridgeTransaction) error {
		if tx.Phase.IsTerminal() {
			return common.ErrTerminalPhase
		}
		if tx.Phase == result.Phase || result.Phase.Rank() < tx.Phase.Rank() {
			return errUnchanged
		}
		previous = tx.Phase
		if result.TargetTxRef != "" {
			tx.TargetTxRef = result.TargetTxRef
		}
		message := result.Message
		if message == "" {
			message = fmt.Sprintf("%s reported %s", tx.BridgeProvider, result.Phase)
		}
		tx.AppendStatus(result.Phase, m.opts.Now(), message)
		return nil
	})
	cancel()

	if err != nil {
		r.mu.Unlock()
		switch {
		case errors.Is(err, common.ErrTerminalPhase):
			m.deregister(r)
		case errors.Is(err, errUnchanged):
			logger.Debug("[MONITOR] Phase changed concurrently, skipping tick")
		default:
			r.recordFailure(logger, err)
		}
		return
	}

	r.lastPhase = updated.Phase
	terminal := updated.Phase.IsTerminal()
	if terminal {
		r.cancelled = true
	}
	r.mu.Unlock()

	m.metrics.ObserveTransition(updated.Phase)
	logger.WithField("previous", previous).WithField("phase", updated.Phase).Info("[MONITOR] Phase changed")

	at := updated.UpdatedAt
	m.publisher.Publish(models.PhaseChanged{
		Tx:            updated.Clone(),
		PreviousPhase: previous,
		NewPhase:      updated.Phase,
		At:            at,
	})
	if terminal {
		m.publisher.Publish(models.TerminalEvent(updated.Clone(), result.Message, at))
		m.deregister(r)
		logger.WithField("phase", updated.Phase).Info("[MONITOR] Transaction reached terminal phase")
	}
}
